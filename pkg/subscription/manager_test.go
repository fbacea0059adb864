// Copyright © 2025 jackelyj <dreamerlyj@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.
//

package subscription_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
	"github.com/jjaideep2000/asynccode/pkg/subscription/testutil"
)

func newManager(t *testing.T, fake *testutil.FakePlatform, consumer, bindingID string) *subscription.Manager {
	t.Helper()
	return subscription.NewManager(consumer, bindingID, fake, "orders-queue", zap.NewNop())
}

func TestManagerDisableThenStatus(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("bank-account-setup", "queue://orders-queue", subscription.StateEnabled)

	m := newManager(t, fake, "bank-account-setup", "")

	require.True(t, m.Disable(context.Background()))
	assert.False(t, m.Status(context.Background()))
}

func TestManagerEnableThenStatus(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("bank-account-setup", "queue://orders-queue", subscription.StateDisabled)

	m := newManager(t, fake, "bank-account-setup", "")

	require.True(t, m.Enable(context.Background()))
	assert.True(t, m.Status(context.Background()))
}

func TestManagerDisableIsIdempotent(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("bank-account-setup", "queue://orders-queue", subscription.StateEnabled)

	m := newManager(t, fake, "bank-account-setup", "")

	assert.True(t, m.Disable(context.Background()))
	assert.True(t, m.Disable(context.Background()))
	assert.False(t, m.Status(context.Background()))

	b, err := fake.GetBinding(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, subscription.StateDisabled, b.State)
}

func TestManagerUsesPreKnownBindingID(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("payment-processing", "queue://orders-queue", subscription.StateEnabled)

	m := newManager(t, fake, "payment-processing", id)
	require.True(t, m.Disable(context.Background()))

	// Discovery was skipped: the only update call targets the given id.
	require.Len(t, fake.UpdateCalls, 1)
	assert.Equal(t, id, fake.UpdateCalls[0].BindingID)
}

func TestManagerDisableWithoutBindingReturnsFalse(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddConsumer("bank-account-setup") // no bindings

	m := newManager(t, fake, "bank-account-setup", "")

	assert.False(t, m.Disable(context.Background()))
	assert.False(t, m.Enable(context.Background()))
	assert.False(t, m.Status(context.Background()))
	assert.Empty(t, fake.UpdateCalls)
}

func TestManagerSwallowsPlatformErrors(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("bank-account-setup", "queue://orders-queue", subscription.StateEnabled)
	fake.UpdateErr[id] = errors.New("platform unavailable")

	m := newManager(t, fake, "bank-account-setup", "")

	assert.False(t, m.Disable(context.Background()))
}

func TestManagerStatusQueryFailureReportsFalse(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("bank-account-setup", "queue://orders-queue", subscription.StateEnabled)
	fake.GetBindingErr[id] = errors.New("throttled")

	m := newManager(t, fake, "bank-account-setup", id)

	assert.False(t, m.Status(context.Background()))
}

func TestManagerCachesDiscoveredBinding(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("bank-account-setup", "queue://orders-queue", subscription.StateEnabled)

	m := newManager(t, fake, "bank-account-setup", "")

	require.True(t, m.Disable(context.Background()))
	assert.Equal(t, id, m.BindingID())

	// Discovery failures after caching no longer matter.
	fake.ListBindingsErr["bank-account-setup"] = errors.New("listing broken")
	assert.True(t, m.Enable(context.Background()))
}
