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
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
	"github.com/jjaideep2000/asynccode/pkg/subscription/testutil"
)

func TestResolverFindsSingleQueueBinding(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("payment-processing", "queue://payments-queue", subscription.StateEnabled)
	fake.AddBinding("payment-processing", "stream://audit-log", subscription.StateEnabled)

	r := subscription.NewResolver(fake, "queue", zap.NewNop())

	got, ok := r.Resolve(context.Background(), "payment-processing")
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestResolverQueueHintIsCaseInsensitive(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("payment-processing", "arn:aws:SQS:us-east-1:payments", subscription.StateEnabled)

	r := subscription.NewResolver(fake, "sqs", zap.NewNop())

	got, ok := r.Resolve(context.Background(), "payment-processing")
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestResolverNoMatch(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("payment-processing", "stream://audit-log", subscription.StateEnabled)

	r := subscription.NewResolver(fake, "queue", zap.NewNop())

	got, ok := r.Resolve(context.Background(), "payment-processing")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestResolverDiscoveryFailureDegradesToUnknown(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.ListBindingsErr["payment-processing"] = errors.New("api down")

	r := subscription.NewResolver(fake, "queue", zap.NewNop())

	got, ok := r.Resolve(context.Background(), "payment-processing")
	assert.False(t, ok)
	assert.Empty(t, got)
}

func TestResolverMultipleMatchesReturnsFirst(t *testing.T) {
	fake := testutil.NewFakePlatform()
	first := fake.AddBinding("payment-processing", "queue://payments-a", subscription.StateEnabled)
	fake.AddBinding("payment-processing", "queue://payments-b", subscription.StateEnabled)

	r := subscription.NewResolver(fake, "queue", zap.NewNop())

	got, ok := r.Resolve(context.Background(), "payment-processing")
	assert.True(t, ok)
	assert.Equal(t, first, got)
}

func TestFilterQueueBindings(t *testing.T) {
	bindings := []subscription.Binding{
		{ID: "a", QueueRef: "queue://one"},
		{ID: "b", QueueRef: "stream://two"},
		{ID: "c", QueueRef: "QUEUE://three"},
	}

	got := subscription.FilterQueueBindings(bindings, "queue")
	assert.Len(t, got, 2)

	all := subscription.FilterQueueBindings(bindings, "")
	assert.Len(t, all, 3)
}
