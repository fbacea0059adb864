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

func newHandler(t *testing.T, fake *testutil.FakePlatform, service string) *subscription.Handler {
	t.Helper()
	m := subscription.NewManager(service, "", fake, "queue", zap.NewNop())
	return subscription.NewHandler(service, m, zap.NewNop())
}

func TestHandleErrorClientErrorContinues(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("bank-account-setup", "queue://setup", subscription.StateEnabled)
	h := newHandler(t, fake, "bank-account-setup")

	d := h.HandleError(context.Background(), errors.New("bad account format"),
		subscription.MessageContext{MessageID: "m-1", CustomerID: "c-42"}, 400)

	assert.Equal(t, subscription.DecisionContinue, d.Action)
	assert.False(t, d.Retry)
	assert.Equal(t, subscription.KindClientError, d.Info.Kind)
	assert.Equal(t, "m-1", d.Info.MessageID)
	assert.Equal(t, "c-42", d.Info.CustomerID)
	// No disable was attempted.
	assert.Empty(t, fake.UpdateCalls)
	assert.Nil(t, d.Info.SubscriptionDisabled)
}

func TestHandleErrorServerErrorStopsSubscription(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("bank-account-setup", "queue://setup", subscription.StateEnabled)
	h := newHandler(t, fake, "bank-account-setup")

	d := h.HandleError(context.Background(), errors.New("dependency exploded"),
		subscription.MessageContext{MessageID: "m-2"}, 500)

	assert.Equal(t, subscription.DecisionStopSubscription, d.Action)
	require.NotNil(t, d.Info.SubscriptionDisabled)
	assert.True(t, *d.Info.SubscriptionDisabled)

	// Disable was attempted exactly once, against the discovered binding.
	require.Len(t, fake.UpdateCalls, 1)
	assert.Equal(t, testutil.UpdateCall{BindingID: id, Enabled: false}, fake.UpdateCalls[0])
}

func TestHandleErrorServerErrorDisableFailureRecorded(t *testing.T) {
	fake := testutil.NewFakePlatform()
	id := fake.AddBinding("bank-account-setup", "queue://setup", subscription.StateEnabled)
	fake.UpdateErr[id] = errors.New("update rejected")
	h := newHandler(t, fake, "bank-account-setup")

	d := h.HandleError(context.Background(), errors.New("boom"), subscription.MessageContext{}, 503)

	assert.Equal(t, subscription.DecisionStopSubscription, d.Action)
	require.NotNil(t, d.Info.SubscriptionDisabled)
	assert.False(t, *d.Info.SubscriptionDisabled)
}

func TestHandleErrorRetryFlags(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("payment-processing", "queue://payments", subscription.StateEnabled)
	h := newHandler(t, fake, "payment-processing")

	tests := []struct {
		name      string
		err       error
		wantRetry bool
	}{
		{name: "network retries", err: errors.New("connection refused"), wantRetry: true},
		{name: "validation never retries", err: errors.New("invalid payment amount"), wantRetry: false},
		{name: "processing never retries", err: errors.New("ledger rejected entry"), wantRetry: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := h.HandleError(context.Background(), tt.err, subscription.MessageContext{}, 0)
			assert.Equal(t, subscription.DecisionContinue, d.Action)
			assert.Equal(t, tt.wantRetry, d.Retry)
		})
	}
}

func TestHandleErrorWithoutManager(t *testing.T) {
	h := subscription.NewHandler("payment-processing", nil, zap.NewNop())

	d := h.HandleError(context.Background(), errors.New("down"), subscription.MessageContext{}, 500)

	assert.Equal(t, subscription.DecisionStopSubscription, d.Action)
	assert.Nil(t, d.Info.SubscriptionDisabled)
}

func TestHandleControlEnableDisable(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("payment-processing", "queue://payments", subscription.StateEnabled)
	h := newHandler(t, fake, "payment-processing")
	m := subscription.NewManager("payment-processing", "", fake, "queue", zap.NewNop())

	ok := h.HandleControl(context.Background(), subscription.ControlMessage{Action: subscription.ActionDisable})
	assert.True(t, ok)
	assert.False(t, m.Status(context.Background()))

	ok = h.HandleControl(context.Background(), subscription.ControlMessage{Action: subscription.ActionEnable})
	assert.True(t, ok)
	assert.True(t, m.Status(context.Background()))
}

func TestHandleControlTargetedAtAnotherService(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("payment-processing", "queue://payments", subscription.StateEnabled)
	h := newHandler(t, fake, "payment-processing")

	ok := h.HandleControl(context.Background(), subscription.ControlMessage{
		Action:  subscription.ActionDisable,
		Service: "bank-account-setup",
	})

	// Acknowledged, but no toggle happened here.
	assert.True(t, ok)
	assert.Empty(t, fake.UpdateCalls)
}

// End-to-end: a 500 during processing classifies as a server error, the
// handler stops the subscription, and status flips to not-enabled.
func TestServerErrorEndToEnd(t *testing.T) {
	fake := testutil.NewFakePlatform()
	fake.AddBinding("bank-account-setup", "queue://setup", subscription.StateEnabled)

	m := subscription.NewManager("bank-account-setup", "", fake, "queue", zap.NewNop())
	h := subscription.NewHandler("bank-account-setup", m, zap.NewNop())

	c := subscription.Classify(errors.New("internal server error"), 500)
	require.Equal(t, subscription.KindServerError, c.Kind)

	d := h.HandleError(context.Background(), errors.New("internal server error"),
		subscription.MessageContext{MessageID: "m-99", CustomerID: "c-7"}, 500)

	assert.Equal(t, subscription.DecisionStopSubscription, d.Action)
	require.NotNil(t, d.Info.SubscriptionDisabled)
	assert.True(t, *d.Info.SubscriptionDisabled)
	assert.False(t, m.Status(context.Background()))
}
