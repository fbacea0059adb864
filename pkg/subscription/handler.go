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

package subscription

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// Actions a Decision can carry.
const (
	// DecisionContinue means keep consuming; the failure does not impair
	// the consumer's health.
	DecisionContinue = "continue"
	// DecisionStopSubscription means the downstream dependency looks
	// unhealthy; the consumer's feed has been (or was attempted to be)
	// disabled.
	DecisionStopSubscription = "stop_subscription"
)

// MessageContext carries per-message identifiers into error reports.
type MessageContext struct {
	MessageID  string `json:"message_id,omitempty"`
	CustomerID string `json:"customer_id,omitempty"`
}

// ErrorInfo is the structured record of one handled failure.
type ErrorInfo struct {
	Kind       ErrorKind `json:"error_kind"`
	Message    string    `json:"error_message"`
	StatusCode int       `json:"status_code,omitempty"`
	Service    string    `json:"service"`
	MessageID  string    `json:"message_id,omitempty"`
	CustomerID string    `json:"customer_id,omitempty"`
	// SubscriptionDisabled is set only when a disable was attempted,
	// recording whether it succeeded.
	SubscriptionDisabled *bool `json:"subscription_disabled,omitempty"`
}

// Decision is the error handler's verdict for one failed message.
type Decision struct {
	Action string    `json:"action"`
	Retry  bool      `json:"retry"`
	Info   ErrorInfo `json:"error_info"`
}

// Handler decides continue-or-stop per message failure. It is the last
// line of defense in the consumer loop: it never propagates an error or
// panic, since an escape here would be indistinguishable from the original
// business failure and could trigger platform-level retry storms.
type Handler struct {
	service string
	manager *Manager
	logger  *zap.Logger
}

// NewHandler builds an error handler for the named service. manager may be
// nil, in which case server errors are reported but no disable is
// attempted.
func NewHandler(service string, manager *Manager, logger *zap.Logger) *Handler {
	return &Handler{service: service, manager: manager, logger: logger}
}

// HandleError classifies err and applies the decision table:
//
//	client_error                      -> continue (bad request, skip it)
//	server_error                      -> stop_subscription, disable feed
//	network_error                     -> continue, retry
//	validation/processing_error       -> continue, no retry
func (h *Handler) HandleError(ctx context.Context, err error, msg MessageContext, statusCode int) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic in error handler",
				zap.Any("panic", r),
				zap.String("service", h.service))
			decision = Decision{
				Action: DecisionContinue,
				Info: ErrorInfo{
					Kind:       KindProcessingError,
					Service:    h.service,
					MessageID:  msg.MessageID,
					CustomerID: msg.CustomerID,
				},
			}
		}
	}()

	c := Classify(err, statusCode)
	info := ErrorInfo{
		Kind:       c.Kind,
		Message:    c.RawMessage,
		StatusCode: statusCode,
		Service:    h.service,
		MessageID:  msg.MessageID,
		CustomerID: msg.CustomerID,
	}

	switch c.Kind {
	case KindClientError:
		h.logger.Info("client error, continuing processing",
			zap.String("service", h.service),
			zap.String("message_id", msg.MessageID),
			zap.Int("status_code", statusCode))
		return Decision{Action: DecisionContinue, Retry: false, Info: info}

	case KindServerError:
		h.logger.Warn("server error, stopping subscription",
			zap.String("service", h.service),
			zap.String("message_id", msg.MessageID),
			zap.Int("status_code", statusCode))
		if h.manager != nil {
			disabled := h.manager.Disable(ctx)
			info.SubscriptionDisabled = &disabled
		}
		// Retry is set for completeness; the stopped subscription is what
		// actually parks the message.
		return Decision{Action: DecisionStopSubscription, Retry: true, Info: info}

	default:
		h.logger.Info("continuing after processing failure",
			zap.String("service", h.service),
			zap.String("error_kind", string(c.Kind)),
			zap.String("message_id", msg.MessageID))
		return Decision{Action: DecisionContinue, Retry: c.Kind.Retryable(), Info: info}
	}
}

// HandleControl applies a broadcast control message to this consumer.
// Messages targeted at another service are acknowledged without action.
// Returns false when no manager is configured or the toggle failed.
func (h *Handler) HandleControl(ctx context.Context, cm ControlMessage) bool {
	if cm.Service != "" && !strings.EqualFold(cm.Service, h.service) {
		h.logger.Info("control message targets another service",
			zap.String("service", h.service),
			zap.String("target", cm.Service))
		return true
	}

	if h.manager == nil {
		h.logger.Warn("no subscription manager configured",
			zap.String("service", h.service))
		return false
	}

	switch cm.Action {
	case ActionEnable:
		h.logger.Info("control: enabling subscription",
			zap.String("service", h.service),
			zap.String("operator", cm.Operator),
			zap.String("reason", cm.Reason))
		return h.manager.Enable(ctx)
	case ActionDisable:
		h.logger.Info("control: disabling subscription",
			zap.String("service", h.service),
			zap.String("operator", cm.Operator),
			zap.String("reason", cm.Reason))
		return h.manager.Disable(ctx)
	default:
		h.logger.Warn("unknown control action",
			zap.String("service", h.service),
			zap.String("action", cm.Action))
		return false
	}
}
