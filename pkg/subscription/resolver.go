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

// Resolver discovers the opaque id of a consumer's queue binding at
// decision time. Binding ids are assigned at provisioning and not known
// to application code; re-discovering them avoids brittle configuration
// and survives redeployment.
type Resolver struct {
	platform  Platform
	queueHint string
	logger    *zap.Logger
}

// NewResolver builds a resolver. queueHint is a case-insensitive substring
// the queue reference must contain for a binding to count as a queue
// binding (e.g. "sqs" or the queue name).
func NewResolver(platform Platform, queueHint string, logger *zap.Logger) *Resolver {
	return &Resolver{platform: platform, queueHint: queueHint, logger: logger}
}

// Resolve returns the binding id for consumer, or ("", false) when no
// binding could be determined. Discovery failures are logged and degrade
// to "binding unknown"; Resolve never returns an error.
func (r *Resolver) Resolve(ctx context.Context, consumer string) (string, bool) {
	bindings, err := r.platform.ListBindings(ctx, consumer)
	if err != nil {
		r.logger.Error("binding discovery failed",
			zap.String("consumer", consumer),
			zap.Error(err))
		return "", false
	}

	matches := FilterQueueBindings(bindings, r.queueHint)
	switch len(matches) {
	case 0:
		r.logger.Warn("no queue binding found",
			zap.String("consumer", consumer),
			zap.String("queue_hint", r.queueHint),
			zap.Int("bindings_seen", len(bindings)))
		return "", false
	case 1:
		r.logger.Info("discovered queue binding",
			zap.String("consumer", consumer),
			zap.String("binding_id", matches[0].ID))
		return matches[0].ID, true
	default:
		// First match wins; each binding is still toggled independently
		// by id elsewhere.
		r.logger.Warn("multiple queue bindings found, using first",
			zap.String("consumer", consumer),
			zap.Int("matches", len(matches)),
			zap.String("binding_id", matches[0].ID))
		return matches[0].ID, true
	}
}

// FilterQueueBindings keeps bindings whose queue reference contains hint,
// case-insensitively. An empty hint keeps everything.
func FilterQueueBindings(bindings []Binding, hint string) []Binding {
	if hint == "" {
		return bindings
	}
	hint = strings.ToLower(hint)
	var out []Binding
	for _, b := range bindings {
		if strings.Contains(strings.ToLower(b.QueueRef), hint) {
			out = append(out, b)
		}
	}
	return out
}
