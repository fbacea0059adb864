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

	"go.uber.org/zap"
)

// Manager controls one consumer's queue binding. All operations convert
// platform failures to boolean results; nothing here ever propagates an
// error into the consumer's processing loop.
//
// A Manager is meant to be owned by a single unit of work. The binding id
// is cached after the first successful discovery for the life of the
// instance; the worst outcome of losing a race is a redundant discovery
// call.
type Manager struct {
	consumer  string
	bindingID string
	resolver  *Resolver
	platform  Platform
	logger    *zap.Logger
}

// NewManager builds a manager for the named consumer. bindingID may be
// empty, in which case it is discovered on first use.
func NewManager(consumer, bindingID string, platform Platform, queueHint string, logger *zap.Logger) *Manager {
	return &Manager{
		consumer:  consumer,
		bindingID: bindingID,
		resolver:  NewResolver(platform, queueHint, logger),
		platform:  platform,
		logger:    logger,
	}
}

// Consumer returns the consumer identity this manager controls.
func (m *Manager) Consumer() string { return m.consumer }

// BindingID returns the cached binding id, which may be empty before the
// first successful discovery.
func (m *Manager) BindingID() string { return m.bindingID }

// Disable stops the consumer's feed from the queue. Returns false when the
// binding is unknown or the platform call fails; both are logged, never
// raised. Disabling an already-disabled binding succeeds.
func (m *Manager) Disable(ctx context.Context) bool {
	return m.setEnabled(ctx, false)
}

// Enable resumes the consumer's feed from the queue, symmetric to Disable.
func (m *Manager) Enable(ctx context.Context) bool {
	return m.setEnabled(ctx, true)
}

// Status reports whether the binding is currently Enabled. Unknown binding
// or a failed query both report false with a warning.
func (m *Manager) Status(ctx context.Context) bool {
	if !m.ensureBinding(ctx) {
		m.logger.Warn("no binding id available, cannot check status",
			zap.String("consumer", m.consumer))
		return false
	}

	binding, err := m.platform.GetBinding(ctx, m.bindingID)
	if err != nil {
		m.logger.Warn("failed to read binding state",
			zap.String("consumer", m.consumer),
			zap.String("binding_id", m.bindingID),
			zap.Error(err))
		return false
	}

	m.logger.Info("subscription status",
		zap.String("consumer", m.consumer),
		zap.String("state", string(binding.State)))
	return binding.State == StateEnabled
}

func (m *Manager) setEnabled(ctx context.Context, enabled bool) bool {
	verb := "disable"
	if enabled {
		verb = "enable"
	}

	if !m.ensureBinding(ctx) {
		m.logger.Error("no binding id available, cannot "+verb+" subscription",
			zap.String("consumer", m.consumer))
		return false
	}

	if err := m.platform.SetBindingEnabled(ctx, m.bindingID, enabled); err != nil {
		m.logger.Error("failed to "+verb+" subscription",
			zap.String("consumer", m.consumer),
			zap.String("binding_id", m.bindingID),
			zap.Error(err))
		return false
	}

	if enabled {
		m.logger.Info("subscription enabled",
			zap.String("consumer", m.consumer),
			zap.String("binding_id", m.bindingID))
	} else {
		m.logger.Warn("subscription disabled",
			zap.String("consumer", m.consumer),
			zap.String("binding_id", m.bindingID))
	}
	return true
}

func (m *Manager) ensureBinding(ctx context.Context) bool {
	if m.bindingID != "" {
		return true
	}
	id, ok := m.resolver.Resolve(ctx, m.consumer)
	if !ok {
		return false
	}
	m.bindingID = id
	return true
}
