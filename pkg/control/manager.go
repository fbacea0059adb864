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

package control

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

const defaultMinRefreshInterval = 30 * time.Second

// Config holds the registry discovery settings.
type Config struct {
	// Prefix selects managed consumers by name during auto-scan.
	Prefix string
	// Exclude drops consumers whose name or service contains any of
	// these substrings. The manager's own service name belongs here.
	Exclude []string
	// QueueHint is the substring a binding's queue reference must
	// contain to count as a queue binding.
	QueueHint string
	// MinRefreshInterval throttles registry re-scans. Zero means the
	// 30s default.
	MinRefreshInterval time.Duration
}

// Manager is the centralized subscription manager. It discovers the set of
// managed consumers dynamically and fans control actions out across them,
// isolating each consumer's failures from its siblings.
type Manager struct {
	platform subscription.Platform
	sources  []RegistrySource
	cfg      Config
	logger   *zap.Logger
	metrics  *Metrics

	mu          sync.Mutex
	registry    []Consumer
	source      string
	lastRefresh time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithSources replaces the default platform-scan source chain.
func WithSources(sources ...RegistrySource) Option {
	return func(m *Manager) { m.sources = sources }
}

// WithMetrics attaches prometheus counters.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// NewManager builds a centralized manager. With no options the registry is
// discovered by platform auto-scan alone.
func NewManager(platform subscription.Platform, cfg Config, logger *zap.Logger, opts ...Option) *Manager {
	if cfg.MinRefreshInterval <= 0 {
		cfg.MinRefreshInterval = defaultMinRefreshInterval
	}

	m := &Manager{
		platform: platform,
		cfg:      cfg,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if len(m.sources) == 0 {
		m.sources = []RegistrySource{
			NewPlatformScanSource(platform, cfg.Prefix, cfg.Exclude, cfg.QueueHint, logger),
		}
	}
	if m.metrics == nil {
		m.metrics = NewMetrics(nil)
	}
	return m
}

// Registry returns a snapshot of the current registry.
func (m *Manager) Registry() []Consumer {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Consumer, len(m.registry))
	copy(out, m.registry)
	return out
}

// Refresh re-discovers the registry. Unless force is set, refreshes within
// MinRefreshInterval of the previous one are no-ops returning the current
// registry unchanged. Discovery is read-only and idempotent, so a
// redundant concurrent refresh is harmless.
func (m *Manager) Refresh(ctx context.Context, force bool) RefreshReport {
	now := time.Now().UTC()

	m.mu.Lock()
	previous := m.registry
	throttled := !force && !m.lastRefresh.IsZero() && now.Sub(m.lastRefresh) < m.cfg.MinRefreshInterval
	source := m.source
	last := m.lastRefresh
	m.mu.Unlock()

	if throttled {
		m.logger.Debug("registry refresh throttled",
			zap.Time("last_refresh", last))
		return RefreshReport{
			Refreshed: false,
			Source:    source,
			Consumers: append([]Consumer(nil), previous...),
			Timestamp: now,
		}
	}

	consumers, sourceName := m.discover(ctx)

	m.mu.Lock()
	m.registry = consumers
	m.source = sourceName
	m.lastRefresh = now
	m.mu.Unlock()

	m.metrics.RegistryRefreshes.Inc()

	added, removed := diffRegistries(previous, consumers)
	m.logger.Info("registry refreshed",
		zap.String("source", sourceName),
		zap.Int("consumers", len(consumers)),
		zap.Strings("added", added),
		zap.Strings("removed", removed))

	return RefreshReport{
		Refreshed: true,
		Source:    sourceName,
		Consumers: append([]Consumer(nil), consumers...),
		Added:     added,
		Removed:   removed,
		Timestamp: now,
	}
}

// discover walks the source chain until one yields a non-empty registry.
func (m *Manager) discover(ctx context.Context) ([]Consumer, string) {
	for _, source := range m.sources {
		consumers, err := source.Discover(ctx)
		if err != nil {
			m.logger.Warn("registry source failed, trying next",
				zap.String("source", source.Name()),
				zap.Error(err))
			continue
		}
		if len(consumers) > 0 {
			return consumers, source.Name()
		}
	}
	m.logger.Warn("no registry source yielded consumers")
	return nil, ""
}

// Status queries every registry member's bindings and classifies each
// consumer as enabled, disabled, mixed, no_bindings, or error.
func (m *Manager) Status(ctx context.Context) StatusReport {
	m.ensureRegistry(ctx)

	report := StatusReport{Timestamp: time.Now().UTC()}
	for _, consumer := range m.Registry() {
		report.Consumers = append(report.Consumers, m.statusOf(ctx, consumer))
	}

	report.Summary.TotalConsumers = len(report.Consumers)
	for _, cs := range report.Consumers {
		switch cs.OverallStatus {
		case StatusEnabled:
			report.Summary.EnabledConsumers++
		case StatusDisabled:
			report.Summary.DisabledConsumers++
		case StatusMixed:
			report.Summary.MixedConsumers++
		case StatusError:
			report.Summary.ErrorConsumers++
		}
	}
	return report
}

func (m *Manager) statusOf(ctx context.Context, consumer Consumer) ConsumerStatus {
	cs := ConsumerStatus{Name: consumer.Name, Service: consumer.Service}

	bindings, err := m.platform.ListBindings(ctx, consumer.Name)
	if err != nil {
		m.logger.Error("status query failed",
			zap.String("consumer", consumer.Name),
			zap.Error(err))
		cs.OverallStatus = StatusError
		cs.Error = err.Error()
		return cs
	}

	queueBindings := subscription.FilterQueueBindings(bindings, m.cfg.QueueHint)
	cs.Bindings = queueBindings
	cs.TotalBindings = len(queueBindings)
	for _, b := range queueBindings {
		switch b.State {
		case subscription.StateEnabled:
			cs.EnabledBindings++
		case subscription.StateDisabled:
			cs.DisabledBindings++
		}
	}

	switch {
	case cs.TotalBindings == 0:
		cs.OverallStatus = StatusNoBindings
	case cs.EnabledBindings == cs.TotalBindings:
		cs.OverallStatus = StatusEnabled
	case cs.DisabledBindings == cs.TotalBindings:
		cs.OverallStatus = StatusDisabled
	default:
		cs.OverallStatus = StatusMixed
	}
	return cs
}

// Apply fans a control action out across the registry. The action is
// validated before any platform call; an invalid action is the one input
// error this package surfaces instead of swallowing. Each consumer is
// processed independently: one consumer's failure never blocks the rest.
func (m *Manager) Apply(ctx context.Context, cm subscription.ControlMessage) (OperationReport, error) {
	if err := cm.Validate(); err != nil {
		m.metrics.ControlActions.WithLabelValues(cm.Action, "rejected").Inc()
		return OperationReport{}, err
	}

	m.logger.Info("processing control action",
		zap.String("action", cm.Action),
		zap.String("operator", cm.Operator),
		zap.String("reason", cm.Reason),
		zap.String("target_service", cm.Service))

	m.Refresh(ctx, false)

	report := OperationReport{
		Action:    cm.Action,
		Reason:    cm.Reason,
		Operator:  cm.Operator,
		Timestamp: cm.Timestamp,
	}

	enable := cm.Action == subscription.ActionEnable
	for _, consumer := range m.Registry() {
		if cm.Service != "" &&
			!strings.EqualFold(cm.Service, consumer.Service) &&
			!strings.EqualFold(cm.Service, consumer.Name) {
			continue
		}

		result := m.applyOne(ctx, consumer, enable)
		report.Consumers = append(report.Consumers, result)
		if result.Success {
			report.SuccessCount++
		} else {
			report.ErrorCount++
			report.Errors = append(report.Errors, result.Errors...)
		}
	}

	outcome := "ok"
	if report.ErrorCount > 0 {
		outcome = "partial"
		if report.SuccessCount == 0 {
			outcome = "failed"
		}
	}
	m.metrics.ControlActions.WithLabelValues(cm.Action, outcome).Inc()

	m.logger.Info("control action complete",
		zap.String("action", cm.Action),
		zap.Int("success_count", report.SuccessCount),
		zap.Int("error_count", report.ErrorCount))

	return report, nil
}

// applyOne toggles every queue binding of one consumer toward the target
// state. Per-binding failures are recorded and the loop continues;
// transitioning bindings are left alone with a warning.
func (m *Manager) applyOne(ctx context.Context, consumer Consumer, enable bool) ConsumerResult {
	result := ConsumerResult{Name: consumer.Name, Service: consumer.Service, Success: true}
	action := subscription.ActionDisable
	target := subscription.StateDisabled
	if enable {
		action = subscription.ActionEnable
		target = subscription.StateEnabled
	}

	bindings, err := m.platform.ListBindings(ctx, consumer.Name)
	if err != nil {
		result.Success = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("failed to list bindings for %s: %v", consumer.Name, err))
		m.metrics.BindingToggles.WithLabelValues(action, "error").Inc()
		return result
	}

	queueBindings := subscription.FilterQueueBindings(bindings, m.cfg.QueueHint)
	result.BindingsProcessed = len(queueBindings)

	for _, b := range queueBindings {
		switch {
		case b.State == target:
			result.BindingsAlreadyInState++
			m.metrics.BindingToggles.WithLabelValues(action, "already").Inc()

		case b.State.Transitioning():
			// Neither enabled nor disabled; leave it for the platform
			// to settle and count it as neither.
			m.logger.Warn("binding in transitioning state, leaving alone",
				zap.String("consumer", consumer.Name),
				zap.String("binding_id", b.ID),
				zap.String("state", string(b.State)))
			m.metrics.BindingToggles.WithLabelValues(action, "transitioning").Inc()

		default:
			if err := m.platform.SetBindingEnabled(ctx, b.ID, enable); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("failed to %s binding %s: %v", action, b.ID, err))
				m.metrics.BindingToggles.WithLabelValues(action, "error").Inc()
				m.logger.Error("binding toggle failed",
					zap.String("consumer", consumer.Name),
					zap.String("binding_id", b.ID),
					zap.Error(err))
				continue
			}
			result.BindingsChanged++
			m.metrics.BindingToggles.WithLabelValues(action, "changed").Inc()
			m.logger.Info("binding toggled",
				zap.String("consumer", consumer.Name),
				zap.String("binding_id", b.ID),
				zap.String("action", action))
		}
	}

	if len(result.Errors) > 0 {
		result.Success = false
	}
	return result
}

// ensureRegistry performs an initial discovery when the registry has never
// been populated.
func (m *Manager) ensureRegistry(ctx context.Context) {
	m.mu.Lock()
	empty := m.lastRefresh.IsZero()
	m.mu.Unlock()
	if empty {
		m.Refresh(ctx, false)
	}
}

func diffRegistries(before, after []Consumer) (added, removed []string) {
	prev := make(map[string]bool, len(before))
	for _, c := range before {
		prev[c.Name] = true
	}
	next := make(map[string]bool, len(after))
	for _, c := range after {
		next[c.Name] = true
		if !prev[c.Name] {
			added = append(added, c.Name)
		}
	}
	for _, c := range before {
		if !next[c.Name] {
			removed = append(removed, c.Name)
		}
	}
	return added, removed
}
