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

// Package control implements the centralized subscription manager: dynamic
// registry discovery, per-consumer status, and enable/disable fan-out with
// per-consumer failure isolation.
package control

import (
	"time"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

// Consumer is one registry member.
type Consumer struct {
	// Name is the consumer's full platform name.
	Name string `json:"name"`
	// Service is the short service name (Name minus the registry prefix).
	Service string `json:"service"`
}

// RefreshReport describes one registry refresh.
type RefreshReport struct {
	// Refreshed is false when the minimum-interval throttle suppressed
	// the re-scan and the previous registry was kept.
	Refreshed bool       `json:"refreshed"`
	Source    string     `json:"source,omitempty"`
	Consumers []Consumer `json:"consumers"`
	Added     []string   `json:"added,omitempty"`
	Removed   []string   `json:"removed,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Per-consumer derived states.
const (
	StatusEnabled    = "enabled"
	StatusDisabled   = "disabled"
	StatusMixed      = "mixed"
	StatusNoBindings = "no_bindings"
	StatusError      = "error"
)

// ConsumerStatus is the status detail for one registry member.
type ConsumerStatus struct {
	Name             string                 `json:"name"`
	Service          string                 `json:"service"`
	OverallStatus    string                 `json:"overall_status"`
	TotalBindings    int                    `json:"total_bindings"`
	EnabledBindings  int                    `json:"enabled_bindings"`
	DisabledBindings int                    `json:"disabled_bindings"`
	Bindings         []subscription.Binding `json:"bindings,omitempty"`
	Error            string                 `json:"error,omitempty"`
}

// StatusSummary aggregates consumer states. Consumers with no bindings are
// excluded from the enabled/disabled tallies.
type StatusSummary struct {
	TotalConsumers    int `json:"total_consumers"`
	EnabledConsumers  int `json:"enabled_consumers"`
	DisabledConsumers int `json:"disabled_consumers"`
	MixedConsumers    int `json:"mixed_consumers"`
	ErrorConsumers    int `json:"error_consumers"`
}

// StatusReport is the full status of the managed registry.
type StatusReport struct {
	Timestamp time.Time        `json:"timestamp"`
	Consumers []ConsumerStatus `json:"consumers"`
	Summary   StatusSummary    `json:"summary"`
}

// ConsumerResult is the outcome of applying a control action to one
// registry member.
type ConsumerResult struct {
	Name    string `json:"name"`
	Service string `json:"service"`
	// Success is false iff Errors is non-empty.
	Success bool `json:"success"`
	// BindingsProcessed counts the queue bindings considered.
	BindingsProcessed int `json:"bindings_processed"`
	// BindingsChanged counts bindings actually toggled.
	BindingsChanged int `json:"bindings_changed"`
	// BindingsAlreadyInState counts bindings that were already in the
	// requested state.
	BindingsAlreadyInState int      `json:"bindings_already_in_state"`
	Errors                 []string `json:"errors,omitempty"`
}

// OperationReport is the outcome of one enable/disable fan-out. A caller
// can tell at a glance whether the action fully, partially, or not at all
// succeeded, and which consumers need attention.
type OperationReport struct {
	Action    string           `json:"action"`
	Reason    string           `json:"reason"`
	Operator  string           `json:"operator"`
	Timestamp time.Time        `json:"timestamp"`
	Consumers []ConsumerResult `json:"consumers_processed"`
	// SuccessCount and ErrorCount tally consumers, not bindings.
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}
