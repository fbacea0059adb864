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

// Package subscription implements the self-healing subscription control
// engine: error classification, runtime binding discovery, and the
// enable/disable state machine for a queue-to-consumer binding.
package subscription

// BindingState is the platform-reported state of a binding. The platform
// owns the state; this package only reads and requests transitions.
type BindingState string

const (
	// StateEnabled means the binding is delivering messages.
	StateEnabled BindingState = "Enabled"
	// StateDisabled means delivery is stopped.
	StateDisabled BindingState = "Disabled"
	// StateEnabling and friends are transitional platform states. Any
	// state that is neither Enabled nor Disabled is treated as
	// transitioning and left alone.
	StateEnabling  BindingState = "Enabling"
	StateDisabling BindingState = "Disabling"
	StateUpdating  BindingState = "Updating"
)

// Transitioning reports whether the binding is neither fully on nor off.
func (s BindingState) Transitioning() bool {
	return s != StateEnabled && s != StateDisabled
}

// Binding is the live association between a queue and a consumer. Bindings
// are provisioned out-of-band; their ids are opaque and must be discovered
// at decision time. This subsystem toggles bindings but never creates or
// destroys them.
type Binding struct {
	// ID is the opaque identifier assigned by the platform at creation.
	ID string `json:"id"`
	// Consumer is the owning consumer's identity.
	Consumer string `json:"consumer"`
	// QueueRef identifies the source queue.
	QueueRef string `json:"queue_ref"`
	// State is the platform-reported state at read time.
	State BindingState `json:"state"`
}
