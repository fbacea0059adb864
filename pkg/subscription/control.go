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
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Control actions. Exactly these two values are accepted; anything else is
// an operator mistake and is rejected outright rather than classified or
// silently ignored.
const (
	ActionEnable  = "enable"
	ActionDisable = "disable"
)

// ErrInvalidAction is returned for a control message whose action is not
// "enable" or "disable".
type ErrInvalidAction struct {
	Action string
}

func (e *ErrInvalidAction) Error() string {
	return fmt.Sprintf("invalid action %q: must be %q or %q", e.Action, ActionEnable, ActionDisable)
}

// ControlMessage is the payload of a broadcast control signal. One message
// can fan out to every managed consumer, or be restricted to one via
// Service.
type ControlMessage struct {
	Action    string    `json:"action"`
	Reason    string    `json:"reason,omitempty"`
	Operator  string    `json:"operator,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
	// Service optionally restricts the action to one named consumer.
	// Empty means all managed consumers.
	Service string `json:"service,omitempty"`
}

// Validate checks the action and applies defaults for the descriptive
// fields. It mutates the receiver.
func (cm *ControlMessage) Validate() error {
	cm.Action = strings.ToLower(strings.TrimSpace(cm.Action))
	if cm.Action != ActionEnable && cm.Action != ActionDisable {
		return &ErrInvalidAction{Action: cm.Action}
	}
	if cm.Reason == "" {
		cm.Reason = "Manual control"
	}
	if cm.Operator == "" {
		cm.Operator = "system"
	}
	if cm.Timestamp.IsZero() {
		cm.Timestamp = time.Now().UTC()
	}
	return nil
}

// ParseControlMessage decodes and validates a JSON control message.
func ParseControlMessage(data []byte) (ControlMessage, error) {
	var cm ControlMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return ControlMessage{}, fmt.Errorf("malformed control message: %w", err)
	}
	if err := cm.Validate(); err != nil {
		return ControlMessage{}, err
	}
	return cm, nil
}
