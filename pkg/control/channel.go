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
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

const defaultFlushTimeout = 5 * time.Second

// Channel is the broadcast control channel over core NATS. One published
// control message fans out to every subscribed handler; delivery is
// at-least-once in effect, which is fine because enable and disable are
// idempotent.
type Channel struct {
	conn    *nats.Conn
	subject string
	logger  *zap.Logger
}

// Dial connects to a NATS server with bounded timeouts and unlimited
// reconnects.
func Dial(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}

// NewChannel wraps an existing NATS connection.
func NewChannel(conn *nats.Conn, subject string, logger *zap.Logger) *Channel {
	return &Channel{conn: conn, subject: subject, logger: logger}
}

// Publish validates and broadcasts a control message.
func (c *Channel) Publish(ctx context.Context, cm subscription.ControlMessage) error {
	if err := cm.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(cm)
	if err != nil {
		return fmt.Errorf("encode control message: %w", err)
	}

	if err := c.conn.Publish(c.subject, payload); err != nil {
		return fmt.Errorf("publish control message: %w", err)
	}

	timeout := defaultFlushTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := c.conn.FlushTimeout(timeout); err != nil {
		return fmt.Errorf("flush control message: %w", err)
	}

	c.logger.Info("control message published",
		zap.String("subject", c.subject),
		zap.String("action", cm.Action),
		zap.String("operator", cm.Operator))
	return nil
}

// Subscribe delivers every valid control message on the subject to
// handler. Malformed payloads and invalid actions are logged and dropped:
// there is no caller to reject to on an asynchronous broadcast.
func (c *Channel) Subscribe(handler func(subscription.ControlMessage)) (*nats.Subscription, error) {
	sub, err := c.conn.Subscribe(c.subject, func(msg *nats.Msg) {
		cm, err := subscription.ParseControlMessage(msg.Data)
		if err != nil {
			c.logger.Warn("dropping bad control message",
				zap.String("subject", c.subject),
				zap.Error(err))
			return
		}
		handler(cm)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", c.subject, err)
	}
	return sub, nil
}
