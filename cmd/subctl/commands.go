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

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/pkg/control"
	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

const requestTimeout = 30 * time.Second

func newStatusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show subscription status for every managed consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return httpCall(cmd.OutOrStdout(), http.MethodGet, opts.addr+"/status", nil)
		},
	}
}

func newRefreshCommand(opts *options) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Re-discover the set of managed consumers",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{"force": force}
			return httpCall(cmd.OutOrStdout(), http.MethodPost, opts.addr+"/refresh", body)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "bypass the refresh throttle")
	return cmd
}

func newActionCommand(opts *options, action, short string) *cobra.Command {
	var (
		reason   string
		operator string
		service  string
		natsURL  string
		subject  string
	)

	cmd := &cobra.Command{
		Use:   action,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm := subscription.ControlMessage{
				Action:   action,
				Reason:   reason,
				Operator: operator,
				Service:  service,
			}
			if natsURL != "" {
				return broadcast(cmd.OutOrStdout(), natsURL, subject, cm)
			}
			return httpCall(cmd.OutOrStdout(), http.MethodPost, opts.addr+"/control", cm)
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "Manual control", "reason recorded with the action")
	cmd.Flags().StringVar(&operator, "operator", "", "operator recorded with the action")
	cmd.Flags().StringVar(&service, "service", "", "target a single service instead of all consumers")
	cmd.Flags().StringVar(&natsURL, "nats", "", "broadcast over NATS at this URL instead of calling the manager")
	cmd.Flags().StringVar(&subject, "subject", "subscription.control", "NATS subject for --nats")
	return cmd
}

// httpCall performs one manager API request and pretty-prints the JSON
// response. A non-2xx status is an error carrying the response body.
func httpCall(out io.Writer, method, url string, body any) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s: %s", method, url, resp.Status, bytes.TrimSpace(raw))
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Write(raw)
	}
	fmt.Fprintln(out, pretty.String())
	return nil
}

// broadcast publishes the control message on the NATS channel so every
// running consumer applies it locally, with no manager in the path.
func broadcast(out io.Writer, url, subject string, cm subscription.ControlMessage) error {
	conn, err := control.Dial(url)
	if err != nil {
		return fmt.Errorf("connect nats: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	channel := control.NewChannel(conn, subject, zap.NewNop())
	if err := channel.Publish(ctx, cm); err != nil {
		return err
	}
	fmt.Fprintf(out, "published %s to %s\n", cm.Action, subject)
	return nil
}
