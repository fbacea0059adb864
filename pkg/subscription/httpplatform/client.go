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

// Package httpplatform is an HTTP client for the hosting platform's
// introspection and control API. It implements subscription.Platform.
package httpplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jjaideep2000/asynccode/pkg/subscription"
)

const defaultTimeout = 10 * time.Second

// Client talks to the platform introspection API over HTTP.
//
// Endpoints:
//
//	GET /v1/consumers?cursor=...          -> {"consumers": [...], "next_cursor": "..."}
//	GET /v1/consumers/{name}/bindings     -> {"bindings": [...]}
//	GET /v1/bindings/{id}                 -> binding
//	PUT /v1/bindings/{id}                 -> body {"enabled": bool}
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithTimeout overrides the default 10s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client entirely.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New builds a platform client against baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type consumersPage struct {
	Consumers  []string `json:"consumers"`
	NextCursor string   `json:"next_cursor"`
}

type bindingsPayload struct {
	Bindings []subscription.Binding `json:"bindings"`
}

// ListConsumers implements subscription.Platform, following pagination
// cursors until exhausted.
func (c *Client) ListConsumers(ctx context.Context) ([]string, error) {
	var out []string
	cursor := ""
	for {
		endpoint := c.baseURL + "/v1/consumers"
		if cursor != "" {
			endpoint += "?cursor=" + url.QueryEscape(cursor)
		}

		var page consumersPage
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, fmt.Errorf("list consumers: %w", err)
		}
		out = append(out, page.Consumers...)

		if page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

// ListBindings implements subscription.Platform.
func (c *Client) ListBindings(ctx context.Context, consumer string) ([]subscription.Binding, error) {
	endpoint := c.baseURL + "/v1/consumers/" + url.PathEscape(consumer) + "/bindings"

	var payload bindingsPayload
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, fmt.Errorf("list bindings for %s: %w", consumer, err)
	}
	return payload.Bindings, nil
}

// GetBinding implements subscription.Platform.
func (c *Client) GetBinding(ctx context.Context, id string) (subscription.Binding, error) {
	endpoint := c.baseURL + "/v1/bindings/" + url.PathEscape(id)

	var b subscription.Binding
	if err := c.getJSON(ctx, endpoint, &b); err != nil {
		return subscription.Binding{}, fmt.Errorf("get binding %s: %w", id, err)
	}
	return b, nil
}

// SetBindingEnabled implements subscription.Platform.
func (c *Client) SetBindingEnabled(ctx context.Context, id string, enabled bool) error {
	endpoint := c.baseURL + "/v1/bindings/" + url.PathEscape(id)

	body, err := json.Marshal(map[string]bool{"enabled": enabled})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("update binding %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newStatusError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func newStatusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("platform returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}

var _ subscription.Platform = (*Client)(nil)
