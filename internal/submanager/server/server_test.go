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

package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jjaideep2000/asynccode/internal/submanager/config"
	"github.com/jjaideep2000/asynccode/internal/submanager/server"
	"github.com/jjaideep2000/asynccode/pkg/control"
	"github.com/jjaideep2000/asynccode/pkg/subscription"
	"github.com/jjaideep2000/asynccode/pkg/subscription/testutil"
)

const prefix = "utility-customer-system-dev-"

func newTestServer(t *testing.T) (*server.Server, *testutil.FakePlatform) {
	t.Helper()

	platform := testutil.NewFakePlatform()
	manager := control.NewManager(platform, control.Config{
		Prefix:             prefix,
		Exclude:            []string{"subscription-manager"},
		QueueHint:          "queue",
		MinRefreshInterval: time.Hour,
	}, zap.NewNop())

	cfg := &config.Config{}
	cfg.Server.Port = "0"
	cfg.Platform.BaseURL = "http://unused"
	cfg.Registry.Prefix = prefix

	return server.NewWithManager(cfg, manager, zap.NewNop()), platform
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestStatusEndpoint(t *testing.T) {
	srv, platform := newTestServer(t)
	platform.AddConsumer(prefix + "bank-account-setup")
	platform.AddBinding(prefix+"bank-account-setup", prefix+"bank-account-setup-queue", subscription.StateEnabled)

	rec, body := doJSON(t, srv.Handler(), http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	consumers, ok := body["consumers"].([]any)
	require.True(t, ok)
	require.Len(t, consumers, 1)
	first := consumers[0].(map[string]any)
	assert.Equal(t, prefix+"bank-account-setup", first["name"])
	assert.Equal(t, "bank-account-setup", first["service"])
	assert.Equal(t, "enabled", first["overall_status"])
}

func TestRefreshEndpoint(t *testing.T) {
	srv, platform := newTestServer(t)
	platform.AddConsumer(prefix + "payment-processing")
	platform.AddBinding(prefix+"payment-processing", prefix+"payment-processing-queue", subscription.StateEnabled)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["refreshed"])

	// Throttled without force, bypassed with it.
	rec, body = doJSON(t, srv.Handler(), http.MethodPost, "/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["refreshed"])

	rec, body = doJSON(t, srv.Handler(), http.MethodPost, "/refresh", `{"force": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["refreshed"])
}

func TestControlEndpoint(t *testing.T) {
	srv, platform := newTestServer(t)
	platform.AddConsumer(prefix + "bank-account-setup")
	platform.AddBinding(prefix+"bank-account-setup", prefix+"bank-account-setup-queue", subscription.StateEnabled)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/control",
		`{"action": "disable", "reason": "maintenance", "operator": "ops"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "disable", body["action"])
	assert.Equal(t, float64(1), body["success_count"])
	assert.Equal(t, float64(0), body["error_count"])
	require.Len(t, platform.UpdateCalls, 1)
	assert.False(t, platform.UpdateCalls[0].Enabled)
}

func TestControlEndpointRejectsInvalidAction(t *testing.T) {
	srv, platform := newTestServer(t)
	platform.AddConsumer(prefix + "bank-account-setup")
	platform.AddBinding(prefix+"bank-account-setup", prefix+"bank-account-setup-queue", subscription.StateEnabled)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/control", `{"action": "pause"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "pause")
	assert.Empty(t, platform.UpdateCalls)
}

func TestInvokeDispatch(t *testing.T) {
	srv, platform := newTestServer(t)
	platform.AddConsumer(prefix + "bank-account-setup")
	platform.AddBinding(prefix+"bank-account-setup", prefix+"bank-account-setup-queue", subscription.StateDisabled)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/invoke", `{"action": "status"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "summary")

	rec, body = doJSON(t, srv.Handler(), http.MethodPost, "/invoke", `{"action": "refresh", "force": true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["refreshed"])

	rec, body = doJSON(t, srv.Handler(), http.MethodPost, "/invoke",
		`{"action": "enable", "reason": "resume", "operator": "ops"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enable", body["action"])
	assert.Equal(t, float64(1), body["success_count"])
	require.Len(t, platform.UpdateCalls, 1)
	assert.True(t, platform.UpdateCalls[0].Enabled)
}

func TestInvokeUnknownAction(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, body := doJSON(t, srv.Handler(), http.MethodPost, "/invoke", `{"action": "explode"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "explode")
}

func TestInvokeMalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, _ := doJSON(t, srv.Handler(), http.MethodPost, "/invoke", `{"action":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
