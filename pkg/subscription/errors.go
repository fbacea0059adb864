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
	"errors"
	"net"
	"strings"
	"syscall"
)

// ErrorKind categorizes a processing failure. The kind drives the
// continue-or-stop decision in the error handler: client errors mean the
// originating request was bad, server errors mean the downstream dependency
// is unhealthy.
type ErrorKind string

const (
	// KindClientError covers 4xx-style failures caused by the caller.
	KindClientError ErrorKind = "client_error"
	// KindServerError covers 5xx-style failures of the downstream dependency.
	KindServerError ErrorKind = "server_error"
	// KindNetworkError covers connection and timeout failures.
	KindNetworkError ErrorKind = "network_error"
	// KindValidationError covers invalid or malformed input.
	KindValidationError ErrorKind = "validation_error"
	// KindProcessingError is the catch-all for everything else.
	KindProcessingError ErrorKind = "processing_error"
)

// Retryable reports whether failures of this kind are worth retrying.
// Only network and server failures qualify; bad input never heals itself.
func (k ErrorKind) Retryable() bool {
	return k == KindNetworkError || k == KindServerError
}

// Classification is the ephemeral result of classifying one failure.
type Classification struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	RawMessage string    `json:"raw_message"`
}

// Classify maps a failure plus an optional status code to an ErrorKind.
// A statusCode of 0 means no code is available. Classification is a pure
// function of its inputs: it never fails and has no side effects.
//
// Priority order, first match wins:
//  1. status code 400-499 -> client_error, 500-599 -> server_error
//  2. connection/timeout errors -> network_error
//  3. invalid/missing/malformed input -> validation_error
//  4. anything else -> processing_error
func Classify(err error, statusCode int) Classification {
	c := Classification{StatusCode: statusCode, Kind: KindProcessingError}
	if err != nil {
		c.RawMessage = err.Error()
	}

	switch {
	case statusCode >= 400 && statusCode < 500:
		c.Kind = KindClientError
	case statusCode >= 500 && statusCode < 600:
		c.Kind = KindServerError
	case isNetworkError(err):
		c.Kind = KindNetworkError
	case isValidationError(err):
		c.Kind = KindValidationError
	}

	return c
}

// isNetworkError reports whether err looks like a connection or timeout
// problem, checking typed errors before falling back to message text.
func isNetworkError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ECONNABORTED,
			syscall.ETIMEDOUT, syscall.EHOSTUNREACH, syscall.ENETUNREACH:
			return true
		}
	}

	text := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused", "connection reset", "connection timeout",
		"connection lost", "network unreachable", "host unreachable",
		"no route to host", "broken pipe", "dial", "timeout", "timed out",
	}
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func isValidationError(err error) bool {
	if err == nil {
		return false
	}

	text := strings.ToLower(err.Error())
	patterns := []string{
		"invalid", "validation", "malformed", "missing", "required field",
		"unknown field", "out of range", "cannot unmarshal", "parse error",
	}
	for _, p := range patterns {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
