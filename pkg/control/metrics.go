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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the control-plane counters. Pass a nil Registerer to get
// working but unregistered metrics (useful in tests).
type Metrics struct {
	ControlActions    *prometheus.CounterVec
	BindingToggles    *prometheus.CounterVec
	RegistryRefreshes prometheus.Counter
}

// NewMetrics builds and registers the control-plane counters.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ControlActions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_control_actions_total",
			Help: "Control actions processed, by action and outcome.",
		}, []string{"action", "outcome"}),
		BindingToggles: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "subscription_binding_toggles_total",
			Help: "Binding toggle attempts, by action and result.",
		}, []string{"action", "result"}),
		RegistryRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "subscription_registry_refreshes_total",
			Help: "Registry re-scans performed (throttled no-ops excluded).",
		}),
	}
}
