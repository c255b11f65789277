// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package plugin

import "github.com/prometheus/client_golang/prometheus"

// Load results.
const (
	resultLoaded  = "loaded"
	resultFailed  = "failed"
	resultSkipped = "skipped"
)

// pluginLoads counts LoadPlugin calls by result.
var pluginLoads = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fluxstudio_plugin_loads_total",
		Help: "Plugin load attempts by result",
	},
	[]string{"result"},
)

// RegisterMetrics registers plugin metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(pluginLoads)
}
