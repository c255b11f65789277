// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package registry

import "github.com/prometheus/client_golang/prometheus"

// registeredTypes tracks the size of the most recently mutated type table.
var registeredTypes = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "fluxstudio_registry_types",
	Help: "Number of registered object types",
})

// RegisterMetrics registers registry metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(registeredTypes)
}
