// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package object

import "github.com/prometheus/client_golang/prometheus"

// createdObjects counts factory results by operation and outcome.
var createdObjects = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fluxstudio_objects_created_total",
		Help: "Object instances produced by the factory",
	},
	[]string{"op", "result"},
)

// RegisterMetrics registers factory metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(createdObjects)
}
