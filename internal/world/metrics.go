// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package world

import "github.com/prometheus/client_golang/prometheus"

var worldObjects = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "fluxstudio_world_objects",
	Help: "Live object instances in the world",
})

// RegisterMetrics registers world metrics with reg.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(worldObjects)
}
