// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package physics

import "github.com/prometheus/client_golang/prometheus"

// StepDuration is the histogram for simulation step duration.
var StepDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Name:    "fluxstudio_physics_step_duration_seconds",
	Help:    "Physics step duration in seconds",
	Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
})

// TrackedBodies is the gauge of bodies tracked by the engine.
var TrackedBodies = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "fluxstudio_physics_bodies",
	Help: "Number of rigid bodies tracked by the physics engine",
})

// RegisterMetrics registers physics metrics with the given Prometheus registry.
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(StepDuration)
	reg.MustRegister(TrackedBodies)
}
