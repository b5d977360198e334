// Package server exposes an automata location over HTTP: listing the
// hierarchy, inspecting individual specs, and running automata. Prometheus
// metrics for runs and delegations are served on /metrics.
package server
