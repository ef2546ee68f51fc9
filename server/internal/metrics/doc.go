// Package metrics exposes server instruments on a private Prometheus
// registry: accepted runs, patients by severity, bed allocations, the latest
// stress index per hospital, firing alerts and HTTP request metrics.
//
// Handler gathers the registry and encodes it with content negotiation, so
// Prometheus can scrape either the text or the protobuf format.
package metrics
