// Package metrics exposes the latest flock reading, health score and alert
// state in the Prometheus text exposition format at /metrics.
//
// Every scrape refreshes the pipeline, so the exposed values always match
// what GET /api/v1/dashboard would return at the same moment.
package metrics
