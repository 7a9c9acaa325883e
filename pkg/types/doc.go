// Package types defines the shared Go types passed between the generator,
// scorer, alert evaluator and the dashboard transports. These are the
// canonical in-memory representations of flock sensor data, separate from
// the JSON and Prometheus wire formats.
package types
