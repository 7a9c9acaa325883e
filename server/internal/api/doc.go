// Package api implements the HTTP REST API the dashboard renderer reads.
//
// New(source, notifier) returns an http.Handler that serves:
//
//	GET /api/v1/health      liveness plus latest health score and alert state
//	GET /api/v1/dashboard   everything one dashboard render needs
//	GET /api/v1/readings    the raw sensor series (table view)
//	GET /api/v1/scores      per-sample health scores (trend chart)
//	GET /api/v1/alert       the current alert state (banner)
//	GET /api/v1/alerts      notifier alerts firing or resolved in the last hour
//
// Every endpoint except /alerts triggers a refresh. The optional query
// parameters threshold and farm_size override the configured settings for
// that request; values outside the configured bounds return 400 with the
// validation message so the caller can re-prompt.
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
