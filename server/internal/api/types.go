package api

import (
	"github.com/aegismon/aegis/server/internal/alerts"
	"github.com/aegismon/aegis/server/internal/compute"
)

// Dashboard header and footer text.
const (
	DashboardTitle  = "AEGIS Poultry Health Monitoring"
	DashboardFooter = "AEGIS Poultry Monitoring System • Early Warning Detection Prototype • Not for clinical use"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	Status      string  `json:"status"`
	State       string  `json:"state"`
	HealthScore float64 `json:"health_score"`
	Threshold   int     `json:"threshold"`
	GeneratedAt string  `json:"generated_at"` // RFC3339
}

// ReadingResponse is one row of the raw sensor table.
type ReadingResponse struct {
	Timestamp        string  `json:"timestamp"` // RFC3339
	WaterConsumption float64 `json:"water_consumption"`
	ActivityIndex    float64 `json:"activity_index"`
	Temperature      float64 `json:"temperature"`
}

// ScorePoint is one point on the health score trend chart.
type ScorePoint struct {
	Timestamp string  `json:"timestamp"` // RFC3339
	Score     float64 `json:"score"`
}

// MetricCard is one of the four summary cards above the charts.
type MetricCard struct {
	Title string  `json:"title"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	// Delta is the short label under the value; empty when unremarkable.
	Delta string `json:"delta,omitempty"`
	// Inverse asks the renderer to color Delta as bad news.
	Inverse bool `json:"inverse,omitempty"`
}

// DashboardResponse is the payload for GET /api/v1/dashboard and the data
// field of every WebSocket message.
type DashboardResponse struct {
	Title       string `json:"title"`
	Footer      string `json:"footer"`
	FarmSize    int    `json:"farm_size"`
	Threshold   int    `json:"threshold"`
	GeneratedAt string `json:"generated_at"` // RFC3339, series generation time
	RefreshedAt string `json:"refreshed_at"` // RFC3339, last updated

	Cards     []MetricCard      `json:"cards"`
	Alert     alerts.AlertState `json:"alert"`
	Breakdown compute.Output    `json:"breakdown"`

	Readings       []ReadingResponse       `json:"readings"`
	Scores         []ScorePoint            `json:"scores"`
	Indicators     []compute.Indicator     `json:"indicators"`
	ReferenceLines []compute.ReferenceLine `json:"reference_lines"`
	Diagnostics    []DiagnosticHint        `json:"diagnostics"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
