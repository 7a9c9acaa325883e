package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aegismon/aegis/pkg/types"
	"github.com/aegismon/aegis/server/internal/alerts"
	"github.com/aegismon/aegis/server/internal/compute"
	"github.com/aegismon/aegis/server/internal/pipeline"
)

// Source produces dashboard snapshots. *pipeline.Pipeline satisfies it.
type Source interface {
	Settings() pipeline.Settings
	RefreshWith(now time.Time, s pipeline.Settings) (*pipeline.Snapshot, error)
}

// AlertLister returns recently fired notifier alerts. *alerts.Notifier satisfies it.
type AlertLister interface {
	Active(now time.Time) []*alerts.Alert
}

// Handler is the HTTP handler for all /api/v1/* endpoints.
// Every request refreshes the pipeline and renders the result as JSON.
type Handler struct {
	src      Source
	notifier AlertLister
	now      func() time.Time
	mux      *http.ServeMux
}

// New creates a Handler wired to src and registers all routes. notifier may
// be nil, in which case /api/v1/alerts always returns an empty list.
func New(src Source, notifier AlertLister) http.Handler {
	h := &Handler{src: src, notifier: notifier, now: time.Now, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/health", h.health)
	h.mux.HandleFunc("/api/v1/dashboard", h.dashboard)
	h.mux.HandleFunc("/api/v1/readings", h.readings)
	h.mux.HandleFunc("/api/v1/scores", h.scores)
	h.mux.HandleFunc("/api/v1/alert", h.alert)
	h.mux.HandleFunc("/api/v1/alerts", h.alerts)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: liveness plus the latest score.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.refresh(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:      "ok",
		State:       string(snap.Alert.State),
		HealthScore: snap.LatestScore,
		Threshold:   snap.Threshold,
		GeneratedAt: formatTime(snap.GeneratedAt),
	})
}

// dashboard returns GET /api/v1/dashboard: one full render.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.refresh(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, BuildDashboard(snap))
}

// readings returns GET /api/v1/readings: the raw sensor series, oldest first.
func (h *Handler) readings(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.refresh(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, toReadings(snap.Series))
}

// scores returns GET /api/v1/scores: the health score trend.
func (h *Handler) scores(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.refresh(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, toScores(snap))
}

// alert returns GET /api/v1/alert: the banner state for the latest score.
func (h *Handler) alert(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.refresh(w, r)
	if !ok {
		return
	}
	jsonResp(w, http.StatusOK, snap.Alert)
}

// alerts returns GET /api/v1/alerts: notifier alerts, newest first.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.notifier == nil {
		jsonResp(w, http.StatusOK, []*alerts.Alert{})
		return
	}
	jsonResp(w, http.StatusOK, h.notifier.Active(h.now()))
}

// --- helpers ----------------------------------------------------------------

// refresh checks the method, applies query overrides and runs the pipeline.
// On failure it writes the error response and returns false.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) (*pipeline.Snapshot, bool) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}

	settings, err := settingsFromQuery(r, h.src.Settings())
	if err != nil {
		jsonErr(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	snap, err := h.src.RefreshWith(h.now(), settings)
	switch {
	case errors.Is(err, types.ErrInvalidConfiguration):
		jsonErr(w, http.StatusBadRequest, err.Error())
		return nil, false
	case err != nil:
		jsonErr(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return snap, true
}

// settingsFromQuery overrides base with the threshold and farm_size query
// parameters when present.
func settingsFromQuery(r *http.Request, base pipeline.Settings) (pipeline.Settings, error) {
	q := r.URL.Query()
	if v := q.Get("threshold"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("threshold %q is not an integer", v)
		}
		base.AlertThreshold = n
	}
	if v := q.Get("farm_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return base, fmt.Errorf("farm_size %q is not an integer", v)
		}
		base.FarmSize = n
	}
	return base, nil
}

// BuildDashboard assembles the dashboard payload from a snapshot. It is
// shared by the REST handler and the WebSocket hub.
func BuildDashboard(snap *pipeline.Snapshot) DashboardResponse {
	return DashboardResponse{
		Title:          DashboardTitle,
		Footer:         DashboardFooter,
		FarmSize:       snap.FarmSize,
		Threshold:      snap.Threshold,
		GeneratedAt:    formatTime(snap.GeneratedAt),
		RefreshedAt:    formatTime(snap.RefreshedAt),
		Cards:          toCards(snap),
		Alert:          snap.Alert,
		Breakdown:      snap.Breakdown,
		Readings:       toReadings(snap.Series),
		Scores:         toScores(snap),
		Indicators:     snap.Indicators,
		ReferenceLines: snap.ReferenceLines,
		Diagnostics:    computeDiagnostics(snap),
	}
}

// toCards builds the four summary cards: the three channels in indicator
// order followed by the health score.
func toCards(snap *pipeline.Snapshot) []MetricCard {
	titles := map[string]struct{ title, unit string }{
		types.ChannelWater:       {"Water Consumption", "L/hr"},
		types.ChannelActivity:    {"Activity Index", "%"},
		types.ChannelTemperature: {"Temperature", "°C"},
	}

	cards := make([]MetricCard, 0, len(snap.Indicators)+1)
	for _, ind := range snap.Indicators {
		meta := titles[ind.Channel]
		cards = append(cards, channelCard(meta.title, meta.unit, ind))
	}
	return append(cards, MetricCard{
		Title:   "Health Score",
		Value:   snap.LatestScore,
		Unit:    "%",
		Delta:   snap.Alert.Label(),
		Inverse: snap.Alert.Critical(),
	})
}

func channelCard(title, unit string, ind compute.Indicator) MetricCard {
	return MetricCard{
		Title:   title,
		Value:   ind.Value,
		Unit:    unit,
		Delta:   ind.Delta,
		Inverse: ind.Flagged,
	}
}

func toReadings(s types.Series) []ReadingResponse {
	out := make([]ReadingResponse, 0, len(s))
	for _, r := range s {
		out = append(out, ReadingResponse{
			Timestamp:        formatTime(r.Timestamp),
			WaterConsumption: r.WaterConsumption,
			ActivityIndex:    r.ActivityIndex,
			Temperature:      r.Temperature,
		})
	}
	return out
}

func toScores(snap *pipeline.Snapshot) []ScorePoint {
	out := make([]ScorePoint, 0, len(snap.Scores))
	for i, score := range snap.Scores {
		out = append(out, ScorePoint{
			Timestamp: formatTime(snap.Series[i].Timestamp),
			Score:     score,
		})
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
