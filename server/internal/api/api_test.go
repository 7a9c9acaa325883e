package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aegismon/aegis/server/internal/alerts"
	"github.com/aegismon/aegis/server/internal/api"
	"github.com/aegismon/aegis/server/internal/compute"
	"github.com/aegismon/aegis/server/internal/generator"
	"github.com/aegismon/aegis/server/internal/pipeline"
)

// --- test helpers -----------------------------------------------------------

func options() pipeline.Options {
	return pipeline.Options{
		Generator: generator.DefaultParams(),
		Noise:     generator.ZeroNoise,
		Baselines: compute.DefaultBaselines(),
		Limits:    compute.DefaultLimits(),
		Settings:  pipeline.Settings{FarmSize: 5000, AlertThreshold: 90},
		Bounds:    pipeline.Bounds{FarmSizeMin: 1000, FarmSizeMax: 10000, ThresholdMin: 80, ThresholdMax: 95},
		CacheTTL:  time.Minute,
	}
}

// newPipeline returns a zero-noise pipeline. With the default anomaly tail
// the latest reading is 40 / 49 / 23.5, scoring about 73.3.
func newPipeline(t *testing.T, mutate func(*pipeline.Options)) *pipeline.Pipeline {
	t.Helper()
	opts := options()
	if mutate != nil {
		mutate(&opts)
	}
	p, err := pipeline.New(opts)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	return p
}

func noAnomaly(o *pipeline.Options) { o.Generator.Anomaly.TailLen = 0 }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func almostEqual(a, b float64) bool {
	d := a - b
	return d < 0.01 && d > -0.01
}

// --- /api/v1/health ---------------------------------------------------------

func TestHealth_Normal(t *testing.T) {
	h := api.New(newPipeline(t, noAnomaly), nil)
	rr := get(t, h, "/api/v1/health")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)

	if resp.Status != "ok" {
		t.Errorf("status: got %q, want ok", resp.Status)
	}
	if resp.State != "normal" {
		t.Errorf("state: got %q, want normal", resp.State)
	}
	if resp.HealthScore != 100 {
		t.Errorf("health_score: got %v, want 100", resp.HealthScore)
	}
	if resp.Threshold != 90 {
		t.Errorf("threshold: got %d, want 90", resp.Threshold)
	}
}

func TestHealth_Critical(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	var resp api.HealthResponse
	decode(t, get(t, h, "/api/v1/health"), &resp)

	if resp.State != "critical" {
		t.Errorf("state: got %q, want critical", resp.State)
	}
	if !almostEqual(resp.HealthScore, 73.33) {
		t.Errorf("health_score: got %v, want ~73.33", resp.HealthScore)
	}
}

// --- /api/v1/dashboard ------------------------------------------------------

func TestDashboard_Critical(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	rr := get(t, h, "/api/v1/dashboard")

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.DashboardResponse
	decode(t, rr, &resp)

	if resp.Title != api.DashboardTitle || resp.Footer != api.DashboardFooter {
		t.Errorf("title/footer: got %q / %q", resp.Title, resp.Footer)
	}
	if resp.FarmSize != 5000 || resp.Threshold != 90 {
		t.Errorf("settings: got farm_size=%d threshold=%d", resp.FarmSize, resp.Threshold)
	}
	if len(resp.Readings) != 24 || len(resp.Scores) != 24 {
		t.Fatalf("series length: readings=%d scores=%d, want 24", len(resp.Readings), len(resp.Scores))
	}
	for i := range resp.Readings {
		if resp.Readings[i].Timestamp != resp.Scores[i].Timestamp {
			t.Errorf("row %d: reading %s and score %s timestamps differ", i, resp.Readings[i].Timestamp, resp.Scores[i].Timestamp)
		}
	}

	if resp.Alert.State != alerts.StateCritical {
		t.Errorf("alert.state: got %q, want critical", resp.Alert.State)
	}
	if len(resp.Alert.Actions) != 4 {
		t.Errorf("alert.actions: got %d, want 4", len(resp.Alert.Actions))
	}
	if !strings.Contains(resp.Alert.Message, "73.3%") {
		t.Errorf("alert.message: got %q, want it to contain 73.3%%", resp.Alert.Message)
	}

	if len(resp.Cards) != 4 {
		t.Fatalf("cards: got %d, want 4", len(resp.Cards))
	}
	// Water lands exactly on its 40 L/hr limit, which is not below it.
	wantDelta := []string{"", "-30% from normal", "+1.5°C", "Critical"}
	wantInverse := []bool{false, true, true, true}
	for i, c := range resp.Cards {
		if c.Delta != wantDelta[i] {
			t.Errorf("cards[%d] (%s) delta: got %q, want %q", i, c.Title, c.Delta, wantDelta[i])
		}
		if c.Inverse != wantInverse[i] {
			t.Errorf("cards[%d] (%s) inverse: got %v, want %v", i, c.Title, c.Inverse, wantInverse[i])
		}
	}

	if len(resp.ReferenceLines) != 4 || resp.ReferenceLines[3].Value != 90 {
		t.Errorf("reference_lines: got %+v", resp.ReferenceLines)
	}
}

func TestDashboard_NormalCards(t *testing.T) {
	h := api.New(newPipeline(t, noAnomaly), nil)
	var resp api.DashboardResponse
	decode(t, get(t, h, "/api/v1/dashboard"), &resp)

	for _, c := range resp.Cards[:3] {
		if c.Delta != "" || c.Inverse {
			t.Errorf("card %s: got delta=%q inverse=%v, want unflagged", c.Title, c.Delta, c.Inverse)
		}
	}
	if got := resp.Cards[3].Delta; got != "Normal" {
		t.Errorf("health card delta: got %q, want Normal", got)
	}
	if resp.Alert.Message != "" || len(resp.Alert.Actions) != 0 {
		t.Errorf("normal alert carries message/actions: %+v", resp.Alert)
	}
}

func TestDashboard_Diagnostics(t *testing.T) {
	t.Run("critical lists score then channels", func(t *testing.T) {
		h := api.New(newPipeline(t, nil), nil)
		var resp api.DashboardResponse
		decode(t, get(t, h, "/api/v1/dashboard"), &resp)

		var keys []string
		for _, d := range resp.Diagnostics {
			keys = append(keys, d.Key)
		}
		want := "health_score,activity_index,temperature"
		if got := strings.Join(keys, ","); got != want {
			t.Errorf("diagnostic keys: got %s, want %s", got, want)
		}
		if resp.Diagnostics[0].Level != "critical" {
			t.Errorf("score hint level: got %q, want critical", resp.Diagnostics[0].Level)
		}
	})

	t.Run("water below limit gets a hint", func(t *testing.T) {
		// 50 * 0.75 = 37.5 L/hr.
		h := api.New(newPipeline(t, func(o *pipeline.Options) { o.Generator.Anomaly.WaterFactor = 0.75 }), nil)
		var resp api.DashboardResponse
		decode(t, get(t, h, "/api/v1/dashboard"), &resp)

		var keys []string
		for _, d := range resp.Diagnostics {
			keys = append(keys, d.Key)
		}
		want := "health_score,water_consumption,activity_index,temperature"
		if got := strings.Join(keys, ","); got != want {
			t.Errorf("diagnostic keys: got %s, want %s", got, want)
		}
		if resp.Cards[0].Delta != "-20% from normal" {
			t.Errorf("water card delta: got %q", resp.Cards[0].Delta)
		}
	})

	t.Run("healthy flock gets all clear", func(t *testing.T) {
		h := api.New(newPipeline(t, noAnomaly), nil)
		var resp api.DashboardResponse
		decode(t, get(t, h, "/api/v1/dashboard"), &resp)

		if len(resp.Diagnostics) != 1 || resp.Diagnostics[0].Key != "healthy" {
			t.Errorf("diagnostics: got %+v, want single healthy hint", resp.Diagnostics)
		}
	})
}

// --- query overrides --------------------------------------------------------

func TestQueryOverrides(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)

	// 73.3 is below every permitted threshold, so the override must only
	// change the echoed threshold.
	var resp api.DashboardResponse
	decode(t, get(t, h, "/api/v1/dashboard?threshold=80&farm_size=2500"), &resp)
	if resp.Threshold != 80 || resp.FarmSize != 2500 {
		t.Errorf("overrides: got threshold=%d farm_size=%d, want 80/2500", resp.Threshold, resp.FarmSize)
	}
	if resp.Alert.Threshold != 80 {
		t.Errorf("alert.threshold: got %d, want 80", resp.Alert.Threshold)
	}
}

func TestQueryOverrides_Rejected(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)

	cases := []struct {
		query   string
		wantMsg string
	}{
		{"threshold=79", "threshold 79 is out of range"},
		{"threshold=96", "threshold 96 is out of range"},
		{"threshold=abc", "not an integer"},
		{"farm_size=999", "farm_size 999 is out of range"},
		{"farm_size=10001", "farm_size 10001 is out of range"},
		{"farm_size=1.5", "not an integer"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			rr := get(t, h, "/api/v1/alert?"+tc.query)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status: got %d, want 400", rr.Code)
			}
			var resp map[string]string
			decode(t, rr, &resp)
			if !strings.Contains(resp["error"], tc.wantMsg) {
				t.Errorf("error: got %q, want it to contain %q", resp["error"], tc.wantMsg)
			}
		})
	}
}

func TestQueryOverrides_BoundsInclusive(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	for _, q := range []string{"threshold=80", "threshold=95", "farm_size=1000", "farm_size=10000"} {
		if rr := get(t, h, "/api/v1/alert?"+q); rr.Code != http.StatusOK {
			t.Errorf("%s: status %d, want 200", q, rr.Code)
		}
	}
}

// --- /api/v1/readings, /api/v1/scores, /api/v1/alert -------------------------

func TestReadings(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	var rows []api.ReadingResponse
	decode(t, get(t, h, "/api/v1/readings"), &rows)

	if len(rows) != 24 {
		t.Fatalf("rows: got %d, want 24", len(rows))
	}
	if rows[0].WaterConsumption != 50 || rows[0].ActivityIndex != 70 || rows[0].Temperature != 22 {
		t.Errorf("rows[0]: got %+v, want baseline", rows[0])
	}
	last := rows[23]
	if !almostEqual(last.WaterConsumption, 40) || !almostEqual(last.ActivityIndex, 49) || !almostEqual(last.Temperature, 23.5) {
		t.Errorf("rows[23]: got %+v, want anomaly values", last)
	}

	first, _ := time.Parse(time.RFC3339, rows[0].Timestamp)
	second, _ := time.Parse(time.RFC3339, rows[1].Timestamp)
	if second.Sub(first) != time.Hour {
		t.Errorf("row spacing: got %v, want 1h", second.Sub(first))
	}
}

func TestScores(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	var pts []api.ScorePoint
	decode(t, get(t, h, "/api/v1/scores"), &pts)

	if len(pts) != 24 {
		t.Fatalf("points: got %d, want 24", len(pts))
	}
	if pts[0].Score != 100 {
		t.Errorf("points[0]: got %v, want 100", pts[0].Score)
	}
	if !almostEqual(pts[23].Score, 73.33) {
		t.Errorf("points[23]: got %v, want ~73.33", pts[23].Score)
	}
}

func TestAlert(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	var st alerts.AlertState
	decode(t, get(t, h, "/api/v1/alert"), &st)

	if st.State != alerts.StateCritical {
		t.Errorf("state: got %q, want critical", st.State)
	}
	if st.Threshold != 90 {
		t.Errorf("threshold: got %d, want 90", st.Threshold)
	}
}

// --- /api/v1/alerts ---------------------------------------------------------

func TestAlerts_NoNotifier(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	rr := get(t, h, "/api/v1/alerts")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("body: got %s, want []", body)
	}
}

func TestAlerts_FromNotifier(t *testing.T) {
	p := newPipeline(t, nil)
	n := alerts.NewNotifier(alerts.Config{})

	snap, err := p.Refresh(time.Now())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	n.Observe(snap.Facts(), time.Now())

	var out []alerts.Alert
	decode(t, get(t, api.New(p, n), "/api/v1/alerts"), &out)
	if len(out) != 1 {
		t.Fatalf("alerts: got %d, want 1", len(out))
	}
	if out[0].RuleName != alerts.CriticalRuleName || out[0].State != "firing" {
		t.Errorf("alert: got %+v", out[0])
	}
}

// --- errors -----------------------------------------------------------------

type failingSource struct{}

func (failingSource) Settings() pipeline.Settings {
	return pipeline.Settings{FarmSize: 5000, AlertThreshold: 90}
}

func (failingSource) RefreshWith(time.Time, pipeline.Settings) (*pipeline.Snapshot, error) {
	return nil, errors.New("generator exploded")
}

func TestRefreshFailure(t *testing.T) {
	rr := get(t, api.New(failingSource{}, nil), "/api/v1/dashboard")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rr.Code)
	}
}

// --- method enforcement -----------------------------------------------------

func TestMethodNotAllowed(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	paths := []string{
		"/api/v1/health",
		"/api/v1/dashboard",
		"/api/v1/readings",
		"/api/v1/scores",
		"/api/v1/alert",
		"/api/v1/alerts",
	}
	for _, path := range paths {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, nil))
		if rr.Code != http.StatusMethodNotAllowed {
			t.Errorf("POST %s: got %d, want 405", path, rr.Code)
		}
	}
}

// --- Content-Type -----------------------------------------------------------

func TestContentTypeJSON(t *testing.T) {
	h := api.New(newPipeline(t, nil), nil)
	rr := get(t, h, "/api/v1/dashboard")
	ct := rr.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}
