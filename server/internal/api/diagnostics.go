package api

import (
	"fmt"

	"github.com/aegismon/aegis/pkg/types"
	"github.com/aegismon/aegis/server/internal/pipeline"
)

// DiagnosticHint is one human-readable insight about the flock's latest
// reading. The UI displays these as chips under the alert banner; clicking
// one shows Detail. Hints never change the recommended-action list.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier (used for dedup/ordering).
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical"
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation shown on click/hover.
	Detail string `json:"detail"`
	// Value is the channel value the hint refers to.
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives diagnostic hints from a snapshot.
// Diagnostics are ordered: score first, then channels in card order.
func computeDiagnostics(snap *pipeline.Snapshot) []DiagnosticHint {
	var hints []DiagnosticHint

	// ── Composite score ──────────────────────────────────────────────────────
	if snap.Alert.Critical() {
		score := snap.LatestScore
		hints = append(hints, DiagnosticHint{
			Key:   "health_score",
			Level: "critical",
			Title: fmt.Sprintf("Score %.1f below %d", score, snap.Threshold),
			Detail: fmt.Sprintf(
				"The latest hourly health score is %.1f, under the alert threshold of %d. "+
					"The score averages water, activity and temperature against their baselines, "+
					"so the channel hints below show which of them pulled it down.",
				score, snap.Threshold,
			),
			Value: &score,
		})
	}

	// ── Channels ─────────────────────────────────────────────────────────────
	for _, ind := range snap.Indicators {
		if !ind.Flagged {
			continue
		}
		v := ind.Value
		h := DiagnosticHint{Key: ind.Channel, Level: "warning", Value: &v}
		switch ind.Channel {
		case types.ChannelWater:
			h.Title = fmt.Sprintf("Water %.1f L/hr", v)
			h.Detail = fmt.Sprintf(
				"Water intake is %.1f L/hr (%s). Falling intake is often the first sign of illness, "+
					"but it also happens when a drinker line is blocked or a regulator fails.",
				v, ind.Delta)
		case types.ChannelActivity:
			h.Title = fmt.Sprintf("Activity %.1f%%", v)
			h.Detail = fmt.Sprintf(
				"Activity is %.1f%% (%s). Lethargic birds move less and crowd together; "+
					"check whether lighting or feeding schedules changed before assuming disease.",
				v, ind.Delta)
		case types.ChannelTemperature:
			h.Title = fmt.Sprintf("Temperature %.1f°C", v)
			h.Detail = fmt.Sprintf(
				"House temperature is %.1f°C (%s). A rise alongside lower intake and activity "+
					"can indicate fever across the flock or a ventilation fault.",
				v, ind.Delta)
		default:
			h.Title = ind.Channel
			h.Detail = ind.Delta
		}
		hints = append(hints, h)
	}

	// ── All clear ────────────────────────────────────────────────────────────
	if len(hints) == 0 {
		score := snap.LatestScore
		hints = append(hints, DiagnosticHint{
			Key:   "healthy",
			Level: "ok",
			Title: "All clear",
			Detail: fmt.Sprintf(
				"The flock scored %.1f in the last hour with every channel inside its limits.",
				score,
			),
			Value: &score,
		})
	}

	return hints
}
