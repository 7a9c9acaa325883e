package compute

import (
	"fmt"
	"math"

	"github.com/aegismon/aegis/pkg/types"
)

// Baselines holds the expected "normal" value of each channel.
type Baselines struct {
	// Water is the normal water consumption in L/h.
	Water float64 `yaml:"water"`

	// Activity is the normal activity index in percent.
	Activity float64 `yaml:"activity"`

	// TemperatureIdeal is the ideal house temperature in °C.
	TemperatureIdeal float64 `yaml:"temperature_ideal"`

	// TemperatureTolerance is the deviation from ideal at which the
	// temperature factor reaches 0.
	TemperatureTolerance float64 `yaml:"temperature_tolerance"`
}

// DefaultBaselines returns water 50 L/h, activity 70%, 22 ±5 °C.
func DefaultBaselines() Baselines {
	return Baselines{
		Water:                50,
		Activity:             70,
		TemperatureIdeal:     22,
		TemperatureTolerance: 5,
	}
}

// Validate rejects baselines that would divide by zero or flip sign.
func (b Baselines) Validate() error {
	if b.Water <= 0 {
		return fmt.Errorf("compute: water baseline %.2f must be positive: %w", b.Water, types.ErrInvalidConfiguration)
	}
	if b.Activity <= 0 {
		return fmt.Errorf("compute: activity baseline %.2f must be positive: %w", b.Activity, types.ErrInvalidConfiguration)
	}
	if b.TemperatureTolerance <= 0 {
		return fmt.Errorf("compute: temperature tolerance %.2f must be positive: %w", b.TemperatureTolerance, types.ErrInvalidConfiguration)
	}
	return nil
}

// Output is the result of scoring one reading.
type Output struct {
	// Score is the composite health score. Not clamped.
	Score float64 `json:"score"`

	// The three normalized factors (1.0 = baseline) used to compute Score.
	// Useful for rendering per-channel breakdowns in the UI.
	WaterFactor       float64 `json:"water_factor"`
	ActivityFactor    float64 `json:"activity_factor"`
	TemperatureFactor float64 `json:"temperature_factor"`
}

// Breakdown scores r against b and returns the factor values with the score.
//
// b must have passed Validate.
func Breakdown(r types.Reading, b Baselines) Output {
	water := r.WaterConsumption / b.Water
	activity := r.ActivityIndex / b.Activity
	temp := 1 - math.Abs(r.Temperature-b.TemperatureIdeal)/b.TemperatureTolerance

	return Output{
		Score:             (water + activity + temp) / 3 * 100,
		WaterFactor:       water,
		ActivityFactor:    activity,
		TemperatureFactor: temp,
	}
}

// Score returns the composite health score of r.
func Score(r types.Reading, b Baselines) float64 {
	return Breakdown(r, b).Score
}

// ScoreSeries scores every reading; the result is index-aligned with s.
func ScoreSeries(s types.Series, b Baselines) []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = Score(r, b)
	}
	return out
}

// LatestScore returns the last score, which is the value alerting uses.
// It returns false for an empty slice.
func LatestScore(scores []float64) (float64, bool) {
	if len(scores) == 0 {
		return 0, false
	}
	return scores[len(scores)-1], true
}
