package types

import (
	"errors"
	"time"
)

// ErrInvalidConfiguration is the only recoverable error kind in the pipeline.
// Every configuration rejection wraps it, so callers can re-prompt with
// errors.Is(err, ErrInvalidConfiguration).
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Channel names, used as stable keys in indicators, rules and metrics.
const (
	ChannelWater       = "water_consumption"
	ChannelActivity    = "activity_index"
	ChannelTemperature = "temperature"
)

// Reading is one hourly sample of the three monitored channels.
type Reading struct {
	Timestamp time.Time `json:"timestamp"`

	// WaterConsumption is in liters per hour. Never negative.
	WaterConsumption float64 `json:"water_consumption"`

	// ActivityIndex is a percentage. Never negative.
	ActivityIndex float64 `json:"activity_index"`

	// Temperature is in degrees Celsius and is not clamped.
	Temperature float64 `json:"temperature"`
}

// Series is a window of Readings ordered oldest first.
type Series []Reading

// Latest returns the most recent reading, or false for an empty series.
func (s Series) Latest() (Reading, bool) {
	if len(s) == 0 {
		return Reading{}, false
	}
	return s[len(s)-1], true
}

// Water returns the water consumption channel as a slice.
func (s Series) Water() []float64 {
	return s.project(func(r Reading) float64 { return r.WaterConsumption })
}

// Activity returns the activity index channel as a slice.
func (s Series) Activity() []float64 {
	return s.project(func(r Reading) float64 { return r.ActivityIndex })
}

// Temperature returns the temperature channel as a slice.
func (s Series) Temperature() []float64 {
	return s.project(func(r Reading) float64 { return r.Temperature })
}

// Clone returns a copy that shares no backing array with s.
func (s Series) Clone() Series {
	if s == nil {
		return nil
	}
	out := make(Series, len(s))
	copy(out, s)
	return out
}

func (s Series) project(f func(Reading) float64) []float64 {
	out := make([]float64, len(s))
	for i, r := range s {
		out[i] = f(r)
	}
	return out
}
