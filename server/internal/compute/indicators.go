package compute

import "github.com/aegismon/aegis/pkg/types"

// Limits are the metric-card and chart reference values for each channel.
type Limits struct {
	// WaterLow flags water consumption below this value.
	WaterLow float64 `yaml:"water_low"`

	// ActivityLow flags an activity index below this value.
	ActivityLow float64 `yaml:"activity_low"`

	// TemperatureHigh flags temperatures above this value.
	TemperatureHigh float64 `yaml:"temperature_high"`

	// TemperatureLine is where the temperature chart draws its warning line.
	TemperatureLine float64 `yaml:"temperature_line"`

	// Labels shown next to a flagged metric card.
	WaterLabel       string `yaml:"water_label"`
	ActivityLabel    string `yaml:"activity_label"`
	TemperatureLabel string `yaml:"temperature_label"`
}

// DefaultLimits returns the reference dashboard values.
func DefaultLimits() Limits {
	return Limits{
		WaterLow:        40,
		ActivityLow:     50,
		TemperatureHigh: 23,
		TemperatureLine: 23.5,

		WaterLabel:       "-20% from normal",
		ActivityLabel:    "-30% from normal",
		TemperatureLabel: "+1.5°C",
	}
}

// Indicator is the flag shown under one metric card.
type Indicator struct {
	Channel string  `json:"channel"`
	Value   float64 `json:"value"`
	// Flagged is true when Value is past the channel limit.
	Flagged bool `json:"flagged"`
	// Delta is the short label rendered next to a flagged value; empty otherwise.
	Delta string `json:"delta,omitempty"`
}

// ReferenceLine is a dashed horizontal line drawn on one chart.
type ReferenceLine struct {
	Chart string  `json:"chart"`
	Value float64 `json:"value"`
}

// Indicators returns one Indicator per channel for r, in card order
// (water, activity, temperature).
func Indicators(r types.Reading, l Limits) []Indicator {
	water := Indicator{Channel: types.ChannelWater, Value: r.WaterConsumption}
	if r.WaterConsumption < l.WaterLow {
		water.Flagged, water.Delta = true, l.WaterLabel
	}

	activity := Indicator{Channel: types.ChannelActivity, Value: r.ActivityIndex}
	if r.ActivityIndex < l.ActivityLow {
		activity.Flagged, activity.Delta = true, l.ActivityLabel
	}

	temp := Indicator{Channel: types.ChannelTemperature, Value: r.Temperature}
	if r.Temperature > l.TemperatureHigh {
		temp.Flagged, temp.Delta = true, l.TemperatureLabel
	}

	return []Indicator{water, activity, temp}
}

// ReferenceLines returns the chart warning lines, with the health score
// line at the alert threshold.
func ReferenceLines(l Limits, threshold int) []ReferenceLine {
	return []ReferenceLine{
		{Chart: types.ChannelWater, Value: l.WaterLow},
		{Chart: types.ChannelActivity, Value: l.ActivityLow},
		{Chart: types.ChannelTemperature, Value: l.TemperatureLine},
		{Chart: "health_score", Value: float64(threshold)},
	}
}
