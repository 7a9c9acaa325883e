// Package compute derives the flock health score from sensor readings.
//
// score.go provides the pure Score / Breakdown / ScoreSeries functions that
// calculate the composite health score:
//
//	score = mean(water/water_baseline,
//	             activity/activity_baseline,
//	             1 - |temperature - ideal| / tolerance) * 100
//
// The score is deliberately not clamped: it exceeds 100 when the flock drinks
// or moves more than baseline and goes negative for extreme temperatures.
//
// indicators.go derives the per-channel metric-card flags and the chart
// reference lines shown next to the score.
package compute
