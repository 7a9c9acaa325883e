package alerts

import (
	"strconv"
	"strings"

	"github.com/aegismon/aegis/pkg/types"
)

// Facts is what a rule condition is evaluated against: the outcome of one
// refresh.
type Facts struct {
	Latest      types.Reading
	HealthScore float64
	Threshold   int
	State       State
}

// evalCondition evaluates a rule condition string against facts.
//
// Supported expressions (field operator value):
//
//	health_score < 85
//	water_consumption < 40
//	activity_index <= 50
//	temperature > 23.5
//	state == critical
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, f Facts) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "state" {
		if op == "==" {
			return string(f.State) == rhs, f.HealthScore
		}
		return false, 0
	}

	v, ok := numericField(field, f)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// validCondition reports whether cond parses into a known field and operator.
func validCondition(cond string) bool {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false
	}
	if parts[0] == "state" {
		return parts[1] == "=="
	}
	if _, ok := numericField(parts[0], Facts{}); !ok {
		return false
	}
	switch parts[1] {
	case ">", ">=", "<", "<=", "==":
	default:
		return false
	}
	_, err := strconv.ParseFloat(parts[2], 64)
	return err == nil
}

// numericField maps a field name to its value in the facts.
func numericField(field string, f Facts) (float64, bool) {
	switch field {
	case "health_score":
		return f.HealthScore, true
	case types.ChannelWater:
		return f.Latest.WaterConsumption, true
	case types.ChannelActivity:
		return f.Latest.ActivityIndex, true
	case types.ChannelTemperature:
		return f.Latest.Temperature, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
