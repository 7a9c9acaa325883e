package alerts

import (
	"testing"

	"github.com/aegismon/aegis/pkg/types"
)

func facts() Facts {
	return Facts{
		Latest:      types.Reading{WaterConsumption: 40, ActivityIndex: 49, Temperature: 23.5},
		HealthScore: 73.33,
		Threshold:   90,
		State:       StateCritical,
	}
}

func TestEvalCondition(t *testing.T) {
	tests := []struct {
		cond      string
		wantFires bool
		wantValue float64
	}{
		{"health_score < 85", true, 73.33},
		{"health_score >= 85", false, 73.33},
		{"water_consumption < 40", false, 40},
		{"water_consumption <= 40", true, 40},
		{"activity_index < 50", true, 49},
		{"temperature > 23", true, 23.5},
		{"temperature == 23.5", true, 23.5},
		{"state == critical", true, 73.33},
		{"state == normal", false, 73.33},
		{"state != critical", false, 0},
		{"humidity > 80", false, 0},
		{"health_score < eighty", false, 0},
		{"health_score <", false, 0},
		{"health_score ~ 80", false, 73.33},
	}
	for _, tc := range tests {
		t.Run(tc.cond, func(t *testing.T) {
			fires, v := evalCondition(tc.cond, facts())
			if fires != tc.wantFires {
				t.Errorf("fires = %v, want %v", fires, tc.wantFires)
			}
			if v != tc.wantValue {
				t.Errorf("value = %.2f, want %.2f", v, tc.wantValue)
			}
		})
	}
}

func TestValidCondition(t *testing.T) {
	valid := []string{"health_score < 85", "water_consumption <= 40", "temperature > 23.5", "state == critical"}
	invalid := []string{"", "state != critical", "humidity > 80", "health_score ~ 80", "health_score < x", "a b c d"}
	for _, c := range valid {
		if !validCondition(c) {
			t.Errorf("validCondition(%q) = false, want true", c)
		}
	}
	for _, c := range invalid {
		if validCondition(c) {
			t.Errorf("validCondition(%q) = true, want false", c)
		}
	}
}
