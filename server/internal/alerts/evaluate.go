package alerts

import (
	"fmt"

	"github.com/aegismon/aegis/pkg/types"
)

// State is the alert state of the flock.
type State string

// Alert states.
const (
	StateNormal   State = "normal"
	StateCritical State = "critical"
)

// recommendedActions is the static response checklist for a Critical state.
// It does not depend on which channel caused the drop.
var recommendedActions = [...]string{
	"Isolate affected birds immediately",
	"Check water supply lines",
	"Contact veterinarian for inspection",
	"Increase monitoring frequency",
}

// RecommendedActions returns a fresh copy of the Critical action list.
func RecommendedActions() []string {
	out := make([]string, len(recommendedActions))
	copy(out, recommendedActions[:])
	return out
}

// AlertState is the result of one evaluation.
type AlertState struct {
	State     State   `json:"state"`
	Score     float64 `json:"score"`
	Threshold int     `json:"threshold"`

	// Message and Actions are set only for StateCritical.
	Message string   `json:"message,omitempty"`
	Actions []string `json:"actions,omitempty"`
}

// Critical reports whether the state is StateCritical.
func (a AlertState) Critical() bool { return a.State == StateCritical }

// Label is the short status shown on the health score card.
func (a AlertState) Label() string {
	if a.Critical() {
		return "Critical"
	}
	return "Normal"
}

// Evaluate compares the latest score against threshold.
// A score equal to the threshold is Normal.
func Evaluate(latestScore float64, threshold int) AlertState {
	st := AlertState{
		State:     StateNormal,
		Score:     latestScore,
		Threshold: threshold,
	}
	if latestScore < float64(threshold) {
		st.State = StateCritical
		st.Message = fmt.Sprintf(
			"Flock health score has dropped to %.1f%%. This indicates a potential disease outbreak.",
			latestScore)
		st.Actions = RecommendedActions()
	}
	return st
}

// ValidateThreshold rejects thresholds outside [min, max].
func ValidateThreshold(threshold, min, max int) error {
	if min > max {
		return fmt.Errorf("alerts: threshold bounds [%d, %d] are inverted: %w", min, max, types.ErrInvalidConfiguration)
	}
	if threshold < min || threshold > max {
		return fmt.Errorf("alerts: threshold %d is out of range [%d, %d]: %w", threshold, min, max, types.ErrInvalidConfiguration)
	}
	return nil
}
