package alerts

import (
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/aegismon/aegis/pkg/types"
)

const (
	defaultCooldown   = 15 * time.Minute
	maxHistoryLen     = 200
	recentWindowHours = 1
	webhookTimeout    = 10 * time.Second

	// CriticalRuleName is the built-in rule that fires while the flock is Critical.
	CriticalRuleName = "flock_health_critical"
)

// Rule defines a threshold-based notification condition.
type Rule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression: "health_score < 85",
	// "water_consumption < 40", "state == critical".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// Webhook defines one webhook delivery target.
type Webhook struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w Webhook) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Config holds extra notification rules and webhook targets. The built-in
// critical rule is always active and does not need to be listed.
type Config struct {
	Rules    []Rule    `yaml:"rules"`
	Webhooks []Webhook `yaml:"webhooks"`
}

// Validate checks rule expressions, severities and webhook types.
func (c Config) Validate() error {
	for i, r := range c.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required: %w", i, types.ErrInvalidConfiguration)
		}
		if r.Name == CriticalRuleName {
			return fmt.Errorf("alerts.rules[%d]: name %q is reserved: %w", i, r.Name, types.ErrInvalidConfiguration)
		}
		if !validCondition(r.Condition) {
			return fmt.Errorf("alerts.rules[%d] %q: cannot parse condition %q: %w", i, r.Name, r.Condition, types.ErrInvalidConfiguration)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q: %w", i, r.Name, r.Severity, types.ErrInvalidConfiguration)
		}
		if r.Cooldown < 0 {
			return fmt.Errorf("alerts.rules[%d] %q: cooldown must not be negative: %w", i, r.Name, types.ErrInvalidConfiguration)
		}
	}
	for i, w := range c.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q: %w", i, w.Type, types.ErrInvalidConfiguration)
		}
	}
	return nil
}

// Alert is a single notification event produced by the Notifier.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	Actions    []string   `json:"actions,omitempty"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"` // "firing" | "resolved"
}

// Notifier tracks which rules are firing across refreshes and delivers
// webhook notifications when a rule fires or resolves.
//
// Notifier is safe for concurrent use.
type Notifier struct {
	client *resty.Client

	mu       sync.Mutex
	rules    []Rule
	webhooks []Webhook
	active   map[string]*Alert    // key: rule name
	lastFire map[string]time.Time // last fire time per rule (for cooldown)
	history  []*Alert             // recently resolved alerts
}

// NewNotifier creates a Notifier from cfg. cfg must have passed Validate.
func NewNotifier(cfg Config) *Notifier {
	n := &Notifier{
		client: resty.New().
			SetTimeout(webhookTimeout).
			SetHeader("Content-Type", "application/json"),
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
	n.rules, n.webhooks = withBuiltin(cfg.Rules), cfg.Webhooks
	return n
}

// Reload swaps in new rules and webhook targets. Firing alerts and cooldowns
// of rules that are still configured carry over, so a reload never re-fires
// a rule that is already active. Alerts of removed rules are dropped.
func (n *Notifier) Reload(cfg Config) {
	rules := withBuiltin(cfg.Rules)
	keep := make(map[string]bool, len(rules))
	for _, r := range rules {
		keep[r.Name] = true
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.rules, n.webhooks = rules, cfg.Webhooks
	for name := range n.active {
		if !keep[name] {
			delete(n.active, name)
		}
	}
	for name := range n.lastFire {
		if !keep[name] {
			delete(n.lastFire, name)
		}
	}
	slog.Info("alerts: notifier reloaded", "rules", len(rules), "webhooks", len(cfg.Webhooks))
}

func withBuiltin(extra []Rule) []Rule {
	rules := make([]Rule, 0, len(extra)+1)
	rules = append(rules, Rule{
		Name:      CriticalRuleName,
		Condition: "state == critical",
		Severity:  "critical",
	})
	return append(rules, extra...)
}

// Observe tests every rule against f. Rules that fire are recorded and
// delivered asynchronously; firing rules whose condition is now false are
// resolved. It returns copies of the alerts that changed state.
func (n *Notifier) Observe(f Facts, now time.Time) []*Alert {
	n.mu.Lock()
	rules, webhooks := n.rules, n.webhooks
	n.mu.Unlock()

	var changed []*Alert
	for _, rule := range rules {
		fires, value := evalCondition(rule.Condition, f)

		n.mu.Lock()
		a := n.transition(rule, f, fires, value, now)
		n.mu.Unlock()

		if a == nil {
			continue
		}
		if a.State == "firing" {
			slog.Warn("alerts: rule fired",
				"rule", rule.Name,
				"value", value,
				"severity", a.Severity,
			)
		} else {
			slog.Info("alerts: rule resolved", "rule", rule.Name)
		}
		changed = append(changed, a)
		if len(webhooks) > 0 {
			go n.deliver(webhooks, a)
		}
	}
	return changed
}

// transition updates rule state and returns a copy of the alert if it fired
// or resolved. Callers must hold n.mu.
func (n *Notifier) transition(rule Rule, f Facts, fires bool, value float64, now time.Time) *Alert {
	key := rule.Name

	if !fires {
		a, ok := n.active[key]
		if !ok {
			return nil
		}
		resolved := now
		a.State = "resolved"
		a.ResolvedAt = &resolved
		delete(n.active, key)

		n.history = append(n.history, a)
		if len(n.history) > maxHistoryLen {
			n.history = n.history[len(n.history)-maxHistoryLen:]
		}
		cp := *a
		return &cp
	}

	if _, ok := n.active[key]; ok {
		return nil
	}
	cooldown := rule.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if last, ok := n.lastFire[key]; ok && now.Sub(last) <= cooldown {
		return nil
	}

	sev := rule.Severity
	if sev == "" {
		sev = "warning"
	}
	a := &Alert{
		ID:       fmt.Sprintf("%s:%d", rule.Name, now.UnixNano()),
		RuleName: rule.Name,
		Severity: sev,
		Value:    value,
		Message: fmt.Sprintf("[%s] %s fired: %s = %.2f",
			sev, rule.Name, rule.Condition, value),
		FiredAt: now,
		State:   "firing",
	}
	if rule.Name == CriticalRuleName {
		a.Message = Evaluate(f.HealthScore, f.Threshold).Message
		a.Actions = RecommendedActions()
	}
	n.active[key] = a
	n.lastFire[key] = now
	cp := *a
	return &cp
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (n *Notifier) Active(now time.Time) []*Alert {
	n.mu.Lock()
	defer n.mu.Unlock()

	cutoff := now.Add(-recentWindowHours * time.Hour)
	out := make([]*Alert, 0, len(n.active))

	for _, a := range n.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range n.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}
