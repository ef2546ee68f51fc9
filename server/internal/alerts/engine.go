package alerts

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carepulse/carepulse/pkg/types"
	"github.com/carepulse/carepulse/server/internal/config"
)

const (
	defaultCooldown = 15 * time.Minute
	maxHistoryLen   = 200
	recentWindow    = time.Hour
	webhookTimeout  = 10 * time.Second
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	HospitalID string     `json:"hospital_id"`
	RunID      string     `json:"run_id"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

type rule struct {
	config.AlertRule
	cond condition
}

// Engine evaluates alert rules against incoming analysis runs and delivers
// webhook notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	rules    []rule
	webhooks []config.WebhookConfig
	client   *resty.Client
	now      func() time.Time

	mu       sync.Mutex
	active   map[string]*Alert    // key: "ruleName:hospitalID"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // recently resolved alerts
}

// New creates an Engine from the server alert configuration. Every rule
// condition is parsed up front; the first invalid one is returned as an error.
// An Engine with no rules is valid and Evaluate becomes a no-op.
func New(cfg config.AlertsConfig) (*Engine, error) {
	e := &Engine{
		webhooks: cfg.Webhooks,
		client: resty.New().
			SetTimeout(webhookTimeout).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			SetHeader("Content-Type", "application/json"),
		now:      time.Now,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
	for _, r := range cfg.Rules {
		c, err := parseCondition(r.Condition)
		if err != nil {
			return nil, fmt.Errorf("alerts: rule %q: %w", r.Name, err)
		}
		if r.Cooldown <= 0 {
			r.Cooldown = defaultCooldown
		}
		if r.Severity == "" {
			r.Severity = "warning"
		}
		e.rules = append(e.rules, rule{AlertRule: r, cond: c})
	}
	return e, nil
}

// Evaluate tests all configured rules against run.
// Alerts that fire are stored and webhook delivery is triggered asynchronously.
// Alerts that were firing but whose condition is now false are resolved.
func (e *Engine) Evaluate(run *types.Run) {
	if len(e.rules) == 0 {
		return
	}

	now := e.now()
	hospital := run.Analysis.Hospital.HospitalID
	for _, r := range e.rules {
		key := r.Name + ":" + hospital
		fires, value := r.cond.eval(&run.Analysis)

		if a := e.transition(key, r, run, fires, value, now); a != nil {
			if a.State == StateFiring {
				log.Warn().
					Str("rule", r.Name).
					Str("hospital", hospital).
					Float64("value", value).
					Str("severity", a.Severity).
					Msg("alerts: alert fired")
			} else {
				log.Info().Str("rule", r.Name).Str("hospital", hospital).Msg("alerts: alert resolved")
			}
			go e.deliver(a)
		}
	}
}

// transition updates the rule state for key and returns a copy of the alert
// to deliver, or nil when nothing changed.
func (e *Engine) transition(key string, r rule, run *types.Run, fires bool, value float64, now time.Time) *Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	if fires {
		if last, ok := e.lastFire[key]; ok && now.Sub(last) <= r.Cooldown {
			return nil
		}
		hospital := run.Analysis.Hospital.HospitalID
		a := &Alert{
			ID:         uuid.NewString(),
			RuleName:   r.Name,
			HospitalID: hospital,
			RunID:      run.ID,
			Severity:   r.Severity,
			Value:      value,
			Message: fmt.Sprintf("[%s] %s fired on hospital %s: %s (value %.2f)",
				r.Severity, r.Name, hospital, r.Condition, value),
			FiredAt: now,
			State:   StateFiring,
		}
		e.active[key] = a
		e.lastFire[key] = now
		cp := *a
		return &cp
	}

	a, ok := e.active[key]
	if !ok {
		return nil
	}
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	cp := *a
	return &cp
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []*Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]*Alert, 0, len(e.active))

	for _, a := range e.active {
		cp := *a
		out = append(out, &cp)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// Firing returns the number of alerts currently firing.
func (e *Engine) Firing() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.active)
}
