package alerts

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/carepulse/carepulse/internal/capacity"
	"github.com/carepulse/carepulse/pkg/types"
)

// condition is a parsed rule expression of the form "field op value".
//
// Supported expressions:
//
//	hsi >= 0.9
//	er_load > 0.85
//	bed_ratio > 0.95
//	icu_ratio >= 1
//	op_load > 0.8
//	vent_pressure > 0.5
//	critical_count > 10
//	icu_full_count > 0
//	hold_count > 0
//	overflow_count > 5
//	mean_risk >= 60
//	status == escalation     (normal | warning | escalation)
//	er == freeze             (open | redirect | freeze)
type condition struct {
	field     string
	op        string
	threshold float64
	label     string // status and er comparisons
}

var numericOps = map[string]bool{">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true}

var statusLabels = map[string]string{
	"normal":     capacity.StatusNormal,
	"warning":    capacity.StatusWarning,
	"escalation": capacity.StatusEscalation,
}

var erLabels = map[string]string{
	"open":     capacity.EROpen,
	"redirect": capacity.ERRedirect,
	"freeze":   capacity.ERFreeze,
}

// parseCondition parses and validates a rule expression.
func parseCondition(expr string) (condition, error) {
	parts := strings.Fields(expr)
	if len(parts) != 3 {
		return condition{}, fmt.Errorf("condition %q: want \"field op value\"", expr)
	}
	c := condition{field: parts[0], op: parts[1]}
	rhs := parts[2]

	switch c.field {
	case "status", "er":
		if c.op != "==" && c.op != "!=" {
			return condition{}, fmt.Errorf("condition %q: %s supports only == and !=", expr, c.field)
		}
		labels := statusLabels
		if c.field == "er" {
			labels = erLabels
		}
		label, ok := labels[strings.ToLower(rhs)]
		if !ok {
			return condition{}, fmt.Errorf("condition %q: unknown %s %q", expr, c.field, rhs)
		}
		c.label = label
		return c, nil
	}

	if _, ok := numericFields[c.field]; !ok {
		return condition{}, fmt.Errorf("condition %q: unknown field %q", expr, c.field)
	}
	if !numericOps[c.op] {
		return condition{}, fmt.Errorf("condition %q: unknown operator %q", expr, c.op)
	}
	v, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return condition{}, fmt.Errorf("condition %q: threshold: %w", expr, err)
	}
	c.threshold = v
	return c, nil
}

// eval reports whether the condition holds for a, with the value it compared.
// Label comparisons report 1 when they fire.
func (c condition) eval(a *types.Analysis) (bool, float64) {
	switch c.field {
	case "status", "er":
		got := a.Hospital.StressStatus
		if c.field == "er" {
			got = a.Hospital.ERStatus
		}
		match := got == c.label
		if c.op == "!=" {
			match = !match
		}
		if match {
			return true, 1
		}
		return false, 0
	}
	v := numericFields[c.field](a)
	return compareFloat(v, c.op, c.threshold), v
}

// numericFields maps a field name to its value in an analysis.
var numericFields = map[string]func(a *types.Analysis) float64{
	"hsi":            func(a *types.Analysis) float64 { return a.Hospital.HSI },
	"er_load":        func(a *types.Analysis) float64 { return a.Hospital.ERLoad },
	"bed_ratio":      func(a *types.Analysis) float64 { return a.Hospital.BedRatio },
	"icu_ratio":      func(a *types.Analysis) float64 { return a.Hospital.ICURatio },
	"op_load":        func(a *types.Analysis) float64 { return a.Hospital.OpLoad },
	"vent_pressure":  func(a *types.Analysis) float64 { return a.Hospital.VentPressure },
	"critical_count": func(a *types.Analysis) float64 { return float64(a.Hospital.CriticalCount) },
	"icu_full_count": func(a *types.Analysis) float64 { return float64(a.Summary.ByAlert[capacity.AlertICUFull]) },
	"hold_count":     func(a *types.Analysis) float64 { return float64(a.Summary.ByBed[capacity.BedHold]) },
	"overflow_count": func(a *types.Analysis) float64 { return float64(a.Summary.ByBed[capacity.BedOverflow]) },
	"mean_risk":      func(a *types.Analysis) float64 { return a.Summary.MeanRisk },
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
	case "!=":
		return v != threshold
	default:
		return false
	}
}
