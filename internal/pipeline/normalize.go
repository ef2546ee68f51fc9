package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carepulse/carepulse/pkg/types"
)

// Normalizer turns raw rows into typed records using an alias table.
// It is safe for concurrent use once built.
type Normalizer struct {
	numeric []numericField
	text    []textField
	flags   []flagField
	idKeys  []string
}

// NewNormalizer builds a Normalizer from the built-in alias table with
// overrides applied. Overrides naming an unknown field or carrying an empty
// source list are rejected.
func NewNormalizer(overrides FieldAliases) (*Normalizer, error) {
	n := &Normalizer{
		numeric: defaultNumericFields(),
		text:    defaultTextFields(),
		flags:   defaultFlagFields(),
		idKeys:  []string{FieldPatientID},
	}
	for name, sources := range overrides {
		if len(sources) == 0 {
			return nil, fmt.Errorf("fields.%s: empty source list", name)
		}
		if !n.override(name, sources) {
			return nil, fmt.Errorf("fields.%s: unknown patient field", name)
		}
	}
	return n, nil
}

func (n *Normalizer) override(name string, sources []string) bool {
	src := append([]string(nil), sources...)
	if name == FieldPatientID {
		n.idKeys = src
		return true
	}
	for i := range n.numeric {
		if n.numeric[i].name == name {
			n.numeric[i].sources = src
			return true
		}
	}
	for i := range n.text {
		if n.text[i].name == name {
			n.text[i].sources = src
			return true
		}
	}
	for i := range n.flags {
		if n.flags[i].name == name {
			n.flags[i].sources = src
			return true
		}
	}
	return false
}

// Patient normalises one row. Each numeric field takes the first source
// holding a usable non-zero number, else its reference default. id is the
// identifier to use when the row carries none.
func (n *Normalizer) Patient(row types.Row, id string) types.PatientRecord {
	var p types.PatientRecord
	if v, ok := firstText(row, n.idKeys); ok {
		p.PatientID = v
	} else {
		p.PatientID = id
	}
	for _, f := range n.numeric {
		v, ok := firstNumber(row, f.sources)
		if !ok {
			v = f.def
		}
		f.set(&p, v)
	}
	for _, f := range n.text {
		v, ok := firstText(row, f.sources)
		if !ok {
			v = f.def
		}
		f.set(&p, v)
	}
	for _, f := range n.flags {
		f.set(&p, firstFlag(row, f.sources))
	}
	return p
}

// Hospital normalises the hospital row. Missing or unparseable numbers are 0;
// the stress calculator guards every denominator.
func Hospital(row types.Row) types.HospitalRecord {
	var h types.HospitalRecord
	if v, ok := lookup(row, "hospital_id"); ok {
		h.HospitalID, _ = toText(v)
	}
	for _, f := range hospitalFields {
		if v, ok := lookup(row, f.name); ok {
			if x, ok := toNumber(v); ok {
				f.set(&h, x)
			}
		}
	}
	return h
}

// lookup finds key in row, falling back to a case-insensitive match on
// trimmed column names as spreadsheet headers are often hand-typed. When
// several headers fold to key, the lexically smallest one wins.
func lookup(row types.Row, key string) (any, bool) {
	if v, ok := row[key]; ok {
		return v, true
	}
	var (
		match string
		found bool
	)
	for k := range row {
		if strings.EqualFold(strings.TrimSpace(k), key) && (!found || k < match) {
			match, found = k, true
		}
	}
	if !found {
		return nil, false
	}
	return row[match], true
}

func firstNumber(row types.Row, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := lookup(row, k)
		if !ok {
			continue
		}
		if x, ok := toNumber(v); ok && x != 0 {
			return x, true
		}
	}
	return 0, false
}

func firstText(row types.Row, keys []string) (string, bool) {
	for _, k := range keys {
		v, ok := lookup(row, k)
		if !ok {
			continue
		}
		if s, ok := toText(v); ok {
			return s, true
		}
	}
	return "", false
}

func firstFlag(row types.Row, keys []string) bool {
	for _, k := range keys {
		if v, ok := lookup(row, k); ok && v != nil {
			return toFlag(v)
		}
	}
	return false
}

// toNumber coerces a cell to a finite float. Booleans are not numbers.
func toNumber(v any) (float64, bool) {
	var x float64
	switch t := v.(type) {
	case float64:
		x = t
	case float32:
		x = float64(t)
	case int:
		x = float64(t)
	case int32:
		x = float64(t)
	case int64:
		x = float64(t)
	case uint:
		x = float64(t)
	case uint32:
		x = float64(t)
	case uint64:
		x = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		x = f
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		x = f
	default:
		return 0, false
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, false
	}
	return x, true
}

// toText renders a cell as a trimmed non-empty string. JSON numbers and
// integers keep their exact digits.
func toText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		s := strings.TrimSpace(t.String())
		return s, s != ""
	case bool:
		return strconv.FormatBool(t), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case uint64:
		return strconv.FormatUint(t, 10), true
	}
	if x, ok := toNumber(v); ok {
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

// toFlag reads a 0/1 flag. 1, true, "1", "true" and "yes" are set.
func toFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "1.0", "true", "yes", "y":
			return true
		}
		return false
	}
	x, ok := toNumber(v)
	return ok && x == 1
}
