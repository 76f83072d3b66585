package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date format of date fields
const DateLayout = "2006-01-02"

var dateLayouts = []string{DateLayout, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

// Record is a validated input with every field coerced to its declared kind:
// string and enum fields hold string, number fields int, date fields time.Time.
type Record map[string]any

// String returns a string field or ""
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Int returns a number field or 0
func (r Record) Int(name string) int {
	n, _ := r[name].(int)
	return n
}

// Time returns a date field or the zero time
func (r Record) Time(name string) time.Time {
	t, _ := r[name].(time.Time)
	return t
}

// Validate checks raw input against the schema of kind. Every field is
// checked independently and all failures are returned together as an
// ErrorList; on success the coerced record is returned. Unknown input keys
// are ignored.
func (r *Registry) Validate(kind EntityKind, raw map[string]any) (Record, error) {
	fields := r.Describe(kind)
	if fields == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, kind)
	}

	rec := make(Record, len(fields))
	var errs ErrorList
	for _, f := range fields {
		value, ok := raw[f.Name]
		if !ok || isEmpty(value) {
			if f.Required {
				errs = append(errs, missingField(f.Name))
			} else if f.Default != nil {
				rec[f.Name] = f.Default
			}
			continue
		}

		coerced, ok := coerce(f.Kind, value)
		if !ok {
			errs = append(errs, typeMismatch(f.Name, f.Kind, value))
			continue
		}

		if f.Constraint != nil && f.Constraint.Tag != "" {
			if err := r.validate.Var(coerced, f.Constraint.Tag); err != nil {
				errs = append(errs, constraintViolation(f.Name, f.Constraint, coerced))
				continue
			}
		}
		rec[f.Name] = coerced
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rec, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return sanitize(t) == ""
	case json.Number:
		return strings.TrimSpace(string(t)) == ""
	}
	return false
}

func sanitize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\x00", ""))
}

func coerce(kind FieldKind, v any) (any, bool) {
	switch kind {
	case KindString, KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		return sanitize(s), true
	case KindNumber:
		return toInt(v)
	case KindDate:
		return toDate(v)
	}
	return nil, false
}

// largest float64 that still converts to an exact integer
const maxExactFloat = 1 << 53

func toInt(v any) (any, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return nil, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return nil, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
		f, err := n.Float64()
		if err != nil {
			return nil, false
		}
		return floatToInt(f)
	case string:
		i, err := strconv.Atoi(sanitize(n))
		if err != nil {
			return nil, false
		}
		return i, true
	}
	return nil, false
}

func floatToInt(f float64) (any, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return nil, false
	}
	return int(f), true
}

func toDate(v any) (any, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return nil, false
		}
		return *t, true
	case string:
		s := sanitize(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
	}
	return nil, false
}
