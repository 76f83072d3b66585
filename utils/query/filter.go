// Package query filters in-memory record collections for list and report views.
package query

import (
	"strings"
)

// Field names a Searchable record answers for
const (
	FieldName         = "name"
	FieldProvince     = "province"
	FieldMunicipality = "municipality"
	FieldStatus       = "status"
	FieldYear         = "year"
	FieldType         = "type"
)

// AllToken is the filter value meaning "no filter"
const AllToken = "all"

// DefaultSearchFields are matched by the text query when none are configured
var DefaultSearchFields = []string{FieldName, FieldProvince, FieldMunicipality}

// Searchable exposes record fields by name. Unknown fields return "".
type Searchable interface {
	FieldValue(field string) string
}

// FilterSpec is a conjunction of optional predicates. Empty values and the
// "all" token disable a predicate.
type FilterSpec struct {
	Query        string   `json:"q,omitempty"`
	SearchFields []string `json:"search_fields,omitempty"`
	Province     string   `json:"province,omitempty"`
	Status       string   `json:"status,omitempty"`
	Year         string   `json:"year,omitempty"`
	Type         string   `json:"type,omitempty"`
}

// SpecFromParams builds a spec from request parameters (q or search, province,
// status, year, type)
func SpecFromParams(get func(key string) string) FilterSpec {
	q := get("q")
	if q == "" {
		q = get("search")
	}
	return FilterSpec{
		Query:    strings.TrimSpace(q),
		Province: strings.TrimSpace(get("province")),
		Status:   strings.TrimSpace(get("status")),
		Year:     strings.TrimSpace(get("year")),
		Type:     strings.TrimSpace(get("type")),
	}
}

// Matches reports whether a record satisfies every active predicate
func (s FilterSpec) Matches(r Searchable) bool {
	if !s.matchesText(r) {
		return false
	}
	return matchesExact(s.Province, r.FieldValue(FieldProvince)) &&
		matchesExact(s.Status, r.FieldValue(FieldStatus)) &&
		matchesExact(s.Year, r.FieldValue(FieldYear)) &&
		matchesExact(s.Type, r.FieldValue(FieldType))
}

func (s FilterSpec) matchesText(r Searchable) bool {
	if s.Query == "" {
		return true
	}
	fields := s.SearchFields
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}
	needle := strings.ToLower(s.Query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(r.FieldValue(f)), needle) {
			return true
		}
	}
	return false
}

func matchesExact(want, got string) bool {
	if isSentinel(want) {
		return true
	}
	return want == got
}

func isSentinel(v string) bool {
	return v == "" || strings.EqualFold(v, AllToken)
}

// Filter returns the records matching spec in their original order. It never
// fails: no match is an empty, non-nil slice.
func Filter[T Searchable](records []T, spec FilterSpec) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		if spec.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
