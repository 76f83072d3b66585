// Package aggregate groups and summarizes record collections for dashboards
// and reports.
package aggregate

import (
	"cmp"
	"math"
	"slices"
	"time"
)

// MonthLayout is the format of month labels accepted by MonthlyTrend
const MonthLayout = "2006-01"

// GroupCount is one row of a grouped count
type GroupCount[K comparable] struct {
	Key        K       `json:"key"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MonthCount is one bucket of a monthly trend
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// GroupBy partitions records by key; records keep their input order inside
// each group.
func GroupBy[T any, K comparable](records []T, keyFn func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, r := range records {
		k := keyFn(r)
		groups[k] = append(groups[k], r)
	}
	return groups
}

// CountsByGroup counts records per key with their share of the total,
// rounded to one decimal. Rows are ordered by count descending, then key.
// An empty input yields an empty list.
func CountsByGroup[T any, K cmp.Ordered](records []T, keyFn func(T) K) []GroupCount[K] {
	out := []GroupCount[K]{}
	if len(records) == 0 {
		return out
	}

	counts := make(map[K]int)
	for _, r := range records {
		counts[keyFn(r)]++
	}

	total := float64(len(records))
	for k, c := range counts {
		out = append(out, GroupCount[K]{
			Key:        k,
			Count:      c,
			Percentage: Round1(100 * float64(c) / total),
		})
	}
	slices.SortFunc(out, func(a, b GroupCount[K]) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return out
}

// MonthlyTrend counts records per calendar month of dateFn, emitting one
// bucket per label (YYYY-MM) in label order. Months without records count 0
// and records with a zero date are skipped.
func MonthlyTrend[T any](records []T, dateFn func(T) time.Time, monthLabels []string) []MonthCount {
	counts := make(map[string]int, len(monthLabels))
	for _, r := range records {
		d := dateFn(r)
		if d.IsZero() {
			continue
		}
		counts[d.Format(MonthLayout)]++
	}

	out := make([]MonthCount, 0, len(monthLabels))
	for _, label := range monthLabels {
		out = append(out, MonthCount{Month: label, Count: counts[label]})
	}
	return out
}

// MonthsOfYear returns the twelve month labels of a year
func MonthsOfYear(year int) []string {
	labels := make([]string, 0, 12)
	for m := time.January; m <= time.December; m++ {
		labels = append(labels, time.Date(year, m, 1, 0, 0, 0, 0, time.UTC).Format(MonthLayout))
	}
	return labels
}

// LastNMonths returns n month labels ending with the month of now, oldest first
func LastNMonths(now time.Time, n int) []string {
	if n < 1 {
		return []string{}
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	labels := make([]string, n)
	for i := 0; i < n; i++ {
		labels[n-1-i] = first.AddDate(0, -i, 0).Format(MonthLayout)
	}
	return labels
}

// Sum adds up an integer projection of records
func Sum[T any](records []T, fn func(T) int) int {
	total := 0
	for _, r := range records {
		total += fn(r)
	}
	return total
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
