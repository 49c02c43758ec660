// Package query filters and orders in-memory collections.
// Every function here is pure: inputs are never mutated and the relative order of kept items is preserved.
package query

import (
	"sort"
	"strings"
)

// sentinels meaning "no constraint on this field"
var anyValues = map[string]bool{"": true, "tous": true, "toutes": true, "all": true, "*": true}

// IsAny reports whether v is a sentinel value that disables a categorical filter.
func IsAny(v string) bool {
	return anyValues[strings.ToLower(strings.TrimSpace(v))]
}

// Field extracts a string value to match against. Absent values must be returned as "".
type Field[T any] func(T) string

// Match pairs a field with the value it is compared to.
type Match[T any] struct {
	Field Field[T]
	Value string
}

// Criteria is evaluated as a logical AND of:
//   - Search: case-insensitive substring match, ORed across SearchFields
//   - Equals: case-insensitive equality per field
//   - Contains: case-insensitive substring per field
//   - Predicates: any extra typed condition
type Criteria[T any] struct {
	Search       string
	SearchFields []Field[T]
	Equals       []Match[T]
	Contains     []Match[T]
	Predicates   []func(T) bool
}

// Matches reports whether item satisfies every constraint of c.
func (c Criteria[T]) Matches(item T) bool {
	if term := normalize(c.Search); term != "" && len(c.SearchFields) > 0 {
		found := false
		for _, fld := range c.SearchFields {
			if strings.Contains(normalize(fld(item)), term) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, m := range c.Equals {
		if IsAny(m.Value) {
			continue
		}
		if normalize(m.Field(item)) != normalize(m.Value) {
			return false
		}
	}
	for _, m := range c.Contains {
		if IsAny(m.Value) {
			continue
		}
		if !strings.Contains(normalize(m.Field(item)), normalize(m.Value)) {
			return false
		}
	}
	for _, pred := range c.Predicates {
		if pred != nil && !pred(item) {
			return false
		}
	}
	return true
}

// Filter returns the items matching c, in their original order. The result is never nil.
func Filter[T any](items []T, c Criteria[T]) []T {
	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if c.Matches(item) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Count returns how many items match c.
func Count[T any](items []T, c Criteria[T]) int {
	var n int
	for _, item := range items {
		if c.Matches(item) {
			n++
		}
	}
	return n
}

// Join concatenates field values with a space, e.g. "nom prenom".
func Join[T any](fields ...Field[T]) Field[T] {
	return func(item T) string {
		parts := make([]string, 0, len(fields))
		for _, fld := range fields {
			parts = append(parts, fld(item))
		}
		return strings.Join(parts, " ")
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Ordering is one sort key; "-field" means descending.
type Ordering struct {
	Field     string
	Ascending bool
}

func (ord Ordering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// ParseOrdering parses a comma separated list of fields, e.g. "nom,-age".
func ParseOrdering(s string) []Ordering {
	var ords []Ordering
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" || field == "-" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ords = append(ords, Ordering{Field: field, Ascending: !descending})
	}
	return ords
}

// Comparator returns <0, 0 or >0 like strings.Compare.
type Comparator[T any] func(a, b T) int

// Sort returns a sorted copy of items. Unknown fields are ignored; ties keep the original order.
func Sort[T any](items []T, ords []Ordering, keys map[string]Comparator[T]) []T {
	sorted := make([]T, len(items))
	copy(sorted, items)
	if len(ords) == 0 {
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		for _, ord := range ords {
			cmp, ok := keys[ord.Field]
			if !ok {
				continue
			}
			c := cmp(sorted[i], sorted[j])
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
	return sorted
}

// CompareStrings compares case-insensitively.
func CompareStrings(a, b string) int {
	return strings.Compare(normalize(a), normalize(b))
}

// CompareFloats compares two numbers.
func CompareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
