package whiskey

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

const (
	LimitDefault = 20
	LimitMax     = 100
)

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// DefaultSort is used whenever the sort expression is absent or malformed.
var DefaultSort = Sort{Field: "createdAt", Direction: SortDesc}

/* Raw list query parameters, exactly as received. Empty means absent. */
type ListParams struct {
	Limit  string
	Offset string
	Q      string
	Tag    string
	Region string
	MinABV string
	MaxABV string
	Sort   string
}

type Filter struct {
	Text   string
	Tag    string
	Region string
	MinABV *float64
	MaxABV *float64
}

type Sort struct {
	Field     string
	Direction string
}

// Query is the canonical form a store scan is driven by.
type Query struct {
	Filter Filter
	Sort   Sort
	Offset int
	Limit  int
}

/*
Translates raw list parameters into a store query. It never fails: every malformed
value degrades to its default (limit 20, offset 0, no filter, createdAt desc).
The sort field is only shape-checked and is forwarded as given, the store decides
what to do with a field it does not know.
*/
func BuildQuery(p ListParams) Query {
	return Query{
		Filter: Filter{
			Text:   p.Q,
			Tag:    p.Tag,
			Region: p.Region,
			MinABV: parseBound(p.MinABV),
			MaxABV: parseBound(p.MaxABV),
		},
		Sort:   parseSort(p.Sort),
		Offset: parseOffset(p.Offset),
		Limit:  parseLimit(p.Limit),
	}
}

func parseLimit(raw string) int {
	limit, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return LimitDefault
	}
	if limit < 0 {
		return 0
	}
	return min(limit, LimitMax)
}

// Negative offsets are passed through untouched.
func parseOffset(raw string) int {
	offset, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return offset
}

func parseBound(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func parseSort(raw string) Sort {
	field, direction, found := strings.Cut(raw, ":")
	if !found || field == "" || direction == "" {
		return DefaultSort
	}
	direction = strings.ToLower(direction)
	if direction != SortAsc && direction != SortDesc {
		return DefaultSort
	}
	return Sort{Field: field, Direction: direction}
}

/* Evaluates the filter against a single record. Stores that cannot push the predicate down use this. */
func (f Filter) Matches(w Whiskey) bool {
	if f.Text != "" {
		needle := strings.ToLower(f.Text)
		if !containsFold(&w.Name, needle) && !containsFold(w.Distillery, needle) && !containsFold(w.Notes, needle) {
			return false
		}
	}
	if f.Tag != "" && !slices.Contains(w.Tags, f.Tag) {
		return false
	}
	if f.Region != "" && (w.Region == nil || !strings.EqualFold(*w.Region, f.Region)) {
		return false
	}
	if f.MinABV != nil || f.MaxABV != nil {
		if w.ABV == nil {
			return false
		}
		if f.MinABV != nil && *w.ABV < *f.MinABV {
			return false
		}
		if f.MaxABV != nil && *w.ABV > *f.MaxABV {
			return false
		}
	}
	return true
}

func containsFold(s *string, lowerNeedle string) bool {
	return s != nil && strings.Contains(strings.ToLower(*s), lowerNeedle)
}

