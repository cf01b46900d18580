// Package query provides pure filtering and aggregation over in-memory
// collection records. Nothing here touches storage.
package query

import (
	"fmt"
	"sort"

	"github.com/leaftrack/leaftrack/pkg/types"
)

// AllCustomers is the sentinel customer-filter value meaning "match every
// customer". When selected together with explicit names, the sentinel wins.
const AllCustomers = "All"

// CustomerFilter matches collection records by customer name.
type CustomerFilter struct {
	all   bool
	names map[string]struct{}
}

// NewCustomerFilter builds a filter from the selected names. An empty
// selection or any occurrence of the AllCustomers sentinel matches
// everything.
func NewCustomerFilter(selected ...string) CustomerFilter {
	if len(selected) == 0 {
		return CustomerFilter{all: true}
	}
	names := make(map[string]struct{}, len(selected))
	for _, name := range selected {
		if name == AllCustomers {
			return CustomerFilter{all: true}
		}
		names[name] = struct{}{}
	}
	return CustomerFilter{names: names}
}

// Matches reports whether the record's customer name is selected.
func (f CustomerFilter) Matches(rec types.Collection) bool {
	if f.all {
		return true
	}
	_, ok := f.names[rec.CustomerName]
	return ok
}

type dateFilterKind int

const (
	dateAny dateFilterKind = iota
	dateExact
	dateRange
)

// DateFilter matches collection records by date. It is a tagged variant
// built once per query: either no constraint (zero value), an exact day, or
// an inclusive range.
type DateFilter struct {
	kind       dateFilterKind
	day        types.Date
	start, end types.Date
}

// ExactDay builds a filter matching records on exactly the given day.
func ExactDay(day types.Date) DateFilter {
	return DateFilter{kind: dateExact, day: day}
}

// Range builds a filter matching records with start <= date <= end.
// An inverted range fails with ErrValidation.
func Range(start, end types.Date) (DateFilter, error) {
	if start.After(end) {
		return DateFilter{}, fmt.Errorf("%w: range start %s is after end %s", types.ErrValidation, start, end)
	}
	return DateFilter{kind: dateRange, start: start, end: end}, nil
}

// Matches reports whether the record's date satisfies the filter.
func (f DateFilter) Matches(rec types.Collection) bool {
	switch f.kind {
	case dateExact:
		return rec.Date.Equal(f.day)
	case dateRange:
		return !rec.Date.Before(f.start) && !rec.Date.After(f.end)
	default:
		return true
	}
}

// Filter returns the records matching both the customer and date filters,
// preserving input order.
func Filter(records []types.Collection, customers CustomerFilter, dates DateFilter) []types.Collection {
	out := make([]types.Collection, 0, len(records))
	for _, rec := range records {
		if customers.Matches(rec) && dates.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// SortByDateDesc returns a copy of the records ordered newest first. Records
// on the same day keep their relative order. Display helper for the history
// view; Filter itself never reorders.
func SortByDateDesc(records []types.Collection) []types.Collection {
	out := make([]types.Collection, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}
