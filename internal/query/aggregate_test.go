package query

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaftrack/leaftrack/pkg/types"
)

func TestTotalsByCustomer(t *testing.T) {
	d := day(t, "2024-01-01")
	records := []types.Collection{
		{CustomerName: "A", Date: d, Weight: 10},
		{CustomerName: "A", Date: d, Weight: 5},
		{CustomerName: "B", Date: d, Weight: 3},
	}

	totals := TotalsByCustomer(records)
	assert.Equal(t, map[string]float64{"A": 15, "B": 3}, totals)
}

func TestTotalsByCustomer_AbsentNotZero(t *testing.T) {
	totals := TotalsByCustomer([]types.Collection{
		{CustomerName: "A", Date: day(t, "2024-01-01"), Weight: 1},
	})
	_, present := totals["B"]
	assert.False(t, present, "uncollected customers must be absent, not zero")
}

func TestTotalsByDate(t *testing.T) {
	d1 := day(t, "2024-01-01")
	d2 := day(t, "2024-01-02")
	records := []types.Collection{
		{CustomerName: "A", Date: d1, Weight: 4},
		{CustomerName: "B", Date: d1, Weight: 6},
		{CustomerName: "A", Date: d2, Weight: 2},
	}

	totals := TotalsByDate(records)
	require.Len(t, totals, 2)
	assert.Equal(t, 10.0, totals[d1])
	assert.Equal(t, 2.0, totals[d2])
}

func TestGrandTotal_Empty(t *testing.T) {
	assert.Equal(t, 0.0, GrandTotal(nil))
}

func TestAverageDailyTotal(t *testing.T) {
	records := []types.Collection{
		{CustomerName: "A", Date: day(t, "2024-01-01"), Weight: 4},
		{CustomerName: "B", Date: day(t, "2024-01-01"), Weight: 6},
		{CustomerName: "A", Date: day(t, "2024-01-02"), Weight: 2},
	}

	avg, ok := AverageDailyTotal(records)
	require.True(t, ok)
	assert.InDelta(t, 6.0, avg, 1e-9) // (10 + 2) / 2 days
}

func TestAverageDailyTotal_NoData(t *testing.T) {
	_, ok := AverageDailyTotal(nil)
	assert.False(t, ok, "empty input must signal no data, not divide by zero")
}

// TestProperty_TotalsConsistency validates that however records are grouped,
// the group totals always sum back to the grand total.
func TestProperty_TotalsConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	base := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	names := []string{"A", "B", "C", "D"}

	genRecords := gen.SliceOf(gopter.CombineGens(
		gen.IntRange(0, 3),       // customer index
		gen.IntRange(0, 30),      // day offset
		gen.Float64Range(0.1, 100), // weight
	).Map(func(vals []interface{}) types.Collection {
		return types.Collection{
			CustomerName: names[vals[0].(int)],
			Date:         types.DateOf(base.AddDate(0, 0, vals[1].(int))),
			Weight:       vals[2].(float64),
		}
	}))

	properties.Property("customer totals sum to grand total", prop.ForAll(
		func(records []types.Collection) bool {
			var sum float64
			for _, total := range TotalsByCustomer(records) {
				sum += total
			}
			return approxEqual(sum, GrandTotal(records))
		},
		genRecords,
	))

	properties.Property("date totals sum to grand total", prop.ForAll(
		func(records []types.Collection) bool {
			var sum float64
			for _, total := range TotalsByDate(records) {
				sum += total
			}
			return approxEqual(sum, GrandTotal(records))
		},
		genRecords,
	))

	properties.TestingRun(t)
}

func approxEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-6
}
