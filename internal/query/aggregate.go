package query

import "github.com/leaftrack/leaftrack/pkg/types"

// TotalsByCustomer groups the records by customer name and sums weights.
// Customers with no collections in the input are absent, not present with a
// zero total.
func TotalsByCustomer(records []types.Collection) map[string]float64 {
	totals := make(map[string]float64)
	for _, rec := range records {
		totals[rec.CustomerName] += rec.Weight
	}
	return totals
}

// TotalsByDate groups the records by calendar day and sums weights.
func TotalsByDate(records []types.Collection) map[types.Date]float64 {
	totals := make(map[types.Date]float64)
	for _, rec := range records {
		totals[rec.Date] += rec.Weight
	}
	return totals
}

// GrandTotal sums all weights. Zero for an empty input.
func GrandTotal(records []types.Collection) float64 {
	var total float64
	for _, rec := range records {
		total += rec.Weight
	}
	return total
}

// AverageDailyTotal returns the mean of the per-day totals. The second
// return value is false when there is no data; callers must surface that as
// "no data", never as a numeric result.
func AverageDailyTotal(records []types.Collection) (float64, bool) {
	daily := TotalsByDate(records)
	if len(daily) == 0 {
		return 0, false
	}
	var sum float64
	for _, total := range daily {
		sum += total
	}
	return sum / float64(len(daily)), true
}
