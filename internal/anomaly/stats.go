package anomaly

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// meanStd returns the mean and population standard deviation of amounts.
// The sum is taken in exact decimal arithmetic; the squared deviations are
// summed in ascending amount order so the result does not depend on the
// order the transactions were read in.
func meanStd(amounts []decimal.Decimal) (mean, std float64) {
	n := len(amounts)
	if n == 0 {
		return math.NaN(), math.NaN()
	}

	sorted := make([]decimal.Decimal, n)
	copy(sorted, amounts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	sum := decimal.Zero
	for _, a := range sorted {
		sum = sum.Add(a)
	}
	mean = sum.InexactFloat64() / float64(n)

	variance := 0.0
	for _, a := range sorted {
		d := a.InexactFloat64() - mean
		variance += d * d
	}
	variance /= float64(n)
	return mean, math.Sqrt(variance)
}
