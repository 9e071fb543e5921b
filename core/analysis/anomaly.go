package analysis

import (
	"math"

	"github.com/shopspring/decimal"

	"aws-cost/core/types"
)

var (
	minDeviation = decimal.RequireFromString("0.50")
	half         = decimal.RequireFromString("0.5")
	two          = decimal.NewFromInt(2)
)

// DetectAnomalies flags days whose cost is further from the window mean than
// the threshold. Five or more days use max(2·stdev, $0.50); three or four use
// max(50% of mean, $0.50); fewer than three yield nothing.
func DetectAnomalies(daily []types.DailyCost) []types.Anomaly {
	n := len(daily)
	if n < 3 {
		return nil
	}

	sum := decimal.Zero
	for _, d := range daily {
		sum = sum.Add(d.Amount)
	}
	mean := sum.Div(decimal.NewFromInt(int64(n)))

	var threshold decimal.Decimal
	if n >= 5 {
		threshold = decimal.Max(stdev(daily, mean).Mul(two), minDeviation)
	} else {
		threshold = decimal.Max(mean.Mul(half), minDeviation)
	}

	var anomalies []types.Anomaly
	for _, d := range daily {
		deviation := d.Amount.Sub(mean)
		if deviation.Abs().GreaterThan(threshold) {
			anomalies = append(anomalies, types.Anomaly{
				Date:      d.Date,
				Amount:    d.Amount,
				Expected:  mean,
				Deviation: deviation,
			})
		}
	}
	return anomalies
}

// stdev is the sample standard deviation
func stdev(daily []types.DailyCost, mean decimal.Decimal) decimal.Decimal {
	squares := decimal.Zero
	for _, d := range daily {
		diff := d.Amount.Sub(mean)
		squares = squares.Add(diff.Mul(diff))
	}
	variance := squares.Div(decimal.NewFromInt(int64(len(daily) - 1)))
	return decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
}
