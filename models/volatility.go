package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// RealizedVolatility estimates the annualized close-to-close volatility of a path
// from the sample standard deviation of its log returns.
func RealizedVolatility(path PricePath) (float64, error) {
	if err := path.Validate(); err != nil {
		return 0, err
	}
	if path.Steps() < 2 {
		return 0, fmt.Errorf("need at least 2 returns, got %d: %w", path.Steps(), ErrInvalidArgument)
	}

	returns := logReturns(path.Spots)
	dt := path.Times[len(path.Times)-1] / float64(path.Steps())

	vol := stat.StdDev(returns, nil) / math.Sqrt(dt)
	if !IsFinite(vol) {
		return 0, fmt.Errorf("realized volatility: %w", ErrNumericInstability)
	}
	return vol, nil
}

// logReturns computes log returns from prices
func logReturns(prices []float64) []float64 {
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns
}
