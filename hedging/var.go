package hedging

import (
	"fmt"

	"github.com/bcdannyboy/dhedge/models"
	"github.com/montanaflynn/stats"
)

// ValueAtRisk returns the loss that the hedged position does not exceed with
// the given confidence (e.g. 0.95). Losses are positive numbers.
func ValueAtRisk(dist *models.PnLDistribution, confidence float64) (float64, error) {
	losses, err := lossesOf(dist, confidence)
	if err != nil {
		return 0, err
	}
	v, err := stats.Percentile(losses, confidence*100)
	if err != nil {
		return 0, fmt.Errorf("value at risk: %v: %w", err, models.ErrInvalidArgument)
	}
	return v, nil
}

// ExpectedShortfall is the mean loss beyond the ValueAtRisk at confidence.
func ExpectedShortfall(dist *models.PnLDistribution, confidence float64) (float64, error) {
	v, err := ValueAtRisk(dist, confidence)
	if err != nil {
		return 0, err
	}
	losses, _ := lossesOf(dist, confidence)

	var tail stats.Float64Data
	for _, l := range losses {
		if l >= v {
			tail = append(tail, l)
		}
	}
	es, err := tail.Mean()
	if err != nil {
		return v, nil
	}
	return es, nil
}

func lossesOf(dist *models.PnLDistribution, confidence float64) (stats.Float64Data, error) {
	if !(confidence > 0 && confidence < 1) {
		return nil, fmt.Errorf("confidence %v outside (0, 1): %w", confidence, models.ErrInvalidArgument)
	}
	if dist == nil || dist.Len() == 0 {
		return nil, fmt.Errorf("empty distribution: %w", models.ErrInvalidArgument)
	}
	samples := dist.Samples()
	losses := make(stats.Float64Data, len(samples))
	for i, pnl := range samples {
		losses[i] = -pnl
	}
	return losses, nil
}
