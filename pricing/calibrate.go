package pricing

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/dhedge/models"
	"gonum.org/v1/gonum/optimize"
)

// Quote is an observed option price for one strike.
type Quote struct {
	Strike float64           `json:"strike"`
	Price  float64           `json:"price"`
	Kind   models.OptionKind `json:"kind"`
}

// FitVolatility finds the single flat volatility that minimizes the mean squared
// pricing error across quotes sharing one spot, maturity and rate.
func FitVolatility(quotes []Quote, spot, maturity, rate float64) (float64, error) {
	if len(quotes) == 0 {
		return 0, fmt.Errorf("no quotes to fit: %w", models.ErrInvalidArgument)
	}
	contracts := make([]models.OptionContract, len(quotes))
	for i, q := range quotes {
		contracts[i] = models.OptionContract{
			Spot:         spot,
			Strike:       q.Strike,
			Maturity:     maturity,
			RiskFreeRate: rate,
			Volatility:   DefaultSolver.Upper,
			Kind:         q.Kind,
		}
		if err := contracts[i].Validate(); err != nil {
			return 0, fmt.Errorf("quote %d: %w", i, err)
		}
		if !models.IsFinite(q.Price) || q.Price < 0 {
			return 0, fmt.Errorf("quote %d price %v: %w", i, q.Price, models.ErrInvalidArgument)
		}
	}

	// optimize in log-volatility so the search never leaves σ > 0
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			vol := math.Exp(x[0])
			mse := 0.0
			for i, c := range contracts {
				p, err := Price(c.WithVolatility(vol))
				if err != nil {
					return math.Inf(1)
				}
				mse += math.Pow(p.Price-quotes[i].Price, 2)
			}
			return mse / float64(len(contracts))
		},
	}

	settings := &optimize.Settings{
		Converger:       &optimize.FunctionConverge{Absolute: 1e-14, Iterations: 50},
		MajorIterations: 1000,
	}

	result, err := optimize.Minimize(problem, []float64{math.Log(0.2)}, settings, &optimize.NelderMead{})
	if err != nil {
		return 0, fmt.Errorf("volatility fit: %v: %w", err, models.ErrNotFound)
	}

	vol := math.Exp(result.X[0])
	if !models.IsFinite(vol) || vol <= 0 {
		return 0, fmt.Errorf("fitted volatility %v: %w", vol, models.ErrNumericInstability)
	}
	return vol, nil
}
