package hedging

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/pricing"
)

// hedgeState is the replicating position carried between rebalancing dates.
type hedgeState struct {
	deltaPrev float64
	cash      float64
}

// HedgeStep is one rebalancing date of a replay.
type HedgeStep struct {
	Time      float64 `json:"time"`
	Spot      float64 `json:"spot"`
	Delta     float64 `json:"delta"`
	Trade     float64 `json:"trade"` // shares bought (negative when sold)
	Cash      float64 `json:"cash"`      // after the trade, before interest
	Portfolio float64 `json:"portfolio"` // delta*spot plus cash after interest
}

// HedgeReport is the outcome of hedging a short option along one path.
type HedgeReport struct {
	Contract       models.OptionContract `json:"contract"`
	Steps          []HedgeStep           `json:"steps,omitempty"`
	FinalSpot      float64               `json:"final_spot"`
	FinalDelta     float64               `json:"final_delta"`
	Cash           float64               `json:"cash"`
	PortfolioValue float64               `json:"portfolio_value"`
	Payoff         float64               `json:"payoff"`
	Premium        float64               `json:"premium"`
	PnL            float64               `json:"pnl"`
}

// ReplayOptions tunes Replay.
type ReplayOptions struct {
	// ExcludePremium reports the bare hedge PnL, portfolio minus payoff,
	// without crediting the premium received for the option at t=0.
	ExcludePremium bool
}

// SimulateHedgeOnce replays path with the contract's volatility used for the
// hedge ratios and returns the terminal hedge portfolio value minus the option
// payoff. The premium is not included; see Replay.
func SimulateHedgeOnce(contract models.OptionContract, path models.PricePath) (float64, error) {
	r, err := replay(contract, path, ReplayOptions{ExcludePremium: true}, false)
	if err != nil {
		return 0, err
	}
	return r.PnL, nil
}

// Replay is SimulateHedgeOnce with the per-step trace. Unless
// opts.ExcludePremium is set, the premium received at t=0 is compounded to
// maturity and added to the PnL.
func Replay(contract models.OptionContract, path models.PricePath, opts ReplayOptions) (*HedgeReport, error) {
	return replay(contract, path, opts, true)
}

func replay(contract models.OptionContract, path models.PricePath, opts ReplayOptions, trace bool) (*HedgeReport, error) {
	if err := contract.Validate(); err != nil {
		return nil, err
	}
	if err := path.Validate(); err != nil {
		return nil, err
	}

	report := &HedgeReport{Contract: contract}
	if trace {
		report.Steps = make([]HedgeStep, 0, path.Steps())
	}

	r := contract.RiskFreeRate
	maturity := contract.Maturity
	var st hedgeState

	for i := 0; i < path.Steps(); i++ {
		remaining := maturity - path.Times[i]
		if remaining <= 0 {
			break
		}
		spot := path.Spots[i]

		g, err := pricing.Greeks(contract.WithSpot(spot).WithMaturity(remaining))
		if err != nil {
			return nil, fmt.Errorf("step %d (t=%v, S=%v): %w", i, path.Times[i], spot, err)
		}

		trade := g.Delta - st.deltaPrev
		st.cash -= trade * spot
		traded := st.cash
		st.cash *= math.Exp(r * (path.Times[i+1] - path.Times[i]))
		st.deltaPrev = g.Delta
		if trace {
			report.Steps = append(report.Steps, HedgeStep{
				Time:      path.Times[i],
				Spot:      spot,
				Delta:     g.Delta,
				Trade:     trade,
				Cash:      traded,
				Portfolio: g.Delta*spot + st.cash,
			})
		}
	}

	_, last := path.Last()
	report.FinalSpot = last
	report.FinalDelta = st.deltaPrev
	report.Cash = st.cash
	report.PortfolioValue = st.deltaPrev*last + st.cash
	report.Payoff = contract.Payoff(last)
	report.PnL = report.PortfolioValue - report.Payoff

	if !opts.ExcludePremium {
		p, err := pricing.Price(contract)
		if err != nil {
			return nil, fmt.Errorf("premium: %w", err)
		}
		report.Premium = p.Price
		report.PnL += p.Price * math.Exp(r*maturity)
	}

	if !models.IsFinite(report.PnL) {
		return nil, fmt.Errorf("pnl=%v: %w", report.PnL, models.ErrNumericInstability)
	}
	return report, nil
}
