package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bcdannyboy/dhedge/hedging"
	"github.com/bcdannyboy/dhedge/models"
	"github.com/olekukonko/tablewriter"
	"github.com/xhhuango/json"
)

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling report: %w", err)
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func keyValues(w io.Writer, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	table.SetColumnSeparator("")
	table.AppendBulk(rows)
	table.Render()
}

func contractRows(c models.OptionContract) [][]string {
	return [][]string{
		{"kind", c.Kind.String()},
		{"spot", num(c.Spot)},
		{"strike", num(c.Strike)},
		{"maturity (y)", num(c.Maturity)},
		{"rate", num(c.RiskFreeRate)},
		{"volatility", num(c.Volatility)},
	}
}

// Pricing is the price and Greeks of one contract.
type Pricing struct {
	Contract models.OptionContract `json:"contract"`
	Result   models.PricingResult  `json:"result"`
	Greeks   models.GreeksResult   `json:"greeks"`
}

func (p Pricing) Write(w io.Writer) {
	rows := contractRows(p.Contract)
	rows = append(rows,
		[]string{"price", num(p.Result.Price)},
		[]string{"d1", num(p.Result.D1)},
		[]string{"d2", num(p.Result.D2)},
		[]string{"delta", num(p.Greeks.Delta)},
		[]string{"gamma", num(p.Greeks.Gamma)},
		[]string{"vega", num(p.Greeks.Vega)},
		[]string{"theta", num(p.Greeks.Theta)},
		[]string{"rho", num(p.Greeks.Rho)},
	)
	keyValues(w, rows)
}

// ImpliedVol is the outcome of one implied volatility search.
type ImpliedVol struct {
	Contract    models.OptionContract `json:"contract"`
	MarketPrice float64               `json:"market_price"`
	Volatility  float64               `json:"implied_volatility"`
}

func (iv ImpliedVol) Write(w io.Writer) {
	c := iv.Contract
	keyValues(w, [][]string{
		{"kind", c.Kind.String()},
		{"spot", num(c.Spot)},
		{"strike", num(c.Strike)},
		{"maturity (y)", num(c.Maturity)},
		{"rate", num(c.RiskFreeRate)},
		{"market price", num(iv.MarketPrice)},
		{"implied vol", num(iv.Volatility)},
	})
}

// Hedge writes a single-path replay. The per-step trace is included when
// trace is true.
func Hedge(w io.Writer, r *hedging.HedgeReport, trace bool) {
	if trace && len(r.Steps) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"t", "spot", "delta", "trade", "cash", "portfolio"})
		for _, s := range r.Steps {
			table.Append([]string{num(s.Time), num(s.Spot), num(s.Delta), num(s.Trade), num(s.Cash), num(s.Portfolio)})
		}
		table.Render()
	}

	rows := contractRows(r.Contract)
	rows = append(rows,
		[]string{"final spot", num(r.FinalSpot)},
		[]string{"final delta", num(r.FinalDelta)},
		[]string{"cash", num(r.Cash)},
		[]string{"portfolio", num(r.PortfolioValue)},
		[]string{"payoff", num(r.Payoff)},
		[]string{"premium", num(r.Premium)},
		[]string{"pnl", num(r.PnL)},
	)
	keyValues(w, rows)
}

// MonteCarlo summarizes a PnL distribution together with its tail risk.
type MonteCarlo struct {
	Contract          models.OptionContract `json:"contract"`
	MarketVolatility  float64               `json:"market_volatility"`
	Steps             int                   `json:"steps"`
	Summary           models.PnLSummary     `json:"summary"`
	Confidence        float64               `json:"confidence"`
	ValueAtRisk       float64               `json:"value_at_risk"`
	ExpectedShortfall float64               `json:"expected_shortfall"`
	Samples           []float64             `json:"samples,omitempty"`
}

// NewMonteCarlo reduces dist to a report, computing VaR and expected
// shortfall at confidence.
func NewMonteCarlo(params hedging.MonteCarloParams, dist *models.PnLDistribution, confidence float64) (MonteCarlo, error) {
	m := MonteCarlo{
		Contract:         params.Contract,
		MarketVolatility: params.MarketVolatility,
		Steps:            params.Steps,
		Summary:          dist.Summary(),
		Confidence:       confidence,
	}
	var err error
	if m.ValueAtRisk, err = hedging.ValueAtRisk(dist, confidence); err != nil {
		return m, err
	}
	if m.ExpectedShortfall, err = hedging.ExpectedShortfall(dist, confidence); err != nil {
		return m, err
	}
	return m, nil
}

func (m MonteCarlo) Write(w io.Writer) {
	s := m.Summary
	rows := contractRows(m.Contract)
	rows = append(rows,
		[]string{"market vol", num(m.MarketVolatility)},
		[]string{"steps", strconv.Itoa(m.Steps)},
		[]string{"paths", strconv.Itoa(s.Count)},
		[]string{"failed paths", strconv.Itoa(s.Failures)},
		[]string{"mean pnl", num(s.Mean)},
		[]string{"std dev", num(s.StdDev)},
		[]string{"std error", num(s.StdErr)},
		[]string{"min", num(s.Min)},
		[]string{"max", num(s.Max)},
		[]string{fmt.Sprintf("VaR %.0f%%", m.Confidence*100), num(m.ValueAtRisk)},
		[]string{fmt.Sprintf("ES %.0f%%", m.Confidence*100), num(m.ExpectedShortfall)},
	)
	keyValues(w, rows)
}
