package pricing

import (
	"fmt"
	"math"

	"github.com/bcdannyboy/dhedge/models"
	"gonum.org/v1/gonum/stat/distuv"
)

// Evaluation holds the intermediates of one Black-Scholes computation. Price and
// Greeks are both derived from it so d1 is computed exactly once per contract.
type Evaluation struct {
	Contract models.OptionContract
	D1       float64
	D2       float64
	SqrtT    float64
	Discount float64 // e^{-rT}
	PdfD1    float64 // φ(d1)
}

// Evaluate validates the contract and computes d1, d2 and the shared terms.
func Evaluate(c models.OptionContract) (Evaluation, error) {
	if err := c.Validate(); err != nil {
		return Evaluation{}, err
	}

	sqrtT := math.Sqrt(c.Maturity)
	volSqrtT := c.Volatility * sqrtT
	d1 := (math.Log(c.Spot/c.Strike) + (c.RiskFreeRate+0.5*c.Volatility*c.Volatility)*c.Maturity) / volSqrtT
	d2 := d1 - volSqrtT

	if !models.IsFinite(d1) || !models.IsFinite(d2) {
		return Evaluation{}, fmt.Errorf("d1=%v d2=%v: %w", d1, d2, models.ErrNumericInstability)
	}

	return Evaluation{
		Contract: c,
		D1:       d1,
		D2:       d2,
		SqrtT:    sqrtT,
		Discount: math.Exp(-c.RiskFreeRate * c.Maturity),
		PdfD1:    normPDF(d1),
	}, nil
}

// Price returns the option value together with d1 and d2.
func (e Evaluation) Price() (models.PricingResult, error) {
	c := e.Contract
	var price float64
	switch c.Kind {
	case models.Call:
		price = c.Spot*normCDF(e.D1) - c.Strike*e.Discount*normCDF(e.D2)
	case models.Put:
		price = c.Strike*e.Discount*normCDF(-e.D2) - c.Spot*normCDF(-e.D1)
	default:
		return models.PricingResult{}, fmt.Errorf("option kind %d: %w", int(c.Kind), models.ErrInvalidArgument)
	}

	if !models.IsFinite(price) {
		return models.PricingResult{}, fmt.Errorf("price=%v: %w", price, models.ErrNumericInstability)
	}

	return models.PricingResult{Price: price, D1: e.D1, D2: e.D2}, nil
}

// Greeks returns delta, gamma, vega, theta and rho.
func (e Evaluation) Greeks() (models.GreeksResult, error) {
	c := e.Contract

	gamma := e.PdfD1 / (c.Spot * c.Volatility * e.SqrtT)
	vega := c.Spot * e.PdfD1 * e.SqrtT
	decay := -(c.Spot * e.PdfD1 * c.Volatility) / (2 * e.SqrtT)

	var delta, theta, rho float64
	switch c.Kind {
	case models.Call:
		delta = normCDF(e.D1)
		theta = decay - c.RiskFreeRate*c.Strike*e.Discount*normCDF(e.D2)
		rho = c.Strike * c.Maturity * e.Discount * normCDF(e.D2)
	case models.Put:
		delta = normCDF(e.D1) - 1
		theta = decay + c.RiskFreeRate*c.Strike*e.Discount*normCDF(-e.D2)
		rho = -c.Strike * c.Maturity * e.Discount * normCDF(-e.D2)
	default:
		return models.GreeksResult{}, fmt.Errorf("option kind %d: %w", int(c.Kind), models.ErrInvalidArgument)
	}

	g := models.GreeksResult{Delta: delta, Gamma: gamma, Vega: vega, Theta: theta, Rho: rho}
	for _, v := range []float64{g.Delta, g.Gamma, g.Vega, g.Theta, g.Rho} {
		if !models.IsFinite(v) {
			return models.GreeksResult{}, fmt.Errorf("greeks %+v: %w", g, models.ErrNumericInstability)
		}
	}
	return g, nil
}

// Price computes the Black-Scholes value of a European option.
func Price(c models.OptionContract) (models.PricingResult, error) {
	e, err := Evaluate(c)
	if err != nil {
		return models.PricingResult{}, err
	}
	return e.Price()
}

// Greeks computes the sensitivities of a European option.
func Greeks(c models.OptionContract) (models.GreeksResult, error) {
	e, err := Evaluate(c)
	if err != nil {
		return models.GreeksResult{}, err
	}
	return e.Greeks()
}

// Analyze prices the contract and computes its Greeks from a single evaluation.
func Analyze(c models.OptionContract) (models.PricingResult, models.GreeksResult, error) {
	e, err := Evaluate(c)
	if err != nil {
		return models.PricingResult{}, models.GreeksResult{}, err
	}
	p, err := e.Price()
	if err != nil {
		return models.PricingResult{}, models.GreeksResult{}, err
	}
	g, err := e.Greeks()
	if err != nil {
		return models.PricingResult{}, models.GreeksResult{}, err
	}
	return p, g, nil
}

func normCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

func normPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
