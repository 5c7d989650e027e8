package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/bcdannyboy/dhedge/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthCall() models.OptionContract {
	return models.OptionContract{Spot: 100, Strike: 100, Maturity: 30.0 / 365.0, RiskFreeRate: 0.01, Volatility: 0.2, Kind: models.Call}
}

func withKind(c models.OptionContract, k models.OptionKind) models.OptionContract {
	c.Kind = k
	return c
}

func TestPriceReferenceCase(t *testing.T) {
	// S=100, K=100, r=0.05, σ=0.2, T=1
	c := models.OptionContract{Spot: 100, Strike: 100, Maturity: 1, RiskFreeRate: 0.05, Volatility: 0.2, Kind: models.Call}

	call, err := Price(c)
	require.NoError(t, err)
	put, err := Price(withKind(c, models.Put))
	require.NoError(t, err)

	assert.InDelta(t, 10.450583572185565, call.Price, 1e-9)
	assert.InDelta(t, 5.573526022256971, put.Price, 1e-9)
	assert.InDelta(t, 0.35, call.D1, 1e-12)
	assert.InDelta(t, 0.15, call.D2, 1e-12)
}

func TestOneMonthScenario(t *testing.T) {
	p, g, err := Analyze(monthCall())
	require.NoError(t, err)

	assert.InDelta(t, 2.3275249119277177, p.Price, 1e-9)
	assert.InDelta(t, 0.043003663431074694, p.D1, 1e-12)
	assert.InDelta(t, -0.014334554477024898, p.D2, 1e-12)
	assert.InDelta(t, 0.51715069321939, g.Delta, 1e-9)
	assert.InDelta(t, 0.06951272300589144, g.Gamma, 1e-9)
	assert.InDelta(t, 11.426748987269825, g.Vega, 1e-8)
}

func TestPutCallParity(t *testing.T) {
	for _, spot := range []float64{60, 95, 100, 105, 160} {
		for _, vol := range []float64{0.05, 0.2, 0.8, 1.5} {
			for _, mat := range []float64{1.0 / 365, 0.25, 1, 5} {
				c := models.OptionContract{Spot: spot, Strike: 100, Maturity: mat, RiskFreeRate: 0.03, Volatility: vol, Kind: models.Call}
				call, err := Price(c)
				require.NoError(t, err)
				put, err := Price(withKind(c, models.Put))
				require.NoError(t, err)

				assert.InDelta(t, spot-100*math.Exp(-0.03*mat), call.Price-put.Price, 1e-8,
					"S=%v σ=%v T=%v", spot, vol, mat)
			}
		}
	}
}

func TestGreeksRelations(t *testing.T) {
	for _, spot := range []float64{80, 100, 120} {
		c := monthCall().WithSpot(spot)
		gc, err := Greeks(c)
		require.NoError(t, err)
		gp, err := Greeks(withKind(c, models.Put))
		require.NoError(t, err)

		assert.InDelta(t, 1.0, gc.Delta-gp.Delta, 1e-12)
		assert.Equal(t, gc.Gamma, gp.Gamma)
		assert.Equal(t, gc.Vega, gp.Vega)

		assert.GreaterOrEqual(t, gc.Gamma, 0.0)
		assert.GreaterOrEqual(t, gc.Vega, 0.0)
		assert.True(t, gc.Delta >= 0 && gc.Delta <= 1)
		assert.True(t, gp.Delta >= -1 && gp.Delta <= 0)
	}
}

func TestGreeksMatchFiniteDifferences(t *testing.T) {
	c := models.OptionContract{Spot: 100, Strike: 105, Maturity: 0.5, RiskFreeRate: 0.02, Volatility: 0.3, Kind: models.Put}
	g, err := Greeks(c)
	require.NoError(t, err)

	price := func(c models.OptionContract) float64 {
		p, err := Price(c)
		require.NoError(t, err)
		return p.Price
	}

	h := 1e-3
	delta := (price(c.WithSpot(100+h)) - price(c.WithSpot(100-h))) / (2 * h)
	gamma := (price(c.WithSpot(100+h)) - 2*price(c) + price(c.WithSpot(100-h))) / (h * h)
	vega := (price(c.WithVolatility(0.3+h)) - price(c.WithVolatility(0.3-h))) / (2 * h)
	theta := -(price(c.WithMaturity(0.5+h)) - price(c.WithMaturity(0.5-h))) / (2 * h)

	assert.InDelta(t, delta, g.Delta, 1e-6)
	assert.InDelta(t, gamma, g.Gamma, 1e-4)
	assert.InDelta(t, vega, g.Vega, 1e-4)
	assert.InDelta(t, theta, g.Theta, 1e-4)
}

func TestPriceMonotoneInVolatility(t *testing.T) {
	for _, kind := range []models.OptionKind{models.Call, models.Put} {
		c := withKind(monthCall(), kind)
		prev := -1.0
		for vol := 0.05; vol <= 2.0; vol += 0.05 {
			p, err := Price(c.WithVolatility(vol))
			require.NoError(t, err)
			assert.Greater(t, p.Price, prev, "%v σ=%v", kind, vol)
			prev = p.Price
		}
	}
}

func TestPriceErrors(t *testing.T) {
	tests := []struct {
		name string
		c    models.OptionContract
		want error
	}{
		{"unknown kind", withKind(monthCall(), 3), models.ErrInvalidArgument},
		{"zero maturity", monthCall().WithMaturity(0), models.ErrDomain},
		{"negative maturity", monthCall().WithMaturity(-0.1), models.ErrDomain},
		{"zero volatility", monthCall().WithVolatility(0), models.ErrDomain},
		{"negative volatility", monthCall().WithVolatility(-0.2), models.ErrDomain},
		{"zero spot", monthCall().WithSpot(0), models.ErrDomain},
		{"infinite spot", monthCall().WithSpot(math.Inf(1)), models.ErrDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Price(tt.c)
			assert.True(t, errors.Is(err, tt.want), "price: %v", err)
			_, err = Greeks(tt.c)
			assert.True(t, errors.Is(err, tt.want), "greeks: %v", err)
		})
	}
}

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	const tol = 1e-8
	for _, kind := range []models.OptionKind{models.Call, models.Put} {
		for _, strike := range []float64{80, 100, 125} {
			for _, vol := range []float64{0.01, 0.05, 0.2, 0.5, 1.0, 1.99} {
				c := models.OptionContract{Spot: 100, Strike: strike, Maturity: 0.5, RiskFreeRate: 0.01, Volatility: vol, Kind: kind}
				p, err := Price(c)
				require.NoError(t, err)

				// deep ITM prices at tiny vol are flat in σ; compare prices there
				iv, err := ImpliedVolatility(p.Price, 100, strike, 0.5, 0.01, kind, tol)
				require.NoError(t, err, "%v K=%v σ=%v", kind, strike, vol)
				back, err := Price(c.WithVolatility(iv))
				require.NoError(t, err)
				assert.InDelta(t, p.Price, back.Price, 1e-6, "%v K=%v σ=%v", kind, strike, vol)
			}
		}
	}
}

func TestImpliedVolatilityATMRoundTripOnVol(t *testing.T) {
	const tol = 1e-6
	c := monthCall()
	for _, vol := range []float64{0.05, 0.2, 0.6, 1.2, 1.9} {
		p, err := Price(c.WithVolatility(vol))
		require.NoError(t, err)
		iv, err := ImpliedVolatility(p.Price, c.Spot, c.Strike, c.Maturity, c.RiskFreeRate, c.Kind, tol)
		require.NoError(t, err)
		assert.InDelta(t, vol, iv, 2*tol)
	}
}

func TestImpliedVolatilityMarketScenario(t *testing.T) {
	c := monthCall()
	iv, err := ImpliedVolatility(6.5, c.Spot, c.Strike, c.Maturity, c.RiskFreeRate, models.Call, 1e-6)
	require.NoError(t, err)
	assert.InDelta(t, 0.56557, iv, 1e-4)

	p, err := Price(c.WithVolatility(iv))
	require.NoError(t, err)
	assert.InDelta(t, 6.5, p.Price, 1e-4)
}

func TestImpliedVolatilityNotFound(t *testing.T) {
	c := monthCall().WithSpot(120)
	intrinsic := c.WithVolatility(1).IntrinsicValue()

	tests := []struct {
		name  string
		price float64
	}{
		{"below intrinsic", intrinsic - 0.5},
		{"above spot", c.Spot + 1},
		{"negative", -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			iv, err := ImpliedVolatility(tt.price, c.Spot, c.Strike, c.Maturity, c.RiskFreeRate, models.Call, 1e-6)
			assert.True(t, errors.Is(err, models.ErrNotFound), "got %v", err)
			assert.Equal(t, 0.0, iv)
		})
	}
}

func TestImpliedVolatilityInvalidInput(t *testing.T) {
	c := monthCall()
	_, err := ImpliedVolatility(2, c.Spot, c.Strike, c.Maturity, c.RiskFreeRate, 9, 1e-6)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
	_, err = ImpliedVolatility(2, c.Spot, c.Strike, 0, c.RiskFreeRate, models.Call, 1e-6)
	assert.True(t, errors.Is(err, models.ErrDomain))
	_, err = ImpliedVolatility(2, c.Spot, c.Strike, c.Maturity, c.RiskFreeRate, models.Call, 0)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
	_, err = ImpliedVolatility(math.NaN(), c.Spot, c.Strike, c.Maturity, c.RiskFreeRate, models.Call, 1e-6)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestSolverCustomBracket(t *testing.T) {
	c := monthCall()
	p, err := Price(c.WithVolatility(0.9))
	require.NoError(t, err)

	narrow := Solver{Lower: 0.1, Upper: 0.5, Tolerance: 1e-8, MaxIterations: 100}
	_, err = narrow.Solve(p.Price, c)
	assert.True(t, errors.Is(err, models.ErrNotFound))

	wide := Solver{Lower: 0.1, Upper: 1.0, Tolerance: 1e-8}
	iv, err := wide.Solve(p.Price, c)
	require.NoError(t, err)
	assert.InDelta(t, 0.9, iv, 2e-8)

	_, err = Solver{Lower: 1, Upper: 0.5, Tolerance: 1e-6}.Solve(p.Price, c)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestBrentPolynomial(t *testing.T) {
	root, err := brent(func(x float64) float64 { return x*x*x - 2*x - 5 }, 2, 3, 1e-12, 4*epsilon, 100)
	require.NoError(t, err)
	assert.InDelta(t, 2.0945514815423265, root, 1e-10)

	_, err = brent(func(x float64) float64 { return x*x + 1 }, -1, 1, 1e-12, 4*epsilon, 100)
	assert.ErrorIs(t, err, errNotBracketed)

	root, err = brent(func(x float64) float64 { return x - 1 }, 1, 2, 1e-12, 4*epsilon, 100)
	require.NoError(t, err)
	assert.Equal(t, 1.0, root)
}

func TestFitVolatility(t *testing.T) {
	const spot, maturity, rate, vol = 100.0, 0.5, 0.02, 0.27
	var quotes []Quote
	for _, strike := range []float64{85, 95, 100, 105, 115} {
		for _, kind := range []models.OptionKind{models.Call, models.Put} {
			p, err := Price(models.OptionContract{Spot: spot, Strike: strike, Maturity: maturity, RiskFreeRate: rate, Volatility: vol, Kind: kind})
			require.NoError(t, err)
			quotes = append(quotes, Quote{Strike: strike, Price: p.Price, Kind: kind})
		}
	}

	fitted, err := FitVolatility(quotes, spot, maturity, rate)
	require.NoError(t, err)
	assert.InDelta(t, vol, fitted, 1e-4)

	_, err = FitVolatility(nil, spot, maturity, rate)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
	_, err = FitVolatility([]Quote{{Strike: 100, Price: -1, Kind: models.Call}}, spot, maturity, rate)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}
