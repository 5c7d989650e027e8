package models

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func baseContract() OptionContract {
	return OptionContract{Spot: 100, Strike: 100, Maturity: 30.0 / 365.0, RiskFreeRate: 0.01, Volatility: 0.2, Kind: Call}
}

func TestParseOptionKind(t *testing.T) {
	for _, s := range []string{"call", "CALL", " c ", "C"} {
		k, err := ParseOptionKind(s)
		require.NoError(t, err, s)
		assert.Equal(t, Call, k)
	}
	for _, s := range []string{"put", "Put", "p"} {
		k, err := ParseOptionKind(s)
		require.NoError(t, err, s)
		assert.Equal(t, Put, k)
	}

	_, err := ParseOptionKind("straddle")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	var k OptionKind
	require.NoError(t, k.UnmarshalText([]byte("put")))
	assert.Equal(t, Put, k)
	text, err := Call.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "call", string(text))
	_, err = OptionKind(0).MarshalText()
	assert.Error(t, err)
}

func TestOptionContractValidate(t *testing.T) {
	require.NoError(t, baseContract().Validate())

	tests := []struct {
		name   string
		mutate func(c *OptionContract)
		want   error
	}{
		{"unknown kind", func(c *OptionContract) { c.Kind = 7 }, ErrInvalidArgument},
		{"zero kind", func(c *OptionContract) { c.Kind = 0 }, ErrInvalidArgument},
		{"zero maturity", func(c *OptionContract) { c.Maturity = 0 }, ErrDomain},
		{"negative maturity", func(c *OptionContract) { c.Maturity = -1 }, ErrDomain},
		{"zero volatility", func(c *OptionContract) { c.Volatility = 0 }, ErrDomain},
		{"NaN volatility", func(c *OptionContract) { c.Volatility = math.NaN() }, ErrDomain},
		{"negative spot", func(c *OptionContract) { c.Spot = -5 }, ErrDomain},
		{"zero strike", func(c *OptionContract) { c.Strike = 0 }, ErrDomain},
		{"infinite rate", func(c *OptionContract) { c.RiskFreeRate = math.Inf(1) }, ErrDomain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := baseContract()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestPayoffAndIntrinsic(t *testing.T) {
	call := baseContract()
	put := call
	put.Kind = Put

	assert.Equal(t, 10.0, call.Payoff(110))
	assert.Equal(t, 0.0, call.Payoff(90))
	assert.Equal(t, 10.0, put.Payoff(90))
	assert.Equal(t, 0.0, put.Payoff(110))

	deep := call.WithSpot(120)
	assert.InDelta(t, 120-100*math.Exp(-0.01*30.0/365.0), deep.IntrinsicValue(), 1e-12)
	assert.Equal(t, 0.0, put.WithSpot(120).IntrinsicValue())
}

func TestGBMPathShape(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, steps := range []int{1, 2, 30, 252} {
		path, err := SimulatePath(100, 30.0/365.0, 0.01, 0.2, steps, rng)
		require.NoError(t, err)
		require.NoError(t, path.Validate())

		assert.Equal(t, steps+1, path.Len())
		assert.Equal(t, 100.0, path.Spots[0])
		assert.Equal(t, 0.0, path.Times[0])
		last, _ := path.Last()
		assert.Equal(t, 30.0/365.0, last)
		for i := 1; i < path.Len(); i++ {
			assert.Greater(t, path.Times[i], path.Times[i-1])
			assert.Greater(t, path.Spots[i], 0.0)
		}
	}
}

func TestGBMIndependentDraws(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a, err := SimulatePath(100, 1, 0.01, 0.2, 50, rng)
	require.NoError(t, err)
	b, err := SimulatePath(100, 1, 0.01, 0.2, 50, rng)
	require.NoError(t, err)
	assert.NotEqual(t, a.Spots, b.Spots)

	// same seed, same path
	c, err := SimulatePath(100, 1, 0.01, 0.2, 50, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	assert.Equal(t, a.Spots, c.Spots)
}

func TestGBMZeroVolatilityIsDeterministic(t *testing.T) {
	path, err := SimulatePath(100, 1, 0.05, 0, 10, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	_, last := path.Last()
	assert.InDelta(t, 100*math.Exp(0.05), last, 1e-9)
}

func TestGBMRejectsBadInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := SimulatePath(100, 1, 0.01, 0.2, 0, rng)
	assert.True(t, errors.Is(err, ErrDomain))
	_, err = SimulatePath(0, 1, 0.01, 0.2, 10, rng)
	assert.True(t, errors.Is(err, ErrDomain))
	_, err = SimulatePath(100, 0, 0.01, 0.2, 10, rng)
	assert.True(t, errors.Is(err, ErrDomain))
	_, err = SimulatePath(100, 1, 0.01, -0.2, 10, rng)
	assert.True(t, errors.Is(err, ErrDomain))
	_, err = SimulatePath(100, 1, 0.01, 0.2, 10, nil)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestLinearPath(t *testing.T) {
	path, err := DefaultLinearPath.Generate(100, 30.0/365.0, 30, nil)
	require.NoError(t, err)
	require.NoError(t, path.Validate())

	assert.Equal(t, 31, path.Len())
	assert.Equal(t, 100.0, path.Spots[0])
	_, last := path.Last()
	assert.InDelta(t, 110.0, last, 1e-12)
	assert.InDelta(t, 105.0, path.Spots[15], 1e-12)

	_, err = LinearPath{EndMultiplier: 0}.Generate(100, 1, 10, nil)
	assert.True(t, errors.Is(err, ErrDomain))
}

func TestPricePathValidate(t *testing.T) {
	assert.Error(t, PricePath{Times: []float64{0}, Spots: []float64{100}}.Validate())
	assert.Error(t, PricePath{Times: []float64{0, 1}, Spots: []float64{100}}.Validate())
	assert.Error(t, PricePath{Times: []float64{0.5, 1}, Spots: []float64{100, 101}}.Validate())
	assert.Error(t, PricePath{Times: []float64{0, 1, 1}, Spots: []float64{100, 101, 102}}.Validate())
	assert.NoError(t, PricePath{Times: []float64{0, 1}, Spots: []float64{100, 101}}.Validate())

	for _, bad := range []float64{-50, 0, math.Inf(1), math.NaN()} {
		err := PricePath{Times: []float64{0, 0.5, 1}, Spots: []float64{100, 101, bad}}.Validate()
		assert.True(t, errors.Is(err, ErrDomain), "spot %v: got %v", bad, err)
	}
}

func TestRealizedVolatilityRecoversGenerator(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	path, err := SimulatePath(100, 4, 0.01, 0.3, 4000, rng)
	require.NoError(t, err)

	vol, err := RealizedVolatility(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, vol, 0.02)

	_, err = RealizedVolatility(PricePath{Times: []float64{0, 1}, Spots: []float64{100, 101}})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestPnLDistributionSummary(t *testing.T) {
	d := NewPnLDistribution(4)
	assert.Equal(t, PnLSummary{}, d.Summary())

	d.Add(1)
	s := d.Summary()
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 1.0, s.Mean)
	assert.Equal(t, 0.0, s.StdDev)

	for _, v := range []float64{2, 3, 4} {
		d.Add(v)
	}
	d.AddFailure()

	s = d.Summary()
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, 1, s.Failures)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), s.StdDev, 1e-12)
	assert.InDelta(t, s.StdDev/2, s.StdErr, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
}

func TestPnLDistributionMergeMatchesSequential(t *testing.T) {
	values := []float64{-1.5, 0.25, 3, -0.75, 2.5, 0.1}

	seq := NewPnLDistribution(len(values))
	for _, v := range values {
		seq.Add(v)
	}
	seq.AddFailure()

	left, right := NewPnLDistribution(0), NewPnLDistribution(0)
	for _, v := range values[:2] {
		left.Add(v)
	}
	left.AddFailure()
	for _, v := range values[2:] {
		right.Add(v)
	}

	merged := NewPnLDistribution(0)
	merged.Merge(right)
	merged.Merge(left)
	merged.Merge(nil)

	a, b := seq.Summary(), merged.Summary()
	assert.Equal(t, a.Count, b.Count)
	assert.Equal(t, a.Failures, b.Failures)
	assert.InDelta(t, a.Mean, b.Mean, 1e-12)
	assert.InDelta(t, a.StdDev, b.StdDev, 1e-12)
	assert.Equal(t, a.Min, b.Min)
	assert.Equal(t, a.Max, b.Max)

	samples := merged.Samples()
	samples[0] = 1e9
	assert.NotEqual(t, 1e9, merged.Samples()[0])
}
