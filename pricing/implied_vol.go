package pricing

import (
	"errors"
	"fmt"
	"math"

	"github.com/bcdannyboy/dhedge/models"
)

// Solver searches for the volatility that reproduces a market price inside the
// bracket (Lower, Upper). Tolerance is the absolute tolerance on volatility.
type Solver struct {
	Lower         float64
	Upper         float64
	Tolerance     float64
	MaxIterations int
}

// DefaultSolver brackets volatility between 1e-6 and 300%.
var DefaultSolver = Solver{
	Lower:         1e-6,
	Upper:         3.0,
	Tolerance:     1e-6,
	MaxIterations: 100,
}

var (
	errNotBracketed  = errors.New("root not bracketed")
	errNoConvergence = errors.New("root search did not converge")
)

// ImpliedVolatility inverts the Black-Scholes price with the default bracket.
// It returns models.ErrNotFound when no volatility in the bracket matches marketPrice.
func ImpliedVolatility(marketPrice, spot, strike, maturity, rate float64, kind models.OptionKind, tol float64) (float64, error) {
	s := DefaultSolver
	s.Tolerance = tol
	return s.Solve(marketPrice, models.OptionContract{
		Spot:         spot,
		Strike:       strike,
		Maturity:     maturity,
		RiskFreeRate: rate,
		Kind:         kind,
	})
}

// Solve finds the volatility of c (c.Volatility is ignored) whose price equals marketPrice.
func (s Solver) Solve(marketPrice float64, c models.OptionContract) (float64, error) {
	if !models.IsFinite(marketPrice) {
		return 0, fmt.Errorf("market price %v: %w", marketPrice, models.ErrInvalidArgument)
	}
	if !(s.Tolerance > 0) {
		return 0, fmt.Errorf("tolerance %v must be positive: %w", s.Tolerance, models.ErrInvalidArgument)
	}
	if !(s.Lower > 0) || !(s.Upper > s.Lower) {
		return 0, fmt.Errorf("bracket (%v, %v): %w", s.Lower, s.Upper, models.ErrInvalidArgument)
	}
	// validate everything but the volatility we are solving for
	if err := c.WithVolatility(s.Lower).Validate(); err != nil {
		return 0, err
	}

	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultSolver.MaxIterations
	}

	var priceErr error
	objective := func(vol float64) float64 {
		p, err := Price(c.WithVolatility(vol))
		if err != nil {
			if priceErr == nil {
				priceErr = err
			}
			return math.NaN()
		}
		return p.Price - marketPrice
	}

	vol, err := brent(objective, s.Lower, s.Upper, s.Tolerance, 4*epsilon, maxIter)
	if priceErr != nil {
		return 0, priceErr
	}
	switch {
	case errors.Is(err, errNotBracketed):
		return 0, fmt.Errorf("market price %v outside (%v, %v) volatility range: %w", marketPrice, s.Lower, s.Upper, models.ErrNotFound)
	case err != nil:
		return 0, fmt.Errorf("%v: %w", err, models.ErrNotFound)
	}
	return vol, nil
}

const epsilon = 2.220446049250313e-16

// brent finds a root of f in [xa, xb] with Brent's method, combining bisection,
// secant and inverse quadratic interpolation steps. f(xa) and f(xb) must have
// opposite signs.
func brent(f func(float64) float64, xa, xb, xtol, rtol float64, maxIter int) (float64, error) {
	xpre, xcur := xa, xb
	fpre, fcur := f(xpre), f(xcur)
	if math.IsNaN(fpre) || math.IsNaN(fcur) {
		return 0, errNoConvergence
	}
	if fpre == 0 {
		return xpre, nil
	}
	if fcur == 0 {
		return xcur, nil
	}
	if math.Signbit(fpre) == math.Signbit(fcur) {
		return 0, errNotBracketed
	}

	var xblk, fblk, spre, scur float64
	for i := 0; i < maxIter; i++ {
		if fpre != 0 && fcur != 0 && math.Signbit(fpre) != math.Signbit(fcur) {
			xblk, fblk = xpre, fpre
			spre = xcur - xpre
			scur = spre
		}
		if math.Abs(fblk) < math.Abs(fcur) {
			xpre, xcur, xblk = xcur, xblk, xcur
			fpre, fcur, fblk = fcur, fblk, fcur
		}

		delta := (xtol + rtol*math.Abs(xcur)) / 2
		sbis := (xblk - xcur) / 2
		if fcur == 0 || math.Abs(sbis) < delta {
			return xcur, nil
		}

		if math.Abs(spre) > delta && math.Abs(fcur) < math.Abs(fpre) {
			var stry float64
			if xpre == xblk {
				// secant
				stry = -fcur * (xcur - xpre) / (fcur - fpre)
			} else {
				// inverse quadratic
				dpre := (fpre - fcur) / (xpre - xcur)
				dblk := (fblk - fcur) / (xblk - xcur)
				stry = -fcur * (fblk*dblk - fpre*dpre) / (dblk * dpre * (fblk - fpre))
			}
			if 2*math.Abs(stry) < math.Min(math.Abs(spre), 3*math.Abs(sbis)-delta) {
				spre, scur = scur, stry
			} else {
				spre, scur = sbis, sbis
			}
		} else {
			spre, scur = sbis, sbis
		}

		xpre, fpre = xcur, fcur
		if math.Abs(scur) > delta {
			xcur += scur
		} else if sbis > 0 {
			xcur += delta
		} else {
			xcur -= delta
		}

		fcur = f(xcur)
		if math.IsNaN(fcur) {
			return 0, errNoConvergence
		}
	}
	return xcur, errNoConvergence
}
