package models

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"
)

// PricePath is a discretized trajectory of the underlying. Times[0] is 0,
// Times[len-1] is the maturity and Spots[0] is the initial spot.
type PricePath struct {
	Times []float64 `json:"times"`
	Spots []float64 `json:"spots"`
}

func (p PricePath) Len() int {
	return len(p.Spots)
}

// Steps is the number of intervals in the path.
func (p PricePath) Steps() int {
	return len(p.Spots) - 1
}

func (p PricePath) Last() (t, spot float64) {
	n := len(p.Spots) - 1
	return p.Times[n], p.Spots[n]
}

// Validate checks the shape invariants of a path.
func (p PricePath) Validate() error {
	if len(p.Times) != len(p.Spots) {
		return fmt.Errorf("path has %d times and %d spots: %w", len(p.Times), len(p.Spots), ErrInvalidArgument)
	}
	if len(p.Spots) < 2 {
		return fmt.Errorf("path needs at least 2 points, got %d: %w", len(p.Spots), ErrInvalidArgument)
	}
	if p.Times[0] != 0 {
		return fmt.Errorf("path starts at t=%v: %w", p.Times[0], ErrInvalidArgument)
	}
	for i := 1; i < len(p.Times); i++ {
		if !(p.Times[i] > p.Times[i-1]) {
			return fmt.Errorf("path times not strictly increasing at step %d: %w", i, ErrInvalidArgument)
		}
	}
	for i, s := range p.Spots {
		if !positive(s) {
			return fmt.Errorf("path spot %v at step %d: %w", s, i, ErrDomain)
		}
	}
	return nil
}

// PathGenerator produces one price path from s0 over [0, t] in the given number
// of steps. Implementations must not retain rng.
type PathGenerator interface {
	Generate(s0, t float64, steps int, rng *rand.Rand) (PricePath, error)
}

// GBM generates geometric Brownian motion paths with log-normal increments.
type GBM struct {
	Drift      float64 // usually the risk-free rate
	Volatility float64
}

func (g GBM) Generate(s0, t float64, steps int, rng *rand.Rand) (PricePath, error) {
	if err := checkPathParams(s0, t, steps); err != nil {
		return PricePath{}, err
	}
	if !(g.Volatility >= 0) || math.IsInf(g.Volatility, 0) {
		return PricePath{}, fmt.Errorf("path volatility %v: %w", g.Volatility, ErrDomain)
	}
	if rng == nil {
		return PricePath{}, fmt.Errorf("nil random source: %w", ErrInvalidArgument)
	}

	path := newPathGrid(s0, t, steps)
	dt := t / float64(steps)
	drift := (g.Drift - 0.5*g.Volatility*g.Volatility) * dt
	diffusion := g.Volatility * math.Sqrt(dt)

	for i := 1; i <= steps; i++ {
		z := rng.NormFloat64()
		path.Spots[i] = path.Spots[i-1] * math.Exp(drift+diffusion*z)
	}

	return path, nil
}

// LinearPath is a deterministic path rising (or falling) linearly from s0 to
// s0*EndMultiplier. It ignores the random source and is meant for demonstrations
// and reproducible tests.
type LinearPath struct {
	EndMultiplier float64
}

// DefaultLinearPath rises 10% over the life of the option.
var DefaultLinearPath = LinearPath{EndMultiplier: 1.1}

func (l LinearPath) Generate(s0, t float64, steps int, _ *rand.Rand) (PricePath, error) {
	if err := checkPathParams(s0, t, steps); err != nil {
		return PricePath{}, err
	}
	if !positive(l.EndMultiplier) {
		return PricePath{}, fmt.Errorf("end multiplier %v: %w", l.EndMultiplier, ErrDomain)
	}

	path := newPathGrid(s0, t, steps)
	end := s0 * l.EndMultiplier
	for i := 1; i <= steps; i++ {
		path.Spots[i] = s0 + (end-s0)*float64(i)/float64(steps)
	}
	return path, nil
}

// SimulatePath draws one GBM path with drift r and volatility sigma.
func SimulatePath(s0, t, r, sigma float64, steps int, rng *rand.Rand) (PricePath, error) {
	return GBM{Drift: r, Volatility: sigma}.Generate(s0, t, steps, rng)
}

func checkPathParams(s0, t float64, steps int) error {
	if steps < 1 {
		return fmt.Errorf("steps %d must be at least 1: %w", steps, ErrDomain)
	}
	if !positive(s0) {
		return fmt.Errorf("initial spot %v must be positive: %w", s0, ErrDomain)
	}
	if !positive(t) {
		return fmt.Errorf("horizon %v must be positive: %w", t, ErrDomain)
	}
	return nil
}

// newPathGrid allocates a path with an evenly spaced time grid whose last
// point is exactly t.
func newPathGrid(s0, t float64, steps int) PricePath {
	dt := t / float64(steps)
	path := PricePath{
		Times: make([]float64, steps+1),
		Spots: make([]float64, steps+1),
	}
	for i := 1; i < steps; i++ {
		path.Times[i] = float64(i) * dt
	}
	path.Times[steps] = t
	path.Spots[0] = s0
	return path
}
