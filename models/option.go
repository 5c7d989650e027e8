package models

import (
	"fmt"
	"math"
	"strings"
)

// OptionKind distinguishes calls from puts. The zero value is invalid.
type OptionKind int

const (
	Call OptionKind = iota + 1
	Put
)

func (k OptionKind) String() string {
	switch k {
	case Call:
		return "call"
	case Put:
		return "put"
	default:
		return fmt.Sprintf("OptionKind(%d)", int(k))
	}
}

// Valid reports whether k is Call or Put.
func (k OptionKind) Valid() bool {
	return k == Call || k == Put
}

// ParseOptionKind accepts "call", "c", "put" and "p" in any case.
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return 0, fmt.Errorf("option kind %q: %w", s, ErrInvalidArgument)
}

func (k OptionKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("option kind %d: %w", int(k), ErrInvalidArgument)
	}
	return []byte(k.String()), nil
}

func (k *OptionKind) UnmarshalText(text []byte) error {
	parsed, err := ParseOptionKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// OptionContract describes a European vanilla option priced under Black-Scholes.
// Maturity is in years; RiskFreeRate and Volatility are annualized.
type OptionContract struct {
	Spot         float64    `json:"spot"`
	Strike       float64    `json:"strike"`
	Maturity     float64    `json:"maturity"`
	RiskFreeRate float64    `json:"risk_free_rate"`
	Volatility   float64    `json:"volatility"`
	Kind         OptionKind `json:"kind"`
}

// Validate checks the contract against the domain of the pricing formulas.
func (c OptionContract) Validate() error {
	if !c.Kind.Valid() {
		return fmt.Errorf("option kind %d: %w", int(c.Kind), ErrInvalidArgument)
	}
	if !positive(c.Spot) {
		return fmt.Errorf("spot %v must be positive: %w", c.Spot, ErrDomain)
	}
	if !positive(c.Strike) {
		return fmt.Errorf("strike %v must be positive: %w", c.Strike, ErrDomain)
	}
	if !positive(c.Maturity) {
		return fmt.Errorf("maturity %v must be positive: %w", c.Maturity, ErrDomain)
	}
	if !positive(c.Volatility) {
		return fmt.Errorf("volatility %v must be positive: %w", c.Volatility, ErrDomain)
	}
	if !IsFinite(c.RiskFreeRate) {
		return fmt.Errorf("risk-free rate %v must be finite: %w", c.RiskFreeRate, ErrDomain)
	}
	return nil
}

func (c OptionContract) WithSpot(spot float64) OptionContract {
	c.Spot = spot
	return c
}

func (c OptionContract) WithMaturity(maturity float64) OptionContract {
	c.Maturity = maturity
	return c
}

func (c OptionContract) WithVolatility(vol float64) OptionContract {
	c.Volatility = vol
	return c
}

// Payoff is the exercise value of the option at the given terminal spot.
func (c OptionContract) Payoff(spot float64) float64 {
	if c.Kind == Put {
		return math.Max(c.Strike-spot, 0)
	}
	return math.Max(spot-c.Strike, 0)
}

// IntrinsicValue is the lower no-arbitrage bound of the option price,
// using the strike discounted to today.
func (c OptionContract) IntrinsicValue() float64 {
	pvStrike := c.Strike * math.Exp(-c.RiskFreeRate*c.Maturity)
	if c.Kind == Put {
		return math.Max(pvStrike-c.Spot, 0)
	}
	return math.Max(c.Spot-pvStrike, 0)
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 1)
}

// DaysPerYear is the calendar convention used to turn days to expiry into years.
const DaysPerYear = 365.0

// YearsFromDays converts calendar days to a year fraction.
func YearsFromDays(days float64) float64 {
	return days / DaysPerYear
}
