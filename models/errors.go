package models

import "errors"

var (
	// ErrInvalidArgument is returned for unrecognized option kinds and malformed parameters.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDomain is returned when an input lies outside the domain of the Black-Scholes formulas,
	// e.g. a non-positive maturity or volatility.
	ErrDomain = errors.New("domain error")
	// ErrNotFound is returned by the implied volatility solver when no volatility in the
	// search bracket reproduces the market price.
	ErrNotFound = errors.New("implied volatility not found")
	// ErrNumericInstability is returned when an intermediate value is NaN or infinite.
	ErrNumericInstability = errors.New("numeric instability")
)
