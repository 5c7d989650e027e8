package models

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PnLDistribution collects the hedging PnL of simulated paths. Paths that failed
// are counted but contribute no sample. It is not safe for concurrent use;
// parallel producers fill their own distributions and Merge them.
type PnLDistribution struct {
	samples  []float64
	failures int
}

func NewPnLDistribution(capacity int) *PnLDistribution {
	if capacity < 0 {
		capacity = 0
	}
	return &PnLDistribution{samples: make([]float64, 0, capacity)}
}

func (d *PnLDistribution) Add(pnl float64) {
	d.samples = append(d.samples, pnl)
}

func (d *PnLDistribution) AddFailure() {
	d.failures++
}

// Merge appends other's samples and failures to d.
func (d *PnLDistribution) Merge(other *PnLDistribution) {
	if other == nil {
		return
	}
	d.samples = append(d.samples, other.samples...)
	d.failures += other.failures
}

func (d *PnLDistribution) Len() int {
	return len(d.samples)
}

func (d *PnLDistribution) Failures() int {
	return d.failures
}

// Samples returns a copy of the collected PnL values.
func (d *PnLDistribution) Samples() []float64 {
	out := make([]float64, len(d.samples))
	copy(out, d.samples)
	return out
}

// PnLSummary is the reduced view of a PnLDistribution.
type PnLSummary struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"stddev"`
	StdErr   float64 `json:"stderr"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summary computes mean, sample standard deviation, standard error, min and max.
// An empty distribution yields zero statistics.
func (d *PnLDistribution) Summary() PnLSummary {
	s := PnLSummary{Count: len(d.samples), Failures: d.failures}
	if s.Count == 0 {
		return s
	}

	s.Min = floats.Min(d.samples)
	s.Max = floats.Max(d.samples)
	if s.Count == 1 {
		s.Mean = d.samples[0]
		return s
	}

	s.Mean, s.StdDev = stat.MeanStdDev(d.samples, nil)
	s.StdErr = s.StdDev / math.Sqrt(float64(s.Count))
	return s
}
