package hedging

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/pricing"
	"github.com/shirou/gopsutil/cpu"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// MonteCarloParams configures a batch of hedged paths. Contract.Volatility is
// the volatility used to price and hedge; MarketVolatility drives the paths.
type MonteCarloParams struct {
	Contract         models.OptionContract
	MarketVolatility float64
	Steps            int
	Simulations      int

	// Workers <= 0 uses DefaultWorkers.
	Workers int
	// Seed == 0 draws a seed from the clock.
	Seed uint64
	// ExcludePremium reports the bare hedge PnL, see ReplayOptions.
	ExcludePremium bool
	// Generator defaults to GBM{RiskFreeRate, MarketVolatility}.
	Generator models.PathGenerator
}

// ProgressFunc receives the number of paths finished so far. It is called from
// worker goroutines and must be safe for concurrent use.
type ProgressFunc func(done int)

// DefaultWorkers returns the number of logical CPUs.
func DefaultWorkers() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		return runtime.NumCPU()
	}
	return n
}

func (p MonteCarloParams) validate() error {
	if err := p.Contract.Validate(); err != nil {
		return err
	}
	if p.Steps < 1 {
		return fmt.Errorf("steps %d must be at least 1: %w", p.Steps, models.ErrDomain)
	}
	if p.Simulations < 1 {
		return fmt.Errorf("simulations %d must be at least 1: %w", p.Simulations, models.ErrDomain)
	}
	if p.Generator == nil && (!(p.MarketVolatility >= 0) || math.IsInf(p.MarketVolatility, 0)) {
		return fmt.Errorf("market volatility %v: %w", p.MarketVolatility, models.ErrDomain)
	}
	return nil
}

// SimulateMonteCarlo hedges Simulations independent paths and collects their
// PnL. Path i is drawn from its own random stream derived from (Seed, i), and
// the paths are split into contiguous per-worker chunks merged in order, so a
// fixed seed yields the same samples for any worker count. A path that fails
// to price is counted as a failure and skipped; if every path fails the
// distribution is returned with models.ErrNumericInstability.
func SimulateMonteCarlo(ctx context.Context, params MonteCarloParams, progress ProgressFunc) (*models.PnLDistribution, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	gen := params.Generator
	if gen == nil {
		gen = models.GBM{Drift: params.Contract.RiskFreeRate, Volatility: params.MarketVolatility}
	}

	workers := params.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > params.Simulations {
		workers = params.Simulations
	}

	seed := params.Seed
	if seed == 0 {
		seed = splitmix64(uint64(time.Now().UnixNano()))
	}

	var premiumFV float64
	if !params.ExcludePremium {
		p, err := pricing.Price(params.Contract)
		if err != nil {
			return nil, fmt.Errorf("premium: %w", err)
		}
		premiumFV = p.Price * math.Exp(params.Contract.RiskFreeRate*params.Contract.Maturity)
	}

	logger := log.WithFields(log.Fields{
		"simulations": params.Simulations,
		"steps":       params.Steps,
		"workers":     workers,
		"seed":        seed,
	})
	logger.Debug("starting monte carlo hedge")
	started := time.Now()

	chunks := make([]*models.PnLDistribution, workers)
	var done int64

	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		start := w * params.Simulations / workers
		end := (w + 1) * params.Simulations / workers

		g.Go(func() error {
			local := models.NewPnLDistribution(end - start)
			chunks[w] = local
			rng := rand.New(rand.NewSource(1))

			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				rng.Seed(pathSeed(seed, i))
				pnl, err := hedgePath(params, gen, rng)
				if err != nil {
					local.AddFailure()
					logger.WithError(err).WithField("path", i).Debug("hedged path failed")
				} else {
					local.Add(pnl + premiumFV)
				}

				n := atomic.AddInt64(&done, 1)
				if progress != nil {
					progress(int(n))
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	dist := models.NewPnLDistribution(params.Simulations)
	for _, c := range chunks {
		dist.Merge(c)
	}

	logger.WithFields(log.Fields{
		"failures": dist.Failures(),
		"elapsed":  time.Since(started),
	}).Debug("monte carlo hedge finished")
	if dist.Failures() > 0 {
		logger.WithField("failures", dist.Failures()).Warn("some hedged paths failed and were skipped")
	}

	if dist.Len() == 0 {
		return dist, fmt.Errorf("all %d paths failed: %w", dist.Failures(), models.ErrNumericInstability)
	}
	return dist, nil
}

func hedgePath(params MonteCarloParams, gen models.PathGenerator, rng *rand.Rand) (float64, error) {
	c := params.Contract
	path, err := gen.Generate(c.Spot, c.Maturity, params.Steps, rng)
	if err != nil {
		return 0, err
	}
	r, err := replay(c, path, ReplayOptions{ExcludePremium: true}, false)
	if err != nil {
		return 0, err
	}
	return r.PnL, nil
}

func pathSeed(seed uint64, i int) uint64 {
	return splitmix64(seed ^ uint64(i))
}

// splitmix64 scrambles x so that nearby inputs give unrelated seeds.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
