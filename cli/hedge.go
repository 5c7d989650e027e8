package cli

import (
	"fmt"
	"time"

	"github.com/bcdannyboy/dhedge/hedging"
	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/report"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	mpb "github.com/vbauerster/mpb/v7"
	"github.com/vbauerster/mpb/v7/decor"
	"golang.org/x/exp/rand"
)

func (a *app) hedgeCmd() *cobra.Command {
	var (
		steps          int
		endMultiplier  float64
		gbm            bool
		marketVol      float64
		seed           uint64
		trace          bool
		excludePremium bool
	)
	cmd := &cobra.Command{
		Use:   "hedge",
		Short: "Replay a delta hedge of a short option along one path",
		Long: "Replays a delta hedge along a linear path from spot to spot*end-multiplier,\n" +
			"or along one simulated GBM path with --gbm.",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := a.contractFromFlags(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("steps") {
				steps = a.cfg.MonteCarlo.Steps
			}
			if !cmd.Flags().Changed("market-vol") {
				marketVol = a.cfg.MonteCarlo.MarketVolatility
			}
			if !cmd.Flags().Changed("seed") {
				seed = a.cfg.MonteCarlo.Seed
			}

			var gen models.PathGenerator = models.LinearPath{EndMultiplier: endMultiplier}
			if gbm {
				gen = models.GBM{Drift: contract.RiskFreeRate, Volatility: marketVol}
			}
			if seed == 0 {
				seed = uint64(time.Now().UnixNano())
			}
			path, err := gen.Generate(contract.Spot, contract.Maturity, steps, rand.New(rand.NewSource(seed)))
			if err != nil {
				return err
			}

			rep, err := hedging.Replay(contract, path, hedging.ReplayOptions{ExcludePremium: excludePremium})
			if err != nil {
				return err
			}
			if realized, err := models.RealizedVolatility(path); err == nil {
				log.WithField("realized_vol", realized).Debug("hedge path generated")
			}
			if !trace {
				rep.Steps = nil
			}
			return a.print(cmd, rep, func() { report.Hedge(cmd.OutOrStdout(), rep, trace) })
		},
	}
	addContractFlags(cmd, true)
	cmd.Flags().IntVar(&steps, "steps", 0, "rebalancing steps (default from config)")
	cmd.Flags().Float64Var(&endMultiplier, "end-multiplier", models.DefaultLinearPath.EndMultiplier, "terminal spot as a multiple of spot for the linear path")
	cmd.Flags().BoolVar(&gbm, "gbm", false, "simulate a GBM path instead of the linear path")
	cmd.Flags().Float64Var(&marketVol, "market-vol", 0, "volatility of the simulated path (default from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed for --gbm, 0 for random")
	cmd.Flags().BoolVar(&trace, "trace", false, "print every rebalancing step")
	cmd.Flags().BoolVar(&excludePremium, "exclude-premium", false, "report hedge PnL without the option premium")
	return cmd
}

func (a *app) monteCarloCmd() *cobra.Command {
	var (
		confidence  float64
		showBar     bool
		withSamples bool
	)
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "PnL distribution of delta hedging a short option over simulated paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := a.contractFromFlags(cmd)
			if err != nil {
				return err
			}
			params := a.cfg.MonteCarloParams(contract)
			flags := cmd.Flags()
			if flags.Changed("market-vol") {
				params.MarketVolatility, _ = flags.GetFloat64("market-vol")
			}
			if flags.Changed("steps") {
				params.Steps, _ = flags.GetInt("steps")
			}
			if flags.Changed("sims") {
				params.Simulations, _ = flags.GetInt("sims")
			}
			if flags.Changed("workers") {
				params.Workers, _ = flags.GetInt("workers")
			}
			if flags.Changed("seed") {
				params.Seed, _ = flags.GetUint64("seed")
			}
			if flags.Changed("exclude-premium") {
				params.ExcludePremium, _ = flags.GetBool("exclude-premium")
			}
			if params.Simulations < 1 {
				return fmt.Errorf("sims %d must be at least 1: %w", params.Simulations, models.ErrDomain)
			}

			var progress hedging.ProgressFunc
			var p *mpb.Progress
			var bar *mpb.Bar
			if showBar {
				p = mpb.NewWithContext(cmd.Context(), mpb.WithWidth(64), mpb.WithOutput(cmd.ErrOrStderr()))
				bar = p.AddBar(int64(params.Simulations),
					mpb.PrependDecorators(
						decor.Name("Hedging"),
						decor.Percentage(decor.WCSyncSpace),
					),
					mpb.AppendDecorators(
						decor.CountersNoUnit("(%d / %d)", decor.WCSyncSpace),
					),
				)
				progress = func(int) { bar.Increment() }
			}

			dist, err := hedging.SimulateMonteCarlo(cmd.Context(), params, progress)
			if p != nil {
				if err != nil {
					bar.Abort(false)
				}
				p.Wait()
			}
			if err != nil {
				return err
			}

			rep, err := report.NewMonteCarlo(params, dist, confidence)
			if err != nil {
				return err
			}
			if withSamples {
				rep.Samples = dist.Samples()
			}
			return a.print(cmd, rep, func() { rep.Write(cmd.OutOrStdout()) })
		},
	}
	addContractFlags(cmd, true)
	cmd.Flags().Float64("market-vol", 0, "volatility driving the simulated paths")
	cmd.Flags().Int("steps", 0, "rebalancing steps per path")
	cmd.Flags().Int("sims", 0, "number of simulated paths")
	cmd.Flags().Int("workers", 0, "worker goroutines, 0 for one per CPU")
	cmd.Flags().Uint64("seed", 0, "random seed, 0 for random")
	cmd.Flags().Bool("exclude-premium", false, "report hedge PnL without the option premium")
	cmd.Flags().Float64Var(&confidence, "confidence", 0.95, "VaR and expected shortfall confidence")
	cmd.Flags().BoolVar(&showBar, "progress", false, "show a progress bar")
	cmd.Flags().BoolVar(&withSamples, "samples", false, "include every PnL sample in JSON output")
	return cmd
}
