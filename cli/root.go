package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/bcdannyboy/dhedge/config"
	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/report"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	logLevel   string
	jsonOutput bool
	cfg        *config.Config
}

// NewRootCommand builds the dhedge command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "dhedge",
		Short:         "Black-Scholes pricing, implied volatility and delta hedging simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Logging.LogLevel = a.logLevel
			}
			cfg.ConfigureLogging()
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides config)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print JSON instead of tables")

	root.AddCommand(
		a.priceCmd(),
		a.ivCmd(),
		a.calibrateCmd(),
		a.hedgeCmd(),
		a.monteCarloCmd(),
		a.slackCmd(),
	)
	return root
}

// Execute runs the CLI until completion or interrupt.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		log.Error(err)
		stop()
		os.Exit(1)
	}
}

func (a *app) print(cmd *cobra.Command, v interface{}, table func()) error {
	if a.jsonOutput {
		return report.JSON(cmd.OutOrStdout(), v)
	}
	table()
	return nil
}

// addContractFlags registers the contract flags; unset flags fall back to config.
func addContractFlags(cmd *cobra.Command, withVol bool) {
	cmd.Flags().String("kind", "", "call or put")
	cmd.Flags().Float64("spot", 0, "spot price")
	cmd.Flags().Float64("strike", 0, "strike price")
	cmd.Flags().Float64("days", 0, "calendar days to expiry")
	cmd.Flags().Float64("rate", 0, "annual risk-free rate")
	if withVol {
		cmd.Flags().Float64("vol", 0, "pricing volatility")
	}
}

func (a *app) contractFromFlags(cmd *cobra.Command) (models.OptionContract, error) {
	cc := a.cfg.Contract
	flags := cmd.Flags()
	var err error
	if flags.Changed("kind") {
		if cc.Kind, err = flags.GetString("kind"); err != nil {
			return models.OptionContract{}, err
		}
	}
	for name, dst := range map[string]*float64{
		"spot":   &cc.Spot,
		"strike": &cc.Strike,
		"days":   &cc.MaturityDays,
		"rate":   &cc.RiskFreeRate,
		"vol":    &cc.Volatility,
	} {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		if *dst, err = flags.GetFloat64(name); err != nil {
			return models.OptionContract{}, err
		}
	}

	kind, err := models.ParseOptionKind(cc.Kind)
	if err != nil {
		return models.OptionContract{}, err
	}
	return models.OptionContract{
		Spot:         cc.Spot,
		Strike:       cc.Strike,
		Maturity:     models.YearsFromDays(cc.MaturityDays),
		RiskFreeRate: cc.RiskFreeRate,
		Volatility:   cc.Volatility,
		Kind:         kind,
	}, nil
}
