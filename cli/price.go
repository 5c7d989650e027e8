package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/pricing"
	"github.com/bcdannyboy/dhedge/report"
	"github.com/spf13/cobra"
)

func (a *app) priceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European option and compute its Greeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := a.contractFromFlags(cmd)
			if err != nil {
				return err
			}
			p, g, err := pricing.Analyze(contract)
			if err != nil {
				return err
			}
			rep := report.Pricing{Contract: contract, Result: p, Greeks: g}
			return a.print(cmd, rep, func() { rep.Write(cmd.OutOrStdout()) })
		},
	}
	addContractFlags(cmd, true)
	return cmd
}

func (a *app) ivCmd() *cobra.Command {
	var marketPrice float64
	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve for the implied volatility of a market price",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := a.contractFromFlags(cmd)
			if err != nil {
				return err
			}
			solver := a.cfg.ImpliedVolSolver()
			vol, err := solver.Solve(marketPrice, contract)
			if err != nil {
				return err
			}
			contract.Volatility = vol
			rep := report.ImpliedVol{Contract: contract, MarketPrice: marketPrice, Volatility: vol}
			return a.print(cmd, rep, func() { rep.Write(cmd.OutOrStdout()) })
		},
	}
	addContractFlags(cmd, false)
	cmd.Flags().Float64Var(&marketPrice, "price", 0, "observed option price")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

type calibration struct {
	Spot       float64         `json:"spot"`
	Maturity   float64         `json:"maturity"`
	Rate       float64         `json:"risk_free_rate"`
	Quotes     []pricing.Quote `json:"quotes"`
	Volatility float64         `json:"volatility"`
}

func (a *app) calibrateCmd() *cobra.Command {
	var rawQuotes []string
	cmd := &cobra.Command{
		Use:     "calibrate",
		Short:   "Fit one flat volatility to several option quotes",
		Example: "  dhedge calibrate --spot 100 --days 90 --quote call:95:7.9 --quote put:105:7.1",
		RunE: func(cmd *cobra.Command, args []string) error {
			contract, err := a.contractFromFlags(cmd)
			if err != nil {
				return err
			}
			quotes, err := parseQuotes(rawQuotes)
			if err != nil {
				return err
			}
			vol, err := pricing.FitVolatility(quotes, contract.Spot, contract.Maturity, contract.RiskFreeRate)
			if err != nil {
				return err
			}
			rep := calibration{Spot: contract.Spot, Maturity: contract.Maturity, Rate: contract.RiskFreeRate, Quotes: quotes, Volatility: vol}
			return a.print(cmd, rep, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "fitted volatility: %.6f (%d quotes)\n", vol, len(quotes))
			})
		},
	}
	addContractFlags(cmd, false)
	cmd.Flags().StringArrayVar(&rawQuotes, "quote", nil, "quote as kind:strike:price (repeatable)")
	_ = cmd.MarkFlagRequired("quote")
	return cmd
}

func parseQuotes(raw []string) ([]pricing.Quote, error) {
	quotes := make([]pricing.Quote, 0, len(raw))
	for _, r := range raw {
		parts := strings.Split(r, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("quote %q: want kind:strike:price: %w", r, models.ErrInvalidArgument)
		}
		kind, err := models.ParseOptionKind(parts[0])
		if err != nil {
			return nil, err
		}
		strike, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("quote %q strike: %w", r, models.ErrInvalidArgument)
		}
		price, err := strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return nil, fmt.Errorf("quote %q price: %w", r, models.ErrInvalidArgument)
		}
		quotes = append(quotes, pricing.Quote{Strike: strike, Price: price, Kind: kind})
	}
	return quotes, nil
}
