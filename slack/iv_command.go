package hedgeslack

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/pricing"
	"github.com/bcdannyboy/dhedge/report"
	"github.com/slack-go/slack"
)

type IVHandler struct {
	solver pricing.Solver
}

func NewIVHandler() *IVHandler {
	return &IVHandler{solver: pricing.DefaultSolver}
}

func (h *IVHandler) HandleCommand(_ context.Context, cmd slack.SlashCommand, client Poster) error {
	price, contract, err := ParseIVArgs(cmd.Text)
	if err != nil {
		return postText(client, cmd.ChannelID, usageError(err, ivUsage))
	}
	return postText(client, cmd.ChannelID, FormatImpliedVol(h.solver, price, contract))
}

// ParseIVArgs reads "<kind> <price> <spot> <strike> <days> <rate>". The
// returned contract has no volatility.
func ParseIVArgs(text string) (float64, models.OptionContract, error) {
	args := strings.Fields(text)
	if len(args) != 6 {
		return 0, models.OptionContract{}, fmt.Errorf("expected 6 arguments, got %d: %w", len(args), models.ErrInvalidArgument)
	}
	kind, err := models.ParseOptionKind(args[0])
	if err != nil {
		return 0, models.OptionContract{}, err
	}
	v, err := parseFloats(args[1:], "price", "spot", "strike", "days", "rate")
	if err != nil {
		return 0, models.OptionContract{}, err
	}
	return v[0], models.OptionContract{
		Spot:         v[1],
		Strike:       v[2],
		Maturity:     models.YearsFromDays(v[3]),
		RiskFreeRate: v[4],
		Kind:         kind,
	}, nil
}

// FormatImpliedVol solves for the implied volatility and renders the outcome,
// including the reason when no volatility matches.
func FormatImpliedVol(solver pricing.Solver, price float64, contract models.OptionContract) string {
	vol, err := solver.Solve(price, contract)
	switch {
	case errors.Is(err, models.ErrNotFound):
		return fmt.Sprintf("No volatility between %v and %v reproduces %v for this %s.", solver.Lower, solver.Upper, price, contract.Kind)
	case err != nil:
		return fmt.Sprintf("Could not solve implied volatility: %v", err)
	}
	contract.Volatility = vol
	var b strings.Builder
	report.ImpliedVol{Contract: contract, MarketPrice: price, Volatility: vol}.Write(&b)
	return codeBlock(b.String())
}
