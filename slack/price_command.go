package hedgeslack

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/pricing"
	"github.com/bcdannyboy/dhedge/report"
	"github.com/slack-go/slack"
)

type PriceHandler struct{}

func NewPriceHandler() *PriceHandler {
	return &PriceHandler{}
}

func (h *PriceHandler) HandleCommand(_ context.Context, cmd slack.SlashCommand, client Poster) error {
	contract, err := ParsePriceArgs(cmd.Text)
	if err != nil {
		return postText(client, cmd.ChannelID, usageError(err, priceUsage))
	}
	text, err := FormatPrice(contract)
	if err != nil {
		return postText(client, cmd.ChannelID, fmt.Sprintf("Could not price option: %v", err))
	}
	return postText(client, cmd.ChannelID, text)
}

// ParsePriceArgs reads "<kind> <spot> <strike> <days> <rate> <vol>".
func ParsePriceArgs(text string) (models.OptionContract, error) {
	args := strings.Fields(text)
	if len(args) != 6 {
		return models.OptionContract{}, fmt.Errorf("expected 6 arguments, got %d: %w", len(args), models.ErrInvalidArgument)
	}
	kind, err := models.ParseOptionKind(args[0])
	if err != nil {
		return models.OptionContract{}, err
	}
	v, err := parseFloats(args[1:], "spot", "strike", "days", "rate", "vol")
	if err != nil {
		return models.OptionContract{}, err
	}
	return models.OptionContract{
		Spot:         v[0],
		Strike:       v[1],
		Maturity:     models.YearsFromDays(v[2]),
		RiskFreeRate: v[3],
		Volatility:   v[4],
		Kind:         kind,
	}, nil
}

// FormatPrice prices contract and renders the result as a code block.
func FormatPrice(contract models.OptionContract) (string, error) {
	p, g, err := pricing.Analyze(contract)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	report.Pricing{Contract: contract, Result: p, Greeks: g}.Write(&b)
	return codeBlock(b.String()), nil
}

func parseFloats(args []string, names ...string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("%s %q is not a number: %w", names[i], a, models.ErrInvalidArgument)
		}
		out[i] = v
	}
	return out, nil
}

func usageError(err error, usage string) string {
	return fmt.Sprintf("%v\nUsage: %s", err, usage)
}
