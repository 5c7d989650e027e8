package hedgeslack

import (
	"context"

	"github.com/slack-go/slack"
)

const (
	priceUsage = "/price <call|put> <spot> <strike> <days> <rate> <vol>"
	ivUsage    = "/iv <call|put> <price> <spot> <strike> <days> <rate>"
	hedgeUsage = "/hedge <call|put> <spot> <strike> <days> <rate> <vol> <marketVol> <steps> <sims>"
)

type HelpHandler struct{}

func NewHelpHandler() *HelpHandler {
	return &HelpHandler{}
}

func (h *HelpHandler) HandleCommand(_ context.Context, cmd slack.SlashCommand, client Poster) error {
	helpText := "Available commands:\n" +
		"/help - Show this help message\n" +
		priceUsage + " - Black-Scholes price and Greeks\n" +
		ivUsage + " - Implied volatility of a market price\n" +
		hedgeUsage + " - Monte Carlo PnL of delta hedging a short option"

	return postText(client, cmd.ChannelID, helpText)
}
