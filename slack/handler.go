package hedgeslack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Poster is the part of the Slack client the command handlers use.
type Poster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (string, string, error)
}

type CommandHandler interface {
	HandleCommand(ctx context.Context, cmd slack.SlashCommand, client Poster) error
}

type Handler struct {
	handlers map[string]CommandHandler
}

func NewHandler(hedgeDefaults HedgeDefaults) *Handler {
	return &Handler{
		handlers: map[string]CommandHandler{
			"/help":  NewHelpHandler(),
			"/price": NewPriceHandler(),
			"/iv":    NewIVHandler(),
			"/hedge": NewHedgeHandler(hedgeDefaults),
		},
	}
}

func (h *Handler) Handle(ctx context.Context, cmd slack.SlashCommand, client Poster) error {
	handler, ok := h.handlers[cmd.Command]
	if !ok {
		return fmt.Errorf("unknown command %q", cmd.Command)
	}
	return handler.HandleCommand(ctx, cmd, client)
}

func postText(client Poster, channelID, text string, options ...slack.MsgOption) error {
	options = append([]slack.MsgOption{slack.MsgOptionText(text, false)}, options...)
	_, _, err := client.PostMessage(channelID, options...)
	return err
}

func codeBlock(s string) string {
	return "```\n" + s + "```"
}
