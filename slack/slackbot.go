package hedgeslack

import (
	"context"
	stdlog "log"

	log "github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

type SlackBot struct {
	client       *slack.Client
	socketClient *socketmode.Client
	eventHandler *Handler
}

func NewSlackBot(appToken, botToken string, debug bool, hedgeDefaults HedgeDefaults) *SlackBot {
	client := slack.New(
		botToken,
		slack.OptionAppLevelToken(appToken),
	)

	socketClient := socketmode.New(
		client,
		socketmode.OptionDebug(debug),
		socketmode.OptionLog(stdlog.New(log.StandardLogger().Writer(), "socketmode: ", stdlog.Lshortfile)),
	)

	return &SlackBot{
		client:       client,
		socketClient: socketClient,
		eventHandler: NewHandler(hedgeDefaults),
	}
}

// Start serves slash commands until ctx is cancelled or the connection fails.
func (sb *SlackBot) Start(ctx context.Context) error {
	go func() {
		for evt := range sb.socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				log.Info("connecting to slack")
			case socketmode.EventTypeConnected:
				log.Info("connected to slack")
			case socketmode.EventTypeConnectionError:
				log.Warn("slack connection error, retrying")
			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					log.Warnf("ignoring slash command event with payload %T", evt.Data)
					continue
				}
				sb.socketClient.Ack(*evt.Request)
				if err := sb.eventHandler.Handle(ctx, cmd, sb.socketClient); err != nil {
					log.WithError(err).WithField("command", cmd.Command).Error("slash command failed")
				}
			}
		}
	}()

	return sb.socketClient.RunContext(ctx)
}
