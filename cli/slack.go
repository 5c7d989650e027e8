package cli

import (
	"fmt"

	"github.com/bcdannyboy/dhedge/models"
	hedgeslack "github.com/bcdannyboy/dhedge/slack"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *app) slackCmd() *cobra.Command {
	var maxSims int
	cmd := &cobra.Command{
		Use:   "slack",
		Short: "Serve /price, /iv and /hedge as Slack slash commands over socket mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := a.cfg.Slack
			if s.AppToken == "" || s.BotToken == "" {
				return fmt.Errorf("SLACK_APP_TOKEN and SLACK_BOT_TOKEN must be set: %w", models.ErrInvalidArgument)
			}
			bot := hedgeslack.NewSlackBot(s.AppToken, s.BotToken, s.Debug, hedgeslack.HedgeDefaults{
				Workers:        a.cfg.MonteCarlo.Workers,
				Seed:           a.cfg.MonteCarlo.Seed,
				MaxSimulations: maxSims,
			})
			log.Info("starting slack bot")
			return bot.Start(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&maxSims, "max-sims", hedgeslack.DefaultHedgeDefaults.MaxSimulations, "largest /hedge simulation count accepted")
	return cmd
}
