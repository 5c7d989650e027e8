package hedgeslack

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/bcdannyboy/dhedge/hedging"
	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/report"
	log "github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
)

// HedgeDefaults bounds and seeds the Monte Carlo runs requested from Slack.
type HedgeDefaults struct {
	Workers        int
	Seed           uint64
	MaxSimulations int
	Confidence     float64
}

var DefaultHedgeDefaults = HedgeDefaults{MaxSimulations: 50000, Confidence: 0.95}

type HedgeHandler struct {
	defaults HedgeDefaults
}

func NewHedgeHandler(defaults HedgeDefaults) *HedgeHandler {
	if defaults.MaxSimulations <= 0 {
		defaults.MaxSimulations = DefaultHedgeDefaults.MaxSimulations
	}
	if !(defaults.Confidence > 0 && defaults.Confidence < 1) {
		defaults.Confidence = DefaultHedgeDefaults.Confidence
	}
	return &HedgeHandler{defaults: defaults}
}

func (h *HedgeHandler) HandleCommand(ctx context.Context, cmd slack.SlashCommand, client Poster) error {
	params, err := h.ParseHedgeArgs(cmd.Text)
	if err != nil {
		return postText(client, cmd.ChannelID, usageError(err, hedgeUsage))
	}

	_, ts, err := client.PostMessage(cmd.ChannelID,
		slack.MsgOptionText(fmt.Sprintf("Hedging %d paths of %d steps...", params.Simulations, params.Steps), false))
	if err != nil {
		return err
	}

	go h.run(ctx, client, cmd.ChannelID, ts, params)
	return nil
}

// ParseHedgeArgs reads "<kind> <spot> <strike> <days> <rate> <vol> <marketVol> <steps> <sims>".
func (h *HedgeHandler) ParseHedgeArgs(text string) (hedging.MonteCarloParams, error) {
	args := strings.Fields(text)
	if len(args) != 9 {
		return hedging.MonteCarloParams{}, fmt.Errorf("expected 9 arguments, got %d: %w", len(args), models.ErrInvalidArgument)
	}
	contract, err := ParsePriceArgs(strings.Join(args[:6], " "))
	if err != nil {
		return hedging.MonteCarloParams{}, err
	}
	marketVol, err := strconv.ParseFloat(args[6], 64)
	if err != nil {
		return hedging.MonteCarloParams{}, fmt.Errorf("marketVol %q is not a number: %w", args[6], models.ErrInvalidArgument)
	}
	steps, err := strconv.Atoi(args[7])
	if err != nil {
		return hedging.MonteCarloParams{}, fmt.Errorf("steps %q is not an integer: %w", args[7], models.ErrInvalidArgument)
	}
	sims, err := strconv.Atoi(args[8])
	if err != nil {
		return hedging.MonteCarloParams{}, fmt.Errorf("sims %q is not an integer: %w", args[8], models.ErrInvalidArgument)
	}
	if sims > h.defaults.MaxSimulations {
		return hedging.MonteCarloParams{}, fmt.Errorf("sims %d above the limit of %d: %w", sims, h.defaults.MaxSimulations, models.ErrInvalidArgument)
	}

	return hedging.MonteCarloParams{
		Contract:         contract,
		MarketVolatility: marketVol,
		Steps:            steps,
		Simulations:      sims,
		Workers:          h.defaults.Workers,
		Seed:             h.defaults.Seed,
	}, nil
}

// run posts quarterly progress and the final summary in the thread of ts.
func (h *HedgeHandler) run(ctx context.Context, client Poster, channelID, ts string, params hedging.MonteCarloParams) {
	thread := slack.MsgOptionTS(ts)
	quarters := make(chan int, 4)
	var reported int32

	progress := func(done int) {
		q := int32(done * 4 / params.Simulations)
		for {
			prev := atomic.LoadInt32(&reported)
			if q <= prev || q >= 4 {
				return
			}
			if atomic.CompareAndSwapInt32(&reported, prev, q) {
				quarters <- int(q) * 25
				return
			}
		}
	}

	finished := make(chan string, 1)
	go func() {
		finished <- h.Summarize(ctx, params, progress)
	}()

	for {
		select {
		case pct := <-quarters:
			if err := postText(client, channelID, fmt.Sprintf("Hedging %d%% complete...", pct), thread); err != nil {
				log.WithError(err).Warn("posting hedge progress")
			}
		case text := <-finished:
			if err := postText(client, channelID, text, thread); err != nil {
				log.WithError(err).Error("posting hedge result")
			}
			return
		}
	}
}

// Summarize runs the simulation and renders its summary or the failure.
func (h *HedgeHandler) Summarize(ctx context.Context, params hedging.MonteCarloParams, progress hedging.ProgressFunc) string {
	dist, err := hedging.SimulateMonteCarlo(ctx, params, progress)
	if err != nil {
		return fmt.Sprintf("Hedge simulation failed: %v", err)
	}
	m, err := report.NewMonteCarlo(params, dist, h.defaults.Confidence)
	if err != nil {
		return fmt.Sprintf("Hedge summary failed: %v", err)
	}
	var b strings.Builder
	m.Write(&b)
	return codeBlock(b.String())
}
