package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/bcdannyboy/dhedge/hedging"
	"github.com/bcdannyboy/dhedge/models"
	"github.com/bcdannyboy/dhedge/pricing"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// ContractConfig holds the default option contract.
type ContractConfig struct {
	Spot         float64 `yaml:"spot"`
	Strike       float64 `yaml:"strike"`
	MaturityDays float64 `yaml:"maturity_days"`
	RiskFreeRate float64 `yaml:"risk_free_rate"`
	Volatility   float64 `yaml:"volatility"` // pricing/hedging volatility
	Kind         string  `yaml:"kind"`
}

type MonteCarloConfig struct {
	MarketVolatility float64 `yaml:"market_volatility"`
	Steps            int     `yaml:"steps"`
	Simulations      int     `yaml:"simulations"`
	Workers          int     `yaml:"workers"` // 0 = one per logical CPU
	Seed             uint64  `yaml:"seed"`    // 0 = seed from the clock
	ExcludePremium   bool    `yaml:"exclude_premium"`
}

type SolverConfig struct {
	Tolerance     float64 `yaml:"tolerance"`
	Lower         float64 `yaml:"lower"`
	Upper         float64 `yaml:"upper"`
	MaxIterations int     `yaml:"max_iterations"`
}

type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
}

type SlackConfig struct {
	AppToken string `yaml:"app_token"`
	BotToken string `yaml:"bot_token"`
	Debug    bool   `yaml:"debug"`
}

type Config struct {
	Contract   ContractConfig   `yaml:"contract"`
	MonteCarlo MonteCarloConfig `yaml:"monte_carlo"`
	Solver     SolverConfig     `yaml:"solver"`
	Logging    LoggingConfig    `yaml:"logging"`
	Slack      SlackConfig      `yaml:"slack"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() *Config {
	return &Config{
		Contract: ContractConfig{
			Spot:         100,
			Strike:       100,
			MaturityDays: 30,
			RiskFreeRate: 0.01,
			Volatility:   0.2,
			Kind:         "call",
		},
		MonteCarlo: MonteCarloConfig{
			MarketVolatility: 0.2,
			Steps:            30,
			Simulations:      1000,
		},
		Solver: SolverConfig{
			Tolerance:     pricing.DefaultSolver.Tolerance,
			Lower:         pricing.DefaultSolver.Lower,
			Upper:         pricing.DefaultSolver.Upper,
			MaxIterations: pricing.DefaultSolver.MaxIterations,
		},
		Logging: LoggingConfig{LogLevel: "info"},
	}
}

// Load builds the configuration from defaults, a .env file in the working
// directory, the YAML file at path (skipped when path is empty) and finally
// the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Contract.Spot = getEnvFloat("DHEDGE_SPOT", c.Contract.Spot)
	c.Contract.Strike = getEnvFloat("DHEDGE_STRIKE", c.Contract.Strike)
	c.Contract.MaturityDays = getEnvFloat("DHEDGE_MATURITY_DAYS", c.Contract.MaturityDays)
	c.Contract.RiskFreeRate = getEnvFloat("DHEDGE_RISK_FREE_RATE", c.Contract.RiskFreeRate)
	c.Contract.Volatility = getEnvFloat("DHEDGE_VOLATILITY", c.Contract.Volatility)
	c.Contract.Kind = getEnv("DHEDGE_KIND", c.Contract.Kind)

	c.MonteCarlo.MarketVolatility = getEnvFloat("DHEDGE_MARKET_VOLATILITY", c.MonteCarlo.MarketVolatility)
	c.MonteCarlo.Steps = getEnvInt("DHEDGE_STEPS", c.MonteCarlo.Steps)
	c.MonteCarlo.Simulations = getEnvInt("DHEDGE_SIMULATIONS", c.MonteCarlo.Simulations)
	c.MonteCarlo.Workers = getEnvInt("DHEDGE_WORKERS", c.MonteCarlo.Workers)
	c.MonteCarlo.Seed = getEnvUint("DHEDGE_SEED", c.MonteCarlo.Seed)
	c.MonteCarlo.ExcludePremium = getEnvBool("DHEDGE_EXCLUDE_PREMIUM", c.MonteCarlo.ExcludePremium)

	c.Solver.Tolerance = getEnvFloat("DHEDGE_SOLVER_TOLERANCE", c.Solver.Tolerance)

	c.Logging.LogLevel = getEnv("LOG_LEVEL", c.Logging.LogLevel)

	c.Slack.AppToken = getEnv("SLACK_APP_TOKEN", c.Slack.AppToken)
	c.Slack.BotToken = getEnv("SLACK_BOT_TOKEN", c.Slack.BotToken)
}

// OptionContract returns the configured default contract.
func (c *Config) OptionContract() (models.OptionContract, error) {
	kind, err := models.ParseOptionKind(c.Contract.Kind)
	if err != nil {
		return models.OptionContract{}, err
	}
	contract := models.OptionContract{
		Spot:         c.Contract.Spot,
		Strike:       c.Contract.Strike,
		Maturity:     models.YearsFromDays(c.Contract.MaturityDays),
		RiskFreeRate: c.Contract.RiskFreeRate,
		Volatility:   c.Contract.Volatility,
		Kind:         kind,
	}
	return contract, contract.Validate()
}

func (c *Config) ImpliedVolSolver() pricing.Solver {
	return pricing.Solver{
		Lower:         c.Solver.Lower,
		Upper:         c.Solver.Upper,
		Tolerance:     c.Solver.Tolerance,
		MaxIterations: c.Solver.MaxIterations,
	}
}

// MonteCarloParams combines contract with the monte_carlo section.
func (c *Config) MonteCarloParams(contract models.OptionContract) hedging.MonteCarloParams {
	return hedging.MonteCarloParams{
		Contract:         contract,
		MarketVolatility: c.MonteCarlo.MarketVolatility,
		Steps:            c.MonteCarlo.Steps,
		Simulations:      c.MonteCarlo.Simulations,
		Workers:          c.MonteCarlo.Workers,
		Seed:             c.MonteCarlo.Seed,
		ExcludePremium:   c.MonteCarlo.ExcludePremium,
	}
}

// Validate checks that the configured defaults can be used as-is.
func (c *Config) Validate() error {
	if _, err := c.OptionContract(); err != nil {
		return fmt.Errorf("contract: %w", err)
	}
	mc := c.MonteCarlo
	if mc.Steps < 1 || mc.Simulations < 1 {
		return fmt.Errorf("monte_carlo: steps=%d simulations=%d must be at least 1: %w", mc.Steps, mc.Simulations, models.ErrDomain)
	}
	if mc.MarketVolatility < 0 {
		return fmt.Errorf("monte_carlo: market volatility %v: %w", mc.MarketVolatility, models.ErrDomain)
	}
	if mc.Workers < 0 {
		return fmt.Errorf("monte_carlo: workers %d: %w", mc.Workers, models.ErrInvalidArgument)
	}
	s := c.Solver
	if !(s.Tolerance > 0) || !(s.Lower > 0) || !(s.Upper > s.Lower) {
		return fmt.Errorf("solver: tolerance=%v bracket=(%v, %v): %w", s.Tolerance, s.Lower, s.Upper, models.ErrInvalidArgument)
	}
	return nil
}

// ConfigureLogging sets the logrus level, falling back to info.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.Logging.LogLevel)
	if err != nil {
		log.WithError(err).Warn("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
		log.WithField("key", key).Warnf("ignoring non-numeric value %q", value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.WithField("key", key).Warnf("ignoring non-integer value %q", value)
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
		log.WithField("key", key).Warnf("ignoring non-integer value %q", value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
