package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/gyeh/rxmargin/internal/cache"
	"github.com/gyeh/rxmargin/internal/config"
	"github.com/gyeh/rxmargin/internal/exitcode"
	"github.com/gyeh/rxmargin/internal/logging"
	"github.com/gyeh/rxmargin/internal/pipeline"
	"github.com/gyeh/rxmargin/internal/reconcile"
	"github.com/gyeh/rxmargin/internal/tables"
)

var (
	cfg            = config.New()
	configFile     string
	captureRate    string
	complianceRate string
)

var rootCmd = &cobra.Command{
	Use:           "rxmargin",
	Short:         "Reimbursement pathway margin reconciliation",
	Long:          "Reconciles product catalog, billing crosswalk, benchmark and reference files, then ranks products by the margin of their best reimbursement pathway.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", "", "Postgres connection string (or set RXMARGIN_DB_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.StringVar(&configFile, "config", "", "YAML parameter file")
	pf.StringVar(&cfg.DataDir, "data-dir", "", "Directory containing <source>.<parquet|csv|xlsx> files")
	pf.StringToStringVar(&cfg.Inputs, "input", nil, "Explicit source file, e.g. --input catalog=prices.xlsx (repeatable)")
	pf.IntVar(&cfg.Workers, "workers", 0, "Compute workers (0 = GOMAXPROCS)")
	pf.StringVar(&captureRate, "capture-rate", "", "Override the list-price capture rate, 0..1")
	pf.StringVar(&complianceRate, "compliance-rate", "", "Override the dosing compliance rate, 0..1")
}

// setup builds the logger and resolves parameters. Precedence is defaults,
// then the YAML file, then flags.
func setup() zerolog.Logger {
	log := logging.Setup(cfg.LogFormat, cfg.LogLevel)

	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("RXMARGIN_DB_URL")
	}
	if cfg.Inputs == nil {
		cfg.Inputs = map[string]string{}
	}
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			log.Error().Err(err).Str("file", configFile).Msg("config file rejected")
			os.Exit(exitcode.UsageError)
		}
	}
	if err := applyOverrides(); err != nil {
		log.Error().Err(err).Msg("invalid parameter flag")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateParams(); err != nil {
		log.Error().Err(err).Msg("parameter validation failed")
		os.Exit(exitcode.UsageError)
	}
	return log
}

func applyOverrides() error {
	if captureRate != "" {
		d, err := decimal.NewFromString(captureRate)
		if err != nil {
			return fmt.Errorf("--capture-rate: %w", err)
		}
		cfg.Params.Margin = cfg.Params.Margin.WithCaptureRate(d)
	}
	if complianceRate != "" {
		d, err := decimal.NewFromString(complianceRate)
		if err != nil {
			return fmt.Errorf("--compliance-rate: %w", err)
		}
		cfg.Params.Dosing.ComplianceRate = d
	}
	return nil
}

// loadEngine reads every configured input and reconciles it. An unreadable
// secondary file only makes the run partial; an unusable catalog exits with
// ValidationError.
func loadEngine(log zerolog.Logger) (*pipeline.Engine, *reconcile.Report) {
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	paths, err := cfg.InputPaths()
	if err != nil {
		log.Error().Err(err).Msg("input discovery failed")
		os.Exit(exitcode.UsageError)
	}
	loaded, err := tables.Load(paths)
	if err != nil {
		log.Error().Err(err).Msg("failed to read inputs")
		os.Exit(exitcode.UsageError)
	}
	for name, t := range loaded {
		if t.Err != nil {
			log.Warn().Err(t.Err).Str("source", name).Str("file", t.Origin).Msg("input unreadable")
		}
	}

	e := pipeline.NewEngine(log, cfg.Reconcile, cache.New[*pipeline.Run](0))
	report, err := e.Load(loaded)
	if err != nil {
		log.Error().Err(err).Msg("reconciliation failed")
		os.Exit(exitcode.ValidationError)
	}
	return e, report
}
