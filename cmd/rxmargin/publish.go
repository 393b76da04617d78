package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/rxmargin/internal/db"
	"github.com/gyeh/rxmargin/internal/exitcode"
	"github.com/gyeh/rxmargin/internal/publish"
)

var force bool

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Compute margins and store the run in Postgres",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().BoolVar(&force, "force", false, "Publish even if this dataset and parameter set was already published")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	log := setup()
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	e, report := loadEngine(log)
	run, err := e.Compute(ctx, cfg.Params)
	if err != nil {
		log.Error().Err(err).Msg("compute failed")
		os.Exit(exitcode.ComputeError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN, db.DefaultPoolOptions())
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if !force {
		prev, err := publish.Latest(ctx, pool, run.DatasetVersion, run.ParamsFingerprint)
		if err != nil {
			log.Error().Err(err).Msg("lookup of previous runs failed")
			os.Exit(exitcode.DBConnError)
		}
		if prev != nil {
			log.Info().
				Str("run_id", prev.RunID.String()).
				Time("published_at", prev.PublishedAt).
				Msg("dataset and parameters already published; use --force to publish again")
			return nil
		}
	}

	res, err := publish.Publish(ctx, pool, log, run)
	if err != nil {
		log.Error().Err(err).Msg("publish failed")
		os.Exit(exitcode.CopyError)
	}

	fmt.Printf("Published run %s: %d product rows (%.1fs)\n",
		run.ID, res.RowsCopied, res.Duration.Seconds())
	if report.Partial() {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
