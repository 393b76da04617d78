package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/rxmargin/internal/db"
	"github.com/gyeh/rxmargin/internal/exitcode"
)

var migrateList bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the margin schema used by publish",
	RunE:  runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateList, "list", false, "List embedded migrations without connecting")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := setup()

	if migrateList {
		names, err := db.MigrationNames()
		if err != nil {
			log.Error().Err(err).Msg("cannot read embedded migrations")
			os.Exit(exitcode.UsageError)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}

	if err := cfg.RequireDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	// DDL may wait on locks held by a concurrent publish; allow it longer.
	opts := db.DefaultPoolOptions()
	opts.LockTimeout = 0
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DSN, opts)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	applied, err := db.ApplyMigrations(ctx, pool, log)
	if err != nil {
		log.Error().Err(err).Strs("applied", applied).Msg("migration failed")
		os.Exit(exitcode.DBConnError)
	}
	if len(applied) == 0 {
		fmt.Println("Schema up to date")
		return nil
	}
	fmt.Printf("Applied %d migration(s): %v\n", len(applied), applied)
	return nil
}
