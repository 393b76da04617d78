package db

import (
	"context"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/rxmargin/internal/sql"
)

const migrationsTable = `CREATE TABLE IF NOT EXISTS public.rxmargin_migrations (
    name       text PRIMARY KEY,
    applied_at timestamptz NOT NULL DEFAULT now()
)`

// MigrationNames lists the embedded migrations in apply order.
func MigrationNames() ([]string, error) {
	entries, err := fs.ReadDir(embedsql.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ApplyMigrations runs embedded migrations not yet recorded in
// public.rxmargin_migrations, each in its own transaction together with its
// record, and returns the names it applied.
func ApplyMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) ([]string, error) {
	names, err := MigrationNames()
	if err != nil {
		return nil, err
	}
	if _, err := pool.Exec(ctx, migrationsTable); err != nil {
		return nil, fmt.Errorf("create migrations table: %w", err)
	}

	done := make(map[string]bool)
	rows, err := pool.Query(ctx, "SELECT name FROM public.rxmargin_migrations")
	if err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			rows.Close()
			return nil, err
		}
		done[n] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applied migrations: %w", err)
	}

	var applied []string
	for _, name := range names {
		if done[name] {
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		}
		data, err := fs.ReadFile(embedsql.Migrations, "migrations/"+name)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyOne(ctx, pool, name, string(data)); err != nil {
			return applied, err
		}
		log.Info().Str("migration", name).Msg("migration applied")
		applied = append(applied, name)
	}
	return applied, nil
}

func applyOne(ctx context.Context, pool *pgxpool.Pool, name, ddl string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("execute migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO public.rxmargin_migrations (name) VALUES ($1)", name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit(ctx)
}
