// Package publish writes a computed run to PostgreSQL: one header row in
// margin.runs and one row per product in margin.product_results.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/gyeh/rxmargin/internal/db"
	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/pipeline"
	embedsql "github.com/gyeh/rxmargin/internal/sql"
)

const copyBuffer = 1024

// ErrAlreadyPublished is returned when the run id already exists.
var ErrAlreadyPublished = errors.New("run already published")

// Result holds metrics from one publication.
type Result struct {
	RowsCopied int64
	Duration   time.Duration
}

// Columns lists margin.product_results columns in COPY order.
func Columns() []string {
	return []string{
		"run_id", "code", "name", "category",
		"p1_gross", "p1_margin", "p2_margin", "p3_margin",
		"pathway", "status", "recommended_margin", "delta", "delta_pct",
		"dosing_profile", "year1_revenue", "steady_revenue",
		"regulatory_flagged", "regulatory_entry", "regulatory_year",
		"floor_flagged", "discount_pct", "error_kind",
	}
}

// Publish stores run inside a single transaction. Either the header and all
// product rows are visible or none are.
func Publish(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, run *pipeline.Run) (*Result, error) {
	start := time.Now()

	params, err := json.Marshal(run.Params.Fields())
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	s := run.Summary
	var inserted pgtype.UUID
	err = tx.QueryRow(ctx, embedsql.InsertRun,
		run.ID, run.DatasetVersion, run.ParamsFingerprint, string(params),
		s.Products, s.ProductsWithErrors, s.BillingEligible,
		s.RegulatoryFlagged, s.FloorFlagged, s.DosingApplicable, run.StartedAt,
	).Scan(&inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyPublished, run.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	copyCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan *model.ProductResult, copyBuffer)
	errCh := make(chan error, 1)
	go func() {
		defer close(ch)
		for i := range run.Results {
			select {
			case ch <- &run.Results[i]:
			case <-copyCtx.Done():
				errCh <- copyCtx.Err()
				return
			}
		}
		errCh <- nil
	}()

	source := db.NewChannelSource(ch, func(r *model.ProductResult) []any {
		return Values(run, r)
	})
	copied, copyErr := tx.CopyFrom(copyCtx,
		pgx.Identifier{"margin", "product_results"},
		Columns(),
		source,
	)
	// Unblock the producer if COPY stopped early.
	cancel()
	prodErr := <-errCh
	if copyErr != nil {
		return nil, fmt.Errorf("copy results: %w", copyErr)
	}
	if prodErr != nil {
		return nil, fmt.Errorf("copy producer: %w", prodErr)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	dur := time.Since(start)
	log.Info().
		Str("run_id", run.ID.String()).
		Int64("rows", copied).
		Str("duration", dur.String()).
		Msg("run published")

	return &Result{RowsCopied: copied, Duration: dur}, nil
}

// Delete removes a published run and its product rows.
func Delete(ctx context.Context, pool *pgxpool.Pool, run *pipeline.Run) error {
	_, err := pool.Exec(ctx, embedsql.DeleteRun, run.ID)
	return err
}

// Published describes an existing run for a dataset and parameter set.
type Published struct {
	RunID       uuid.UUID
	Products    int
	PublishedAt time.Time
}

// Latest returns the most recent run published for the same dataset version
// and parameter fingerprint, or nil when there is none.
func Latest(ctx context.Context, pool *pgxpool.Pool, datasetVersion, fingerprint string) (*Published, error) {
	var p Published
	err := pool.QueryRow(ctx, embedsql.LatestRun, datasetVersion, fingerprint).
		Scan(&p.RunID, &p.Products, &p.PublishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &p, nil
}

// Values flattens one product result in Columns order. Amounts are written
// unrounded.
func Values(run *pipeline.Run, r *model.ProductResult) []any {
	rec := r.Recommendation
	var profile *string
	var year1, steady pgtype.Numeric
	if r.Dosing.Applicable {
		profile = &r.Dosing.Profile
		year1 = numeric(r.Dosing.Year1Revenue)
		steady = numeric(r.Dosing.SteadyRevenue)
	}
	reg := r.Risk.Regulatory
	var entry *string
	var year *int32
	if reg.Flagged {
		entry = &reg.Entry
		y := int32(reg.Year)
		year = &y
	}
	var errKind *string
	if r.Error != nil {
		errKind = &r.Error.Kind
	}
	return []any{
		run.ID, r.Code, r.Name, r.Category,
		nullNumeric(r.Margins.P1Gross), nullNumeric(r.Margins.P1),
		nullNumeric(r.Margins.P2), nullNumeric(r.Margins.P3),
		string(rec.Pathway), string(rec.Status), nullNumeric(rec.Margin),
		numeric(rec.Delta), nullNumeric(rec.DeltaPct),
		profile, year1, steady,
		reg.Flagged, entry, year,
		r.Risk.Floor.Flagged, nullNumeric(r.Risk.Floor.DiscountPct), errKind,
	}
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func nullNumeric(d decimal.NullDecimal) pgtype.Numeric {
	if !d.Valid {
		return pgtype.Numeric{}
	}
	return numeric(d.Decimal)
}
