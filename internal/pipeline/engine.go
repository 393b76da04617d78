// Package pipeline owns the reconciled dataset and runs batch computations
// over it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gyeh/rxmargin/internal/cache"
	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/reconcile"
	"github.com/gyeh/rxmargin/internal/recommend"
)

var (
	ErrNotLoaded      = errors.New("no dataset loaded")
	ErrUnknownProduct = errors.New("unknown product")
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run is one completed batch computation. Results are index-aligned with the
// dataset's products and must be treated as read-only.
type Run struct {
	ID                uuid.UUID
	DatasetVersion    string
	ParamsFingerprint string
	Params            Params
	Results           []model.ProductResult
	Summary           model.RunSummary
	StartedAt         time.Time
}

// Top returns the ranked top-opportunity view of the run.
func (r *Run) Top(key recommend.RankKey, limit int) recommend.View {
	return recommend.TopOpportunities(r.Results, key, limit)
}

// Result looks up one product's result by canonical code.
func (r *Run) Result(code string) (model.ProductResult, bool) {
	for _, res := range r.Results {
		if res.Code == code {
			return res, true
		}
	}
	return model.ProductResult{}, false
}

// Engine holds the current dataset. Load replaces it wholesale; Compute reads
// it concurrently.
type Engine struct {
	mu     sync.RWMutex
	ds     *reconcile.Dataset
	report *reconcile.Report
	opts   reconcile.Options
	cache  *cache.Cache[*Run]
	log    zerolog.Logger
}

// NewEngine creates an engine. A nil cache disables caching.
func NewEngine(log zerolog.Logger, opts reconcile.Options, c *cache.Cache[*Run]) *Engine {
	return &Engine{log: log, opts: opts, cache: c}
}

// Load reconciles tables and, on success, replaces the dataset and drops
// every cached run. A fatal reconciliation failure leaves the previous
// dataset in place.
func (e *Engine) Load(tables model.Tables) (*reconcile.Report, error) {
	start := time.Now()
	ds, rep, err := reconcile.Reconcile(tables, e.opts, e.log)
	if err != nil {
		return rep, &PipelineError{Phase: "reconcile", Err: err}
	}

	e.mu.Lock()
	e.ds, e.report = ds, rep
	e.mu.Unlock()

	dropped := 0
	if e.cache != nil {
		dropped = e.cache.Invalidate()
	}
	e.log.Info().
		Int("products", ds.Len()).
		Str("dataset_version", ds.Version).
		Int("cache_dropped", dropped).
		Dur("duration", time.Since(start)).
		Msg("dataset loaded")
	return rep, nil
}

// Dataset returns the current dataset, or nil before the first Load.
func (e *Engine) Dataset() *reconcile.Dataset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ds
}

// Report returns the reconciliation report of the current dataset.
func (e *Engine) Report() *reconcile.Report {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.report
}

// Compute evaluates every product under params. Products are split into
// contiguous chunks, one per worker; each worker writes only its own slice
// indexes. Cached runs are returned with Summary.CacheHit set.
func (e *Engine) Compute(ctx context.Context, params Params) (*Run, error) {
	if err := params.Validate(); err != nil {
		return nil, &PipelineError{Phase: "params", Err: err}
	}
	ds := e.Dataset()
	if ds == nil {
		return nil, &PipelineError{Phase: "compute", Err: ErrNotLoaded}
	}

	key := cache.Key{DatasetVersion: ds.Version, ParamsFingerprint: params.Fingerprint()}
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			hit := *cached
			hit.Summary.CacheHit = true
			e.log.Debug().Str("run_id", hit.ID.String()).Msg("result cache hit")
			return &hit, nil
		}
	}

	start := time.Now()
	results := make([]model.ProductResult, ds.Len())

	workers := params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	chunk := (len(results) + workers - 1) / workers
	if chunk == 0 {
		chunk = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(results); lo += chunk {
		hi := min(lo+chunk, len(results))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				results[i] = Evaluate(ds.Products[i], ds.Regulatory, params)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, &PipelineError{Phase: "compute", Err: err}
	}

	run := &Run{
		ID:                uuid.New(),
		DatasetVersion:    ds.Version,
		ParamsFingerprint: key.ParamsFingerprint,
		Params:            params,
		Results:           results,
		StartedAt:         start,
	}
	run.Summary = summarize(run)
	run.Summary.DurationCompute = time.Since(start)

	if e.cache != nil {
		e.cache.Put(key, run)
	}

	e.log.Info().
		Str("run_id", run.ID.String()).
		Int("products", run.Summary.Products).
		Int("errors", run.Summary.ProductsWithErrors).
		Int("billing_eligible", run.Summary.BillingEligible).
		Int("floor_flagged", run.Summary.FloorFlagged).
		Int("regulatory_flagged", run.Summary.RegulatoryFlagged).
		Int("workers", workers).
		Dur("duration", run.Summary.DurationCompute).
		Msg("compute complete")
	return run, nil
}

func summarize(r *Run) model.RunSummary {
	s := model.RunSummary{
		RunID:             r.ID.String(),
		DatasetVersion:    r.DatasetVersion,
		ParamsFingerprint: r.ParamsFingerprint,
		Products:          len(r.Results),
		ByPathway:         make(map[model.Pathway]int),
	}
	for _, res := range r.Results {
		if res.Error != nil {
			s.ProductsWithErrors++
		}
		if res.Margins.P2.Valid || res.Margins.P3.Valid {
			s.BillingEligible++
		}
		if res.Risk.Regulatory.Flagged {
			s.RegulatoryFlagged++
		}
		if res.Risk.Floor.Flagged {
			s.FloorFlagged++
		}
		if res.Dosing.Applicable {
			s.DosingApplicable++
		}
		if res.Recommendation.Pathway != model.PathwayNone {
			s.ByPathway[res.Recommendation.Pathway]++
		}
	}
	return s
}
