package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/rxmargin/internal/exitcode"
	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/pipeline"
	"github.com/gyeh/rxmargin/internal/recommend"
)

var (
	topN    int
	rankBy  string
	product string
)

var computeCmd = &cobra.Command{
	Use:   "compute",
	Short: "Compute margins and print the top opportunities",
	RunE:  runCompute,
}

func init() {
	f := computeCmd.Flags()
	f.IntVar(&topN, "top", 20, "Number of opportunities to list (0 = all)")
	f.StringVar(&rankBy, "rank-by", string(recommend.ByMargin), "Ranking key: margin or delta")
	f.StringVar(&product, "product", "", "Show the drill-down for one product code instead of the ranking")
	rootCmd.AddCommand(computeCmd)
}

func runCompute(cmd *cobra.Command, args []string) error {
	log := setup()
	key := recommend.RankKey(rankBy)
	if key != recommend.ByMargin && key != recommend.ByDelta {
		log.Error().Str("rank_by", rankBy).Msg("rank-by must be margin or delta")
		os.Exit(exitcode.UsageError)
	}

	e, report := loadEngine(log)

	if product != "" {
		d, err := e.Detail(product, cfg.Params, nil)
		if err != nil {
			log.Error().Err(err).Str("product", product).Msg("detail failed")
			if errors.Is(err, pipeline.ErrUnknownProduct) {
				os.Exit(exitcode.UsageError)
			}
			os.Exit(exitcode.ComputeError)
		}
		printDetail(d)
		return nil
	}

	run, err := e.Compute(context.Background(), cfg.Params)
	if err != nil {
		log.Error().Err(err).Msg("compute failed")
		os.Exit(exitcode.ComputeError)
	}

	printTop(run.Top(key, topN), key)
	printSummary(run)

	if report.Partial() {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

func printTop(v recommend.View, key recommend.RankKey) {
	fmt.Printf("=== top opportunities by %s ===\n", key)
	fmt.Printf("%-4s %-11s %-32s %-4s %12s %12s %8s %s\n",
		"#", "code", "name", "path", "margin", "delta", "delta%", "flags")
	for i, r := range v.Items {
		rec := r.Recommendation
		pct := "n/a"
		if rec.DeltaPct.Valid {
			pct = rec.DeltaPct.Decimal.Shift(2).StringFixed(1) + "%"
		}
		flags := ""
		if r.Risk.Regulatory.Flagged {
			flags = fmt.Sprintf("regulatory %d", r.Risk.Regulatory.Year)
		}
		fmt.Printf("%-4d %-11s %-32.32s %-4s %12s %12s %8s %s\n",
			i+1, r.Code, r.Name, rec.Pathway, model.DisplayNull(rec.Margin), model.Display(rec.Delta), pct, flags)
	}
	fmt.Printf("\nExcluded: %d floor-flagged, %d with errors, %d without margin\n",
		v.ExcludedFloor, v.ExcludedErrors, v.ExcludedNoData)
}

func printSummary(run *pipeline.Run) {
	s := run.Summary
	fmt.Println()
	fmt.Printf("Run %s (dataset %s, params %s)\n", s.RunID, s.DatasetVersion, s.ParamsFingerprint)
	fmt.Printf("  products:           %d\n", s.Products)
	fmt.Printf("  with errors:        %d\n", s.ProductsWithErrors)
	fmt.Printf("  billing eligible:   %d\n", s.BillingEligible)
	fmt.Printf("  regulatory flagged: %d\n", s.RegulatoryFlagged)
	fmt.Printf("  floor flagged:      %d\n", s.FloorFlagged)
	fmt.Printf("  dosing applicable:  %d\n", s.DosingApplicable)
	for _, p := range model.AllPathways {
		fmt.Printf("  recommended %-2s:     %d\n", p, s.ByPathway[p])
	}
	fmt.Printf("  compute:            %s\n", s.DurationCompute)
}

func printDetail(d *pipeline.Detail) {
	p, r := d.Product, d.Result
	fmt.Printf("=== %s %s ===\n", p.Code, p.Name)
	fmt.Printf("Category %s, contract %s\n", p.Category, p.ContractAttribute)
	if r.Error != nil {
		fmt.Printf("ERROR (%s): %s\n", r.Error.Kind, r.Error.Message)
		return
	}
	fmt.Printf("P1 gross %s  P1 %s  P2 %s  P3 %s\n",
		model.DisplayNull(r.Margins.P1Gross), model.DisplayNull(r.Margins.P1),
		model.DisplayNull(r.Margins.P2), model.DisplayNull(r.Margins.P3))
	rec := r.Recommendation
	fmt.Printf("Recommended %s (%s): %s, delta %s [%s]\n",
		rec.Pathway, rec.Pathway.Label(), model.DisplayNull(rec.Margin), model.Display(rec.Delta), rec.Status)

	for _, pw := range []model.Pathway{model.PathwayP2, model.PathwayP3} {
		if v, ok := d.ByPayer[pw]; ok {
			fmt.Printf("  if payer class is %s: %s at %s\n", pw, v.Pathway, model.DisplayNull(v.Margin))
		}
	}
	if r.Dosing.Applicable {
		fmt.Printf("Dosing (%s): year 1 %s, steady %s, uplift %s\n", r.Dosing.Profile,
			model.Display(r.Dosing.Year1Revenue), model.Display(r.Dosing.SteadyRevenue), model.Display(r.Dosing.Delta))
	}
	if w := r.Risk.Regulatory.Warning; w != "" {
		fmt.Println(w)
	}
	if w := r.Risk.Floor.Warning; w != "" {
		fmt.Println(w)
	}

	fmt.Println("\nCapture-rate sensitivity:")
	for _, pt := range d.Sensitivity {
		fmt.Printf("  %5s  P1 %12s  -> %s\n", pt.CaptureRate.StringFixed(2), model.DisplayNull(pt.Margins.P1), pt.Recommended)
	}
	if d.Crossover.Valid {
		fmt.Printf("Crossover capture rate: %s\n", d.Crossover.Decimal.StringFixed(4))
	}

	fmt.Println("\nProvenance:")
	for _, f := range d.Provenance {
		mark := " "
		if f.Selected {
			mark = "*"
		}
		val := "n/a"
		if f.HasValue {
			val = f.Value.String()
		}
		fmt.Printf("  %s %-18s %-20s %12s row %-5d %s\n", mark, f.Source, f.Field, val, f.SourceRow, f.Attribute)
	}
}
