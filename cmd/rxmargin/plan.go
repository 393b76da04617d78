package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gyeh/rxmargin/internal/exitcode"
	"github.com/gyeh/rxmargin/internal/normalize"
	"github.com/gyeh/rxmargin/internal/reconcile"
)

var planVerbose bool

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run reconciliation report (no computation, no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().BoolVar(&planVerbose, "verbose", false, "List every duplicate group, reject and name match")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := setup()

	paths, err := cfg.InputPaths()
	if err != nil {
		log.Error().Err(err).Msg("input discovery failed")
		os.Exit(exitcode.UsageError)
	}
	e, report := loadEngine(log)

	fmt.Println("=== rxmargin plan ===")
	fmt.Printf("Dataset version: %s\n", e.Dataset().Version)
	fmt.Printf("Products:        %d\n", report.Products)
	fmt.Println()
	fmt.Println("Inputs:")
	for _, s := range report.Sources {
		path := paths[s.Source]
		sha := ""
		if path != "" {
			if h, err := normalize.FileHash(path); err == nil {
				sha = h[:12]
			}
		}
		fmt.Printf("  %-18s %-40s %s\n", s.Source, path, sha)
	}
	fmt.Println()
	printReport(report, planVerbose)

	if report.Partial() {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}

func printReport(r *reconcile.Report, verbose bool) {
	fmt.Printf("%-18s %6s %8s %8s %8s %6s %8s %8s\n",
		"source", "rows", "accepted", "rejected", "orphaned", "dups", "matched", "rate")
	for _, s := range r.Sources {
		if !s.Available {
			fmt.Printf("%-18s %s\n", s.Source, "unavailable")
			continue
		}
		fmt.Printf("%-18s %6d %8d %8d %8d %6d %8d %7.1f%%\n",
			s.Source, s.Rows, s.Accepted, s.Rejected, s.Orphaned, s.DuplicateKeys, s.Matched, s.MatchRate*100)
	}

	for _, v := range r.Validation {
		fmt.Printf("\nVALIDATION: %s\n", v.Error())
	}
	if n := len(r.UnmatchedReference); n > 0 {
		fmt.Printf("\nDosing reference entries matching no product: %d\n", n)
	}
	if n := len(r.NearMisses); n > 0 {
		fmt.Printf("Dosing near misses below the match threshold: %d\n", n)
	}
	if n := len(r.RegulatoryNotes); n > 0 {
		fmt.Printf("Regulatory list notes: %d\n", n)
	}
	if !verbose {
		return
	}

	if len(r.Duplicates) > 0 {
		fmt.Println("\nDuplicates:")
		for _, d := range r.Duplicates {
			fmt.Printf("  %-18s %-14s rows %v -> %d (%s)\n", d.Source, d.Key, d.Rows, d.Selected, d.Policy)
		}
	}
	if len(r.Rejects) > 0 {
		fmt.Println("\nRejected rows:")
		for _, rj := range r.Rejects {
			fmt.Printf("  %-18s row %-6d %-20q %s\n", rj.Source, rj.Row, rj.Value, rj.Reason)
		}
	}
	if len(r.Orphans) > 0 {
		fmt.Println("\nRows for codes not in the catalog:")
		for _, o := range r.Orphans {
			fmt.Printf("  %-18s row %-6d %s\n", o.Source, o.Row, o.Value)
		}
	}
	if len(r.FuzzyMatches) > 0 {
		fmt.Println("\nFuzzy dosing matches:")
		for _, m := range r.FuzzyMatches {
			fmt.Printf("  %s %-30s ~ %-30s %.1f\n", m.Code, m.Name, m.Candidate, m.Score)
		}
	}
	if len(r.NearMisses) > 0 {
		fmt.Println("\nNear misses:")
		for _, m := range r.NearMisses {
			fmt.Printf("  %s %-30s ~ %-30s %.1f\n", m.Code, m.Name, m.Candidate, m.Score)
		}
	}
	for _, name := range r.UnmatchedReference {
		fmt.Printf("  unmatched reference: %s\n", name)
	}
	for _, note := range r.RegulatoryNotes {
		fmt.Printf("  regulatory: %s\n", note)
	}
}
