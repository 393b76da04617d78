package model

import "time"

// RunSummary captures metrics from a single compute run.
type RunSummary struct {
	RunID              string
	DatasetVersion     string
	ParamsFingerprint  string
	Products           int
	ProductsWithErrors int
	BillingEligible    int
	RegulatoryFlagged  int
	FloorFlagged       int
	DosingApplicable   int
	ByPathway          map[Pathway]int
	CacheHit           bool
	DurationCompute    time.Duration
}
