package model

// Source names for the input datasets handed over by the ingestion layer.
const (
	SourceCatalog    = "catalog"
	SourceCrosswalk  = "billing_crosswalk"
	SourceBenchmark  = "billing_benchmark"
	SourceStats      = "historical_stats"
	SourceDosing     = "dosing_reference"
	SourceRegulatory = "regulatory_list"
)

// Source describes one input dataset and its column contract.
type Source struct {
	Name     string   // e.g. "catalog"
	Label    string   // human label for reports
	Required []string // columns that must be present
	Optional []string // columns used when present
	Primary  bool     // the left side of every join
}

// AllSources lists the supported input datasets in reconciliation order.
var AllSources = []Source{
	{
		Name:     SourceCatalog,
		Label:    "Primary catalog",
		Required: []string{"code", "cost", "benchmark_price_a", "category", "contract_attribute"},
		Optional: []string{"name"},
		Primary:  true,
	},
	{
		Name:     SourceCrosswalk,
		Label:    "Billing crosswalk",
		Required: []string{"code", "billing_code", "conversion_factor"},
	},
	{
		Name:     SourceBenchmark,
		Label:    "Billing benchmark",
		Required: []string{"billing_code", "benchmark_price_b"},
		Optional: []string{"effective_date"},
	},
	{
		Name:     SourceStats,
		Label:    "Historical statistics",
		Required: []string{"code", "cumulative_discount_pct"},
		Optional: []string{"effective_date"},
	},
	{
		Name:     SourceDosing,
		Label:    "Dosing reference",
		Required: []string{"name", "year1_fills", "steady_fills"},
	},
	{
		Name:     SourceRegulatory,
		Label:    "Regulatory name list",
		Required: []string{"name", "effective_year"},
	},
}

// SourceByName returns the Source for the given name, or ok=false.
func SourceByName(name string) (Source, bool) {
	for _, s := range AllSources {
		if s.Name == name {
			return s, true
		}
	}
	return Source{}, false
}

// SourceNames returns just the names of all sources.
func SourceNames() []string {
	names := make([]string, len(AllSources))
	for i, s := range AllSources {
		names[i] = s.Name
	}
	return names
}
