package tables

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/gyeh/rxmargin/internal/fixture"
	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/reconcile"
)

func TestParquetRoundTrip(t *testing.T) {
	set := fixture.Generate(fixture.Config{Products: 60, Seed: 5})
	dir := t.TempDir()
	paths, err := set.WriteParquet(dir)
	if err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	loaded, err := Load(paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := set.Tables()
	for _, src := range model.AllSources {
		got, w := loaded[src.Name], want[src.Name]
		if got == nil {
			t.Fatalf("%s not loaded", src.Name)
		}
		if missing := Check(got); len(missing) > 0 {
			t.Errorf("%s missing %v (columns %v)", src.Name, missing, got.Columns)
		}
		if got.Len() != w.Len() {
			t.Fatalf("%s rows = %d, want %d", src.Name, got.Len(), w.Len())
		}
		gi, wi := got.Index(), w.Index()
		for i := range w.Rows {
			for _, col := range w.Columns {
				if g, e := got.Cell(gi, i, col), w.Cell(wi, i, col); g != e {
					t.Fatalf("%s row %d col %s = %q, want %q", src.Name, i, col, g, e)
				}
			}
		}
	}
}

func TestReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.csv")
	body := "\ufeffCode,Name,Cost,Benchmark Price A,Category,Contract-Attribute\n" +
		"00074-4339-02,\"HUMIRA, PEN\",\"$1,234.50\",6500,SPECIALTY,340B\n" +
		",,,,,\n" +
		"12345-6789-01,METFORMIN,1.00,4,GENERIC\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Read(path, model.SourceCatalog)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := []string{"code", "name", "cost", "benchmark_price_a", "category", "contract_attribute"}
	if strings.Join(tbl.Columns, ",") != strings.Join(want, ",") {
		t.Errorf("columns = %v", tbl.Columns)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2 (blank row skipped)", tbl.Len())
	}
	idx := tbl.Index()
	if got := tbl.Cell(idx, 0, "name"); got != "HUMIRA, PEN" {
		t.Errorf("quoted name = %q", got)
	}
	if got := tbl.Cell(idx, 1, "contract_attribute"); got != "" {
		t.Errorf("short row padded cell = %q", got)
	}
	if tbl.Origin != path {
		t.Errorf("origin = %q", tbl.Origin)
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing_crosswalk.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Code", "Billing Code", "Conversion Factor"},
		{"00074433902", "J0135", 2},
		{},
		{"12345678901", "J1745", "0.5"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		r := r
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	tbl, err := Read(path, model.SourceCrosswalk)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if missing := Check(tbl); len(missing) > 0 {
		t.Fatalf("missing %v (columns %v)", missing, tbl.Columns)
	}
	if tbl.Len() != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Len())
	}
	idx := tbl.Index()
	if got := tbl.Cell(idx, 0, "conversion_factor"); got != "2" {
		t.Errorf("factor = %q", got)
	}
	if got := tbl.Cell(idx, 1, "billing_code"); got != "J1745" {
		t.Errorf("billing code = %q", got)
	}
}

func TestDiscoverAndLoadErrors(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"catalog.csv", "dosing_reference.csv", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("name\nx\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	paths, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 || paths[model.SourceCatalog] == "" || paths[model.SourceDosing] == "" {
		t.Errorf("paths = %v", paths)
	}

	if _, err := Load(map[string]string{"prices": filepath.Join(dir, "catalog.csv")}); err == nil {
		t.Error("unknown source accepted")
	}
	if _, err := Read(filepath.Join(dir, "x.json"), model.SourceCatalog); err == nil {
		t.Error("unsupported extension accepted")
	}
	if _, err := Discover(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing directory accepted")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_UnreadableSecondarySourceLeavesPartialDataset(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "catalog.csv",
		"code,name,cost,benchmark_price_a,category,contract_attribute\n"+
			"00074-4339-02,ADALIMUMAB,150.00,6500.00,SPECIALTY,340B\n")
	writeFile(t, dir, "billing_crosswalk.csv", "")
	writeFile(t, dir, "historical_stats.parquet", "not a parquet file")

	paths, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded[model.SourceCatalog].Err != nil {
		t.Fatalf("catalog err = %v", loaded[model.SourceCatalog].Err)
	}
	if cw := loaded[model.SourceCrosswalk]; cw == nil || !errors.Is(cw.Err, ErrEmpty) {
		t.Fatalf("crosswalk table = %+v, want ErrEmpty", cw)
	}
	if st := loaded[model.SourceStats]; st == nil || st.Err == nil || st.Len() != 0 {
		t.Fatalf("stats table = %+v, want read error", st)
	}

	ds, rep, err := reconcile.Reconcile(loaded, reconcile.DefaultOptions(), zerolog.Nop())
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if !rep.Partial() {
		t.Error("report not partial")
	}
	verr := rep.ValidationFor(model.SourceCrosswalk)
	if verr == nil || !errors.Is(verr, ErrEmpty) {
		t.Errorf("crosswalk validation = %v", verr)
	}
	if rep.ValidationFor(model.SourceStats) == nil {
		t.Error("unreadable stats file not reported")
	}
	p, ok := ds.Product("00074433902")
	if !ok {
		t.Fatal("catalog product missing")
	}
	if p.Completeness.Crosswalk != model.FacetUnavailable || p.Completeness.Stats != model.FacetUnavailable {
		t.Errorf("completeness = %+v", p.Completeness)
	}
}

func TestLoad_UnreadableCatalogIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "catalog.csv", "")
	writeFile(t, dir, "billing_crosswalk.csv", "code,billing_code,conversion_factor\n1,J0001,1\n")

	paths, err := Discover(dir)
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(paths)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	_, _, err = reconcile.Reconcile(loaded, reconcile.DefaultOptions(), zerolog.Nop())
	if !errors.Is(err, reconcile.ErrCatalogUnusable) || !errors.Is(err, ErrEmpty) {
		t.Errorf("err = %v, want ErrCatalogUnusable wrapping ErrEmpty", err)
	}
}

func TestReadXLSX_EmptySheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dosing_reference.xlsx")
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	loaded, err := Load(map[string]string{model.SourceDosing: path})
	if err != nil {
		t.Fatal(err)
	}
	if tbl := loaded[model.SourceDosing]; tbl == nil || !errors.Is(tbl.Err, ErrEmpty) {
		t.Errorf("dosing table = %+v, want ErrEmpty", tbl)
	}
}
