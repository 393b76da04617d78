// mkfixture writes a deterministic synthetic input set, one Parquet file per
// source, for demos and load tests.
// Usage: go run ./cmd/mkfixture --out testdata/fixture --products 500 --seed 1
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/gyeh/rxmargin/internal/fixture"
)

func main() {
	out := flag.String("out", "testdata/fixture", "output directory")
	products := flag.Int("products", fixture.DefaultProducts, "number of distinct products")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *products <= 0 {
		fmt.Fprintln(os.Stderr, "--products must be positive")
		os.Exit(1)
	}

	set := fixture.Generate(fixture.Config{Products: *products, Seed: *seed})
	paths, err := set.WriteParquet(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "write fixture: %v\n", err)
		os.Exit(1)
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%-18s %s\n", name, paths[name])
	}
	fmt.Printf("\n%d products, %d billable, %d duplicated codes, %d floor codes\n",
		*products, set.Billable, set.DuplicateCodes, len(set.FloorCodes))
}
