package main

// Feature-consistency verifier. Checks that every region's stored features
// carry the same schema version and column set, and reports label and
// missing-value coverage, so a schema drift is caught before it poisons a
// training run.

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"strings"

	"tidal-atlas/coastal"
	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/spatial"
)

func main() {
	regionFlag := flag.String("region", "", "Region code to verify (e.g. EU)")
	allFlag := flag.Bool("all-regions", false, "Verify every configured region")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var regions []string
	switch {
	case *allFlag:
		regions = cfg.Regions
	case *regionFlag != "":
		regions = []string{*regionFlag}
	default:
		log.Fatal(errors.New("either -region or -all-regions is required"))
	}

	store, err := features.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open feature store: %v", err)
	}
	defer store.Close()

	failed := 0
	for _, region := range regions {
		if err := verifyRegion(store, region); err != nil {
			log.Printf("ERROR region %s: %v", region, err)
			failed++
		}
	}
	if failed > 0 {
		log.Fatalf("%d of %d regions failed verification", failed, len(regions))
	}
	fmt.Printf("All %d regions share schema %s with %d columns\n",
		len(regions), features.SchemaVersion, len(features.Columns()))
}

func verifyRegion(store *features.Store, region string) error {
	// LoadRecords already enforces schema version and column set.
	records, err := store.LoadRecords(region)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no extracted features")
	}

	labeled := 0
	degraded := 0
	baseMissing := 0
	coastalMissing := 0
	baseCells := 0
	coastalCells := 0

	for _, rec := range records {
		if rec.HasLabel {
			labeled++
		}
		if rec.DistMethod == spatial.DistMethodLatitudeProxy {
			degraded++
		}
		for col, v := range rec.Values {
			isCoastal := strings.HasPrefix(col, coastal.Prefix)
			if isCoastal {
				coastalCells++
			} else {
				baseCells++
			}
			if math.IsNaN(v) {
				if isCoastal {
					coastalMissing++
				} else {
					baseMissing++
				}
			}
		}
	}

	fmt.Printf("=== %s ===\n", region)
	fmt.Printf("  segments: %d, labeled: %d (%.1f%%), degraded distance: %d\n",
		len(records), labeled, pct(labeled, len(records)), degraded)
	fmt.Printf("  missing: base %.1f%%, coastal indicators %.1f%%\n",
		pct(baseMissing, baseCells), pct(coastalMissing, coastalCells))
	return nil
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
