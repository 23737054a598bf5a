package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"tidal-atlas/area"
	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/pipeline"
)

func main() {
	regionFlag := flag.String("region", "", "Region code to aggregate (e.g. EU)")
	allFlag := flag.Bool("all-regions", false, "Aggregate every configured region and the global rollup")
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

	ctx := context.Background()
	var summaries []area.Summary
	for _, region := range regions {
		summary, err := pipeline.AreaRegion(ctx, cfg, store, region)
		if err != nil {
			log.Printf("ERROR region %s: %v", region, err)
			continue
		}
		summaries = append(summaries, summary)
		printSummary(summary)
	}

	if *allFlag && len(summaries) > 0 {
		if err := pipeline.GlobalAreas(cfg, summaries); err != nil {
			log.Fatalf("global rollup failed: %v", err)
		}
		printSummary(area.Combine(summaries))
	}
}

func printSummary(s area.Summary) {
	fmt.Printf("=== %s ===\n", s.Region)
	for _, cs := range s.Classes {
		fmt.Printf("  %-12s %8d segments  %12.1f km2 (%.1f%%)\n",
			cs.Class, cs.Segments, cs.TotalKm2, cs.AreaShare*100)
	}
	fmt.Printf("  estuarine %.1f km2, freshwater %.1f km2\n\n",
		s.EstuarineKm2, s.FreshwaterKm2)
}
