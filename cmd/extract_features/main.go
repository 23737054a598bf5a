package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/pipeline"
)

func main() {
	regionFlag := flag.String("region", "", "Region code to extract (e.g. EU)")
	allFlag := flag.Bool("all-regions", false, "Extract every configured region")
	onlyFlag := flag.String("only", "", "Refresh a single extractor group (coastal or physical) on already-extracted rows")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	regions, err := resolveRegions(cfg, *regionFlag, *allFlag)
	if err != nil {
		log.Fatalf("%v", err)
	}

	store, err := features.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open feature store: %v", err)
	}
	defer store.Close()

	stage := pipeline.Stage{
		Name: "extract_features",
		Run: func(ctx context.Context, region string) error {
			return pipeline.ExtractRegion(ctx, cfg, store, region)
		},
	}
	if group := *onlyFlag; group != "" {
		stage = pipeline.Stage{
			Name: "refresh_" + group,
			Run: func(ctx context.Context, region string) error {
				return pipeline.RefreshRegionGroup(ctx, cfg, store, region, group)
			},
		}
	}

	runner := pipeline.NewRunner(cfg, []pipeline.Stage{stage})

	results := runner.RunAll(context.Background(), regions)
	for _, res := range results {
		if !res.OK() {
			log.Printf("ERROR region %s failed at %s: %v", res.Region, res.FailedStage, res.Err)
		}
	}
}

func resolveRegions(cfg config.Config, region string, all bool) ([]string, error) {
	if all {
		return cfg.Regions, nil
	}
	if region == "" {
		return nil, errors.New("either -region or -all-regions is required")
	}
	return []string{region}, nil
}
