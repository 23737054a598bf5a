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
	regionFlag := flag.String("region", "", "Region code to classify (e.g. EU)")
	allFlag := flag.Bool("all-regions", false, "Classify every configured region")
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

	runner := pipeline.NewRunner(cfg, []pipeline.Stage{{
		Name: "predict",
		Run: func(ctx context.Context, region string) error {
			return pipeline.PredictRegion(ctx, cfg, store, region)
		},
	}})

	for _, res := range runner.RunAll(context.Background(), regions) {
		if !res.OK() {
			log.Printf("ERROR region %s failed: %v", res.Region, res.Err)
		}
	}
}
