package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mdobak/go-xerrors"

	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/ml"
	"tidal-atlas/pipeline"
	"tidal-atlas/utils"
	"tidal-atlas/validate"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Expected 'run', 'train' or 'validate' subcommand")
		os.Exit(1)
	}
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	switch os.Args[1] {
	case "run":
		runCmd := flag.NewFlagSet("run", flag.ExitOnError)
		region := runCmd.String("region", "", "Single region to process (default: all configured)")
		skipExtract := runCmd.Bool("skip-extract", false, "Reuse stored features instead of re-extracting")
		runCmd.Parse(os.Args[2:])

		regions := cfg.Regions
		if *region != "" {
			regions = []string{*region}
		}
		run(cfg, regions, *skipExtract)
	case "train":
		train(cfg)
	case "validate":
		validateHoldout(cfg)
	default:
		fmt.Println("Expected 'run', 'train' or 'validate' subcommand")
		os.Exit(1)
	}
}

// run executes the per-region stages (extract, predict, surface areas) over
// a region set and writes the global surface-area rollup.
func run(cfg config.Config, regions []string, skipExtract bool) {
	logger := utils.GetLogger()
	ctx := context.Background()

	store, err := features.NewStore(cfg.DBPath)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to open feature store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	// Stages run on the runner's worker pool; the collector keeps the
	// concurrent appends safe.
	collector := &pipeline.SummaryCollector{}
	var stages []pipeline.Stage
	if !skipExtract {
		stages = append(stages, pipeline.Stage{
			Name: "extract_features",
			Run: func(ctx context.Context, region string) error {
				return pipeline.ExtractRegion(ctx, cfg, store, region)
			},
		})
	}
	stages = append(stages,
		pipeline.Stage{
			Name: "predict",
			Run: func(ctx context.Context, region string) error {
				return pipeline.PredictRegion(ctx, cfg, store, region)
			},
		},
		pipeline.Stage{
			Name: "surface_areas",
			Run: func(ctx context.Context, region string) error {
				summary, err := pipeline.AreaRegion(ctx, cfg, store, region)
				if err != nil {
					return err
				}
				collector.Add(summary)
				return nil
			},
		},
	)

	results := pipeline.NewRunner(cfg, stages).RunAll(ctx, regions)

	failed := 0
	for _, res := range results {
		if !res.OK() {
			failed++
		}
	}

	summaries := collector.Summaries()
	if len(summaries) > 0 {
		if err := pipeline.GlobalAreas(cfg, summaries); err != nil {
			logger.ErrorContext(ctx, "global rollup failed", slog.Any("error", xerrors.New(err)))
			os.Exit(1)
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func train(cfg config.Config) {
	store, err := features.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open feature store: %v", err)
	}
	defer store.Close()

	report, err := ml.NewTrainer(cfg, store).Train()
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}
	fmt.Printf("Trained on %d labeled segments, holdout %s excluded\n",
		report.LabeledSegments, report.HoldoutRegion)
}

func validateHoldout(cfg config.Config) {
	store, err := features.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open feature store: %v", err)
	}
	defer store.Close()

	report, err := validate.NewValidator(cfg, store).Run(cfg.HoldoutRegion)
	if err != nil {
		log.Fatalf("validation failed: %v", err)
	}
	fmt.Printf("Holdout %s accuracy: %.3f\n", report.Holdout.Region, report.Holdout.Accuracy)
}
