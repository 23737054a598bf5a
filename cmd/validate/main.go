package main

import (
	"fmt"
	"log"

	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	store, err := features.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open feature store: %v", err)
	}
	defer store.Close()

	validator := validate.NewValidator(cfg, store)
	report, err := validator.Run(cfg.HoldoutRegion)
	if err != nil {
		log.Fatalf("validation failed: %v", err)
	}

	fmt.Printf("Holdout %s: accuracy %.3f over %d labeled segments\n",
		report.Holdout.Region, report.Holdout.Accuracy, report.Holdout.LabeledSegments)

	fmt.Println("Per-class metrics:")
	for _, m := range report.Holdout.PerClass {
		fmt.Printf("  %-12s precision=%.3f recall=%.3f support=%d\n",
			m.Class, m.Precision, m.Recall, m.Support)
	}

	fmt.Printf("Distance-stratified estuarine rates (monotonic=%v):\n", report.Distance.Monotonic)
	for _, bin := range report.Distance.Bins {
		fmt.Printf("  %6.0f-%-6.0f km: %5.1f%% of %d segments\n",
			bin.MinKm, bin.MaxKm, bin.EstuarineRate*100, bin.Segments)
	}

	if report.Discharge != nil {
		fmt.Printf("Discharge proxy agreement: %.1f%% over %d segments (consistent=%v)\n",
			report.Discharge.AgreementRate*100,
			report.Discharge.SegmentsInTidalZone,
			report.Discharge.Consistent)
	}
}
