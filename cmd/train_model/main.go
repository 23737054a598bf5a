package main

import (
	"fmt"
	"log"
	"sort"

	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/ml"
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

	trainer := ml.NewTrainer(cfg, store)
	report, err := trainer.Train()
	if err != nil {
		log.Fatalf("training failed: %v", err)
	}

	fmt.Printf("Trained on %d labeled segments (%d coastal), holdout %s excluded\n",
		report.LabeledSegments, report.CoastalSegments, report.HoldoutRegion)
	fmt.Printf("Internal split accuracy: inland %.3f, coastal %.3f\n",
		report.InlandInternalAcc, report.CoastalInternalAcc)

	classes := make([]string, 0, len(report.ClassCounts))
	for class := range report.ClassCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	fmt.Println("Class distribution:")
	for _, class := range classes {
		fmt.Printf("  %-12s %d\n", class, report.ClassCounts[class])
	}
}
