package validate

// Spatial holdout validation.
//
// The primary quality number of the whole pipeline is the accuracy of the
// persisted models on the labeled segments of the holdout region, a region
// no model ever saw during training. The validator reads the holdout marker
// written at training time and refuses to score any other region; a
// validation number computed on training data would only ever flatter the
// models.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/ml"
	"tidal-atlas/models"
	"tidal-atlas/utils"
)

// ClassMetrics are per-class precision and recall on the holdout.
type ClassMetrics struct {
	Class     string  `json:"class"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	Support   int     `json:"support"`
}

// HoldoutReport is the primary validation result.
type HoldoutReport struct {
	Region          string         `json:"region"`
	LabeledSegments int            `json:"labeled_segments"`
	Accuracy        float64        `json:"accuracy"`
	Classes         []string       `json:"classes"`
	Confusion       [][]int        `json:"confusion"` // [true][predicted]
	PerClass        []ClassMetrics `json:"per_class"`
}

// Report bundles the primary holdout result with the secondary consistency
// checks. The secondary checks are sanity patterns, not accuracy numbers.
type Report struct {
	Holdout    *HoldoutReport    `json:"holdout"`
	Distance   *DistanceReport   `json:"distance_stratified"`
	Literature *LiteratureReport `json:"literature_proxy"`
	Discharge  *DischargeReport  `json:"discharge_proxy,omitempty"`
	Typology   *TypologyReport   `json:"typology_exploratory,omitempty"`
}

// Validator scores the trained models against the holdout region.
type Validator struct {
	cfg    config.Config
	store  *features.Store
	logger *slog.Logger
}

// NewValidator wires a validator against the feature store.
func NewValidator(cfg config.Config, store *features.Store) *Validator {
	return &Validator{cfg: cfg, store: store, logger: utils.GetLogger()}
}

// Run validates the requested region and writes the full report.
func (v *Validator) Run(region string) (*Report, error) {
	marker, err := ml.ReadHoldoutMarker(v.cfg.ModelDir)
	if err != nil {
		return nil, fmt.Errorf("no holdout marker; train before validating: %w", err)
	}
	if region != marker {
		return nil, &models.LeakageError{HoldoutRegion: marker, RequestedRegion: region}
	}

	records, err := v.store.LoadRecords(region)
	if err != nil {
		return nil, err
	}

	predictor, err := ml.LoadPredictor(v.cfg.ModelDir, ml.RuleConfig{
		CoastalThresholdKm: v.cfg.CoastalThresholdKm,
		HardRuleKm:         v.cfg.HardRuleKm,
		SoftRuleKm:         v.cfg.SoftRuleKm,
	})
	if err != nil {
		return nil, err
	}

	holdout, results, err := v.scoreHoldout(predictor, records)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Holdout:    holdout,
		Distance:   DistanceBinCheck(results),
		Literature: LiteratureCheck(results),
		Discharge:  DischargeCheck(records, results),
		Typology:   TypologyCheck(records, results),
	}

	if err := v.saveReport(region, report); err != nil {
		return nil, err
	}

	v.logger.Info("holdout validation complete",
		slog.String("region", region),
		slog.Int("labeled_segments", holdout.LabeledSegments),
		slog.Float64("accuracy", holdout.Accuracy),
		slog.Bool("distance_monotonic", report.Distance.Monotonic))

	return report, nil
}

// scoreHoldout runs the model path over every holdout segment. Labels are
// stripped before prediction so the ground-truth bypass cannot inflate the
// score; the model must earn every hit. Accuracy is computed on the labeled
// subset, while the returned classifications cover the whole region so the
// secondary checks see the full population, not just the labeled sliver.
func (v *Validator) scoreHoldout(predictor *ml.Predictor, records []features.Record) (*HoldoutReport, []models.Classification, error) {
	classes := make([]string, len(models.VeniceOrder))
	classIndex := make(map[models.SalinityClass]int, len(models.VeniceOrder))
	for i, c := range models.VeniceOrder {
		classes[i] = string(c)
		classIndex[c] = i
	}

	confusion := make([][]int, len(classes))
	for i := range confusion {
		confusion[i] = make([]int, len(classes))
	}

	var results []models.Classification
	labeled := 0
	correct := 0

	for _, rec := range records {
		masked := rec
		masked.HasLabel = false
		masked.LabelSalinity = 0

		res, err := predictor.Classify(masked)
		if err != nil {
			return nil, nil, err
		}
		results = append(results, res)

		if !rec.HasLabel {
			continue
		}
		truth := models.ClassifySalinity(rec.LabelSalinity)

		labeled++
		confusion[classIndex[truth]][classIndex[res.Class]]++
		if res.Class == truth {
			correct++
		}
	}

	if labeled == 0 {
		return nil, nil, fmt.Errorf("holdout region has no labeled segments")
	}

	report := &HoldoutReport{
		Region:          v.cfg.HoldoutRegion,
		LabeledSegments: labeled,
		Accuracy:        float64(correct) / float64(labeled),
		Classes:         classes,
		Confusion:       confusion,
	}

	for i, class := range classes {
		support := 0
		predicted := 0
		hit := confusion[i][i]
		for j := range classes {
			support += confusion[i][j]
			predicted += confusion[j][i]
		}
		metrics := ClassMetrics{Class: class, Support: support}
		if predicted > 0 {
			metrics.Precision = float64(hit) / float64(predicted)
		}
		if support > 0 {
			metrics.Recall = float64(hit) / float64(support)
		}
		report.PerClass = append(report.PerClass, metrics)
	}

	return report, results, nil
}

func (v *Validator) saveReport(region string, report *Report) error {
	if err := utils.CreateFolder(v.cfg.OutputDir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling validation report: %s", err)
	}
	path := filepath.Join(v.cfg.OutputDir, fmt.Sprintf("validation_%s.json", region))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing validation report: %s", err)
	}
	return nil
}
