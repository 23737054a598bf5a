package ml

// Hybrid prediction with physical-plausibility rules.
//
// The prediction order is fixed:
//
//  1. Ground-truth bypass: a segment with a measured salinity is classified
//     from the measurement, never from a model.
//  2. Routing: segments within the coastal threshold go to the coastal
//     model, everything else to the inland model.
//  3. Confidence banding from the winning class probability.
//  4. Rule layer: estuarine predictions far beyond any plausible tidal
//     intrusion are overridden to Freshwater. The hard rule fires on
//     distance alone; the soft rule only demotes low-confidence estuarine
//     predictions in the intermediate band. The rules are idempotent: an
//     overridden result is Freshwater and can never be overridden again.

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tidal-atlas/features"
	"tidal-atlas/models"
	"tidal-atlas/spatial"
	"tidal-atlas/utils"
)

// RuleConfig are the routing and override distances in kilometers.
type RuleConfig struct {
	CoastalThresholdKm float64
	HardRuleKm         float64
	SoftRuleKm         float64
}

// Predictor classifies feature records with the trained model pair.
type Predictor struct {
	inland  *Forest
	coastal *Forest
	rules   RuleConfig
	logger  *slog.Logger
}

// LoadPredictor reads the persisted models. A missing coastal model is
// tolerated (all routing falls back to the inland model); a missing inland
// model is not.
func LoadPredictor(modelDir string, rules RuleConfig) (*Predictor, error) {
	inland, err := LoadForest(filepath.Join(modelDir, InlandModelFile))
	if err != nil {
		return nil, fmt.Errorf("inland model: %w", err)
	}

	logger := utils.GetLogger()
	coastal, err := LoadForest(filepath.Join(modelDir, CoastalModelFile))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("coastal model: %w", err)
		}
		logger.Warn("no coastal model on disk, routing everything to the inland model")
		coastal = nil
	}

	return &Predictor{inland: inland, coastal: coastal, rules: rules, logger: logger}, nil
}

// NewPredictor wraps already-loaded forests; used by the validator and tests.
func NewPredictor(inland, coastal *Forest, rules RuleConfig) *Predictor {
	return &Predictor{inland: inland, coastal: coastal, rules: rules, logger: utils.GetLogger()}
}

// Classify produces the final classification for one record.
func (p *Predictor) Classify(rec features.Record) (models.Classification, error) {
	out := models.Classification{
		SegmentID:        rec.SegmentID,
		Region:           rec.Region,
		DistToCoastKm:    rec.Dist(),
		DegradedDistance: rec.DistMethod == spatial.DistMethodLatitudeProxy,
	}

	if rec.HasLabel {
		out.Class = models.ClassifySalinity(rec.LabelSalinity)
		out.Confidence = models.ConfidenceHigh
		out.Method = models.MethodValidated
		out.Probability = 1.0
		return out, nil
	}

	forest := p.inland
	out.Method = models.MethodMLInland
	if p.coastal != nil && out.DistToCoastKm <= p.rules.CoastalThresholdKm {
		forest = p.coastal
		out.Method = models.MethodMLCoastal
	}

	probs, err := forest.PredictProba(rec.Vector(forest.FeatureNames))
	if err != nil {
		return models.Classification{}, err
	}

	best, prob := Best(probs)
	out.Class = forest.Encoder.Class(best)
	out.Probability = prob
	out.Confidence = models.ConfidenceFromProbability(prob)

	return p.applyRules(out), nil
}

// applyRules runs the two-tier physical override. Safe to call repeatedly.
func (p *Predictor) applyRules(c models.Classification) models.Classification {
	if !c.Class.IsEstuarine() {
		return c
	}

	if c.DistToCoastKm > p.rules.HardRuleKm {
		c.Class = models.Freshwater
		c.Confidence = models.ConfidenceHigh
		c.Method = models.MethodRuleDistance
		return c
	}

	if c.DistToCoastKm > p.rules.SoftRuleKm &&
		(c.Confidence == models.ConfidenceLow || c.Confidence == models.ConfidenceVeryLow) {
		c.Class = models.Freshwater
		c.Confidence = models.ConfidenceMedium
		c.Method = models.MethodRuleHybrid
	}

	return c
}

// ClassifyAll classifies a batch, logging how often each path fired.
func (p *Predictor) ClassifyAll(records []features.Record) ([]models.Classification, error) {
	results := make([]models.Classification, 0, len(records))
	methodCounts := make(map[models.Method]int)

	for _, rec := range records {
		res, err := p.Classify(rec)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", rec.SegmentID, err)
		}
		methodCounts[res.Method]++
		results = append(results, res)
	}

	overrides := methodCounts[models.MethodRuleDistance] + methodCounts[models.MethodRuleHybrid]
	if overrides > 0 {
		p.logger.Warn("physically implausible estuarine predictions overridden",
			slog.Int("hard_rule", methodCounts[models.MethodRuleDistance]),
			slog.Int("soft_rule", methodCounts[models.MethodRuleHybrid]),
			slog.Int("total", len(records)))
	}
	p.logger.Info("classification batch complete",
		slog.Int("segments", len(results)),
		slog.Int("validated", methodCounts[models.MethodValidated]),
		slog.Int("ml_coastal", methodCounts[models.MethodMLCoastal]),
		slog.Int("ml_inland", methodCounts[models.MethodMLInland]))

	return results, nil
}
