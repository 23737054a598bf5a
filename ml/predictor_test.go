package ml

import (
	"testing"

	"tidal-atlas/features"
	"tidal-atlas/models"
	"tidal-atlas/spatial"
)

// constantForest returns the same leaf distribution for every input.
func constantForest(probs []float64) *Forest {
	classes := make([]string, len(models.VeniceOrder))
	for i, c := range models.VeniceOrder {
		classes[i] = string(c)
	}
	return &Forest{
		Encoder:      &LabelEncoder{Classes: classes},
		FeatureNames: []string{"dist_to_coast_km"},
		Trees:        []*treeNode{{Probs: probs}},
	}
}

func testRules() RuleConfig {
	return RuleConfig{CoastalThresholdKm: 50, HardRuleKm: 200, SoftRuleKm: 100}
}

func record(dist float64) features.Record {
	return features.Record{
		SegmentID:  "s1",
		Region:     "EU",
		DistMethod: spatial.DistMethodOutlet,
		Values:     map[string]float64{"dist_to_coast_km": dist},
	}
}

func TestClassifyGroundTruthBypass(t *testing.T) {
	t.Parallel()

	// Model says Euhaline; the measured salinity must win.
	p := NewPredictor(constantForest([]float64{0, 0, 0, 0, 1}), nil, testRules())

	rec := record(10)
	rec.HasLabel = true
	rec.LabelSalinity = 12.0

	got, err := p.Classify(rec)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Class != models.Mesohaline {
		t.Errorf("class = %s, want Mesohaline from the measurement", got.Class)
	}
	if got.Method != models.MethodValidated {
		t.Errorf("method = %s, want %s", got.Method, models.MethodValidated)
	}
	if got.Confidence != models.ConfidenceHigh || got.Probability != 1.0 {
		t.Errorf("validated classification should be HIGH at probability 1, got %s/%.2f",
			got.Confidence, got.Probability)
	}
}

func TestClassifyRoutesByDistance(t *testing.T) {
	t.Parallel()

	inland := constantForest([]float64{1, 0, 0, 0, 0})
	coastal := constantForest([]float64{0, 1, 0, 0, 0})
	p := NewPredictor(inland, coastal, testRules())

	near, err := p.Classify(record(10))
	if err != nil {
		t.Fatalf("Classify near: %v", err)
	}
	if near.Method != models.MethodMLCoastal || near.Class != models.Oligohaline {
		t.Errorf("near-coast segment should use the coastal model, got %s/%s", near.Method, near.Class)
	}

	far, err := p.Classify(record(120))
	if err != nil {
		t.Fatalf("Classify far: %v", err)
	}
	if far.Method != models.MethodMLInland || far.Class != models.Freshwater {
		t.Errorf("inland segment should use the inland model, got %s/%s", far.Method, far.Class)
	}
}

func TestClassifyWithoutCoastalModelFallsBackInland(t *testing.T) {
	t.Parallel()

	p := NewPredictor(constantForest([]float64{1, 0, 0, 0, 0}), nil, testRules())

	got, err := p.Classify(record(5))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Method != models.MethodMLInland {
		t.Errorf("missing coastal model should route inland, got %s", got.Method)
	}
}

func TestHardRuleOverridesFarEstuarine(t *testing.T) {
	t.Parallel()

	// Confident Polyhaline at 350 km is physically implausible.
	p := NewPredictor(constantForest([]float64{0, 0, 0.1, 0.9, 0}), nil, testRules())

	got, err := p.Classify(record(350))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Class != models.Freshwater {
		t.Errorf("class = %s, want Freshwater", got.Class)
	}
	if got.Method != models.MethodRuleDistance {
		t.Errorf("method = %s, want %s", got.Method, models.MethodRuleDistance)
	}
	if got.Confidence != models.ConfidenceHigh {
		t.Errorf("hard override carries HIGH confidence, got %s", got.Confidence)
	}

	// The override result is Freshwater, so a second rule pass is a no-op.
	again := p.applyRules(got)
	if again != got {
		t.Errorf("rules must be idempotent: %+v vs %+v", again, got)
	}
}

func TestSoftRuleDemotesLowConfidenceOnly(t *testing.T) {
	t.Parallel()

	// 50% Mesohaline lands in the LOW band.
	low := NewPredictor(constantForest([]float64{0.3, 0.1, 0.5, 0.1, 0}), nil, testRules())
	got, err := low.Classify(record(150))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Class != models.Freshwater || got.Method != models.MethodRuleHybrid {
		t.Errorf("low-confidence estuarine at 150 km should demote, got %s/%s", got.Class, got.Method)
	}
	if got.Confidence != models.ConfidenceMedium {
		t.Errorf("soft override carries MEDIUM confidence, got %s", got.Confidence)
	}

	// A confident estuarine prediction in the same band survives.
	confident := NewPredictor(constantForest([]float64{0, 0, 0.9, 0.1, 0}), nil, testRules())
	got, err = confident.Classify(record(150))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Class != models.Mesohaline || got.Method != models.MethodMLInland {
		t.Errorf("confident estuarine at 150 km must stand, got %s/%s", got.Class, got.Method)
	}
}

func TestRulesNeverTouchFreshwater(t *testing.T) {
	t.Parallel()

	p := NewPredictor(constantForest([]float64{0.5, 0.2, 0.2, 0.1, 0}), nil, testRules())

	got, err := p.Classify(record(500))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got.Class != models.Freshwater || got.Method != models.MethodMLInland {
		t.Errorf("Freshwater prediction must pass through the rules, got %s/%s", got.Class, got.Method)
	}
}

func TestClassifyFlagsDegradedDistance(t *testing.T) {
	t.Parallel()

	p := NewPredictor(constantForest([]float64{1, 0, 0, 0, 0}), nil, testRules())

	rec := record(80)
	rec.DistMethod = spatial.DistMethodLatitudeProxy

	got, err := p.Classify(rec)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !got.DegradedDistance {
		t.Error("latitude-proxy distance must flag the classification as degraded")
	}
}

func TestClassifyAllCountsMethods(t *testing.T) {
	t.Parallel()

	p := NewPredictor(constantForest([]float64{0, 0, 0, 1, 0}), nil, testRules())

	labeled := record(10)
	labeled.SegmentID = "lab"
	labeled.HasLabel = true
	labeled.LabelSalinity = 0.1

	results, err := p.ClassifyAll([]features.Record{labeled, record(350)})
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Method != models.MethodValidated {
		t.Errorf("first result method = %s, want validated", results[0].Method)
	}
	if results[1].Method != models.MethodRuleDistance {
		t.Errorf("second result method = %s, want hard rule", results[1].Method)
	}
}
