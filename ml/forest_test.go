package ml

import (
	"math"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"

	"tidal-atlas/models"
)

// separableData builds a two-class problem split cleanly on feature 0.
func separableData(n int, seed int64) ([][]float64, []int, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	w := make([]float64, n)
	for i := range x {
		class := i % 2
		base := 0.0
		if class == 1 {
			base = 10.0
		}
		x[i] = []float64{
			base + rng.Float64(),
			rng.Float64(), // noise
			rng.Float64(), // noise
		}
		y[i] = class
		w[i] = 1
	}
	return x, y, w
}

func testEncoder() *LabelEncoder {
	return NewLabelEncoder([]models.SalinityClass{models.Freshwater, models.Mesohaline})
}

func smallConfig() ForestConfig {
	return ForestConfig{
		Trees:           25,
		MaxDepth:        6,
		MinSamplesSplit: 4,
		MinSamplesLeaf:  2,
		Seed:            42,
	}
}

func TestTrainForestLearnsSeparableData(t *testing.T) {
	t.Parallel()

	x, y, w := separableData(200, 1)
	names := []string{"a", "b", "c"}

	forest, err := TrainForest(x, y, w, names, testEncoder(), nil, smallConfig())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}

	probs, err := forest.PredictProba([]float64{0.5, 0.5, 0.5})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if best, p := Best(probs); best != 0 || p < 0.9 {
		t.Errorf("low-side sample should classify as class 0 with high probability, got %d at %.3f", best, p)
	}

	probs, err = forest.PredictProba([]float64{10.5, 0.5, 0.5})
	if err != nil {
		t.Fatalf("PredictProba: %v", err)
	}
	if best, p := Best(probs); best != 1 || p < 0.9 {
		t.Errorf("high-side sample should classify as class 1 with high probability, got %d at %.3f", best, p)
	}
}

func TestTrainForestDeterministicUnderSeed(t *testing.T) {
	t.Parallel()

	x, y, w := separableData(120, 2)
	names := []string{"a", "b", "c"}

	first, err := TrainForest(x, y, w, names, testEncoder(), nil, smallConfig())
	if err != nil {
		t.Fatalf("first train: %v", err)
	}
	second, err := TrainForest(x, y, w, names, testEncoder(), nil, smallConfig())
	if err != nil {
		t.Fatalf("second train: %v", err)
	}

	probes := [][]float64{
		{0.2, 0.9, 0.1},
		{10.8, 0.3, 0.7},
		{5.0, 0.5, 0.5},
	}
	for _, probe := range probes {
		p1, _ := first.PredictProba(probe)
		p2, _ := second.PredictProba(probe)
		if !reflect.DeepEqual(p1, p2) {
			t.Fatalf("same seed produced different predictions: %v vs %v", p1, p2)
		}
	}
}

func TestForestImportancesFavourInformativeFeature(t *testing.T) {
	t.Parallel()

	x, y, w := separableData(200, 3)
	names := []string{"a", "b", "c"}

	forest, err := TrainForest(x, y, w, names, testEncoder(), nil, smallConfig())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}

	var total float64
	for _, v := range forest.Importances {
		total += v
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Errorf("importances should sum to 1, got %f", total)
	}
	if forest.Importances[0] < forest.Importances[1] || forest.Importances[0] < forest.Importances[2] {
		t.Errorf("separating feature should dominate importances: %v", forest.Importances)
	}
}

func TestForestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	x, y, w := separableData(80, 4)
	forest, err := TrainForest(x, y, w, []string{"a", "b", "c"}, testEncoder(), nil, smallConfig())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.json")
	if err := forest.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadForest(path)
	if err != nil {
		t.Fatalf("LoadForest: %v", err)
	}

	probe := []float64{0.4, 0.6, 0.2}
	p1, _ := forest.PredictProba(probe)
	p2, _ := loaded.PredictProba(probe)
	if !reflect.DeepEqual(p1, p2) {
		t.Errorf("loaded model predicts differently: %v vs %v", p1, p2)
	}
}

func TestPredictProbaImputesMissing(t *testing.T) {
	t.Parallel()

	x, y, w := separableData(100, 5)
	imputer, err := FitMedianImputer([]string{"a", "b", "c"}, x)
	if err != nil {
		t.Fatalf("FitMedianImputer: %v", err)
	}

	forest, err := TrainForest(x, y, w, []string{"a", "b", "c"}, testEncoder(), imputer, smallConfig())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}

	probs, err := forest.PredictProba([]float64{0.3, math.NaN(), math.NaN()})
	if err != nil {
		t.Fatalf("PredictProba with missing values: %v", err)
	}
	if best, _ := Best(probs); best != 0 {
		t.Errorf("missing noise features should not break classification, got class %d", best)
	}
}

func TestBestBreaksTiesTowardLowerIndex(t *testing.T) {
	t.Parallel()

	if best, _ := Best([]float64{0.4, 0.4, 0.2}); best != 0 {
		t.Errorf("tie should break to the lower index, got %d", best)
	}
}

func TestPredictProbaRejectsWrongWidth(t *testing.T) {
	t.Parallel()

	x, y, w := separableData(60, 6)
	forest, err := TrainForest(x, y, w, []string{"a", "b", "c"}, testEncoder(), nil, smallConfig())
	if err != nil {
		t.Fatalf("TrainForest: %v", err)
	}
	if _, err := forest.PredictProba([]float64{1, 2}); err == nil {
		t.Error("short feature vector must be rejected")
	}
}
