package ml

// Bagged ensemble of CART trees.
//
// Each tree trains on a bootstrap resample with a sqrt-sized feature subset
// per split. Every tree owns a generator seeded from the forest seed and its
// own index, so training is reproducible bit for bit regardless of how the
// per-tree work is scheduled.

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// ForestConfig are the ensemble hyperparameters.
type ForestConfig struct {
	Trees           int   `json:"trees"`
	MaxDepth        int   `json:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf"`
	Seed            int64 `json:"seed"`
}

// Forest is a trained ensemble classifier with its preprocessing state.
type Forest struct {
	Encoder      *LabelEncoder  `json:"encoder"`
	FeatureNames []string       `json:"feature_names"`
	Imputer      *MedianImputer `json:"imputer"`
	Config       ForestConfig   `json:"config"`
	Trees        []*treeNode    `json:"trees"`
	// Importances holds the normalised impurity-decrease share per feature.
	Importances []float64 `json:"importances"`
}

// TrainForest fits the ensemble. x rows must already be imputed; weights are
// the per-sample class-balancing weights.
func TrainForest(x [][]float64, y []int, weights []float64, featureNames []string, encoder *LabelEncoder, imputer *MedianImputer, cfg ForestConfig) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(x) != len(y) || len(x) != len(weights) {
		return nil, errors.New("rows, labels and weights must align")
	}
	if len(featureNames) != len(x[0]) {
		return nil, errors.New("feature names must match matrix width")
	}

	params := treeParams{
		maxDepth:         cfg.MaxDepth,
		minSamplesSplit:  cfg.MinSamplesSplit,
		minSamplesLeaf:   cfg.MinSamplesLeaf,
		classCount:       len(encoder.Classes),
		featuresPerSplit: sqrtFeatures(len(featureNames)),
	}

	trees := make([]*treeNode, cfg.Trees)
	perTreeImportances := make([][]float64, cfg.Trees)

	workers := runtime.NumCPU()
	if workers > cfg.Trees {
		workers = cfg.Trees
	}

	var wg sync.WaitGroup
	jobs := make(chan int)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				rng := rand.New(rand.NewSource(cfg.Seed + int64(t)))
				indices := bootstrapSample(rng, len(x))
				importances := make([]float64, len(featureNames))
				trees[t] = growTree(x, y, weights, indices, params, rng, importances)
				perTreeImportances[t] = importances
			}
		}()
	}
	for t := 0; t < cfg.Trees; t++ {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	return &Forest{
		Encoder:      encoder,
		FeatureNames: featureNames,
		Imputer:      imputer,
		Config:       cfg,
		Trees:        trees,
		Importances:  normaliseImportances(perTreeImportances, len(featureNames)),
	}, nil
}

func bootstrapSample(rng *rand.Rand, n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return indices
}

func normaliseImportances(perTree [][]float64, featureCount int) []float64 {
	total := make([]float64, featureCount)
	for _, imp := range perTree {
		for i, v := range imp {
			total[i] += v
		}
	}
	grand := sum(total)
	if grand > 0 {
		for i := range total {
			total[i] /= grand
		}
	}
	return total
}

// PredictProba returns the class probability vector for a raw (possibly
// missing-valued) feature vector in the forest's column order.
func (f *Forest) PredictProba(vec []float64) ([]float64, error) {
	if len(vec) != len(f.FeatureNames) {
		return nil, fmt.Errorf("feature vector has %d entries, model expects %d",
			len(vec), len(f.FeatureNames))
	}

	imputed := vec
	if f.Imputer != nil {
		imputed = f.Imputer.Transform(vec)
	}

	probs := make([]float64, len(f.Encoder.Classes))
	for _, tree := range f.Trees {
		leaf := tree.predict(imputed)
		for i, p := range leaf {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs, nil
}

// Best returns the winning class index and probability. Ties break toward
// the fresher class so repeated predictions stay deterministic.
func Best(probs []float64) (int, float64) {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best, probs[best]
}

// Save persists the forest as JSON via a temp file and atomic rename.
func (f *Forest) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// LoadForest reads a persisted forest.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model (%s): %w", path, err)
	}
	var forest Forest
	if err := json.Unmarshal(data, &forest); err != nil {
		return nil, fmt.Errorf("unable to parse model: %w", err)
	}
	if len(forest.Trees) == 0 {
		return nil, errors.New("model has no trees")
	}
	return &forest, nil
}
