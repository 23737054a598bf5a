package ml

// Hybrid model training.
//
// Two ensembles are trained from the labeled segments of every region except
// the spatial holdout: an inland model on the base feature set, and a
// coastal model on the base set plus the coastal indicator group, fitted
// only to segments near the coast. The holdout region is excluded before
// anything else touches the data and its name is written to a marker file;
// the validator refuses to score any other region against that marker.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/models"
	"tidal-atlas/utils"
)

// Artifact file names under the model directory.
const (
	InlandModelFile   = "inland_model.json"
	CoastalModelFile  = "coastal_model.json"
	HoldoutMarkerFile = "holdout_region.txt"
	FeatureColumnFile = "feature_columns.txt"
	ImportanceFile    = "feature_importance.txt"
	TrainReportFile   = "train_report.json"
)

// TrainReport summarises a training run. The internal accuracies come from
// the 20% random split and are optimistic by construction; the spatial
// holdout number from the validator is the one that counts.
type TrainReport struct {
	HoldoutRegion      string         `json:"holdout_region"`
	TrainingRegions    []string       `json:"training_regions"`
	LabeledSegments    int            `json:"labeled_segments"`
	CoastalSegments    int            `json:"coastal_segments"`
	ClassCounts        map[string]int `json:"class_counts"`
	InlandInternalAcc  float64        `json:"inland_internal_accuracy"`
	CoastalInternalAcc float64        `json:"coastal_internal_accuracy"`
}

// Trainer fits and persists the hybrid model pair.
type Trainer struct {
	cfg    config.Config
	store  *features.Store
	logger *slog.Logger
}

// NewTrainer wires a trainer against the feature store.
func NewTrainer(cfg config.Config, store *features.Store) *Trainer {
	return &Trainer{cfg: cfg, store: store, logger: utils.GetLogger()}
}

// Train runs the full training pass and writes all artifacts.
func (t *Trainer) Train() (*TrainReport, error) {
	if err := utils.CreateFolder(t.cfg.ModelDir); err != nil {
		return nil, err
	}

	// The marker is written before any data is read, so a crashed run can
	// never leave models on disk without their leakage guard.
	if err := t.writeHoldoutMarker(); err != nil {
		return nil, err
	}

	records, err := t.loadLabeledRecords()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no labeled segments in training regions")
	}

	labels := make([]models.SalinityClass, len(records))
	for i, rec := range records {
		labels[i] = models.ClassifySalinity(rec.LabelSalinity)
	}
	encoder := NewLabelEncoder(labels)
	y, err := encoder.Encode(labels)
	if err != nil {
		return nil, err
	}

	report := &TrainReport{
		HoldoutRegion:   t.cfg.HoldoutRegion,
		TrainingRegions: t.cfg.TrainingRegions(),
		LabeledSegments: len(records),
		ClassCounts:     classCounts(labels),
	}

	forestCfg := ForestConfig{
		Trees:           t.cfg.TreeCount,
		MaxDepth:        t.cfg.MaxDepth,
		MinSamplesSplit: t.cfg.MinSamplesSplit,
		MinSamplesLeaf:  t.cfg.MinSamplesLeaf,
		Seed:            t.cfg.Seed,
	}

	all := indexRange(len(records))
	inland, inlandAcc, err := t.fitModel(records, y, all, features.InlandColumns(), encoder, forestCfg)
	if err != nil {
		return nil, fmt.Errorf("inland model: %w", err)
	}
	report.InlandInternalAcc = inlandAcc

	coastalIdx := make([]int, 0, len(records))
	for i, rec := range records {
		if rec.Dist() <= t.cfg.CoastalThresholdKm {
			coastalIdx = append(coastalIdx, i)
		}
	}
	report.CoastalSegments = len(coastalIdx)

	var coastalForest *Forest
	if len(coastalIdx) >= 2*t.cfg.MinSamplesSplit {
		coastalForest, report.CoastalInternalAcc, err = t.fitModel(
			records, y, coastalIdx, features.CoastalColumns(), encoder, forestCfg)
		if err != nil {
			return nil, fmt.Errorf("coastal model: %w", err)
		}
	} else {
		t.logger.Warn("too few coastal segments, coastal routing will fall back to the inland model",
			slog.Int("coastal_segments", len(coastalIdx)))
	}

	if err := inland.Save(filepath.Join(t.cfg.ModelDir, InlandModelFile)); err != nil {
		return nil, err
	}
	if coastalForest != nil {
		if err := coastalForest.Save(filepath.Join(t.cfg.ModelDir, CoastalModelFile)); err != nil {
			return nil, err
		}
	}
	if err := t.writeFeatureColumns(); err != nil {
		return nil, err
	}
	if err := t.writeImportances(inland, coastalForest); err != nil {
		return nil, err
	}
	if err := t.writeReport(report); err != nil {
		return nil, err
	}

	t.logger.Info("training complete",
		slog.Int("labeled_segments", report.LabeledSegments),
		slog.Int("coastal_segments", report.CoastalSegments),
		slog.Float64("inland_internal_accuracy", report.InlandInternalAcc),
		slog.Float64("coastal_internal_accuracy", report.CoastalInternalAcc))

	return report, nil
}

// fitModel trains one forest on the selected rows and columns, reporting the
// internal 80/20 accuracy alongside.
func (t *Trainer) fitModel(records []features.Record, y []int, rows []int, columns []string, encoder *LabelEncoder, cfg ForestConfig) (*Forest, float64, error) {
	trainIdx, evalIdx := stratifiedSplit(rows, y, 0.2, cfg.Seed)

	trainX := make([][]float64, len(trainIdx))
	trainY := make([]int, len(trainIdx))
	for i, idx := range trainIdx {
		trainX[i] = records[idx].Vector(columns)
		trainY[i] = y[idx]
	}

	imputer, err := FitMedianImputer(columns, trainX)
	if err != nil {
		return nil, 0, err
	}
	trainX = imputer.TransformAll(trainX)

	weights := balancedWeights(trainY, len(encoder.Classes))

	forest, err := TrainForest(trainX, trainY, weights, columns, encoder, imputer, cfg)
	if err != nil {
		return nil, 0, err
	}

	correct := 0
	for _, idx := range evalIdx {
		probs, err := forest.PredictProba(records[idx].Vector(columns))
		if err != nil {
			return nil, 0, err
		}
		if best, _ := Best(probs); best == y[idx] {
			correct++
		}
	}
	acc := 0.0
	if len(evalIdx) > 0 {
		acc = float64(correct) / float64(len(evalIdx))
	}

	return forest, acc, nil
}

func (t *Trainer) loadLabeledRecords() ([]features.Record, error) {
	var out []features.Record
	for _, region := range t.cfg.TrainingRegions() {
		if region == t.cfg.HoldoutRegion {
			return nil, &models.LeakageError{
				HoldoutRegion:   t.cfg.HoldoutRegion,
				RequestedRegion: region,
			}
		}
		records, err := t.store.LoadRecords(region)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			if rec.HasLabel {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}

func (t *Trainer) writeHoldoutMarker() error {
	path := filepath.Join(t.cfg.ModelDir, HoldoutMarkerFile)
	if err := os.WriteFile(path, []byte(t.cfg.HoldoutRegion+"\n"), 0644); err != nil {
		return fmt.Errorf("error writing holdout marker: %s", err)
	}
	return nil
}

// ReadHoldoutMarker returns the holdout region recorded at training time.
func ReadHoldoutMarker(modelDir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(modelDir, HoldoutMarkerFile))
	if err != nil {
		return "", fmt.Errorf("error reading holdout marker: %s", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (t *Trainer) writeFeatureColumns() error {
	var b strings.Builder
	b.WriteString("# inland\n")
	for _, c := range features.InlandColumns() {
		b.WriteString(c + "\n")
	}
	b.WriteString("# coastal\n")
	for _, c := range features.CoastalColumns() {
		b.WriteString(c + "\n")
	}
	path := filepath.Join(t.cfg.ModelDir, FeatureColumnFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("error writing feature columns: %s", err)
	}
	return nil
}

func (t *Trainer) writeImportances(inland, coastalForest *Forest) error {
	var b strings.Builder
	writeRanking(&b, "inland", inland)
	if coastalForest != nil {
		writeRanking(&b, "coastal", coastalForest)
	}
	path := filepath.Join(t.cfg.ModelDir, ImportanceFile)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("error writing importances: %s", err)
	}
	return nil
}

func writeRanking(b *strings.Builder, name string, f *Forest) {
	type ranked struct {
		name  string
		share float64
	}
	rows := make([]ranked, len(f.FeatureNames))
	for i, col := range f.FeatureNames {
		rows[i] = ranked{name: col, share: f.Importances[i]}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].share != rows[j].share {
			return rows[i].share > rows[j].share
		}
		return rows[i].name < rows[j].name
	})

	fmt.Fprintf(b, "# %s\n", name)
	for _, r := range rows {
		fmt.Fprintf(b, "%-40s %.4f\n", r.name, r.share)
	}
}

func (t *Trainer) writeReport(report *TrainReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling report: %s", err)
	}
	path := filepath.Join(t.cfg.ModelDir, TrainReportFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing report: %s", err)
	}
	return nil
}

// stratifiedSplit shuffles each class separately and carves off evalFrac of
// every class, so rare classes appear on both sides of the split.
func stratifiedSplit(rows []int, y []int, evalFrac float64, seed int64) (train, eval []int) {
	byClass := make(map[int][]int)
	for _, idx := range rows {
		byClass[y[idx]] = append(byClass[y[idx]], idx)
	}

	classes := make([]int, 0, len(byClass))
	for class := range byClass {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, class := range classes {
		members := byClass[class]
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		cut := len(members) - int(float64(len(members))*evalFrac)
		if cut < 1 {
			cut = 1
		}
		train = append(train, members[:cut]...)
		eval = append(eval, members[cut:]...)
	}

	sort.Ints(train)
	sort.Ints(eval)
	return train, eval
}

// balancedWeights gives each class total weight n/k, the standard balanced
// scheme, so the dominant Freshwater class cannot swamp the split criterion.
func balancedWeights(y []int, classCount int) []float64 {
	counts := make([]float64, classCount)
	for _, label := range y {
		counts[label]++
	}

	weights := make([]float64, len(y))
	n := float64(len(y))
	k := float64(classCount)
	for i, label := range y {
		weights[i] = n / (k * counts[label])
	}
	return weights
}

func classCounts(labels []models.SalinityClass) map[string]int {
	out := make(map[string]int)
	for _, l := range labels {
		out[string(l)]++
	}
	return out
}

func indexRange(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
