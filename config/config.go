package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"tidal-atlas/models"
	"tidal-atlas/utils"
)

// Config carries every tunable of the pipeline. It is built once at startup
// and passed by value into component constructors; nothing reads the
// environment after Load returns.
type Config struct {
	// Directory layout.
	DataDir   string // per-region network, typology, grids, coastal sites
	ModelDir  string // trained model artifacts
	OutputDir string // classifications, reports, summaries
	DBPath    string // SQLite feature store

	// Region handling.
	Regions       []string
	HoldoutRegion string

	// Distance thresholds (km).
	CoastalThresholdKm float64 // routes segments to the coastal model
	CoastalContextKm   float64 // max distance for coastal indicator matching
	HardRuleKm         float64 // estuarine beyond this is overridden outright
	SoftRuleKm         float64 // low-confidence estuarine beyond this is overridden

	// Coastal indicator matching radius, in degrees.
	MatchRadiusDeg float64

	// Ensemble hyperparameters.
	TreeCount       int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64

	// Orchestration.
	RegionWorkers int
	RegionTimeout time.Duration
}

// Load reads .env (when present) and assembles the configuration.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DataDir:   utils.GetEnv("ATLAS_DATA_DIR", "data"),
		ModelDir:  utils.GetEnv("ATLAS_MODEL_DIR", "artifacts"),
		OutputDir: utils.GetEnv("ATLAS_OUTPUT_DIR", "output"),
		DBPath:    utils.GetEnv("ATLAS_DB_PATH", "db/features.db"),

		Regions:       parseRegions(utils.GetEnv("ATLAS_REGIONS", strings.Join(models.Regions, ","))),
		HoldoutRegion: utils.GetEnv("ATLAS_HOLDOUT_REGION", "SP"),

		CoastalThresholdKm: utils.GetEnvFloat("ATLAS_COASTAL_THRESHOLD_KM", 50),
		CoastalContextKm:   utils.GetEnvFloat("ATLAS_COASTAL_CONTEXT_KM", 100),
		HardRuleKm:         utils.GetEnvFloat("ATLAS_HARD_RULE_KM", 200),
		SoftRuleKm:         utils.GetEnvFloat("ATLAS_SOFT_RULE_KM", 100),
		MatchRadiusDeg:     utils.GetEnvFloat("ATLAS_MATCH_RADIUS_DEG", 0.05),

		TreeCount:       utils.GetEnvInt("ATLAS_TREE_COUNT", 200),
		MaxDepth:        utils.GetEnvInt("ATLAS_MAX_DEPTH", 20),
		MinSamplesSplit: utils.GetEnvInt("ATLAS_MIN_SAMPLES_SPLIT", 30),
		MinSamplesLeaf:  utils.GetEnvInt("ATLAS_MIN_SAMPLES_LEAF", 10),
		Seed:            int64(utils.GetEnvInt("ATLAS_SEED", 42)),

		RegionWorkers: utils.GetEnvInt("ATLAS_REGION_WORKERS", 3),
		RegionTimeout: time.Duration(utils.GetEnvInt("ATLAS_REGION_TIMEOUT_MIN", 120)) * time.Minute,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if !models.IsKnownRegion(c.HoldoutRegion) {
		return fmt.Errorf("unknown holdout region: %s", c.HoldoutRegion)
	}
	for _, r := range c.Regions {
		if !models.IsKnownRegion(r) {
			return fmt.Errorf("unknown region: %s", r)
		}
	}
	if c.SoftRuleKm >= c.HardRuleKm {
		return fmt.Errorf("soft rule distance (%.0f) must be below hard rule distance (%.0f)",
			c.SoftRuleKm, c.HardRuleKm)
	}
	if c.CoastalThresholdKm <= 0 || c.TreeCount <= 0 || c.MaxDepth <= 0 {
		return fmt.Errorf("invalid model configuration")
	}
	return nil
}

// TrainingRegions returns the configured regions minus the spatial holdout.
func (c Config) TrainingRegions() []string {
	out := make([]string, 0, len(c.Regions))
	for _, r := range c.Regions {
		if r != c.HoldoutRegion {
			out = append(out, r)
		}
	}
	return out
}

func parseRegions(raw string) []string {
	parts := strings.Split(raw, ",")
	regions := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			regions = append(regions, p)
		}
	}
	return regions
}
