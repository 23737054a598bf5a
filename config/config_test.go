package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.HoldoutRegion != "SP" {
		t.Errorf("holdout = %s, want SP", cfg.HoldoutRegion)
	}
	if len(cfg.Regions) != 7 {
		t.Errorf("regions = %v, want all 7", cfg.Regions)
	}
	if cfg.CoastalThresholdKm != 50 || cfg.HardRuleKm != 200 || cfg.SoftRuleKm != 100 {
		t.Errorf("distance thresholds off: %f/%f/%f",
			cfg.CoastalThresholdKm, cfg.HardRuleKm, cfg.SoftRuleKm)
	}
	if cfg.TreeCount != 200 || cfg.Seed != 42 {
		t.Errorf("ensemble defaults off: trees=%d seed=%d", cfg.TreeCount, cfg.Seed)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ATLAS_REGIONS", "eu, na")
	t.Setenv("ATLAS_HOLDOUT_REGION", "NA")
	t.Setenv("ATLAS_TREE_COUNT", "50")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Regions) != 2 || cfg.Regions[0] != "EU" || cfg.Regions[1] != "NA" {
		t.Errorf("regions = %v, want [EU NA]", cfg.Regions)
	}
	if cfg.HoldoutRegion != "NA" {
		t.Errorf("holdout = %s, want NA", cfg.HoldoutRegion)
	}
	if cfg.TreeCount != 50 {
		t.Errorf("trees = %d, want 50", cfg.TreeCount)
	}
}

func TestLoadRejectsUnknownHoldout(t *testing.T) {
	t.Setenv("ATLAS_HOLDOUT_REGION", "XX")

	if _, err := Load(); err == nil {
		t.Fatal("unknown holdout region must be rejected")
	}
}

func TestLoadRejectsInvertedRuleDistances(t *testing.T) {
	t.Setenv("ATLAS_SOFT_RULE_KM", "250")

	if _, err := Load(); err == nil {
		t.Fatal("soft rule at or beyond the hard rule must be rejected")
	}
}

func TestTrainingRegionsExcludesHoldout(t *testing.T) {
	cfg := Config{Regions: []string{"AF", "EU", "SP"}, HoldoutRegion: "SP"}

	got := cfg.TrainingRegions()
	if len(got) != 2 {
		t.Fatalf("training regions = %v", got)
	}
	for _, r := range got {
		if r == "SP" {
			t.Error("holdout must never appear in the training regions")
		}
	}
}
