package pipeline

// Region stage implementations.
//
// Each stage is a self-contained pass over one region: load what it needs,
// do its work, persist, return. Stages tolerate missing optional inputs
// (grids, typology, coastal sites) by degrading the affected feature group
// to missing; they fail the region on structural problems (no network,
// schema mismatch, no models).

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"

	"tidal-atlas/area"
	"tidal-atlas/coastal"
	"tidal-atlas/config"
	"tidal-atlas/features"
	"tidal-atlas/geometry"
	"tidal-atlas/ml"
	"tidal-atlas/models"
	"tidal-atlas/physical"
	"tidal-atlas/spatial"
	"tidal-atlas/typology"
	"tidal-atlas/utils"
)

// ExtractRegion builds and stores the feature records of one region.
func ExtractRegion(ctx context.Context, cfg config.Config, store *features.Store, region string) error {
	logger := utils.GetLogger()

	segments, err := geometry.LoadSegments(cfg.DataDir, region)
	if err != nil {
		return err
	}
	nodes, err := geometry.LoadNodes(cfg.DataDir, region)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	engine := spatial.NewEngine(nodes)

	var joiner *typology.Joiner
	if zones, err := geometry.LoadTypologyZones(cfg.DataDir); err != nil {
		logger.Warn("typology layer unavailable, estuary types default to non-estuary",
			slog.String("region", region), slog.Any("error", err))
	} else {
		joiner = typology.NewJoiner(zones)
	}

	temp := loadOptionalSampler(cfg.DataDir, physical.WaterTemperature, region)
	discharge := loadOptionalSampler(cfg.DataDir, physical.Discharge, region)

	var coastEx *coastal.Extractor
	if sites, err := coastal.LoadSites(cfg.DataDir); err != nil {
		logger.Warn("coastal sites unavailable, indicator group stays missing",
			slog.String("region", region), slog.Any("error", err))
	} else {
		coastEx = coastal.NewExtractor(sites, cfg.MatchRadiusDeg, cfg.CoastalContextKm)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	builder := features.NewBuilder(engine, joiner, temp, discharge, coastEx)
	records := builder.Build(segments)

	if err := store.UpsertRecords(records); err != nil {
		return err
	}

	logger.Info("feature extraction complete",
		slog.String("region", region),
		slog.Int("segments", len(records)),
		slog.String("schema", features.SchemaVersion))
	return nil
}

// Extractor group names accepted by RefreshRegionGroup.
const (
	GroupCoastal  = "coastal"
	GroupPhysical = "physical"
)

// RefreshRegionGroup re-runs one extractor over a region's already-extracted
// rows and overwrites only that extractor's columns. A new coastal site set
// or an updated physical grid can roll out without a full re-extraction; the
// stored distances and derived features stay untouched.
func RefreshRegionGroup(ctx context.Context, cfg config.Config, store *features.Store, region, group string) error {
	records, err := store.LoadRecords(region)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("region %s has no extracted features to refresh", region)
	}

	segments, err := geometry.LoadSegments(cfg.DataDir, region)
	if err != nil {
		return err
	}
	centroids := make(map[string]orb.Point, len(segments))
	for _, seg := range segments {
		centroids[seg.ID] = seg.Centroid
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	groups := make(map[string]map[string]float64, len(records))

	switch group {
	case GroupCoastal:
		sites, err := coastal.LoadSites(cfg.DataDir)
		if err != nil {
			return err
		}
		coastEx := coastal.NewExtractor(sites, cfg.MatchRadiusDeg, cfg.CoastalContextKm)
		for _, rec := range records {
			c, ok := centroids[rec.SegmentID]
			if !ok {
				continue
			}
			groups[rec.SegmentID] = coastEx.Features(c.Lat(), c.Lon(), rec.Dist())
		}

	case GroupPhysical:
		temp := loadOptionalSampler(cfg.DataDir, physical.WaterTemperature, region)
		discharge := loadOptionalSampler(cfg.DataDir, physical.Discharge, region)
		if temp == nil && discharge == nil {
			return fmt.Errorf("region %s has no physical grids to refresh from", region)
		}
		discharges := make(map[string]float64, len(records))
		for _, rec := range records {
			c, ok := centroids[rec.SegmentID]
			if !ok {
				continue
			}
			if temp != nil {
				groups[rec.SegmentID] = map[string]float64{"water_temp_c": temp.At(c.Lat(), c.Lon())}
			}
			if discharge != nil {
				discharges[rec.SegmentID] = discharge.At(c.Lat(), c.Lon())
			}
		}
		if discharge != nil {
			if err := store.UpdateDischarge(region, discharges); err != nil {
				return err
			}
		}

	default:
		return fmt.Errorf("unknown extractor group %q (want %s or %s)", group, GroupCoastal, GroupPhysical)
	}

	if len(groups) > 0 {
		if err := store.UpdateColumnGroup(region, groups); err != nil {
			return err
		}
	}

	utils.GetLogger().Info("column group refreshed",
		slog.String("region", region),
		slog.String("group", group),
		slog.Int("segments", len(groups)))
	return nil
}

func loadOptionalSampler(dataDir string, spec physical.VariableSpec, region string) *physical.Sampler {
	sampler, err := physical.LoadSampler(dataDir, spec)
	if err != nil {
		var missing *models.MissingInputError
		if errors.As(err, &missing) {
			utils.GetLogger().Warn("physical grid unavailable, variable stays missing",
				slog.String("region", region),
				slog.String("variable", spec.Name))
			return nil
		}
		utils.GetLogger().Warn("physical grid unusable",
			slog.String("region", region),
			slog.String("variable", spec.Name),
			slog.Any("error", err))
		return nil
	}
	return sampler
}

// PredictRegion classifies one region's stored features with the persisted
// models and writes both the store rows and a JSON export.
func PredictRegion(ctx context.Context, cfg config.Config, store *features.Store, region string) error {
	records, err := store.LoadRecords(region)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("region %s has no extracted features", region)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	predictor, err := ml.LoadPredictor(cfg.ModelDir, ml.RuleConfig{
		CoastalThresholdKm: cfg.CoastalThresholdKm,
		HardRuleKm:         cfg.HardRuleKm,
		SoftRuleKm:         cfg.SoftRuleKm,
	})
	if err != nil {
		return err
	}

	results, err := predictor.ClassifyAll(records)
	if err != nil {
		return err
	}
	if err := store.StoreClassifications(results); err != nil {
		return err
	}
	return exportClassifications(cfg.OutputDir, region, results)
}

func exportClassifications(outputDir, region string, results []models.Classification) error {
	if err := utils.CreateFolder(outputDir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling classifications: %s", err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("classifications_%s.json", region))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing classifications: %s", err)
	}
	return nil
}

// AreaRegion aggregates one region's surface areas and writes the summary.
func AreaRegion(ctx context.Context, cfg config.Config, store *features.Store, region string) (area.Summary, error) {
	segments, err := geometry.LoadSegments(cfg.DataDir, region)
	if err != nil {
		return area.Summary{}, err
	}

	// Networks without an area attribute can ship water polygons instead.
	if polygons, ids, err := geometry.LoadWaterPolygons(cfg.DataDir, region); err == nil && len(polygons) > 0 {
		segments = area.ApplyPolygonAreas(segments, polygons, ids)
	}

	if err := ctx.Err(); err != nil {
		return area.Summary{}, err
	}

	results, err := store.LoadClassifications(region)
	if err != nil {
		return area.Summary{}, err
	}
	if len(results) == 0 {
		return area.Summary{}, fmt.Errorf("region %s has no classifications", region)
	}

	summary := area.Summarize(region, segments, results)

	if err := utils.CreateFolder(cfg.OutputDir); err != nil {
		return area.Summary{}, err
	}
	path := filepath.Join(cfg.OutputDir, fmt.Sprintf("surface_areas_%s.json", region))
	if err := area.Save(path, summary); err != nil {
		return area.Summary{}, err
	}
	return summary, nil
}

// GlobalAreas combines the per-region summaries into the global rollup.
func GlobalAreas(cfg config.Config, summaries []area.Summary) error {
	global := area.Combine(summaries)
	path := filepath.Join(cfg.OutputDir, "surface_areas_global.json")
	if err := area.Save(path, global); err != nil {
		return err
	}
	utils.GetLogger().Info("global surface areas written",
		slog.Float64("total_km2", global.TotalKm2),
		slog.Float64("estuarine_km2", global.EstuarineKm2),
		slog.Float64("freshwater_km2", global.FreshwaterKm2))
	return nil
}
