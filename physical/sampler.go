package physical

import (
	"log/slog"
	"math"
	"path/filepath"

	"tidal-atlas/models"
	"tidal-atlas/stats"
	"tidal-atlas/utils"
)

// VariableSpec describes how one physical variable is sanitized.
type VariableSpec struct {
	// Name is both the grid filename stem and the feature column name.
	Name string
	// MinValid and MaxValid bound physically plausible values after unit
	// conversion. Samples outside the bounds become missing, never clamped:
	// a clamped artifact would masquerade as a real extreme.
	MinValid float64
	MaxValid float64
	// MaybeKelvin enables the Kelvin-offset heuristic for temperature
	// grids whose metadata does not state the unit.
	MaybeKelvin bool
}

// Variable specs of the pipeline. Water temperature is the only physical
// variable that becomes a model feature; discharge feeds the validator's
// intrusion-length check and is kept out of the feature sets because the
// same hydrological model family produced the training labels' companions.
var (
	WaterTemperature = VariableSpec{
		Name:        "water_temp_c",
		MinValid:    -2,
		MaxValid:    40,
		MaybeKelvin: true,
	}
	Discharge = VariableSpec{
		Name:     "discharge_m3s",
		MinValid: 0,
		MaxValid: 300000,
	}
)

// Clip percentiles applied to each field before sampling. Values outside the
// [2, 98] percentile envelope are grid artifacts more often than hydrology.
const (
	clipLowPct  = 2
	clipHighPct = 98
)

// kelvinOffset converts absolute temperatures; the heuristic threshold tells
// Kelvin grids (median near 280) from Celsius grids (median below 40).
const (
	kelvinOffset          = 273.15
	kelvinDetectThreshold = 100
)

// Sampler answers point queries against one sanitized physical field.
type Sampler struct {
	spec    VariableSpec
	field   *Field
	lowCut  float64
	highCut float64
}

// LoadSampler loads the grid for a variable and prepares it for sampling.
// A missing grid file is reported as a MissingInputError so callers can
// degrade to missing features instead of failing the region.
func LoadSampler(dataDir string, spec VariableSpec) (*Sampler, error) {
	path := filepath.Join(dataDir, "grids", spec.Name+".json")
	grid, err := LoadGrid(path)
	if err != nil {
		return nil, &models.MissingInputError{Path: path, Variable: spec.Name}
	}
	return NewSampler(grid, spec), nil
}

// NewSampler collapses a grid to its recent-decade mean, applies unit
// detection, and computes the percentile clip bounds.
func NewSampler(grid *Grid, spec VariableSpec) *Sampler {
	field := grid.RecentDecadeMean()
	logger := utils.GetLogger()

	finite := flattenFinite(field)

	if spec.MaybeKelvin && len(finite) > 0 {
		if stats.Median(finite) > kelvinDetectThreshold {
			logger.Info("temperature grid detected as Kelvin, converting",
				slog.String("variable", spec.Name))
			for i := range field.Values {
				for j := range field.Values[i] {
					if !math.IsNaN(field.Values[i][j]) {
						field.Values[i][j] -= kelvinOffset
					}
				}
			}
			for i := range finite {
				finite[i] -= kelvinOffset
			}
		}
	}

	s := &Sampler{spec: spec, field: field, lowCut: math.Inf(-1), highCut: math.Inf(1)}
	if len(finite) > 0 {
		s.lowCut = stats.Percentile(finite, clipLowPct)
		s.highCut = stats.Percentile(finite, clipHighPct)
	}
	return s
}

// Name returns the feature column this sampler fills.
func (s *Sampler) Name() string {
	return s.spec.Name
}

// At samples the field at a point. Out-of-range values, by percentile clip
// or by absolute physical bounds, come back as NaN.
func (s *Sampler) At(lat, lon float64) float64 {
	v := s.field.SampleNearest(lat, lon)
	if math.IsNaN(v) {
		return v
	}
	if v < s.lowCut || v > s.highCut {
		return math.NaN()
	}
	if v < s.spec.MinValid || v > s.spec.MaxValid {
		return math.NaN()
	}
	return v
}

// Coverage returns the fraction of points that sampled to a usable value.
func (s *Sampler) Coverage(points [][2]float64) float64 {
	if len(points) == 0 {
		return 0
	}
	hit := 0
	for _, p := range points {
		if !math.IsNaN(s.At(p[0], p[1])) {
			hit++
		}
	}
	return float64(hit) / float64(len(points))
}

func flattenFinite(f *Field) []float64 {
	out := make([]float64, 0, len(f.Lats)*len(f.Lons))
	for i := range f.Values {
		for j := range f.Values[i] {
			if v := f.Values[i][j]; !math.IsNaN(v) {
				out = append(out, v)
			}
		}
	}
	return out
}
