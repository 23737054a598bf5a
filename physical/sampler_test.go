package physical

import (
	"math"
	"testing"
)

func TestSamplerKelvinDetection(t *testing.T) {
	t.Parallel()

	// Median near 288 K trips the Kelvin heuristic.
	grid := uniformGrid(1, []float64{0, 1}, []float64{0, 1}, 288.15)
	s := NewSampler(grid, WaterTemperature)

	got := s.At(0, 0)
	if math.Abs(got-15.0) > 1e-9 {
		t.Errorf("Kelvin grid should convert to Celsius: got %f, want 15", got)
	}
}

func TestSamplerCelsiusLeftAlone(t *testing.T) {
	t.Parallel()

	grid := uniformGrid(1, []float64{0, 1}, []float64{0, 1}, 15)
	s := NewSampler(grid, WaterTemperature)

	if got := s.At(0, 0); got != 15 {
		t.Errorf("Celsius grid must not be shifted: got %f, want 15", got)
	}
}

func TestSamplerRejectsImplausibleValues(t *testing.T) {
	t.Parallel()

	// Uniform grid keeps the percentile clip envelope degenerate at 80, so
	// the absolute bounds do the rejecting.
	grid := uniformGrid(1, []float64{0, 1}, []float64{0, 1}, 80)
	s := NewSampler(grid, WaterTemperature)

	if got := s.At(0, 0); !math.IsNaN(got) {
		t.Errorf("80 C exceeds the physical bound and must be NaN, not clamped: got %f", got)
	}
}

func TestSamplerPercentileClip(t *testing.T) {
	t.Parallel()

	// A large mostly-uniform field with one wild outlier. The outlier sits
	// beyond the 98th percentile and must come back missing.
	lats := make([]float64, 10)
	lons := make([]float64, 10)
	for i := range lats {
		lats[i] = float64(i)
		lons[i] = float64(i)
	}
	grid := uniformGrid(1, lats, lons, 12)
	grid.Values[0][0][0] = 39.5 // inside absolute bounds, outside the envelope

	s := NewSampler(grid, WaterTemperature)
	if got := s.At(0, 0); !math.IsNaN(got) {
		t.Errorf("clip outlier should sample NaN, got %f", got)
	}
	if got := s.At(5, 5); got != 12 {
		t.Errorf("ordinary cell = %f, want 12", got)
	}
}

func TestSamplerCoverage(t *testing.T) {
	t.Parallel()

	grid := uniformGrid(1, []float64{0, 1}, []float64{0, 1}, 10)
	grid.Values[0][0][0] = math.NaN()
	s := NewSampler(grid, WaterTemperature)

	points := [][2]float64{{0, 0}, {1, 1}}
	if got := s.Coverage(points); got != 0.5 {
		t.Errorf("coverage = %f, want 0.5", got)
	}
}

func TestDischargeSpecHasNoKelvinHeuristic(t *testing.T) {
	t.Parallel()

	// Large discharges would trip a naive median check; the discharge
	// variable must not enable the Kelvin conversion.
	grid := uniformGrid(1, []float64{0, 1}, []float64{0, 1}, 20000)
	s := NewSampler(grid, Discharge)

	if got := s.At(0, 0); got != 20000 {
		t.Errorf("discharge = %f, want 20000", got)
	}
}
