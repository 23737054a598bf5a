package physical

// Gridded physical fields.
//
// Hydrological model outputs arrive as regular lat/lon grids with one slice
// per year. The pipeline only ever needs a climatological value per segment,
// so a grid is collapsed to a single 2-d field (the mean over the most
// recent decade) before any sampling happens.

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// Grid is a regular lat/lon raster with annual time slices.
// Values is indexed [year][lat][lon]; missing cells are NaN or null in the
// serialized form.
type Grid struct {
	Variable string        `json:"variable"`
	Units    string        `json:"units"`
	Years    []int         `json:"years"`
	Lats     []float64     `json:"lats"`
	Lons     []float64     `json:"lons"`
	Values   [][][]float64 `json:"values"`
}

// LoadGrid reads a grid from its JSON serialization.
func LoadGrid(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading grid %s: %s", path, err)
	}

	var grid Grid
	if err := json.Unmarshal(data, &grid); err != nil {
		return nil, fmt.Errorf("error parsing grid %s: %s", path, err)
	}

	if len(grid.Lats) == 0 || len(grid.Lons) == 0 || len(grid.Values) == 0 {
		return nil, fmt.Errorf("grid %s has empty dimensions", path)
	}
	if len(grid.Values) != len(grid.Years) {
		return nil, fmt.Errorf("grid %s has %d time slices for %d years",
			path, len(grid.Values), len(grid.Years))
	}
	for t, slice := range grid.Values {
		if len(slice) != len(grid.Lats) {
			return nil, fmt.Errorf("grid %s slice %d has %d rows, expected %d",
				path, t, len(slice), len(grid.Lats))
		}
	}

	return &grid, nil
}

// decadeSlices is how many trailing years feed the climatological mean.
const decadeSlices = 10

// Field is a 2-d raster, the time-collapsed form of a grid.
type Field struct {
	Lats   []float64
	Lons   []float64
	Values [][]float64
}

// RecentDecadeMean collapses the grid to the per-cell mean of its last ten
// years. Cells missing in a year are skipped; cells missing in every year
// stay NaN.
func (g *Grid) RecentDecadeMean() *Field {
	start := len(g.Values) - decadeSlices
	if start < 0 {
		start = 0
	}

	values := make([][]float64, len(g.Lats))
	for i := range g.Lats {
		values[i] = make([]float64, len(g.Lons))
		for j := range g.Lons {
			var sum float64
			var n int
			for t := start; t < len(g.Values); t++ {
				v := g.Values[t][i][j]
				if math.IsNaN(v) {
					continue
				}
				sum += v
				n++
			}
			if n == 0 {
				values[i][j] = math.NaN()
			} else {
				values[i][j] = sum / float64(n)
			}
		}
	}

	return &Field{Lats: g.Lats, Lons: g.Lons, Values: values}
}

// SampleNearest returns the value of the grid cell nearest to (lat, lon),
// NaN when the point falls outside the grid extent by more than one cell.
func (f *Field) SampleNearest(lat, lon float64) float64 {
	i, ok := nearestIndex(f.Lats, lat)
	if !ok {
		return math.NaN()
	}
	j, ok := nearestIndex(f.Lons, lon)
	if !ok {
		return math.NaN()
	}
	return f.Values[i][j]
}

// nearestIndex finds the closest coordinate in a sorted axis. Points farther
// from the nearest cell than the local grid spacing are outside the extent.
func nearestIndex(axis []float64, coord float64) (int, bool) {
	if len(axis) == 0 {
		return 0, false
	}

	best := 0
	bestDist := math.Abs(axis[0] - coord)
	for i := 1; i < len(axis); i++ {
		if d := math.Abs(axis[i] - coord); d < bestDist {
			best = i
			bestDist = d
		}
	}

	spacing := 1.0
	if len(axis) > 1 {
		spacing = math.Abs(axis[1] - axis[0])
	}
	if bestDist > spacing {
		return 0, false
	}
	return best, true
}
