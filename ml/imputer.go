package ml

import (
	"errors"
	"math"

	"tidal-atlas/stats"
)

// MedianImputer fills missing feature values with per-column medians learned
// from the training fold. Imputation happens at train and predict time only;
// stored features keep their NaN sentinel so missing never turns into a
// silent zero.
type MedianImputer struct {
	Columns []string  `json:"columns"`
	Medians []float64 `json:"medians"`
}

// FitMedianImputer computes column medians over the finite entries of a
// training matrix. Columns that are missing everywhere impute to zero, which
// makes them constant and therefore uninformative to the trees.
func FitMedianImputer(columns []string, matrix [][]float64) (*MedianImputer, error) {
	if len(matrix) == 0 {
		return nil, errors.New("no rows to fit imputer on")
	}
	for _, row := range matrix {
		if len(row) != len(columns) {
			return nil, errors.New("inconsistent feature dimensions")
		}
	}

	medians := make([]float64, len(columns))
	column := make([]float64, len(matrix))
	for j := range columns {
		for i, row := range matrix {
			column[i] = row[j]
		}
		m := stats.FiniteMedian(column)
		if math.IsNaN(m) {
			m = 0
		}
		medians[j] = m
	}

	return &MedianImputer{Columns: columns, Medians: medians}, nil
}

// Transform returns a copy of the vector with NaN entries replaced.
func (imp *MedianImputer) Transform(vec []float64) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		if i < len(imp.Medians) && math.IsNaN(v) {
			out[i] = imp.Medians[i]
		} else {
			out[i] = v
		}
	}
	return out
}

// TransformAll imputes every row of a matrix.
func (imp *MedianImputer) TransformAll(matrix [][]float64) [][]float64 {
	out := make([][]float64, len(matrix))
	for i, row := range matrix {
		out[i] = imp.Transform(row)
	}
	return out
}
