package features

import (
	"tidal-atlas/coastal"
	"tidal-atlas/models"
)

// SchemaVersion tags stored feature rows. Bump it whenever a column is
// added, removed or renamed; regions extracted under different versions must
// never be mixed into one training matrix.
const SchemaVersion = "v2"

// Base feature columns shared by both models: network topology, derived
// transforms, typology context and the physical climate proxy. Modeled
// salinity, TDS and discharge are deliberately absent; they descend from the
// same model family as the training labels and would leak the answer.
var baseColumns = []string{
	"dist_to_coast_km",
	"length_km",
	"upstream_area_km2",
	"strahler_order",
	"abs_latitude",
	"log_dist_to_coast",
	"log_upstream_area",
	"dist_x_strahler",
	"area_per_length",
	"estuary_type",
	"water_temp_c",
}

// Columns returns the complete ordered schema: base columns followed by the
// coastal indicator group. Identical for every region.
func Columns() []string {
	cols := make([]string, 0, len(baseColumns)+32)
	cols = append(cols, baseColumns...)
	cols = append(cols, coastal.Columns()...)
	return cols
}

// InlandColumns is the feature set of the inland model: everything except
// the coastal indicator group.
func InlandColumns() []string {
	cols := make([]string, len(baseColumns))
	copy(cols, baseColumns)
	return cols
}

// CoastalColumns is the feature set of the coastal model: the inland set
// plus the coastal indicators.
func CoastalColumns() []string {
	return Columns()
}

// ValidateColumns checks a stored column set against the schema. Order is
// not significant in storage, presence is.
func ValidateColumns(region string, got []string) error {
	want := Columns()

	wantSet := make(map[string]bool, len(want))
	for _, c := range want {
		wantSet[c] = true
	}
	gotSet := make(map[string]bool, len(got))
	for _, c := range got {
		gotSet[c] = true
	}

	var missing, extra []string
	for _, c := range want {
		if !gotSet[c] {
			missing = append(missing, c)
		}
	}
	for _, c := range got {
		if !wantSet[c] {
			extra = append(extra, c)
		}
	}

	if len(missing) > 0 || len(extra) > 0 {
		return &models.SchemaMismatchError{
			Region:  region,
			Version: SchemaVersion,
			Missing: missing,
			Extra:   extra,
		}
	}
	return nil
}
