package features

import "math"

// Record is the stored feature row for one segment.
type Record struct {
	SegmentID     string
	Region        string
	SchemaVersion string
	// DistMethod records how dist_to_coast_km was computed; the
	// latitude proxy marks the row's distance as degraded.
	DistMethod    string
	HasLabel      bool
	LabelSalinity float64
	// DischargeM3s rides along as row metadata for the validator's
	// intrusion-length check. It is not part of the feature schema.
	DischargeM3s float64
	Values       map[string]float64
}

// Dist returns the distance to coast, NaN when never computed.
func (r Record) Dist() float64 {
	if v, ok := r.Values["dist_to_coast_km"]; ok {
		return v
	}
	return math.NaN()
}

// Vector projects the record onto an ordered column list. Absent columns
// come back as NaN so downstream imputation treats them as missing.
func (r Record) Vector(columns []string) []float64 {
	vec := make([]float64, len(columns))
	for i, col := range columns {
		if v, ok := r.Values[col]; ok {
			vec[i] = v
		} else {
			vec[i] = math.NaN()
		}
	}
	return vec
}

// ColumnNames returns the record's stored column names.
func (r Record) ColumnNames() []string {
	names := make([]string, 0, len(r.Values))
	for name := range r.Values {
		names = append(names, name)
	}
	return names
}
