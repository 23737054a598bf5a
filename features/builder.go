package features

// Feature assembly for one region.
//
// The builder runs the extractors in a fixed order over a region's segments
// and produces schema-complete records. Extractors are optional: a missing
// grid or site set leaves its column group NaN and the region still
// proceeds, with coverage logged so thin regions are visible.

import (
	"log/slog"
	"math"

	"tidal-atlas/coastal"
	"tidal-atlas/models"
	"tidal-atlas/physical"
	"tidal-atlas/spatial"
	"tidal-atlas/typology"
	"tidal-atlas/utils"
)

// Builder assembles feature records from a region's network and context
// layers.
type Builder struct {
	engine    *spatial.Engine
	joiner    *typology.Joiner
	temp      *physical.Sampler
	discharge *physical.Sampler
	coastEx   *coastal.Extractor
	logger    *slog.Logger
}

// NewBuilder wires the extractors. joiner, temp, discharge and coastEx may
// be nil when their inputs are unavailable.
func NewBuilder(engine *spatial.Engine, joiner *typology.Joiner, temp, discharge *physical.Sampler, coastEx *coastal.Extractor) *Builder {
	return &Builder{
		engine:    engine,
		joiner:    joiner,
		temp:      temp,
		discharge: discharge,
		coastEx:   coastEx,
		logger:    utils.GetLogger(),
	}
}

// Build produces one record per segment.
func (b *Builder) Build(segments []models.Segment) []Record {
	distances := b.engine.DistanceAll(segments)

	var typologyTypes map[string]typology.Assignment
	if b.joiner != nil {
		typologyTypes = b.joiner.Assign(segments)
	}

	records := make([]Record, 0, len(segments))
	tempMissing := 0
	for _, seg := range segments {
		dist := distances[seg.ID]
		values := make(map[string]float64, len(Columns()))

		values["dist_to_coast_km"] = dist.Km
		values["length_km"] = seg.LengthKm
		values["upstream_area_km2"] = seg.UpstreamAreaKm2
		values["strahler_order"] = seg.StrahlerOrder
		values["abs_latitude"] = math.Abs(seg.Centroid.Lat())
		values["log_dist_to_coast"] = math.Log1p(dist.Km)
		values["log_upstream_area"] = log1pOrNaN(seg.UpstreamAreaKm2)
		values["dist_x_strahler"] = productOrNaN(dist.Km, seg.StrahlerOrder)
		values["area_per_length"] = areaPerLength(seg.UpstreamAreaKm2, seg.LengthKm)

		values["estuary_type"] = 0
		if assignment, ok := typologyTypes[seg.ID]; ok {
			values["estuary_type"] = typology.ModelCode(assignment.TypeCode)
		}

		if b.temp != nil {
			values["water_temp_c"] = b.temp.At(seg.Centroid.Lat(), seg.Centroid.Lon())
		} else {
			values["water_temp_c"] = math.NaN()
		}
		if math.IsNaN(values["water_temp_c"]) {
			tempMissing++
		}

		if b.coastEx != nil {
			for col, v := range b.coastEx.Features(seg.Centroid.Lat(), seg.Centroid.Lon(), dist.Km) {
				values[col] = v
			}
		} else {
			for _, col := range coastal.Columns() {
				values[col] = math.NaN()
			}
		}

		rec := Record{
			SegmentID:     seg.ID,
			Region:        seg.Region,
			SchemaVersion: SchemaVersion,
			DistMethod:    dist.Method,
			HasLabel:      seg.HasLabel,
			LabelSalinity: seg.LabelSalinity,
			DischargeM3s:  math.NaN(),
			Values:        values,
		}
		if b.discharge != nil {
			rec.DischargeM3s = b.discharge.At(seg.Centroid.Lat(), seg.Centroid.Lon())
		}
		records = append(records, rec)
	}

	if tempMissing > 0 {
		b.logger.Warn("segments without water temperature coverage",
			slog.Int("count", tempMissing),
			slog.Int("total", len(segments)))
	}

	return records
}

func log1pOrNaN(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return math.NaN()
	}
	return math.Log1p(v)
}

func productOrNaN(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	return a * b
}

// areaPerLength is upstream area normalised by segment length. The +1
// stabilises very short segments.
func areaPerLength(areaKm2, lengthKm float64) float64 {
	if math.IsNaN(areaKm2) || math.IsNaN(lengthKm) || lengthKm < 0 {
		return math.NaN()
	}
	return areaKm2 / (lengthKm + 1)
}
