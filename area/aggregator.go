package area

// Surface-area aggregation by salinity class.
//
// The headline product of the pipeline after the classification itself:
// how much river surface sits in each salinity regime, per region and
// globally. Segment areas come from the network's surface-area attribute;
// regions whose network lacks it can supply water polygons instead, whose
// areas are measured on a local equal-area projection.

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"tidal-atlas/models"
	"tidal-atlas/stats"
)

// ClassSummary aggregates one salinity class.
type ClassSummary struct {
	Class     string  `json:"class"`
	Segments  int     `json:"segments"`
	TotalKm2  float64 `json:"total_km2"`
	MeanKm2   float64 `json:"mean_km2"`
	MedianKm2 float64 `json:"median_km2"`
	AreaShare float64 `json:"area_share"`
}

// Summary aggregates one region, or the globe when Region is "GLOBAL".
type Summary struct {
	Region        string         `json:"region"`
	Segments      int            `json:"segments"`
	Classes       []ClassSummary `json:"classes"`
	TotalKm2      float64        `json:"total_km2"`
	EstuarineKm2  float64        `json:"estuarine_km2"`
	FreshwaterKm2 float64        `json:"freshwater_km2"`
}

// Summarize aggregates a region's classified segments. Segments without a
// usable surface area contribute to counts but not to area totals.
func Summarize(region string, segments []models.Segment, results []models.Classification) Summary {
	areaByID := make(map[string]float64, len(segments))
	for _, seg := range segments {
		areaByID[seg.ID] = seg.SurfaceAreaKm2
	}

	type bucket struct {
		count int
		areas []float64
	}
	buckets := make(map[models.SalinityClass]*bucket)
	for _, class := range models.VeniceOrder {
		buckets[class] = &bucket{}
	}

	summary := Summary{Region: region}
	for _, res := range results {
		b, ok := buckets[res.Class]
		if !ok {
			continue
		}
		summary.Segments++
		b.count++
		if a, ok := areaByID[res.SegmentID]; ok && !math.IsNaN(a) && a > 0 {
			b.areas = append(b.areas, a)
		}
	}

	for _, class := range models.VeniceOrder {
		b := buckets[class]
		cs := ClassSummary{Class: string(class), Segments: b.count}
		if len(b.areas) > 0 {
			var total float64
			for _, a := range b.areas {
				total += a
			}
			cs.TotalKm2 = total
			cs.MeanKm2 = stats.Mean(b.areas)
			cs.MedianKm2 = stats.Median(b.areas)
		}
		summary.Classes = append(summary.Classes, cs)
		summary.TotalKm2 += cs.TotalKm2
		if class.IsEstuarine() {
			summary.EstuarineKm2 += cs.TotalKm2
		} else {
			summary.FreshwaterKm2 += cs.TotalKm2
		}
	}

	for i := range summary.Classes {
		if summary.TotalKm2 > 0 {
			summary.Classes[i].AreaShare = summary.Classes[i].TotalKm2 / summary.TotalKm2
		}
	}

	return summary
}

// Combine rolls regional summaries up into the global one. Class ordering
// stays in Venice order.
func Combine(regions []Summary) Summary {
	global := Summary{Region: "GLOBAL"}

	classTotals := make(map[string]*ClassSummary)
	for _, class := range models.VeniceOrder {
		classTotals[string(class)] = &ClassSummary{Class: string(class)}
	}

	for _, r := range regions {
		global.Segments += r.Segments
		global.TotalKm2 += r.TotalKm2
		global.EstuarineKm2 += r.EstuarineKm2
		global.FreshwaterKm2 += r.FreshwaterKm2
		for _, cs := range r.Classes {
			agg := classTotals[cs.Class]
			if agg == nil {
				continue
			}
			agg.Segments += cs.Segments
			agg.TotalKm2 += cs.TotalKm2
		}
	}

	for _, class := range models.VeniceOrder {
		cs := *classTotals[string(class)]
		if cs.Segments > 0 {
			cs.MeanKm2 = cs.TotalKm2 / float64(cs.Segments)
		}
		if global.TotalKm2 > 0 {
			cs.AreaShare = cs.TotalKm2 / global.TotalKm2
		}
		global.Classes = append(global.Classes, cs)
	}

	return global
}

// Save writes a summary as indented JSON.
func Save(path string, summary Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling area summary: %s", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing area summary: %s", err)
	}
	return nil
}

// Kilometers per degree of latitude, and of longitude at the equator.
const (
	kmPerDegLat = 110.574
	kmPerDegLon = 111.320
)

// PolygonAreaKm2 measures a geographic polygon on a local equal-area
// approximation: longitudes are scaled by the cosine of the polygon's mean
// latitude before taking the planar area. Adequate for the water polygons
// this pipeline sees, which span fractions of a degree.
func PolygonAreaKm2(poly orb.Polygon) float64 {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return 0
	}

	var latSum float64
	for _, p := range poly[0] {
		latSum += p.Lat()
	}
	meanLat := latSum / float64(len(poly[0]))
	cosLat := math.Cos(meanLat * math.Pi / 180)

	projected := make(orb.Polygon, len(poly))
	for i, ring := range poly {
		projRing := make(orb.Ring, len(ring))
		for j, p := range ring {
			projRing[j] = orb.Point{p.Lon() * kmPerDegLon * cosLat, p.Lat() * kmPerDegLat}
		}
		projected[i] = projRing
	}

	return math.Abs(planar.Area(projected))
}

// ApplyPolygonAreas overwrites segment surface areas from matched water
// polygons, for networks that ship geometry but no area attribute.
func ApplyPolygonAreas(segments []models.Segment, polygons []orb.Polygon, segmentIDs []string) []models.Segment {
	areaByID := make(map[string]float64, len(polygons))
	for i, poly := range polygons {
		if i >= len(segmentIDs) || segmentIDs[i] == "" {
			continue
		}
		areaByID[segmentIDs[i]] += PolygonAreaKm2(poly)
	}

	out := make([]models.Segment, len(segments))
	copy(out, segments)
	for i := range out {
		if a, ok := areaByID[out[i].ID]; ok && a > 0 {
			out[i].SurfaceAreaKm2 = a
		}
	}
	return out
}
