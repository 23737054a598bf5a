package geometry

// GeoJSON loaders for the per-region network inputs.
//
// Each region ships as a pair of FeatureCollections: line segments of the
// river network and the graph nodes (junctions, sources, outlets). Property
// names follow the network's attribute table; missing numeric attributes
// load as NaN so the feature layer can tell "absent" from zero.

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"tidal-atlas/models"
)

// LoadSegments reads the segment FeatureCollection for a region.
func LoadSegments(dataDir, region string) ([]models.Segment, error) {
	path := filepath.Join(dataDir, region, "segments.geojson")
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	segments := make([]models.Segment, 0, len(fc.Features))
	for i, feat := range fc.Features {
		line, ok := feat.Geometry.(orb.LineString)
		if !ok {
			continue
		}
		if len(line) == 0 {
			continue
		}

		centroid, _ := planar.CentroidArea(line)

		seg := models.Segment{
			ID:              propString(feat, "segment_id", fmt.Sprintf("%s_%d", region, i)),
			Region:          region,
			Geometry:        line,
			Centroid:        centroid,
			LengthKm:        propFloat(feat, "length_km"),
			UpstreamAreaKm2: propFloat(feat, "upstream_area_km2"),
			StrahlerOrder:   propFloat(feat, "strahler_order"),
			SurfaceAreaKm2:  propFloat(feat, "surface_area_km2"),
			RiverName:       propString(feat, "river_name", ""),
		}

		// Measured salinity labels arrive either as practical salinity or
		// as total dissolved solids; a direct measurement wins.
		if psu := propFloat(feat, "salinity_psu"); !math.IsNaN(psu) {
			seg.HasLabel = true
			seg.LabelSalinity = psu
		} else if tds := propFloat(feat, "tds_mg_l"); !math.IsNaN(tds) {
			if psu, ok := models.SalinityFromTDS(tds); ok {
				seg.HasLabel = true
				seg.LabelSalinity = psu
			}
		}

		segments = append(segments, seg)
	}

	if len(segments) == 0 {
		return nil, fmt.Errorf("no line segments in %s", path)
	}
	return segments, nil
}

// LoadNodes reads the node FeatureCollection for a region.
func LoadNodes(dataDir, region string) ([]models.Node, error) {
	path := filepath.Join(dataDir, region, "nodes.geojson")
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	nodes := make([]models.Node, 0, len(fc.Features))
	for i, feat := range fc.Features {
		point, ok := feat.Geometry.(orb.Point)
		if !ok {
			continue
		}

		nodes = append(nodes, models.Node{
			ID:         propString(feat, "node_id", fmt.Sprintf("%s_n%d", region, i)),
			Point:      point,
			Type:       strings.ToLower(propString(feat, "node_type", "")),
			OutletFlag: propBool(feat, "outlet_flag"),
		})
	}
	return nodes, nil
}

// TypologyZone is one estuary typology polygon with its geomorphic type code.
type TypologyZone struct {
	ID       string
	TypeCode int
	Geometry orb.MultiPolygon
}

// LoadTypologyZones reads the global estuary typology polygons.
func LoadTypologyZones(dataDir string) ([]TypologyZone, error) {
	path := filepath.Join(dataDir, "typology.geojson")
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	zones := make([]TypologyZone, 0, len(fc.Features))
	for i, feat := range fc.Features {
		var mp orb.MultiPolygon
		switch g := feat.Geometry.(type) {
		case orb.Polygon:
			mp = orb.MultiPolygon{g}
		case orb.MultiPolygon:
			mp = g
		default:
			continue
		}

		code := int(propFloat(feat, "fin_typ"))
		if math.IsNaN(propFloat(feat, "fin_typ")) {
			code = -9999
		}

		zones = append(zones, TypologyZone{
			ID:       propString(feat, "zone_id", fmt.Sprintf("zone_%d", i)),
			TypeCode: code,
			Geometry: mp,
		})
	}
	return zones, nil
}

// LoadWaterPolygons reads optional water-surface polygons for a region, used
// by the surface-area aggregator when segments carry no area attribute.
func LoadWaterPolygons(dataDir, region string) ([]orb.Polygon, []string, error) {
	path := filepath.Join(dataDir, region, "water_polygons.geojson")
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, nil, err
	}

	polygons := make([]orb.Polygon, 0, len(fc.Features))
	segmentIDs := make([]string, 0, len(fc.Features))
	for _, feat := range fc.Features {
		poly, ok := feat.Geometry.(orb.Polygon)
		if !ok {
			continue
		}
		polygons = append(polygons, poly)
		segmentIDs = append(segmentIDs, propString(feat, "segment_id", ""))
	}
	return polygons, segmentIDs, nil
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %s", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing %s: %s", path, err)
	}
	return fc, nil
}

func propString(feat *geojson.Feature, key, fallback string) string {
	if v, ok := feat.Properties[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// propFloat returns NaN for absent or non-numeric properties. Zero is a
// legitimate value for several network attributes.
func propFloat(feat *geojson.Feature, key string) float64 {
	v, ok := feat.Properties[key]
	if !ok {
		return math.NaN()
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return math.NaN()
	}
}

func propBool(feat *geojson.Feature, key string) bool {
	v, ok := feat.Properties[key]
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	default:
		return false
	}
}
