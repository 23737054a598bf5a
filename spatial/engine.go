package spatial

import (
	"log/slog"
	"math"

	"tidal-atlas/models"
	"tidal-atlas/utils"
)

// Distance methods recorded in output metadata. Downstream consumers treat
// latitude-proxy distances as degraded.
const (
	DistMethodOutlet        = "coastal_outlet"
	DistMethodBasinOutlet   = "basin_outlet"
	DistMethodLatitudeProxy = "latitude_proxy"
)

// Distance is the distance-to-coast result for one segment.
type Distance struct {
	Km     float64
	Method string
}

// Degraded reports whether the distance came from the latitude proxy.
// Basin-outlet distances are real network distances and do not count.
func (d Distance) Degraded() bool {
	return d.Method == DistMethodLatitudeProxy
}

// Engine computes distance to coast for river segments. The fallback chain
// runs typed coastal outlets, then generic basin outlets, then the latitude
// proxy: networks without any outlet nodes still answer every query.
type Engine struct {
	tree   *KDTree
	method string
	logger *slog.Logger
}

// NewEngine indexes the outlets of a node set, preferring typed coastal
// outlets over generic flagged outlets.
func NewEngine(nodes []models.Node) *Engine {
	logger := utils.GetLogger()

	coastal := make([]Point, 0, len(nodes))
	basin := make([]Point, 0, len(nodes))
	for i, node := range nodes {
		p := Point{Lat: node.Point.Lat(), Lon: node.Point.Lon(), Index: i}
		if node.IsCoastalOutlet() {
			coastal = append(coastal, p)
		} else if node.OutletFlag {
			basin = append(basin, p)
		}
	}

	if len(coastal) > 0 {
		return &Engine{tree: NewKDTree(coastal), method: DistMethodOutlet, logger: logger}
	}
	if len(basin) > 0 {
		logger.Warn("no coastal outlets in node set, falling back to basin outlets",
			slog.Int("basin_outlets", len(basin)))
		return &Engine{tree: NewKDTree(basin), method: DistMethodBasinOutlet, logger: logger}
	}

	logger.Warn("no outlets in node set, distances will use latitude proxy",
		slog.Int("node_count", len(nodes)))
	return &Engine{logger: logger}
}

// DistanceToCoast resolves the distance for a single centroid.
func (e *Engine) DistanceToCoast(lat, lon float64) Distance {
	if e.tree == nil || e.tree.Size() == 0 {
		return Distance{Km: latitudeProxyKm(lat), Method: DistMethodLatitudeProxy}
	}

	_, distDeg, ok := e.tree.Nearest(lat, lon)
	if !ok {
		return Distance{Km: latitudeProxyKm(lat), Method: DistMethodLatitudeProxy}
	}

	return Distance{Km: DegreesToKm(distDeg), Method: e.method}
}

// DistanceAll resolves distances for a batch of segments, keyed by segment ID.
func (e *Engine) DistanceAll(segments []models.Segment) map[string]Distance {
	out := make(map[string]Distance, len(segments))
	proxied := 0
	for _, seg := range segments {
		d := e.DistanceToCoast(seg.Centroid.Lat(), seg.Centroid.Lon())
		if d.Degraded() {
			proxied++
		}
		out[seg.ID] = d
	}
	if proxied > 0 {
		e.logger.Warn("segments resolved with latitude-proxy distance",
			slog.Int("count", proxied),
			slog.Int("total", len(segments)))
	}
	return out
}

// latitudeProxyKm estimates distance to coast from latitude alone: distance
// to the nearer of the equator or the pole, in kilometers. Crude, but it
// preserves the far-inland/near-coast ordering the rule layer needs.
func latitudeProxyKm(lat float64) float64 {
	absLat := math.Abs(lat)
	return math.Min(90-absLat, absLat) * KmPerDegree
}
