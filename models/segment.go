package models

import "github.com/paulmach/orb"

// Regions are the continental processing units of the global river network.
// Each region is extracted, predicted and aggregated independently.
var Regions = []string{"AF", "AS", "EU", "NA", "SA", "SI", "SP"}

// IsKnownRegion reports whether code names one of the processing regions.
func IsKnownRegion(code string) bool {
	for _, r := range Regions {
		if r == code {
			return true
		}
	}
	return false
}

// Segment is one reach of the vectorised river network.
type Segment struct {
	ID              string         `json:"id"`
	Region          string         `json:"region"`
	Geometry        orb.LineString `json:"-"`
	Centroid        orb.Point      `json:"centroid"`
	LengthKm        float64        `json:"length_km"`
	UpstreamAreaKm2 float64        `json:"upstream_area_km2"`
	StrahlerOrder   float64        `json:"strahler_order"`
	SurfaceAreaKm2  float64        `json:"surface_area_km2"`
	// LabelSalinity holds a measured salinity in PSU when HasLabel is set.
	HasLabel      bool    `json:"has_label"`
	LabelSalinity float64 `json:"label_salinity,omitempty"`
	// RiverName is carried through from the source network where present;
	// it is metadata only and never a model feature.
	RiverName string `json:"river_name,omitempty"`
}

// Node is a point of the network graph. Coastal outlets anchor the
// distance-to-coast computation.
type Node struct {
	ID         string    `json:"id"`
	Point      orb.Point `json:"point"`
	Type       string    `json:"type"`
	OutletFlag bool      `json:"outlet_flag"`
}

// IsCoastalOutlet reports whether the node terminates a river at the coast.
// Networks that predate the node-type attribute only carry the outlet flag.
func (n Node) IsCoastalOutlet() bool {
	if n.Type != "" {
		return n.Type == "coastal_outlet"
	}
	return n.OutletFlag
}
