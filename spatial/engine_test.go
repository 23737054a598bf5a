package spatial

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"tidal-atlas/models"
)

func TestEngineDistanceToCoast(t *testing.T) {
	t.Parallel()

	nodes := []models.Node{
		{ID: "o1", Point: orb.Point{0, 0}, Type: "coastal_outlet"}, // lon, lat
		{ID: "o2", Point: orb.Point{10, 10}, Type: "coastal_outlet"},
		{ID: "c1", Point: orb.Point{5, 5}, Type: "confluence"},
	}
	engine := NewEngine(nodes)

	d := engine.DistanceToCoast(1, 0)
	if d.Method != DistMethodOutlet {
		t.Fatalf("expected outlet distance, got method %s", d.Method)
	}
	if math.Abs(d.Km-111.0) > 1e-9 {
		t.Errorf("one degree from outlet = %f km, want 111", d.Km)
	}
	if d.Degraded() {
		t.Error("outlet distance must not be flagged degraded")
	}
}

func TestEngineLatitudeProxyFallback(t *testing.T) {
	t.Parallel()

	engine := NewEngine([]models.Node{
		{ID: "c1", Point: orb.Point{5, 5}, Type: "confluence"},
	})

	d := engine.DistanceToCoast(30, 100)
	if d.Method != DistMethodLatitudeProxy {
		t.Fatalf("expected latitude proxy, got method %s", d.Method)
	}
	if !d.Degraded() {
		t.Error("proxy distance must be flagged degraded")
	}
	// 30N is 30 degrees from the equator, 60 from the pole.
	want := 30 * KmPerDegree
	if math.Abs(d.Km-want) > 1e-9 {
		t.Errorf("proxy distance = %f, want %f", d.Km, want)
	}

	// High latitudes measure from the pole instead.
	d = engine.DistanceToCoast(-80, 0)
	want = 10 * KmPerDegree
	if math.Abs(d.Km-want) > 1e-9 {
		t.Errorf("polar proxy distance = %f, want %f", d.Km, want)
	}
}

func TestEngineBasinOutletFallback(t *testing.T) {
	t.Parallel()

	// No coastal outlets, but a flagged basin outlet exists. The network
	// distance is preferred over the proxy and is not degraded.
	engine := NewEngine([]models.Node{
		{ID: "b1", Point: orb.Point{0, 0}, Type: "basin_outlet", OutletFlag: true},
	})

	d := engine.DistanceToCoast(1, 0)
	if d.Method != DistMethodBasinOutlet {
		t.Fatalf("expected basin outlet distance, got method %s", d.Method)
	}
	if math.Abs(d.Km-111.0) > 1e-9 {
		t.Errorf("one degree from basin outlet = %f km, want 111", d.Km)
	}
	if d.Degraded() {
		t.Error("basin outlet distance is a real network distance, not degraded")
	}
}

func TestEngineDistanceAll(t *testing.T) {
	t.Parallel()

	engine := NewEngine([]models.Node{
		{ID: "o1", Point: orb.Point{0, 0}, OutletFlag: true},
	})
	segments := []models.Segment{
		{ID: "s1", Centroid: orb.Point{0, 1}},
		{ID: "s2", Centroid: orb.Point{0, 2}},
	}

	dists := engine.DistanceAll(segments)
	if len(dists) != 2 {
		t.Fatalf("expected 2 distances, got %d", len(dists))
	}
	if dists["s2"].Km <= dists["s1"].Km {
		t.Errorf("s2 is further from the outlet than s1: %f vs %f", dists["s2"].Km, dists["s1"].Km)
	}
}
