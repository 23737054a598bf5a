package typology

import (
	"testing"

	"github.com/paulmach/orb"

	"tidal-atlas/geometry"
	"tidal-atlas/models"
)

// square builds a closed ring from (minX, minY) to (maxX, maxY).
func square(minX, minY, maxX, maxY float64) orb.MultiPolygon {
	ring := orb.Ring{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}
	return orb.MultiPolygon{orb.Polygon{ring}}
}

func TestAssignPicksLargestOverlap(t *testing.T) {
	t.Parallel()

	zones := []geometry.TypologyZone{
		{ID: "small", TypeCode: TypeDelta, Geometry: square(0, 0, 1, 1)},
		{ID: "large", TypeCode: TypeTidalSystem, Geometry: square(1, 0, 5, 1)},
	}
	// Line runs along y=0.5 from x=0.5 to x=4.5: half a degree inside the
	// small zone, 3.5 degrees inside the large one.
	seg := models.Segment{
		ID: "s1",
		Geometry: orb.LineString{
			{0.5, 0.5}, {1.5, 0.5}, {2.5, 0.5}, {3.5, 0.5}, {4.5, 0.5},
		},
	}

	got := NewJoiner(zones).Assign([]models.Segment{seg})
	a, ok := got["s1"]
	if !ok {
		t.Fatal("segment should be assigned")
	}
	if a.ZoneID != "large" {
		t.Errorf("assigned zone = %s, want large", a.ZoneID)
	}
	if a.TypeCode != TypeTidalSystem {
		t.Errorf("type code = %d, want %d", a.TypeCode, TypeTidalSystem)
	}
}

func TestAssignSkipsNonIntersecting(t *testing.T) {
	t.Parallel()

	zones := []geometry.TypologyZone{
		{ID: "z", TypeCode: TypeDelta, Geometry: square(0, 0, 1, 1)},
	}
	seg := models.Segment{
		ID:       "far",
		Geometry: orb.LineString{{50, 50}, {51, 50}},
	}

	got := NewJoiner(zones).Assign([]models.Segment{seg})
	if _, ok := got["far"]; ok {
		t.Error("segment outside every zone must not be assigned")
	}
}

func TestModelCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code int
		want float64
	}{
		{TypeDelta, 1},
		{TypeTidalSystem, 2},
		{TypeLagoon, 3},
		{TypeFjordRia, 4},
		{TypeCoastalPlain, 5},
		{TypeKarst, 0},
		{TypeLargeRiver, 0},
		{TypeUnknown, 0},
	}
	for _, tc := range cases {
		if got := ModelCode(tc.code); got != tc.want {
			t.Errorf("ModelCode(%d) = %f, want %f", tc.code, got, tc.want)
		}
	}
}

func TestTypeName(t *testing.T) {
	t.Parallel()

	if got := TypeName(TypeTidalSystem); got != "Tidal System" {
		t.Errorf("TypeName(51) = %s", got)
	}
	if got := TypeName(12345); got != "Unknown" {
		t.Errorf("unlisted code should name Unknown, got %s", got)
	}
}
