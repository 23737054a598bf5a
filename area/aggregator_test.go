package area

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"tidal-atlas/models"
)

func TestSummarize(t *testing.T) {
	t.Parallel()

	segments := []models.Segment{
		{ID: "f1", SurfaceAreaKm2: 10},
		{ID: "f2", SurfaceAreaKm2: 30},
		{ID: "m1", SurfaceAreaKm2: 60},
		{ID: "noarea", SurfaceAreaKm2: math.NaN()},
	}
	results := []models.Classification{
		{SegmentID: "f1", Class: models.Freshwater},
		{SegmentID: "f2", Class: models.Freshwater},
		{SegmentID: "m1", Class: models.Mesohaline},
		{SegmentID: "noarea", Class: models.Mesohaline},
	}

	s := Summarize("EU", segments, results)
	if s.Segments != 4 {
		t.Errorf("segments = %d, want 4", s.Segments)
	}
	if s.TotalKm2 != 100 {
		t.Errorf("total = %f, want 100", s.TotalKm2)
	}
	if s.FreshwaterKm2 != 40 || s.EstuarineKm2 != 60 {
		t.Errorf("fresh/estuarine split = %f/%f, want 40/60", s.FreshwaterKm2, s.EstuarineKm2)
	}

	if len(s.Classes) != len(models.VeniceOrder) {
		t.Fatalf("classes = %d, want %d in Venice order", len(s.Classes), len(models.VeniceOrder))
	}
	for i, class := range models.VeniceOrder {
		if s.Classes[i].Class != string(class) {
			t.Errorf("class %d = %s, want %s", i, s.Classes[i].Class, class)
		}
	}

	fresh := s.Classes[0]
	if fresh.Segments != 2 || fresh.TotalKm2 != 40 || fresh.MeanKm2 != 20 {
		t.Errorf("freshwater summary = %+v", fresh)
	}
	if fresh.AreaShare != 0.4 {
		t.Errorf("freshwater share = %f, want 0.4", fresh.AreaShare)
	}

	// The area-less segment counts but contributes nothing.
	meso := s.Classes[2]
	if meso.Segments != 2 || meso.TotalKm2 != 60 {
		t.Errorf("mesohaline summary = %+v", meso)
	}
}

func TestCombine(t *testing.T) {
	t.Parallel()

	segs := []models.Segment{
		{ID: "a", SurfaceAreaKm2: 10},
		{ID: "b", SurfaceAreaKm2: 20},
	}
	r1 := Summarize("EU", segs, []models.Classification{
		{SegmentID: "a", Class: models.Freshwater},
	})
	r2 := Summarize("AS", segs, []models.Classification{
		{SegmentID: "b", Class: models.Polyhaline},
	})

	global := Combine([]Summary{r1, r2})
	if global.Region != "GLOBAL" {
		t.Errorf("region = %s, want GLOBAL", global.Region)
	}
	if global.Segments != 2 || global.TotalKm2 != 30 {
		t.Errorf("global totals = %d segments, %f km2", global.Segments, global.TotalKm2)
	}
	if global.FreshwaterKm2 != 10 || global.EstuarineKm2 != 20 {
		t.Errorf("global split = %f/%f", global.FreshwaterKm2, global.EstuarineKm2)
	}
	if len(global.Classes) != len(models.VeniceOrder) {
		t.Errorf("global classes not in Venice order: %d", len(global.Classes))
	}
}

func TestPolygonAreaKm2(t *testing.T) {
	t.Parallel()

	// A 0.1 x 0.1 degree square at the equator is roughly 123 km2.
	square := orb.Polygon{orb.Ring{
		{0, 0}, {0.1, 0}, {0.1, 0.1}, {0, 0.1}, {0, 0},
	}}
	got := PolygonAreaKm2(square)
	want := 0.1 * 110.574 * 0.1 * 111.320
	if math.Abs(got-want) > want*0.01 {
		t.Errorf("equator square area = %f, want ~%f", got, want)
	}

	// The same square at 60N covers about half the area.
	shifted := orb.Polygon{orb.Ring{
		{0, 60}, {0.1, 60}, {0.1, 60.1}, {0, 60.1}, {0, 60},
	}}
	north := PolygonAreaKm2(shifted)
	if north > got*0.6 || north < got*0.4 {
		t.Errorf("60N square area = %f, want about half of %f", north, got)
	}

	if PolygonAreaKm2(orb.Polygon{}) != 0 {
		t.Error("empty polygon has zero area")
	}
}

func TestApplyPolygonAreas(t *testing.T) {
	t.Parallel()

	segments := []models.Segment{
		{ID: "s1", SurfaceAreaKm2: 0},
		{ID: "s2", SurfaceAreaKm2: 5},
	}
	polys := []orb.Polygon{
		{orb.Ring{{0, 0}, {0.1, 0}, {0.1, 0.1}, {0, 0.1}, {0, 0}}},
	}

	out := ApplyPolygonAreas(segments, polys, []string{"s1"})
	if out[0].SurfaceAreaKm2 <= 0 {
		t.Error("matched segment should receive the polygon area")
	}
	if out[1].SurfaceAreaKm2 != 5 {
		t.Errorf("unmatched segment area disturbed: %f", out[1].SurfaceAreaKm2)
	}
	// Input slice untouched.
	if segments[0].SurfaceAreaKm2 != 0 {
		t.Error("ApplyPolygonAreas must not mutate its input")
	}
}
