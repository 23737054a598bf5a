package spatial

import (
	"math"
	"math/rand"
	"testing"
)

func TestKDTreeNearestMatchesBruteForce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	points := make([]Point, 500)
	for i := range points {
		points[i] = Point{
			Lat:   rng.Float64()*180 - 90,
			Lon:   rng.Float64()*360 - 180,
			Index: i,
		}
	}
	tree := NewKDTree(points)
	if tree.Size() != len(points) {
		t.Fatalf("tree size = %d, want %d", tree.Size(), len(points))
	}

	for q := 0; q < 200; q++ {
		lat := rng.Float64()*180 - 90
		lon := rng.Float64()*360 - 180

		best, dist, ok := tree.Nearest(lat, lon)
		if !ok {
			t.Fatal("Nearest returned no match on a populated tree")
		}

		bruteDist := math.Inf(1)
		bruteIdx := -1
		for _, p := range points {
			if d := DegreeDistance(lat, lon, p.Lat, p.Lon); d < bruteDist {
				bruteDist = d
				bruteIdx = p.Index
			}
		}

		if math.Abs(dist-bruteDist) > 1e-9 {
			t.Fatalf("query (%f, %f): tree dist %f, brute force %f (tree idx %d, brute idx %d)",
				lat, lon, dist, bruteDist, best.Index, bruteIdx)
		}
	}
}

func TestKDTreeEmpty(t *testing.T) {
	t.Parallel()

	tree := NewKDTree(nil)
	if _, _, ok := tree.Nearest(0, 0); ok {
		t.Error("empty tree must not return a match")
	}
}

func TestNearestWithinRejectsFarMatches(t *testing.T) {
	t.Parallel()

	tree := NewKDTree([]Point{{Lat: 10, Lon: 10, Index: 0}})

	if _, _, ok := tree.NearestWithin(10.01, 10.01, 0.05); !ok {
		t.Error("match inside the radius should be accepted")
	}
	if _, _, ok := tree.NearestWithin(20, 20, 0.05); ok {
		t.Error("match beyond the radius must be rejected")
	}
}

func TestDegreesToKm(t *testing.T) {
	t.Parallel()

	if got := DegreesToKm(2); got != 222 {
		t.Errorf("DegreesToKm(2) = %f, want 222", got)
	}
}

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	// One degree of latitude along a meridian is ~111.2 km.
	d := HaversineKm(0, 0, 1, 0)
	if d < 110 || d > 112.5 {
		t.Errorf("one degree of latitude = %f km, expected ~111.2", d)
	}
	if HaversineKm(45, 45, 45, 45) != 0 {
		t.Error("coincident points should be at distance 0")
	}
}
