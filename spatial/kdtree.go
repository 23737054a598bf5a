package spatial

// Two-dimensional k-d tree over geographic points.
//
// Every extractor in the pipeline reduces to the same primitive: given a
// segment centroid, find the nearest member of a large fixed point set
// (coastal outlets, shoreline observation sites). The point sets are built
// once per region and queried hundreds of thousands of times, so the tree is
// constructed eagerly and never mutated afterwards.
//
// Distances are Euclidean in degree space. That keeps the tree's pruning
// metric consistent with the split planes; callers convert the result to
// kilometers when they need one.

import "sort"

// Point is a tree entry. Index refers back into the caller's source slice.
type Point struct {
	Lat   float64
	Lon   float64
	Index int
}

type kdNode struct {
	point Point
	axis  int // 0 = lat, 1 = lon
	left  *kdNode
	right *kdNode
}

// KDTree is an immutable nearest-neighbour index over geographic points.
type KDTree struct {
	root *kdNode
	size int
}

// NewKDTree builds a balanced tree from the supplied points. The input slice
// is copied; the caller may reuse it.
func NewKDTree(points []Point) *KDTree {
	copied := make([]Point, len(points))
	copy(copied, points)
	return &KDTree{
		root: buildKD(copied, 0),
		size: len(copied),
	}
}

// Size returns the number of indexed points.
func (t *KDTree) Size() int {
	return t.size
}

func buildKD(points []Point, depth int) *kdNode {
	if len(points) == 0 {
		return nil
	}

	axis := depth % 2
	sort.Slice(points, func(i, j int) bool {
		if axis == 0 {
			return points[i].Lat < points[j].Lat
		}
		return points[i].Lon < points[j].Lon
	})

	mid := len(points) / 2
	return &kdNode{
		point: points[mid],
		axis:  axis,
		left:  buildKD(points[:mid], depth+1),
		right: buildKD(points[mid+1:], depth+1),
	}
}

// Nearest finds the closest indexed point to (lat, lon). The returned
// distance is in degree space. ok is false for an empty tree.
func (t *KDTree) Nearest(lat, lon float64) (best Point, distDeg float64, ok bool) {
	if t.root == nil {
		return Point{}, 0, false
	}

	bestNode := t.root
	bestDist := DegreeDistance(lat, lon, t.root.point.Lat, t.root.point.Lon)
	searchKD(t.root, lat, lon, &bestNode, &bestDist)

	return bestNode.point, bestDist, true
}

// NearestWithin behaves like Nearest but rejects matches beyond maxDeg.
func (t *KDTree) NearestWithin(lat, lon, maxDeg float64) (Point, float64, bool) {
	point, dist, ok := t.Nearest(lat, lon)
	if !ok || dist > maxDeg {
		return Point{}, 0, false
	}
	return point, dist, true
}

func searchKD(node *kdNode, lat, lon float64, bestNode **kdNode, bestDist *float64) {
	if node == nil {
		return
	}

	dist := DegreeDistance(lat, lon, node.point.Lat, node.point.Lon)
	if dist < *bestDist {
		*bestDist = dist
		*bestNode = node
	}

	var queryCoord, splitCoord float64
	if node.axis == 0 {
		queryCoord, splitCoord = lat, node.point.Lat
	} else {
		queryCoord, splitCoord = lon, node.point.Lon
	}

	near, far := node.left, node.right
	if queryCoord > splitCoord {
		near, far = far, near
	}

	searchKD(near, lat, lon, bestNode, bestDist)

	// Only descend the far side if the splitting plane is closer than the
	// best match found so far.
	planeDist := queryCoord - splitCoord
	if planeDist < 0 {
		planeDist = -planeDist
	}
	if planeDist < *bestDist {
		searchKD(far, lat, lon, bestNode, bestDist)
	}
}
