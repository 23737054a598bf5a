package ml

// Weighted CART decision tree.
//
// Trees split on single features by Gini impurity, using sample weights so
// the class-balanced weighting of the trainer carries all the way into leaf
// distributions. Candidate thresholds are midpoints between consecutive
// distinct values of the (randomly subsampled) candidate features.

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a trained tree. Leaves carry the weighted class
// distribution; internal nodes route on Feature < Threshold.
type treeNode struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Probs     []float64 `json:"p,omitempty"`
}

func (n *treeNode) isLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// predict walks the tree to a leaf distribution.
func (n *treeNode) predict(vec []float64) []float64 {
	node := n
	for !node.isLeaf() {
		if vec[node.Feature] < node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Probs
}

type treeParams struct {
	maxDepth         int
	minSamplesSplit  int
	minSamplesLeaf   int
	classCount       int
	featuresPerSplit int
}

type treeBuilder struct {
	x      [][]float64
	y      []int
	w      []float64
	params treeParams
	rng    *rand.Rand
	// importances accumulates the weighted impurity decrease per feature.
	importances []float64
}

func growTree(x [][]float64, y []int, w []float64, indices []int, params treeParams, rng *rand.Rand, importances []float64) *treeNode {
	b := &treeBuilder{x: x, y: y, w: w, params: params, rng: rng, importances: importances}
	return b.build(indices, 0)
}

func (b *treeBuilder) build(indices []int, depth int) *treeNode {
	counts := b.classWeights(indices)
	total := sum(counts)

	if depth >= b.params.maxDepth ||
		len(indices) < b.params.minSamplesSplit ||
		isPure(counts) {
		return b.leaf(counts, total)
	}

	feature, threshold, gain, ok := b.bestSplit(indices, counts, total)
	if !ok {
		return b.leaf(counts, total)
	}

	var left, right []int
	for _, idx := range indices {
		if b.x[idx][feature] < threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) < b.params.minSamplesLeaf || len(right) < b.params.minSamplesLeaf {
		return b.leaf(counts, total)
	}

	b.importances[feature] += gain

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

func (b *treeBuilder) leaf(counts []float64, total float64) *treeNode {
	probs := make([]float64, len(counts))
	if total > 0 {
		for i, c := range counts {
			probs[i] = c / total
		}
	}
	return &treeNode{Probs: probs}
}

// bestSplit scans a random feature subset for the threshold with the largest
// weighted Gini decrease.
func (b *treeBuilder) bestSplit(indices []int, parentCounts []float64, parentTotal float64) (int, float64, float64, bool) {
	parentGini := gini(parentCounts, parentTotal)

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	featureCount := len(b.x[0])
	features := b.sampleFeatures(featureCount)

	type valueLabel struct {
		value  float64
		class  int
		weight float64
	}
	pairs := make([]valueLabel, len(indices))

	for _, feature := range features {
		for i, idx := range indices {
			pairs[i] = valueLabel{value: b.x[idx][feature], class: b.y[idx], weight: b.w[idx]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

		leftCounts := make([]float64, b.params.classCount)
		rightCounts := append([]float64(nil), parentCounts...)
		leftTotal := 0.0
		rightTotal := parentTotal
		leftN := 0

		for i := 0; i+1 < len(pairs); i++ {
			leftCounts[pairs[i].class] += pairs[i].weight
			rightCounts[pairs[i].class] -= pairs[i].weight
			leftTotal += pairs[i].weight
			rightTotal -= pairs[i].weight
			leftN++

			if pairs[i].value == pairs[i+1].value {
				continue
			}
			if leftN < b.params.minSamplesLeaf || len(pairs)-leftN < b.params.minSamplesLeaf {
				continue
			}

			childGini := (leftTotal*gini(leftCounts, leftTotal) +
				rightTotal*gini(rightCounts, rightTotal)) / parentTotal
			gain := parentGini - childGini
			if gain > bestGain+1e-12 {
				bestGain = gain
				bestFeature = feature
				bestThreshold = (pairs[i].value + pairs[i+1].value) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0, false
	}
	return bestFeature, bestThreshold, bestGain * parentTotal, true
}

// sampleFeatures draws the sqrt-sized candidate subset without replacement.
func (b *treeBuilder) sampleFeatures(featureCount int) []int {
	k := b.params.featuresPerSplit
	if k <= 0 || k > featureCount {
		k = featureCount
	}

	perm := b.rng.Perm(featureCount)
	features := perm[:k]
	sort.Ints(features)
	return features
}

func (b *treeBuilder) classWeights(indices []int) []float64 {
	counts := make([]float64, b.params.classCount)
	for _, idx := range indices {
		counts[b.y[idx]] += b.w[idx]
	}
	return counts
}

func gini(counts []float64, total float64) float64 {
	if total <= 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func sum(values []float64) float64 {
	var s float64
	for _, v := range values {
		s += v
	}
	return s
}

func sqrtFeatures(featureCount int) int {
	k := int(math.Sqrt(float64(featureCount)))
	if k < 1 {
		k = 1
	}
	return k
}
