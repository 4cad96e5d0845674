package ml

import (
	"math"
	"math/rand"
	"sort"
)

// Node is one node of a fitted decision tree. Leaf nodes carry the fraction
// of positive training samples that reached them; internal nodes route on
// feature <= threshold. Exported fields so trees serialize with the artifact.
type Node struct {
	Leaf      bool    `json:"leaf"`
	Feature   int     `json:"feature,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Prob      float64 `json:"prob"`
	Left      *Node   `json:"left,omitempty"`
	Right     *Node   `json:"right,omitempty"`
}

// predict walks the tree and returns the leaf probability for the sample.
func (n *Node) predict(sample []float64) float64 {
	node := n
	for !node.Leaf {
		if sample[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prob
}

// treeBuilder grows a single CART tree with Gini impurity splitting and
// random feature subsampling at each node.
type treeBuilder struct {
	samples     [][]float64
	labels      []int
	maxDepth    int
	minLeaf     int
	numFeatures int // features considered per split
	rng         *rand.Rand
	importances []float64 // accumulated weighted impurity decrease
}

func (b *treeBuilder) build(indices []int, depth int) *Node {
	prob := positiveFraction(b.labels, indices)

	if depth >= b.maxDepth || len(indices) < 2*b.minLeaf || prob == 0 || prob == 1 {
		return &Node{Leaf: true, Prob: prob}
	}

	feature, threshold, gain := b.bestSplit(indices)
	if gain <= 0 {
		return &Node{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, i := range indices {
		if b.samples[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.minLeaf || len(right) < b.minLeaf {
		return &Node{Leaf: true, Prob: prob}
	}

	b.importances[feature] += gain * float64(len(indices))

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Prob:      prob,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit scans a random subset of features and returns the split with the
// highest Gini impurity decrease. Candidate thresholds are midpoints between
// consecutive distinct values.
func (b *treeBuilder) bestSplit(indices []int) (feature int, threshold, gain float64) {
	parentImpurity := giniImpurity(b.labels, indices)
	total := float64(len(indices))

	bestGain := 0.0
	bestFeature := -1
	bestThreshold := 0.0

	for _, f := range b.sampleFeatures() {
		values := make([]float64, 0, len(indices))
		for _, i := range indices {
			values = append(values, b.samples[i][f])
		}
		sort.Float64s(values)

		for v := 1; v < len(values); v++ {
			if values[v] == values[v-1] {
				continue
			}
			t := (values[v] + values[v-1]) / 2

			leftCount, leftPos, rightCount, rightPos := 0, 0, 0, 0
			for _, i := range indices {
				if b.samples[i][f] <= t {
					leftCount++
					leftPos += b.labels[i]
				} else {
					rightCount++
					rightPos += b.labels[i]
				}
			}
			if leftCount == 0 || rightCount == 0 {
				continue
			}

			weighted := float64(leftCount)/total*giniFromCounts(leftCount, leftPos) +
				float64(rightCount)/total*giniFromCounts(rightCount, rightPos)
			g := parentImpurity - weighted
			if g > bestGain {
				bestGain = g
				bestFeature = f
				bestThreshold = t
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, 0
	}
	return bestFeature, bestThreshold, bestGain
}

// sampleFeatures picks the per-node feature subset (sqrt of the total,
// at least one), without replacement, in deterministic rng order.
func (b *treeBuilder) sampleFeatures() []int {
	d := len(b.samples[0])
	k := b.numFeatures
	if k <= 0 || k > d {
		k = int(math.Max(1, math.Round(math.Sqrt(float64(d)))))
	}
	perm := b.rng.Perm(d)
	features := perm[:k]
	sort.Ints(features)
	return features
}

func positiveFraction(labels []int, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	pos := 0
	for _, i := range indices {
		pos += labels[i]
	}
	return float64(pos) / float64(len(indices))
}

func giniImpurity(labels []int, indices []int) float64 {
	pos := 0
	for _, i := range indices {
		pos += labels[i]
	}
	return giniFromCounts(len(indices), pos)
}

func giniFromCounts(total, positives int) float64 {
	if total == 0 {
		return 0
	}
	p := float64(positives) / float64(total)
	return 2 * p * (1 - p)
}
