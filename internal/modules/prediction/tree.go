package prediction

import (
	"math/rand"
	"sort"
)

// TreeNode is one node of a regression tree. Leaves carry the mean target
// of their training rows; internal nodes split on Feature <= Threshold.
// Exported fields so trees serialize with the artifact.
type TreeNode struct {
	Leaf      bool      `msgpack:"leaf"`
	Value     float64   `msgpack:"value"`
	Feature   int       `msgpack:"feature"`
	Threshold float64   `msgpack:"threshold"`
	Left      *TreeNode `msgpack:"left"`
	Right     *TreeNode `msgpack:"right"`
}

// Predict walks the tree for a single feature vector
func (t *TreeNode) Predict(x []float64) float64 {
	node := t
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// treeParams bounds tree growth
type treeParams struct {
	maxDepth int
	minLeaf  int
}

// buildTree grows a regression tree by greedy variance-reduction splits.
// idx selects the training rows in scope for this node.
func buildTree(X [][]float64, y []float64, idx []int, depth int, params treeParams) *TreeNode {
	if depth >= params.maxDepth || len(idx) < 2*params.minLeaf {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	bestFeature, bestThreshold, bestScore := -1, 0.0, 0.0
	parentSSE := sseAt(y, idx)

	for feature := 0; feature < len(X[0]); feature++ {
		values := make([]float64, len(idx))
		for i, id := range idx {
			values[i] = X[id][feature]
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2

			left, right := partition(X, idx, feature, threshold)
			if len(left) < params.minLeaf || len(right) < params.minLeaf {
				continue
			}

			gain := parentSSE - sseAt(y, left) - sseAt(y, right)
			if gain > bestScore {
				bestScore = gain
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return &TreeNode{Leaf: true, Value: meanAt(y, idx)}
	}

	left, right := partition(X, idx, bestFeature, bestThreshold)
	return &TreeNode{
		Feature:   bestFeature,
		Threshold: bestThreshold,
		Left:      buildTree(X, y, left, depth+1, params),
		Right:     buildTree(X, y, right, depth+1, params),
	}
}

func partition(X [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, id := range idx {
		if X[id][feature] <= threshold {
			left = append(left, id)
		} else {
			right = append(right, id)
		}
	}
	return left, right
}

func meanAt(y []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, id := range idx {
		sum += y[id]
	}
	return sum / float64(len(idx))
}

// sseAt computes the sum of squared errors around the subset mean
func sseAt(y []float64, idx []int) float64 {
	mean := meanAt(y, idx)
	sse := 0.0
	for _, id := range idx {
		d := y[id] - mean
		sse += d * d
	}
	return sse
}

// BaggedTrees is regressor A: an ensemble of regression trees, each grown
// on a bootstrap sample. The fixed seed keeps retraining deterministic.
type BaggedTrees struct {
	Trees    []*TreeNode `msgpack:"trees"`
	NumTrees int         `msgpack:"num_trees"`
	MaxDepth int         `msgpack:"max_depth"`
	MinLeaf  int         `msgpack:"min_leaf"`
	Seed     int64       `msgpack:"seed"`
}

// NewBaggedTrees creates regressor A with its fixed hyperparameters
func NewBaggedTrees() *BaggedTrees {
	return &BaggedTrees{
		NumTrees: 25,
		MaxDepth: 6,
		MinLeaf:  3,
		Seed:     42,
	}
}

// Fit grows NumTrees trees on bootstrap samples of the training data
func (b *BaggedTrees) Fit(X [][]float64, y []float64) {
	rng := rand.New(rand.NewSource(b.Seed))
	params := treeParams{maxDepth: b.MaxDepth, minLeaf: b.MinLeaf}

	b.Trees = make([]*TreeNode, b.NumTrees)
	for t := 0; t < b.NumTrees; t++ {
		sample := make([]int, len(X))
		for i := range sample {
			sample[i] = rng.Intn(len(X))
		}
		b.Trees[t] = buildTree(X, y, sample, 0, params)
	}
}

// Predict averages the trees' predictions
func (b *BaggedTrees) Predict(x []float64) float64 {
	if len(b.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range b.Trees {
		sum += tree.Predict(x)
	}
	return sum / float64(len(b.Trees))
}
