package prediction

// GradientBoost is regressor B: shallow regression trees fit sequentially
// on the residuals of the running prediction, shrunk by the learning rate.
// Fully deterministic: no sampling is involved.
type GradientBoost struct {
	Trees        []*TreeNode `msgpack:"trees"`
	Base         float64     `msgpack:"base"` // Initial prediction: mean of y
	Rounds       int         `msgpack:"rounds"`
	LearningRate float64     `msgpack:"learning_rate"`
	MaxDepth     int         `msgpack:"max_depth"`
	MinLeaf      int         `msgpack:"min_leaf"`
}

// NewGradientBoost creates regressor B with its fixed hyperparameters
func NewGradientBoost() *GradientBoost {
	return &GradientBoost{
		Rounds:       50,
		LearningRate: 0.1,
		MaxDepth:     3,
		MinLeaf:      5,
	}
}

// Fit boosts on squared-error residuals
func (g *GradientBoost) Fit(X [][]float64, y []float64) {
	n := len(X)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	g.Base = meanAt(y, idx)

	current := make([]float64, n)
	residuals := make([]float64, n)
	for i := range current {
		current[i] = g.Base
	}

	params := treeParams{maxDepth: g.MaxDepth, minLeaf: g.MinLeaf}
	g.Trees = make([]*TreeNode, 0, g.Rounds)

	for round := 0; round < g.Rounds; round++ {
		for i := range residuals {
			residuals[i] = y[i] - current[i]
		}

		tree := buildTree(X, residuals, idx, 0, params)
		g.Trees = append(g.Trees, tree)

		for i := range current {
			current[i] += g.LearningRate * tree.Predict(X[i])
		}
	}
}

// Predict applies the base value plus every boosting round's contribution
func (g *GradientBoost) Predict(x []float64) float64 {
	pred := g.Base
	for _, tree := range g.Trees {
		pred += g.LearningRate * tree.Predict(x)
	}
	return pred
}
