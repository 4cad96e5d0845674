package ml

import (
	"math/rand"
)

// ForestConfig configures the random forest.
type ForestConfig struct {
	// NumTrees is the ensemble size. Reference configuration: 100.
	NumTrees int

	// MaxDepth limits tree depth.
	MaxDepth int

	// MinSamplesLeaf is the minimum number of training rows in a leaf.
	MinSamplesLeaf int

	// NumFeatures is the number of features considered per split.
	// Zero means sqrt of the feature count.
	NumFeatures int

	// Seed fixes the random source, making repeated training on the same
	// inputs deterministic.
	Seed int64
}

// DefaultForestConfig returns the reference configuration.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:       100,
		MaxDepth:       10,
		MinSamplesLeaf: 2,
		NumFeatures:    0,
		Seed:           42,
	}
}

// Forest is a random forest binary classifier. It implements Classifier.
type Forest struct {
	Config      ForestConfig `json:"config"`
	Trees       []*Node      `json:"trees"`
	NumColumns  int          `json:"num_columns"`
	Importances []float64    `json:"importances"`
}

// NewForest creates an unfitted forest with the given configuration.
func NewForest(cfg ForestConfig) *Forest {
	if cfg.NumTrees <= 0 {
		cfg.NumTrees = 100
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	if cfg.MinSamplesLeaf <= 0 {
		cfg.MinSamplesLeaf = 1
	}
	return &Forest{Config: cfg}
}

// Fit trains the ensemble. Each tree is grown on a bootstrap sample drawn
// from a per-tree rng derived from the configured seed, so training is
// deterministic for fixed inputs and seed.
func (f *Forest) Fit(samples [][]float64, labels []int) error {
	if len(samples) == 0 {
		return ErrEmptyTraining
	}
	if len(samples) != len(labels) {
		return ErrLabelMismatch
	}

	n := len(samples)
	d := len(samples[0])
	f.NumColumns = d
	f.Trees = make([]*Node, 0, f.Config.NumTrees)
	importances := make([]float64, d)

	for t := 0; t < f.Config.NumTrees; t++ {
		rng := rand.New(rand.NewSource(f.Config.Seed + int64(t)))

		// Bootstrap sample with replacement.
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}

		builder := &treeBuilder{
			samples:     samples,
			labels:      labels,
			maxDepth:    f.Config.MaxDepth,
			minLeaf:     f.Config.MinSamplesLeaf,
			numFeatures: f.Config.NumFeatures,
			rng:         rng,
			importances: make([]float64, d),
		}
		f.Trees = append(f.Trees, builder.build(indices, 0))
		for i, imp := range builder.importances {
			importances[i] += imp
		}
	}

	// Normalize importances to sum to 1.
	var total float64
	for _, imp := range importances {
		total += imp
	}
	if total > 0 {
		for i := range importances {
			importances[i] /= total
		}
	}
	f.Importances = importances

	return nil
}

// PredictProba returns the mean leaf probability across trees.
func (f *Forest) PredictProba(sample []float64) (float64, error) {
	if len(f.Trees) == 0 {
		return 0, ErrNotFitted
	}
	if len(sample) != f.NumColumns {
		return 0, ErrShapeMismatch
	}
	sum := 0.0
	for _, tree := range f.Trees {
		sum += tree.predict(sample)
	}
	return sum / float64(len(f.Trees)), nil
}

// Predict returns the binary class at the 0.5 probability threshold.
func (f *Forest) Predict(sample []float64) (int, error) {
	p, err := f.PredictProba(sample)
	if err != nil {
		return 0, err
	}
	if p >= 0.5 {
		return 1, nil
	}
	return 0, nil
}

// FeatureImportances returns the normalized impurity-decrease importances.
func (f *Forest) FeatureImportances() []float64 {
	return f.Importances
}

var _ Classifier = (*Forest)(nil)
