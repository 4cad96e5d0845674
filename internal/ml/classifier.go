// Package ml implements the binary classifier used by the risk pipeline.
//
// The reference configuration is a 100-tree random forest with a fixed random
// seed, trained on an 80/20 train/holdout split. The forest lives behind the
// Classifier interface so any comparable calibrated classifier can be swapped
// in without touching the aggregator or the scorer.
package ml

import (
	"errors"
	"math/rand"
)

// Classifier is the capability interface the pipeline depends on.
type Classifier interface {
	// Fit trains on the sample matrix (rows) and binary labels (0/1).
	Fit(samples [][]float64, labels []int) error

	// PredictProba returns the probability of the positive class for one
	// sample row.
	PredictProba(sample []float64) (float64, error)

	// FeatureImportances returns per-feature importance scores normalized
	// to sum to 1, in the training column order.
	FeatureImportances() []float64
}

// Errors returned by classifier operations.
var (
	ErrNotFitted      = errors.New("ml: classifier is not fitted")
	ErrEmptyTraining  = errors.New("ml: empty training set")
	ErrShapeMismatch  = errors.New("ml: sample width does not match training data")
	ErrLabelMismatch  = errors.New("ml: samples and labels length differ")
)

// TrainTestSplit deterministically shuffles row indices with the given seed
// and splits them into train and holdout sets. testFraction is clamped so
// both sides keep at least one row when n >= 2.
func TrainTestSplit(n int, testFraction float64, seed int64) (train, test []int) {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	testSize := int(float64(n) * testFraction)
	if n >= 2 {
		if testSize < 1 {
			testSize = 1
		}
		if testSize >= n {
			testSize = n - 1
		}
	}
	return indices[testSize:], indices[:testSize]
}

// Accuracy returns the fraction of predictions matching the labels.
func Accuracy(predicted, actual []int) float64 {
	if len(predicted) == 0 || len(predicted) != len(actual) {
		return 0
	}
	correct := 0
	for i := range predicted {
		if predicted[i] == actual[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(predicted))
}
