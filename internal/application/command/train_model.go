package command

import (
	"context"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/internal/ml"
	"github.com/edusignal/dropout-radar/pkg/logger"
)

// syntheticSampleSize is the size of the fallback training set.
const syntheticSampleSize = 30

// holdoutFraction is the share of rows held out for the accuracy report.
const holdoutFraction = 0.2

// TrainModelCommand configures a training run.
type TrainModelCommand struct {
	// Now is the reference time for the trailing windows
	// (defaults to time.Now when zero).
	Now time.Time
}

// TrainModelResult reports the outcome of a training run.
type TrainModelResult struct {
	// SampleCount is the number of feature rows trained on.
	SampleCount int

	// HoldoutAccuracy is the accuracy on the 20% holdout split.
	HoldoutAccuracy float64

	// PositiveRate is the share of at-risk labels in the training data.
	PositiveRate float64

	// FeatureImportances maps feature names to importance scores.
	FeatureImportances map[string]float64

	// UsedSyntheticData is true when the store was empty and the fallback
	// feature set was used.
	UsedSyntheticData bool
}

// TrainModelHandler fits the classifier on the current feature table with
// weak-supervision labels and persists the artifact. Training is idempotent:
// the same inputs and seed produce the same fitted forest.
type TrainModelHandler struct {
	collector featureCollector
	artifacts ml.ArtifactStore
	config    ml.ForestConfig
	log       *logger.Logger
}

// NewTrainModelHandler creates a TrainModelHandler.
func NewTrainModelHandler(
	students student.Repository,
	events records.Reader,
	artifacts ml.ArtifactStore,
	config ml.ForestConfig,
	log *logger.Logger,
) *TrainModelHandler {
	return &TrainModelHandler{
		collector: featureCollector{students: students, events: events, log: log},
		artifacts: artifacts,
		config:    config,
		log:       log.With(logger.Component("risk_model")),
	}
}

// Execute runs a full training pass and returns the fitted forest along with
// the training report. The forest is also persisted to the artifact store.
func (h *TrainModelHandler) Execute(ctx context.Context, cmd TrainModelCommand) (*TrainModelResult, *ml.Forest, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}

	result := &TrainModelResult{}

	features := h.collector.collect(ctx, now)
	if len(features) == 0 {
		// Test/demo continuity only. A production store should never be
		// empty here, so shout about it.
		h.log.Error("no features available for training, falling back to synthetic feature set",
			logger.Operation("Train"))
		features = syntheticFeatures(syntheticSampleSize, h.config.Seed)
		result.UsedSyntheticData = true
	}

	samples := make([][]float64, len(features))
	for i, f := range features {
		samples[i] = f.Values()
	}
	labels := risk.Labels(features)

	positives := 0
	for _, l := range labels {
		positives += l
	}
	result.SampleCount = len(samples)
	result.PositiveRate = float64(positives) / float64(len(labels))

	trainIdx, testIdx := ml.TrainTestSplit(len(samples), holdoutFraction, h.config.Seed)
	trainX, trainY := subset(samples, labels, trainIdx)
	testX, testY := subset(samples, labels, testIdx)

	forest := ml.NewForest(h.config)
	if err := forest.Fit(trainX, trainY); err != nil {
		return nil, nil, shared.WrapDomainError("risk", "Train", shared.ErrInvalidInput, "model fit failed", err)
	}

	predicted := make([]int, len(testX))
	for i, x := range testX {
		p, err := forest.Predict(x)
		if err != nil {
			return nil, nil, shared.WrapDomainError("risk", "Train", shared.ErrInvalidInput, "holdout prediction failed", err)
		}
		predicted[i] = p
	}
	result.HoldoutAccuracy = ml.Accuracy(predicted, testY)

	result.FeatureImportances = make(map[string]float64, len(risk.FeatureNames))
	for i, imp := range forest.FeatureImportances() {
		if i < len(risk.FeatureNames) {
			result.FeatureImportances[risk.FeatureNames[i]] = imp
		}
	}

	data, err := ml.EncodeArtifact(forest, risk.FeatureNames)
	if err != nil {
		return nil, nil, shared.WrapDomainError("risk", "Train", shared.ErrPersistenceFailure, "artifact encoding failed", err)
	}
	if err := h.artifacts.Save(ctx, data); err != nil {
		return nil, nil, shared.WrapDomainError("risk", "Train", shared.ErrPersistenceFailure, "artifact save failed", err)
	}

	h.log.Info("model trained",
		logger.Operation("Train"),
		logger.Int("samples", result.SampleCount),
		logger.Float64("holdout_accuracy", result.HoldoutAccuracy),
		logger.Float64("positive_rate", result.PositiveRate),
		logger.Bool("synthetic_data", result.UsedSyntheticData))

	return result, forest, nil
}

func subset(samples [][]float64, labels []int, indices []int) ([][]float64, []int) {
	x := make([][]float64, len(indices))
	y := make([]int, len(indices))
	for i, idx := range indices {
		x[i] = samples[idx]
		y[i] = labels[idx]
	}
	return x, y
}
