package command

import (
	"context"
	"errors"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/internal/ml"
	"github.com/edusignal/dropout-radar/pkg/logger"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// SnapshotInvalidator drops any cached copy of the latest snapshot after a
// successful write. A nil invalidator is allowed.
type SnapshotInvalidator interface {
	InvalidateSnapshot(ctx context.Context) error
}

// AssessRiskCommand configures an assessment run.
type AssessRiskCommand struct {
	// Now is the run timestamp; the assessment date is its calendar date.
	// Defaults to time.Now when zero.
	Now time.Time
}

// AssessRiskResult reports the outcome of an assessment run.
type AssessRiskResult struct {
	// Date is the assessment date of the written snapshot.
	Date time.Time

	// Assessed is the number of students in the snapshot.
	Assessed int

	// CountsByLevel breaks the snapshot down per risk level.
	CountsByLevel map[risk.Level]int

	// Retrained is true when no usable artifact existed and a lazy
	// training pass ran first.
	Retrained bool
}

// AssessRiskHandler runs the full inference pipeline: aggregate features,
// load (or lazily train) the model, score every student, and replace the
// day's snapshot. Only the snapshot write can fail the run.
type AssessRiskHandler struct {
	collector   featureCollector
	artifacts   ml.ArtifactStore
	trainer     *TrainModelHandler
	assessments risk.AssessmentRepository
	invalidator SnapshotInvalidator
	log         *logger.Logger
}

// NewAssessRiskHandler creates an AssessRiskHandler.
func NewAssessRiskHandler(
	students student.Repository,
	events records.Reader,
	artifacts ml.ArtifactStore,
	trainer *TrainModelHandler,
	assessments risk.AssessmentRepository,
	invalidator SnapshotInvalidator,
	log *logger.Logger,
) *AssessRiskHandler {
	return &AssessRiskHandler{
		collector:   featureCollector{students: students, events: events, log: log},
		artifacts:   artifacts,
		trainer:     trainer,
		assessments: assessments,
		invalidator: invalidator,
		log:         log.With(logger.Component("risk_pipeline")),
	}
}

// Execute runs one assessment pass. Reruns on the same calendar date replace
// that date's rows and leave other dates untouched.
func (h *AssessRiskHandler) Execute(ctx context.Context, cmd AssessRiskCommand) (*AssessRiskResult, error) {
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	date := timeutil.StartOfDay(now)

	result := &AssessRiskResult{
		Date:          date,
		CountsByLevel: map[risk.Level]int{},
	}

	features := h.collector.collect(ctx, now)
	if len(features) == 0 {
		// No roster rows is "no data", not a failure; leave any existing
		// snapshot for the date untouched.
		h.log.Warn("no students to assess, skipping snapshot write",
			logger.AssessmentDate(timeutil.DateString(date)))
		return result, nil
	}

	forest, retrained, err := h.loadOrTrain(ctx, now)
	if err != nil {
		return nil, err
	}
	result.Retrained = retrained

	assessments := make([]risk.Assessment, 0, len(features))
	for _, f := range features {
		p, err := forest.PredictProba(f.Values())
		if err != nil {
			return nil, shared.WrapDomainError("risk", "Assess", shared.ErrSchemaMismatch, "prediction failed", err)
		}
		a := risk.NewAssessment(f, p, date)
		assessments = append(assessments, a)
		result.CountsByLevel[a.Level]++
	}

	if err := h.assessments.ReplaceForDate(ctx, date, assessments); err != nil {
		// The only hard failure: a failed write means no snapshot exists
		// for the day.
		return nil, shared.WrapDomainError("risk", "Assess", shared.ErrPersistenceFailure, "snapshot write failed", err)
	}
	result.Assessed = len(assessments)

	if h.invalidator != nil {
		if err := h.invalidator.InvalidateSnapshot(ctx); err != nil {
			h.log.Warn("snapshot cache invalidation failed", logger.Err(err))
		}
	}

	h.log.Info("risk snapshot written",
		logger.AssessmentDate(timeutil.DateString(date)),
		logger.StudentCount(result.Assessed),
		logger.Int("high", result.CountsByLevel[risk.LevelHigh]),
		logger.Int("medium", result.CountsByLevel[risk.LevelMedium]),
		logger.Int("low", result.CountsByLevel[risk.LevelLow]))

	return result, nil
}

// loadOrTrain loads the current artifact, falling back to an on-demand
// training pass when the artifact is missing, corrupt, or incompatible with
// the current feature schema. It never crashes the caller over a bad blob.
func (h *AssessRiskHandler) loadOrTrain(ctx context.Context, now time.Time) (*ml.Forest, bool, error) {
	data, err := h.artifacts.Load(ctx)
	if err == nil {
		forest, decodeErr := ml.DecodeArtifact(data, risk.FeatureNames)
		if decodeErr == nil {
			return forest, false, nil
		}
		h.log.Warn("stored model artifact unusable, retraining",
			logger.Err(decodeErr))
	} else if !errors.Is(err, shared.ErrNotFound) {
		h.log.Warn("model artifact load failed, retraining", logger.Err(err))
	} else {
		h.log.Info("no trained model found, training first")
	}

	_, forest, err := h.trainer.Execute(ctx, TrainModelCommand{Now: now})
	if err != nil {
		return nil, false, shared.WrapDomainError("risk", "Assess", shared.ErrModelUnavailable, "on-demand training failed", err)
	}
	return forest, true, nil
}
