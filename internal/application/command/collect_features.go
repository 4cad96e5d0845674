// Package command contains write operations of the risk pipeline
// (CQRS - Commands): training, assessment, notification generation,
// and sample data seeding.
package command

import (
	"context"
	"math/rand"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/logger"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// featureCollector turns the raw tables into the per-student feature table,
// applying the stage-level recovery policy: any read failure is logged and
// replaced by an empty source, so the result is always a correctly shaped
// table (possibly with zero rows) rather than an error.
type featureCollector struct {
	students student.Repository
	events   records.Reader
	log      *logger.Logger
}

// collect returns one feature row per enrolled student, or an empty table
// when the roster itself is unreadable. Callers must treat zero rows as
// "no data", not as a failure.
func (c *featureCollector) collect(ctx context.Context, now time.Time) []risk.FeatureVector {
	log := c.log.With(logger.Component("feature_aggregator"))

	roster, err := c.students.GetAll(ctx)
	if err != nil {
		log.Error("roster read failed, returning empty feature table", logger.Err(err))
		return []risk.FeatureVector{}
	}

	attendance, err := c.events.ListAttendanceSince(ctx, timeutil.WindowStart(now, risk.AttendanceWindowDays))
	if err != nil {
		log.Error("attendance read failed, substituting empty window", logger.Err(err))
		attendance = nil
	}

	scores, err := c.events.ListTestScoresSince(ctx, timeutil.WindowStart(now, risk.AcademicWindowDays))
	if err != nil {
		log.Error("test score read failed, substituting empty window", logger.Err(err))
		scores = nil
	}

	fees, err := c.events.ListFeePaymentsDueSince(ctx, timeutil.WindowStart(now, risk.FinancialWindowDays))
	if err != nil {
		log.Error("fee payment read failed, substituting empty window", logger.Err(err))
		fees = nil
	}

	return risk.Aggregate(roster, attendance, scores, fees, now)
}

// syntheticFeatures builds a deterministic stand-in feature table used only
// when training is requested against an empty store, to keep test/demo runs
// alive. Production schema drift should never reach this path silently,
// hence the loud log at the call site.
func syntheticFeatures(n int, seed int64) []risk.FeatureVector {
	rng := rand.New(rand.NewSource(seed))
	features := make([]risk.FeatureVector, 0, n)
	for i := 0; i < n; i++ {
		attendancePct := 50 + rng.Float64()*50
		avgScore := 40 + rng.Float64()*55
		maxAttempts := 1 + rng.Intn(3)
		financial := 0.0
		if rng.Float64() < 0.2 {
			financial = 1.0
		}
		features = append(features, risk.FeatureVector{
			StudentID:            studentIDFromIndex(i),
			AttendanceRisk:       (100 - attendancePct) / 100,
			AcademicRisk:         0.7*(100-avgScore)/100 + 0.3*float64(maxAttempts)/3,
			FinancialRisk:        financial,
			AttendancePercentage: attendancePct,
			AvgScore:             avgScore,
			MaxAttempts:          maxAttempts,
		})
	}
	return features
}
