package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/internal/ml"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

var runNow = time.Date(2026, 4, 10, 9, 30, 0, 0, time.UTC)

// cohortStore builds a roster and event set with a clear split: even-indexed
// students are healthy, odd-indexed students miss class, score poorly, and
// owe fees.
func cohortStore(n int) (*fakeStudentRepo, *fakeRecordsStore) {
	students := &fakeStudentRepo{}
	events := &fakeRecordsStore{}

	for i := 0; i < n; i++ {
		id := studentIDFromIndex(i)
		students.roster = append(students.roster, student.Record{
			ID:            id,
			Name:          "Student " + id,
			MentorID:      "MENT1",
			GuardianName:  "Guardian " + id,
			GuardianEmail: id + "@guardians.example",
		})

		risky := i%2 == 1
		for d := 1; d <= 10; d++ {
			events.attendance = append(events.attendance, records.AttendanceEvent{
				StudentID: id,
				Subject:   "Mathematics",
				Date:      runNow.AddDate(0, 0, -d),
				Present:   !risky || d%3 == 0,
			})
		}

		score := 90.0
		attempts := 1
		if risky {
			score = 35.0
			attempts = 3
		}
		events.scores = append(events.scores, records.TestScoreEvent{
			StudentID:     id,
			Subject:       "Mathematics",
			Score:         score,
			MaxScore:      100,
			Date:          runNow.AddDate(0, 0, -7),
			AttemptNumber: attempts,
		})

		status := records.FeeStatusPaid
		if risky {
			status = records.FeeStatusPending
		}
		events.fees = append(events.fees, records.FeePayment{
			StudentID: id,
			AmountDue: 1000,
			DueDate:   runNow.AddDate(0, 0, -15),
			Status:    status,
		})
	}
	return students, events
}

func testForestConfig() ml.ForestConfig {
	cfg := ml.DefaultForestConfig()
	cfg.NumTrees = 20
	return cfg
}

func newAssessor(students *fakeStudentRepo, events *fakeRecordsStore, artifacts ml.ArtifactStore, assessments *fakeAssessmentRepo, inv SnapshotInvalidator) *AssessRiskHandler {
	log := testLogger()
	trainer := NewTrainModelHandler(students, events, artifacts, testForestConfig(), log)
	return NewAssessRiskHandler(students, events, artifacts, trainer, assessments, inv, log)
}

func TestAssessRisk_WritesSnapshotForEveryStudent(t *testing.T) {
	students, events := cohortStore(12)
	assessments := newFakeAssessmentRepo()
	inv := &fakeInvalidator{}
	h := newAssessor(students, events, &memArtifactStore{}, assessments, inv)

	result, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)

	assert.Equal(t, 12, result.Assessed)
	assert.True(t, result.Retrained, "empty artifact store should trigger training")
	assert.Equal(t, 1, inv.calls)

	rows, err := assessments.ListForDate(context.Background(), timeutil.StartOfDay(runNow))
	require.NoError(t, err)
	require.Len(t, rows, 12)

	seen := make(map[string]bool)
	for _, a := range rows {
		assert.False(t, seen[a.StudentID], "duplicate row for %s", a.StudentID)
		seen[a.StudentID] = true
		assert.True(t, timeutil.SameDate(a.Date, runNow))
		assert.NotEmpty(t, a.Reasons)
	}
}

func TestAssessRisk_RiskyStudentsScoreHigher(t *testing.T) {
	students, events := cohortStore(12)
	assessments := newFakeAssessmentRepo()
	h := newAssessor(students, events, &memArtifactStore{}, assessments, nil)

	_, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)

	rows, err := assessments.ListForDate(context.Background(), timeutil.StartOfDay(runNow))
	require.NoError(t, err)

	byID := make(map[string]float64)
	for _, a := range rows {
		byID[a.StudentID] = a.OverallScore
	}
	// Every risky (odd) student outscores every healthy (even) one.
	for i := 0; i < 12; i += 2 {
		healthy := byID[studentIDFromIndex(i)]
		risky := byID[studentIDFromIndex(i+1)]
		assert.Greater(t, risky, healthy)
	}
}

func TestAssessRisk_ReusesStoredArtifact(t *testing.T) {
	students, events := cohortStore(12)
	artifacts := &memArtifactStore{}
	h := newAssessor(students, events, artifacts, newFakeAssessmentRepo(), nil)

	first, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)
	require.True(t, first.Retrained)

	second, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.False(t, second.Retrained, "valid stored artifact must be reused")
}

func TestAssessRisk_RerunSameDateIsIdempotent(t *testing.T) {
	students, events := cohortStore(12)
	// Extra subjects with non-terminating attendance fractions, so the
	// per-student means depend on summation order staying fixed.
	for _, rec := range students.roster {
		for d := 1; d <= 3; d++ {
			events.attendance = append(events.attendance, records.AttendanceEvent{
				StudentID: rec.ID,
				Subject:   "Physics",
				Date:      runNow.AddDate(0, 0, -d),
				Present:   d == 1,
			})
		}
		for d := 1; d <= 7; d++ {
			events.attendance = append(events.attendance, records.AttendanceEvent{
				StudentID: rec.ID,
				Subject:   "Chemistry",
				Date:      runNow.AddDate(0, 0, -d),
				Present:   d <= 2,
			})
		}
	}
	assessments := newFakeAssessmentRepo()
	h := newAssessor(students, events, &memArtifactStore{}, assessments, nil)

	_, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)
	first, err := assessments.ListForDate(context.Background(), timeutil.StartOfDay(runNow))
	require.NoError(t, err)
	require.Len(t, first, 12)

	second, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)
	assert.False(t, second.Retrained)

	rerun, err := assessments.ListForDate(context.Background(), timeutil.StartOfDay(runNow))
	require.NoError(t, err)
	// Replaced, not appended, and row for row identical to the first run.
	assert.Equal(t, first, rerun)
}

func TestAssessRisk_RetrainsOnIncompatibleArtifact(t *testing.T) {
	students, events := cohortStore(12)
	artifacts := &memArtifactStore{data: []byte(`{"version":99}`)}
	h := newAssessor(students, events, artifacts, newFakeAssessmentRepo(), nil)

	result, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)
	assert.True(t, result.Retrained)
}

func TestAssessRisk_EmptyRosterSkipsWrite(t *testing.T) {
	students := &fakeStudentRepo{}
	events := &fakeRecordsStore{}
	assessments := newFakeAssessmentRepo()
	inv := &fakeInvalidator{}
	h := newAssessor(students, events, &memArtifactStore{}, assessments, inv)

	result, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Assessed)
	assert.Empty(t, assessments.byDate)
	assert.Equal(t, 0, inv.calls, "no write, no invalidation")
}

func TestAssessRisk_RosterReadFailureIsNotFatal(t *testing.T) {
	students := &fakeStudentRepo{err: context.DeadlineExceeded}
	h := newAssessor(students, &fakeRecordsStore{}, &memArtifactStore{}, newFakeAssessmentRepo(), nil)

	result, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Assessed)
}

func TestAssessRisk_EventReadFailureFallsBackToDefaults(t *testing.T) {
	students, events := cohortStore(4)
	events.attendanceErr = context.DeadlineExceeded
	events.scoresErr = context.DeadlineExceeded
	events.feesErr = context.DeadlineExceeded
	assessments := newFakeAssessmentRepo()
	h := newAssessor(students, events, &memArtifactStore{}, assessments, nil)

	result, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.NoError(t, err)

	// All sources empty: every student still gets a row built from the safe
	// defaults.
	assert.Equal(t, 4, result.Assessed)
}

func TestAssessRisk_PersistenceFailureIsFatal(t *testing.T) {
	students, events := cohortStore(12)
	assessments := newFakeAssessmentRepo()
	assessments.replaceErr = context.DeadlineExceeded
	h := newAssessor(students, events, &memArtifactStore{}, assessments, nil)

	_, err := h.Execute(context.Background(), AssessRiskCommand{Now: runNow})
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrPersistenceFailure)
}
