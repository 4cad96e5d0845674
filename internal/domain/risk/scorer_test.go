package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Level
	}{
		{0, LevelLow},
		{40.0, LevelLow},
		{40.01, LevelMedium},
		{70.0, LevelMedium},
		{70.01, LevelHigh},
		{100, LevelHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %v", tt.score)
	}
}

func TestScoreFromProbability(t *testing.T) {
	assert.Equal(t, 0.0, ScoreFromProbability(0))
	assert.Equal(t, 50.0, ScoreFromProbability(0.5))
	assert.Equal(t, 100.0, ScoreFromProbability(1))
}

func TestReasons_OrderAndWording(t *testing.T) {
	f := FeatureVector{
		AttendancePercentage: 50,
		AvgScore:             50,
		MaxAttempts:          2,
		FinancialRisk:        1,
	}

	got := Reasons(f)

	assert.Equal(t,
		"Low attendance (50.0%), Poor academic performance (50.0%), Multiple test attempts (2), Fee payment issues",
		got)
}

func TestReasons_Thresholds(t *testing.T) {
	// Exactly at the thresholds: no reason fires.
	f := FeatureVector{
		AttendancePercentage: 75,
		AvgScore:             60,
		MaxAttempts:          1,
		FinancialRisk:        0,
	}

	assert.Equal(t, NoRiskFactorsReason, Reasons(f))
}

func TestReasons_SingleFactor(t *testing.T) {
	f := FeatureVector{
		AttendancePercentage: 74.5,
		AvgScore:             100,
	}

	assert.Equal(t, "Low attendance (74.5%)", Reasons(f))
}

func TestReasons_DefaultVectorHasNone(t *testing.T) {
	assert.Equal(t, NoRiskFactorsReason, Reasons(DefaultFeatureVector("STU1")))
}

func TestNewAssessment_ScalesSubRisks(t *testing.T) {
	f := FeatureVector{
		StudentID:            "STU1",
		AttendanceRisk:       0.25,
		AcademicRisk:         0.48,
		FinancialRisk:        1,
		AttendancePercentage: 75,
		AvgScore:             60,
		MaxAttempts:          2,
	}

	a := NewAssessment(f, 0.72, testNow)

	assert.Equal(t, "STU1", a.StudentID)
	assert.InDelta(t, 72.0, a.OverallScore, 1e-9)
	assert.Equal(t, LevelHigh, a.Level)
	assert.InDelta(t, 25.0, a.AttendanceRisk, 1e-9)
	assert.InDelta(t, 48.0, a.AcademicRisk, 1e-9)
	assert.InDelta(t, 100.0, a.FinancialRisk, 1e-9)
	assert.Equal(t, "Multiple test attempts (2), Fee payment issues", a.Reasons)
}
