package risk

import (
	"time"
)

// Assessment is one dated risk snapshot row for a student. Sub-risks are
// stored on the 0-100 percent scale (feature-space risks multiplied by 100).
type Assessment struct {
	StudentID string

	// Date is the assessment date (date-only granularity).
	Date time.Time

	// OverallScore is the model probability on the 0-100 scale.
	OverallScore float64

	// Level is the three-step category derived from OverallScore.
	Level Level

	// Sub-risk percentages.
	AttendanceRisk float64
	AcademicRisk   float64
	FinancialRisk  float64

	// Reasons is the ordered, comma-joined explanation text.
	Reasons string
}

// NewAssessment builds an assessment row from a feature vector and its model
// probability. This is the single place where model output and raw sub-risks
// are assembled into the stored snapshot shape.
func NewAssessment(f FeatureVector, probability float64, date time.Time) Assessment {
	score := ScoreFromProbability(probability)
	return Assessment{
		StudentID:      f.StudentID,
		Date:           date,
		OverallScore:   score,
		Level:          LevelForScore(score),
		AttendanceRisk: f.AttendanceRisk * 100,
		AcademicRisk:   f.AcademicRisk * 100,
		FinancialRisk:  f.FinancialRisk * 100,
		Reasons:        Reasons(f),
	}
}
