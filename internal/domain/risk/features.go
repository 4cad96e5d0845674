// Package risk contains the core of the dropout risk pipeline: feature
// aggregation from raw event tables, the weak-supervision labeling rule,
// and the deterministic scoring rules that turn a model probability into
// a risk level with human-readable reasons.
//
// Both the labeling rule and the safe-default fill policy are heuristic
// contracts. They have no external validation signal; changing them silently
// would change the model's only source of ground truth.
package risk

// Trailing window sizes, in days, for each raw source.
const (
	AttendanceWindowDays = 30
	AcademicWindowDays   = 60
	FinancialWindowDays  = 90
)

// FeatureNames lists the model features in their fixed column order.
// The order is part of the model artifact contract: an artifact trained
// against a different set is incompatible and triggers a retrain.
var FeatureNames = []string{
	"attendance_risk",
	"academic_risk",
	"financial_risk",
	"attendance_percentage",
	"avg_score",
	"max_attempts",
}

// FeatureVector is the per-student feature row produced by the aggregator,
// one per enrolled student per run.
type FeatureVector struct {
	StudentID string

	// AttendanceRisk is (100 - mean attendance percentage) / 100, in [0,1].
	AttendanceRisk float64

	// AcademicRisk is 0.7*(100-avg_score)/100 + 0.3*(max_attempts/3).
	// A weighted blend, not a probability: it exceeds 1 when attempts > 3
	// and is deliberately not clamped here.
	AcademicRisk float64

	// FinancialRisk is 1 when any fee row in the window is overdue, else 0.
	FinancialRisk float64

	// AttendancePercentage is the mean of per-subject attendance percentages.
	AttendancePercentage float64

	// AvgScore is the mean of per-subject average test scores.
	AvgScore float64

	// MaxAttempts is the maximum test attempt number across subjects.
	MaxAttempts int
}

// DefaultFeatureVector returns the "no risk" feature row used for students
// with no matching rows in a source. Missing data deliberately biases toward
// not flagging the student: full attendance, full score, zero risk.
func DefaultFeatureVector(studentID string) FeatureVector {
	return FeatureVector{
		StudentID:            studentID,
		AttendanceRisk:       0,
		AcademicRisk:         0,
		FinancialRisk:        0,
		AttendancePercentage: 100,
		AvgScore:             100,
		MaxAttempts:          0,
	}
}

// Values returns the feature row as a slice in FeatureNames order.
func (f FeatureVector) Values() []float64 {
	return []float64{
		f.AttendanceRisk,
		f.AcademicRisk,
		f.FinancialRisk,
		f.AttendancePercentage,
		f.AvgScore,
		float64(f.MaxAttempts),
	}
}

// clamp01 clamps v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
