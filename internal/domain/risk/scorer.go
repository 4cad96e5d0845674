package risk

import (
	"fmt"
	"strings"
)

// Level is the three-step risk category shown to mentors.
type Level string

const (
	LevelLow    Level = "Low"
	LevelMedium Level = "Medium"
	LevelHigh   Level = "High"
)

// Score thresholds on the 0-100 scale. Boundaries are exclusive on the lower
// side: a score of exactly 70 is Medium, 70.01 is High.
const (
	highScoreThreshold   = 70
	mediumScoreThreshold = 40
)

// Reason thresholds for the human-readable explanation list.
const (
	reasonAttendanceThreshold = 75 // percent
	reasonScoreThreshold      = 60 // percent
	reasonAttemptsThreshold   = 2
)

// NoRiskFactorsReason is the reasons text when no rule matches.
const NoRiskFactorsReason = "No significant risk factors"

// ScoreFromProbability maps a model probability in [0,1] to the 0-100 scale.
func ScoreFromProbability(p float64) float64 {
	return p * 100
}

// LevelForScore maps an overall risk score to its level.
func LevelForScore(score float64) Level {
	switch {
	case score > highScoreThreshold:
		return LevelHigh
	case score > mediumScoreThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Reasons builds the ordered, comma-joined reasons list for a feature row.
// Order and exact wording are consumed verbatim by notification text, so
// both are fixed: attendance, academic performance, attempts, fees.
func Reasons(f FeatureVector) string {
	var reasons []string
	if f.AttendancePercentage < reasonAttendanceThreshold {
		reasons = append(reasons, fmt.Sprintf("Low attendance (%.1f%%)", f.AttendancePercentage))
	}
	if f.AvgScore < reasonScoreThreshold {
		reasons = append(reasons, fmt.Sprintf("Poor academic performance (%.1f%%)", f.AvgScore))
	}
	if f.MaxAttempts >= reasonAttemptsThreshold {
		reasons = append(reasons, fmt.Sprintf("Multiple test attempts (%d)", f.MaxAttempts))
	}
	if f.FinancialRisk > 0 {
		reasons = append(reasons, "Fee payment issues")
	}
	if len(reasons) == 0 {
		return NoRiskFactorsReason
	}
	return strings.Join(reasons, ", ")
}
