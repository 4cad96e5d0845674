package risk

// Weak-supervision thresholds. No human-labeled ground truth exists for
// dropout: training labels are generated by this fixed rule, which makes the
// rule itself part of the design contract rather than an implementation
// detail. Any change here changes what the model learns.
const (
	labelAttendanceThreshold = 0.3
	labelAcademicThreshold   = 0.4
)

// LabelRiskFactors counts how many of the three label conditions hold for
// the feature row: attendance_risk > 0.3, academic_risk > 0.4,
// financial_risk > 0.
func LabelRiskFactors(f FeatureVector) int {
	factors := 0
	if f.AttendanceRisk > labelAttendanceThreshold {
		factors++
	}
	if f.AcademicRisk > labelAcademicThreshold {
		factors++
	}
	if f.FinancialRisk > 0 {
		factors++
	}
	return factors
}

// Label returns the synthetic training label: 1 (at risk) iff at least two
// of the three label conditions hold, else 0.
func Label(f FeatureVector) int {
	if LabelRiskFactors(f) >= 2 {
		return 1
	}
	return 0
}

// Labels generates training labels for a full feature table.
func Labels(features []FeatureVector) []int {
	labels := make([]int, len(features))
	for i, f := range features {
		labels[i] = Label(f)
	}
	return labels
}
