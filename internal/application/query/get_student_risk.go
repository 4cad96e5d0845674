package query

import (
	"context"

	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// StudentRiskView is one student's latest assessment with roster identity.
type StudentRiskView struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	MentorID       string  `json:"mentor_id"`
	GuardianName   string  `json:"guardian_name"`
	AssessmentDate string  `json:"assessment_date"`
	OverallScore   float64 `json:"overall_risk_score"`
	Level          string  `json:"risk_level"`
	AttendanceRisk float64 `json:"attendance_risk"`
	AcademicRisk   float64 `json:"academic_risk"`
	FinancialRisk  float64 `json:"financial_risk"`
	Reasons        string  `json:"reasons"`
}

// GetStudentRiskHandler returns a single student's most recent assessment.
type GetStudentRiskHandler struct {
	assessments risk.AssessmentRepository
	students    student.Repository
}

// NewGetStudentRiskHandler creates a GetStudentRiskHandler.
func NewGetStudentRiskHandler(assessments risk.AssessmentRepository, students student.Repository) *GetStudentRiskHandler {
	return &GetStudentRiskHandler{assessments: assessments, students: students}
}

// Execute returns the view, or shared.ErrNotFound when either the student or
// an assessment for them does not exist.
func (h *GetStudentRiskHandler) Execute(ctx context.Context, studentID string) (*StudentRiskView, error) {
	if studentID == "" {
		return nil, shared.NewDomainError("dashboard", "GetStudentRisk", shared.ErrInvalidID, "student id is required")
	}

	rec, err := h.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	a, err := h.assessments.GetLatestForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	return &StudentRiskView{
		StudentID:      rec.ID,
		Name:           rec.Name,
		MentorID:       rec.MentorID,
		GuardianName:   rec.GuardianName,
		AssessmentDate: timeutil.DateString(a.Date),
		OverallScore:   a.OverallScore,
		Level:          string(a.Level),
		AttendanceRisk: a.AttendanceRisk,
		AcademicRisk:   a.AcademicRisk,
		FinancialRisk:  a.FinancialRisk,
		Reasons:        a.Reasons,
	}, nil
}
