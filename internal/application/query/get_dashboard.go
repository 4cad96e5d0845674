// Package query contains read operations for the dashboard and notification
// consumers (CQRS - Queries). Queries never write to the assessment store.
package query

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/logger"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// DashboardRow is one student line on the dashboard: the latest assessment
// joined with roster identity.
type DashboardRow struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	MentorID       string  `json:"mentor_id"`
	OverallScore   float64 `json:"overall_risk_score"`
	Level          string  `json:"risk_level"`
	AttendanceRisk float64 `json:"attendance_risk"`
	AcademicRisk   float64 `json:"academic_risk"`
	FinancialRisk  float64 `json:"financial_risk"`
	Reasons        string  `json:"reasons"`
}

// DashboardView is the latest snapshot prepared for display.
type DashboardView struct {
	Date        string         `json:"assessment_date"`
	Total       int            `json:"total"`
	HighCount   int            `json:"high_count"`
	MediumCount int            `json:"medium_count"`
	LowCount    int            `json:"low_count"`
	Rows        []DashboardRow `json:"rows"`
}

// SnapshotCache caches the prepared dashboard view for the latest date.
type SnapshotCache interface {
	// GetDashboard returns the cached view, or a cache-miss error.
	GetDashboard(ctx context.Context) (*DashboardView, error)

	// SetDashboard stores the view with the cache's TTL.
	SetDashboard(ctx context.Context, view *DashboardView) error
}

// GetDashboardHandler assembles the dashboard view from the latest snapshot,
// with a cache-aside read through the optional snapshot cache.
type GetDashboardHandler struct {
	assessments risk.AssessmentRepository
	students    student.Repository
	cache       SnapshotCache
	log         *logger.Logger
}

// NewGetDashboardHandler creates a GetDashboardHandler. cache may be nil.
func NewGetDashboardHandler(
	assessments risk.AssessmentRepository,
	students student.Repository,
	cache SnapshotCache,
	log *logger.Logger,
) *GetDashboardHandler {
	return &GetDashboardHandler{
		assessments: assessments,
		students:    students,
		cache:       cache,
		log:         log.With(logger.Component("dashboard")),
	}
}

// Execute returns the latest snapshot joined with the roster.
// Returns shared.ErrNotFound when no snapshot has ever been written.
func (h *GetDashboardHandler) Execute(ctx context.Context) (*DashboardView, error) {
	if h.cache != nil {
		if view, err := h.cache.GetDashboard(ctx); err == nil {
			return view, nil
		}
	}

	latest, err := h.assessments.LatestDate(ctx)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		return nil, shared.WrapDomainError("dashboard", "Execute", shared.ErrDataUnavailable, "latest snapshot lookup failed", err)
	}

	view, err := h.buildView(ctx, latest)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.SetDashboard(ctx, view); err != nil {
			h.log.Warn("dashboard cache write failed", logger.Err(err))
		}
	}
	return view, nil
}

func (h *GetDashboardHandler) buildView(ctx context.Context, date time.Time) (*DashboardView, error) {
	assessments, err := h.assessments.ListForDate(ctx, date)
	if err != nil {
		return nil, shared.WrapDomainError("dashboard", "Execute", shared.ErrDataUnavailable, "snapshot read failed", err)
	}

	roster, err := h.students.GetAll(ctx)
	if err != nil {
		return nil, shared.WrapDomainError("dashboard", "Execute", shared.ErrDataUnavailable, "roster read failed", err)
	}
	byID := make(map[string]student.Record, len(roster))
	for _, rec := range roster {
		byID[rec.ID] = rec
	}

	view := &DashboardView{
		Date: timeutil.DateString(date),
		Rows: make([]DashboardRow, 0, len(assessments)),
	}
	for _, a := range assessments {
		row := DashboardRow{
			StudentID:      a.StudentID,
			OverallScore:   a.OverallScore,
			Level:          string(a.Level),
			AttendanceRisk: a.AttendanceRisk,
			AcademicRisk:   a.AcademicRisk,
			FinancialRisk:  a.FinancialRisk,
			Reasons:        a.Reasons,
		}
		if rec, ok := byID[a.StudentID]; ok {
			row.Name = rec.Name
			row.MentorID = rec.MentorID
		}
		view.Rows = append(view.Rows, row)

		switch a.Level {
		case risk.LevelHigh:
			view.HighCount++
		case risk.LevelMedium:
			view.MediumCount++
		default:
			view.LowCount++
		}
	}
	view.Total = len(view.Rows)

	// Highest risk first, ties by student ID for stable output.
	sort.Slice(view.Rows, func(i, j int) bool {
		if view.Rows[i].OverallScore != view.Rows[j].OverallScore {
			return view.Rows[i].OverallScore > view.Rows[j].OverallScore
		}
		return view.Rows[i].StudentID < view.Rows[j].StudentID
	})

	return view, nil
}
