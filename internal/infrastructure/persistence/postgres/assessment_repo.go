package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// AssessmentRepository implements risk.AssessmentRepository for PostgreSQL.
type AssessmentRepository struct {
	conn *Connection
}

// NewAssessmentRepository creates a new AssessmentRepository.
func NewAssessmentRepository(conn *Connection) *AssessmentRepository {
	return &AssessmentRepository{conn: conn}
}

const assessmentColumns = `student_id, assessment_date, overall_risk_score, risk_level, attendance_risk, academic_risk, financial_risk, reasons`

// ReplaceForDate replaces the snapshot for a date inside a single
// transaction, so a failed run never leaves the date half-written.
func (r *AssessmentRepository) ReplaceForDate(ctx context.Context, date time.Time, assessments []risk.Assessment) error {
	day := timeutil.StartOfDay(date)

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM risk_assessments WHERE assessment_date = $1", day); err != nil {
			return fmt.Errorf("failed to clear snapshot for %s: %w", timeutil.DateString(day), err)
		}

		query := fmt.Sprintf(`
			INSERT INTO risk_assessments (%s)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, assessmentColumns)
		for _, a := range assessments {
			_, err := tx.Exec(ctx, query,
				a.StudentID, day, a.OverallScore, string(a.Level),
				a.AttendanceRisk, a.AcademicRisk, a.FinancialRisk, a.Reasons)
			if err != nil {
				return fmt.Errorf("failed to insert assessment for %s: %w", a.StudentID, err)
			}
		}
		return nil
	})
}

// ListForDate returns the full snapshot for a date ordered by student ID.
func (r *AssessmentRepository) ListForDate(ctx context.Context, date time.Time) ([]risk.Assessment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM risk_assessments
		WHERE assessment_date = $1
		ORDER BY student_id
	`, assessmentColumns)

	rows, err := r.conn.Query(ctx, query, timeutil.StartOfDay(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments: %w", err)
	}
	defer rows.Close()

	return scanAssessments(rows)
}

// ListForDateByLevels returns the snapshot for a date filtered to the given
// risk levels, ordered by student ID.
func (r *AssessmentRepository) ListForDateByLevels(ctx context.Context, date time.Time, levels []risk.Level) ([]risk.Assessment, error) {
	if len(levels) == 0 {
		return nil, nil
	}

	names := make([]string, len(levels))
	for i, l := range levels {
		names[i] = string(l)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM risk_assessments
		WHERE assessment_date = $1 AND risk_level = ANY($2)
		ORDER BY student_id
	`, assessmentColumns)

	rows, err := r.conn.Query(ctx, query, timeutil.StartOfDay(date), names)
	if err != nil {
		return nil, fmt.Errorf("failed to query assessments by level: %w", err)
	}
	defer rows.Close()

	return scanAssessments(rows)
}

// LatestDate returns the most recent snapshot date.
func (r *AssessmentRepository) LatestDate(ctx context.Context) (time.Time, error) {
	var date *time.Time
	err := r.conn.QueryRow(ctx, "SELECT MAX(assessment_date) FROM risk_assessments").Scan(&date)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest snapshot date: %w", err)
	}
	if date == nil {
		// MAX over an empty table yields SQL NULL.
		return time.Time{}, shared.ErrNotFound
	}
	return *date, nil
}

// GetLatestForStudent returns the student's most recent assessment row.
func (r *AssessmentRepository) GetLatestForStudent(ctx context.Context, studentID string) (*risk.Assessment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM risk_assessments
		WHERE student_id = $1
		ORDER BY assessment_date DESC
		LIMIT 1
	`, assessmentColumns)

	a, err := scanAssessment(r.conn.QueryRow(ctx, query, studentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func scanAssessment(row pgx.Row) (risk.Assessment, error) {
	var a risk.Assessment
	var level string
	err := row.Scan(&a.StudentID, &a.Date, &a.OverallScore, &level,
		&a.AttendanceRisk, &a.AcademicRisk, &a.FinancialRisk, &a.Reasons)
	if err != nil {
		return a, err
	}
	a.Level = risk.Level(level)
	return a, nil
}

func scanAssessments(rows pgx.Rows) ([]risk.Assessment, error) {
	var assessments []risk.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assessment row: %w", err)
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}
