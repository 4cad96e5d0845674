package risk

import (
	"context"
	"time"
)

// AssessmentRepository persists and reads dated risk snapshots.
type AssessmentRepository interface {
	// ReplaceForDate atomically replaces all assessment rows for the given
	// date with the provided set, leaving other dates untouched. A failed
	// replace must leave the previous rows for that date intact.
	ReplaceForDate(ctx context.Context, date time.Time, assessments []Assessment) error

	// ListForDate returns all assessments for a date, ordered by student ID.
	ListForDate(ctx context.Context, date time.Time) ([]Assessment, error)

	// ListForDateByLevels returns assessments for a date filtered to the
	// given levels, ordered by student ID.
	ListForDateByLevels(ctx context.Context, date time.Time, levels []Level) ([]Assessment, error)

	// LatestDate returns the most recent assessment date, or
	// shared.ErrNotFound when no snapshot exists.
	LatestDate(ctx context.Context) (time.Time, error)

	// GetLatestForStudent returns the student's assessment from the most
	// recent snapshot that contains one, or shared.ErrNotFound.
	GetLatestForStudent(ctx context.Context, studentID string) (*Assessment, error)
}
