package student

import "context"

// Repository provides access to the student roster.
type Repository interface {
	// GetAll returns every enrolled student.
	GetAll(ctx context.Context) ([]Record, error)

	// GetByID returns a single student by ID.
	// Returns shared.ErrNotFound when the student does not exist.
	GetByID(ctx context.Context, id string) (*Record, error)

	// CreateBatch inserts a batch of students (used by sample data seeding).
	CreateBatch(ctx context.Context, records []Record) error

	// DeleteAll removes every student (used by sample data seeding).
	DeleteAll(ctx context.Context) error
}
