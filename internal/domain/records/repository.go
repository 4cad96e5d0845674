package records

import (
	"context"
	"time"
)

// AttendanceReader reads attendance events within a trailing window.
type AttendanceReader interface {
	// ListAttendanceSince returns attendance events dated on or after since.
	ListAttendanceSince(ctx context.Context, since time.Time) ([]AttendanceEvent, error)
}

// TestScoreReader reads test score events within a trailing window.
type TestScoreReader interface {
	// ListTestScoresSince returns test score events dated on or after since.
	ListTestScoresSince(ctx context.Context, since time.Time) ([]TestScoreEvent, error)
}

// FeePaymentReader reads fee ledger rows within a trailing window.
type FeePaymentReader interface {
	// ListFeePaymentsDueSince returns fee rows with a due date on or after since.
	ListFeePaymentsDueSince(ctx context.Context, since time.Time) ([]FeePayment, error)
}

// Reader bundles the three raw-event readers the aggregator consumes.
type Reader interface {
	AttendanceReader
	TestScoreReader
	FeePaymentReader
}

// Writer inserts raw event rows. Used only by sample data seeding;
// the pipeline itself never writes to these tables.
type Writer interface {
	InsertAttendanceBatch(ctx context.Context, events []AttendanceEvent) error
	InsertTestScoreBatch(ctx context.Context, events []TestScoreEvent) error
	InsertFeePaymentBatch(ctx context.Context, payments []FeePayment) error
	DeleteAllEvents(ctx context.Context) error
}
