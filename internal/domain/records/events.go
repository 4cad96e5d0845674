// Package records contains the raw per-event tables the risk pipeline reads:
// attendance marks, test scores, and fee payments. All three are append-only
// logs keyed by student; the pipeline consumes them through trailing windows
// (30, 60, and 90 days respectively) and never mutates them.
package records

import "time"

// Fee payment statuses.
const (
	FeeStatusPending = "Pending"
	FeeStatusPaid    = "Paid"
)

// AttendanceEvent is one attendance mark for a student in a subject on a date.
type AttendanceEvent struct {
	StudentID string
	Subject   string
	Date      time.Time
	Present   bool
}

// TestScoreEvent is one test result for a student.
type TestScoreEvent struct {
	StudentID     string
	Subject       string
	TestType      string
	Score         float64 // 0-100
	MaxScore      float64
	Date          time.Time
	AttemptNumber int
}

// FeePayment is one fee ledger row for a student.
type FeePayment struct {
	StudentID   string
	AmountDue   float64
	AmountPaid  float64
	DueDate     time.Time
	PaymentDate *time.Time // nil when unpaid
	Status      string     // FeeStatusPending or FeeStatusPaid
}

// PendingAmount returns the unpaid balance for this row.
func (f FeePayment) PendingAmount() float64 {
	return f.AmountDue - f.AmountPaid
}

// IsOverdue reports whether this row is overdue as of now:
// status is Pending and the due date has passed.
func (f FeePayment) IsOverdue(now time.Time) bool {
	return f.Status == FeeStatusPending && f.DueDate.Before(now)
}
