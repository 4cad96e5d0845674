// Package notification contains the alert model for mentors and guardians.
// Alerts are generated from the day's risk snapshot; delivery mechanics
// (email, SMS) live behind the Channel interface and their outcome is kept
// in the notifications log, outside the core pipeline.
package notification

import (
	"context"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/shared"
)

// Type identifies the kind of alert.
type Type string

const (
	// TypeMentorAlert is a per-mentor digest of their at-risk students.
	TypeMentorAlert Type = "MENTOR_ALERT"

	// TypeGuardianAlert is a per-student alert sent to the guardian of a
	// high-risk student.
	TypeGuardianAlert Type = "GUARDIAN_ALERT"
)

// Status is the delivery state of a notification.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Notification is one row in the notifications log.
type Notification struct {
	ID        string
	StudentID string // "ALL" for mentor digests covering multiple students
	MentorID  string // "GUARDIAN" for guardian alerts
	Type      Type
	Message   string
	Recipient string // email address; empty when unknown
	SentDate  time.Time
	Status    Status
}

// Validate checks the notification's required fields.
func (n Notification) Validate() error {
	if n.ID == "" {
		return shared.NewDomainError("notification", "Validate", shared.ErrInvalidID, "notification id is required")
	}
	if n.Message == "" {
		return shared.NewDomainError("notification", "Validate", shared.ErrEmptyValue, "message is required")
	}
	switch n.Type {
	case TypeMentorAlert, TypeGuardianAlert:
	default:
		return shared.NewDomainError("notification", "Validate", shared.ErrInvalidInput, "unknown notification type")
	}
	return nil
}

// Repository persists the notifications log.
type Repository interface {
	// SaveBatch inserts notification rows.
	SaveBatch(ctx context.Context, notifications []Notification) error

	// UpdateStatus sets the delivery status of a notification.
	UpdateStatus(ctx context.Context, id string, status Status) error

	// ListForDate returns notifications created on the given date.
	ListForDate(ctx context.Context, date time.Time) ([]Notification, error)
}
