// Package student contains the student roster domain model.
// Roster rows are immutable reference data: created at enrollment and
// read-only to the risk pipeline.
package student

import (
	"strings"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/shared"
)

// Record represents one enrolled student.
type Record struct {
	// ID is the unique student identifier (e.g., "STU1042").
	ID string

	// Name is the student's display name.
	Name string

	// Email is the student's contact email.
	Email string

	// Phone is the student's contact phone.
	Phone string

	// GuardianName is the name of the student's guardian.
	GuardianName string

	// GuardianPhone is the guardian's contact phone.
	GuardianPhone string

	// GuardianEmail is the guardian's contact email.
	GuardianEmail string

	// MentorID is the identifier of the assigned mentor (e.g., "MENT3").
	MentorID string

	// EnrollmentDate is when the student enrolled.
	EnrollmentDate time.Time
}

// Validate checks the record's required fields.
func (r Record) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrInvalidID, "student id is required")
	}
	if strings.TrimSpace(r.Name) == "" {
		return shared.NewDomainError("student", "Validate", shared.ErrEmptyValue, "student name is required")
	}
	return nil
}
