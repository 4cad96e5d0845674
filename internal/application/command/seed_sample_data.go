package command

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/auth"
	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/logger"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// sampleSubjects mirrors the demo institute's curriculum.
var sampleSubjects = []string{"Mathematics", "Physics", "Chemistry", "English", "Computer Science"}

// SeedSampleDataCommand configures sample data generation.
type SeedSampleDataCommand struct {
	// NumStudents is the roster size (default 50).
	NumStudents int

	// Seed fixes the random source so repeated seeding is reproducible.
	Seed int64

	// Now anchors the generated event dates. Defaults to time.Now.
	Now time.Time
}

// SeedSampleDataResult reports what was generated.
type SeedSampleDataResult struct {
	Students         int
	AttendanceEvents int
	TestScores       int
	FeePayments      int
	DashboardUsers   int
}

// SeedSampleDataHandler regenerates the raw tables with a synthetic cohort:
// roughly 20% of students with poor attendance, students with IDs ending in
// 0/4/7 with weak scores, and IDs ending in 2/5 with pending fees - enough
// spread for the weak-label rule to produce both classes.
type SeedSampleDataHandler struct {
	students student.Repository
	events   records.Writer
	users    auth.Repository
	log      *logger.Logger
}

// NewSeedSampleDataHandler creates a SeedSampleDataHandler.
func NewSeedSampleDataHandler(
	students student.Repository,
	events records.Writer,
	users auth.Repository,
	log *logger.Logger,
) *SeedSampleDataHandler {
	return &SeedSampleDataHandler{
		students: students,
		events:   events,
		users:    users,
		log:      log.With(logger.Component("sample_data")),
	}
}

// studentIDFromIndex builds the demo student ID scheme: STU1000, STU1001, ...
func studentIDFromIndex(i int) string {
	return fmt.Sprintf("STU%d", 1000+i)
}

// Execute clears the store and generates a fresh synthetic data set.
func (h *SeedSampleDataHandler) Execute(ctx context.Context, cmd SeedSampleDataCommand) (*SeedSampleDataResult, error) {
	if cmd.NumStudents <= 0 {
		cmd.NumStudents = 50
	}
	now := cmd.Now
	if now.IsZero() {
		now = time.Now()
	}
	rng := rand.New(rand.NewSource(cmd.Seed))

	if err := h.events.DeleteAllEvents(ctx); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "clearing event tables failed", err)
	}
	if err := h.students.DeleteAll(ctx); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "clearing roster failed", err)
	}
	if err := h.users.DeleteAll(ctx); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "clearing users failed", err)
	}

	roster := h.generateStudents(cmd.NumStudents, now)
	if err := h.students.CreateBatch(ctx, roster); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "roster insert failed", err)
	}

	attendance := h.generateAttendance(roster, now, rng)
	if err := h.events.InsertAttendanceBatch(ctx, attendance); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "attendance insert failed", err)
	}

	scores := h.generateTestScores(roster, now, rng)
	if err := h.events.InsertTestScoreBatch(ctx, scores); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "test score insert failed", err)
	}

	fees := h.generateFeePayments(roster, now)
	if err := h.events.InsertFeePaymentBatch(ctx, fees); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "fee payment insert failed", err)
	}

	users, err := h.generateUsers()
	if err != nil {
		return nil, err
	}
	if err := h.users.CreateBatch(ctx, users); err != nil {
		return nil, shared.WrapDomainError("seed", "Execute", shared.ErrPersistenceFailure, "user insert failed", err)
	}

	result := &SeedSampleDataResult{
		Students:         len(roster),
		AttendanceEvents: len(attendance),
		TestScores:       len(scores),
		FeePayments:      len(fees),
		DashboardUsers:   len(users),
	}
	h.log.Info("sample data generated",
		logger.StudentCount(result.Students),
		logger.Int("attendance_events", result.AttendanceEvents),
		logger.Int("test_scores", result.TestScores),
		logger.Int("fee_payments", result.FeePayments))
	return result, nil
}

func (h *SeedSampleDataHandler) generateStudents(n int, now time.Time) []student.Record {
	roster := make([]student.Record, 0, n)
	enrollment := timeutil.DaysAgo(now, 230)
	for i := 0; i < n; i++ {
		id := studentIDFromIndex(i)
		roster = append(roster, student.Record{
			ID:             id,
			Name:           fmt.Sprintf("Student %d", i+1),
			Email:          fmt.Sprintf("student%d@institute.edu", i+1),
			Phone:          fmt.Sprintf("98765432%02d", i%100),
			GuardianName:   fmt.Sprintf("Guardian %d", i+1),
			GuardianPhone:  fmt.Sprintf("98765433%02d", i%100),
			GuardianEmail:  fmt.Sprintf("guardian%d@example.com", i+1),
			MentorID:       fmt.Sprintf("MENT%d", (i%10)+1),
			EnrollmentDate: enrollment,
		})
	}
	return roster
}

// generateAttendance writes 30 days of marks per subject. Every 5th student
// attends ~60% of classes, the rest ~90%.
func (h *SeedSampleDataHandler) generateAttendance(roster []student.Record, now time.Time, rng *rand.Rand) []records.AttendanceEvent {
	var events []records.AttendanceEvent
	for _, rec := range roster {
		poor := studentNumber(rec.ID)%5 == 0
		for _, subject := range sampleSubjects {
			for day := 1; day <= 30; day++ {
				date := timeutil.DaysAgo(now, 31-day)
				var present bool
				if poor {
					present = rng.Float64() > 0.4
				} else {
					present = rng.Float64() > 0.1
				}
				events = append(events, records.AttendanceEvent{
					StudentID: rec.ID,
					Subject:   subject,
					Date:      date,
					Present:   present,
				})
			}
		}
	}
	return events
}

// generateTestScores writes 1-3 attempts per subject. Students whose numeric
// ID ends in 0, 4, or 7 score around 55, the rest around 75.
func (h *SeedSampleDataHandler) generateTestScores(roster []student.Record, now time.Time, rng *rand.Rand) []records.TestScoreEvent {
	var events []records.TestScoreEvent
	for _, rec := range roster {
		base := 75.0
		switch studentNumber(rec.ID) % 10 {
		case 0, 4, 7:
			base = 55.0
		}
		for _, subject := range sampleSubjects {
			attempts := 1 + rng.Intn(3)
			for attempt := 1; attempt <= attempts; attempt++ {
				score := base + rng.NormFloat64()*12
				if score < 0 {
					score = 0
				}
				if score > 100 {
					score = 100
				}
				events = append(events, records.TestScoreEvent{
					StudentID:     rec.ID,
					Subject:       subject,
					TestType:      fmt.Sprintf("Unit Test %d", attempt),
					Score:         score,
					MaxScore:      100,
					Date:          timeutil.DaysAgo(now, 30-(attempt-1)*7),
					AttemptNumber: attempt,
				})
			}
		}
	}
	return events
}

// generateFeePayments gives students whose numeric ID ends in 2 or 5 an
// overdue pending fee; everyone else has paid.
func (h *SeedSampleDataHandler) generateFeePayments(roster []student.Record, now time.Time) []records.FeePayment {
	var fees []records.FeePayment
	dueDate := timeutil.DaysAgo(now, 15)
	for _, rec := range roster {
		hasIssue := false
		switch studentNumber(rec.ID) % 10 {
		case 2, 5:
			hasIssue = true
		}
		fee := records.FeePayment{
			StudentID:  rec.ID,
			AmountDue:  5000,
			AmountPaid: 5000,
			DueDate:    dueDate,
			Status:     records.FeeStatusPaid,
		}
		if hasIssue {
			fee.AmountPaid = 0
			fee.Status = records.FeeStatusPending
			fee.PaymentDate = nil
		} else {
			paid := timeutil.DaysAgo(now, 10)
			fee.PaymentDate = &paid
		}
		fees = append(fees, fee)
	}
	return fees
}

// generateUsers seeds the demo dashboard logins: one admin, two mentors.
func (h *SeedSampleDataHandler) generateUsers() ([]auth.User, error) {
	logins := []struct {
		username string
		password string
		role     auth.Role
		mentorID string
	}{
		{"admin", "admin123", auth.RoleAdmin, ""},
		{"mentor1", "pass1", auth.RoleMentor, "MENT1"},
		{"mentor2", "pass2", auth.RoleMentor, "MENT2"},
	}
	users := make([]auth.User, 0, len(logins))
	for _, l := range logins {
		hash, err := auth.HashPassword(l.password)
		if err != nil {
			return nil, shared.WrapDomainError("seed", "Execute", shared.ErrInvalidInput, "password hashing failed", err)
		}
		users = append(users, auth.User{
			Username:     l.username,
			PasswordHash: hash,
			Role:         l.role,
			MentorID:     l.mentorID,
		})
	}
	return users, nil
}

// studentNumber extracts the numeric part of a demo student ID.
func studentNumber(id string) int {
	if len(id) <= 3 {
		return 0
	}
	n, err := strconv.Atoi(id[3:])
	if err != nil {
		return 0
	}
	return n
}
