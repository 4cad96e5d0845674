package command

import (
	"context"
	"io"
	"time"

	"github.com/edusignal/dropout-radar/internal/domain/auth"
	"github.com/edusignal/dropout-radar/internal/domain/notification"
	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/risk"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
	"github.com/edusignal/dropout-radar/pkg/logger"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

type fakeStudentRepo struct {
	roster []student.Record
	err    error
}

func (f *fakeStudentRepo) GetAll(context.Context) ([]student.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.roster, nil
}

func (f *fakeStudentRepo) GetByID(_ context.Context, id string) (*student.Record, error) {
	for i := range f.roster {
		if f.roster[i].ID == id {
			return &f.roster[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeStudentRepo) CreateBatch(_ context.Context, roster []student.Record) error {
	f.roster = append(f.roster, roster...)
	return nil
}

func (f *fakeStudentRepo) DeleteAll(context.Context) error {
	f.roster = nil
	return nil
}

type fakeRecordsStore struct {
	attendance []records.AttendanceEvent
	scores     []records.TestScoreEvent
	fees       []records.FeePayment

	attendanceErr error
	scoresErr     error
	feesErr       error
}

func (f *fakeRecordsStore) ListAttendanceSince(context.Context, time.Time) ([]records.AttendanceEvent, error) {
	return f.attendance, f.attendanceErr
}

func (f *fakeRecordsStore) ListTestScoresSince(context.Context, time.Time) ([]records.TestScoreEvent, error) {
	return f.scores, f.scoresErr
}

func (f *fakeRecordsStore) ListFeePaymentsDueSince(context.Context, time.Time) ([]records.FeePayment, error) {
	return f.fees, f.feesErr
}

func (f *fakeRecordsStore) InsertAttendanceBatch(_ context.Context, events []records.AttendanceEvent) error {
	f.attendance = append(f.attendance, events...)
	return nil
}

func (f *fakeRecordsStore) InsertTestScoreBatch(_ context.Context, events []records.TestScoreEvent) error {
	f.scores = append(f.scores, events...)
	return nil
}

func (f *fakeRecordsStore) InsertFeePaymentBatch(_ context.Context, payments []records.FeePayment) error {
	f.fees = append(f.fees, payments...)
	return nil
}

func (f *fakeRecordsStore) DeleteAllEvents(context.Context) error {
	f.attendance = nil
	f.scores = nil
	f.fees = nil
	return nil
}

type memArtifactStore struct {
	data    []byte
	saveErr error
}

func (s *memArtifactStore) Save(_ context.Context, data []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.data = append([]byte(nil), data...)
	return nil
}

func (s *memArtifactStore) Load(context.Context) ([]byte, error) {
	if s.data == nil {
		return nil, shared.ErrNotFound
	}
	return s.data, nil
}

type fakeAssessmentRepo struct {
	byDate     map[string][]risk.Assessment
	replaceErr error
}

func newFakeAssessmentRepo() *fakeAssessmentRepo {
	return &fakeAssessmentRepo{byDate: make(map[string][]risk.Assessment)}
}

func (f *fakeAssessmentRepo) ReplaceForDate(_ context.Context, date time.Time, assessments []risk.Assessment) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.byDate[timeutil.DateString(date)] = append([]risk.Assessment(nil), assessments...)
	return nil
}

func (f *fakeAssessmentRepo) ListForDate(_ context.Context, date time.Time) ([]risk.Assessment, error) {
	return f.byDate[timeutil.DateString(date)], nil
}

func (f *fakeAssessmentRepo) ListForDateByLevels(_ context.Context, date time.Time, levels []risk.Level) ([]risk.Assessment, error) {
	wanted := make(map[risk.Level]bool, len(levels))
	for _, l := range levels {
		wanted[l] = true
	}
	var out []risk.Assessment
	for _, a := range f.byDate[timeutil.DateString(date)] {
		if wanted[a.Level] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAssessmentRepo) LatestDate(context.Context) (time.Time, error) {
	var latest time.Time
	for key := range f.byDate {
		d, err := timeutil.ParseDate(key, time.UTC)
		if err != nil {
			continue
		}
		if d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return time.Time{}, shared.ErrNotFound
	}
	return latest, nil
}

func (f *fakeAssessmentRepo) GetLatestForStudent(ctx context.Context, studentID string) (*risk.Assessment, error) {
	latest, err := f.LatestDate(ctx)
	if err != nil {
		return nil, err
	}
	for _, a := range f.byDate[timeutil.DateString(latest)] {
		if a.StudentID == studentID {
			return &a, nil
		}
	}
	return nil, shared.ErrNotFound
}

type fakeNotificationRepo struct {
	saved    []notification.Notification
	statuses map[string]notification.Status
	saveErr  error
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{statuses: make(map[string]notification.Status)}
}

func (f *fakeNotificationRepo) SaveBatch(_ context.Context, notifications []notification.Notification) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, notifications...)
	return nil
}

func (f *fakeNotificationRepo) UpdateStatus(_ context.Context, id string, status notification.Status) error {
	f.statuses[id] = status
	return nil
}

func (f *fakeNotificationRepo) ListForDate(_ context.Context, date time.Time) ([]notification.Notification, error) {
	var out []notification.Notification
	for _, n := range f.saved {
		if timeutil.SameDate(n.SentDate, date) {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeChannel struct {
	sent    []string // recipients in send order
	failFor map[string]bool
}

func (f *fakeChannel) Send(_ context.Context, recipient, _, _ string) error {
	if f.failFor[recipient] {
		return context.DeadlineExceeded
	}
	f.sent = append(f.sent, recipient)
	return nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) InvalidateSnapshot(context.Context) error {
	f.calls++
	return nil
}

type fakeUserRepo struct {
	users []auth.User
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*auth.User, error) {
	for i := range f.users {
		if f.users[i].Username == username {
			return &f.users[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

func (f *fakeUserRepo) CreateBatch(_ context.Context, users []auth.User) error {
	f.users = append(f.users, users...)
	return nil
}

func (f *fakeUserRepo) DeleteAll(context.Context) error {
	f.users = nil
	return nil
}
