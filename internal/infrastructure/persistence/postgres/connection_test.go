package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/edusignal/dropout-radar/internal/domain/auth"
	"github.com/edusignal/dropout-radar/internal/domain/notification"
	"github.com/edusignal/dropout-radar/internal/domain/records"
	"github.com/edusignal/dropout-radar/internal/domain/student"
)

// closedConnection builds a Connection in the closed state. The closed check
// runs before any pool access, so no pool is needed.
func closedConnection() *Connection {
	return &Connection{closed: true}
}

func TestConnection_ClosedGuards(t *testing.T) {
	ctx := context.Background()
	conn := closedConnection()

	_, err := conn.Exec(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrConnectionClosed)

	_, err = conn.Query(ctx, "SELECT 1")
	assert.ErrorIs(t, err, ErrConnectionClosed)

	_, err = conn.CopyFrom(ctx, pgx.Identifier{"attendance"}, []string{"student_id"}, pgx.CopyFromRows(nil))
	assert.ErrorIs(t, err, ErrConnectionClosed)

	_, err = conn.SendBatch(ctx, &pgx.Batch{})
	assert.ErrorIs(t, err, ErrConnectionClosed)

	assert.ErrorIs(t, conn.Ping(ctx), ErrConnectionClosed)
	assert.ErrorIs(t, conn.WithTx(ctx, func(pgx.Tx) error { return nil }), ErrConnectionClosed)
}

func TestBatchInserts_ClosedConnection(t *testing.T) {
	ctx := context.Background()
	conn := closedConnection()
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	events := NewRecordsRepository(conn)
	err := events.InsertAttendanceBatch(ctx, []records.AttendanceEvent{
		{StudentID: "STU1", Subject: "Math", Date: date, Present: true},
	})
	assert.ErrorIs(t, err, ErrConnectionClosed)

	students := NewStudentRepository(conn)
	err = students.CreateBatch(ctx, []student.Record{{ID: "STU1", Name: "One"}})
	assert.ErrorIs(t, err, ErrConnectionClosed)

	notifications := NewNotificationRepository(conn)
	err = notifications.SaveBatch(ctx, []notification.Notification{
		{ID: "n1", StudentID: "STU1", MentorID: "MENT1", SentDate: date},
	})
	assert.ErrorIs(t, err, ErrConnectionClosed)

	users := NewUserRepository(conn)
	err = users.CreateBatch(ctx, []auth.User{{Username: "admin"}})
	assert.ErrorIs(t, err, ErrConnectionClosed)
}
