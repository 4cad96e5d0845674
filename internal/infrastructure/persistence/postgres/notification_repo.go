package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edusignal/dropout-radar/internal/domain/notification"
	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/pkg/timeutil"
)

// NotificationRepository implements notification.Repository for PostgreSQL.
type NotificationRepository struct {
	conn *Connection
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(conn *Connection) *NotificationRepository {
	return &NotificationRepository{conn: conn}
}

// SaveBatch inserts notification rows.
func (r *NotificationRepository) SaveBatch(ctx context.Context, notifications []notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO notifications (id, student_id, mentor_id, notification_type, message, recipient, sent_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	for _, n := range notifications {
		var recipient *string
		if n.Recipient != "" {
			recipient = &n.Recipient
		}
		batch.Queue(query,
			n.ID, n.StudentID, n.MentorID, string(n.Type),
			n.Message, recipient, timeutil.StartOfDay(n.SentDate), string(n.Status))
	}

	results, err := r.conn.SendBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to insert notifications: %w", err)
	}
	defer results.Close()
	for range notifications {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert notifications: %w", err)
		}
	}
	return nil
}

// UpdateStatus sets the delivery status of a notification.
func (r *NotificationRepository) UpdateStatus(ctx context.Context, id string, status notification.Status) error {
	tag, err := r.conn.Exec(ctx,
		"UPDATE notifications SET status = $1 WHERE id = $2", string(status), id)
	if err != nil {
		return fmt.Errorf("failed to update notification status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListForDate returns notifications created on the given date.
func (r *NotificationRepository) ListForDate(ctx context.Context, date time.Time) ([]notification.Notification, error) {
	query := `
		SELECT id, student_id, mentor_id, notification_type, message, COALESCE(recipient, ''), sent_date, status
		FROM notifications
		WHERE sent_date = $1
		ORDER BY notification_type, mentor_id, student_id
	`

	rows, err := r.conn.Query(ctx, query, timeutil.StartOfDay(date))
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	var notifications []notification.Notification
	for rows.Next() {
		var n notification.Notification
		var nType, status string
		if err := rows.Scan(&n.ID, &n.StudentID, &n.MentorID, &nType, &n.Message, &n.Recipient, &n.SentDate, &status); err != nil {
			return nil, fmt.Errorf("failed to scan notification row: %w", err)
		}
		n.Type = notification.Type(nType)
		n.Status = notification.Status(status)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
