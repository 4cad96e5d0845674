package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edusignal/dropout-radar/internal/domain/records"
)

// RecordsRepository implements records.Reader and records.Writer for
// PostgreSQL. The raw event tables are append-only: the pipeline reads them
// through trailing windows and only the sample data seeder writes to them.
type RecordsRepository struct {
	conn *Connection
}

// NewRecordsRepository creates a new RecordsRepository.
func NewRecordsRepository(conn *Connection) *RecordsRepository {
	return &RecordsRepository{conn: conn}
}

// ListAttendanceSince returns attendance events dated on or after since.
func (r *RecordsRepository) ListAttendanceSince(ctx context.Context, since time.Time) ([]records.AttendanceEvent, error) {
	query := `
		SELECT student_id, subject, date, present
		FROM attendance
		WHERE date >= $1
		ORDER BY student_id, subject, date
	`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance: %w", err)
	}
	defer rows.Close()

	var events []records.AttendanceEvent
	for rows.Next() {
		var e records.AttendanceEvent
		if err := rows.Scan(&e.StudentID, &e.Subject, &e.Date, &e.Present); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListTestScoresSince returns test score events dated on or after since.
func (r *RecordsRepository) ListTestScoresSince(ctx context.Context, since time.Time) ([]records.TestScoreEvent, error) {
	query := `
		SELECT student_id, subject, COALESCE(test_type, ''), score, max_score, test_date, attempt_number
		FROM test_scores
		WHERE test_date >= $1
		ORDER BY student_id, subject, test_date
	`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query test scores: %w", err)
	}
	defer rows.Close()

	var events []records.TestScoreEvent
	for rows.Next() {
		var e records.TestScoreEvent
		if err := rows.Scan(&e.StudentID, &e.Subject, &e.TestType, &e.Score, &e.MaxScore, &e.Date, &e.AttemptNumber); err != nil {
			return nil, fmt.Errorf("failed to scan test score row: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ListFeePaymentsDueSince returns fee rows with a due date on or after since.
func (r *RecordsRepository) ListFeePaymentsDueSince(ctx context.Context, since time.Time) ([]records.FeePayment, error) {
	query := `
		SELECT student_id, amount_due, amount_paid, due_date, payment_date, status
		FROM fee_payments
		WHERE due_date >= $1
		ORDER BY student_id, due_date
	`

	rows, err := r.conn.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query fee payments: %w", err)
	}
	defer rows.Close()

	var fees []records.FeePayment
	for rows.Next() {
		var f records.FeePayment
		if err := rows.Scan(&f.StudentID, &f.AmountDue, &f.AmountPaid, &f.DueDate, &f.PaymentDate, &f.Status); err != nil {
			return nil, fmt.Errorf("failed to scan fee payment row: %w", err)
		}
		fees = append(fees, f)
	}
	return fees, rows.Err()
}

// InsertAttendanceBatch inserts attendance events.
func (r *RecordsRepository) InsertAttendanceBatch(ctx context.Context, events []records.AttendanceEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(events))
	for i, e := range events {
		rows[i] = []interface{}{e.StudentID, e.Subject, e.Date, e.Present}
	}
	_, err := r.conn.CopyFrom(ctx,
		pgx.Identifier{"attendance"},
		[]string{"student_id", "subject", "date", "present"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy attendance rows: %w", err)
	}
	return nil
}

// InsertTestScoreBatch inserts test score events.
func (r *RecordsRepository) InsertTestScoreBatch(ctx context.Context, events []records.TestScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(events))
	for i, e := range events {
		rows[i] = []interface{}{e.StudentID, e.Subject, e.TestType, e.Score, e.MaxScore, e.Date, e.AttemptNumber}
	}
	_, err := r.conn.CopyFrom(ctx,
		pgx.Identifier{"test_scores"},
		[]string{"student_id", "subject", "test_type", "score", "max_score", "test_date", "attempt_number"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy test score rows: %w", err)
	}
	return nil
}

// InsertFeePaymentBatch inserts fee ledger rows.
func (r *RecordsRepository) InsertFeePaymentBatch(ctx context.Context, payments []records.FeePayment) error {
	if len(payments) == 0 {
		return nil
	}
	rows := make([][]interface{}, len(payments))
	for i, f := range payments {
		rows[i] = []interface{}{f.StudentID, f.AmountDue, f.AmountPaid, f.DueDate, f.PaymentDate, f.Status}
	}
	_, err := r.conn.CopyFrom(ctx,
		pgx.Identifier{"fee_payments"},
		[]string{"student_id", "amount_due", "amount_paid", "due_date", "payment_date", "status"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy fee payment rows: %w", err)
	}
	return nil
}

// DeleteAllEvents clears the three raw event tables plus dependent logs,
// in foreign-key order. Used by sample data seeding only.
func (r *RecordsRepository) DeleteAllEvents(ctx context.Context) error {
	tables := []string{"notifications", "risk_assessments", "fee_payments", "test_scores", "attendance"}
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}
