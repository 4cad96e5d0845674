package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/edusignal/dropout-radar/internal/domain/shared"
	"github.com/edusignal/dropout-radar/internal/domain/student"
)

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

const studentColumns = `student_id, name, email, phone, guardian_name, guardian_phone, guardian_email, mentor_id, enrollment_date`

// GetAll returns every enrolled student ordered by ID.
func (r *StudentRepository) GetAll(ctx context.Context) ([]student.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM students ORDER BY student_id`, studentColumns)

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query students: %w", err)
	}
	defer rows.Close()

	var roster []student.Record
	for rows.Next() {
		rec, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		roster = append(roster, rec)
	}
	return roster, rows.Err()
}

// GetByID returns a single student by ID.
func (r *StudentRepository) GetByID(ctx context.Context, id string) (*student.Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE student_id = $1`, studentColumns)

	rec, err := scanStudent(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// CreateBatch inserts a batch of students.
func (r *StudentRepository) CreateBatch(ctx context.Context, roster []student.Record) error {
	if len(roster) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := fmt.Sprintf(`
		INSERT INTO students (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, studentColumns)
	for _, rec := range roster {
		batch.Queue(query,
			rec.ID, rec.Name, rec.Email, rec.Phone,
			rec.GuardianName, rec.GuardianPhone, rec.GuardianEmail,
			rec.MentorID, rec.EnrollmentDate)
	}

	results, err := r.conn.SendBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("failed to insert students: %w", err)
	}
	defer results.Close()
	for range roster {
		if _, err := results.Exec(); err != nil {
			if IsUniqueViolation(err) {
				return shared.ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert students: %w", err)
		}
	}
	return nil
}

// DeleteAll removes every student.
func (r *StudentRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM students"); err != nil {
		return fmt.Errorf("failed to delete students: %w", err)
	}
	return nil
}

func scanStudent(row pgx.Row) (student.Record, error) {
	var rec student.Record
	var email, phone, gName, gPhone, gEmail, mentorID *string
	var enrollment *time.Time

	err := row.Scan(&rec.ID, &rec.Name, &email, &phone, &gName, &gPhone, &gEmail, &mentorID, &enrollment)
	if err != nil {
		return rec, err
	}
	if email != nil {
		rec.Email = *email
	}
	if phone != nil {
		rec.Phone = *phone
	}
	if gName != nil {
		rec.GuardianName = *gName
	}
	if gPhone != nil {
		rec.GuardianPhone = *gPhone
	}
	if gEmail != nil {
		rec.GuardianEmail = *gEmail
	}
	if mentorID != nil {
		rec.MentorID = *mentorID
	}
	if enrollment != nil {
		rec.EnrollmentDate = *enrollment
	}
	return rec, nil
}
