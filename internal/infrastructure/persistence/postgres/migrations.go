package postgres

// migration is one embedded schema migration step.
type migration struct {
	version int
	name    string
	up      string
}

// migrations returns the embedded schema in apply order.
func migrations() []migration {
	return []migration{
		{1, "create_students", migration001},
		{2, "create_event_tables", migration002},
		{3, "create_risk_assessments", migration003},
		{4, "create_notifications", migration004},
		{5, "create_dashboard_users", migration005},
	}
}

const migration001 = `
CREATE TABLE IF NOT EXISTS students (
    student_id VARCHAR(20) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    email VARCHAR(200),
    phone VARCHAR(30),
    guardian_name VARCHAR(100),
    guardian_phone VARCHAR(30),
    guardian_email VARCHAR(200),
    mentor_id VARCHAR(20),
    enrollment_date DATE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_students_mentor_id ON students(mentor_id);
`

const migration002 = `
CREATE TABLE IF NOT EXISTS attendance (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(20) NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
    subject VARCHAR(50) NOT NULL,
    date DATE NOT NULL,
    present BOOLEAN NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
CREATE INDEX IF NOT EXISTS idx_attendance_student_subject ON attendance(student_id, subject);

CREATE TABLE IF NOT EXISTS test_scores (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(20) NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
    subject VARCHAR(50) NOT NULL,
    test_type VARCHAR(50),
    score DECIMAL(5,2) NOT NULL,
    max_score DECIMAL(5,2) NOT NULL DEFAULT 100,
    test_date DATE NOT NULL,
    attempt_number INTEGER NOT NULL DEFAULT 1,

    CONSTRAINT valid_score CHECK (score >= 0),
    CONSTRAINT valid_attempt CHECK (attempt_number >= 1)
);

CREATE INDEX IF NOT EXISTS idx_test_scores_date ON test_scores(test_date);
CREATE INDEX IF NOT EXISTS idx_test_scores_student_subject ON test_scores(student_id, subject);

CREATE TABLE IF NOT EXISTS fee_payments (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(20) NOT NULL REFERENCES students(student_id) ON DELETE CASCADE,
    amount_due DECIMAL(10,2) NOT NULL,
    amount_paid DECIMAL(10,2) NOT NULL DEFAULT 0,
    due_date DATE NOT NULL,
    payment_date DATE,
    status VARCHAR(20) NOT NULL,

    CONSTRAINT valid_fee_status CHECK (status IN ('Pending', 'Paid'))
);

CREATE INDEX IF NOT EXISTS idx_fee_payments_due_date ON fee_payments(due_date);
CREATE INDEX IF NOT EXISTS idx_fee_payments_student ON fee_payments(student_id);
`

const migration003 = `
CREATE TABLE IF NOT EXISTS risk_assessments (
    id BIGSERIAL PRIMARY KEY,
    student_id VARCHAR(20) NOT NULL,
    assessment_date DATE NOT NULL,
    overall_risk_score DECIMAL(6,2) NOT NULL,
    risk_level VARCHAR(10) NOT NULL,
    attendance_risk DECIMAL(6,2) NOT NULL,
    academic_risk DECIMAL(6,2) NOT NULL,
    financial_risk DECIMAL(6,2) NOT NULL,
    reasons TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_risk_level CHECK (risk_level IN ('Low', 'Medium', 'High')),
    UNIQUE(student_id, assessment_date)
);

CREATE INDEX IF NOT EXISTS idx_risk_assessments_date ON risk_assessments(assessment_date DESC);
CREATE INDEX IF NOT EXISTS idx_risk_assessments_student ON risk_assessments(student_id, assessment_date DESC);
`

const migration004 = `
CREATE TABLE IF NOT EXISTS notifications (
    id UUID PRIMARY KEY,
    student_id VARCHAR(20) NOT NULL,
    mentor_id VARCHAR(20) NOT NULL,
    notification_type VARCHAR(20) NOT NULL,
    message TEXT NOT NULL,
    recipient VARCHAR(200),
    sent_date DATE NOT NULL,
    status VARCHAR(10) NOT NULL,

    CONSTRAINT valid_notification_type CHECK (notification_type IN ('MENTOR_ALERT', 'GUARDIAN_ALERT')),
    CONSTRAINT valid_notification_status CHECK (status IN ('PENDING', 'SENT', 'FAILED'))
);

CREATE INDEX IF NOT EXISTS idx_notifications_sent_date ON notifications(sent_date DESC);
`

const migration005 = `
CREATE TABLE IF NOT EXISTS dashboard_users (
    username VARCHAR(50) PRIMARY KEY,
    password_hash VARCHAR(100) NOT NULL,
    role VARCHAR(10) NOT NULL,
    mentor_id VARCHAR(20),

    CONSTRAINT valid_role CHECK (role IN ('admin', 'mentor'))
);
`
