package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/seenelm/tanwir-students-sub000/core/attendance"
)

const uniqueViolation = "23505"

type (
	attendanceRepository struct {
		db *sqlx.DB
	}

	sessionRow struct {
		ID          string      `db:"id"`
		CourseID    string      `db:"course_id"`
		Date        time.Time   `db:"date"`
		Topic       null.String `db:"topic"`
		Description null.String `db:"description"`
		CreatedBy   null.String `db:"created_by"`
		CreatedAt   time.Time   `db:"created_at"`
		IsActive    bool        `db:"is_active"`
		ClosedAt    null.Time   `db:"closed_at"`
	}

	recordRow struct {
		ID          string      `db:"id"`
		CourseID    string      `db:"course_id"`
		SessionID   string      `db:"session_id"`
		StudentID   string      `db:"student_id"`
		StudentName string      `db:"student_name"`
		Status      string      `db:"status"`
		Notes       null.String `db:"notes"`
		MarkedBy    null.String `db:"marked_by"`
		CreatedAt   time.Time   `db:"created_at"`
		UpdatedAt   null.Time   `db:"updated_at"`
	}
)

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func toSessionRow(sess attendance.ClassSession) sessionRow {
	row := sessionRow{
		ID:          sess.ID,
		CourseID:    sess.CourseID,
		Date:        sess.Date,
		Topic:       null.NewString(sess.Topic, sess.Topic != ""),
		Description: null.NewString(sess.Description, sess.Description != ""),
		CreatedBy:   null.NewString(sess.CreatedBy, sess.CreatedBy != ""),
		CreatedAt:   sess.CreatedAt,
		IsActive:    sess.IsActive,
	}
	if sess.ClosedAt != nil {
		row.ClosedAt = null.TimeFrom(*sess.ClosedAt)
	}
	return row
}

func (row sessionRow) toSession() attendance.ClassSession {
	sess := attendance.ClassSession{
		ID:          row.ID,
		CourseID:    row.CourseID,
		Date:        row.Date.UTC(),
		Topic:       row.Topic.String,
		Description: row.Description.String,
		CreatedBy:   row.CreatedBy.String,
		CreatedAt:   row.CreatedAt.UTC(),
		IsActive:    row.IsActive,
	}
	if row.ClosedAt.Valid {
		closedAt := row.ClosedAt.Time.UTC()
		sess.ClosedAt = &closedAt
	}
	return sess
}

func (row recordRow) toRecord() attendance.AttendanceRecord {
	rec := attendance.AttendanceRecord{
		ID:          row.ID,
		CourseID:    row.CourseID,
		SessionID:   row.SessionID,
		StudentID:   row.StudentID,
		StudentName: row.StudentName,
		Status:      attendance.Status(row.Status),
		Notes:       row.Notes.String,
		MarkedBy:    row.MarkedBy.String,
		CreatedAt:   row.CreatedAt.UTC(),
	}
	if row.UpdatedAt.Valid {
		updatedAt := row.UpdatedAt.Time.UTC()
		rec.UpdatedAt = &updatedAt
	}
	return rec
}

// Sessions

func (repo *attendanceRepository) CreateSession(ctx context.Context, sess attendance.ClassSession) (attendance.ClassSession, error) {
	sess.ID = uuid.New().String()
	row := toSessionRow(sess)
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO class_session (id, course_id, date, topic, description, created_by, created_at, is_active, closed_at)
		VALUES (:id, :course_id, :date, :topic, :description, :created_by, :created_at, :is_active, :closed_at)`,
		row,
	)
	if err != nil {
		return attendance.ClassSession{}, errors.Wrap(err, "inserting session")
	}
	return sess, nil
}

func (repo *attendanceRepository) GetSessionByID(ctx context.Context, id string) (attendance.ClassSession, error) {
	var row sessionRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM class_session WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return attendance.ClassSession{}, attendance.ErrSessionNotFound
		}
		return attendance.ClassSession{}, errors.Wrap(err, "finding session")
	}
	return row.toSession(), nil
}

func (repo *attendanceRepository) FilterSessions(ctx context.Context, filter attendance.SessionFilter) ([]attendance.ClassSession, error) {
	query := `SELECT * FROM class_session WHERE 1=1`
	var args []interface{}
	if filter.CourseID != "" {
		args = append(args, filter.CourseID)
		query += ` AND course_id = $1`
	}
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY date DESC`

	var rows []sessionRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering sessions")
	}
	sessions := make([]attendance.ClassSession, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.toSession())
	}
	return sessions, nil
}

func (repo *attendanceRepository) UpdateSession(ctx context.Context, sess attendance.ClassSession) (attendance.ClassSession, error) {
	row := toSessionRow(sess)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE class_session
		SET date = :date, topic = :topic, description = :description, is_active = :is_active, closed_at = :closed_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return attendance.ClassSession{}, errors.Wrap(err, "updating session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ClassSession{}, attendance.ErrSessionNotFound
	}
	return sess, nil
}

func (repo *attendanceRepository) DeleteSession(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM class_session WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrSessionNotFound
	}
	return nil
}

// Records

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	rec.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO attendance_record (id, course_id, session_id, student_id, student_name, status, notes, marked_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.CourseID, rec.SessionID, rec.StudentID, rec.StudentName, rec.Status, rec.Notes, rec.MarkedBy, rec.CreatedAt,
	)
	if err != nil {
		// the UNIQUE (session_id, student_id) constraint rejects the duplicate
		if pqErr, ok := errors.Cause(err).(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyMarked
		}
		return attendance.AttendanceRecord{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	var row recordRow
	err := repo.db.GetContext(ctx, &row, `
		INSERT INTO attendance_record (id, course_id, session_id, student_id, student_name, status, notes, marked_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id, student_id) DO UPDATE
			SET student_name = EXCLUDED.student_name,
			    status       = EXCLUDED.status,
			    notes        = EXCLUDED.notes,
			    marked_by    = EXCLUDED.marked_by,
			    updated_at   = EXCLUDED.created_at
		RETURNING *`,
		uuid.New().String(), rec.CourseID, rec.SessionID, rec.StudentID, rec.StudentName, rec.Status, rec.Notes, rec.MarkedBy, rec.CreatedAt,
	)
	if err != nil {
		return attendance.AttendanceRecord{}, errors.Wrap(err, "upserting attendance record")
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.RecordFilter) ([]attendance.AttendanceRecord, error) {
	query := `SELECT * FROM attendance_record WHERE 1=1`
	var args []interface{}
	addArg := func(clause string, val string) {
		if val != "" {
			args = append(args, val)
			query += clause + pqPlaceholder(len(args))
		}
	}
	addArg(` AND session_id = `, filter.SessionID)
	addArg(` AND course_id = `, filter.CourseID)
	addArg(` AND student_id = `, filter.StudentID)
	query += ` ORDER BY created_at`

	var rows []recordRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	records := make([]attendance.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

func (repo *attendanceRepository) DeleteRecordsBySession(ctx context.Context, sessionID string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM attendance_record WHERE session_id = $1`, sessionID)
	return errors.Wrap(err, "deleting session attendance records")
}
