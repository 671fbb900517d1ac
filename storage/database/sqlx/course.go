package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/seenelm/tanwir-students-sub000/core/course"
)

type (
	courseRepository struct {
		db *sqlx.DB
	}

	courseRow struct {
		ID        string      `db:"id"`
		Name      string      `db:"name"`
		Code      null.String `db:"code"`
		TeacherID null.String `db:"teacher_id"`
		CreatedAt time.Time   `db:"created_at"`
	}

	rosterRow struct {
		CourseID    string `db:"course_id"`
		StudentID   string `db:"student_id"`
		FirstName   string `db:"first_name"`
		LastName    string `db:"last_name"`
		DisplayName string `db:"display_name"`
		Email       string `db:"email"`
	}
)

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (row courseRow) toCourse() course.Course {
	return course.Course{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code.String,
		TeacherID: row.TeacherID.String,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO course (id, name, code, teacher_id, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		crs.ID, crs.Name, null.NewString(crs.Code, crs.Code != ""), null.NewString(crs.TeacherID, crs.TeacherID != ""), crs.CreatedAt,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY created_at`); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCourse())
	}
	return courses, nil
}

func (repo *courseRepository) AddRosterEntry(ctx context.Context, courseID string, entry course.RosterEntry) error {
	// the relational backend flattens the optional nested profile
	first, last := entry.FirstName, entry.LastName
	if first == "" && last == "" && entry.Profile != nil {
		first, last = entry.Profile.FirstName, entry.Profile.LastName
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO roster_entry (course_id, student_id, first_name, last_name, display_name, email)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (course_id, student_id) DO UPDATE
			SET first_name = EXCLUDED.first_name,
			    last_name = EXCLUDED.last_name,
			    display_name = EXCLUDED.display_name,
			    email = EXCLUDED.email`,
		courseID, entry.StudentID, first, last, entry.DisplayName, entry.Email,
	)
	return errors.Wrap(err, "upserting roster entry")
}

func (repo *courseRepository) Roster(ctx context.Context, courseID string) ([]course.RosterEntry, error) {
	var rows []rosterRow
	err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM roster_entry WHERE course_id = $1`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	roster := make([]course.RosterEntry, 0, len(rows))
	for _, row := range rows {
		roster = append(roster, course.RosterEntry{
			StudentID:   row.StudentID,
			FirstName:   row.FirstName,
			LastName:    row.LastName,
			DisplayName: row.DisplayName,
			Email:       row.Email,
		})
	}
	return roster, nil
}
