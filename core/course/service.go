package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/seenelm/tanwir-students-sub000/core"
)

var ErrNotFound = errors.New("course not found")

type (
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		QueryAllCourses(ctx context.Context) ([]Course, error)
		AddRosterEntry(ctx context.Context, courseID string, entry RosterEntry) error
		Roster(ctx context.Context, courseID string) ([]RosterEntry, error)
	}

	ServiceInterface interface {
		Create(ctx context.Context, nc NewCourse) (Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		QueryAll(ctx context.Context) ([]Course, error)
		Enroll(ctx context.Context, courseID string, entry RosterEntry) error
		Roster(ctx context.Context, courseID string) ([]RosterEntry, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

func (svc *service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	crs := Course{
		Name:      core.CleanString(nc.Name),
		Code:      core.CleanString(nc.Code, true /* lower */),
		TeacherID: nc.TeacherID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) QueryAll(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryAllCourses(ctx)
}

func (svc *service) Enroll(ctx context.Context, courseID string, entry RosterEntry) error {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return err
	}
	return svc.repo.AddRosterEntry(ctx, courseID, entry)
}

func (svc *service) Roster(ctx context.Context, courseID string) ([]RosterEntry, error) {
	return svc.repo.Roster(ctx, courseID)
}
