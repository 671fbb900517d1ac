package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/seenelm/tanwir-students-sub000/core/course"
)

type courseRepository struct {
	db *courseTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	crs.ID = uuid.New().String()
	repo.db.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if crs, ok := repo.db.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.table))
	for _, crs := range repo.db.table {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) AddRosterEntry(ctx context.Context, courseID string, entry course.RosterEntry) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.roster[courseID] = append(repo.db.roster[courseID], entry)
	return nil
}

func (repo *courseRepository) Roster(ctx context.Context, courseID string) ([]course.RosterEntry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := repo.db.roster[courseID]
	roster := make([]course.RosterEntry, len(entries))
	copy(roster, entries)
	return roster, nil
}
