package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/seenelm/tanwir-students-sub000/core/course"
)

type (
	courseRepository struct {
		courses *mongo.Collection
		roster  *mongo.Collection
	}

	courseDoc struct {
		ID        string    `bson:"_id"`
		Name      string    `bson:"name"`
		Code      string    `bson:"code,omitempty"`
		TeacherID string    `bson:"teacher_id,omitempty"`
		CreatedAt time.Time `bson:"created_at"`
	}

	profileDoc struct {
		FirstName string `bson:"first_name,omitempty"`
		LastName  string `bson:"last_name,omitempty"`
	}

	rosterDoc struct {
		ID          string      `bson:"_id"`
		CourseID    string      `bson:"course_id"`
		StudentID   string      `bson:"student_id"`
		FirstName   string      `bson:"first_name,omitempty"`
		LastName    string      `bson:"last_name,omitempty"`
		Profile     *profileDoc `bson:"profile,omitempty"`
		DisplayName string      `bson:"display_name,omitempty"`
		Email       string      `bson:"email,omitempty"`
	}
)

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(client *mongo.Client, dbName string) *courseRepository {
	db := client.Database(dbName)
	return &courseRepository{
		courses: db.Collection(coursesCollection),
		roster:  db.Collection(rosterCollection),
	}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	doc := courseDoc{
		ID:        crs.ID,
		Name:      crs.Name,
		Code:      crs.Code,
		TeacherID: crs.TeacherID,
		CreatedAt: crs.CreatedAt,
	}
	if _, err := repo.courses.InsertOne(ctx, doc); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var doc courseDoc
	if err := repo.courses.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return course.Course{
		ID:        doc.ID,
		Name:      doc.Name,
		Code:      doc.Code,
		TeacherID: doc.TeacherID,
		CreatedAt: doc.CreatedAt,
	}, nil
}

func (repo *courseRepository) QueryAllCourses(ctx context.Context) ([]course.Course, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := repo.courses.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	defer func() { _ = cursor.Close(ctx) }()

	courses := make([]course.Course, 0)
	for cursor.Next(ctx) {
		var doc courseDoc
		if err = cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding course")
		}
		courses = append(courses, course.Course{
			ID:        doc.ID,
			Name:      doc.Name,
			Code:      doc.Code,
			TeacherID: doc.TeacherID,
			CreatedAt: doc.CreatedAt,
		})
	}
	return courses, errors.Wrap(cursor.Err(), "iterating courses")
}

func (repo *courseRepository) AddRosterEntry(ctx context.Context, courseID string, entry course.RosterEntry) error {
	doc := rosterDoc{
		// one roster entry per (course, student)
		ID:          courseID + ":" + entry.StudentID,
		CourseID:    courseID,
		StudentID:   entry.StudentID,
		FirstName:   entry.FirstName,
		LastName:    entry.LastName,
		DisplayName: entry.DisplayName,
		Email:       entry.Email,
	}
	if entry.Profile != nil {
		doc.Profile = &profileDoc{FirstName: entry.Profile.FirstName, LastName: entry.Profile.LastName}
	}
	opts := options.Replace().SetUpsert(true)
	if _, err := repo.roster.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return errors.Wrap(err, "upserting roster entry")
	}
	return nil
}

func (repo *courseRepository) Roster(ctx context.Context, courseID string) ([]course.RosterEntry, error) {
	cursor, err := repo.roster.Find(ctx, bson.M{"course_id": courseID})
	if err != nil {
		return nil, errors.Wrap(err, "querying roster")
	}
	defer func() { _ = cursor.Close(ctx) }()

	roster := make([]course.RosterEntry, 0)
	for cursor.Next(ctx) {
		var doc rosterDoc
		if err = cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding roster entry")
		}
		entry := course.RosterEntry{
			StudentID:   doc.StudentID,
			FirstName:   doc.FirstName,
			LastName:    doc.LastName,
			DisplayName: doc.DisplayName,
			Email:       doc.Email,
		}
		if doc.Profile != nil {
			entry.Profile = &course.Profile{FirstName: doc.Profile.FirstName, LastName: doc.Profile.LastName}
		}
		roster = append(roster, entry)
	}
	return roster, errors.Wrap(cursor.Err(), "iterating roster")
}
