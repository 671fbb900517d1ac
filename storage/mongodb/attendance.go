package mongodb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/seenelm/tanwir-students-sub000/core/attendance"
)

type (
	attendanceRepository struct {
		sessions *mongo.Collection
		records  *mongo.Collection
	}

	sessionDoc struct {
		ID          string     `bson:"_id"`
		CourseID    string     `bson:"course_id"`
		Date        time.Time  `bson:"date"`
		Topic       string     `bson:"topic,omitempty"`
		Description string     `bson:"description,omitempty"`
		CreatedBy   string     `bson:"created_by"`
		CreatedAt   time.Time  `bson:"created_at"`
		IsActive    bool       `bson:"is_active"`
		ClosedAt    *time.Time `bson:"closed_at,omitempty"`
	}

	// recordDoc uses the (session, student) pair as its _id so the unique
	// index on _id enforces at-most-one-record-per-pair at the store.
	recordDoc struct {
		ID          string     `bson:"_id"`
		CourseID    string     `bson:"course_id"`
		SessionID   string     `bson:"session_id"`
		StudentID   string     `bson:"student_id"`
		StudentName string     `bson:"student_name"`
		Status      string     `bson:"status"`
		Notes       string     `bson:"notes,omitempty"`
		MarkedBy    string     `bson:"marked_by"`
		CreatedAt   time.Time  `bson:"created_at"`
		UpdatedAt   *time.Time `bson:"updated_at,omitempty"`
	}
)

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(client *mongo.Client, dbName string) *attendanceRepository {
	db := client.Database(dbName)
	return &attendanceRepository{
		sessions: db.Collection(sessionsCollection),
		records:  db.Collection(recordsCollection),
	}
}

func recordID(sessionID, studentID string) string {
	return sessionID + ":" + studentID
}

func toSessionDoc(sess attendance.ClassSession) sessionDoc {
	return sessionDoc{
		ID:          sess.ID,
		CourseID:    sess.CourseID,
		Date:        sess.Date,
		Topic:       sess.Topic,
		Description: sess.Description,
		CreatedBy:   sess.CreatedBy,
		CreatedAt:   sess.CreatedAt,
		IsActive:    sess.IsActive,
		ClosedAt:    sess.ClosedAt,
	}
}

func (doc sessionDoc) toSession() attendance.ClassSession {
	return attendance.ClassSession{
		ID:          doc.ID,
		CourseID:    doc.CourseID,
		Date:        doc.Date,
		Topic:       doc.Topic,
		Description: doc.Description,
		CreatedBy:   doc.CreatedBy,
		CreatedAt:   doc.CreatedAt,
		IsActive:    doc.IsActive,
		ClosedAt:    doc.ClosedAt,
	}
}

func (doc recordDoc) toRecord() attendance.AttendanceRecord {
	return attendance.AttendanceRecord{
		ID:          doc.ID,
		CourseID:    doc.CourseID,
		SessionID:   doc.SessionID,
		StudentID:   doc.StudentID,
		StudentName: doc.StudentName,
		Status:      attendance.Status(doc.Status),
		Notes:       doc.Notes,
		MarkedBy:    doc.MarkedBy,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// Sessions

func (repo *attendanceRepository) CreateSession(ctx context.Context, sess attendance.ClassSession) (attendance.ClassSession, error) {
	sess.ID = uuid.New().String()
	if _, err := repo.sessions.InsertOne(ctx, toSessionDoc(sess)); err != nil {
		return attendance.ClassSession{}, errors.Wrap(err, "inserting session")
	}
	return sess, nil
}

func (repo *attendanceRepository) GetSessionByID(ctx context.Context, id string) (attendance.ClassSession, error) {
	var doc sessionDoc
	if err := repo.sessions.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return attendance.ClassSession{}, attendance.ErrSessionNotFound
		}
		return attendance.ClassSession{}, errors.Wrap(err, "finding session")
	}
	return doc.toSession(), nil
}

func (repo *attendanceRepository) FilterSessions(ctx context.Context, filter attendance.SessionFilter) ([]attendance.ClassSession, error) {
	query := bson.M{}
	if filter.CourseID != "" {
		query["course_id"] = filter.CourseID
	}
	if filter.ActiveOnly {
		query["is_active"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := repo.sessions.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "filtering sessions")
	}
	defer func() { _ = cursor.Close(ctx) }()

	sessions := make([]attendance.ClassSession, 0)
	for cursor.Next(ctx) {
		var doc sessionDoc
		if err = cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding session")
		}
		sessions = append(sessions, doc.toSession())
	}
	return sessions, errors.Wrap(cursor.Err(), "iterating sessions")
}

func (repo *attendanceRepository) UpdateSession(ctx context.Context, sess attendance.ClassSession) (attendance.ClassSession, error) {
	res, err := repo.sessions.ReplaceOne(ctx, bson.M{"_id": sess.ID}, toSessionDoc(sess))
	if err != nil {
		return attendance.ClassSession{}, errors.Wrap(err, "updating session")
	}
	if res.MatchedCount == 0 {
		return attendance.ClassSession{}, attendance.ErrSessionNotFound
	}
	return sess, nil
}

func (repo *attendanceRepository) DeleteSession(ctx context.Context, id string) error {
	res, err := repo.sessions.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if res.DeletedCount == 0 {
		return attendance.ErrSessionNotFound
	}
	return nil
}

// Records

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	rec.ID = recordID(rec.SessionID, rec.StudentID)
	doc := recordDoc{
		ID:          rec.ID,
		CourseID:    rec.CourseID,
		SessionID:   rec.SessionID,
		StudentID:   rec.StudentID,
		StudentName: rec.StudentName,
		Status:      string(rec.Status),
		Notes:       rec.Notes,
		MarkedBy:    rec.MarkedBy,
		CreatedAt:   rec.CreatedAt,
	}
	if _, err := repo.records.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return attendance.AttendanceRecord{}, attendance.ErrAlreadyMarked
		}
		return attendance.AttendanceRecord{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	id := recordID(rec.SessionID, rec.StudentID)
	update := bson.M{
		"$set": bson.M{
			"student_name": rec.StudentName,
			"status":       string(rec.Status),
			"notes":        rec.Notes,
			"marked_by":    rec.MarkedBy,
			"updated_at":   rec.CreatedAt,
		},
		"$setOnInsert": bson.M{
			"course_id":  rec.CourseID,
			"session_id": rec.SessionID,
			"student_id": rec.StudentID,
			"created_at": rec.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc recordDoc
	if err := repo.records.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&doc); err != nil {
		return attendance.AttendanceRecord{}, errors.Wrap(err, "upserting attendance record")
	}
	// a fresh insert has no meaningful updated_at yet
	if doc.UpdatedAt != nil && doc.UpdatedAt.Equal(doc.CreatedAt) {
		doc.UpdatedAt = nil
	}
	return doc.toRecord(), nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.RecordFilter) ([]attendance.AttendanceRecord, error) {
	query := bson.M{}
	if filter.SessionID != "" {
		query["session_id"] = filter.SessionID
	}
	if filter.CourseID != "" {
		query["course_id"] = filter.CourseID
	}
	if filter.StudentID != "" {
		query["student_id"] = filter.StudentID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := repo.records.Find(ctx, query, opts)
	if err != nil {
		return nil, errors.Wrap(err, "filtering attendance records")
	}
	defer func() { _ = cursor.Close(ctx) }()

	records := make([]attendance.AttendanceRecord, 0)
	for cursor.Next(ctx) {
		var doc recordDoc
		if err = cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding attendance record")
		}
		records = append(records, doc.toRecord())
	}
	return records, errors.Wrap(cursor.Err(), "iterating attendance records")
}

func (repo *attendanceRepository) DeleteRecordsBySession(ctx context.Context, sessionID string) error {
	_, err := repo.records.DeleteMany(ctx, bson.M{"session_id": sessionID})
	return errors.Wrap(err, "deleting session attendance records")
}
