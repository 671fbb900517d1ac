package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/seenelm/tanwir-students-sub000/core/attendance"
)

type attendanceRepository struct {
	sessions *sessionTable
	records  *recordTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{sessions: db.session, records: db.record}
}

// Sessions

func (repo *attendanceRepository) CreateSession(ctx context.Context, sess attendance.ClassSession) (attendance.ClassSession, error) {
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	sess.ID = uuid.New().String()
	repo.sessions.table[sess.ID] = &sess
	return sess, nil
}

func (repo *attendanceRepository) GetSessionByID(ctx context.Context, id string) (attendance.ClassSession, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	if sess, ok := repo.sessions.table[id]; ok {
		return *sess, nil
	}
	return attendance.ClassSession{}, attendance.ErrSessionNotFound
}

func (repo *attendanceRepository) FilterSessions(ctx context.Context, filter attendance.SessionFilter) ([]attendance.ClassSession, error) {
	repo.sessions.RLock()
	defer repo.sessions.RUnlock()

	sessions := make([]attendance.ClassSession, 0, len(repo.sessions.table))
	for _, sess := range repo.sessions.table {
		if filter.CourseID != "" && sess.CourseID != filter.CourseID {
			continue
		}
		if filter.ActiveOnly && !sess.IsActive {
			continue
		}
		sessions = append(sessions, *sess)
	}
	// most recent first
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Date.After(sessions[j].Date) })
	return sessions, nil
}

func (repo *attendanceRepository) UpdateSession(ctx context.Context, sess attendance.ClassSession) (attendance.ClassSession, error) {
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	if _, ok := repo.sessions.table[sess.ID]; !ok {
		return attendance.ClassSession{}, attendance.ErrSessionNotFound
	}
	repo.sessions.table[sess.ID] = &sess
	return sess, nil
}

func (repo *attendanceRepository) DeleteSession(ctx context.Context, id string) error {
	repo.sessions.Lock()
	defer repo.sessions.Unlock()

	if _, ok := repo.sessions.table[id]; !ok {
		return attendance.ErrSessionNotFound
	}
	delete(repo.sessions.table, id)
	return nil
}

// Records

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	repo.records.Lock()
	defer repo.records.Unlock()

	key := recordKey(rec.SessionID, rec.StudentID)
	if _, ok := repo.records.table[key]; ok {
		return attendance.AttendanceRecord{}, attendance.ErrAlreadyMarked
	}
	rec.ID = uuid.New().String()
	repo.records.table[key] = &rec
	return rec, nil
}

func (repo *attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.AttendanceRecord) (attendance.AttendanceRecord, error) {
	repo.records.Lock()
	defer repo.records.Unlock()

	key := recordKey(rec.SessionID, rec.StudentID)
	if existing, ok := repo.records.table[key]; ok {
		now := rec.CreatedAt
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		rec.UpdatedAt = &now
	} else {
		rec.ID = uuid.New().String()
	}
	repo.records.table[key] = &rec
	return rec, nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.RecordFilter) ([]attendance.AttendanceRecord, error) {
	repo.records.RLock()
	defer repo.records.RUnlock()

	records := make([]attendance.AttendanceRecord, 0, len(repo.records.table))
	for _, rec := range repo.records.table {
		if filter.SessionID != "" && rec.SessionID != filter.SessionID {
			continue
		}
		if filter.CourseID != "" && rec.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.Before(records[j].CreatedAt) })
	return records, nil
}

func (repo *attendanceRepository) DeleteRecordsBySession(ctx context.Context, sessionID string) error {
	repo.records.Lock()
	defer repo.records.Unlock()

	for key, rec := range repo.records.table {
		if rec.SessionID == sessionID {
			delete(repo.records.table, key)
		}
	}
	return nil
}
