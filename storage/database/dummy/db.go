package dummydb

import (
	"sync"

	"github.com/seenelm/tanwir-students-sub000/core/attendance"
	"github.com/seenelm/tanwir-students-sub000/core/course"
	"github.com/seenelm/tanwir-students-sub000/core/user"
)

// DB is an in-memory store used in tests and local development.
type (
	DB struct {
		user    *userTable
		course  *courseTable
		session *sessionTable
		record  *recordTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table  map[string]*course.Course
		roster map[string][]course.RosterEntry // courseID -> entries
	}

	sessionTable struct {
		sync.RWMutex
		table map[string]*attendance.ClassSession
	}

	// recordTable keys records by the (sessionID, studentID) pair so inserts
	// for an existing pair fail atomically under the table lock.
	recordTable struct {
		sync.RWMutex
		table map[string]*attendance.AttendanceRecord
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		course:  &courseTable{table: make(map[string]*course.Course), roster: make(map[string][]course.RosterEntry)},
		session: &sessionTable{table: make(map[string]*attendance.ClassSession)},
		record:  &recordTable{table: make(map[string]*attendance.AttendanceRecord)},
	}
	return db, nil
}

// recordKey is the composite pair key enforcing one record per (session, student).
func recordKey(sessionID, studentID string) string {
	return sessionID + ":" + studentID
}
