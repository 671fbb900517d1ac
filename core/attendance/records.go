package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Self-check-in result messages. These are surfaced to students as-is.
const (
	msgSessionNotFound = "Session not found"
	msgSessionClosed   = "session not currently open"
	msgAlreadyMarked   = "already marked"
	msgMarked          = "Attendance marked successfully"
)

// Mark records a student's attendance on behalf of an administrator, with
// upsert semantics: a second mark for the same (session, student) pair
// overwrites the first in place, preserving the record id and creation time.
func (svc *service) Mark(ctx context.Context, m Mark) (AttendanceRecord, error) {
	now := time.Now().UTC()
	rec := AttendanceRecord{
		CourseID:    m.CourseID,
		SessionID:   m.SessionID,
		StudentID:   m.StudentID,
		StudentName: m.StudentName,
		Status:      m.Status,
		Notes:       m.Notes,
		MarkedBy:    m.MarkedBy,
		CreatedAt:   now,
	}
	return svc.repo.UpsertRecord(ctx, rec)
}

func (svc *service) SessionRecords(ctx context.Context, sessionID string) ([]AttendanceRecord, error) {
	return svc.repo.FilterRecords(ctx, RecordFilter{SessionID: sessionID})
}

func (svc *service) CourseRecords(ctx context.Context, courseID string) ([]AttendanceRecord, error) {
	return svc.repo.FilterRecords(ctx, RecordFilter{CourseID: courseID})
}

func (svc *service) StudentRecords(ctx context.Context, courseID, studentID string) ([]AttendanceRecord, error) {
	return svc.repo.FilterRecords(ctx, RecordFilter{CourseID: courseID, StudentID: studentID})
}

// SelfCheckin lets a student mark themselves Present on an Open session,
// at most once. Gate failures (unknown session, closed session, duplicate
// check-in) are expected outcomes and come back in the CheckinResult; only
// store failures return an error.
//
// Unlike the administrator path, a duplicate self-check-in is rejected, never
// overwritten. The rejection relies on the repository's atomic conditional
// insert rather than a prior existence check, so two concurrent check-ins for
// the same pair cannot both succeed.
func (svc *service) SelfCheckin(ctx context.Context, ci SelfCheckin) (CheckinResult, error) {
	sess, err := svc.repo.GetSessionByID(ctx, ci.SessionID)
	if err != nil {
		if errors.Cause(err) == ErrSessionNotFound {
			return CheckinResult{Success: false, Message: msgSessionNotFound}, nil
		}
		return CheckinResult{}, errors.Wrap(err, "looking up session")
	}
	if !sess.IsActive {
		return CheckinResult{Success: false, Message: msgSessionClosed}, nil
	}

	rec := AttendanceRecord{
		CourseID:    ci.CourseID,
		SessionID:   ci.SessionID,
		StudentID:   ci.StudentID,
		StudentName: ci.StudentName,
		Status:      StatusPresent,
		Notes:       SelfMarkedNote,
		MarkedBy:    ci.StudentID,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err = svc.repo.CreateRecord(ctx, rec); err != nil {
		if errors.Cause(err) == ErrAlreadyMarked {
			return CheckinResult{Success: false, Message: msgAlreadyMarked}, nil
		}
		return CheckinResult{}, errors.Wrap(err, "inserting attendance record")
	}
	return CheckinResult{Success: true, Message: msgMarked}, nil
}
