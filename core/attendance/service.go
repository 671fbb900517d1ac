package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrAlreadyMarked   = errors.New("attendance already marked for this session")
)

type (
	// SessionFilter narrows FilterSessions results. Zero-valued fields are ignored.
	SessionFilter struct {
		CourseID   string
		ActiveOnly bool
	}

	// RecordFilter narrows FilterRecords results. Zero-valued fields are ignored.
	RecordFilter struct {
		SessionID string
		CourseID  string
		StudentID string
	}

	// Repository abstracts the `sessions` and `attendance-records` collections.
	//
	// CreateRecord must be an atomic conditional insert on the
	// (SessionID, StudentID) pair: it fails with ErrAlreadyMarked when a record
	// for the pair exists. UpsertRecord overwrites on the same key instead.
	// The store enforces the at-most-one-record-per-pair invariant; callers
	// never get to race a read against their own insert.
	Repository interface {
		CreateSession(ctx context.Context, sess ClassSession) (ClassSession, error)
		GetSessionByID(ctx context.Context, id string) (ClassSession, error)
		// FilterSessions returns sessions ordered by date descending.
		FilterSessions(ctx context.Context, filter SessionFilter) ([]ClassSession, error)
		UpdateSession(ctx context.Context, sess ClassSession) (ClassSession, error)
		DeleteSession(ctx context.Context, id string) error

		CreateRecord(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
		UpsertRecord(ctx context.Context, rec AttendanceRecord) (AttendanceRecord, error)
		FilterRecords(ctx context.Context, filter RecordFilter) ([]AttendanceRecord, error)
		DeleteRecordsBySession(ctx context.Context, sessionID string) error
	}

	ServiceInterface interface {
		CreateSession(ctx context.Context, ns NewSession) (ClassSession, error)
		GetSession(ctx context.Context, id string) (ClassSession, error)
		Sessions(ctx context.Context, courseID string) ([]ClassSession, error)
		ActiveSessions(ctx context.Context, courseID string) ([]ClassSession, error)
		OpenSession(ctx context.Context, id string) (ClassSession, error)
		CloseSession(ctx context.Context, id string) (ClassSession, error)
		DeleteSession(ctx context.Context, id string) error

		Mark(ctx context.Context, m Mark) (AttendanceRecord, error)
		SessionRecords(ctx context.Context, sessionID string) ([]AttendanceRecord, error)
		CourseRecords(ctx context.Context, courseID string) ([]AttendanceRecord, error)
		StudentRecords(ctx context.Context, courseID, studentID string) ([]AttendanceRecord, error)
		SelfCheckin(ctx context.Context, ci SelfCheckin) (CheckinResult, error)

		Summary(ctx context.Context, courseID string, roster []RosterEntry) ([]StudentSummary, error)
	}

	service struct {
		repo Repository
	}
)

var _ ServiceInterface = (*service)(nil) // interface compliance check

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

// Session lifecycle

// CreateSession inserts a new ClassSession. Sessions are created Closed;
// attendance taking needs an explicit OpenSession.
func (svc *service) CreateSession(ctx context.Context, ns NewSession) (ClassSession, error) {
	sess := ClassSession{
		CourseID:    ns.CourseID,
		Date:        ns.Date.UTC(),
		Topic:       ns.Topic,
		Description: ns.Description,
		CreatedBy:   ns.CreatedBy,
		CreatedAt:   time.Now().UTC(),
		IsActive:    false,
	}
	return svc.repo.CreateSession(ctx, sess)
}

func (svc *service) GetSession(ctx context.Context, id string) (ClassSession, error) {
	return svc.repo.GetSessionByID(ctx, id)
}

// Sessions returns all sessions for a course, most recent first.
func (svc *service) Sessions(ctx context.Context, courseID string) ([]ClassSession, error) {
	return svc.repo.FilterSessions(ctx, SessionFilter{CourseID: courseID})
}

// ActiveSessions returns every currently Open session for a course.
// More than one session may be open at a time (e.g. two class sections).
func (svc *service) ActiveSessions(ctx context.Context, courseID string) ([]ClassSession, error) {
	return svc.repo.FilterSessions(ctx, SessionFilter{CourseID: courseID, ActiveOnly: true})
}

// OpenSession transitions a session to Open. Opening an already-open session
// is a no-op success so callers can safely retry.
func (svc *service) OpenSession(ctx context.Context, id string) (ClassSession, error) {
	sess, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return ClassSession{}, err
	}
	if sess.IsActive {
		return sess, nil
	}
	sess.IsActive = true
	sess.ClosedAt = nil
	return svc.repo.UpdateSession(ctx, sess)
}

// CloseSession transitions a session to Closed and stamps ClosedAt.
// Closing an already-closed session is a no-op success.
func (svc *service) CloseSession(ctx context.Context, id string) (ClassSession, error) {
	sess, err := svc.repo.GetSessionByID(ctx, id)
	if err != nil {
		return ClassSession{}, err
	}
	if !sess.IsActive {
		return sess, nil
	}
	now := time.Now().UTC()
	sess.IsActive = false
	sess.ClosedAt = &now
	return svc.repo.UpdateSession(ctx, sess)
}

// DeleteSession removes a session and cascades to its attendance records.
// The store has no native cascade: the session is deleted first, then its
// records. A record-delete failure after a successful session delete leaves
// orphaned records behind; callers retrying DeleteSession will get
// ErrSessionNotFound and must clean up via DeleteRecordsBySession.
func (svc *service) DeleteSession(ctx context.Context, id string) error {
	if err := svc.repo.DeleteSession(ctx, id); err != nil {
		return err
	}
	if err := svc.repo.DeleteRecordsBySession(ctx, id); err != nil {
		return errors.Wrap(err, "cascading session delete to attendance records")
	}
	return nil
}
