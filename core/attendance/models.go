package attendance

import "time"

// Status is the recorded presence state of a student for one session.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// AllStatuses lists every valid Status.
var AllStatuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// SelfMarkedNote is the provenance marker set on records created by student self-check-in.
const SelfMarkedNote = "self-marked"

// ClassSession is a single scheduled class meeting within a course.
// A session is Open (IsActive) only between an explicit open and close;
// it is created Closed and may be reopened indefinitely.
type ClassSession struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	Date        time.Time  `json:"date"` // UTC
	Topic       string     `json:"topic,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"` // UTC
	IsActive    bool       `json:"is_active"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"` // UTC
}

// AttendanceRecord is the recorded status of one student for one session.
// At most one record exists per (SessionID, StudentID) pair.
type AttendanceRecord struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	SessionID   string     `json:"session_id"`
	StudentID   string     `json:"student_id"`
	StudentName string     `json:"student_name"` // denormalized at write time
	Status      Status     `json:"status"`
	Notes       string     `json:"notes,omitempty"`
	MarkedBy    string     `json:"marked_by"`
	CreatedAt   time.Time  `json:"created_at"`           // UTC
	UpdatedAt   *time.Time `json:"updated_at,omitempty"` // UTC
}

// StudentSummary is the derived per-student attendance summary for a course.
// Rate counts present and late sessions against the course session total.
type StudentSummary struct {
	StudentID     string `json:"student_id"`
	StudentName   string `json:"student_name"`
	TotalSessions int    `json:"total_sessions"`
	Present       int    `json:"present"`
	Absent        int    `json:"absent"`
	Late          int    `json:"late"`
	Excused       int    `json:"excused"`
	Rate          int    `json:"rate"` // percentage, rounded
}

// CheckinResult is the user-facing outcome of a student self-check-in.
// Gate failures are expected outcomes, not errors.
type CheckinResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewSession is the payload for creating a ClassSession.
type NewSession struct {
	CourseID    string    `json:"course_id" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	CreatedBy   string    `json:"created_by"`
}

// Mark is the payload for the administrator marking path (upsert semantics).
type Mark struct {
	CourseID    string `json:"course_id" validate:"required"`
	SessionID   string `json:"session_id" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`
	Status      Status `json:"status" validate:"required,status"`
	Notes       string `json:"notes"`
	MarkedBy    string `json:"marked_by"`
}

// SelfCheckin is the payload for the student self-check-in path.
type SelfCheckin struct {
	CourseID    string `json:"course_id" validate:"required"`
	SessionID   string `json:"session_id" validate:"required"`
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`
}
