package course

import (
	"strings"
	"time"
)

type Course struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewCourse is the payload for creating a Course.
type NewCourse struct {
	Name      string `json:"name" validate:"required"`
	Code      string `json:"code" validate:"omitempty,alphanum_"`
	TeacherID string `json:"teacher_id"`
}

// Profile is the optional nested name-bearing object some roster sources provide.
type Profile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// RosterEntry is one enrolled student as supplied by the roster source.
// Name-bearing fields vary by source; Name() resolves them.
type RosterEntry struct {
	StudentID   string   `json:"student_id"`
	FirstName   string   `json:"first_name"`
	LastName    string   `json:"last_name"`
	Profile     *Profile `json:"profile,omitempty"`
	DisplayName string   `json:"display_name"`
	Email       string   `json:"email"`
}

// Name resolves the student display name with a fixed precedence:
// explicit first/last name, nested profile, generic display name,
// the local part of an email-shaped identifier, then "Unknown".
func (e RosterEntry) Name() string {
	if name := joinName(e.FirstName, e.LastName); name != "" {
		return name
	}
	if e.Profile != nil {
		if name := joinName(e.Profile.FirstName, e.Profile.LastName); name != "" {
			return name
		}
	}
	if name := strings.TrimSpace(e.DisplayName); name != "" {
		return name
	}
	if at := strings.Index(e.Email, "@"); at > 0 {
		return e.Email[:at]
	}
	return "Unknown"
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
