package attendance

import (
	"context"
	"math"

	"github.com/pkg/errors"
)

// RosterEntry is one enrolled student, as supplied by the roster provider
// with the display name already resolved.
type RosterEntry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
}

// Summary computes per-student attendance counts and rate for a course roster.
//
// Records are fetched once for the whole course and partitioned client-side,
// keeping store round-trips constant in the roster size. A student with no
// record for a session is not counted as absent; absence only shows in the
// gap between the counts and TotalSessions.
func (svc *service) Summary(ctx context.Context, courseID string, roster []RosterEntry) ([]StudentSummary, error) {
	sessions, err := svc.repo.FilterSessions(ctx, SessionFilter{CourseID: courseID})
	if err != nil {
		return nil, errors.Wrap(err, "listing course sessions")
	}
	totalSessions := len(sessions)

	summaries := make([]StudentSummary, 0, len(roster))
	if totalSessions == 0 {
		for _, entry := range roster {
			summaries = append(summaries, StudentSummary{
				StudentID:   entry.StudentID,
				StudentName: entry.StudentName,
			})
		}
		return summaries, nil
	}

	records, err := svc.repo.FilterRecords(ctx, RecordFilter{CourseID: courseID})
	if err != nil {
		return nil, errors.Wrap(err, "listing course attendance records")
	}
	byStudent := make(map[string][]AttendanceRecord, len(roster))
	for _, rec := range records {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	for _, entry := range roster {
		summary := StudentSummary{
			StudentID:     entry.StudentID,
			StudentName:   entry.StudentName,
			TotalSessions: totalSessions,
		}
		for _, rec := range byStudent[entry.StudentID] {
			switch rec.Status {
			case StatusPresent:
				summary.Present++
			case StatusAbsent:
				summary.Absent++
			case StatusLate:
				summary.Late++
			case StatusExcused:
				summary.Excused++
			}
		}
		summary.Rate = int(math.Round(100 * float64(summary.Present+summary.Late) / float64(totalSessions)))
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
