package echoapi_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	. "github.com/seenelm/tanwir-students-sub000/apps/api/echo"
	"github.com/seenelm/tanwir-students-sub000/core/attendance"
	"github.com/seenelm/tanwir-students-sub000/core/user"
)

func Test_attendanceApi_authGating(t *testing.T) {
	student := createUser(t, "Gate Student", "gatestudent", "gatestudent@test.cd", "", []string{user.RoleStudent}, true)
	teacher := createUser(t, "Gate Teacher", "gateteacher", "gateteacher@test.cd", "", []string{user.RoleTeacher}, true)
	studentToken := getToken(t, student)
	teacherToken := getToken(t, teacher)

	crs := createCourse(t, "Gate Course", "gate101", teacher.ID)
	sess := createOpenSession(t, crs.ID)

	sessPath := "/v1/sessions/" + sess.ID

	tests := []httpTest{
		{name: "session retrieve: auth required", method: http.MethodGet, path: sessPath, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "session retrieve: staff required", method: http.MethodGet, path: sessPath, token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "session open: staff required", method: http.MethodPost, path: sessPath + "/open", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "session delete: staff required", method: http.MethodDelete, path: sessPath, token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "mark: staff required", method: http.MethodPost, path: sessPath + "/attendance", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "session records: staff required", method: http.MethodGet, path: sessPath + "/attendance", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "checkin: auth required", method: http.MethodPost, path: sessPath + "/checkin", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "checkin: students only", method: http.MethodPost, path: sessPath + "/checkin", token: teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "course create: admin required", method: http.MethodPost, path: "/v1/courses", token: teacherToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "course attendance: staff required", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/attendance", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "summary: staff required", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/attendance/summary", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "roster: staff required", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/roster", token: studentToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)},
		{name: "unknown session", method: http.MethodGet, path: "/v1/sessions/nope", token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_checkinFlow(t *testing.T) {
	teacher := createUser(t, "Flow Teacher", "flowteacher", "flowteacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := createUser(t, "Flow Student", "flowstudent", "flowstudent@test.cd", "", []string{user.RoleStudent}, true)
	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)

	crs := createCourse(t, "Flow Course", "flow101", teacher.ID)

	// sessions are born closed
	sess, err := attSvc.CreateSession(context.Background(), attendance.NewSession{
		CourseID: crs.ID, Date: time.Now(), CreatedBy: teacher.ID,
	})
	if err != nil {
		t.Fatalf("CreateSession(): %v", err)
	}
	sessPath := "/v1/sessions/" + sess.ID

	// check-in on a closed session is rejected
	req, rec := newAuthRequest(http.MethodPost, sessPath+"/checkin", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, attendance.CheckinResult{Success: false, Message: "session not currently open"}),
	}, rec)

	// teacher opens the session
	req, rec = newAuthRequest(http.MethodPost, sessPath+"/open", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("open: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var opened attendance.ClassSession
	unmarchallObj(t, rec.Body.Bytes(), &opened)
	if !opened.IsActive {
		t.Fatal("open: session is not active")
	}

	// student checks in
	req, rec = newAuthRequest(http.MethodPost, sessPath+"/checkin", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallObj(t, attendance.CheckinResult{Success: true, Message: "Attendance marked successfully"}),
	}, rec)

	// a second check-in is rejected
	req, rec = newAuthRequest(http.MethodPost, sessPath+"/checkin", studentToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, attendance.CheckinResult{Success: false, Message: "already marked"}),
	}, rec)

	// the self-marked record is visible to staff
	req, rec = newAuthRequest(http.MethodGet, sessPath+"/attendance", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("records: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var records []attendance.AttendanceRecord
	unmarchallObj(t, rec.Body.Bytes(), &records)
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if records[0].StudentID != student.ID || records[0].Status != attendance.StatusPresent ||
		records[0].Notes != attendance.SelfMarkedNote || records[0].MarkedBy != student.ID {
		t.Errorf("unexpected self-marked record: %+v", records[0])
	}
	if records[0].StudentName != "Flow Student" {
		t.Errorf("record studentName = %q, want %q", records[0].StudentName, "Flow Student")
	}

	// the teacher overrides the status; same record, updated in place
	body := marchallObj(t, map[string]string{"student_id": student.ID, "student_name": "Flow Student", "status": "late"})
	req, rec = newAuthRequest(http.MethodPost, sessPath+"/attendance", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var marked attendance.AttendanceRecord
	unmarchallObj(t, rec.Body.Bytes(), &marked)
	if marked.ID != records[0].ID {
		t.Errorf("mark: record ID = %s, want %s", marked.ID, records[0].ID)
	}
	if marked.Status != attendance.StatusLate || marked.MarkedBy != teacher.ID {
		t.Errorf("mark: unexpected record: %+v", marked)
	}

	// an invalid status is a validation error
	body = marchallObj(t, map[string]string{"student_id": student.ID, "status": "vanished"})
	req, rec = newAuthRequest(http.MethodPost, sessPath+"/attendance", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("mark(invalid status): code = %v; body %s", rec.Code, rec.Body.String())
	}

	// the student sees their own course records
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/attendance/me", studentToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: code = %v; body %s", rec.Code, rec.Body.String())
	}
	unmarchallObj(t, rec.Body.Bytes(), &records)
	if len(records) != 1 || records[0].StudentID != student.ID {
		t.Errorf("me: unexpected records: %+v", records)
	}

	// close, then delete
	req, rec = newAuthRequest(http.MethodPost, sessPath+"/close", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("close: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var closed attendance.ClassSession
	unmarchallObj(t, rec.Body.Bytes(), &closed)
	if closed.IsActive || closed.ClosedAt == nil {
		t.Errorf("close: unexpected session: %+v", closed)
	}

	req, rec = newAuthRequest(http.MethodDelete, sessPath, teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: code = %v; body %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodGet, sessPath, teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get(deleted): code = %v; body %s", rec.Code, rec.Body.String())
	}
}

func Test_courseApi_sessions(t *testing.T) {
	teacher := createUser(t, "Sess Teacher", "sessteacher", "sessteacher@test.cd", "", []string{user.RoleTeacher}, true)
	teacherToken := getToken(t, teacher)

	crs := createCourse(t, "Sess Course", "sess101", teacher.ID)

	// create via API
	body := marchallObj(t, map[string]interface{}{"date": time.Now().Format(time.RFC3339), "topic": "Tajweed"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/sessions", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var sess attendance.ClassSession
	unmarchallObj(t, rec.Body.Bytes(), &sess)
	if sess.IsActive {
		t.Error("created session must be closed")
	}
	if sess.CourseID != crs.ID || sess.CreatedBy != teacher.ID || sess.Topic != "Tajweed" {
		t.Errorf("unexpected session: %+v", sess)
	}

	// creating a session on an unknown course fails
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/nope/sessions", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("create session(unknown course): code = %v; body %s", rec.Code, rec.Body.String())
	}

	// list, then list active only
	sess2 := createOpenSession(t, crs.ID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/sessions", teacherToken)
	app.ServeHTTP(rec, req)
	var sessions []attendance.ClassSession
	unmarchallObj(t, rec.Body.Bytes(), &sessions)
	if len(sessions) != 2 {
		t.Errorf("list sessions: got %d, want 2", len(sessions))
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/sessions?active=true", teacherToken)
	app.ServeHTTP(rec, req)
	unmarchallObj(t, rec.Body.Bytes(), &sessions)
	if len(sessions) != 1 || sessions[0].ID != sess2.ID {
		t.Errorf("list active sessions: got %+v, want [%s]", sessions, sess2.ID)
	}
}

func Test_courseApi_summary(t *testing.T) {
	admin := createUser(t, "Sum Admin", "sumadmin", "sumadmin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := createUser(t, "Sum Teacher", "sumteacher", "sumteacher@test.cd", "", []string{user.RoleTeacher}, true)
	adminToken := getToken(t, admin)
	teacherToken := getToken(t, teacher)

	crs := createCourse(t, "Sum Course", "sum101", teacher.ID)

	// enroll two students; the second has no explicit name
	body := marchallObj(t, map[string]string{"student_id": "sum-std1", "first_name": "Bilal", "last_name": "Rabah", "email": "bilal@test.cd"})
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/roster", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll: code = %v; body %s", rec.Code, rec.Body.String())
	}
	body = marchallObj(t, map[string]string{"student_id": "sum-std2", "email": "zayd@test.cd"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/roster", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("enroll: code = %v; body %s", rec.Code, rec.Body.String())
	}

	// roster resolves display names
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/roster", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("roster: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var roster []RosterEntryResponse
	unmarchallObj(t, rec.Body.Bytes(), &roster)
	names := make(map[string]string, len(roster))
	for _, e := range roster {
		names[e.StudentID] = e.StudentName
	}
	if names["sum-std1"] != "Bilal Rabah" || names["sum-std2"] != "zayd" {
		t.Errorf("roster names = %v", names)
	}

	// two sessions; std1 present at both, std2 at one
	ctx := context.Background()
	sess1 := createOpenSession(t, crs.ID)
	sess2 := createOpenSession(t, crs.ID)
	for _, m := range []attendance.Mark{
		{CourseID: crs.ID, SessionID: sess1.ID, StudentID: "sum-std1", Status: attendance.StatusPresent, MarkedBy: teacher.ID},
		{CourseID: crs.ID, SessionID: sess2.ID, StudentID: "sum-std1", Status: attendance.StatusPresent, MarkedBy: teacher.ID},
		{CourseID: crs.ID, SessionID: sess1.ID, StudentID: "sum-std2", Status: attendance.StatusLate, MarkedBy: teacher.ID},
	} {
		if _, err := attSvc.Mark(ctx, m); err != nil {
			t.Fatalf("Mark(): %v", err)
		}
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/attendance/summary", teacherToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var summaries []attendance.StudentSummary
	unmarchallObj(t, rec.Body.Bytes(), &summaries)
	if len(summaries) != 2 {
		t.Fatalf("summary: got %d entries, want 2", len(summaries))
	}
	bySid := make(map[string]attendance.StudentSummary, len(summaries))
	for _, s := range summaries {
		bySid[s.StudentID] = s
	}
	if s := bySid["sum-std1"]; s.TotalSessions != 2 || s.Present != 2 || s.Rate != 100 || s.StudentName != "Bilal Rabah" {
		t.Errorf("summary[std1] = %+v", s)
	}
	if s := bySid["sum-std2"]; s.TotalSessions != 2 || s.Late != 1 || s.Rate != 50 || s.StudentName != "zayd" {
		t.Errorf("summary[std2] = %+v", s)
	}
}

func Test_courseApi_create(t *testing.T) {
	admin := createUser(t, "Crs Admin", "crsadmin", "crsadmin@test.cd", "", []string{user.RoleAdmin}, true)
	adminToken := getToken(t, admin)

	body := marchallObj(t, map[string]string{"name": "Seerah", "code": "seerah101", "teacher_id": admin.ID})
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create course: code = %v; body %s", rec.Code, rec.Body.String())
	}
	var crs struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	unmarchallObj(t, rec.Body.Bytes(), &crs)
	if crs.ID == "" || crs.Name != "Seerah" {
		t.Errorf("create course: unexpected body %s", rec.Body.String())
	}

	// missing name is a validation error
	body = marchallObj(t, map[string]string{"code": "x"})
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("create course(no name): code = %v; body %s", rec.Code, rec.Body.String())
	}

	// retrieve
	req, rec = newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/courses/%s", crs.ID), adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("retrieve course: code = %v; body %s", rec.Code, rec.Body.String())
	}
}
