package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/seenelm/tanwir-students-sub000/core/attendance"
	"github.com/seenelm/tanwir-students-sub000/core/course"
	"github.com/seenelm/tanwir-students-sub000/core/user"
)

type courseApi struct {
	svc      course.ServiceInterface
	attSvc   attendance.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc course.ServiceInterface,
	attSvc attendance.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:      svc,
		attSvc:   attSvc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	cg := g.Group("/courses", jwt)
	cg.POST("", api.create, adminMiddleware())
	cg.GET("", api.query)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.GET("/roster", api.roster, staffMiddleware())
	dg.POST("/roster", api.enroll, adminMiddleware())

	dg.POST("/sessions", api.createSession, staffMiddleware())
	dg.GET("/sessions", api.querySessions)

	dg.GET("/attendance", api.attendanceRecords, staffMiddleware())
	dg.GET("/attendance/me", api.myAttendanceRecords)
	dg.GET("/attendance/summary", api.attendanceSummary, staffMiddleware())
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) roster(ctx echo.Context) error {
	roster, err := api.svc.Roster(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "fetching roster")
	}

	entries := make([]RosterEntryResponse, 0, len(roster))
	for _, e := range roster {
		entries = append(entries, RosterEntryResponse{
			StudentID:   e.StudentID,
			StudentName: e.Name(),
			Email:       e.Email,
		})
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	var data course.RosterEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RosterEntry")
	}

	if err := api.svc.Enroll(ctx.Request().Context(), ctx.Param("id"), data); err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.NoContent(http.StatusCreated)
}

func (api *courseApi) createSession(ctx echo.Context) error {
	var data attendance.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	data.CourseID = ctx.Param("id")

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.CreatedBy = claims.Subject

	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	// the session must belong to an existing course
	if _, err := api.svc.GetByID(ctx.Request().Context(), data.CourseID); err != nil {
		return err
	}

	sess, err := api.attSvc.CreateSession(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *courseApi) querySessions(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	courseID := ctx.Param("id")

	var sessions []attendance.ClassSession
	var err error
	if ctx.QueryParam("active") != "" {
		sessions, err = api.attSvc.ActiveSessions(reqCtx, courseID)
	} else {
		sessions, err = api.attSvc.Sessions(reqCtx, courseID)
	}
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	if sessions == nil {
		sessions = []attendance.ClassSession{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *courseApi) attendanceRecords(ctx echo.Context) error {
	records, err := api.attSvc.CourseRecords(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying course records")
	}
	if records == nil {
		records = []attendance.AttendanceRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *courseApi) myAttendanceRecords(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	records, err := api.attSvc.StudentRecords(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying student records")
	}
	if records == nil {
		records = []attendance.AttendanceRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *courseApi) attendanceSummary(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	courseID := ctx.Param("id")

	roster, err := api.svc.Roster(reqCtx, courseID)
	if err != nil {
		return errors.Wrap(err, "fetching roster")
	}

	entries := make([]attendance.RosterEntry, 0, len(roster))
	for _, e := range roster {
		entries = append(entries, attendance.RosterEntry{StudentID: e.StudentID, StudentName: e.Name()})
	}

	summaries, err := api.attSvc.Summary(reqCtx, courseID, entries)
	if err != nil {
		return errors.Wrap(err, "computing summary")
	}
	return ctx.JSON(http.StatusOK, summaries)
}

type RosterEntryResponse struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	Email       string `json:"email"`
}
