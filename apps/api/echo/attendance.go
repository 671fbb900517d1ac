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

type attendanceApi struct {
	svc      attendance.ServiceInterface
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerAttendanceAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc attendance.ServiceInterface,
	usrSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := attendanceApi{
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	sg := g.Group("/sessions", jwt)

	dg := sg.Group("/:id")
	dg.GET("", api.retrieve, staffMiddleware())
	dg.DELETE("", api.destroy, staffMiddleware())
	dg.POST("/open", api.open, staffMiddleware())
	dg.POST("/close", api.close, staffMiddleware())
	dg.GET("/attendance", api.records, staffMiddleware())
	dg.POST("/attendance", api.mark, staffMiddleware())
	dg.POST("/checkin", api.checkin)
}

// Handlers

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	sess, err := api.svc.GetSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteSession(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) open(ctx echo.Context) error {
	sess, err := api.svc.OpenSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *attendanceApi) close(ctx echo.Context) error {
	sess, err := api.svc.CloseSession(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *attendanceApi) records(ctx echo.Context) error {
	records, err := api.svc.SessionRecords(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying session records")
	}
	if records == nil {
		records = []attendance.AttendanceRecord{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	sess, err := api.svc.GetSession(reqCtx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data attendance.Mark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Mark")
	}
	data.SessionID = sess.ID
	data.CourseID = sess.CourseID

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.MarkedBy = claims.Subject

	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	rec, err := api.svc.Mark(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, rec)
}

// checkin marks the calling student present on an open session. The student
// identity comes from the auth claims, never from the request body.
func (api *attendanceApi) checkin(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !usr.IsStudent() {
		return errHttpForbidden
	}

	sess, err := api.svc.GetSession(reqCtx, ctx.Param("id"))
	if err != nil && errors.Cause(err) != attendance.ErrSessionNotFound {
		return errors.Wrap(err, "looking up session")
	}

	data := attendance.SelfCheckin{
		CourseID:    sess.CourseID,
		SessionID:   ctx.Param("id"),
		StudentID:   usr.ID,
		StudentName: course.RosterEntry{DisplayName: usr.Name, Email: usr.Email}.Name(),
	}

	res, err := api.svc.SelfCheckin(reqCtx, data)
	if err != nil {
		return errors.Wrap(err, "checking in")
	}

	code := http.StatusOK
	if !res.Success {
		code = http.StatusBadRequest
	}
	return ctx.JSON(code, res)
}
