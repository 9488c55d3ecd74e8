package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enroll"
	"github.com/trezcool/academia/core/user"
)

type enrollApi struct {
	svc       enroll.Service
	courseSvc course.Service
	usrSvc    user.Service
}

func registerEnrollAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc enroll.Service,
	courseSvc course.Service,
	usrSvc user.Service,
) {
	api := enrollApi{svc: svc, courseSvc: courseSvc, usrSvc: usrSvc}

	// middleware goes on each route; a gated group on "/courses" would register
	// catch-alls shadowing the public catalog routes already on that prefix
	study := []echo.MiddlewareFunc{jwt, studentMiddleware()}
	cg := g.Group("/courses")
	cg.POST("/:id/enroll", api.enroll, study...)
	cg.GET("/:id/enrollment-status", api.enrollmentStatus, study...)

	eg := g.Group("/enrollments", jwt, studentMiddleware())
	eg.GET("", api.myEnrollments)
	eg.GET("/:id/progress", api.progress)
	eg.GET("/:id/lessons/:lessonID", api.lessonContent)
	eg.POST("/:id/lessons/:lessonID/complete", api.completeLesson)

	tg := g.Group("/teacher", jwt, teacherMiddleware())
	tg.GET("/stats", api.teacherStats)
}

// Handlers

func (api *enrollApi) enroll(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	crs, err := api.courseSvc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !enroll.CanEnroll(ctxUsr) {
		return errHttpForbidden
	}

	enr, err := api.svc.Enroll(reqCtx, ctxUsr, crs)
	if err != nil {
		switch errors.Cause(err) {
		case enroll.ErrAlreadyEnrolled, enroll.ErrCourseNotPublished:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollApi) enrollmentStatus(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	status, err := api.svc.GetStatus(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting enrollment status")
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *enrollApi) myEnrollments(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enrs, err := api.svc.ListByStudent(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrs == nil {
		enrs = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollApi) progress(ctx echo.Context) error {
	enr, err := api.getOwnedEnrollment(ctx)
	if err != nil {
		return err
	}

	info, err := api.svc.Progress(ctx.Request().Context(), enr)
	if err != nil {
		return errors.Wrap(err, "computing progress")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *enrollApi) lessonContent(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	enr, err := api.getOwnedEnrollment(ctx)
	if err != nil {
		return err
	}

	lsn, err := api.courseSvc.GetLesson(reqCtx, ctx.Param("lessonID"))
	if err != nil {
		if errors.Cause(err) == course.ErrLessonNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding lesson by ID")
	}
	if lsn.CourseID != enr.CourseID {
		return core.NewValidationError(enroll.ErrLessonNotInCourse)
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *enrollApi) completeLesson(ctx echo.Context) error {
	enr, err := api.getOwnedEnrollment(ctx)
	if err != nil {
		return err
	}

	info, err := api.svc.CompleteLesson(ctx.Request().Context(), enr, ctx.Param("lessonID"))
	if err != nil {
		switch errors.Cause(err) {
		case course.ErrLessonNotFound:
			return errHttpNotFound
		case enroll.ErrLessonNotInCourse:
			return core.NewValidationError(err)
		}
		return errors.Wrap(err, "completing lesson")
	}
	return ctx.JSON(http.StatusOK, info)
}

func (api *enrollApi) teacherStats(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	stats, err := api.svc.TeacherStats(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "computing teacher stats")
	}
	if stats == nil {
		stats = []enroll.CourseStats{}
	}
	return ctx.JSON(http.StatusOK, stats)
}

// getOwnedEnrollment loads the enrollment in :id; acting on another
// student's enrollment is forbidden.
func (api *enrollApi) getOwnedEnrollment(ctx echo.Context) (enroll.Enrollment, error) {
	enr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == enroll.ErrNotFound {
			return enroll.Enrollment{}, errHttpNotFound
		}
		return enroll.Enrollment{}, errors.Wrap(err, "finding enrollment by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return enroll.Enrollment{}, errors.Wrap(err, "getting context user")
	}
	if !enroll.CanActOn(ctxUsr, enr) {
		return enroll.Enrollment{}, errHttpForbidden
	}
	return enr, nil
}
