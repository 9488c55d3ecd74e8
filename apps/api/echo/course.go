package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

type courseApi struct {
	svc    course.Service
	usrSvc user.Service
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.Service, usrSvc user.Service) {
	api := courseApi{svc: svc, usrSvc: usrSvc}

	// categories
	catg := g.Group("/categories")
	catg.GET("", api.queryCategories)
	catg.POST("", api.createCategory, jwt, adminMiddleware())
	catg.DELETE("/:id", api.destroyCategory, jwt, adminMiddleware())

	// courses; catalog browsing needs no auth
	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.GET("/:id/lessons", api.lessons)

	// course management is for course owners.
	// NB: middleware is attached per route; a sub-group on the same prefix would
	// register gated catch-alls that shadow the public catalog routes above.
	teach := []echo.MiddlewareFunc{jwt, teacherMiddleware()}
	cg.POST("", api.create, teach...)
	cg.GET("/mine", api.mine, teach...)
	cg.PUT("/:id", api.update, teach...)
	cg.DELETE("/:id", api.destroy, teach...)
	cg.POST("/:id/lessons", api.addLesson, teach...)

	// lesson management
	lg := g.Group("/lessons", jwt, teacherMiddleware())
	lg.GET("/:id", api.retrieveLesson)
	lg.PUT("/:id", api.updateLesson)
	lg.DELETE("/:id", api.destroyLesson)
}

// Handlers

func (api *courseApi) queryCategories(ctx echo.Context) error {
	cats, err := api.svc.QueryCategories(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	if cats == nil {
		cats = []course.Category{}
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *courseApi) createCategory(ctx echo.Context) error {
	var data course.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	cat, err := api.svc.CreateCategory(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *courseApi) destroyCategory(ctx echo.Context) error {
	if err := api.svc.DeleteCategory(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()
	filter.TeacherID = ""
	filter.PublishedOnly = true // the catalog only shows published courses
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) mine(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := &course.QueryFilter{TeacherID: ctxUsr.ID}
	courses, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	crs, err := api.svc.Create(reqCtx, ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil || !crs.IsPublished {
		if err == nil || errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) lessons(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	crs, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
	if err != nil || !crs.IsPublished {
		if err == nil || errors.Cause(err) == course.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding course by ID")
	}

	lessons, err := api.svc.Lessons(reqCtx, crs.ID)
	if err != nil {
		return errors.Wrap(err, "querying lessons")
	}
	if lessons == nil {
		lessons = []course.Lesson{}
	}
	// content stays behind enrollment
	outlines := make([]LessonOutline, 0, len(lessons))
	for _, lsn := range lessons {
		outlines = append(outlines, LessonOutline{
			ID:          lsn.ID,
			Title:       lsn.Title,
			Description: lsn.Description,
			ContentType: lsn.ContentType,
			Order:       lsn.Order,
			Duration:    lsn.Duration,
		})
	}
	return ctx.JSON(http.StatusOK, outlines)
}

func (api *courseApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	crs, err := api.getOwnedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	crs, err = api.svc.Update(reqCtx, crs, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	crs, err := api.getOwnedCourse(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), crs.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) addLesson(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	crs, err := api.getOwnedCourse(ctx)
	if err != nil {
		return err
	}

	var data course.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	lsn, err := api.svc.AddLesson(reqCtx, crs, data)
	if err != nil {
		return errors.Wrap(err, "adding lesson")
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *courseApi) retrieveLesson(ctx echo.Context) error {
	lsn, _, err := api.getOwnedLesson(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) updateLesson(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()

	lsn, _, err := api.getOwnedLesson(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	lsn, err = api.svc.UpdateLesson(reqCtx, lsn, data)
	if err != nil {
		return errors.Wrap(err, "updating lesson")
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) destroyLesson(ctx echo.Context) error {
	lsn, _, err := api.getOwnedLesson(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteLesson(ctx.Request().Context(), lsn.ID); err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// getOwnedCourse loads the course in :id and ensures the context user owns it.
// Courses of other teachers are hidden, not forbidden.
func (api *courseApi) getOwnedCourse(ctx echo.Context) (course.Course, error) {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return course.Course{}, errHttpNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "getting context user")
	}
	if !course.CanManage(ctxUsr, crs) {
		return course.Course{}, errHttpNotFound
	}
	return crs, nil
}

func (api *courseApi) getOwnedLesson(ctx echo.Context) (course.Lesson, course.Course, error) {
	reqCtx := ctx.Request().Context()

	lsn, err := api.svc.GetLesson(reqCtx, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == course.ErrLessonNotFound {
			return course.Lesson{}, course.Course{}, errHttpNotFound
		}
		return course.Lesson{}, course.Course{}, errors.Wrap(err, "finding lesson by ID")
	}

	crs, err := api.svc.GetByID(reqCtx, lsn.CourseID)
	if err != nil {
		return course.Lesson{}, course.Course{}, errors.Wrap(err, "finding course by ID")
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return course.Lesson{}, course.Course{}, errors.Wrap(err, "getting context user")
	}
	if !course.CanManage(ctxUsr, crs) {
		return course.Lesson{}, course.Course{}, errHttpNotFound
	}
	return lsn, crs, nil
}

// LessonOutline is the public view of a Lesson; it leaves the content out.
type LessonOutline struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentType string `json:"content_type"`
	Order       int    `json:"order"`
	Duration    int    `json:"duration"`
}
