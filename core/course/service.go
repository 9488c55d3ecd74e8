package course

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("course not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrLessonNotFound   = errors.New("lesson not found")
	ErrSlugExists       = errors.New("a course with this slug already exists")
	ErrCategoryExists   = errors.New("a category with this name already exists")
	ErrOrderTaken       = errors.New("a lesson with this order already exists in this course")
)

type (
	Repository interface {
		CreateCategory(ctx context.Context, cat Category) (Category, error)
		QueryCategories(ctx context.Context) ([]Category, error)
		GetCategoryBySlug(ctx context.Context, slug string) (Category, error)
		DeleteCategoriesByID(ctx context.Context, ids ...string) error

		CreateCourse(ctx context.Context, crs Course) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Title or Course.Description.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		GetCourseBySlug(ctx context.Context, slug string) (Course, error)
		UpdateCourse(ctx context.Context, crs Course, isPublished *bool) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) error

		CreateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		// QueryLessonsByCourseID returns the course's lessons by ascending order index.
		QueryLessonsByCourseID(ctx context.Context, courseID string) ([]Lesson, error)
		GetLessonByID(ctx context.Context, id string) (Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson) (Lesson, error)
		DeleteLessonsByID(ctx context.Context, ids ...string) error
	}

	Service interface {
		CreateCategory(ctx context.Context, nc NewCategory) (Category, error)
		QueryCategories(ctx context.Context) ([]Category, error)
		GetCategoryBySlug(ctx context.Context, slug string) (Category, error)
		DeleteCategory(ctx context.Context, ids ...string) error

		Create(ctx context.Context, teacher user.User, nc NewCourse) (Course, error)
		Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error)
		GetByID(ctx context.Context, id string) (Course, error)
		GetBySlug(ctx context.Context, slug string) (Course, error)
		Update(ctx context.Context, crs Course, uc UpdateCourse) (Course, error)
		Delete(ctx context.Context, ids ...string) error

		AddLesson(ctx context.Context, crs Course, nl NewLesson) (Lesson, error)
		Lessons(ctx context.Context, courseID string) ([]Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		UpdateLesson(ctx context.Context, lsn Lesson, ul UpdateLesson) (Lesson, error)
		DeleteLesson(ctx context.Context, ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) CreateCategory(ctx context.Context, nc NewCategory) (Category, error) {
	cat := Category{
		Name:        nc.Name,
		Slug:        nc.Slug,
		Description: nc.Description,
		CreatedAt:   time.Now().UTC(),
	}
	cat, err := svc.repo.CreateCategory(ctx, cat)
	if err != nil {
		if errors.Cause(err) == ErrCategoryExists {
			return Category{}, core.NewValidationError(err, core.FieldError{Field: "name", Error: err.Error()})
		}
		return Category{}, err
	}
	return cat, nil
}

func (svc *service) QueryCategories(ctx context.Context) ([]Category, error) {
	return svc.repo.QueryCategories(ctx)
}

func (svc *service) GetCategoryBySlug(ctx context.Context, slug string) (Category, error) {
	return svc.repo.GetCategoryBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *service) DeleteCategory(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCategoriesByID(ctx, ids...)
}

func (svc *service) Create(ctx context.Context, teacher user.User, nc NewCourse) (Course, error) {
	var categoryID string
	if nc.CategorySlug != "" {
		cat, err := svc.repo.GetCategoryBySlug(ctx, nc.CategorySlug)
		if err != nil {
			if errors.Cause(err) == ErrCategoryNotFound {
				return Course{}, core.NewValidationError(err, core.FieldError{Field: "category", Error: err.Error()})
			}
			return Course{}, err
		}
		categoryID = cat.ID
	}

	now := time.Now().UTC()
	crs := Course{
		TeacherID:   teacher.ID,
		CategoryID:  categoryID,
		Title:       nc.Title,
		Slug:        nc.Slug,
		Description: nc.Description,
		Difficulty:  nc.Difficulty,
		Price:       nc.Price,
		Duration:    nc.Duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return Course{}, err
	}
	return crs, nil
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering...)
}

func (svc *service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *service) GetBySlug(ctx context.Context, slug string) (Course, error) {
	return svc.repo.GetCourseBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *service) Update(ctx context.Context, crs Course, uc UpdateCourse) (Course, error) {
	if uc.Title != "" {
		crs.Title = uc.Title
	}
	if uc.Description != "" {
		crs.Description = uc.Description
	}
	if uc.CategorySlug != "" {
		cat, err := svc.repo.GetCategoryBySlug(ctx, uc.CategorySlug)
		if err != nil {
			if errors.Cause(err) == ErrCategoryNotFound {
				return Course{}, core.NewValidationError(err, core.FieldError{Field: "category", Error: err.Error()})
			}
			return Course{}, err
		}
		crs.CategoryID = cat.ID
	}
	if uc.Difficulty != "" {
		crs.Difficulty = uc.Difficulty
	}
	if uc.Price != nil {
		crs.Price = *uc.Price
	}
	if uc.Duration != nil {
		crs.Duration = *uc.Duration
	}
	crs.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateCourse(ctx, crs, uc.IsPublished)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteCoursesByID(ctx, ids...)
}

func (svc *service) AddLesson(ctx context.Context, crs Course, nl NewLesson) (Lesson, error) {
	order := nl.Order
	if order == 0 {
		// append at the end
		lessons, err := svc.repo.QueryLessonsByCourseID(ctx, crs.ID)
		if err != nil {
			return Lesson{}, err
		}
		if n := len(lessons); n > 0 {
			order = lessons[n-1].Order + 1
		} else {
			order = 1
		}
	}

	now := time.Now().UTC()
	lsn := Lesson{
		CourseID:    crs.ID,
		Title:       nl.Title,
		Description: nl.Description,
		ContentType: nl.ContentType,
		Content:     nl.Content,
		VideoURL:    nl.VideoURL,
		Order:       order,
		Duration:    nl.Duration,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	lsn, err := svc.repo.CreateLesson(ctx, lsn)
	if err != nil {
		if errors.Cause(err) == ErrOrderTaken {
			return Lesson{}, core.NewValidationError(err, core.FieldError{Field: "order", Error: err.Error()})
		}
		return Lesson{}, err
	}
	return lsn, nil
}

func (svc *service) Lessons(ctx context.Context, courseID string) ([]Lesson, error) {
	return svc.repo.QueryLessonsByCourseID(ctx, courseID)
}

func (svc *service) GetLesson(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLessonByID(ctx, id)
}

func (svc *service) UpdateLesson(ctx context.Context, lsn Lesson, ul UpdateLesson) (Lesson, error) {
	if ul.Title != "" {
		lsn.Title = ul.Title
	}
	if ul.Description != "" {
		lsn.Description = ul.Description
	}
	if ul.ContentType != "" {
		lsn.ContentType = ul.ContentType
	}
	if ul.Content != "" {
		lsn.Content = ul.Content
	}
	if ul.VideoURL != "" {
		lsn.VideoURL = ul.VideoURL
	}
	if ul.Order != nil {
		lsn.Order = *ul.Order
	}
	if ul.Duration != nil {
		lsn.Duration = *ul.Duration
	}
	lsn.UpdatedAt = time.Now().UTC()
	lsn, err := svc.repo.UpdateLesson(ctx, lsn)
	if err != nil {
		if errors.Cause(err) == ErrOrderTaken {
			return Lesson{}, core.NewValidationError(err, core.FieldError{Field: "order", Error: err.Error()})
		}
		return Lesson{}, err
	}
	return lsn, nil
}

func (svc *service) DeleteLesson(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteLessonsByID(ctx, ids...)
}
