package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
)

type courseRepository struct {
	catDB    *categoryTable
	courseDB *courseTable
	lessonDB *lessonTable
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{
		catDB:    db.category,
		courseDB: db.course,
		lessonDB: db.lesson,
	}
}

func (repo *courseRepository) CreateCategory(ctx context.Context, cat course.Category) (course.Category, error) {
	repo.catDB.Lock()
	defer repo.catDB.Unlock()

	for _, c := range repo.catDB.table {
		if c.Name == cat.Name || c.Slug == cat.Slug {
			return course.Category{}, course.ErrCategoryExists
		}
	}
	cat.ID = uuid.New().String()
	repo.catDB.table[cat.ID] = &cat
	return cat, nil
}

func (repo *courseRepository) QueryCategories(ctx context.Context) ([]course.Category, error) {
	repo.catDB.RLock()
	defer repo.catDB.RUnlock()

	cats := make([]course.Category, 0, len(repo.catDB.table))
	for _, c := range repo.catDB.table {
		cats = append(cats, *c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

func (repo *courseRepository) GetCategoryBySlug(ctx context.Context, slug string) (course.Category, error) {
	repo.catDB.RLock()
	defer repo.catDB.RUnlock()

	for _, c := range repo.catDB.table {
		if c.Slug == slug {
			return *c, nil
		}
	}
	return course.Category{}, course.ErrCategoryNotFound
}

func (repo *courseRepository) DeleteCategoriesByID(ctx context.Context, ids ...string) error {
	repo.catDB.Lock()
	defer repo.catDB.Unlock()

	for _, id := range ids {
		delete(repo.catDB.table, id)
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	repo.courseDB.Lock()
	defer repo.courseDB.Unlock()

	for _, c := range repo.courseDB.table {
		if c.Slug == crs.Slug {
			return course.Course{}, course.ErrSlugExists
		}
	}
	crs.ID = uuid.New().String()
	repo.courseDB.table[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering ...core.DBOrdering) ([]course.Course, error) {
	repo.courseDB.RLock()
	courses := make([]course.Course, 0, len(repo.courseDB.table))
	for _, c := range repo.courseDB.table {
		courses = append(courses, *c)
	}
	repo.courseDB.RUnlock()

	if filter != nil && !filter.IsEmpty() {
		if filter.Search != "" {
			var filtered []course.Course
			search := strings.ToLower(filter.Search)
			for _, c := range courses {
				if strings.Contains(strings.ToLower(c.Title), search) ||
					strings.Contains(strings.ToLower(c.Description), search) {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
		if courses != nil && filter.CategorySlug != "" {
			var filtered []course.Course
			if cat, err := repo.GetCategoryBySlug(ctx, filter.CategorySlug); err == nil {
				for _, c := range courses {
					if c.CategoryID == cat.ID {
						filtered = append(filtered, c)
					}
				}
			}
			courses = filtered
		}
		if courses != nil && filter.Difficulty != "" {
			var filtered []course.Course
			for _, c := range courses {
				if c.Difficulty == filter.Difficulty {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
		if courses != nil && filter.Free != nil {
			var filtered []course.Course
			for _, c := range courses {
				if c.IsFree() == *filter.Free {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
		if courses != nil && filter.TeacherID != "" {
			var filtered []course.Course
			for _, c := range courses {
				if c.TeacherID == filter.TeacherID {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
		if courses != nil && filter.PublishedOnly {
			var filtered []course.Course
			for _, c := range courses {
				if c.IsPublished {
					filtered = append(filtered, c)
				}
			}
			courses = filtered
		}
	}

	sort.Slice(courses, func(i, j int) bool {
		if !courses[i].CreatedAt.Equal(courses[j].CreatedAt) {
			return courses[i].CreatedAt.After(courses[j].CreatedAt)
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.courseDB.RLock()
	defer repo.courseDB.RUnlock()

	if crs, ok := repo.courseDB.table[id]; ok {
		return *crs, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	repo.courseDB.RLock()
	defer repo.courseDB.RUnlock()

	for _, crs := range repo.courseDB.table {
		if crs.Slug == slug {
			return *crs, nil
		}
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, isPublished *bool) (course.Course, error) {
	repo.courseDB.Lock()
	defer repo.courseDB.Unlock()

	orig, ok := repo.courseDB.table[crs.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}

	if crs.Title != "" {
		orig.Title = crs.Title
	}
	if crs.Description != "" {
		orig.Description = crs.Description
	}
	if crs.CategoryID != "" {
		orig.CategoryID = crs.CategoryID
	}
	if crs.Difficulty != "" {
		orig.Difficulty = crs.Difficulty
	}
	orig.Price = crs.Price
	orig.Duration = crs.Duration
	if !crs.UpdatedAt.IsZero() {
		orig.UpdatedAt = crs.UpdatedAt
	}
	if isPublished != nil {
		orig.IsPublished = *isPublished
	}
	return *orig, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	repo.courseDB.Lock()
	defer repo.courseDB.Unlock()

	for _, id := range ids {
		delete(repo.courseDB.table, id)
	}
	return nil
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.lessonDB.Lock()
	defer repo.lessonDB.Unlock()

	for _, l := range repo.lessonDB.table {
		if l.CourseID == lsn.CourseID && l.Order == lsn.Order {
			return course.Lesson{}, course.ErrOrderTaken
		}
	}
	lsn.ID = uuid.New().String()
	repo.lessonDB.table[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) QueryLessonsByCourseID(ctx context.Context, courseID string) ([]course.Lesson, error) {
	repo.lessonDB.RLock()
	defer repo.lessonDB.RUnlock()

	var lessons []course.Lesson
	for _, l := range repo.lessonDB.table {
		if l.CourseID == courseID {
			lessons = append(lessons, *l)
		}
	}
	sort.Slice(lessons, func(i, j int) bool { return lessons[i].Order < lessons[j].Order })
	return lessons, nil
}

func (repo *courseRepository) GetLessonByID(ctx context.Context, id string) (course.Lesson, error) {
	repo.lessonDB.RLock()
	defer repo.lessonDB.RUnlock()

	if lsn, ok := repo.lessonDB.table[id]; ok {
		return *lsn, nil
	}
	return course.Lesson{}, course.ErrLessonNotFound
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	repo.lessonDB.Lock()
	defer repo.lessonDB.Unlock()

	orig, ok := repo.lessonDB.table[lsn.ID]
	if !ok {
		return course.Lesson{}, course.ErrLessonNotFound
	}
	for _, l := range repo.lessonDB.table {
		if l.ID != lsn.ID && l.CourseID == orig.CourseID && l.Order == lsn.Order {
			return course.Lesson{}, course.ErrOrderTaken
		}
	}
	lsn.CourseID = orig.CourseID
	lsn.CreatedAt = orig.CreatedAt
	repo.lessonDB.table[lsn.ID] = &lsn
	return lsn, nil
}

func (repo *courseRepository) DeleteLessonsByID(ctx context.Context, ids ...string) error {
	repo.lessonDB.Lock()
	defer repo.lessonDB.Unlock()

	for _, id := range ids {
		delete(repo.lessonDB.table, id)
	}
	return nil
}
