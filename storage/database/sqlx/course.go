package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
)

type categoryRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Slug        string    `db:"slug"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row categoryRow) category() course.Category {
	return course.Category(row)
}

type courseRow struct {
	ID          string      `db:"id"`
	TeacherID   string      `db:"teacher_id"`
	CategoryID  null.String `db:"category_id"`
	Title       string      `db:"title"`
	Slug        string      `db:"slug"`
	Description string      `db:"description"`
	Difficulty  string      `db:"difficulty"`
	Price       float64     `db:"price"`
	Duration    int         `db:"duration"`
	IsPublished bool        `db:"is_published"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func newCourseRow(crs course.Course) courseRow {
	return courseRow{
		ID:          crs.ID,
		TeacherID:   crs.TeacherID,
		CategoryID:  null.NewString(crs.CategoryID, crs.CategoryID != ""),
		Title:       crs.Title,
		Slug:        crs.Slug,
		Description: crs.Description,
		Difficulty:  crs.Difficulty,
		Price:       crs.Price,
		Duration:    crs.Duration,
		IsPublished: crs.IsPublished,
		CreatedAt:   crs.CreatedAt,
		UpdatedAt:   crs.UpdatedAt,
	}
}

func (row courseRow) course() course.Course {
	return course.Course{
		ID:          row.ID,
		TeacherID:   row.TeacherID,
		CategoryID:  row.CategoryID.String,
		Title:       row.Title,
		Slug:        row.Slug,
		Description: row.Description,
		Difficulty:  row.Difficulty,
		Price:       row.Price,
		Duration:    row.Duration,
		IsPublished: row.IsPublished,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

type lessonRow struct {
	ID          string    `db:"id"`
	CourseID    string    `db:"course_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	ContentType string    `db:"content_type"`
	Content     string    `db:"content"`
	VideoURL    string    `db:"video_url"`
	Order       int       `db:"order"`
	Duration    int       `db:"duration"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func newLessonRow(lsn course.Lesson) lessonRow {
	return lessonRow(lsn)
}

func (row lessonRow) lesson() course.Lesson {
	return course.Lesson(row)
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCategory(ctx context.Context, cat course.Category) (course.Category, error) {
	cat.ID = uuid.New().String()

	q := `INSERT INTO category (id, name, slug, description, created_at)
VALUES (:id, :name, :slug, :description, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, categoryRow(cat)); err != nil {
		err = trapUniqueErr(err, course.ErrCategoryExists, "category_name_key")
		return course.Category{}, trapUniqueErr(err, course.ErrCategoryExists, "category_slug_key")
	}
	return cat, nil
}

func (repo *courseRepository) QueryCategories(ctx context.Context) ([]course.Category, error) {
	var rows []categoryRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM category ORDER BY name ASC`); err != nil {
		return nil, err
	}
	cats := make([]course.Category, 0, len(rows))
	for _, row := range rows {
		cats = append(cats, row.category())
	}
	return cats, nil
}

func (repo *courseRepository) GetCategoryBySlug(ctx context.Context, slug string) (course.Category, error) {
	var row categoryRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM category WHERE slug = $1`, slug); err != nil {
		return course.Category{}, trapNoRowsErr(err, course.ErrCategoryNotFound)
	}
	return row.category(), nil
}

func (repo *courseRepository) DeleteCategoriesByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM category WHERE id = ANY ($1)`, pq.Array(ids))
	return err
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()

	q := `INSERT INTO course (id, teacher_id, category_id, title, slug, description, difficulty, price, duration, is_published, created_at, updated_at)
VALUES (:id, :teacher_id, :category_id, :title, :slug, :description, :difficulty, :price, :duration, :is_published, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newCourseRow(crs)); err != nil {
		return course.Course{}, trapUniqueErr(err, course.ErrSlugExists, "course_slug_key")
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering ...core.DBOrdering) ([]course.Course, error) {
	q := `SELECT c.* FROM course c`
	var clauses []string
	var args []interface{}

	if filter != nil && !filter.IsEmpty() {
		if filter.CategorySlug != "" {
			q += ` JOIN category cat ON cat.id = c.category_id`
			args = append(args, filter.CategorySlug)
			clauses = append(clauses, fmt.Sprintf("cat.slug = $%d", len(args)))
		}
		if filter.Search != "" {
			args = append(args, "%"+filter.Search+"%")
			n := len(args)
			clauses = append(clauses, fmt.Sprintf("(c.title ILIKE $%d OR c.description ILIKE $%d)", n, n))
		}
		if filter.Difficulty != "" {
			args = append(args, filter.Difficulty)
			clauses = append(clauses, fmt.Sprintf("c.difficulty = $%d", len(args)))
		}
		if filter.Free != nil {
			if *filter.Free {
				clauses = append(clauses, "c.price = 0")
			} else {
				clauses = append(clauses, "c.price > 0")
			}
		}
		if filter.TeacherID != "" {
			args = append(args, filter.TeacherID)
			clauses = append(clauses, fmt.Sprintf("c.teacher_id = $%d", len(args)))
		}
		if filter.PublishedOnly {
			clauses = append(clauses, "c.is_published")
		}
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += orderByClause("c.created_at DESC, c.id ASC", ordering...)

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	return repo.getCourse(ctx, `SELECT * FROM course WHERE id = $1`, id)
}

func (repo *courseRepository) GetCourseBySlug(ctx context.Context, slug string) (course.Course, error) {
	return repo.getCourse(ctx, `SELECT * FROM course WHERE slug = $1`, slug)
}

func (repo *courseRepository) getCourse(ctx context.Context, q string, args ...interface{}) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound)
	}
	return row.course(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, crs course.Course, isPublished *bool) (course.Course, error) {
	orig, err := repo.GetCourseByID(ctx, crs.ID)
	if err != nil {
		return course.Course{}, err
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

	q := `UPDATE course
SET category_id = :category_id, title = :title, description = :description, difficulty = :difficulty,
    price = :price, duration = :duration, is_published = :is_published, updated_at = :updated_at
WHERE id = :id`
	if _, err = repo.db.NamedExecContext(ctx, q, newCourseRow(orig)); err != nil {
		return course.Course{}, err
	}
	return orig, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = ANY ($1)`, pq.Array(ids))
	return err
}

func (repo *courseRepository) CreateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	lsn.ID = uuid.New().String()

	q := `INSERT INTO lesson (id, course_id, title, description, content_type, content, video_url, "order", duration, created_at, updated_at)
VALUES (:id, :course_id, :title, :description, :content_type, :content, :video_url, :order, :duration, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newLessonRow(lsn)); err != nil {
		return course.Lesson{}, trapUniqueErr(err, course.ErrOrderTaken, "lesson_course_id_order_key")
	}
	return lsn, nil
}

func (repo *courseRepository) QueryLessonsByCourseID(ctx context.Context, courseID string) ([]course.Lesson, error) {
	var rows []lessonRow
	q := `SELECT * FROM lesson WHERE course_id = $1 ORDER BY "order" ASC`
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, err
	}
	lessons := make([]course.Lesson, 0, len(rows))
	for _, row := range rows {
		lessons = append(lessons, row.lesson())
	}
	return lessons, nil
}

func (repo *courseRepository) GetLessonByID(ctx context.Context, id string) (course.Lesson, error) {
	var row lessonRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM lesson WHERE id = $1`, id); err != nil {
		return course.Lesson{}, trapNoRowsErr(err, course.ErrLessonNotFound)
	}
	return row.lesson(), nil
}

func (repo *courseRepository) UpdateLesson(ctx context.Context, lsn course.Lesson) (course.Lesson, error) {
	q := `UPDATE lesson
SET title = :title, description = :description, content_type = :content_type, content = :content,
    video_url = :video_url, "order" = :order, duration = :duration, updated_at = :updated_at
WHERE id = :id`
	if _, err := repo.db.NamedExecContext(ctx, q, newLessonRow(lsn)); err != nil {
		return course.Lesson{}, trapUniqueErr(err, course.ErrOrderTaken, "lesson_course_id_order_key")
	}
	return lsn, nil
}

func (repo *courseRepository) DeleteLessonsByID(ctx context.Context, ids ...string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM lesson WHERE id = ANY ($1)`, pq.Array(ids))
	return err
}
