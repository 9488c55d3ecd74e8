package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core/enroll"
)

type enrollmentRow struct {
	ID          string    `db:"id"`
	StudentID   string    `db:"student_id"`
	CourseID    string    `db:"course_id"`
	EnrolledAt  time.Time `db:"enrolled_at"`
	Completed   bool      `db:"completed"`
	CompletedAt null.Time `db:"completed_at"`
}

func newEnrollmentRow(enr enroll.Enrollment) enrollmentRow {
	return enrollmentRow(enr)
}

func (row enrollmentRow) enrollment() enroll.Enrollment {
	return enroll.Enrollment(row)
}

type lessonProgressRow struct {
	ID           string    `db:"id"`
	EnrollmentID string    `db:"enrollment_id"`
	LessonID     string    `db:"lesson_id"`
	Completed    bool      `db:"completed"`
	CompletedAt  null.Time `db:"completed_at"`
}

func (row lessonProgressRow) lessonProgress() enroll.LessonProgress {
	return enroll.LessonProgress(row)
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enroll.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) enroll.Repository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, error) {
	enr.ID = uuid.New().String()

	q := `INSERT INTO enrollment (id, student_id, course_id, enrolled_at, completed, completed_at)
VALUES (:id, :student_id, :course_id, :enrolled_at, :completed, :completed_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, newEnrollmentRow(enr)); err != nil {
		return enroll.Enrollment{}, trapUniqueErr(err, enroll.ErrAlreadyEnrolled, "enrollment_student_id_course_id_key")
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enroll.Enrollment, error) {
	return repo.getEnrollment(ctx, `SELECT * FROM enrollment WHERE id = $1`, id)
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, studentID, courseID string) (enroll.Enrollment, error) {
	return repo.getEnrollment(ctx, `SELECT * FROM enrollment WHERE student_id = $1 AND course_id = $2`, studentID, courseID)
}

func (repo *enrollmentRepository) getEnrollment(ctx context.Context, q string, args ...interface{}) (enroll.Enrollment, error) {
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, q, args...); err != nil {
		return enroll.Enrollment{}, trapNoRowsErr(err, enroll.ErrNotFound)
	}
	return row.enrollment(), nil
}

func (repo *enrollmentRepository) QueryEnrollmentsByStudentID(ctx context.Context, studentID string) ([]enroll.Enrollment, error) {
	q := `SELECT * FROM enrollment WHERE student_id = $1 ORDER BY enrolled_at DESC, id ASC`
	return repo.queryEnrollments(ctx, q, studentID)
}

func (repo *enrollmentRepository) QueryEnrollmentsByCourseID(ctx context.Context, courseID string) ([]enroll.Enrollment, error) {
	q := `SELECT * FROM enrollment WHERE course_id = $1 ORDER BY enrolled_at DESC, id ASC`
	return repo.queryEnrollments(ctx, q, courseID)
}

func (repo *enrollmentRepository) queryEnrollments(ctx context.Context, q string, args ...interface{}) ([]enroll.Enrollment, error) {
	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	enrs := make([]enroll.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrs = append(enrs, row.enrollment())
	}
	return enrs, nil
}

func (repo *enrollmentRepository) CompleteEnrollment(ctx context.Context, id string, completedAt null.Time) (enroll.Enrollment, error) {
	// first writer wins; a completed row keeps its original completion time
	q := `UPDATE enrollment SET completed = TRUE, completed_at = $2 WHERE id = $1 AND completed = FALSE`
	if _, err := repo.db.ExecContext(ctx, q, id, completedAt); err != nil {
		return enroll.Enrollment{}, err
	}
	return repo.GetEnrollmentByID(ctx, id)
}

func (repo *enrollmentRepository) SaveLessonProgress(ctx context.Context, lp enroll.LessonProgress) (enroll.LessonProgress, error) {
	lp.ID = uuid.New().String()

	// first writer wins; reselect to return the stored row either way
	q := `INSERT INTO lesson_progress (id, enrollment_id, lesson_id, completed, completed_at)
VALUES (:id, :enrollment_id, :lesson_id, :completed, :completed_at)
ON CONFLICT (enrollment_id, lesson_id) DO NOTHING`
	if _, err := repo.db.NamedExecContext(ctx, q, lessonProgressRow(lp)); err != nil {
		return enroll.LessonProgress{}, err
	}

	var row lessonProgressRow
	sel := `SELECT * FROM lesson_progress WHERE enrollment_id = $1 AND lesson_id = $2`
	if err := repo.db.GetContext(ctx, &row, sel, lp.EnrollmentID, lp.LessonID); err != nil {
		return enroll.LessonProgress{}, err
	}
	return row.lessonProgress(), nil
}

func (repo *enrollmentRepository) QueryLessonProgress(ctx context.Context, enrollmentID string) ([]enroll.LessonProgress, error) {
	var rows []lessonProgressRow
	q := `SELECT * FROM lesson_progress WHERE enrollment_id = $1`
	if err := repo.db.SelectContext(ctx, &rows, q, enrollmentID); err != nil {
		return nil, err
	}
	lps := make([]enroll.LessonProgress, 0, len(rows))
	for _, row := range rows {
		lps = append(lps, row.lessonProgress())
	}
	return lps, nil
}
