package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core/enroll"
)

type enrollmentRepository struct {
	enrDB *enrollmentTable
	lpDB  *lessonProgressTable
}

var _ enroll.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) enroll.Repository {
	return &enrollmentRepository{
		enrDB: db.enrollment,
		lpDB:  db.lessonProgress,
	}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enroll.Enrollment) (enroll.Enrollment, error) {
	repo.enrDB.Lock()
	defer repo.enrDB.Unlock()

	for _, e := range repo.enrDB.table {
		if e.StudentID == enr.StudentID && e.CourseID == enr.CourseID {
			return enroll.Enrollment{}, enroll.ErrAlreadyEnrolled
		}
	}
	enr.ID = uuid.New().String()
	repo.enrDB.table[enr.ID] = &enr
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enroll.Enrollment, error) {
	repo.enrDB.RLock()
	defer repo.enrDB.RUnlock()

	if enr, ok := repo.enrDB.table[id]; ok {
		return *enr, nil
	}
	return enroll.Enrollment{}, enroll.ErrNotFound
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, studentID, courseID string) (enroll.Enrollment, error) {
	repo.enrDB.RLock()
	defer repo.enrDB.RUnlock()

	for _, enr := range repo.enrDB.table {
		if enr.StudentID == studentID && enr.CourseID == courseID {
			return *enr, nil
		}
	}
	return enroll.Enrollment{}, enroll.ErrNotFound
}

func (repo *enrollmentRepository) QueryEnrollmentsByStudentID(ctx context.Context, studentID string) ([]enroll.Enrollment, error) {
	return repo.queryEnrollments(func(enr enroll.Enrollment) bool { return enr.StudentID == studentID })
}

func (repo *enrollmentRepository) QueryEnrollmentsByCourseID(ctx context.Context, courseID string) ([]enroll.Enrollment, error) {
	return repo.queryEnrollments(func(enr enroll.Enrollment) bool { return enr.CourseID == courseID })
}

func (repo *enrollmentRepository) queryEnrollments(match func(enroll.Enrollment) bool) ([]enroll.Enrollment, error) {
	repo.enrDB.RLock()
	defer repo.enrDB.RUnlock()

	var enrs []enroll.Enrollment
	for _, enr := range repo.enrDB.table {
		if match(*enr) {
			enrs = append(enrs, *enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool {
		if !enrs[i].EnrolledAt.Equal(enrs[j].EnrolledAt) {
			return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt)
		}
		return enrs[i].ID < enrs[j].ID
	})
	return enrs, nil
}

func (repo *enrollmentRepository) CompleteEnrollment(ctx context.Context, id string, completedAt null.Time) (enroll.Enrollment, error) {
	repo.enrDB.Lock()
	defer repo.enrDB.Unlock()

	orig, ok := repo.enrDB.table[id]
	if !ok {
		return enroll.Enrollment{}, enroll.ErrNotFound
	}
	// first writer wins
	if !orig.Completed {
		orig.Completed = true
		orig.CompletedAt = completedAt
	}
	return *orig, nil
}

func (repo *enrollmentRepository) SaveLessonProgress(ctx context.Context, lp enroll.LessonProgress) (enroll.LessonProgress, error) {
	repo.lpDB.Lock()
	defer repo.lpDB.Unlock()

	// first writer wins
	for _, row := range repo.lpDB.table {
		if row.EnrollmentID == lp.EnrollmentID && row.LessonID == lp.LessonID {
			return *row, nil
		}
	}
	lp.ID = uuid.New().String()
	repo.lpDB.table[lp.ID] = &lp
	return lp, nil
}

func (repo *enrollmentRepository) QueryLessonProgress(ctx context.Context, enrollmentID string) ([]enroll.LessonProgress, error) {
	repo.lpDB.RLock()
	defer repo.lpDB.RUnlock()

	var lps []enroll.LessonProgress
	for _, lp := range repo.lpDB.table {
		if lp.EnrollmentID == enrollmentID {
			lps = append(lps, *lp)
		}
	}
	return lps, nil
}
