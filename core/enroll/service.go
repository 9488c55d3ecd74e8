package enroll

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

var (
	// errors
	ErrNotFound           = errors.New("enrollment not found")
	ErrAlreadyEnrolled    = errors.New("you are already enrolled in this course")
	ErrCourseNotPublished = errors.New("this course is not open for enrollment")
	ErrLessonNotInCourse  = errors.New("this lesson does not belong to the enrolled course")
)

type (
	Repository interface {
		// CreateEnrollment persists enr, failing with ErrAlreadyEnrolled when a row
		// for the same (student, course) pair already exists. Uniqueness is enforced
		// by the store, not checked first, so concurrent attempts yield one winner.
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		GetEnrollment(ctx context.Context, studentID, courseID string) (Enrollment, error)
		// QueryEnrollmentsByStudentID returns the student's enrollments by descending
		// EnrolledAt, ties broken by ascending ID.
		QueryEnrollmentsByStudentID(ctx context.Context, studentID string) ([]Enrollment, error)
		QueryEnrollmentsByCourseID(ctx context.Context, courseID string) ([]Enrollment, error)
		// CompleteEnrollment marks the enrollment completed at completedAt. First
		// writer wins: an already completed row keeps its original completion time.
		// The stored row is returned either way.
		CompleteEnrollment(ctx context.Context, id string, completedAt null.Time) (Enrollment, error)

		// SaveLessonProgress inserts lp if no row exists for its (enrollment, lesson)
		// pair and returns the stored row either way; an existing row is left untouched.
		SaveLessonProgress(ctx context.Context, lp LessonProgress) (LessonProgress, error)
		QueryLessonProgress(ctx context.Context, enrollmentID string) ([]LessonProgress, error)
	}

	Service interface {
		Enroll(ctx context.Context, usr user.User, crs course.Course) (Enrollment, error)
		GetStatus(ctx context.Context, usr user.User, courseID string) (Status, error)
		GetByID(ctx context.Context, id string) (Enrollment, error)
		ListByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
		Progress(ctx context.Context, enr Enrollment) (ProgressInfo, error)
		CompleteLesson(ctx context.Context, enr Enrollment, lessonID string) (ProgressInfo, error)
		TeacherStats(ctx context.Context, teacher user.User) ([]CourseStats, error)
	}

	service struct {
		repo      Repository
		courseSvc course.Service
		mailSvc   core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, courseSvc course.Service, mailSvc core.EmailService) Service {
	return &service{
		repo:      repo,
		courseSvc: courseSvc,
		mailSvc:   mailSvc,
	}
}

func (svc *service) Enroll(ctx context.Context, usr user.User, crs course.Course) (Enrollment, error) {
	if !crs.IsPublished {
		return Enrollment{}, ErrCourseNotPublished
	}
	enr := Enrollment{
		StudentID:  usr.ID,
		CourseID:   crs.ID,
		EnrolledAt: time.Now().UTC(),
	}
	enr, err := svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, err
	}
	go svc.sendEnrollmentMail(usr, crs)
	return enr, nil
}

func (svc *service) GetStatus(ctx context.Context, usr user.User, courseID string) (Status, error) {
	enr, err := svc.repo.GetEnrollment(ctx, usr.ID, courseID)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Status{Enrolled: false}, nil
		}
		return Status{}, err
	}
	return Status{Enrolled: true, EnrollmentID: enr.ID}, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Enrollment, error) {
	return svc.repo.GetEnrollmentByID(ctx, id)
}

func (svc *service) ListByStudent(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByStudentID(ctx, studentID)
}

func (svc *service) Progress(ctx context.Context, enr Enrollment) (ProgressInfo, error) {
	lessons, err := svc.courseSvc.Lessons(ctx, enr.CourseID)
	if err != nil {
		return ProgressInfo{}, err
	}
	return svc.progressInfo(ctx, enr, lessons)
}

func (svc *service) CompleteLesson(ctx context.Context, enr Enrollment, lessonID string) (ProgressInfo, error) {
	lsn, err := svc.courseSvc.GetLesson(ctx, lessonID)
	if err != nil {
		return ProgressInfo{}, err
	}
	if lsn.CourseID != enr.CourseID {
		return ProgressInfo{}, ErrLessonNotInCourse
	}

	lp := LessonProgress{
		EnrollmentID: enr.ID,
		LessonID:     lsn.ID,
		Completed:    true,
		CompletedAt:  null.TimeFrom(time.Now().UTC()),
	}
	lp, err = svc.repo.SaveLessonProgress(ctx, lp)
	if err != nil {
		return ProgressInfo{}, err
	}

	lessons, err := svc.courseSvc.Lessons(ctx, enr.CourseID)
	if err != nil {
		return ProgressInfo{}, err
	}
	info, err := svc.progressInfo(ctx, enr, lessons)
	if err != nil {
		return ProgressInfo{}, err
	}
	info.Record = &lp

	if info.Percentage == 100 && !enr.Completed {
		if enr, err = svc.repo.CompleteEnrollment(ctx, enr.ID, null.TimeFrom(time.Now().UTC())); err != nil {
			return ProgressInfo{}, err
		}
		info.Completed = enr.Completed
		info.CompletedAt = enr.CompletedAt
	}
	return info, nil
}

func (svc *service) TeacherStats(ctx context.Context, teacher user.User) ([]CourseStats, error) {
	courses, err := svc.courseSvc.Query(ctx, &course.QueryFilter{TeacherID: teacher.ID})
	if err != nil {
		return nil, err
	}

	stats := make([]CourseStats, 0, len(courses))
	for _, crs := range courses {
		enrs, err := svc.repo.QueryEnrollmentsByCourseID(ctx, crs.ID)
		if err != nil {
			return nil, err
		}
		lessons, err := svc.courseSvc.Lessons(ctx, crs.ID)
		if err != nil {
			return nil, err
		}

		cs := CourseStats{
			CourseID:      crs.ID,
			Title:         crs.Title,
			EnrolledCount: len(enrs),
		}
		var pctSum int
		for _, enr := range enrs {
			if enr.Completed {
				cs.CompletedCount++
			}
			info, err := svc.progressInfo(ctx, enr, lessons)
			if err != nil {
				return nil, err
			}
			pctSum += info.Percentage
		}
		if len(enrs) > 0 {
			cs.AverageProgress = float64(pctSum) / float64(len(enrs))
		}
		stats = append(stats, cs)
	}
	return stats, nil
}

// progressInfo derives an enrollment's progress from its lesson completion
// rows. Rows pointing at lessons no longer in the course are ignored.
func (svc *service) progressInfo(ctx context.Context, enr Enrollment, lessons []course.Lesson) (ProgressInfo, error) {
	rows, err := svc.repo.QueryLessonProgress(ctx, enr.ID)
	if err != nil {
		return ProgressInfo{}, err
	}

	lessonIDs := make(map[string]struct{}, len(lessons))
	for _, lsn := range lessons {
		lessonIDs[lsn.ID] = struct{}{}
	}

	completedIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		if !row.Completed {
			continue
		}
		if _, ok := lessonIDs[row.LessonID]; ok {
			completedIDs = append(completedIDs, row.LessonID)
		}
	}

	return ProgressInfo{
		EnrollmentID:       enr.ID,
		CourseID:           enr.CourseID,
		TotalLessons:       len(lessons),
		CompletedLessons:   len(completedIDs),
		Percentage:         ComputeProgress(len(completedIDs), len(lessons)),
		CompletedLessonIDs: completedIDs,
		Completed:          enr.Completed,
		CompletedAt:        enr.CompletedAt,
	}, nil
}

// Mailers

func (svc *service) sendEnrollmentMail(usr user.User, crs course.Course) {
	svc.mailSvc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Enrollment Confirmation",
			TemplateName: "enrollment-confirmation",
			TemplateData: struct{ Username, CourseTitle string }{usr.Username, crs.Title},
		},
	)
}
