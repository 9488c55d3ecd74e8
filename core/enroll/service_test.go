package enroll_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enroll"
	"github.com/trezcool/academia/core/user"
	emailsvc "github.com/trezcool/academia/services/email"
	dummydb "github.com/trezcool/academia/storage/database/dummy"
	testutil "github.com/trezcool/academia/tests"
)

type fixture struct {
	userRepo   user.Repository
	courseRepo course.Repository
	enrRepo    enroll.Repository
	courseSvc  course.Service
	svc        enroll.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	courseRepo := dummydb.NewCourseRepository(db)
	enrRepo := dummydb.NewEnrollmentRepository(db)
	courseSvc := course.NewService(courseRepo)
	return &fixture{
		userRepo:   dummydb.NewUserRepository(db),
		courseRepo: courseRepo,
		enrRepo:    enrRepo,
		courseSvc:  courseSvc,
		svc:        enroll.NewServiceMock(enrRepo, courseSvc, emailsvc.NewConsoleServiceMock()),
	}
}

func (fix *fixture) newStudent(t *testing.T, uname string) user.User {
	return testutil.CreateUser(t, fix.userRepo, uname, uname, uname+"@test.cd", "", []string{user.RoleStudent}, true)
}

func (fix *fixture) newTeacher(t *testing.T, uname string) user.User {
	return testutil.CreateUser(t, fix.userRepo, uname, uname, uname+"@test.cd", "", []string{user.RoleTeacher}, true)
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t)
	teacher := fix.newTeacher(t, "awesometeacher")
	student := fix.newStudent(t, "awesomestudent")

	t.Run("unpublished course is rejected", func(t *testing.T) {
		draft := testutil.CreateCourse(t, fix.courseRepo, teacher, "Draft Course", false)
		_, err := fix.svc.Enroll(ctx, student, draft)
		assert.Equal(t, enroll.ErrCourseNotPublished, err)
	})

	t.Run("first enrollment succeeds", func(t *testing.T) {
		crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)
		enr, err := fix.svc.Enroll(ctx, student, crs)
		require.NoError(t, err)
		assert.NotEmpty(t, enr.ID)
		assert.Equal(t, student.ID, enr.StudentID)
		assert.Equal(t, crs.ID, enr.CourseID)
		assert.False(t, enr.Completed)
		assert.False(t, enr.CompletedAt.Valid)

		// confirmation mail went out
		var found bool
		for _, msg := range emailsvc.SentMessages {
			if msg.Subject == "Enrollment Confirmation" {
				found = true
				break
			}
		}
		assert.True(t, found)

		_, err = fix.svc.Enroll(ctx, student, crs)
		assert.Equal(t, enroll.ErrAlreadyEnrolled, err)
	})

	t.Run("concurrent attempts yield one winner", func(t *testing.T) {
		crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Concurrency Patterns", true)
		racer := fix.newStudent(t, "racingstudent")

		n := 10
		errs := make([]error, n)
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func(i int) {
				defer wg.Done()
				_, errs[i] = fix.svc.Enroll(ctx, racer, crs)
			}(i)
		}
		wg.Wait()

		var okCount, dupCount int
		for _, err := range errs {
			switch err {
			case nil:
				okCount++
			case enroll.ErrAlreadyEnrolled:
				dupCount++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, okCount)
		assert.Equal(t, n-1, dupCount)
	})
}

func TestService_GetStatus(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t)
	teacher := fix.newTeacher(t, "awesometeacher")
	student := fix.newStudent(t, "awesomestudent")
	crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)

	status, err := fix.svc.GetStatus(ctx, student, crs.ID)
	require.NoError(t, err)
	assert.False(t, status.Enrolled)
	assert.Empty(t, status.EnrollmentID)

	enr := testutil.CreateEnrollment(t, fix.enrRepo, student, crs)

	status, err = fix.svc.GetStatus(ctx, student, crs.ID)
	require.NoError(t, err)
	assert.True(t, status.Enrolled)
	assert.Equal(t, enr.ID, status.EnrollmentID)
}

func TestService_ListByStudent(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t)
	teacher := fix.newTeacher(t, "awesometeacher")
	student := fix.newStudent(t, "awesomestudent")
	other := fix.newStudent(t, "anotherstudent")

	crs1 := testutil.CreateCourse(t, fix.courseRepo, teacher, "Course One", true)
	crs2 := testutil.CreateCourse(t, fix.courseRepo, teacher, "Course Two", true)
	crs3 := testutil.CreateCourse(t, fix.courseRepo, teacher, "Course Three", true)

	now := time.Now().UTC()
	enrOld := testutil.CreateEnrollment(t, fix.enrRepo, student, crs1, now.Add(-2*time.Hour))
	enrNew := testutil.CreateEnrollment(t, fix.enrRepo, student, crs2, now)
	testutil.CreateEnrollment(t, fix.enrRepo, other, crs3, now.Add(-time.Hour))

	enrs, err := fix.svc.ListByStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, enrs, 2)

	// most recent first
	assert.Equal(t, enrNew.ID, enrs[0].ID)
	assert.Equal(t, enrOld.ID, enrs[1].ID)
}

func TestService_CompleteLesson(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t)
	teacher := fix.newTeacher(t, "awesometeacher")
	student := fix.newStudent(t, "awesomestudent")

	crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Python Fundamentals", true)
	lessons := make([]course.Lesson, 0, 5)
	for i, title := range []string{"Intro", "Variables", "Control Flow", "Functions", "Modules"} {
		lessons = append(lessons, testutil.CreateLesson(t, fix.courseRepo, crs, title, i+1))
	}
	enr := testutil.CreateEnrollment(t, fix.enrRepo, student, crs)

	t.Run("lesson from another course is rejected", func(t *testing.T) {
		otherCrs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Another Course", true)
		otherLsn := testutil.CreateLesson(t, fix.courseRepo, otherCrs, "Alien Lesson", 1)

		_, err := fix.svc.CompleteLesson(ctx, enr, otherLsn.ID)
		assert.Equal(t, enroll.ErrLessonNotInCourse, err)
	})

	t.Run("unknown lesson is rejected", func(t *testing.T) {
		_, err := fix.svc.CompleteLesson(ctx, enr, "00000000-0000-0000-0000-000000000000")
		assert.Equal(t, course.ErrLessonNotFound, err)
	})

	var firstRecord enroll.LessonProgress

	t.Run("completion is recorded and derived", func(t *testing.T) {
		info, err := fix.svc.CompleteLesson(ctx, enr, lessons[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 5, info.TotalLessons)
		assert.Equal(t, 1, info.CompletedLessons)
		assert.Equal(t, 20, info.Percentage)
		assert.Equal(t, []string{lessons[0].ID}, info.CompletedLessonIDs)
		assert.False(t, info.Completed)

		require.NotNil(t, info.Record)
		assert.Equal(t, enr.ID, info.Record.EnrollmentID)
		assert.Equal(t, lessons[0].ID, info.Record.LessonID)
		assert.True(t, info.Record.Completed)
		assert.True(t, info.Record.CompletedAt.Valid)
		firstRecord = *info.Record
	})

	t.Run("repeat completion is a no-op", func(t *testing.T) {
		info, err := fix.svc.CompleteLesson(ctx, enr, lessons[0].ID)
		require.NoError(t, err)
		assert.Equal(t, 20, info.Percentage)

		// the original row comes back, original timestamp included
		require.NotNil(t, info.Record)
		assert.Equal(t, firstRecord, *info.Record)

		rows, err := fix.enrRepo.QueryLessonProgress(ctx, enr.ID)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, firstRecord.CompletedAt, rows[0].CompletedAt)
	})

	t.Run("finishing every lesson completes the enrollment", func(t *testing.T) {
		var info enroll.ProgressInfo
		var err error
		for _, lsn := range lessons[1:] {
			info, err = fix.svc.CompleteLesson(ctx, enr, lsn.ID)
			require.NoError(t, err)
		}
		assert.Equal(t, 100, info.Percentage)
		assert.True(t, info.Completed)
		assert.True(t, info.CompletedAt.Valid)

		stored, err := fix.svc.GetByID(ctx, enr.ID)
		require.NoError(t, err)
		assert.True(t, stored.Completed)
		assert.True(t, stored.CompletedAt.Valid)

		// a writer still holding the pre-completion row must not move the
		// completion time
		info, err = fix.svc.CompleteLesson(ctx, enr, lessons[0].ID)
		require.NoError(t, err)
		assert.Equal(t, stored.CompletedAt, info.CompletedAt)
		refreshed, err := fix.svc.GetByID(ctx, enr.ID)
		require.NoError(t, err)
		assert.Equal(t, stored.CompletedAt, refreshed.CompletedAt)

		// completing again keeps the original completion time
		enr = stored
		info, err = fix.svc.CompleteLesson(ctx, enr, lessons[0].ID)
		require.NoError(t, err)
		assert.Equal(t, stored.CompletedAt, info.CompletedAt)
	})
}

func TestService_Progress(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t)
	teacher := fix.newTeacher(t, "awesometeacher")
	student := fix.newStudent(t, "awesomestudent")

	t.Run("course with no lessons", func(t *testing.T) {
		crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Empty Course", true)
		enr := testutil.CreateEnrollment(t, fix.enrRepo, student, crs)

		info, err := fix.svc.Progress(ctx, enr)
		require.NoError(t, err)
		assert.Equal(t, 0, info.TotalLessons)
		assert.Equal(t, 0, info.Percentage)
	})

	t.Run("thirds floor down", func(t *testing.T) {
		crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Three Lessons", true)
		var lessons []course.Lesson
		for i := 1; i <= 3; i++ {
			lessons = append(lessons, testutil.CreateLesson(t, fix.courseRepo, crs, "Lesson", i))
		}
		enr := testutil.CreateEnrollment(t, fix.enrRepo, student, crs)

		for _, lsn := range lessons[:2] {
			_, err := fix.svc.CompleteLesson(ctx, enr, lsn.ID)
			require.NoError(t, err)
		}

		info, err := fix.svc.Progress(ctx, enr)
		require.NoError(t, err)
		assert.Equal(t, 3, info.TotalLessons)
		assert.Equal(t, 2, info.CompletedLessons)
		assert.Equal(t, 66, info.Percentage)
	})
}

func TestService_TeacherStats(t *testing.T) {
	ctx := context.Background()
	fix := newFixture(t)
	teacher := fix.newTeacher(t, "awesometeacher")
	otherTeacher := fix.newTeacher(t, "anotherteacher")
	alice := fix.newStudent(t, "studentalice")
	bob := fix.newStudent(t, "studentbobby")

	crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Statistics 101", true)
	lsn1 := testutil.CreateLesson(t, fix.courseRepo, crs, "One", 1)
	lsn2 := testutil.CreateLesson(t, fix.courseRepo, crs, "Two", 2)
	testutil.CreateCourse(t, fix.courseRepo, otherTeacher, "Not Mine", true)

	enrAlice := testutil.CreateEnrollment(t, fix.enrRepo, alice, crs)
	testutil.CreateEnrollment(t, fix.enrRepo, bob, crs)

	// alice finishes the course
	_, err := fix.svc.CompleteLesson(ctx, enrAlice, lsn1.ID)
	require.NoError(t, err)
	_, err = fix.svc.CompleteLesson(ctx, enrAlice, lsn2.ID)
	require.NoError(t, err)

	stats, err := fix.svc.TeacherStats(ctx, teacher)
	require.NoError(t, err)
	require.Len(t, stats, 1)

	assert.Equal(t, crs.ID, stats[0].CourseID)
	assert.Equal(t, "Statistics 101", stats[0].Title)
	assert.Equal(t, 2, stats[0].EnrolledCount)
	assert.Equal(t, 1, stats[0].CompletedCount)
	assert.Equal(t, 50.0, stats[0].AverageProgress)
}
