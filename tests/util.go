package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enroll"
	"github.com/trezcool/academia/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCategory(t *testing.T, repo course.Repository, name string) course.Category {
	t.Helper()

	cat := course.Category{
		Name:      name,
		Slug:      core.Slugify(name),
		CreatedAt: time.Now().UTC(),
	}
	cat, err := repo.CreateCategory(context.Background(), cat)
	if err != nil {
		t.Fatalf("CreateCategory() failed: %v", err)
	}
	return cat
}

func CreateCourse(
	t *testing.T,
	repo course.Repository,
	teacher user.User,
	title string,
	published bool,
	categoryID ...string,
) course.Course {
	t.Helper()

	tstamp := time.Now().UTC()
	crs := course.Course{
		TeacherID:   teacher.ID,
		Title:       title,
		Slug:        core.Slugify(title),
		Description: title,
		Difficulty:  course.DifficultyBeginner,
		IsPublished: published,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	if len(categoryID) > 0 {
		crs.CategoryID = categoryID[0]
	}
	crs, err := repo.CreateCourse(context.Background(), crs)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateLesson(t *testing.T, repo course.Repository, crs course.Course, title string, order int) course.Lesson {
	t.Helper()

	tstamp := time.Now().UTC()
	lsn := course.Lesson{
		CourseID:    crs.ID,
		Title:       title,
		ContentType: course.ContentTypeText,
		Content:     title,
		Order:       order,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	lsn, err := repo.CreateLesson(context.Background(), lsn)
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return lsn
}

func CreateEnrollment(
	t *testing.T,
	repo enroll.Repository,
	student user.User,
	crs course.Course,
	enrolledAt ...time.Time,
) enroll.Enrollment {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(enrolledAt) > 0 {
		tstamp = enrolledAt[0].UTC()
	}
	enr := enroll.Enrollment{
		StudentID:  student.ID,
		CourseID:   crs.ID,
		EnrolledAt: tstamp,
	}
	enr, err := repo.CreateEnrollment(context.Background(), enr)
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}
