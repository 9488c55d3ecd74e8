// Package dummydb provides in-memory repositories for tests and local
// development without a PostgreSQL instance.
package dummydb

import (
	"sync"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enroll"
	"github.com/trezcool/academia/core/user"
)

type (
	DB struct {
		user           *userTable
		category       *categoryTable
		course         *courseTable
		lesson         *lessonTable
		enrollment     *enrollmentTable
		lessonProgress *lessonProgressTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	categoryTable struct {
		sync.RWMutex
		table map[string]*course.Category
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
	}

	lessonTable struct {
		sync.RWMutex
		table map[string]*course.Lesson
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*enroll.Enrollment
	}

	lessonProgressTable struct {
		sync.RWMutex
		table map[string]*enroll.LessonProgress
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:           &userTable{table: make(map[string]*user.User)},
		category:       &categoryTable{table: make(map[string]*course.Category)},
		course:         &courseTable{table: make(map[string]*course.Course)},
		lesson:         &lessonTable{table: make(map[string]*course.Lesson)},
		enrollment:     &enrollmentTable{table: make(map[string]*enroll.Enrollment)},
		lessonProgress: &lessonProgressTable{table: make(map[string]*enroll.LessonProgress)},
	}
	return db, nil
}
