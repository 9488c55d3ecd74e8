package enroll

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Enrollment ties a student to a course. A student may hold at most one
// enrollment per course; Completed flips to true exactly once, when every
// lesson of the course has been completed, and stays true.
type Enrollment struct {
	ID          string    `json:"id"`
	StudentID   string    `json:"student_id"`
	CourseID    string    `json:"course_id"`
	EnrolledAt  time.Time `json:"enrolled_at"` // UTC
	Completed   bool      `json:"completed"`
	CompletedAt null.Time `json:"completed_at,omitempty"` // UTC; set once with Completed
}

// LessonProgress records a student's completion of a single lesson within
// an enrollment. At most one row exists per (enrollment, lesson) pair.
type LessonProgress struct {
	ID           string    `json:"id"`
	EnrollmentID string    `json:"enrollment_id"`
	LessonID     string    `json:"lesson_id"`
	Completed    bool      `json:"completed"`
	CompletedAt  null.Time `json:"completed_at,omitempty"` // UTC
}

// Status is the answer to "am I enrolled in this course?".
type Status struct {
	Enrolled     bool   `json:"enrolled"`
	EnrollmentID string `json:"enrollment_id,omitempty"`
}

// ProgressInfo is a snapshot of how far along an enrollment is.
type ProgressInfo struct {
	EnrollmentID       string    `json:"enrollment_id"`
	CourseID           string    `json:"course_id"`
	TotalLessons       int       `json:"total_lessons"`
	CompletedLessons   int       `json:"completed_lessons"`
	Percentage         int       `json:"percentage"`
	CompletedLessonIDs []string  `json:"completed_lesson_ids"`
	Completed          bool      `json:"completed"`
	CompletedAt        null.Time `json:"completed_at,omitempty"`

	// Record is the lesson progress row behind a completion call;
	// plain progress lookups leave it nil.
	Record *LessonProgress `json:"record,omitempty"`
}

// CourseStats aggregates a teacher's view of one of their courses.
type CourseStats struct {
	CourseID        string  `json:"course_id"`
	Title           string  `json:"title"`
	EnrolledCount   int     `json:"enrolled_count"`
	CompletedCount  int     `json:"completed_count"`
	AverageProgress float64 `json:"average_progress"`
}
