package tests

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enroll"
	"github.com/trezcool/academia/core/user"
	emailsvc "github.com/trezcool/academia/services/email"
	testutil "github.com/trezcool/academia/tests"
)

func Test_enrollApi_enroll(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, fix.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	golang := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)
	draft := testutil.CreateCourse(t, fix.courseRepo, teacher, "Draft Course", false)

	studentToken := getToken(t, student)

	t.Run("auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/v1/courses/"+golang.ID+"/enroll")
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("teachers cannot enroll", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+golang.ID+"/enroll", getToken(t, teacher))
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("unknown course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/lol/enroll", studentToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("unpublished course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+draft.ID+"/enroll", studentToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "this course is not open for enrollment"}),
		}, rec)
	})

	t.Run("enrolled", func(t *testing.T) {
		emailsvc.ClearSentMessages()

		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+golang.ID+"/enroll", studentToken)
		fix.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var enr enroll.Enrollment
		if err := json.Unmarshal(rec.Body.Bytes(), &enr); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if enr.StudentID != student.ID || enr.CourseID != golang.ID {
			t.Errorf("enrollment = %+v; want student %q course %q", enr, student.ID, golang.ID)
		}
		if enr.Completed {
			t.Error("new enrollments must start incomplete")
		}

		// confirmation mail
		if len(emailsvc.SentMessages) != 1 {
			t.Fatalf("failed! len(SentMessages) = %d; want 1", len(emailsvc.SentMessages))
		}
		msg := emailsvc.SentMessages[0]
		if !strings.Contains(msg.TextContent, golang.Title) {
			t.Errorf("failed! mail does not mention the course %q", golang.Title)
		}
	})

	t.Run("enrolling twice", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+golang.ID+"/enroll", studentToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "you are already enrolled in this course"}),
		}, rec)
	})
}

func Test_enrollApi_enrollmentStatus(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, fix.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)

	golang := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)
	python := testutil.CreateCourse(t, fix.courseRepo, teacher, "Python Fundamentals", true)
	enr := testutil.CreateEnrollment(t, fix.enrRepo, student, golang)

	studentToken := getToken(t, student)

	tests := []httpTest{
		{name: "enrolled", path: "/v1/courses/" + golang.ID + "/enrollment-status", wantData: marchallObj(t, enroll.Status{Enrolled: true, EnrollmentID: enr.ID})},
		{name: "not enrolled", path: "/v1/courses/" + python.ID + "/enrollment-status", wantData: marchallObj(t, enroll.Status{Enrolled: false})},
		{name: "unknown course", path: "/v1/courses/lol/enrollment-status", wantData: marchallObj(t, enroll.Status{Enrolled: false})},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.wantCode = http.StatusOK

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, studentToken)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollApi_myEnrollments(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, fix.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, fix.usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	golang := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)
	python := testutil.CreateCourse(t, fix.courseRepo, teacher, "Python Fundamentals", true)

	enr1 := testutil.CreateEnrollment(t, fix.enrRepo, student, golang)
	enr2 := testutil.CreateEnrollment(t, fix.enrRepo, student, python)
	testutil.CreateEnrollment(t, fix.enrRepo, other, golang)

	tests := []httpTest{
		// most recent first
		{name: "my enrollments only", token: getToken(t, student), wantData: marchallList(t, enr2, enr1)},
		{name: "no enrollments", token: getToken(t, teacher), wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/enrollments"
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollApi_progressScenario(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, fix.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, fix.usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	python := testutil.CreateCourse(t, fix.courseRepo, teacher, "Python Fundamentals", true)
	golang := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)

	lessons := make([]course.Lesson, 0, 5)
	for i := 1; i <= 5; i++ {
		lessons = append(lessons, testutil.CreateLesson(t, fix.courseRepo, python, fmt.Sprintf("Lesson %d", i), i))
	}
	goLesson := testutil.CreateLesson(t, fix.courseRepo, golang, "Introduction", 1)

	enr := testutil.CreateEnrollment(t, fix.enrRepo, student, python)

	studentToken := getToken(t, student)
	progressPath := "/v1/enrollments/" + enr.ID + "/progress"
	completePath := func(lessonID string) string {
		return "/v1/enrollments/" + enr.ID + "/lessons/" + lessonID + "/complete"
	}
	getProgress := func(t *testing.T, path, token string) enroll.ProgressInfo {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, path, token)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var info enroll.ProgressInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		return info
	}

	t.Run("another student's enrollment is forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, progressPath, getToken(t, other))
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("unknown enrollment", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/enrollments/lol/progress", studentToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("fresh enrollment is at 0%", func(t *testing.T) {
		info := getProgress(t, progressPath, studentToken)
		if info.TotalLessons != 5 || info.CompletedLessons != 0 || info.Percentage != 0 {
			t.Errorf("progress = %+v; want 0/5 at 0%%", info)
		}
		if info.Completed {
			t.Error("fresh enrollment must not be completed")
		}
	})

	t.Run("unknown lesson", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, completePath("lol"), studentToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("lesson from another course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, completePath(goLesson.ID), studentToken)
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "this lesson does not belong to the enrolled course"}),
		}, rec)
	})

	var firstRecord enroll.LessonProgress

	t.Run("completing one lesson out of five is 20%", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, completePath(lessons[0].ID), studentToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var info enroll.ProgressInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if info.CompletedLessons != 1 || info.Percentage != 20 {
			t.Errorf("progress = %+v; want 1/5 at 20%%", info)
		}
		if len(info.CompletedLessonIDs) != 1 || info.CompletedLessonIDs[0] != lessons[0].ID {
			t.Errorf("CompletedLessonIDs = %v; want [%s]", info.CompletedLessonIDs, lessons[0].ID)
		}
		if info.Record == nil || info.Record.LessonID != lessons[0].ID || !info.Record.CompletedAt.Valid {
			t.Fatalf("Record = %+v; want the stored row for lesson %s", info.Record, lessons[0].ID)
		}
		firstRecord = *info.Record
	})

	t.Run("completing the same lesson again is a no-op", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, completePath(lessons[0].ID), studentToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var info enroll.ProgressInfo
		if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if info.CompletedLessons != 1 || info.Percentage != 20 {
			t.Errorf("progress = %+v; want 1/5 at 20%%", info)
		}
		// the original row comes back, original completion time included
		if info.Record == nil || info.Record.ID != firstRecord.ID ||
			!info.Record.CompletedAt.Time.Equal(firstRecord.CompletedAt.Time) {
			t.Errorf("Record = %+v; want %+v", info.Record, firstRecord)
		}
	})

	t.Run("completing all lessons completes the enrollment", func(t *testing.T) {
		for _, lsn := range lessons[1:] {
			req, rec := newAuthRequest(http.MethodPost, completePath(lsn.ID), studentToken)
			fix.app.ServeHTTP(rec, req)
			if rec.Code != http.StatusOK {
				t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
			}
		}

		info := getProgress(t, progressPath, studentToken)
		if info.CompletedLessons != 5 || info.Percentage != 100 {
			t.Errorf("progress = %+v; want 5/5 at 100%%", info)
		}
		if !info.Completed || !info.CompletedAt.Valid {
			t.Error("enrollment must be completed with a completion time")
		}

		// completion time never moves once set
		completedAt := info.CompletedAt.Time
		req, rec := newAuthRequest(http.MethodPost, completePath(lessons[0].ID), studentToken)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		info = getProgress(t, progressPath, studentToken)
		if !info.CompletedAt.Time.Equal(completedAt) {
			t.Errorf("CompletedAt = %v; want %v", info.CompletedAt.Time, completedAt)
		}
	})
}

func Test_enrollApi_lessonContent(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, fix.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, fix.usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	golang := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)
	python := testutil.CreateCourse(t, fix.courseRepo, teacher, "Python Fundamentals", true)
	lsn := testutil.CreateLesson(t, fix.courseRepo, golang, "Introduction", 1)
	pyLesson := testutil.CreateLesson(t, fix.courseRepo, python, "Getting Started", 1)

	enr := testutil.CreateEnrollment(t, fix.enrRepo, student, golang)

	path := func(lessonID string) string {
		return "/v1/enrollments/" + enr.ID + "/lessons/" + lessonID
	}

	tests := []httpTest{
		// full content, enrolled student only
		{name: "enrolled student gets the content", path: path(lsn.ID), token: getToken(t, student), wantData: marchallObj(t, lsn)},
		{
			name: "another student is forbidden", path: path(lsn.ID), token: getToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "lesson from another course", path: path(pyLesson.ID), token: getToken(t, student),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "this lesson does not belong to the enrolled course"}),
		},
		{
			name: "unknown lesson", path: path("lol"), token: getToken(t, student),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_enrollApi_teacherStats(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, fix.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, fix.usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleStudent}, true)

	golang := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)
	lsn1 := testutil.CreateLesson(t, fix.courseRepo, golang, "Introduction", 1)
	testutil.CreateLesson(t, fix.courseRepo, golang, "Variables", 2)

	testutil.CreateEnrollment(t, fix.enrRepo, student, golang)
	testutil.CreateEnrollment(t, fix.enrRepo, other, golang)

	// student completes half the course
	req, rec := newAuthRequest(http.MethodGet, "/v1/enrollments", getToken(t, student))
	fix.app.ServeHTTP(rec, req)
	var enrs []enroll.Enrollment
	if err := json.Unmarshal(rec.Body.Bytes(), &enrs); err != nil || len(enrs) != 1 {
		t.Fatalf("listing enrollments failed: err %v, body %s", err, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/enrollments/"+enrs[0].ID+"/lessons/"+lsn1.ID+"/complete", getToken(t, student))
	fix.app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("completing lesson failed! code = %v: %s", rec.Code, rec.Body.String())
	}

	t.Run("students are forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/stats", getToken(t, student))
		fix.app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("per-course stats", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/teacher/stats", getToken(t, teacher))
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var stats []enroll.CourseStats
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if len(stats) != 1 {
			t.Fatalf("len(stats) = %d; want 1", len(stats))
		}
		st := stats[0]
		if st.CourseID != golang.ID || st.Title != golang.Title {
			t.Errorf("stats = %+v; want course %q", st, golang.ID)
		}
		if st.EnrolledCount != 2 || st.CompletedCount != 0 {
			t.Errorf("counts = %d/%d; want 2 enrolled, 0 completed", st.EnrolledCount, st.CompletedCount)
		}
		// one student at 50%, one at 0%
		if st.AverageProgress != 25.0 {
			t.Errorf("AverageProgress = %v; want 25", st.AverageProgress)
		}
	})
}
