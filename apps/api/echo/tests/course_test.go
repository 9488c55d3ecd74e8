package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	echoapi "github.com/trezcool/academia/apps/api/echo"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
	testutil "github.com/trezcool/academia/tests"
)

func Test_courseApi_catalog(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	cat := testutil.CreateCategory(t, fix.courseRepo, "Programming")

	golang := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true, cat.ID)
	python := testutil.CreateCourse(t, fix.courseRepo, teacher, "Python Fundamentals", true, cat.ID)
	draft := testutil.CreateCourse(t, fix.courseRepo, teacher, "Draft Course", false)

	lsn1 := testutil.CreateLesson(t, fix.courseRepo, golang, "Introduction", 1)
	lsn2 := testutil.CreateLesson(t, fix.courseRepo, golang, "Variables", 2)

	path := func(search, category string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if category != "" {
			v.Add("category", category)
		}
		return "/v1/courses?" + v.Encode()
	}
	outline := func(lsn course.Lesson) echoapi.LessonOutline {
		return echoapi.LessonOutline{
			ID:          lsn.ID,
			Title:       lsn.Title,
			Description: lsn.Description,
			ContentType: lsn.ContentType,
			Order:       lsn.Order,
			Duration:    lsn.Duration,
		}
	}
	empty := marchallList(t, []interface{}{}...)

	tests := []httpTest{
		{name: "categories are public", path: "/v1/categories", wantData: marchallList(t, cat)},
		// the catalog only shows published courses
		{name: "catalog", path: "/v1/courses", wantData: marchallList(t, python, golang)},
		{name: "catalog: search (unknown)", path: path("lol", ""), wantData: empty},
		{name: "catalog: search", path: path("python", ""), wantData: marchallList(t, python)},
		{name: "catalog: category filter", path: path("", cat.Slug), wantData: marchallList(t, python, golang)},
		{name: "catalog: category filter (unknown)", path: path("", "lol"), wantData: empty},
		{name: "retrieve", path: "/v1/courses/" + golang.ID, wantData: marchallObj(t, golang)},
		{
			name: "unpublished course is hidden", path: "/v1/courses/" + draft.ID,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "unknown course", path: "/v1/courses/lol",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		// outlines leave lesson content out
		{name: "lesson outlines", path: "/v1/courses/" + golang.ID + "/lessons", wantData: marchallList(t, outline(lsn1), outline(lsn2))},
		{
			name: "unpublished course lessons are hidden", path: "/v1/courses/" + draft.ID + "/lessons",
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_create(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, fix.usrRepo, "Hero", "hero", "hero@test.cd", "", []string{user.RoleStudent}, true)
	cat := testutil.CreateCategory(t, fix.courseRepo, "Programming")
	testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true, cat.ID)

	teacherToken := getToken(t, teacher)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Teacher required", token: getToken(t, student), wantCode: http.StatusForbidden,
			body:     marchallObj(t, course.NewCourse{Title: "Student Course", Description: "lol"}),
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: teacherToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required", "description": "this field is required"}),
		},
		{
			name: "unknown category", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, course.NewCourse{Title: "Rust Basics", Description: "rust", CategorySlug: "lol"}),
			wantData: marchallObj(t, map[string]string{"category": "category not found"}),
		},
		{
			name: "slug taken", token: teacherToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, course.NewCourse{Title: "Go Basics", Description: "again"}),
			wantData: marchallObj(t, map[string]string{"slug": "a course with this slug already exists"}),
		},
		{
			name: "created", token: teacherToken, wantCode: http.StatusCreated,
			body: marchallObj(t, course.NewCourse{Title: "Rust Basics", Description: "rust", CategorySlug: cat.Slug, Price: 29.99, Duration: 12}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/courses"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			fix.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var crs course.Course
				if err := json.Unmarshal(rec.Body.Bytes(), &crs); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if crs.Slug != "rust-basics" {
					t.Errorf("Slug = %q; want %q", crs.Slug, "rust-basics")
				}
				if crs.TeacherID != teacher.ID {
					t.Errorf("TeacherID = %q; want %q", crs.TeacherID, teacher.ID)
				}
				if crs.CategoryID != cat.ID {
					t.Errorf("CategoryID = %q; want %q", crs.CategoryID, cat.ID)
				}
				if crs.IsPublished {
					t.Error("new courses must start unpublished")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_courseApi_ownership(t *testing.T) {
	fix := setup(t)

	owner := testutil.CreateUser(t, fix.usrRepo, "Owner", "owner1", "owner@test.cd", "", []string{user.RoleTeacher}, true)
	other := testutil.CreateUser(t, fix.usrRepo, "Other", "other1", "other@test.cd", "", []string{user.RoleTeacher}, true)

	crs := testutil.CreateCourse(t, fix.courseRepo, owner, "Go Basics", false)
	lsn := testutil.CreateLesson(t, fix.courseRepo, crs, "Introduction", 1)

	ownerToken := getToken(t, owner)
	otherToken := getToken(t, other)
	notFound := marchallObj(t, httpErr{Error: "not found"})
	bPtr := func(b bool) *bool { return &b }

	tests := []httpTest{
		// courses of other teachers are hidden, not forbidden
		{
			name: "update: not the owner", method: http.MethodPut, path: "/v1/courses/" + crs.ID, token: otherToken,
			body: marchallObj(t, course.UpdateCourse{Title: "Hijacked"}), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "delete: not the owner", method: http.MethodDelete, path: "/v1/courses/" + crs.ID, token: otherToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "add lesson: not the owner", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/lessons", token: otherToken,
			body: marchallObj(t, course.NewLesson{Title: "Sneaky"}), wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "lesson: not the owner", method: http.MethodGet, path: "/v1/lessons/" + lsn.ID, token: otherToken,
			wantCode: http.StatusNotFound, wantData: notFound,
		},
		{
			name: "lesson: owner", method: http.MethodGet, path: "/v1/lessons/" + lsn.ID, token: ownerToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, lsn),
		},
		{
			name: "mine lists unpublished", method: http.MethodGet, path: "/v1/courses/mine", token: ownerToken,
			wantCode: http.StatusOK, wantData: marchallList(t, crs),
		},
		{
			name: "mine hides other teachers' courses", method: http.MethodGet, path: "/v1/courses/mine", token: otherToken,
			wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("owner publishes", func(t *testing.T) {
		body := marchallObj(t, course.UpdateCourse{IsPublished: bPtr(true)})
		req, rec := newAuthRequest(http.MethodPut, "/v1/courses/"+crs.ID, ownerToken, body)
		fix.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var updated course.Course
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if !updated.IsPublished {
			t.Error("course was not published")
		}

		// now in the public catalog
		req, rec = newRequest(http.MethodGet, "/v1/courses/"+crs.ID)
		fix.app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
		}
	})
}

func Test_courseApi_lessonManagement(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)
	lsn1 := testutil.CreateLesson(t, fix.courseRepo, crs, "Introduction", 1)

	teacherToken := getToken(t, teacher)

	t.Run("order taken", func(t *testing.T) {
		body := marchallObj(t, course.NewLesson{Title: "Clash", Order: lsn1.Order})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lessons", teacherToken, body)
		fix.app.ServeHTTP(rec, req)

		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"order": "a lesson with this order already exists in this course"}),
		}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("order auto-appends", func(t *testing.T) {
		body := marchallObj(t, course.NewLesson{Title: "Variables", ContentType: course.ContentTypeVideo, VideoURL: "https://videos.test.cd/variables"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/lessons", teacherToken, body)
		fix.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		var lsn course.Lesson
		if err := json.Unmarshal(rec.Body.Bytes(), &lsn); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if lsn.Order != lsn1.Order+1 {
			t.Errorf("Order = %d; want %d", lsn.Order, lsn1.Order+1)
		}
	})

	t.Run("update lesson", func(t *testing.T) {
		body := marchallObj(t, course.UpdateLesson{Title: "Intro & Setup", Content: "updated content"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/lessons/"+lsn1.ID, teacherToken, body)
		fix.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; wantCode %v: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var lsn course.Lesson
		if err := json.Unmarshal(rec.Body.Bytes(), &lsn); err != nil {
			t.Fatalf("json.Unmarshal() failed! err %v", err)
		}
		if lsn.Title != "Intro & Setup" {
			t.Errorf("Title = %q; want %q", lsn.Title, "Intro & Setup")
		}
		if lsn.Content != "updated content" {
			t.Errorf("Content = %q; want %q", lsn.Content, "updated content")
		}
	})

	t.Run("delete lesson", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/lessons/"+lsn1.ID, teacherToken)
		fix.app.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
		}
		if _, err := fix.courseRepo.GetLessonByID(req.Context(), lsn1.ID); err != course.ErrLessonNotFound {
			t.Errorf("GetLessonByID() error = %v; want ErrLessonNotFound", err)
		}
	})
}

func Test_courseApi_categoryManagement(t *testing.T) {
	fix := setup(t)

	admin := testutil.CreateUser(t, fix.usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	testutil.CreateCategory(t, fix.courseRepo, "Programming")

	adminToken := getToken(t, admin)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, teacher), wantCode: http.StatusForbidden,
			body:     marchallObj(t, course.NewCategory{Name: "Design"}),
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
		{
			name: "name taken", token: adminToken, wantCode: http.StatusBadRequest,
			body:     marchallObj(t, course.NewCategory{Name: "Programming"}),
			wantData: marchallObj(t, map[string]string{"name": "a category with this name already exists"}),
		},
		{name: "created", token: adminToken, wantCode: http.StatusCreated, body: marchallObj(t, course.NewCategory{Name: "Design"})},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/categories"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			fix.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var cat course.Category
				if err := json.Unmarshal(rec.Body.Bytes(), &cat); err != nil {
					t.Errorf("json.Unmarshal() failed! err %v", err)
				}
				if cat.Slug != "design" {
					t.Errorf("Slug = %q; want %q", cat.Slug, "design")
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

// The public catalog and the gated management/enrollment routes share the
// /courses prefix; auth on the gated routes must not leak onto the public ones.
func Test_courseApi_prefixAuthIsolation(t *testing.T) {
	fix := setup(t)

	teacher := testutil.CreateUser(t, fix.usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	crs := testutil.CreateCourse(t, fix.courseRepo, teacher, "Go Basics", true)

	tests := []httpTest{
		{name: "anon catalog", method: http.MethodGet, path: "/v1/courses", wantCode: http.StatusOK, wantData: marchallList(t, crs)},
		{name: "anon retrieve", method: http.MethodGet, path: "/v1/courses/" + crs.ID, wantCode: http.StatusOK, wantData: marchallObj(t, crs)},
		{name: "anon lessons", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/lessons", wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...)},
		{name: "create needs auth", method: http.MethodPost, path: "/v1/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "mine needs auth", method: http.MethodGet, path: "/v1/courses/mine", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "enroll needs auth", method: http.MethodPost, path: "/v1/courses/" + crs.ID + "/enroll", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "enrollment status needs auth", method: http.MethodGet, path: "/v1/courses/" + crs.ID + "/enrollment-status", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			fix.app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
