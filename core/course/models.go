package course

import (
	"time"

	"github.com/trezcool/academia/core"
)

// Difficulties
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Lesson content types
const (
	ContentTypeVideo = "video"
	ContentTypeText  = "text"
	ContentTypeFile  = "file"
)

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"` // UTC
}

type Course struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacher_id"`
	CategoryID  string    `json:"category_id,omitempty"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Difficulty  string    `json:"difficulty"`
	Price       float64   `json:"price"` // 0 for free courses
	Duration    int       `json:"duration"` // hours
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (c Course) IsFree() bool { return c.Price == 0 }

type Lesson struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ContentType string    `json:"content_type"`
	Content     string    `json:"content"`
	VideoURL    string    `json:"video_url,omitempty"`
	Order       int       `json:"order"` // unique within course
	Duration    int       `json:"duration"` // minutes
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewCategory contains information needed to create a new Category.
type NewCategory struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug" validate:"omitempty,slug,max=100"`
	Description string `json:"description"`
}

func (nc *NewCategory) Validate() error {
	nc.Name = core.CleanString(nc.Name)
	if nc.Slug == "" {
		nc.Slug = core.Slugify(nc.Name)
	}
	return core.Validate.Struct(nc)
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Title        string  `json:"title" validate:"required,max=200"`
	Slug         string  `json:"slug" validate:"omitempty,slug,max=200"`
	Description  string  `json:"description" validate:"required"`
	CategorySlug string  `json:"category" validate:"omitempty,slug"`
	Difficulty   string  `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price        float64 `json:"price" validate:"gte=0"`
	Duration     int     `json:"duration" validate:"gte=0"`
}

func (nc *NewCourse) Validate() error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	if nc.Slug == "" {
		nc.Slug = core.Slugify(nc.Title)
	}
	if nc.Difficulty == "" {
		nc.Difficulty = DifficultyBeginner
	}
	return core.Validate.Struct(nc)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Title        string   `json:"title" validate:"omitempty,max=200"`
	Description  string   `json:"description"`
	CategorySlug string   `json:"category" validate:"omitempty,slug"`
	Difficulty   string   `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Price        *float64 `json:"price" validate:"omitempty,gte=0"`
	Duration     *int     `json:"duration" validate:"omitempty,gte=0"`
	IsPublished  *bool    `json:"is_published"`
}

func (uc *UpdateCourse) Validate() error {
	uc.Title = core.CleanString(uc.Title)
	uc.Description = core.CleanString(uc.Description)
	return core.Validate.Struct(uc)
}

// NewLesson contains information needed to add a new Lesson to a Course.
type NewLesson struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	ContentType string `json:"content_type" validate:"omitempty,oneof=video text file"`
	Content     string `json:"content"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	Order       int    `json:"order" validate:"gte=0"`
	Duration    int    `json:"duration" validate:"gte=0"`
}

func (nl *NewLesson) Validate() error {
	nl.Title = core.CleanString(nl.Title)
	if nl.ContentType == "" {
		nl.ContentType = ContentTypeText
	}
	return core.Validate.Struct(nl)
}

// UpdateLesson defines what information may be provided to modify an existing Lesson.
type UpdateLesson struct {
	Title       string `json:"title" validate:"omitempty,max=200"`
	Description string `json:"description"`
	ContentType string `json:"content_type" validate:"omitempty,oneof=video text file"`
	Content     string `json:"content"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	Order       *int   `json:"order" validate:"omitempty,gte=0"`
	Duration    *int   `json:"duration" validate:"omitempty,gte=0"`
}

func (ul *UpdateLesson) Validate() error {
	ul.Title = core.CleanString(ul.Title)
	return core.Validate.Struct(ul)
}

type QueryFilter struct {
	Search       string `query:"search"`
	CategorySlug string `query:"category"`
	Difficulty   string `query:"difficulty"`
	Free         *bool  `query:"free"`
	TeacherID    string `query:"-"`
	// PublishedOnly hides unpublished courses; forced for non-teachers.
	PublishedOnly bool `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.CategorySlug == "" && qf.Difficulty == "" &&
		qf.Free == nil && qf.TeacherID == "" && !qf.PublishedOnly
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CategorySlug = core.CleanString(qf.CategorySlug, true /* lower */)
	qf.Difficulty = core.CleanString(qf.Difficulty, true /* lower */)
}
