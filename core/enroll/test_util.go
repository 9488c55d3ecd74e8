package enroll

import (
	"context"
	"time"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose mailers run synchronously.
func NewServiceMock(repo Repository, courseSvc course.Service, mailSvc core.EmailService) Service {
	return &serviceMock{
		service: service{
			repo:      repo,
			courseSvc: courseSvc,
			mailSvc:   mailSvc,
		},
	}
}

func (svc *serviceMock) Enroll(ctx context.Context, usr user.User, crs course.Course) (Enrollment, error) {
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
	// run synchronously
	svc.sendEnrollmentMail(usr, crs)
	return enr, nil
}
