package enroll

import (
	"github.com/trezcool/academia/core/user"
)

// CanEnroll reports whether usr may enroll in courses. Only students do;
// teachers and admins consume courses through their own surfaces.
func CanEnroll(usr user.User) bool {
	return usr.IsStudent()
}

// CanActOn reports whether usr may view or advance enr.
// An enrollment is private to the student who owns it.
func CanActOn(usr user.User, enr Enrollment) bool {
	return usr.IsStudent() && usr.ID == enr.StudentID
}
