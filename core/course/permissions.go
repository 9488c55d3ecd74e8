package course

import "github.com/trezcool/academia/core/user"

// CanManage reports whether usr may modify crs and its lessons.
// Only the teacher who owns the course may; admins manage courses through the admin app.
func CanManage(usr user.User, crs Course) bool {
	return usr.IsTeacher() && usr.ID == crs.TeacherID
}
