package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

func (cli *commandLine) addUser(args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	uname := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	isAdmin := fs.Bool("admin", false, "grant all admin roles")
	isTeacher := fs.Bool("teacher", false, "grant the teacher role")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *uname == "" || *email == "" {
		cli.printUsage()
		return errHelp
	}

	pwd, err := cli.promptPassword("Password: ")
	if err != nil {
		return err
	}
	if pwd == "" {
		cli.printUsage()
		return errHelp
	}

	roles := user.StudentRoles
	switch {
	case *isAdmin:
		roles = user.AllRoles
	case *isTeacher:
		roles = user.TeacherRoles
	}

	usr := user.User{
		Name:     *name,
		Username: core.CleanString(*uname, true /* lower */),
		Email:    core.CleanString(*email, true /* lower */),
		Roles:    roles,
		IsActive: true,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	usr, err = cli.usrRepo.UpdateOrCreateUser(context.Background(), usr)
	if err != nil {
		return err
	}
	fmt.Printf("user %q saved\n", usr.Username)
	return nil
}
