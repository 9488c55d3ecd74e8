package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/trezcool/academia/core"
)

func (cli *commandLine) resetPassword(args []string) error {
	fs := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	uname := fs.String("username", "", "username or email address")
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	if *uname == "" {
		cli.printUsage()
		return errHelp
	}

	pwd, err := cli.promptPassword("New password: ")
	if err != nil {
		return err
	}
	if pwd == "" {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, core.CleanString(*uname, true /* lower */))
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if _, err := cli.usrRepo.UpdateUser(ctx, usr, nil); err != nil {
		return err
	}
	fmt.Printf("password reset for %q\n", usr.Username)
	return nil
}
