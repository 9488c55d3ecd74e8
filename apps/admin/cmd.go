package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/trezcool/academia/core/user"
)

var (
	errHelp = errors.New("help")

	readPasswordFunc = term.ReadPassword // mockable
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch cmd := args[1]; cmd {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		return cli.addUser(args[2:])
	case "resetpassword":
		return cli.resetPassword(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  admin migrate COMMAND [ARGS]          Apply database migrations. Run 'admin migrate help' for available commands.")
	fmt.Println("  admin adduser -name NAME -username USERNAME -email EMAIL [-admin]")
	fmt.Println("                                        Create a user account. The password is prompted for.")
	fmt.Println("  admin resetpassword -username USERNAME_OR_EMAIL")
	fmt.Println("                                        Reset a user's password. The new password is prompted for.")
}

func (cli *commandLine) promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
