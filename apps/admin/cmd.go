package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/prepdesk/prepdesk/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate                                - apply all pending migrations")
	fmt.Println("  rollback                               - undo the last applied migration")
	fmt.Println("  createadmin -name NAME -email EMAIL    - create an admin account; the password is prompted")
	fmt.Println("  resetpassword -email EMAIL             - reset a user's password; the password is prompted")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createAdminCmd := flag.NewFlagSet("createadmin", flag.ExitOnError)
	createAdminName := createAdminCmd.String("name", "", "The admin's full name.")
	createAdminEmail := createAdminCmd.String("email", "", "The admin's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		return cli.migrate()
	case "rollback":
		return cli.rollback()
	case "createadmin":
		if err := createAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createAdminName == "" || *createAdminEmail == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createAdminCmd.Usage()
			return errHelp
		}
		return cli.createAdmin(*createAdminName, *createAdminEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordEmail, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
