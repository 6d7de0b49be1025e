package main

import (
	"database/sql"
	"fmt"
	"strings"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/students-gateway/gateway/core/group"
	"github.com/students-gateway/gateway/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc   *user.Service
	grpSvc   *group.Service
	validate *validator.Validate
	sqlDB    *sql.DB // postgres only
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -u USERNAME -n NAME -r " + strings.Join(user.AllRoles, "|") + " [-e EMAIL] - create a user")
	fmt.Println("  resetpassword -u USERNAME - reset user's password")
	fmt.Println("  seed -f FILE.yaml - create the users & groups of a fixture file")
	fmt.Println("  migrate COMMAND [ARGS] - run a database migration command (postgres only)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := newFlagSet("adduser", "adduser -u USERNAME -n NAME -r "+strings.Join(user.AllRoles, "|")+" [-e EMAIL]")
	addUserUname := addUserCmd.StringP("username", "u", "", "The user's username. The password will be prompted next.")
	addUserName := addUserCmd.StringP("name", "n", "", "The user's display name.")
	addUserRole := addUserCmd.StringP("role", "r", user.RoleStudent, "The user's role: "+strings.Join(user.AllRoles, ", "))
	addUserEmail := addUserCmd.StringP("email", "e", "", "The user's email (optional).")

	resetPasswordCmd := newFlagSet("resetpassword", "resetpassword -u USERNAME")
	resetPasswordUname := resetPasswordCmd.StringP("username", "u", "", "The user's username. The password will be prompted next.")

	seedCmd := newFlagSet("seed", "seed -f FILE.yaml")
	seedFile := seedCmd.StringP("file", "f", "", "The YAML fixture file.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(user.NewUser{
			Username: *addUserUname,
			Name:     *addUserName,
			Email:    *addUserEmail,
			Password: pwd,
			Role:     *addUserRole,
		})
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
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
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *seedFile == "" {
			seedCmd.Usage()
			return errHelp
		}
		return cli.seed(*seedFile)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

// newFlagSet returns a subcommand flag set whose Usage prints synopsis and flag defaults.
func newFlagSet(name, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Println("Usage: " + synopsis)
		fs.PrintDefaults()
	}
	return fs
}

func promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
