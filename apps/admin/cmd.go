package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/trezcool/mansa/core/curriculum"
	"github.com/trezcool/mansa/core/quiz"
	"github.com/trezcool/mansa/core/subscription"
	"github.com/trezcool/mansa/core/user"
	"github.com/trezcool/mansa/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword      // mockable
	migrateFunc      = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	out     io.Writer
	usrRepo user.Repository
	usrSvc  *user.Service
	curSvc  *curriculum.Service
	quizSvc *quiz.Service
	subSvc  *subscription.Service

	adminEmail string
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME [-role ROLE] - create or update a user, the password is prompted")
	fmt.Fprintln(cli.out, "  resetpassword -email EMAIL - reset a user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (up, down, redo, status, version, ...)")
	fmt.Fprintln(cli.out, "  seed [-email EMAIL] [-name NAME] - create an admin and a sample curriculum")
	fmt.Fprintln(cli.out, "  backfill percentages|subscriptions - repair historical data")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", user.RoleAdmin, "The user's role (STUDENT, TEACHER or ADMIN).")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordEmail := resetPasswordCmd.String("email", "", "The user's email. The password will be prompted next.")

	seedCmd := flag.NewFlagSet("seed", flag.ContinueOnError)
	seedEmail := seedCmd.String("email", cli.adminEmail, "The admin's email. The password will be prompted next.")
	seedName := seedCmd.String("name", "Admin", "The admin's full name.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, seedCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserEmail == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		usr, err := cli.addUser(ctx, user.NewUser{Name: *addUserName, Email: *addUserEmail, Role: *addUserRole, Password: pwd})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %s (%s) saved\n", usr.Email, usr.Role)
		return nil

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordEmail == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(ctx, *resetPasswordEmail, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return migrateFunc(ctx, cli.db, args[2], args[3:]...)

	case "seed":
		if err := seedCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		var pwd string
		if *seedEmail != "" {
			var err error
			if pwd, err = cli.promptPassword(); err != nil {
				return err
			}
		}
		return cli.seed(ctx, *seedEmail, *seedName, pwd)

	case "backfill":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.backfill(ctx, args[2])

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}
