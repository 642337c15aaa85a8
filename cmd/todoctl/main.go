// Command todoctl performs administrative tasks directly against the todo store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"todo-backend/internal/auth"
	"todo-backend/internal/config"
	"todo-backend/internal/domain"
	"todo-backend/internal/repository/sqlstore"
	"todo-backend/internal/service"
)

// readPassword is replaced in tests to avoid touching the terminal.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

const usage = `usage: todoctl <command> [flags]

commands:
  create-user   create a user, prompting for the password`

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := run(context.Background(), os.Args[1:], os.Stdout, logger); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer, logger logrus.FieldLogger) error {
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "create-user":
		return createUser(ctx, args[1:], out, logger)
	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)
		return nil
	default:
		fmt.Fprintln(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

type createUserFlags struct {
	driver    string
	dsn       string
	username  string
	email     string
	firstName string
	lastName  string
	role      string
	cost      int
}

func parseCreateUserFlags(args []string, defaults config.Config) (createUserFlags, error) {
	var f createUserFlags
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.StringVar(&f.driver, "driver", defaults.Database.Driver, "database driver (sqlite, postgres)")
	fs.StringVar(&f.dsn, "dsn", defaults.Database.DSN, "database DSN")
	fs.StringVar(&f.username, "username", "", "username (required)")
	fs.StringVar(&f.email, "email", "", "email (required)")
	fs.StringVar(&f.firstName, "first-name", "", "first name")
	fs.StringVar(&f.lastName, "last-name", "", "last name")
	fs.StringVar(&f.role, "role", domain.RoleAdmin, "role")
	fs.IntVar(&f.cost, "bcrypt-cost", defaults.Auth.BcryptCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return createUserFlags{}, err
	}
	if f.username == "" || f.email == "" {
		return createUserFlags{}, errors.New("-username and -email are required")
	}
	return f, nil
}

func createUser(ctx context.Context, args []string, out io.Writer, logger logrus.FieldLogger) error {
	defaults, err := config.Load()
	if err != nil {
		return err
	}
	f, err := parseCreateUserFlags(args, defaults)
	if err != nil {
		return err
	}

	fmt.Fprint(out, "Enter password: ")
	password, err := readPassword()
	fmt.Fprintln(out)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	dialect, err := sqlstore.ParseDialect(f.driver)
	if err != nil {
		return err
	}
	store, err := sqlstore.Open(dialect, f.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx, logger); err != nil {
		return err
	}

	// Register never touches the token issuer.
	users := service.NewUserService(store, auth.NewPasswordHasher(f.cost), nil)
	user, err := users.Register(ctx, service.CreateUserInput{
		Username:  f.username,
		Email:     f.email,
		FirstName: f.firstName,
		LastName:  f.lastName,
		Password:  strings.TrimRight(string(password), "\r\n"),
		Role:      f.role,
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("user created")
	return nil
}
