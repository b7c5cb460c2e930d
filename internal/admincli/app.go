// Package admincli is the operator tool for user accounts. It talks to the
// database through the same UserService the gRPC server uses.
package admincli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmitrijs2005/portalusers/internal/common"
	"github.com/dmitrijs2005/portalusers/internal/server/models"
	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

var ErrUsage = errors.New("usage")

const usage = `Usage:
  useradmin [flags] set <username> <email> [display name]
  useradmin [flags] get <username>
  useradmin [flags] search [keyword]

Flags are the server flags (-c, -d, -b, ...).`

// UserService is the part of the service the tool needs.
type UserService interface {
	CreateOrUpdate(ctx context.Context, candidate *models.UserCandidate) error
	FindByUserID(ctx context.Context, userID string) (*models.UserSummary, error)
	SearchUsers(ctx context.Context, keyword string, offset, limit int) ([]models.UserSummary, error)
}

type App struct {
	users UserService
	out   io.Writer
	in    *bufio.Reader
	stdin int
}

func NewApp(us UserService, out io.Writer) *App {
	return &App{users: us, out: out, in: bufio.NewReader(os.Stdin), stdin: int(os.Stdin.Fd())}
}

// Run executes one command given as positional arguments.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage()
	}

	cmd, args := args[0], args[1:]

	switch cmd {
	case "set":
		if len(args) < 2 {
			return a.usage()
		}
		return a.set(ctx, args[0], args[1], strings.Join(args[2:], " "))
	case "get":
		if len(args) != 1 {
			return a.usage()
		}
		return a.get(ctx, args[0])
	case "search":
		return a.search(ctx, strings.Join(args, " "))
	case "help":
		fmt.Fprintln(a.out, usage)
		return nil
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
		return a.usage()
	}
}

func (a *App) usage() error {
	fmt.Fprintln(a.out, usage)
	return ErrUsage
}

// getPassword asks twice on a terminal and insists both entries match.
// Piped input supplies the password as a single line.
func (a *App) getPassword() (string, error) {
	if !isTerminal(a.stdin) {
		line, err := a.in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
			return "", fmt.Errorf("error reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(a.out, "Enter password: ")
	pw, err := readPassword(a.stdin)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}

	fmt.Fprint(a.out, "Repeat password: ")
	again, err := readPassword(a.stdin)
	fmt.Fprintln(a.out)
	if err != nil {
		return "", err
	}

	if string(pw) != string(again) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

func (a *App) set(ctx context.Context, userName, email, displayName string) error {
	if displayName == "" {
		displayName = userName
	}

	password, err := a.getPassword()
	if err != nil {
		return err
	}

	err = a.users.CreateOrUpdate(ctx, &models.UserCandidate{
		UserName:    userName,
		Password:    password,
		Email:       email,
		DisplayName: displayName,
	})
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return fmt.Errorf("invalid input: %w", err)
		}
		return err
	}

	fmt.Fprintf(a.out, "saved %s\n", userName)
	return nil
}

func (a *App) get(ctx context.Context, userName string) error {
	u, err := a.users.FindByUserID(ctx, userName)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %s: %w", userName, common.ErrorNotFound)
	}
	printUser(a.out, *u)
	return nil
}

func (a *App) search(ctx context.Context, keyword string) error {
	users, err := a.users.SearchUsers(ctx, keyword, 0, common.DefaultSearchLimit)
	if err != nil {
		return err
	}
	for _, u := range users {
		printUser(a.out, u)
	}
	fmt.Fprintf(a.out, "%d user(s)\n", len(users))
	return nil
}

func printUser(w io.Writer, u models.UserSummary) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", u.UserID, u.Name, u.Email)
}
