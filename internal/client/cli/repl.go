package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/bookshelf/internal/client/api"
	"github.com/dmitrijs2005/bookshelf/internal/client/auth"
)

// printFn and printlnFn are test seams for user-facing output.
var (
	printFn   = fmt.Print
	printlnFn = fmt.Println
)

// execIface is the command surface the REPL drives.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Status(ctx context.Context) error
	Books(ctx context.Context) error
	Book(ctx context.Context, id string) error
	Logout(ctx context.Context) error
}

// runREPL reads one command per line from reader and dispatches it to a.
// Command errors are reported and the loop continues. It returns on EOF,
// "exit" or "quit".
//
//	help           show available commands
//	login          authenticate with email and password
//	status         show the local session state
//	books          list the catalogue
//	book <id>      show one book
//	logout         forget the session
//	exit | quit    leave
func runREPL(ctx context.Context, a execIface, promptFn func() string, reader *bufio.Reader) {
	for {
		printFn(promptFn())

		line, err := reader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			printlnFn()
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: status, books, book <id>, logout, exit")
			} else {
				printlnFn("Available commands: login, status, books, book <id>, exit")
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "status":
			cmdErr = a.Status(ctx)

		case "books", "ls":
			cmdErr = a.Books(ctx)

		case "book", "show":
			id := ""
			if len(args) > 0 {
				id = args[0]
			}
			cmdErr = a.Book(ctx, id)

		case "logout":
			cmdErr = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn(describeError(cmdErr))
		}
	}
}

// describeError turns a command error into a message for the terminal.
func describeError(err error) string {
	var statusErr *api.StatusError

	switch {
	case errors.Is(err, errUsage):
		return err.Error()
	case errors.Is(err, auth.ErrMissingCredentials):
		return "Not logged in: run 'login' or set BOOKSHELF_EMAIL and BOOKSHELF_PASSWORD."
	case auth.IsRejected(err):
		return "Login rejected: " + err.Error()
	case errors.Is(err, api.ErrTransport):
		return "Server unreachable: " + err.Error()
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return "Not found."
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized:
		return "Server still rejects the session after re-authentication."
	default:
		return "Error: " + err.Error()
	}
}
