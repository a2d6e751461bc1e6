package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/client/auth"
	"github.com/dmitrijs2005/bookshelf/internal/client/session"
	"github.com/dmitrijs2005/bookshelf/internal/common"
)

// getSimpleText and getPassword are swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

var errUsage = errors.New("usage")

// Login prompts for email and password and performs a full login. On success
// the pair becomes the fallback used when the session later needs renewing.
func (a *App) Login(ctx context.Context) error {
	defEmail, _ := a.session.State().Fallback()

	email, err := getSimpleText(a.reader, "Email", defEmail, a.out)
	if err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("%w: login needs an email", errUsage)
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	_, err = a.session.Login(ctx, email, string(password))
	if err != nil && !errors.Is(err, auth.ErrPersist) {
		return err
	}
	a.session.State().SetFallback(email, string(password))

	fmt.Fprintf(a.out, "Logged in as %s\n", email)
	if err != nil {
		fmt.Fprintf(a.out, "warning: session not saved: %v\n", err)
	}
	return nil
}

// Status prints what the client knows about the current session without
// contacting the server.
func (a *App) Status(_ context.Context) error {
	st := a.session.State()

	fmt.Fprintf(a.out, "server:        %s\n", a.config.ServerURL)
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "session:       not logged in")
		return nil
	}

	if sub, ok := session.SubjectFromJWT(st.AccessToken()); ok {
		fmt.Fprintf(a.out, "account:       %s\n", sub)
	} else if email, _ := st.Fallback(); email != "" {
		fmt.Fprintf(a.out, "account:       %s\n", email)
	}

	switch exp, known := st.ExpiresAt(); {
	case st.AccessToken() == "":
		fmt.Fprintln(a.out, "access token:  none")
	case !known:
		fmt.Fprintln(a.out, "access token:  expiry unknown")
	case st.Usable():
		fmt.Fprintf(a.out, "access token:  valid, expires %s (in %s)\n",
			exp.Local().Format(time.RFC3339), exp.Sub(a.now()).Round(time.Second))
	default:
		fmt.Fprintf(a.out, "access token:  expired at %s\n", exp.Local().Format(time.RFC3339))
	}

	if st.RefreshToken() != "" {
		fmt.Fprintln(a.out, "refresh token: present")
	} else {
		fmt.Fprintln(a.out, "refresh token: none")
	}
	return nil
}

// Books lists the catalogue.
func (a *App) Books(ctx context.Context) error {
	books, err := a.books.List(ctx)
	if err != nil {
		return err
	}
	if len(books) == 0 {
		fmt.Fprintln(a.out, "No books.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHORS\tPUBLISHED")
	for _, b := range books {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.ID, b.Title, strings.Join(b.Authors, ", "), b.Published)
	}
	return tw.Flush()
}

// Book prints a single catalogue entry.
func (a *App) Book(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: book <id>", errUsage)
	}

	b, err := a.books.Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ID:        %s\n", b.ID)
	fmt.Fprintf(a.out, "Title:     %s\n", b.Title)
	if len(b.Authors) > 0 {
		fmt.Fprintf(a.out, "Authors:   %s\n", strings.Join(b.Authors, ", "))
	}
	if b.Published != "" {
		fmt.Fprintf(a.out, "Published: %s\n", b.Published)
	}
	if b.ISBN != "" {
		fmt.Fprintf(a.out, "ISBN:      %s\n", b.ISBN)
	}
	if b.Description != "" {
		fmt.Fprintf(a.out, "\n%s\n", b.Description)
	}
	return nil
}

// Logout forgets the tokens here and in the store. A configured email and
// password stay, so the next protected command logs in again.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}
