package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/client/api"
	"github.com/dmitrijs2005/bookshelf/internal/client/auth"
	"github.com/dmitrijs2005/bookshelf/internal/client/config"
	"github.com/dmitrijs2005/bookshelf/internal/client/session"
	"github.com/dmitrijs2005/bookshelf/internal/client/store"
	"github.com/dmitrijs2005/bookshelf/internal/client/transport"
	"github.com/dmitrijs2005/bookshelf/internal/filex"
	"github.com/dmitrijs2005/bookshelf/internal/logging"
)

// Session is the part of the auth coordinator the commands use.
type Session interface {
	Login(ctx context.Context, email, password string) (session.Credentials, error)
	Logout(ctx context.Context) error
	State() *session.State
}

// Catalogue reads books through the authenticated client.
type Catalogue interface {
	List(ctx context.Context) ([]api.Book, error)
	Get(ctx context.Context, id string) (*api.Book, error)
}

type App struct {
	config  *config.Config
	session Session
	books   Catalogue
	closer  io.Closer
	logger  logging.Logger
	reader  *bufio.Reader
	out     io.Writer
	now     func() time.Time
}

// NewApp opens the token store, restores the saved session for the
// configured server and wires the authenticated HTTP client.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	origin := strings.TrimRight(c.ServerURL, "/")

	dsn, err := storeDSN(c)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, store.Options{
		Driver: c.StoreDriver,
		DSN:    dsn,
		Origin: origin,
		Secret: c.StoreSecret,
	})
	if err != nil {
		return nil, fmt.Errorf("open token store: %w", err)
	}

	state := session.NewState(c.Email, c.Password)
	snap, err := st.Load(ctx)
	if err != nil {
		logger.Warn(ctx, "saved session ignored", "error", err)
	} else {
		state.Restore(snap)
	}

	authAPI := api.NewAuthAPI(origin, &http.Client{Timeout: c.HTTPTimeout})
	coord := auth.NewCoordinator(state, authAPI, st, logger)

	httpClient, err := transport.NewClient(nil, coord, origin, c.HTTPTimeout, logger)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("server url: %w", err)
	}

	return &App{
		config:  c,
		session: coord,
		books:   api.NewBooksAPI(origin, httpClient),
		closer:  st,
		logger:  logger,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		now:     time.Now,
	}, nil
}

// storeDSN places the default SQLite database in the user's config directory.
func storeDSN(c *config.Config) (string, error) {
	if c.StoreDSN != "" || (c.StoreDriver != "" && c.StoreDriver != store.DriverSQLite) {
		return c.StoreDSN, nil
	}
	dir, err := filex.EnsureDir("", filex.AppDirName)
	if err != nil {
		return "", err
	}
	return filex.SQLiteDSN(filepath.Join(dir, "bookshelf.db")), nil
}

// Run starts the REPL and blocks until the user exits or input ends. The
// token store is closed on return and its error reported.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintf(a.out, "Bookshelf CLI, server %s (type 'help' for commands)\n", a.config.ServerURL)
	runREPL(ctx, a, a.prompt, a.reader)

	if err := a.Close(); err != nil {
		return fmt.Errorf("close token store: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

func (a *App) isLoggedIn() bool {
	st := a.session.State()
	return st.AccessToken() != "" || st.RefreshToken() != ""
}

func (a *App) prompt() string {
	if !a.isLoggedIn() {
		return "bookshelf> "
	}
	if sub, ok := session.SubjectFromJWT(a.session.State().AccessToken()); ok {
		return fmt.Sprintf("bookshelf (%s)> ", sub)
	}
	if email, _ := a.session.State().Fallback(); email != "" {
		return fmt.Sprintf("bookshelf (%s)> ", email)
	}
	return "bookshelf (logged in)> "
}
