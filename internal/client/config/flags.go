package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/bookshelf/internal/flagx"
)

// parseFlags overlays cfg with the flags it knows about; everything else in
// args is left for other parsers.
//
//	-s string      server base URL
//	-e string      account email
//	-store string  token store driver: sqlite, redis or memory
//	-dsn string    token store DSN
//	-t int         HTTP timeout in seconds (0 disables)
//	-log-level     debug, info, warn or error
//
// There is no password flag.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-s", "-e", "-store", "-dsn", "-t", "-log-level"})

	fs := flag.NewFlagSet("bookshelf", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "s", cfg.ServerURL, "server base URL")
	fs.StringVar(&cfg.Email, "e", cfg.Email, "account email")
	fs.StringVar(&cfg.StoreDriver, "store", cfg.StoreDriver, "token store driver (sqlite|redis|memory)")
	fs.StringVar(&cfg.StoreDSN, "dsn", cfg.StoreDSN, "token store DSN")
	timeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "HTTP timeout (in seconds)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.HTTPTimeout = time.Duration(*timeout) * time.Second
	return nil
}
