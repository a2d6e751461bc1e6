package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const dotEnvFile = ".env"

const (
	EnvServer      = "BOOKSHELF_SERVER"
	EnvEmail       = "BOOKSHELF_EMAIL"
	EnvPassword    = "BOOKSHELF_PASSWORD"
	EnvStore       = "BOOKSHELF_STORE"
	EnvStoreDSN    = "BOOKSHELF_STORE_DSN"
	EnvStoreSecret = "BOOKSHELF_STORE_SECRET"
	EnvLogLevel    = "BOOKSHELF_LOG_LEVEL"
	EnvLogFormat   = "BOOKSHELF_LOG_FORMAT"
)

// parseEnv loads envFile into the process environment (variables already set
// win), then overlays cfg with every BOOKSHELF_* variable that is set. A
// missing envFile is not an error.
func parseEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	lookup(&cfg.ServerURL, EnvServer)
	lookup(&cfg.Email, EnvEmail)
	lookup(&cfg.Password, EnvPassword)
	lookup(&cfg.StoreDriver, EnvStore)
	lookup(&cfg.StoreDSN, EnvStoreDSN)
	lookup(&cfg.StoreSecret, EnvStoreSecret)
	lookup(&cfg.LogLevel, EnvLogLevel)
	lookup(&cfg.LogFormat, EnvLogFormat)
	return nil
}

func lookup(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
