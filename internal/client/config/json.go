package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/bookshelf/internal/flagx"
	"github.com/dmitrijs2005/bookshelf/internal/timex"
)

// JSONConfig is the on-disk shape of the config file. Durations accept "30s"
// or integer nanoseconds.
type JSONConfig struct {
	ServerURL   string         `json:"server_url"`
	Email       string         `json:"email"`
	Password    string         `json:"password"`
	StoreDriver string         `json:"store_driver"`
	StoreDSN    string         `json:"store_dsn"`
	StoreSecret string         `json:"store_secret"`
	HTTPTimeout timex.Duration `json:"http_timeout"`
	LogFormat   string         `json:"log_format"`
	LogLevel    string         `json:"log_level"`
}

// parseJSON overlays cfg with the non-empty fields of the file named by -c or
// -config. Without either flag it does nothing.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JSONConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.Email, jc.Email)
	setString(&cfg.Password, jc.Password)
	setString(&cfg.StoreDriver, jc.StoreDriver)
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setString(&cfg.StoreSecret, jc.StoreSecret)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
