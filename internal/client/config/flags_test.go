package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-s", "https://books.example", "-e", "a@b.c", "-store", "redis",
				"-dsn", "redis://localhost:6379/0", "-t", "10", "-log-level", "debug"},
			want: func(c *Config) {
				c.ServerURL = "https://books.example"
				c.Email = "a@b.c"
				c.StoreDriver = "redis"
				c.StoreDSN = "redis://localhost:6379/0"
				c.HTTPTimeout = 10 * time.Second
				c.LogLevel = "debug"
			},
		},
		{
			name: "foreign flags ignored",
			args: []string{"-c", "cfg.json", "-x", "-s=http://h"},
			want: func(c *Config) { c.ServerURL = "http://h" },
		},
		{
			name: "zero timeout disables",
			args: []string{"-t", "0"},
			want: func(c *Config) { c.HTTPTimeout = 0 },
		},
		{
			name:    "non numeric timeout",
			args:    []string{"-t", "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			err := parseFlags(&cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := defaults()
			tt.want(&want)
			assert.Empty(t, cmp.Diff(want, cfg))
		})
	}
}

func TestParseFlags_NoPasswordFlag(t *testing.T) {
	cfg := defaults()
	require.NoError(t, parseFlags(&cfg, []string{"-p", "hunter2", "-password", "hunter2"}))
	assert.Empty(t, cfg.Password)
}
