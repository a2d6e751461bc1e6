package cli

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		def        string
		want       string
		wantPrompt string
		wantErr    error
	}{
		{name: "plain line", input: "alice@example.org\n", want: "alice@example.org", wantPrompt: "Email: "},
		{name: "trims spaces and CRLF", input: "  bob \r\n", want: "bob", wantPrompt: "Email: "},
		{name: "last line without newline", input: "carol", want: "carol", wantPrompt: "Email: "},
		{name: "empty answer takes default", input: "\n", def: "dave@example.org", want: "dave@example.org", wantPrompt: "Email [dave@example.org]: "},
		{name: "answer overrides default", input: "erin\n", def: "dave@example.org", want: "erin", wantPrompt: "Email [dave@example.org]: "},
		{name: "eof on empty input", input: "", wantErr: io.EOF, wantPrompt: "Email: "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := GetSimpleText(rdr(tt.input), "Email", tt.def, &out)
			assert.Equal(t, tt.wantPrompt, out.String())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPassword(t *testing.T) {
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })

	t.Run("ok", func(t *testing.T) {
		readPassword = func(int) ([]byte, error) { return []byte("hunter2"), nil }

		var out bytes.Buffer
		pw, err := GetPassword(&out)
		require.NoError(t, err)
		assert.Equal(t, []byte("hunter2"), pw)
		assert.Equal(t, "Password: \n", out.String())
	})

	t.Run("terminal error", func(t *testing.T) {
		readPassword = func(int) ([]byte, error) { return nil, errors.New("not a terminal") }

		var out bytes.Buffer
		_, err := GetPassword(&out)
		require.Error(t, err)
	})
}
