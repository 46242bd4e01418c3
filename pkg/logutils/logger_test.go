package logutils

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tagHook struct{}

func (tagHook) Run(e *zerolog.Event, _ zerolog.Level, _ string) {
	e.Str("tag", "hooked")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, closer, err := New("loud", "")
	require.Error(t, err)
	closer()
}

func TestNew_FileAppends(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "harvest.log")

	for _, msg := range []string{"first", "second"} {
		l, closer, err := New("info", file)
		require.NoError(t, err)
		l.Info().Msg(msg)
		l.Debug().Msg("filtered")
		closer()
	}

	data, err := os.ReadFile(file)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"first"`)
	assert.Contains(t, lines[1], `"message":"second"`)
}

func TestNew_rotatesLargeFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "harvest.log")
	require.NoError(t, os.WriteFile(file, []byte("old\n"), 0o644))

	require.NoError(t, rotate(file, 1024), "small files stay put")
	assert.NoFileExists(t, file+".1")

	require.NoError(t, rotate(file, 4))
	assert.NoFileExists(t, file)

	old, err := os.ReadFile(file + ".1")
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(old))

	require.NoError(t, rotate(filepath.Join(t.TempDir(), "missing.log"), 4))
}

func TestNewWithWriter_Hooks(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel, tagHook{})
	l.Debug().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hooked", entry["tag"])
	assert.Equal(t, "debug", entry["level"])
	assert.Contains(t, entry, "time")
}
