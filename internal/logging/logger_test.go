package logging

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for name, want := range cases {
		got, err := ParseLevel(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseLevelRejectsUnknownNames(t *testing.T) {
	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestOpenLogFileAppends(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.log"

	f, cleanup, err := OpenLogFile(path)
	require.NoError(t, err)
	_, err = f.WriteString("first\n")
	require.NoError(t, err)
	cleanup()

	f2, cleanup2, err := OpenLogFile(path)
	require.NoError(t, err)
	defer cleanup2()
	_, err = f2.WriteString("second\n")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}
