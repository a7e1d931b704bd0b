package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestNew_RoutesLevelsToFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := New(Options{Dir: dir, Level: "info"})
	require.NoError(t, err)

	l.Debug().Msg("hidden-debug")
	l.Info().Str("email", "a@x.com").Msg("joined")
	l.Error().Msg("store down")
	require.NoError(t, l.Close())

	combined := readFile(t, filepath.Join(dir, CombinedFile))
	errs := readFile(t, filepath.Join(dir, ErrorFile))

	assert.Contains(t, combined, `"message":"joined"`)
	assert.Contains(t, combined, `"email":"a@x.com"`)
	assert.Contains(t, combined, `"message":"store down"`)
	assert.NotContains(t, combined, "hidden-debug")

	assert.Contains(t, errs, `"message":"store down"`)
	assert.NotContains(t, errs, "joined")
}

func TestNew_ConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{Dir: t.TempDir(), Console: true, Stderr: &console})
	require.NoError(t, err)
	defer l.Close()

	l.Info().Msg("hello console")
	assert.Contains(t, console.String(), "hello console")
}

func TestNew_NoConsoleMirror(t *testing.T) {
	var console bytes.Buffer
	l, err := New(Options{Dir: t.TempDir(), Console: false, Stderr: &console})
	require.NoError(t, err)
	defer l.Close()

	l.Info().Msg("quiet")
	assert.Empty(t, console.String())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Dir: t.TempDir(), Level: "loud"})
	require.Error(t, err)
}
