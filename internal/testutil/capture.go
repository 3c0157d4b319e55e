package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CaptureStdout runs fn with os.Stdout redirected to a pipe and returns what was written.
// Lua's print writes to os.Stdout, so this is how script output is asserted.
// Tests using it must not run in parallel.
func CaptureStdout(t *testing.T, fn func()) string {
	t.Helper()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, r)
		close(done)
	}()

	// Also runs when fn panics or calls runtime.Goexit.
	defer func() {
		os.Stdout = orig
		_ = w.Close()
		<-done
		_ = r.Close()
	}()

	fn()

	_ = w.Close()
	<-done
	return buf.String()
}

// WriteScript writes src to dir/name, creating parent directories, and returns the full path.
func WriteScript(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}
