package executil

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures invocations instead of running them.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
	errs  map[string]error
}

func (r *recorder) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{cmd}, args...))
	return nil, r.errs[cmd]
}

func TestRealExecutor_Run(t *testing.T) {
	e := &RealExecutor{}
	ctx := context.Background()

	t.Run("successful command", func(t *testing.T) {
		out, err := e.Run(ctx, "echo", "hello")
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(out))
	})

	t.Run("command not found", func(t *testing.T) {
		_, err := e.Run(ctx, "nonexistent-command-12345")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exec nonexistent-command-12345")
	})

	t.Run("stderr becomes the message", func(t *testing.T) {
		_, err := e.Run(ctx, "sh", "-c", "echo 'no browser' >&2; exit 3")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no browser")

		var exitErr *exec.ExitError
		require.ErrorAs(t, err, &exitErr, "original ExitError should be preserved via wrapping")
		assert.Equal(t, 3, exitErr.ExitCode())
	})

	t.Run("stderr is capped", func(t *testing.T) {
		_, err := e.Run(ctx, "sh", "-c", "printf '%s' \""+strings.Repeat("A", maxStderrLen*2)+"\" >&2; exit 1")
		require.Error(t, err)
		assert.NotContains(t, err.Error(), strings.Repeat("A", maxStderrLen+1))
		assert.Contains(t, err.Error(), strings.Repeat("A", maxStderrLen))
	})
}

func TestOpenCommand(t *testing.T) {
	cmd, args := OpenCommand("darwin")
	assert.Equal(t, "open", cmd)
	assert.Empty(t, args)

	cmd, args = OpenCommand("windows")
	assert.Equal(t, "rundll32", cmd)
	assert.Equal(t, []string{"url.dll,FileProtocolHandler"}, args)

	cmd, _ = OpenCommand("linux")
	assert.Equal(t, "xdg-open", cmd)
}

func TestOpenURL(t *testing.T) {
	ctx := context.Background()
	wantCmd, wantArgs := OpenCommand(runtime.GOOS)

	t.Run("opens http urls", func(t *testing.T) {
		rec := &recorder{}
		require.NoError(t, OpenURL(ctx, rec, "https://acme.test/about"))

		require.Len(t, rec.calls, 1)
		assert.Equal(t, append(append([]string{wantCmd}, wantArgs...), "https://acme.test/about"), rec.calls[0])
	})

	t.Run("rejects other schemes", func(t *testing.T) {
		rec := &recorder{}
		for _, raw := range []string{"file:///etc/passwd", "javascript:alert(1)", "not a url", "https://"} {
			require.Error(t, OpenURL(ctx, rec, raw), raw)
		}
		assert.Empty(t, rec.calls)
	})

	t.Run("returns opener failure", func(t *testing.T) {
		boom := errors.New("no display")
		rec := &recorder{errs: map[string]error{wantCmd: boom}}
		assert.ErrorIs(t, OpenURL(ctx, rec, "http://acme.test"), boom)
	})
}
