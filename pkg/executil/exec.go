// Package executil runs external commands, such as the platform's URL opener.
package executil

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

const maxStderrLen = 500

// limitedWriter caps writes to a bytes.Buffer at a maximum byte count.
// Bytes beyond the limit are silently discarded.
type limitedWriter struct {
	buf *bytes.Buffer
	n   int64
	max int64
}

func (w *limitedWriter) Write(p []byte) (int, error) {
	if w.n >= w.max {
		return len(p), nil
	}
	remaining := w.max - w.n
	origLen := len(p)
	if int64(origLen) > remaining {
		p = p[:remaining]
	}
	n, err := w.buf.Write(p)
	w.n += int64(n)
	if err != nil {
		return n, err
	}
	return origLen, nil
}

// Executor runs commands.
type Executor interface {
	// Run executes a command and returns its stdout.
	Run(ctx context.Context, cmd string, args ...string) ([]byte, error)
}

// RealExecutor calls actual commands.
type RealExecutor struct{}

// Run executes a command and returns its stdout. On failure, stderr is used as
// the error message, capped at 500 bytes so noisy output cannot flood logs or
// the TUI. The original *exec.ExitError stays reachable with errors.As.
func (e *RealExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, cmd, args...)
	var stderr bytes.Buffer
	c.Stderr = &limitedWriter{buf: &stderr, max: maxStderrLen}

	out, err := c.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("exec %s: %s: %w", cmd, msg, err)
		}
		return out, fmt.Errorf("exec %s: %w", cmd, err)
	}
	return out, nil
}

// OpenCommand returns the command that opens a URL in the default browser on
// goos.
func OpenCommand(goos string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", nil
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler"}
	default:
		return "xdg-open", nil
	}
}

// OpenURL opens rawURL with the platform opener. Only http(s) URLs are
// accepted.
func OpenURL(ctx context.Context, e Executor, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("refusing to open %q: not an http(s) url", rawURL)
	}

	cmd, args := OpenCommand(runtime.GOOS)
	_, err = e.Run(ctx, cmd, append(args, u.String())...)
	return err
}
