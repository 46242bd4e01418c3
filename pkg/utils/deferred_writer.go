// Package utils holds small helpers shared by the commands.
package utils

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// DefaultDeferredLimit caps how much a DeferredWriter holds while the TUI owns
// the terminal.
const DefaultDeferredLimit = 1 << 20

// DeferredWriter buffers writes in memory until Flush is called. Once Limit
// bytes are held, further writes are counted and dropped. A zero Limit means
// DefaultDeferredLimit. Safe for concurrent use.
type DeferredWriter struct {
	Limit int

	mu      sync.Mutex
	buf     bytes.Buffer
	dropped int
}

// Write stores data in the internal buffer. It always reports the full length
// so loggers never see a short write.
func (d *DeferredWriter) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	limit := d.Limit
	if limit <= 0 {
		limit = DefaultDeferredLimit
	}

	room := limit - d.buf.Len()
	if room >= len(p) {
		return d.buf.Write(p)
	}
	if room > 0 {
		d.buf.Write(p[:room])
	}
	d.dropped += len(p) - max(room, 0)
	return len(p), nil
}

// Flush writes all buffered data to w and clears the buffer. When writes were
// dropped, a trailing line reports how many bytes were lost.
func (d *DeferredWriter) Flush(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.buf.Len() == 0 && d.dropped == 0 {
		return nil
	}

	if _, err := d.buf.WriteTo(w); err != nil {
		return err
	}
	if d.dropped > 0 {
		dropped := d.dropped
		d.dropped = 0
		if _, err := fmt.Fprintf(w, "\n... %d bytes of log output dropped\n", dropped); err != nil {
			return err
		}
	}
	return nil
}
