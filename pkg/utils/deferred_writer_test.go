package utils

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferredWriter_holdsLogsUntilFlush(t *testing.T) {
	d := &DeferredWriter{}
	logger := zerolog.New(d)

	logger.Info().Str("run_id", "run-1").Msg("page loaded")
	logger.Warn().Str("record_id", "r2").Msg("chat history unavailable")

	var out bytes.Buffer
	require.NoError(t, d.Flush(&out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"message":"page loaded"`)
	assert.Contains(t, lines[1], `"record_id":"r2"`)

	out.Reset()
	require.NoError(t, d.Flush(&out))
	assert.Empty(t, out.String(), "a flush empties the buffer")
}

func TestDeferredWriter_concurrentWrites(t *testing.T) {
	d := &DeferredWriter{}

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = d.Write([]byte("x"))
		}()
	}
	wg.Wait()

	var out bytes.Buffer
	require.NoError(t, d.Flush(&out))
	assert.Len(t, out.String(), 100)
}

func TestDeferredWriter_emptyFlush(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&DeferredWriter{}).Flush(&out))
	assert.Empty(t, out.String())
}

func TestDeferredWriter_Limit(t *testing.T) {
	d := &DeferredWriter{Limit: 8}

	n, err := d.Write([]byte("12345"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = d.Write([]byte("67890"))
	require.NoError(t, err)
	assert.Equal(t, 5, n, "writes never report short counts")

	_, _ = d.Write([]byte("abc"))

	var out bytes.Buffer
	require.NoError(t, d.Flush(&out))
	assert.Equal(t, "12345678\n... 5 bytes of log output dropped\n", out.String())

	out.Reset()
	require.NoError(t, d.Flush(&out))
	assert.Empty(t, out.String(), "drop counter resets after flush")
}
