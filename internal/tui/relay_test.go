package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelay_SendThenWait(t *testing.T) {
	r := NewRelay()
	t.Cleanup(r.Close)

	go r.Send(toastTickMsg(time.Time{}))

	msg := r.Wait()()
	relayed, ok := msg.(relayedMsg)
	require.True(t, ok)
	assert.IsType(t, toastTickMsg{}, relayed.msg)
}

func TestRelay_Close(t *testing.T) {
	r := NewRelay()
	r.Close()
	r.Close()

	assert.Nil(t, r.Wait()())

	done := make(chan struct{})
	go func() {
		for range relayBuffer + 1 {
			r.Send(notificationMsg{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked on a closed relay")
	}
}
