package tui

import (
	"sync"

	tea "charm.land/bubbletea/v2"
)

const relayBuffer = 32

// Relay carries messages produced off the update loop (debounce timers,
// notification subscribers) back into it. The model keeps exactly one Wait
// command outstanding.
type Relay struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

// NewRelay creates an open relay.
func NewRelay() *Relay {
	return &Relay{
		ch:   make(chan tea.Msg, relayBuffer),
		done: make(chan struct{}),
	}
}

// Send queues msg for the update loop. It blocks while the buffer is full and
// drops msg once the relay is closed.
func (r *Relay) Send(msg tea.Msg) {
	select {
	case <-r.done:
	case r.ch <- msg:
	}
}

// Wait returns a command that yields the next relayed message.
func (r *Relay) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-r.ch:
			return relayedMsg{msg: msg}
		case <-r.done:
			return nil
		}
	}
}

// Close stops the relay. Idempotent.
func (r *Relay) Close() {
	r.once.Do(func() { close(r.done) })
}

// relayedMsg wraps a relayed message so Update can re-arm Wait.
type relayedMsg struct {
	msg tea.Msg
}
