package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/dataset"
)

// stubReplier answers immediately unless gate is set, in which case it blocks
// until the gate is closed.
type stubReplier struct {
	mu       sync.Mutex
	calls    int
	lastData map[string]any
	gate     chan struct{}
	started  chan struct{}
	err      error
	reply    string
}

func (s *stubReplier) Reply(ctx context.Context, message string, leadData map[string]any) (string, error) {
	s.mu.Lock()
	s.calls++
	s.lastData = leadData
	gate, started := s.gate, s.started
	s.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.err != nil {
		return "", s.err
	}
	if s.reply != "" {
		return s.reply, nil
	}
	return "re: " + message, nil
}

func (s *stubReplier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubTemplates struct {
	err error
}

func (s stubTemplates) GenerateTemplate(_ context.Context, channel string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "Hi there, via " + channel, nil
}

type stubHistory struct {
	msgs []Message
	err  error
}

func (s stubHistory) History(_ context.Context, _ string) ([]Message, error) {
	return s.msgs, s.err
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestController(r Replier, opts Options) *Controller {
	nop := zerolog.Nop()
	opts.Logger = &nop
	opts.Now = func() time.Time { return fixedNow }
	n := 0
	opts.NewID = func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
	return New(r, stubTemplates{}, opts)
}

var lead = dataset.Record{ID: "lead-1", Data: map[string]any{"name": "Acme"}, Keys: []string{"name"}}

func TestController_Send(t *testing.T) {
	r := &stubReplier{}
	c := newTestController(r, Options{})
	require.NoError(t, c.Open(context.Background(), lead))

	require.NoError(t, c.Send(context.Background(), "  who runs sales?  "))

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{ID: "m1", Role: RoleUser, Content: "who runs sales?", CreatedAt: fixedNow, Status: StatusConfirmed}, msgs[0])
	assert.Equal(t, RoleAssistant, msgs[1].Role)
	assert.Equal(t, "re: who runs sales?", msgs[1].Content)
	assert.Equal(t, map[string]any{"name": "Acme"}, r.lastData)
	assert.False(t, c.Busy())
}

func TestController_Send_rejectsBlank(t *testing.T) {
	r := &stubReplier{}
	c := newTestController(r, Options{})
	require.NoError(t, c.Open(context.Background(), lead))

	for _, text := range []string{"", "   ", "\n\t"} {
		err := c.Send(context.Background(), text)
		require.ErrorIs(t, err, dataset.ErrValidation)
	}

	assert.Empty(t, c.Messages())
	assert.Zero(t, r.Calls())
}

func TestController_Send_requiresOpenPanel(t *testing.T) {
	c := newTestController(&stubReplier{}, Options{})
	require.ErrorIs(t, c.Send(context.Background(), "hi"), ErrClosed)
}

func TestController_Send_failureKeepsUserMessage(t *testing.T) {
	boom := &dataset.ServerError{Status: 503}
	c := newTestController(&stubReplier{err: boom}, Options{})
	require.NoError(t, c.Open(context.Background(), lead))

	err := c.Send(context.Background(), "hello")
	require.ErrorIs(t, err, dataset.ErrServer)

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleUser, msgs[0].Role)
	assert.Equal(t, StatusFailed, msgs[0].Status)
	assert.False(t, c.Busy(), "a failed send must re-enable sending")
}

func TestController_Send_rejectsWhilePending(t *testing.T) {
	r := &stubReplier{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	c := newTestController(r, Options{})
	require.NoError(t, c.Open(context.Background(), lead))

	done := make(chan error, 1)
	go func() { done <- c.Send(context.Background(), "first") }()
	<-r.started

	// Optimistic message is visible before the reply arrives.
	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, StatusPending, msgs[0].Status)
	assert.True(t, c.Busy())

	require.ErrorIs(t, c.Send(context.Background(), "second"), ErrBusy)
	require.ErrorIs(t, c.GenerateTemplate(context.Background(), "email"), ErrBusy)
	assert.Equal(t, 1, r.Calls())

	close(r.gate)
	require.NoError(t, <-done)

	require.NoError(t, c.Send(context.Background(), "second"))
	assert.Equal(t, 2, r.Calls())
	assert.Len(t, c.Messages(), 4)
}

func TestController_switchRecordDropsInFlightReply(t *testing.T) {
	r := &stubReplier{gate: make(chan struct{}), started: make(chan struct{}, 1)}
	c := newTestController(r, Options{})
	require.NoError(t, c.Open(context.Background(), lead))

	turn, err := c.Prepare("about acme")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Deliver(context.Background(), turn) }()
	<-r.started

	other := dataset.Record{ID: "lead-2"}
	require.NoError(t, c.Open(context.Background(), other))

	err = <-done
	require.ErrorIs(t, err, dataset.ErrStaleResult)

	assert.Empty(t, c.Messages(), "history is replaced, not merged")
	rec, ok := c.Record()
	require.True(t, ok)
	assert.Equal(t, "lead-2", rec.ID)
	assert.False(t, c.Busy())
}

func TestController_Close(t *testing.T) {
	c := newTestController(&stubReplier{}, Options{})
	require.NoError(t, c.Open(context.Background(), lead))
	require.NoError(t, c.Send(context.Background(), "hi"))

	c.Close()

	assert.False(t, c.IsOpen())
	assert.Empty(t, c.Messages())
	_, ok := c.Record()
	assert.False(t, ok)
}

func TestController_Deliver_afterClose(t *testing.T) {
	r := &stubReplier{}
	c := newTestController(r, Options{})
	require.NoError(t, c.Open(context.Background(), lead))

	turn, err := c.Prepare("hi")
	require.NoError(t, err)
	c.Close()

	require.ErrorIs(t, c.Deliver(context.Background(), turn), dataset.ErrStaleResult)
	assert.Zero(t, r.Calls())
}

func TestController_GenerateTemplate(t *testing.T) {
	c := newTestController(&stubReplier{}, Options{})
	require.NoError(t, c.Open(context.Background(), lead))

	require.NoError(t, c.GenerateTemplate(context.Background(), "linkedin"))

	msgs := c.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, RoleAssistant, msgs[0].Role)
	assert.Equal(t, "Hi there, via linkedin", msgs[0].Content)

	err := c.GenerateTemplate(context.Background(), "fax")
	require.ErrorIs(t, err, dataset.ErrValidation)
}

func TestController_GenerateTemplate_failure(t *testing.T) {
	nop := zerolog.Nop()
	c := New(&stubReplier{}, stubTemplates{err: errors.New("down")}, Options{Logger: &nop})
	require.NoError(t, c.Open(context.Background(), lead))

	require.Error(t, c.GenerateTemplate(context.Background(), "email"))
	assert.Empty(t, c.Messages())
	assert.False(t, c.Busy())
}

func TestController_Open_history(t *testing.T) {
	prior := []Message{{ID: "h1", Role: RoleUser, Content: "earlier", Status: StatusConfirmed}}

	t.Run("loads history", func(t *testing.T) {
		c := newTestController(&stubReplier{}, Options{History: stubHistory{msgs: prior}})
		require.NoError(t, c.Open(context.Background(), lead))
		assert.Equal(t, prior, c.Messages())
	})

	t.Run("failure leaves history empty but panel usable", func(t *testing.T) {
		c := newTestController(&stubReplier{}, Options{History: stubHistory{err: errors.New("nope")}})
		require.Error(t, c.Open(context.Background(), lead))

		assert.True(t, c.IsOpen())
		assert.Empty(t, c.Messages())
		require.NoError(t, c.Send(context.Background(), "still works"))
	})
}

// gatedHistory blocks History until release is closed.
type gatedHistory struct {
	started chan struct{}
	release chan struct{}
	msgs    []Message
}

func (g gatedHistory) History(ctx context.Context, _ string) ([]Message, error) {
	close(g.started)
	select {
	case <-g.release:
		return g.msgs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestController_Open_busyUntilHistoryLoads(t *testing.T) {
	h := gatedHistory{
		started: make(chan struct{}),
		release: make(chan struct{}),
		msgs:    []Message{{ID: "h1", Role: RoleAssistant, Content: "earlier", Status: StatusConfirmed}},
	}
	c := newTestController(&stubReplier{}, Options{History: h})

	done := make(chan error, 1)
	go func() { done <- c.Open(context.Background(), lead) }()
	<-h.started

	assert.True(t, c.Busy())
	_, err := c.Prepare("too early")
	require.ErrorIs(t, err, ErrBusy)

	close(h.release)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())

	require.NoError(t, c.Send(context.Background(), "hello"))
	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "h1", msgs[0].ID, "history kept ahead of the new turn")
	assert.Equal(t, "hello", msgs[1].Content)
}
