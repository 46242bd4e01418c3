// Package chat manages the conversation attached to a single dataset record.
package chat

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/logging"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Status tags a message with its delivery state. User messages start pending
// and become confirmed or failed once the reply request resolves.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Message is one entry of the append-only conversation.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
	Status    Status
}

// Channels accepted by template generation.
var Channels = []string{"email", "linkedin", "sms"}

var (
	// ErrBusy rejects a mutating request while another one is outstanding.
	ErrBusy = fmt.Errorf("%w: a request is already in flight", dataset.ErrValidation)
	// ErrClosed rejects requests when no record's chat is open.
	ErrClosed = fmt.Errorf("%w: chat is not open", dataset.ErrValidation)
)

// Replier generates an assistant reply for a user message about a record.
type Replier interface {
	Reply(ctx context.Context, message string, leadData map[string]any) (string, error)
}

// TemplateGenerator produces an outreach template for a channel.
type TemplateGenerator interface {
	GenerateTemplate(ctx context.Context, channel string) (string, error)
}

// HistorySource loads a previous conversation for a record. Optional.
type HistorySource interface {
	History(ctx context.Context, recordID string) ([]Message, error)
}

// Options configures a Controller.
type Options struct {
	History HistorySource
	Now     func() time.Time
	NewID   func() string
	Logger  *zerolog.Logger
}

type turnKind int

const (
	turnReply turnKind = iota
	turnTemplate
)

// Turn is a prepared mutating request. The optimistic user message is already
// in the conversation when a reply turn is returned.
type Turn struct {
	kind      turnKind
	epoch     uint64
	messageID string
	text      string
	channel   string
	leadData  map[string]any
}

// Controller owns the conversation of the open record. At most one mutating
// request is outstanding at a time; opening another record or closing the
// panel makes in-flight completions stale. Safe for concurrent use.
type Controller struct {
	replier   Replier
	templates TemplateGenerator
	history   HistorySource
	now       func() time.Time
	newID     func() string
	log       zerolog.Logger

	mu       sync.Mutex
	open     bool
	record   dataset.Record
	messages []Message
	epoch    uint64
	busy     bool
	cancel   context.CancelFunc
}

// New creates a chat controller.
func New(replier Replier, templates TemplateGenerator, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	logger := logging.Component("chat")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Controller{
		replier:   replier,
		templates: templates,
		history:   opts.History,
		now:       opts.Now,
		newID:     opts.NewID,
		log:       logger,
	}
}

// Open replaces the conversation with the history of rec. The panel is busy
// until the history has loaded. A failed history load leaves the conversation
// empty and returns the error; the panel stays open and usable.
func (c *Controller) Open(ctx context.Context, rec dataset.Record) error {
	c.mu.Lock()
	c.resetLocked()
	c.open = true
	c.record = rec
	c.busy = c.history != nil
	epoch := c.epoch
	c.mu.Unlock()

	if c.history == nil {
		return nil
	}

	msgs, err := c.history.History(ctx, rec.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return dataset.Stale(epoch)
	}
	c.busy = false
	if err != nil {
		return fmt.Errorf("load chat history: %w", err)
	}
	c.messages = append([]Message(nil), msgs...)
	return nil
}

// Close discards the conversation. In-flight requests complete into the void.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Send prepares and delivers a message in one call.
func (c *Controller) Send(ctx context.Context, text string) error {
	turn, err := c.Prepare(text)
	if err != nil {
		return err
	}
	return c.Deliver(ctx, turn)
}

// GenerateTemplate prepares and delivers a template request in one call.
func (c *Controller) GenerateTemplate(ctx context.Context, channel string) error {
	turn, err := c.PrepareTemplate(channel)
	if err != nil {
		return err
	}
	return c.Deliver(ctx, turn)
}

// Prepare validates text, appends it as a pending user message and marks the
// panel busy. Whitespace-only text is rejected without touching state.
func (c *Controller) Prepare(text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, dataset.Validationf("message is empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(); err != nil {
		return Turn{}, err
	}

	msg := Message{
		ID:        c.newID(),
		Role:      RoleUser,
		Content:   text,
		CreatedAt: c.now(),
		Status:    StatusPending,
	}
	c.messages = append(c.messages, msg)
	c.busy = true

	return Turn{
		kind:      turnReply,
		epoch:     c.epoch,
		messageID: msg.ID,
		text:      text,
		leadData:  c.record.Data,
	}, nil
}

// PrepareTemplate validates channel and marks the panel busy.
func (c *Controller) PrepareTemplate(channel string) (Turn, error) {
	if !slices.Contains(Channels, channel) {
		return Turn{}, dataset.Validationf("unknown channel %q", channel)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.readyLocked(); err != nil {
		return Turn{}, err
	}
	c.busy = true

	return Turn{kind: turnTemplate, epoch: c.epoch, channel: channel}, nil
}

// Deliver runs the network half of a prepared turn and applies the outcome.
// A failed reply marks the user message failed but keeps it. Outcomes for a
// closed or switched panel return a stale-result error and change nothing.
func (c *Controller) Deliver(ctx context.Context, turn Turn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	if turn.epoch != c.epoch {
		c.mu.Unlock()
		return dataset.Stale(turn.epoch)
	}
	c.cancel = cancel
	c.mu.Unlock()

	var (
		content string
		err     error
	)
	switch turn.kind {
	case turnTemplate:
		content, err = c.templates.GenerateTemplate(ctx, turn.channel)
	default:
		content, err = c.replier.Reply(ctx, turn.text, turn.leadData)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if turn.epoch != c.epoch {
		c.log.Debug().Uint64("epoch", turn.epoch).Msg("dropping stale chat completion")
		return dataset.Stale(turn.epoch)
	}

	c.busy = false
	c.cancel = nil

	if err != nil {
		c.setStatusLocked(turn.messageID, StatusFailed)
		return err
	}

	c.setStatusLocked(turn.messageID, StatusConfirmed)
	c.messages = append(c.messages, Message{
		ID:        c.newID(),
		Role:      RoleAssistant,
		Content:   content,
		CreatedAt: c.now(),
		Status:    StatusConfirmed,
	})
	return nil
}

// Busy reports whether a mutating request is outstanding.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// IsOpen reports whether a record's conversation is open.
func (c *Controller) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Record returns the record whose conversation is open.
func (c *Controller) Record() (dataset.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record, c.open
}

// Messages returns a copy of the conversation.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Controller) readyLocked() error {
	if !c.open {
		return ErrClosed
	}
	if c.busy {
		return ErrBusy
	}
	return nil
}

func (c *Controller) resetLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.epoch++
	c.open = false
	c.busy = false
	c.record = dataset.Record{}
	c.messages = nil
}

func (c *Controller) setStatusLocked(id string, status Status) {
	if id == "" {
		return
	}
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages[i].Status = status
			return
		}
	}
}
