// Package viewer is the root of the dataset viewer. It owns the active record
// and keeps the three single-active axes in order: at most one overlay, at
// most one record's chat, and at most one gallery.
package viewer

import (
	"context"
	"errors"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/colonyops/harvest/internal/core/chat"
	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/extract"
	"github.com/colonyops/harvest/internal/core/gallery"
	"github.com/colonyops/harvest/internal/core/history"
	"github.com/colonyops/harvest/internal/core/logging"
	"github.com/colonyops/harvest/internal/core/overlay"
	"github.com/colonyops/harvest/internal/core/query"
)

// DefaultLinkPreviewLimit is how many links a row shows inline before the
// rest move into the links overlay.
const DefaultLinkPreviewLimit = 5

// OverlayKind names the contextual popups the viewer can show.
type OverlayKind string

const (
	OverlayLinks   OverlayKind = "links"
	OverlayRecord  OverlayKind = "record"
	OverlayColumns OverlayKind = "columns"
)

// OverlayState describes the open overlay.
type OverlayState struct {
	Kind     OverlayKind
	RecordID string
	Anchor   overlay.Rect
	Size     overlay.Size
	Position overlay.Position
}

// Exporter writes a server-side export of the run into dir.
type Exporter interface {
	ExportToFile(ctx context.Context, format, dir string) (path string, size int64, err error)
}

// Notifier receives the user-visible outcome of fire-and-forget operations.
type Notifier interface {
	Infof(format string, args ...any)
	Error(action string, err error) bool
}

// Options wires the viewer to its collaborators. Query, Exporter, Notifier and
// History may be nil.
type Options struct {
	RunID            string
	Query            *query.Controller
	Chat             *chat.Controller
	Gallery          *gallery.Controller
	Exporter         Exporter
	ExportDir        string
	Notifier         Notifier
	History          history.Store
	LinkPreviewLimit int
	Overlay          overlay.Options
	Logger           *zerolog.Logger
}

// Viewer coordinates the controllers of one mounted dataset view. Safe for
// concurrent use.
type Viewer struct {
	runID     string
	query     *query.Controller
	chat      *chat.Controller
	gallery   *gallery.Controller
	exporter  Exporter
	exportDir string
	notifier  Notifier
	history   history.Store
	linkLimit int
	overlayOp overlay.Options
	log       zerolog.Logger

	mu          sync.Mutex
	active      dataset.Record
	hasActive   bool
	overlay     OverlayState
	overlayOpen bool
	galleryOpen bool
	closed      bool
}

// New creates a viewer. A nil Gallery gets a fresh controller.
func New(opts Options) *Viewer {
	if opts.Gallery == nil {
		opts.Gallery = gallery.New()
	}
	if opts.LinkPreviewLimit <= 0 {
		opts.LinkPreviewLimit = DefaultLinkPreviewLimit
	}
	logger := logging.ForRun("viewer", opts.RunID)
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Viewer{
		runID:     opts.RunID,
		query:     opts.Query,
		chat:      opts.Chat,
		gallery:   opts.Gallery,
		exporter:  opts.Exporter,
		exportDir: opts.ExportDir,
		notifier:  opts.Notifier,
		history:   opts.History,
		linkLimit: opts.LinkPreviewLimit,
		overlayOp: opts.Overlay,
		log:       logger,
	}
}

// RunID returns the run the viewer displays.
func (v *Viewer) RunID() string { return v.runID }

// Query returns the paged query controller, if any.
func (v *Viewer) Query() *query.Controller { return v.query }

// Chat returns the chat controller, if any.
func (v *Viewer) Chat() *chat.Controller { return v.chat }

// Gallery returns the gallery controller.
func (v *Viewer) Gallery() *gallery.Controller { return v.gallery }

// Active returns the active record.
func (v *Viewer) Active() (dataset.Record, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active, v.hasActive
}

// SelectRecord makes rec the active record. An open chat for another record is
// closed, an open gallery is rebuilt for rec, and a record-bound overlay for
// another record is closed.
func (v *Viewer) SelectRecord(rec dataset.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.selectLocked(rec)
}

func (v *Viewer) selectLocked(rec dataset.Record) {
	prev := v.active.ID
	v.active = rec
	v.hasActive = true

	if prev == rec.ID {
		return
	}

	if v.chat != nil {
		if open, ok := v.chat.Record(); ok && open.ID != rec.ID {
			v.chat.Close()
		}
	}

	if v.galleryOpen {
		if len(v.gallery.Load(rec)) == 0 {
			v.gallery.Clear()
			v.galleryOpen = false
		}
	}

	if v.overlayOpen && v.overlay.Kind != OverlayColumns && v.overlay.RecordID != rec.ID {
		v.overlayOpen = false
		v.overlay = OverlayState{}
	}
}

// OpenOverlay shows an overlay of kind next to anchor, closing any other open
// overlay. Record-bound kinds (links, record) attach to the active record.
func (v *Viewer) OpenOverlay(kind OverlayKind, anchor overlay.Rect, popup, viewport overlay.Size) (OverlayState, error) {
	switch kind {
	case OverlayLinks, OverlayRecord, OverlayColumns:
	default:
		return OverlayState{}, dataset.Validationf("unknown overlay %q", kind)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if kind != OverlayColumns && !v.hasActive {
		return OverlayState{}, dataset.Validationf("no record selected")
	}

	st := OverlayState{
		Kind:     kind,
		Anchor:   anchor,
		Size:     popup,
		Position: overlay.ComputePosition(anchor, popup, viewport, v.overlayOp),
	}
	if kind != OverlayColumns {
		st.RecordID = v.active.ID
	}

	v.overlay = st
	v.overlayOpen = true
	return st, nil
}

// CloseOverlay hides the open overlay.
func (v *Viewer) CloseOverlay() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.overlayOpen = false
	v.overlay = OverlayState{}
}

// Overlay returns the open overlay.
func (v *Viewer) Overlay() (OverlayState, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.overlay, v.overlayOpen
}

// Links splits the record's links into those shown inline and the overflow
// that only the links overlay lists.
func (v *Viewer) Links(rec dataset.Record) (inline, overflow []string) {
	links := extract.Links(rec)
	if len(links) <= v.linkLimit {
		return links, nil
	}
	return links[:v.linkLimit], links[v.linkLimit:]
}

// OpenChat activates rec and opens its conversation, replacing any other
// record's. Reopening the record already shown keeps its conversation.
func (v *Viewer) OpenChat(ctx context.Context, rec dataset.Record) error {
	if v.chat == nil {
		return dataset.Validationf("chat is not configured")
	}

	v.mu.Lock()
	v.selectLocked(rec)
	v.mu.Unlock()

	if open, ok := v.chat.Record(); ok && open.ID == rec.ID {
		return nil
	}

	if err := v.chat.Open(logging.WithRecordID(ctx, rec.ID), rec); err != nil {
		v.log.Warn().Err(err).Str("record_id", rec.ID).Msg("chat history unavailable")
		return err
	}
	return nil
}

// CloseChat closes the conversation; in-flight replies are discarded.
func (v *Viewer) CloseChat() {
	if v.chat != nil {
		v.chat.Close()
	}
}

// ChatOpen reports whether a conversation is open.
func (v *Viewer) ChatOpen() bool {
	return v.chat != nil && v.chat.IsOpen()
}

// OpenGallery activates rec and shows its media starting at the first asset.
// A record without media is rejected and leaves the gallery closed.
func (v *Viewer) OpenGallery(rec dataset.Record) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if len(gallery.Build(rec)) == 0 {
		return dataset.Validationf("record %s has no media", rec.ID)
	}

	v.selectLocked(rec)
	v.gallery.Load(rec)
	v.galleryOpen = true
	return nil
}

// CloseGallery hides the gallery.
func (v *Viewer) CloseGallery() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gallery.Clear()
	v.galleryOpen = false
}

// GalleryOpen reports whether the gallery is shown.
func (v *Viewer) GalleryOpen() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.galleryOpen
}

// Export asks the server for an export of the run and saves it. The outcome
// is published as a notification; the returned values serve non-interactive
// callers.
func (v *Viewer) Export(ctx context.Context, format string) (string, error) {
	if v.exporter == nil {
		err := errors.New("export is not configured")
		v.notifyError("export", err)
		return "", err
	}

	ctx = logging.WithOp(logging.WithRunID(ctx, v.runID), "export")
	path, size, err := v.exporter.ExportToFile(ctx, format, v.exportDir)
	if err != nil {
		v.log.Error().Ctx(ctx).Err(err).Str("format", format).Msg("export failed")
		v.notifyError("export", err)
		return "", err
	}

	if v.history != nil {
		if _, err := v.history.Record(ctx, history.Entry{
			RunID:  v.runID,
			Format: format,
			Path:   path,
			Bytes:  size,
		}); err != nil {
			v.log.Warn().Err(err).Msg("record export history")
		}
	}

	if v.notifier != nil {
		v.notifier.Infof("exported %s (%s) to %s", format, humanize.Bytes(uint64(size)), path)
	}
	return path, nil
}

// Close unmounts the viewer: the chat is closed so in-flight replies are
// ignored and any pending search debounce is cancelled. Idempotent.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.overlayOpen = false
	v.overlay = OverlayState{}
	v.galleryOpen = false
	v.mu.Unlock()

	v.gallery.Clear()
	if v.chat != nil {
		v.chat.Close()
	}
	if v.query != nil {
		v.query.Close()
	}
}

func (v *Viewer) notifyError(action string, err error) {
	if v.notifier == nil {
		return
	}
	if !v.notifier.Error(action, err) {
		v.log.Debug().Err(err).Str("action", action).Msg("error absorbed")
	}
}
