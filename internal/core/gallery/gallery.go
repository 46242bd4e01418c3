// Package gallery flattens a record's images and videos into a circular,
// navigable sequence.
package gallery

import (
	"sync"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/extract"
)

// Build returns the record's media: all images, then all videos, each group
// in source order.
func Build(rec dataset.Record) []dataset.MediaAsset {
	return extract.Media(rec)
}

// Controller holds the assets of the selected record and the active index.
type Controller struct {
	mu       sync.RWMutex
	recordID string
	assets   []dataset.MediaAsset
	index    int
}

// New creates an empty gallery.
func New() *Controller {
	return &Controller{}
}

// Load builds the assets for rec and resets the active index to 0.
func (c *Controller) Load(rec dataset.Record) []dataset.MediaAsset {
	assets := Build(rec)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordID = rec.ID
	c.assets = assets
	c.index = 0

	out := make([]dataset.MediaAsset, len(assets))
	copy(out, assets)
	return out
}

// Clear drops the loaded assets.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recordID = ""
	c.assets = nil
	c.index = 0
}

// RecordID returns the ID of the record whose assets are loaded.
func (c *Controller) RecordID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.recordID
}

// Next advances one asset, wrapping from the last to the first.
func (c *Controller) Next() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.assets); n > 0 {
		c.index = (c.index + 1) % n
	}
}

// Previous steps back one asset, wrapping from the first to the last.
func (c *Controller) Previous() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n := len(c.assets); n > 0 {
		c.index = (c.index - 1 + n) % n
	}
}

// SelectIndex jumps to asset i.
func (c *Controller) SelectIndex(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.assets) {
		return dataset.Validationf("gallery index %d out of range [0, %d)", i, len(c.assets))
	}
	c.index = i
	return nil
}

// Current returns the active asset, or false when the gallery is empty.
func (c *Controller) Current() (dataset.MediaAsset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.assets) == 0 {
		return dataset.MediaAsset{}, false
	}
	return c.assets[c.index], true
}

// Index returns the active index.
func (c *Controller) Index() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index
}

// Len returns the number of assets.
func (c *Controller) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

// Assets returns a copy of the loaded assets.
func (c *Controller) Assets() []dataset.MediaAsset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]dataset.MediaAsset, len(c.assets))
	copy(out, c.assets)
	return out
}

// Counts returns the number of images and videos.
func (c *Controller) Counts() (images, videos int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.assets {
		if a.Kind == dataset.MediaVideo {
			videos++
		} else {
			images++
		}
	}
	return images, videos
}
