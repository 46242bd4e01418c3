package tui

import "github.com/colonyops/harvest/internal/core/dataset"

type linkSplit struct {
	inline, overflow []string
}

// linkIndex memoizes the inline/overflow link split of the loaded page so
// frames do not re-walk record attributes. Records are immutable once fetched,
// so entries only go stale when a new page replaces the old one.
type linkIndex struct {
	split func(dataset.Record) (inline, overflow []string)
	byID  map[string]linkSplit
}

func newLinkIndex(split func(dataset.Record) (inline, overflow []string)) *linkIndex {
	return &linkIndex{split: split, byID: make(map[string]linkSplit)}
}

// Reset drops every entry and indexes items.
func (x *linkIndex) Reset(items []dataset.Record) {
	clear(x.byID)
	for _, rec := range items {
		x.Links(rec)
	}
}

// Links returns the split for rec, computing it on first use.
func (x *linkIndex) Links(rec dataset.Record) (inline, overflow []string) {
	if s, ok := x.byID[rec.ID]; ok {
		return s.inline, s.overflow
	}
	inline, overflow = x.split(rec)
	x.byID[rec.ID] = linkSplit{inline: inline, overflow: overflow}
	return inline, overflow
}
