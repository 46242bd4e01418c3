package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/dataset"
)

func TestLinkIndex(t *testing.T) {
	calls := map[string]int{}
	x := newLinkIndex(func(rec dataset.Record) ([]string, []string) {
		calls[rec.ID]++
		return []string{"https://" + rec.ID + ".test"}, nil
	})

	page := []dataset.Record{{ID: "r1"}, {ID: "r2"}}
	x.Reset(page)

	for range 3 {
		inline, overflow := x.Links(page[0])
		assert.Equal(t, []string{"https://r1.test"}, inline)
		assert.Empty(t, overflow)
	}
	assert.Equal(t, map[string]int{"r1": 1, "r2": 1}, calls, "split once per record per page")

	x.Reset([]dataset.Record{{ID: "r3"}})
	x.Links(dataset.Record{ID: "r1"})
	assert.Equal(t, 2, calls["r1"], "a new page drops old entries")
}

func TestModel_View_reusesLinkSplits(t *testing.T) {
	h := newHarness(t)
	require.NotEmpty(t, h.m.links.byID, "the loaded page is indexed")

	split := h.m.links.split
	calls := 0
	h.m.links.split = func(rec dataset.Record) ([]string, []string) {
		calls++
		return split(rec)
	}

	_ = h.m.View()
	_ = h.m.View()
	assert.Zero(t, calls, "frames read the index instead of re-extracting")
}
