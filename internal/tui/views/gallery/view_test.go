package gallery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/pkg/tuitest"
)

type stubSource struct {
	assets []dataset.MediaAsset
	index  int
}

func (s stubSource) Assets() []dataset.MediaAsset { return s.assets }
func (s stubSource) Index() int                   { return s.index }

func (s stubSource) Counts() (images, videos int) {
	for _, a := range s.assets {
		if a.Kind == dataset.MediaVideo {
			videos++
		} else {
			images++
		}
	}
	return images, videos
}

func TestRender(t *testing.T) {
	src := stubSource{
		assets: []dataset.MediaAsset{
			{Kind: dataset.MediaImage, URL: "https://cdn.test/a.jpg"},
			{Kind: dataset.MediaImage, URL: "https://cdn.test/b.png"},
			{Kind: dataset.MediaVideo, URL: "https://cdn.test/c.mp4"},
		},
		index: 2,
	}

	out := tuitest.StripANSI(Render(src, "Acme", 100, 40))

	assert.Contains(t, out, "Gallery")
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "3 of 3")
	assert.Contains(t, out, "2 images, 1 videos")
	assert.Contains(t, out, "VIDEO")
	assert.Equal(t, 2, strings.Count(out, "https://cdn.test/c.mp4"), "active asset and its list row")
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name               string
		n, cursor, size    int
		wantStart, wantEnd int
	}{
		{"fits", 3, 2, 10, 0, 3},
		{"start", 20, 1, 5, 0, 5},
		{"middle", 20, 10, 5, 8, 13},
		{"end", 20, 19, 5, 15, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.n, tt.cursor, tt.size)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}
