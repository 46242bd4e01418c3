package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/dataset"
)

func mustRecord(t *testing.T, raw string) dataset.Record {
	t.Helper()
	rec, err := dataset.ParseRecord([]byte(raw))
	require.NoError(t, err)
	return rec
}

func TestMedia_imagesPrecedeVideos(t *testing.T) {
	rec := mustRecord(t, `{"id":"1","data":{
		"hero":"https://cdn.test/a.jpg",
		"promo":"https://cdn.test/c.mp4",
		"gallery":"https://cdn.test/b.png"
	}}`)

	got := Media(rec)

	assert.Equal(t, []dataset.MediaAsset{
		{Kind: dataset.MediaImage, URL: "https://cdn.test/a.jpg"},
		{Kind: dataset.MediaImage, URL: "https://cdn.test/b.png"},
		{Kind: dataset.MediaVideo, URL: "https://cdn.test/c.mp4"},
	}, got)
}

func TestMedia_arraysNestedObjectsAndHints(t *testing.T) {
	rec := mustRecord(t, `{"id":"1","data":{
		"videos":["https://v.test/watch?id=1"],
		"product":{"images":["https://img.test/p/1","https://img.test/p/2"]},
		"thumbnail_url":"https://img.test/p/1",
		"website":"https://acme.test"
	}}`)

	got := Media(rec)

	assert.Equal(t, []dataset.MediaAsset{
		{Kind: dataset.MediaImage, URL: "https://img.test/p/1"},
		{Kind: dataset.MediaImage, URL: "https://img.test/p/2"},
		{Kind: dataset.MediaVideo, URL: "https://v.test/watch?id=1"},
	}, got)
}

func TestMedia_fromHTML(t *testing.T) {
	rec := mustRecord(t, `{"id":"1","data":{
		"body":"<div><video><source src=\"https://v.test/x.webm\"></video><img src=\"https://i.test/y\"><a href=\"https://acme.test/about\">about</a></div>"
	}}`)

	assert.Equal(t, []dataset.MediaAsset{
		{Kind: dataset.MediaImage, URL: "https://i.test/y"},
		{Kind: dataset.MediaVideo, URL: "https://v.test/x.webm"},
	}, Media(rec))

	assert.Equal(t, []string{"https://acme.test/about"}, Links(rec))
}

func TestLinks_skipsNonURLsAndDuplicates(t *testing.T) {
	rec := mustRecord(t, `{"id":"1","data":{
		"name":"Acme Inc",
		"site":"https://acme.test",
		"mirror":"https://acme.test",
		"mail":"mailto:hi@acme.test",
		"note":"see https://acme.test for more",
		"linkedin":"https://linkedin.test/company/acme",
		"logo":"https://acme.test/logo.svg"
	}}`)

	assert.Equal(t, []string{"https://acme.test", "https://linkedin.test/company/acme"}, Links(rec))
}

func TestItems_withoutRawUsesKeyOrder(t *testing.T) {
	rec := dataset.Record{
		Keys: []string{"z", "a"},
		Data: map[string]any{
			"z": "https://x.test/1.gif",
			"a": "https://x.test/2.gif",
		},
	}

	items := Items(rec)
	require.Len(t, items, 2)
	assert.Equal(t, "https://x.test/1.gif", items[0].URL)
	assert.Equal(t, "z", items[0].Key)
}

func TestMedia_empty(t *testing.T) {
	rec := mustRecord(t, `{"id":"1","data":{"name":"nothing here"}}`)
	assert.Empty(t, Media(rec))
}

func TestLinks_keysThatOnlyContainAHint(t *testing.T) {
	rec := mustRecord(t, `{"id":"1","data":{
		"eclipse_url":"https://eclipse.test/downloads",
		"clipboard_help":"https://acme.test/help",
		"imageGallery":"https://gallery.test/1",
		"video_thumbnail":"https://img.test/t/1"
	}}`)

	assert.Equal(t, []string{"https://eclipse.test/downloads", "https://acme.test/help"}, Links(rec))
	assert.Equal(t, []dataset.MediaAsset{
		{Kind: dataset.MediaImage, URL: "https://gallery.test/1"},
		{Kind: dataset.MediaImage, URL: "https://img.test/t/1"},
	}, Media(rec))
}

func TestClassifyKey(t *testing.T) {
	tests := []struct {
		key  string
		want Kind
	}{
		{"image", KindImage},
		{"images", KindImage},
		{"imageURL", KindImage},
		{"productImgs", KindImage},
		{"thumbnail_url", KindImage},
		{"Photo-Gallery", KindImage},
		{"video_thumbnail", KindImage},
		{"promoVideo", KindVideo},
		{"videos", KindVideo},
		{"eclipse_url", KindLink},
		{"clipboard_help", KindLink},
		{"logo", KindLink},
		{"website", KindLink},
		{"", KindLink},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyKey(tt.key))
		})
	}
}
