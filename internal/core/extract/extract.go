// Package extract pulls media and link URLs out of free-form record
// attributes, including HTML fragments captured by the scraper.
package extract

import (
	"bytes"
	"encoding/json"
	"net/url"
	"path"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/tidwall/gjson"

	"github.com/colonyops/harvest/internal/core/dataset"
)

var (
	imageExts = map[string]bool{
		".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
		".webp": true, ".avif": true, ".svg": true, ".bmp": true,
	}
	videoExts = map[string]bool{
		".mp4": true, ".webm": true, ".mov": true, ".m4v": true,
		".ogv": true, ".m3u8": true,
	}
	imageKeyHints = []string{"image", "img", "photo", "thumbnail"}
	videoKeyHints = []string{"video"}
)

// Item is one URL found in a record, classified by what it points at.
type Item struct {
	Key  string // attribute the URL was found under
	URL  string
	Kind Kind
}

// Kind classifies an extracted URL.
type Kind int

const (
	KindLink Kind = iota
	KindImage
	KindVideo
)

// Items walks every string value of rec in document order and returns each
// distinct http(s) URL once, at its first occurrence.
func Items(rec dataset.Record) []Item {
	var (
		items []Item
		seen  = make(map[string]bool)
	)

	add := func(key, raw string, kind Kind, fromHTML bool) {
		u, ok := normalize(raw)
		if !ok || seen[u] {
			return
		}
		if !fromHTML {
			kind = classify(key, u)
		}
		seen[u] = true
		items = append(items, Item{Key: key, URL: u, Kind: kind})
	}

	walk(gjson.ParseBytes(orderedRaw(rec)), "", func(key, s string) {
		if looksLikeHTML(s) {
			for _, it := range fromHTML(s) {
				add(key, it.URL, it.Kind, true)
			}
			return
		}
		add(key, s, KindLink, false)
	})

	return items
}

// Media returns the record's images followed by its videos, each group in
// source order.
func Media(rec dataset.Record) []dataset.MediaAsset {
	var images, videos []dataset.MediaAsset
	for _, it := range Items(rec) {
		switch it.Kind {
		case KindImage:
			images = append(images, dataset.MediaAsset{Kind: dataset.MediaImage, URL: it.URL})
		case KindVideo:
			videos = append(videos, dataset.MediaAsset{Kind: dataset.MediaVideo, URL: it.URL})
		}
	}
	return append(images, videos...)
}

// Links returns the record's non-media URLs in source order.
func Links(rec dataset.Record) []string {
	var links []string
	for _, it := range Items(rec) {
		if it.Kind == KindLink {
			links = append(links, it.URL)
		}
	}
	return links
}

func walk(v gjson.Result, key string, visit func(key, s string)) {
	switch {
	case v.IsObject():
		v.ForEach(func(k, child gjson.Result) bool {
			walk(child, k.String(), visit)
			return true
		})
	case v.IsArray():
		v.ForEach(func(_, child gjson.Result) bool {
			walk(child, key, visit)
			return true
		})
	case v.Type == gjson.String:
		visit(key, v.String())
	}
}

// orderedRaw returns the record's data object as JSON in attribute order.
func orderedRaw(rec dataset.Record) []byte {
	if len(rec.Raw) > 0 {
		return rec.Raw
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range rec.Keys {
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(rec.Data[k])
		if err != nil {
			vb = []byte("null")
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func looksLikeHTML(s string) bool {
	i := strings.IndexByte(s, '<')
	return i >= 0 && strings.IndexByte(s[i:], '>') > 0
}

func fromHTML(s string) []Item {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return nil
	}

	var items []Item
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		items = append(items, Item{URL: sel.AttrOr("src", ""), Kind: KindImage})
	})
	doc.Find("video[src], video source[src]").Each(func(_ int, sel *goquery.Selection) {
		items = append(items, Item{URL: sel.AttrOr("src", ""), Kind: KindVideo})
	})
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		items = append(items, Item{URL: sel.AttrOr("href", ""), Kind: KindLink})
	})
	return items
}

func normalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, " \t\n") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	return u.String(), true
}

func classify(key, rawURL string) Kind {
	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		switch {
		case imageExts[ext]:
			return KindImage
		case videoExts[ext]:
			return KindVideo
		}
	}

	return classifyKey(key)
}

// classifyKey matches the hints as prefixes of the words of key, last word
// first, so "video_thumbnail" names an image and "eclipse_url" names nothing.
func classifyKey(key string) Kind {
	words := keyWords(key)
	for i := len(words) - 1; i >= 0; i-- {
		w := words[i]
		for _, hint := range imageKeyHints {
			if strings.HasPrefix(w, hint) {
				return KindImage
			}
		}
		for _, hint := range videoKeyHints {
			if strings.HasPrefix(w, hint) {
				return KindVideo
			}
		}
	}
	return KindLink
}

// keyWords splits an attribute name on '_', '-', '.', spaces and camelCase
// boundaries and lowercases the parts.
func keyWords(key string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(key)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
