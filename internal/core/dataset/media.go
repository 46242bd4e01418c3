package dataset

// MediaKind distinguishes gallery assets.
type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// MediaAsset is one image or video referenced by a record.
type MediaAsset struct {
	Kind MediaKind
	URL  string
}
