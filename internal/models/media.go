package models

// EmbedKind names the media array an embed reference points into.
type EmbedKind string

// Embed kinds.
const (
	EmbedImage EmbedKind = "image"
	EmbedVideo EmbedKind = "video"
	EmbedLink  EmbedKind = "link"
)

// VideoRef is one entry of an item's video list.
type VideoRef struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// ExternalLink is one entry of an item's external link list.
type ExternalLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// MediaReferenceSet holds the ordered media arrays of a content item.
// Embeds address entries by zero-based position, so reordering an array
// changes what existing embeds point at.
type MediaReferenceSet struct {
	Images        []string       `json:"images"`
	Videos        []VideoRef     `json:"videos"`
	ExternalLinks []ExternalLink `json:"externalLinks"`
}

// Len returns the length of the array addressed by kind.
func (m MediaReferenceSet) Len(kind EmbedKind) int {
	switch kind {
	case EmbedImage:
		return len(m.Images)
	case EmbedVideo:
		return len(m.Videos)
	case EmbedLink:
		return len(m.ExternalLinks)
	}
	return 0
}

// EmbedReference is one embed token found in markdown text.
type EmbedReference struct {
	Kind          EmbedKind `json:"type"`
	Index         int       `json:"index"`
	Text          string    `json:"altOrCustomText,omitempty"`
	OriginalMatch string    `json:"originalMatch"`
	StartPos      int       `json:"startPos"` // byte offset into the content
	EndPos        int       `json:"endPos"`
	Line          int       `json:"line"`   // 1-based
	Column        int       `json:"column"` // 1-based, in runes
}
