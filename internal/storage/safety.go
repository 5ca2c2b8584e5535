package storage

import (
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
)

// DefaultMaxFileSize is the content size limit when none is configured.
const DefaultMaxFileSize = 10 << 20

var (
	scriptTagRe    = regexp.MustCompile(`(?i)<\s*script\b`)
	unsafeIframeRe = regexp.MustCompile(`(?i)<\s*iframe\b[^>]*\bsrc\s*=\s*["']?\s*(?:javascript|data):`)
	eventHandlerRe = regexp.MustCompile(`(?i)<[^>]*\son[a-z]+\s*=`)
)

// Policy holds the content safety rules applied before every write.
// Violations are rejected, never escaped or stripped.
type Policy struct {
	MaxSize int64
}

// DefaultPolicy returns the policy with the 10 MiB limit.
func DefaultPolicy() Policy { return Policy{MaxSize: DefaultMaxFileSize} }

// Check returns a KindInvalidContent error describing the first violation.
func (p Policy) Check(content string) error {
	limit := p.MaxSize
	if limit <= 0 {
		limit = DefaultMaxFileSize
	}
	if int64(len(content)) > limit {
		return apperr.Newf(apperr.KindInvalidContent, "",
			"content is %s, limit is %s",
			humanize.IBytes(uint64(len(content))), humanize.IBytes(uint64(limit)))
	}
	if !utf8.ValidString(content) {
		return apperr.New(apperr.KindInvalidContent, "", "content is not valid UTF-8")
	}
	if scriptTagRe.MatchString(content) {
		return apperr.New(apperr.KindInvalidContent, "", "content contains a <script> tag")
	}
	if unsafeIframeRe.MatchString(content) {
		return apperr.New(apperr.KindInvalidContent, "", "iframe src uses a javascript: or data: URL")
	}
	if eventHandlerRe.MatchString(content) {
		return apperr.New(apperr.KindInvalidContent, "", "content contains an inline on* event handler")
	}
	for i, r := range content {
		if isForbiddenControl(r) {
			return apperr.New(apperr.KindInvalidContent, "",
				fmt.Sprintf("content contains control character U+%04X at byte %d", r, i))
		}
	}
	return nil
}

func isForbiddenControl(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.IsControl(r)
}
