// Package embed finds embed tokens in markdown text and checks them against
// a content item's media arrays. It does no I/O.
//
// Syntax:
//
//	![image:N "alt"]   ![video:N "title"]   [link:N "text"]   <iframe src="...">
//
// N is a zero-based position in the item's images, videos or externalLinks.
package embed

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

// DefaultAllowedHosts are the iframe hosts accepted without a warning.
// Subdomains of each entry are accepted too.
var DefaultAllowedHosts = []string{
	"youtube.com",
	"youtu.be",
	"vimeo.com",
	"codepen.io",
	"codesandbox.io",
	"github.com",
	"gist.github.com",
}

var (
	tokenRe  = regexp.MustCompile(`(!?)\[(image|video|link):([^\]\n]*)\]`)
	argsRe   = regexp.MustCompile(`^\s*(-?\d+)(?:\s+"([^"]*)")?\s*$`)
	iframeRe = regexp.MustCompile(`(?i)<iframe\b[^>]*?\bsrc\s*=\s*["']([^"']*)["']`)
)

// Issue is one validation error or warning, positioned in the source.
type Issue struct {
	Line       int                    `json:"line"`
	Column     int                    `json:"column"`
	Message    string                 `json:"message"`
	Suggestion string                 `json:"suggestion,omitempty"`
	Reference  *models.EmbedReference `json:"reference,omitempty"`
}

// Result is the outcome of Validate. Warnings do not affect IsValid.
type Result struct {
	IsValid  bool    `json:"isValid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Validator checks embeds with a configurable iframe host allow-list.
type Validator struct {
	hosts []string
}

// NewValidator returns a Validator. An empty hosts list uses DefaultAllowedHosts.
func NewValidator(hosts []string) *Validator {
	if len(hosts) == 0 {
		hosts = DefaultAllowedHosts
	}
	norm := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			norm = append(norm, h)
		}
	}
	return &Validator{hosts: norm}
}

var defaultValidator = NewValidator(nil)

// Validate checks content against media using the default host list.
func Validate(content string, media models.MediaReferenceSet) Result {
	return defaultValidator.Validate(content, media)
}

// ExtractReferences returns every well-formed embed token in content.
func ExtractReferences(content string) []models.EmbedReference {
	return defaultValidator.ExtractReferences(content)
}

// Validate scans content line by line. Out-of-range or malformed embeds are
// errors; iframes from hosts outside the allow-list are warnings.
func (v *Validator) Validate(content string, media models.MediaReferenceSet) Result {
	res := Result{Errors: []Issue{}, Warnings: []Issue{}}
	scan(content, func(tok token) {
		switch {
		case tok.iframe:
			if w, ok := v.checkIframe(tok); !ok {
				res.Warnings = append(res.Warnings, w)
			}
		case tok.malformed != "":
			res.Errors = append(res.Errors, Issue{
				Line:       tok.ref.Line,
				Column:     tok.ref.Column,
				Message:    tok.malformed,
				Suggestion: fmt.Sprintf(`Write the embed as %s.`, example(tok.ref.Kind)),
			})
		case tok.missingBang:
			res.Warnings = append(res.Warnings, Issue{
				Line:       tok.ref.Line,
				Column:     tok.ref.Column,
				Message:    fmt.Sprintf("%q is not an embed without a leading '!'", tok.ref.OriginalMatch),
				Suggestion: fmt.Sprintf(`Write the embed as %s.`, example(tok.ref.Kind)),
			})
		default:
			if issue, ok := checkBounds(tok.ref, media); !ok {
				res.Errors = append(res.Errors, issue)
			}
		}
	})
	res.IsValid = len(res.Errors) == 0
	return res
}

// ExtractReferences is the Validate scan without bounds or host checks.
// Malformed tokens and iframes are skipped.
func (v *Validator) ExtractReferences(content string) []models.EmbedReference {
	refs := []models.EmbedReference{}
	scan(content, func(tok token) {
		if tok.iframe || tok.malformed != "" || tok.missingBang {
			return
		}
		refs = append(refs, tok.ref)
	})
	return refs
}

type token struct {
	ref         models.EmbedReference
	iframe      bool
	src         string
	malformed   string
	missingBang bool
}

func scan(content string, emit func(token)) {
	offset := 0
	for i, line := range strings.SplitAfter(content, "\n") {
		lineNo := i + 1
		for _, m := range tokenRe.FindAllStringSubmatchIndex(line, -1) {
			bang := m[3] > m[2]
			kind := models.EmbedKind(line[m[4]:m[5]])
			args := line[m[6]:m[7]]
			tok := token{ref: models.EmbedReference{
				Kind:          kind,
				OriginalMatch: line[m[0]:m[1]],
				StartPos:      offset + m[0],
				EndPos:        offset + m[1],
				Line:          lineNo,
				Column:        utf8.RuneCountInString(line[:m[0]]) + 1,
			}}
			if !bang && kind != models.EmbedLink {
				tok.missingBang = true
				emit(tok)
				continue
			}
			parts := argsRe.FindStringSubmatch(args)
			if parts == nil {
				tok.malformed = fmt.Sprintf("malformed %s embed %q", kind, tok.ref.OriginalMatch)
				emit(tok)
				continue
			}
			n, err := strconv.Atoi(parts[1])
			if err != nil {
				tok.malformed = fmt.Sprintf("%s embed index %q is not a number", kind, parts[1])
				emit(tok)
				continue
			}
			tok.ref.Index = n
			tok.ref.Text = parts[2]
			emit(tok)
		}
		for _, m := range iframeRe.FindAllStringSubmatchIndex(line, -1) {
			emit(token{
				iframe: true,
				src:    line[m[2]:m[3]],
				ref: models.EmbedReference{
					OriginalMatch: line[m[0]:m[1]],
					StartPos:      offset + m[0],
					EndPos:        offset + m[1],
					Line:          lineNo,
					Column:        utf8.RuneCountInString(line[:m[0]]) + 1,
				},
			})
		}
		offset += len(line)
	}
}

func checkBounds(ref models.EmbedReference, media models.MediaReferenceSet) (Issue, bool) {
	n := media.Len(ref.Kind)
	if ref.Index >= 0 && ref.Index < n {
		return Issue{}, true
	}
	r := ref
	issue := Issue{
		Line:      ref.Line,
		Column:    ref.Column,
		Message:   fmt.Sprintf("%s index %d is out of range (%d %s available)", ref.Kind, ref.Index, n, plural(ref.Kind, n)),
		Reference: &r,
	}
	if n == 0 {
		issue.Suggestion = fmt.Sprintf("The item has no %s; add one before embedding it.", plural(ref.Kind, 0))
	} else {
		issue.Suggestion = fmt.Sprintf("Use an index between 0 and %d.", n-1)
	}
	return issue, false
}

func (v *Validator) checkIframe(tok token) (Issue, bool) {
	issue := Issue{
		Line:       tok.ref.Line,
		Column:     tok.ref.Column,
		Suggestion: "Embed content from one of: " + strings.Join(v.hosts, ", ") + ".",
	}
	u, err := url.Parse(strings.TrimSpace(tok.src))
	if err != nil || u.Hostname() == "" {
		issue.Message = fmt.Sprintf("iframe src %q has no recognizable host", tok.src)
		return issue, false
	}
	host := strings.ToLower(u.Hostname())
	if v.allowed(host) {
		return Issue{}, true
	}
	issue.Message = fmt.Sprintf("iframe host %q is not in the allow-list", host)
	return issue, false
}

func (v *Validator) allowed(host string) bool {
	for _, h := range v.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func example(kind models.EmbedKind) string {
	if kind == models.EmbedLink {
		return `[link:0 "text"]`
	}
	return fmt.Sprintf(`![%s:0 "alt"]`, kind)
}

func plural(kind models.EmbedKind, n int) string {
	if n == 1 {
		return string(kind)
	}
	return string(kind) + "s"
}
