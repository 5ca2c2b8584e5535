// Package pathgen derives and checks the canonical location of markdown files:
// {base}/{typeDir}/{contentId}.md.
package pathgen

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

const (
	// Extension is the suffix of every managed file.
	Extension = ".md"
	// DefaultMaxFilenameLength bounds the file name including Extension.
	DefaultMaxFilenameLength = 255
	// MaxUniqueAttempts bounds the numeric suffixes GenerateUnique tries.
	MaxUniqueAttempts = 1000

	maxDepth          = 2
	disallowedChars   = "<>\"|*\x00"
	untitled          = "untitled"
	minFilenameLength = len(Extension) + 1
)

var (
	unsafeNameRe   = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatedSepsRe = regexp.MustCompile(`([._-])[._-]+`)
	// stemRe is the alphabet Generate can produce: a content id, optionally
	// sanitized (dots kept) and suffixed.
	stemRe = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9._-]*$`)
)

// Options tune a single Generate call.
type Options struct {
	// SanitizeNames strips unsupported characters from the id instead of
	// rejecting it.
	SanitizeNames bool
	// AddTimestamp appends -<unix millis> to the file stem.
	AddTimestamp bool
	// MaxLength overrides the generator's file name limit when > 0.
	MaxLength int
}

// Parsed is the result of Parse. Malformed paths yield IsValid == false.
type Parsed struct {
	ContentID   string             `json:"contentId"`
	ContentType models.ContentType `json:"contentType"`
	IsValid     bool               `json:"isValid"`
}

// ValidationResult is the result of Validate.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Generator builds and checks paths under one base directory.
type Generator struct {
	base   string
	table  models.DirectoryTable
	maxLen int
	now    func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxFilenameLength sets the file name limit (including the extension).
func WithMaxFilenameLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxLen = n
		}
	}
}

// WithClock replaces time.Now for timestamp suffixes.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// New creates a Generator rooted at basePath (made absolute).
func New(basePath string, table models.DirectoryTable, opts ...Option) (*Generator, error) {
	if basePath == "" {
		return nil, fmt.Errorf("pathgen: base path is required")
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("pathgen: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("pathgen: resolve base: %w", err)
	}
	g := &Generator{
		base:   filepath.Clean(abs),
		table:  table,
		maxLen: DefaultMaxFilenameLength,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxLen < minFilenameLength {
		return nil, fmt.Errorf("pathgen: max filename length %d is too small", g.maxLen)
	}
	return g, nil
}

// Base returns the absolute base directory.
func (g *Generator) Base() string { return g.base }

// Table returns the content type directory table.
func (g *Generator) Table() models.DirectoryTable { return g.table }

// TypeDir returns the absolute directory for ct.
func (g *Generator) TypeDir(ct models.ContentType) (string, error) {
	dir, ok := g.table.Dir(ct)
	if !ok {
		return "", apperr.Newf(apperr.KindUnsupportedType, "", "unsupported content type %q", ct)
	}
	return filepath.Join(g.base, dir), nil
}

// Generate returns the absolute canonical path for (id, ct).
func (g *Generator) Generate(id string, ct models.ContentType, opts Options) (string, error) {
	return g.generate(id, ct, opts, "")
}

// GenerateUnique returns the first path for (id, ct) not present in
// existing, appending -1, -2, ... to the stem. existing may hold absolute or
// storage-relative paths.
func (g *Generator) GenerateUnique(id string, ct models.ContentType, existing []string, opts Options) (string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		if abs, err := g.ToAbsolute(p); err == nil {
			taken[abs] = struct{}{}
		}
	}

	p, err := g.generate(id, ct, opts, "")
	if err != nil {
		return "", err
	}
	if _, ok := taken[p]; !ok {
		return p, nil
	}
	for i := 1; i <= MaxUniqueAttempts; i++ {
		p, err = g.generate(id, ct, opts, "-"+strconv.Itoa(i))
		if err != nil {
			return "", err
		}
		if _, ok := taken[p]; !ok {
			return p, nil
		}
	}
	return "", apperr.Newf(apperr.KindPathExhausted, p, "no free path for %q after %d attempts", id, MaxUniqueAttempts)
}

func (g *Generator) generate(id string, ct models.ContentType, opts Options, suffix string) (string, error) {
	dir, err := g.TypeDir(ct)
	if err != nil {
		return "", err
	}

	stem := id
	if opts.SanitizeNames {
		stem = Sanitize(id)
	} else if err := models.ValidateContentID(id); err != nil {
		return "", apperr.Newf(apperr.KindValidation, "", "invalid content id %q: %v", id, err)
	}

	if opts.AddTimestamp {
		suffix = "-" + strconv.FormatInt(g.now().UnixMilli(), 10) + suffix
	}

	maxLen := g.maxLen
	if opts.MaxLength > 0 {
		maxLen = opts.MaxLength
	}
	room := maxLen - len(Extension) - len(suffix)
	if room < 1 {
		return "", apperr.Newf(apperr.KindInvalidPath, "", "file name limit %d leaves no room for the id", maxLen)
	}
	if len(stem) > room {
		stem = stem[:room]
	}

	p := filepath.Join(dir, stem+suffix+Extension)
	if !g.within(p) {
		return "", apperr.New(apperr.KindInvalidPath, p, "generated path escapes the markdown base directory")
	}
	return p, nil
}

// Sanitize reduces name to [A-Za-z0-9._-], collapsing runs of separators.
// It never returns an empty string.
func Sanitize(name string) string {
	s := unsafeNameRe.ReplaceAllString(name, "")
	s = repeatedSepsRe.ReplaceAllString(s, "$1")
	s = strings.Trim(s, ".")
	if s == "" {
		return untitled
	}
	return s
}

// Parse extracts the content id and type from path, which may be absolute
// or storage-relative. The stem must use the characters Generate emits, so
// names with spaces or other punctuation are invalid.
func (g *Generator) Parse(path string) Parsed {
	rel, ok := g.relative(path)
	if !ok {
		return Parsed{}
	}
	segs := strings.Split(rel, "/")
	if len(segs) != maxDepth {
		return Parsed{}
	}
	ct, ok := g.table.TypeForDir(segs[0])
	if !ok {
		return Parsed{}
	}
	name := segs[1]
	if !strings.HasSuffix(name, Extension) {
		return Parsed{}
	}
	stem := strings.TrimSuffix(name, Extension)
	if !stemRe.MatchString(stem) {
		return Parsed{}
	}
	return Parsed{ContentID: stem, ContentType: ct, IsValid: true}
}

// Validate runs the path safety checks independently of Parse and reports
// every violation found.
func (g *Generator) Validate(path string) ValidationResult {
	var errs []string
	if path == "" {
		return ValidationResult{Errors: []string{"path is empty"}}
	}
	if !strings.HasSuffix(path, Extension) {
		errs = append(errs, "file must have the .md extension")
	}
	for _, seg := range strings.FieldsFunc(path, isSeparator) {
		if seg == ".." {
			errs = append(errs, "path must not contain '..' segments")
			break
		}
	}
	if strings.Contains(path, "/") && strings.Contains(path, `\`) {
		errs = append(errs, "path must not mix '/' and '\\' separators")
	}
	if strings.ContainsAny(path, disallowedChars) {
		errs = append(errs, `path contains disallowed characters (<>"|*)`)
	}

	abs := g.join(path)
	if !g.within(abs) {
		errs = append(errs, "path escapes the markdown base directory")
	} else if rel, err := filepath.Rel(g.base, abs); err == nil {
		if depth := len(strings.Split(filepath.ToSlash(rel), "/")); depth > maxDepth {
			errs = append(errs, fmt.Sprintf("path is nested %d levels deep, at most %d allowed", depth, maxDepth))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// Resolve validates path and returns its absolute form. Both safety
// checks and the two-segment layout must hold.
func (g *Generator) Resolve(path string) (string, error) {
	res := g.Validate(path)
	if !res.IsValid {
		return "", apperr.New(apperr.KindInvalidPath, path, strings.Join(res.Errors, "; "))
	}
	abs := g.join(path)
	if !g.Parse(abs).IsValid {
		return "", apperr.New(apperr.KindInvalidPath, path, "path is not of the form <content-type>/<content-id>.md")
	}
	return abs, nil
}

// ToRelative returns the storage-relative, forward-slash form of path.
func (g *Generator) ToRelative(path string) (string, error) {
	abs, err := g.ToAbsolute(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(g.base, abs)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInvalidPath, path, "", err)
	}
	return filepath.ToSlash(rel), nil
}

// ToAbsolute returns the filesystem-absolute form of path.
func (g *Generator) ToAbsolute(path string) (string, error) {
	if path == "" {
		return "", apperr.New(apperr.KindInvalidPath, path, "path is empty")
	}
	abs := g.join(path)
	if !g.within(abs) {
		return "", apperr.New(apperr.KindInvalidPath, path, "path escapes the markdown base directory")
	}
	return abs, nil
}

func (g *Generator) join(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(g.base, filepath.FromSlash(path))
}

func (g *Generator) within(abs string) bool {
	return strings.HasPrefix(abs, g.base+string(os.PathSeparator))
}

func (g *Generator) relative(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	abs := g.join(path)
	if !g.within(abs) {
		return "", false
	}
	rel, err := filepath.Rel(g.base, abs)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func isSeparator(r rune) bool { return r == '/' || r == '\\' }
