// Package models defines the domain types for the markdown content core.
package models

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ContentType is the closed category that decides a content item's storage directory.
type ContentType string

// Known content types.
const (
	ContentTypePortfolio ContentType = "portfolio"
	ContentTypeBlog      ContentType = "blog"
	ContentTypeProfile   ContentType = "profile"
	ContentTypePage      ContentType = "page"
	ContentTypeTool      ContentType = "tool"
	ContentTypeAsset     ContentType = "asset"
	ContentTypeDownload  ContentType = "download"
	ContentTypePlugin    ContentType = "plugin"
	ContentTypeOther     ContentType = "other"
)

// AllContentTypes lists every known content type in a stable order.
var AllContentTypes = []ContentType{
	ContentTypePortfolio,
	ContentTypeBlog,
	ContentTypeProfile,
	ContentTypePage,
	ContentTypeTool,
	ContentTypeAsset,
	ContentTypeDownload,
	ContentTypePlugin,
	ContentTypeOther,
}

// MaxContentIDLength is the longest accepted content identifier.
const MaxContentIDLength = 100

var contentIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Known reports whether t is one of the closed set of content types.
func (t ContentType) Known() bool {
	for _, k := range AllContentTypes {
		if k == t {
			return true
		}
	}
	return false
}

// ParseContentType converts s to a ContentType. Unknown values are rejected.
func ParseContentType(s string) (ContentType, bool) {
	t := ContentType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Known() {
		return "", false
	}
	return t, true
}

// ValidateContentID checks the identifier invariant: [A-Za-z0-9_-]+, at most 100 chars.
func ValidateContentID(id string) error {
	return validation.Validate(id,
		validation.Required,
		validation.Length(1, MaxContentIDLength),
		validation.Match(contentIDRe).Error("must contain only letters, digits, '-' or '_'"),
	)
}

// DirectoryTable maps each content type to its directory name under the
// markdown base path. One table is built from configuration and shared by
// every component that needs it.
type DirectoryTable map[ContentType]string

// DefaultDirectoryTable returns the identity mapping (type name == directory name).
func DefaultDirectoryTable() DirectoryTable {
	t := make(DirectoryTable, len(AllContentTypes))
	for _, ct := range AllContentTypes {
		t[ct] = string(ct)
	}
	return t
}

// Dir returns the directory for ct.
func (t DirectoryTable) Dir(ct ContentType) (string, bool) {
	d, ok := t[ct]
	if !ok || d == "" {
		return "", false
	}
	return d, true
}

// TypeForDir is the reverse lookup of Dir.
func (t DirectoryTable) TypeForDir(dir string) (ContentType, bool) {
	for ct, d := range t {
		if d == dir {
			return ct, true
		}
	}
	return "", false
}

// Types returns the table's content types in AllContentTypes order.
func (t DirectoryTable) Types() []ContentType {
	out := make([]ContentType, 0, len(t))
	for _, ct := range AllContentTypes {
		if _, ok := t[ct]; ok {
			out = append(out, ct)
		}
	}
	return out
}

// Validate checks that every known type has exactly one non-empty,
// single-segment directory and that no two types share a directory.
func (t DirectoryTable) Validate() error {
	seen := make(map[string]ContentType, len(t))
	for ct, dir := range t {
		if !ct.Known() {
			return fmt.Errorf("content types: unknown type %q", ct)
		}
		if dir == "" || dir == "." || dir == ".." || strings.ContainsAny(dir, `/\`) {
			return fmt.Errorf("content types: invalid directory %q for %q", dir, ct)
		}
		if other, dup := seen[dir]; dup {
			return fmt.Errorf("content types: directory %q used by both %q and %q", dir, other, ct)
		}
		seen[dir] = ct
	}
	for _, ct := range AllContentTypes {
		if _, ok := t[ct]; !ok {
			return fmt.Errorf("content types: missing directory for %q", ct)
		}
	}
	return nil
}
