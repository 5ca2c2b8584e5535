package models

import (
	"strings"
	"testing"
)

func TestValidateContentID(t *testing.T) {
	valid := []string{"a", "my-post_01", strings.Repeat("x", 100)}
	for _, id := range valid {
		if err := ValidateContentID(id); err != nil {
			t.Errorf("ValidateContentID(%q) = %v, want nil", id, err)
		}
	}
	invalid := []string{"", "../x", "a b", "a.md", "ü", strings.Repeat("x", 101)}
	for _, id := range invalid {
		if err := ValidateContentID(id); err == nil {
			t.Errorf("ValidateContentID(%q) = nil, want error", id)
		}
	}
}

func TestParseContentType(t *testing.T) {
	if ct, ok := ParseContentType(" Blog "); !ok || ct != ContentTypeBlog {
		t.Errorf("ParseContentType(Blog) = %q, %v", ct, ok)
	}
	if _, ok := ParseContentType("video"); ok {
		t.Error("unknown type should be rejected")
	}
}

func TestDirectoryTable_Validate(t *testing.T) {
	if err := DefaultDirectoryTable().Validate(); err != nil {
		t.Fatalf("default table: %v", err)
	}

	missing := DefaultDirectoryTable()
	delete(missing, ContentTypeBlog)
	if err := missing.Validate(); err == nil {
		t.Error("table missing a type should fail")
	}

	dup := DefaultDirectoryTable()
	dup[ContentTypeBlog] = "portfolio"
	if err := dup.Validate(); err == nil {
		t.Error("duplicate directory should fail")
	}

	nested := DefaultDirectoryTable()
	nested[ContentTypeBlog] = "a/b"
	if err := nested.Validate(); err == nil {
		t.Error("nested directory should fail")
	}
}

func TestDirectoryTable_TypeForDir(t *testing.T) {
	table := DefaultDirectoryTable()
	table[ContentTypeBlog] = "posts"
	if ct, ok := table.TypeForDir("posts"); !ok || ct != ContentTypeBlog {
		t.Errorf("TypeForDir(posts) = %q, %v", ct, ok)
	}
	if _, ok := table.TypeForDir("blog"); ok {
		t.Error("old directory name should not resolve")
	}
}
