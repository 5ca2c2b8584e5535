package parser

import "testing"

func TestParse_YAMLFrontmatter(t *testing.T) {
	r := Parse([]byte("---\ntitle: Hello\ntags:\n  - go\n  - web\n  - go\n---\n# Heading\nBody text.\n"))
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) != 2 || r.Tags[0] != "go" || r.Tags[1] != "web" {
		t.Errorf("tags = %v, want [go web]", r.Tags)
	}
	if r.Body != "# Heading\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_TOMLFrontmatter(t *testing.T) {
	r := Parse([]byte("+++\ntitle = \"From TOML\"\n+++\nBody\n"))
	if r.Title != "From TOML" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Body != "Body\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidFrontmatterFallback(t *testing.T) {
	input := "---\n: invalid: yaml: {{{\n---\nBody\n"
	r := Parse([]byte(input))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
	if r.Body != input {
		t.Errorf("body = %q, want the whole input", r.Body)
	}
}

func TestParse_NoTitle(t *testing.T) {
	if r := Parse([]byte("plain text\n## Second level\n")); r.Title != "" {
		t.Errorf("title = %q, want empty", r.Title)
	}
}
