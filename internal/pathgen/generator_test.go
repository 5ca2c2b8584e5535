package pathgen

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

func newGen(t *testing.T, opts ...Option) *Generator {
	t.Helper()
	g, err := New(t.TempDir(), models.DefaultDirectoryTable(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func TestGenerate_ContainmentAndParse(t *testing.T) {
	g := newGen(t)
	for _, ct := range models.AllContentTypes {
		for _, id := range []string{"a", "my-post_2025", strings.Repeat("z", 100)} {
			p, err := g.Generate(id, ct, Options{})
			if err != nil {
				t.Fatalf("Generate(%q, %s): %v", id, ct, err)
			}
			if !strings.HasPrefix(filepath.Clean(p), g.Base()+string(filepath.Separator)) {
				t.Errorf("path %q escapes base %q", p, g.Base())
			}
			parsed := g.Parse(p)
			if !parsed.IsValid || parsed.ContentID != id || parsed.ContentType != ct {
				t.Errorf("Parse(%q) = %+v", p, parsed)
			}
			if res := g.Validate(p); !res.IsValid {
				t.Errorf("Validate(%q) = %v", p, res.Errors)
			}
		}
	}
}

func TestGenerate_RoundTrip(t *testing.T) {
	g := newGen(t)
	p, err := g.Generate("hello", models.ContentTypeBlog, Options{})
	if err != nil {
		t.Fatal(err)
	}
	rel, err := g.ToRelative(p)
	if err != nil {
		t.Fatalf("ToRelative: %v", err)
	}
	if rel != "blog/hello.md" {
		t.Errorf("rel = %q, want blog/hello.md", rel)
	}
	back, err := g.ToAbsolute(rel)
	if err != nil {
		t.Fatalf("ToAbsolute: %v", err)
	}
	if back != p {
		t.Errorf("round trip = %q, want %q", back, p)
	}
}

func TestGenerate_UnknownType(t *testing.T) {
	g := newGen(t)
	_, err := g.Generate("a", models.ContentType("video"), Options{})
	if !apperr.Is(err, apperr.KindUnsupportedType) {
		t.Errorf("err = %v, want UnsupportedContentType", err)
	}
}

func TestGenerate_InvalidIDWithoutSanitize(t *testing.T) {
	g := newGen(t)
	for _, id := range []string{"", "../x", "a b", strings.Repeat("x", 101)} {
		if _, err := g.Generate(id, models.ContentTypeBlog, Options{}); err == nil {
			t.Errorf("Generate(%q) should fail", id)
		}
	}
}

func TestGenerate_Sanitize(t *testing.T) {
	g := newGen(t)
	cases := map[string]string{
		"Hello World!":  "HelloWorld",
		"a--b__c..d":    "a-b_c.d",
		"../../etc":     "etc",
		"日本語":           "untitled",
		"":              "untitled",
		"keep.dots-ok_": "keep.dots-ok_",
	}
	for in, want := range cases {
		p, err := g.Generate(in, models.ContentTypePage, Options{SanitizeNames: true})
		if err != nil {
			t.Fatalf("Generate(%q): %v", in, err)
		}
		if got := strings.TrimSuffix(filepath.Base(p), Extension); got != want {
			t.Errorf("sanitize(%q) = %q, want %q", in, got, want)
		}
		if !g.Parse(p).IsValid {
			t.Errorf("Parse(%q) invalid for a generated path", p)
		}
	}
}

func TestGenerate_Timestamp(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := newGen(t, WithClock(func() time.Time { return fixed }))
	p, err := g.Generate("post", models.ContentTypeBlog, Options{AddTimestamp: true})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != "post-1700000000000.md" {
		t.Errorf("name = %q", filepath.Base(p))
	}
}

func TestGenerate_Truncates(t *testing.T) {
	g := newGen(t, WithMaxFilenameLength(20))
	p, err := g.Generate(strings.Repeat("a", 50), models.ContentTypeBlog, Options{SanitizeNames: true})
	if err != nil {
		t.Fatal(err)
	}
	name := filepath.Base(p)
	if len(name) != 20 || !strings.HasSuffix(name, Extension) {
		t.Errorf("name = %q (len %d), want 20 chars ending in .md", name, len(name))
	}

	p, err = g.Generate("short", models.ContentTypeBlog, Options{MaxLength: 8})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(p) != "short.md" {
		t.Errorf("per-call limit: name = %q", filepath.Base(p))
	}
}

func TestGenerateUnique(t *testing.T) {
	g := newGen(t)
	first, _ := g.Generate("dup", models.ContentTypeTool, Options{})
	got, err := g.GenerateUnique("dup", models.ContentTypeTool, []string{first, "tool/dup-1.md"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "dup-2.md" {
		t.Errorf("unique = %q, want dup-2.md", filepath.Base(got))
	}

	free, err := g.GenerateUnique("fresh", models.ContentTypeTool, []string{first}, Options{})
	if err != nil || filepath.Base(free) != "fresh.md" {
		t.Errorf("unique for free id = %q, %v", free, err)
	}
}

func TestGenerateUnique_Exhausted(t *testing.T) {
	g := newGen(t)
	existing := []string{"tool/x.md"}
	for i := 1; i <= MaxUniqueAttempts; i++ {
		existing = append(existing, fmt.Sprintf("tool/x-%d.md", i))
	}
	_, err := g.GenerateUnique("x", models.ContentTypeTool, existing, Options{})
	if !apperr.Is(err, apperr.KindPathExhausted) {
		t.Errorf("err = %v, want PathExhausted", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	g := newGen(t)
	base := g.Base()
	cases := []string{
		base + "/portfolio/../../etc/passwd.md",
		"portfolio/../../etc/passwd.md",
		"portfolio/a.txt",
		`portfolio\sub/a.md`,
		"portfolio/a<b>.md",
		"portfolio/a|b.md",
		"portfolio/deep/nested/a.md",
		"/etc/passwd.md",
		"",
	}
	for _, p := range cases {
		if res := g.Validate(p); res.IsValid || len(res.Errors) == 0 {
			t.Errorf("Validate(%q) = valid, want errors", p)
		}
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	g := newGen(t)
	res := g.Validate("a/../b*.txt")
	if len(res.Errors) < 3 {
		t.Errorf("errors = %v, want extension, traversal and character errors", res.Errors)
	}
}

func TestParse_Invalid(t *testing.T) {
	g := newGen(t)
	cases := []string{
		"portfolio.md",
		"unknown/a.md",
		"portfolio/a.txt",
		"portfolio/.md",
		"portfolio/x/a.md",
		"../portfolio/a.md",
		"portfolio/a b.md",
		"portfolio/.hidden.md",
		"blog/caf\u00e9.md",
		"blog/a;b.md",
		"",
	}
	for _, p := range cases {
		if g.Parse(p).IsValid {
			t.Errorf("Parse(%q) should be invalid", p)
		}
	}
}

func TestResolve(t *testing.T) {
	g := newGen(t)
	abs, err := g.Resolve("blog/a.md")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if abs != filepath.Join(g.Base(), "blog", "a.md") {
		t.Errorf("abs = %q", abs)
	}
	if _, err := g.Resolve("unknown/a.md"); !apperr.Is(err, apperr.KindInvalidPath) {
		t.Errorf("unknown dir: err = %v, want InvalidPath", err)
	}
	if _, err := g.Resolve("blog/../../x.md"); !apperr.Is(err, apperr.KindInvalidPath) {
		t.Errorf("traversal: err = %v, want InvalidPath", err)
	}
}

func TestCustomDirectoryTable(t *testing.T) {
	table := models.DefaultDirectoryTable()
	table[models.ContentTypeBlog] = "posts"
	g, err := New(t.TempDir(), table)
	if err != nil {
		t.Fatal(err)
	}
	p, _ := g.Generate("a", models.ContentTypeBlog, Options{})
	rel, _ := g.ToRelative(p)
	if rel != "posts/a.md" {
		t.Errorf("rel = %q, want posts/a.md", rel)
	}
	if parsed := g.Parse(rel); parsed.ContentType != models.ContentTypeBlog {
		t.Errorf("parsed type = %q", parsed.ContentType)
	}
}
