package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/dirs"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	base := filepath.Join(t.TempDir(), "markdown")
	table := models.DefaultDirectoryTable()
	pg, err := pathgen.New(base, table)
	if err != nil {
		t.Fatalf("pathgen.New: %v", err)
	}
	dm, err := dirs.New(base, table, nil)
	if err != nil {
		t.Fatalf("dirs.New: %v", err)
	}
	return New(pg, dm, DefaultPolicy(), nil)
}

func TestCRUDRoundTrip(t *testing.T) {
	s := tempStore(t)
	path, err := s.Create("hello", models.ContentTypeBlog, "X")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got, err := s.Read(path); err != nil || got != "X" {
		t.Fatalf("Read = %q, %v; want X", got, err)
	}
	if err := s.Update(path, "Y"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := s.Read(path); got != "Y" {
		t.Errorf("after update = %q, want Y", got)
	}
	if err := s.Delete(path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists(path) {
		t.Error("file still exists after Delete")
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("Delete removed the parent directory: %v", err)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	s := tempStore(t)
	path, err := s.Create("dup", models.ContentTypePortfolio, "first")
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Create("dup", models.ContentTypePortfolio, "second")
	if !apperr.Is(err, apperr.KindAlreadyExists) {
		t.Fatalf("err = %v, want AlreadyExists", err)
	}
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Error("errors.Is(err, ErrAlreadyExists) = false")
	}
	if got, _ := s.Read(path); got != "first" {
		t.Errorf("content = %q, want first", got)
	}

	if _, err := s.Create("dup", models.ContentTypePortfolio, "second", WithOverwrite()); err != nil {
		t.Fatalf("Create WithOverwrite: %v", err)
	}
	if got, _ := s.Read(path); got != "second" {
		t.Errorf("after overwrite = %q, want second", got)
	}
}

func TestCreate_Rejections(t *testing.T) {
	s := tempStore(t)
	cases := []struct {
		name    string
		id      string
		ct      models.ContentType
		content string
		kind    apperr.Kind
	}{
		{"bad id", "a/b", models.ContentTypeBlog, "x", apperr.KindValidation},
		{"long id", strings.Repeat("a", 101), models.ContentTypeBlog, "x", apperr.KindValidation},
		{"unknown type", "a", "video", "x", apperr.KindUnsupportedType},
		{"script", "a", models.ContentTypeBlog, "hi <script>alert(1)</script>", apperr.KindInvalidContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Create(tc.id, tc.ct, tc.content); !apperr.Is(err, tc.kind) {
				t.Errorf("err = %v, want %s", err, tc.kind)
			}
		})
	}
	if files, _ := s.List(models.ContentTypeBlog); len(files) != 0 {
		t.Errorf("rejected creates left %d files", len(files))
	}
}

func TestReadMissing(t *testing.T) {
	s := tempStore(t)
	_, err := s.Read("blog/missing.md")
	if !apperr.Is(err, apperr.KindFileNotFound) {
		t.Errorf("err = %v, want FileNotFound", err)
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Error("errors.Is(err, ErrNotFound) = false")
	}
}

func TestTraversalRejected(t *testing.T) {
	s := tempStore(t)
	for _, p := range []string{"blog/../../secret.md", "../outside.md", "blog/a.txt", "/etc/passwd"} {
		if _, err := s.Read(p); !apperr.Is(err, apperr.KindInvalidPath) {
			t.Errorf("Read(%q) err = %v, want InvalidPath", p, err)
		}
		if s.Exists(p) {
			t.Errorf("Exists(%q) = true", p)
		}
	}
}

func TestUpdate_RequiresExisting(t *testing.T) {
	s := tempStore(t)
	if err := s.Update("page/nope.md", "x"); !apperr.Is(err, apperr.KindFileNotFound) {
		t.Errorf("err = %v, want FileNotFound", err)
	}
	if err := s.Delete("page/nope.md"); !apperr.Is(err, apperr.KindFileNotFound) {
		t.Errorf("delete err = %v, want FileNotFound", err)
	}
}

func TestUpdate_UnsafeKeepsOriginal(t *testing.T) {
	s := tempStore(t)
	path, _ := s.Create("safe", models.ContentTypePage, "ok")
	err := s.Update(path, `<img src=x onerror="alert(1)">`)
	if !apperr.Is(err, apperr.KindInvalidContent) {
		t.Fatalf("err = %v, want InvalidContent", err)
	}
	var e *apperr.Error
	if errors.As(err, &e) && e.Path != path {
		t.Errorf("error path = %q, want %q", e.Path, path)
	}
	if got, _ := s.Read(path); got != "ok" {
		t.Errorf("content = %q, want ok", got)
	}
}

func TestUpdate_WithBackup(t *testing.T) {
	s := tempStore(t)
	path, _ := s.Create("b", models.ContentTypeTool, "v1")
	if err := s.Update(path, "v2", WithBackup()); err != nil {
		t.Fatal(err)
	}
	bak, err := os.ReadFile(path + BackupSuffix)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	if string(bak) != "v1" {
		t.Errorf("backup = %q, want v1", bak)
	}
	files, _ := s.List(models.ContentTypeTool)
	if len(files) != 1 {
		t.Errorf("List returned %d files, backup should not be listed", len(files))
	}
}

func TestMetadataAndList(t *testing.T) {
	s := tempStore(t)
	if files, err := s.List(models.ContentTypeDownload); err != nil || files == nil || len(files) != 0 {
		t.Fatalf("List on absent dir = %v, %v; want empty slice", files, err)
	}

	s.Create("b", models.ContentTypeDownload, "bb")
	path, _ := s.Create("a", models.ContentTypeDownload, "a")

	md, err := s.Metadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if md.ID != "a" || md.ContentType != models.ContentTypeDownload || md.FilePath != "download/a.md" || md.Size != 1 {
		t.Errorf("metadata = %+v", md)
	}
	if len(md.Checksum) != 64 {
		t.Errorf("checksum = %q", md.Checksum)
	}

	files, err := s.List(models.ContentTypeDownload)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 || files[0].FilePath != "download/a.md" || files[1].FilePath != "download/b.md" {
		t.Errorf("List = %+v", files)
	}
}

func TestRelativeRoundTrip(t *testing.T) {
	s := tempStore(t)
	path, _ := s.Create("rt", models.ContentTypeOther, "x")
	rel, err := s.ToRelative(path)
	if err != nil {
		t.Fatal(err)
	}
	back, err := s.ToAbsolute(rel)
	if err != nil || back != path {
		t.Errorf("round trip = %q, %v; want %q", back, err, path)
	}
	if got, err := s.Read(rel); err != nil || got != "x" {
		t.Errorf("Read(relative) = %q, %v", got, err)
	}
}
