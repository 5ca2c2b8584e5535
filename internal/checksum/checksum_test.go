package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileMatchesSum(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.md")
	data := []byte("# Title\nbody\n")
	if err := os.WriteFile(p, data, 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := File(p)
	if err != nil {
		t.Fatal(err)
	}
	if want := Sum(data); got != want {
		t.Errorf("File = %s, want %s", got, want)
	}
	if Sum(nil) != "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855" {
		t.Errorf("empty digest = %s", Sum(nil))
	}
}

func TestSame(t *testing.T) {
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a"), filepath.Join(dir, "b"), filepath.Join(dir, "c")
	for p, body := range map[string]string{a: "x", b: "x", c: "y"} {
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if same, err := Same(a, b); err != nil || !same {
		t.Errorf("Same(a, b) = %v, %v", same, err)
	}
	if same, _ := Same(a, c); same {
		t.Error("Same(a, c) = true")
	}
	if _, err := Same(a, filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}
