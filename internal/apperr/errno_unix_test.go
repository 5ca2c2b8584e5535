//go:build unix

package apperr

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestClassify_Errno(t *testing.T) {
	cases := []struct {
		errno syscall.Errno
		want  Kind
	}{
		{syscall.ENOENT, KindFileNotFound},
		{syscall.EACCES, KindPermissionDenied},
		{syscall.ENOSPC, KindDiskFull},
		{syscall.EEXIST, KindAlreadyExists},
		{syscall.ENOTDIR, KindInvalidPath},
		{syscall.EBUSY, KindLocked},
		{syscall.ETIMEDOUT, KindTimeout},
		{syscall.ENOMEM, KindOutOfMemory},
		{syscall.EINTR, KindInterrupted},
	}
	for _, c := range cases {
		err := &fs.PathError{Op: "open", Path: "/x", Err: c.errno}
		got := Classify(err, "/x")
		if got.Kind != c.want {
			t.Errorf("errno %v: kind = %s, want %s", c.errno, got.Kind, c.want)
		}
		if got.Code == "" {
			t.Errorf("errno %v: empty code", c.errno)
		}
	}
}

func TestClassify_RealMissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "missing.md")
	_, err := os.ReadFile(p)
	got := Classify(err, p)
	if got.Kind != KindFileNotFound {
		t.Fatalf("kind = %s, want %s", got.Kind, KindFileNotFound)
	}
	if got.Code != "ENOENT" {
		t.Errorf("code = %q, want ENOENT", got.Code)
	}
	if got.Details()["originalError"] == nil {
		t.Error("details missing originalError")
	}
	if !errors.Is(got, fs.ErrNotExist) {
		t.Error("errors.Is(fs.ErrNotExist) should hold through Unwrap")
	}
	if !errors.Is(got, ErrNotFound) {
		t.Error("errors.Is(ErrNotFound) should hold for FileNotFound")
	}
}

func TestErrnoTableKindsHaveMessages(t *testing.T) {
	for errno, k := range errnoKinds {
		if _, ok := messages[k]; !ok {
			t.Errorf("errno %v maps to kind %s with no message", errno, k)
		}
	}
}
