// Package checksum computes the SHA-256 digests recorded in file metadata
// and used to verify backup copies.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// File streams the file at path through SHA-256 and returns the hex digest.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Same reports whether the files at a and b have identical contents.
func Same(a, b string) (bool, error) {
	sa, err := File(a)
	if err != nil {
		return false, err
	}
	sb, err := File(b)
	if err != nil {
		return false, err
	}
	return sa == sb, nil
}
