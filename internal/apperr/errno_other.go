//go:build !unix

package apperr

import "syscall"

// No errno table off unix; Classify falls back to the io/fs sentinels.
func errnoKind(syscall.Errno) (Kind, bool) { return "", false }

func errnoName(syscall.Errno) string { return "" }
