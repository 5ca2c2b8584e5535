package apperr

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"syscall"
)

// Classify maps err, raised while operating on path, to the taxonomy.
// Already-classified errors pass through (with path filled in if missing).
// The original error is always kept in Err.
func Classify(err error, path string) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		if ae.Path == "" && path != "" {
			cp := *ae
			cp.Path = path
			return &cp
		}
		return ae
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if kind, ok := errnoKind(errno); ok {
			e := Wrap(kind, path, "", err)
			e.Code = errnoName(errno)
			return e
		}
	}

	return Wrap(sentinelKind(err), path, "", err)
}

func sentinelKind(err error) Kind {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindInterrupted
	case errors.Is(err, fs.ErrNotExist):
		return KindFileNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermissionDenied
	case errors.Is(err, fs.ErrExist):
		return KindAlreadyExists
	case errors.Is(err, fs.ErrInvalid):
		return KindInvalidPath
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		return KindInvalidContent
	}
	return KindUnknown
}
