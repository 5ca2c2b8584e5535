// Package apperr maps low-level failures onto a closed error taxonomy. Every
// component that touches disk routes its failures through Classify so callers
// can branch on Kind instead of platform error codes.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the machine-checkable failure category.
type Kind string

// Failure kinds.
const (
	KindUnknown          Kind = "Unknown"
	KindFileNotFound     Kind = "FileNotFound"
	KindPermissionDenied Kind = "PermissionDenied"
	KindDiskFull         Kind = "DiskFull"
	KindInvalidPath      Kind = "InvalidPath"
	KindInvalidContent   Kind = "InvalidContent"
	KindEmbed            Kind = "EmbedError"
	KindMigration        Kind = "MigrationError"
	KindValidation       Kind = "ValidationError"
	KindAlreadyExists    Kind = "AlreadyExists"
	KindUnsupportedType  Kind = "UnsupportedContentType"
	KindPathExhausted    Kind = "PathExhausted"
	KindLocked           Kind = "Locked"
	KindTimeout          Kind = "Timeout"
	KindOutOfMemory      Kind = "OutOfMemory"
	KindInterrupted      Kind = "Interrupted"
)

// Sentinels kept for errors.Is checks at the API boundary.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

var messages = map[Kind]string{
	KindUnknown:          "unexpected file system error",
	KindFileNotFound:     "file not found",
	KindPermissionDenied: "permission denied",
	KindDiskFull:         "not enough disk space",
	KindInvalidPath:      "invalid file path",
	KindInvalidContent:   "invalid content",
	KindEmbed:            "invalid embed reference",
	KindMigration:        "migration failed",
	KindValidation:       "validation failed",
	KindAlreadyExists:    "file already exists",
	KindUnsupportedType:  "unsupported content type",
	KindPathExhausted:    "no free file name available",
	KindLocked:           "resource is locked or busy",
	KindTimeout:          "operation timed out",
	KindOutOfMemory:      "out of memory",
	KindInterrupted:      "operation interrupted",
}

var suggestions = map[Kind]string{
	KindUnknown:          "Retry the operation; if it keeps failing, check the server logs.",
	KindFileNotFound:     "Check that the content item exists and has been migrated to markdown.",
	KindPermissionDenied: "Check the file and directory permissions of the markdown storage.",
	KindDiskFull:         "Free up disk space and try again.",
	KindInvalidPath:      "Use a path of the form <content-type>/<content-id>.md inside the markdown directory.",
	KindInvalidContent:   "Remove scripts, inline event handlers and control characters, or shorten the content.",
	KindEmbed:            "Make sure every embed index points at an existing image, video or link.",
	KindMigration:        "Check the migration results for the failing items and rerun the migration.",
	KindValidation:       "Correct the highlighted input and submit again.",
	KindAlreadyExists:    "Edit the existing file, or choose a different content id.",
	KindUnsupportedType:  "Use one of the supported content types.",
	KindPathExhausted:    "Choose a different content id.",
	KindLocked:           "Wait for the other operation to finish and try again.",
	KindTimeout:          "Try again in a moment.",
	KindOutOfMemory:      "Try again with smaller content or fewer items per batch.",
	KindInterrupted:      "Run the operation again.",
}

// Message returns the default human message for k.
func (k Kind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return messages[KindUnknown]
}

// Suggestion returns the user-facing remediation hint for k.
func (k Kind) Suggestion() string {
	if s, ok := suggestions[k]; ok {
		return s
	}
	return suggestions[KindUnknown]
}

// Error is a classified failure. Err always carries the original error.
type Error struct {
	Kind       Kind
	Code       string // OS error code name (e.g. "ENOENT"), empty when not OS-originated
	Path       string
	Message    string
	Suggestion string
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (%s)", e.Path)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the original error.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the package sentinels by kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindFileNotFound
	case ErrAlreadyExists:
		return e.Kind == KindAlreadyExists
	}
	return false
}

// Details returns the structured fields intended for logs.
func (e *Error) Details() map[string]any {
	d := map[string]any{
		"type": string(e.Kind),
		"path": e.Path,
	}
	if e.Code != "" {
		d["code"] = e.Code
	}
	if e.Err != nil {
		d["originalError"] = e.Err.Error()
	}
	return d
}

// New returns an error of kind with msg; an empty msg uses the kind's default.
func New(kind Kind, path, msg string) *Error {
	if msg == "" {
		msg = kind.Message()
	}
	return &Error{
		Kind:       kind,
		Path:       path,
		Message:    msg,
		Suggestion: kind.Suggestion(),
	}
}

// Newf is New with a formatted message.
func Newf(kind Kind, path, format string, args ...any) *Error {
	return New(kind, path, fmt.Sprintf(format, args...))
}

// Wrap is New with an underlying cause.
func Wrap(kind Kind, path, msg string, err error) *Error {
	e := New(kind, path, msg)
	e.Err = err
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
