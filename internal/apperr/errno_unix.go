//go:build unix

package apperr

import (
	"syscall"

	"golang.org/x/sys/unix"
)

var errnoKinds = map[syscall.Errno]Kind{
	unix.ENOENT:       KindFileNotFound,
	unix.EACCES:       KindPermissionDenied,
	unix.EPERM:        KindPermissionDenied,
	unix.EROFS:        KindPermissionDenied,
	unix.ENOSPC:       KindDiskFull,
	unix.EDQUOT:       KindDiskFull,
	unix.EFBIG:        KindDiskFull,
	unix.EEXIST:       KindAlreadyExists,
	unix.ENOTDIR:      KindInvalidPath,
	unix.EISDIR:       KindInvalidPath,
	unix.ENAMETOOLONG: KindInvalidPath,
	unix.EINVAL:       KindInvalidPath,
	unix.ELOOP:        KindInvalidPath,
	unix.EBUSY:        KindLocked,
	unix.ETXTBSY:      KindLocked,
	unix.EAGAIN:       KindLocked,
	unix.EMFILE:       KindLocked,
	unix.ENFILE:       KindLocked,
	unix.ETIMEDOUT:    KindTimeout,
	unix.ENOMEM:       KindOutOfMemory,
	unix.EINTR:        KindInterrupted,
}

func errnoKind(errno syscall.Errno) (Kind, bool) {
	k, ok := errnoKinds[errno]
	return k, ok
}

func errnoName(errno syscall.Errno) string {
	return unix.ErrnoName(errno)
}
