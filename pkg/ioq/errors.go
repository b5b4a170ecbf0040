package ioq

import (
	"errors"
	"syscall"

	"github.com/flier/fsio/pkg/xerrors"
)

// ErrCanceled is the error assigned to Entry.Err for entries that were
// still pending (submitted but not yet dispatched to a worker) when
// [Queue.Cancel] ran.
var ErrCanceled = errors.New("ioq: operation canceled")

// Errno recovers the syscall.Errno underlying ent.Err, if any. It reports
// false for a nil Err, for ErrCanceled, or for any other error that isn't
// (or doesn't wrap) a syscall.Errno.
func Errno(ent *Entry) (syscall.Errno, bool) {
	if ent.Err == nil {
		return 0, false
	}

	return xerrors.AsA[syscall.Errno](ent.Err)
}
