package ioq

import (
	"os"
)

// Dir is a caller-allocated directory handle, analogous to a `DIR *`.
//
// A Dir starts out empty; [Queue.OpenDir] populates it asynchronously, and
// [Queue.CloseDir] consumes it. Dir is not safe for concurrent use — it is
// meant to flow through exactly one queue operation at a time.
type Dir struct {
	file *os.File
	fd   int
}

// Fd returns the underlying file descriptor, or -1 if the directory has
// not been successfully opened (or has already been closed).
func (d *Dir) Fd() int {
	if d.file == nil {
		return -1
	}

	return d.fd
}

// File returns the underlying *os.File, or nil if the directory has not
// been successfully opened.
func (d *Dir) File() *os.File {
	return d.file
}
