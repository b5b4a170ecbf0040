// Package ioq implements a bounded, multi-worker asynchronous queue for
// directory-related syscalls.
//
// A [Queue] lets one or more producers submit close/opendir/closedir
// requests without blocking on the syscall itself; a pool of worker
// goroutines executes them and a single consumer reaps completions with
// Pop or TryPop. Backpressure is provided by a fixed-size pool of reusable
// [Entry] records: once every entry is in flight, further submissions fail
// until the consumer frees one.
package ioq

// Op identifies which syscall an [Entry] requests.
type Op int

const (
	// OpClose is an asynchronous close(fd).
	OpClose Op = iota
	// OpOpenDir is an asynchronous directory open, populating Entry's Dir.
	OpOpenDir
	// OpCloseDir is an asynchronous directory close.
	OpCloseDir
)

// String returns the name of the operation, for logging.
func (op Op) String() string {
	switch op {
	case OpClose:
		return "close"
	case OpOpenDir:
		return "opendir"
	case OpCloseDir:
		return "closedir"
	default:
		return "unknown"
	}
}

// Entry is a single I/O queue request/response record.
//
// Entries are reused: a Queue owns a fixed pool of them, handed out by
// Close/OpenDir/CloseDir and returned by the consumer via [Queue.Free].
// Callers must not retain an *Entry after freeing it.
type Entry struct {
	// Op is the operation this entry requested.
	Op Op

	// Ret is the raw return value of the underlying syscall, as in the
	// C convention of returning -1 on failure, 0 (or an fd) on success.
	Ret int

	// Err is nil on success, a syscall.Errno on syscall failure, or
	// ErrCanceled if the entry was canceled before it ran.
	Err error

	// Ptr is an arbitrary caller-supplied correlation token, returned
	// unchanged on completion.
	Ptr any

	fd   int
	dfd  int
	path string
	dir  *Dir
}

// reset clears an entry's fields before it is returned to the free pool,
// so that stale state (in particular dir and path, which can pin large
// objects) isn't retained across reuse.
func (e *Entry) reset() {
	e.Op = 0
	e.Ret = 0
	e.Err = nil
	e.Ptr = nil
	e.fd = 0
	e.dfd = 0
	e.path = ""
	e.dir = nil
}
