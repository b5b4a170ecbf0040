package ioq

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/flier/fsio/internal/debug"
)

// Queue is a bounded asynchronous queue of directory-related I/O
// operations, backed by a fixed pool of worker goroutines.
//
// Producers submit requests with Close, OpenDir, or CloseDir; a consumer
// reaps completed entries with Pop or TryPop and returns them to the pool
// with Free. Producers may call the submission methods concurrently with
// each other and with the consumer; only one goroutine should call Pop or
// TryPop at a time.
type Queue struct {
	depth int

	// free, pending, and ready are each sized to depth and together hold
	// every Entry the queue owns: an entry is always in exactly one of
	// the free pool, the pending queue, in flight inside exec, the ready
	// queue, or on loan to the consumer between Pop and Free. That
	// invariant is what makes every unbuffered-looking send below safe
	// without an explicit non-blocking fallback.
	free    chan *Entry
	pending chan *Entry
	ready   chan *Entry

	wg   sync.WaitGroup
	done chan struct{}

	mu       sync.Mutex
	canceled bool

	closeOnce sync.Once
}

// New creates a queue with room for depth in-flight entries, serviced by
// nthreads worker goroutines. depth and nthreads are both clamped to 1.
func New(depth, nthreads int) *Queue {
	if depth < 1 {
		depth = 1
	}
	if nthreads < 1 {
		nthreads = 1
	}

	q := &Queue{
		depth:   depth,
		free:    make(chan *Entry, depth),
		pending: make(chan *Entry, depth),
		ready:   make(chan *Entry, depth),
		done:    make(chan struct{}),
	}

	for i := 0; i < depth; i++ {
		q.free <- new(Entry)
	}

	q.wg.Add(nthreads)
	for i := 0; i < nthreads; i++ {
		go q.worker()
	}

	return q
}

// Capacity reports the number of entries currently available in the free
// pool. It is advisory: by the time the caller acts on it, the real
// capacity may have changed.
func (q *Queue) Capacity() int {
	return len(q.free)
}

// Close submits an asynchronous close(fd).
func (q *Queue) Close(fd int, ptr any) bool {
	return q.submit(OpClose, ptr, func(ent *Entry) {
		ent.fd = fd
	})
}

// OpenDir submits an asynchronous open of path, relative to dfd, into dir.
// dir is populated on completion; it must not be read until the
// corresponding entry is popped.
func (q *Queue) OpenDir(dir *Dir, dfd int, path string, ptr any) bool {
	return q.submit(OpOpenDir, ptr, func(ent *Entry) {
		ent.dfd = dfd
		ent.path = path
		ent.dir = dir
	})
}

// CloseDir submits an asynchronous close of dir.
func (q *Queue) CloseDir(dir *Dir, ptr any) bool {
	return q.submit(OpCloseDir, ptr, func(ent *Entry) {
		ent.dir = dir
	})
}

// submit claims a free entry, fills it in with op/ptr/build, and hands it
// to a worker. It reports false without blocking if the free pool is
// empty or the queue has been canceled.
func (q *Queue) submit(op Op, ptr any, build func(*Entry)) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.canceled {
		return false
	}

	var ent *Entry
	select {
	case ent = <-q.free:
	default:
		return false
	}

	ent.Op = op
	ent.Ptr = ptr
	build(ent)

	q.pending <- ent

	debug.Log(nil, "ioq.submit", "%s ptr=%v", op, ptr)

	return true
}

// Pop blocks until a completed entry is available, or returns nil once
// the queue has been destroyed and fully drained.
func (q *Queue) Pop() *Entry {
	ent, ok := <-q.ready
	if !ok {
		return nil
	}

	return ent
}

// TryPop returns a completed entry without blocking, or nil if none is
// ready.
func (q *Queue) TryPop() *Entry {
	select {
	case ent, ok := <-q.ready:
		if !ok {
			return nil
		}

		return ent
	default:
		return nil
	}
}

// Free returns ent, previously returned by Pop or TryPop, to the free
// pool. ent must not be used again afterwards.
func (q *Queue) Free(ent *Entry) {
	ent.reset()
	q.free <- ent
}

// Cancel marks the queue as canceled: every entry still sitting in the
// pending queue is completed immediately with ErrCanceled, and all future
// submissions fail. Entries already claimed by a worker run to
// completion normally.
//
// Cancel is idempotent and safe to call concurrently with submissions.
func (q *Queue) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.canceled {
		return
	}
	q.canceled = true

	for {
		select {
		case ent := <-q.pending:
			ent.Ret = -1
			ent.Err = ErrCanceled
			q.ready <- ent

			debug.Log(nil, "ioq.cancel", "%s ptr=%v", ent.Op, ent.Ptr)
		default:
			return
		}
	}
}

// Destroy cancels the queue, waits for every worker to finish its
// in-flight operation, closes the ready queue so that a blocked Pop
// returns nil, and discards any completed entries that were never popped.
// Destroy is idempotent.
func (q *Queue) Destroy() {
	q.closeOnce.Do(func() {
		q.Cancel()
		close(q.done)
		q.wg.Wait()
		close(q.ready)
		for range q.ready {
		}
	})
}

// worker repeatedly executes pending entries until the queue is
// destroyed.
func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case ent := <-q.pending:
			q.exec(ent)
			q.ready <- ent
		case <-q.done:
			return
		}
	}
}

// exec performs the syscall an entry requests and records the result.
func (q *Queue) exec(ent *Entry) {
	switch ent.Op {
	case OpClose:
		err := unix.Close(ent.fd)
		setResult(ent, 0, err)

	case OpOpenDir:
		fd, err := unix.Openat(ent.dfd, ent.path, unix.O_RDONLY|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
		if err != nil {
			setResult(ent, -1, err)
			return
		}

		ent.dir.fd = fd
		ent.dir.file = os.NewFile(uintptr(fd), ent.path)
		setResult(ent, fd, nil)

	case OpCloseDir:
		fd := ent.dir.Fd()
		err := unix.Close(fd)
		if err == nil {
			ent.dir.fd = -1
			ent.dir.file = nil
		}
		setResult(ent, 0, err)
	}

	debug.Log(nil, "ioq.exec", "%s ret=%d err=%v", ent.Op, ent.Ret, ent.Err)
}

func setResult(ent *Entry, ret int, err error) {
	if err != nil {
		ent.Ret = -1
		ent.Err = err

		return
	}

	ent.Ret = ret
	ent.Err = nil
}
