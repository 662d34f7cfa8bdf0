package nexplock

import (
	"io"
	"os"
	"sync/atomic"
)

// Stream is the capability set DirectStream exposes: read, write, flush,
// length, close. *DirectStream satisfies it; StorageService and
// VaultService construct and use *DirectStream directly rather than
// taking a Stream.
type Stream interface {
	io.Reader
	io.Writer
	Flush() error
	Length() (int64, error)
	Close() error
}

// DirectStream is a file stream opened write-through, with a
// platform-specific durable flush and a sequential-access hint. Platform
// construction (I/O priority, page-cache bypass, write-through flags)
// lives in directstream_<goos>.go; this file holds what all three
// variants share: the underlying handle, the idempotent Close, and the
// single-slot flush gate that elides overlapping flushes.
type DirectStream struct {
	file   *os.File
	path   string
	logger Logger

	flushing atomic.Bool
	closed   atomic.Bool
}

// NewDirectStream opens path with the given flags, applies the
// platform's write-through and durability hints, and returns a ready
// DirectStream. Warnings from advisory syscalls are discarded; use
// NewDirectStreamWithLogger to receive them.
func NewDirectStream(path string, flag int, perm os.FileMode) (*DirectStream, error) {
	return newDirectStreamWithLogger(path, flag, perm, nil)
}

// NewDirectStreamWithLogger is NewDirectStream with an explicit warning
// sink for advisory syscall failures.
func NewDirectStreamWithLogger(path string, flag int, perm os.FileMode, logger Logger) (*DirectStream, error) {
	return newDirectStreamWithLogger(path, flag, perm, logger)
}

func newDirectStreamWithLogger(path string, flag int, perm os.FileMode, logger Logger) (*DirectStream, error) {
	f, err := openWriteThrough(path, flag, perm)
	if err != nil {
		return nil, NewIOError("open", path, err)
	}

	ds := &DirectStream{file: f, path: path, logger: loggerOrNop(logger)}
	if err := ds.configurePlatform(); err != nil {
		f.Close()
		return nil, err
	}
	return ds, nil
}

// Read reads from the current stream position.
func (ds *DirectStream) Read(p []byte) (int, error) {
	if ds.closed.Load() {
		return 0, ErrAlreadyClosed
	}
	n, err := ds.file.Read(p)
	if err != nil && err != io.EOF {
		return n, NewIOError("read", ds.path, err)
	}
	return n, err
}

// Write appends to the current stream position.
func (ds *DirectStream) Write(p []byte) (int, error) {
	if ds.closed.Load() {
		return 0, ErrAlreadyClosed
	}
	n, err := ds.file.Write(p)
	if err != nil {
		return n, NewIOError("write", ds.path, err)
	}
	return n, nil
}

// Length reports the current size of the underlying file.
func (ds *DirectStream) Length() (int64, error) {
	if ds.closed.Load() {
		return 0, ErrAlreadyClosed
	}
	info, err := ds.file.Stat()
	if err != nil {
		return 0, NewIOError("stat", ds.path, err)
	}
	return info.Size(), nil
}

// Flush flushes any buffered data then performs the platform-specific
// durable flush. A second flush that overlaps with one already in
// flight is elided and returns nil immediately: the in-flight flush
// already covers the data the second caller cares about.
func (ds *DirectStream) Flush() error {
	if ds.closed.Load() {
		return ErrAlreadyClosed
	}
	if !ds.flushing.CompareAndSwap(false, true) {
		return nil
	}
	defer ds.flushing.Store(false)

	return ds.durableFlush()
}

// Close idempotently closes the stream after a final durable flush.
// Subsequent operations fail with ErrAlreadyClosed.
func (ds *DirectStream) Close() error {
	if !ds.closed.CompareAndSwap(false, true) {
		return nil
	}
	return ds.file.Close()
}

// Fd exposes the raw file descriptor/handle for platform-specific
// syscalls. Only directstream_<goos>.go callers should use this.
func (ds *DirectStream) Fd() uintptr {
	return ds.file.Fd()
}
