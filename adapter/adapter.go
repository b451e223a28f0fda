// Package adapter defines the boundary between the core scan pipeline
// and an external deleted-entry enumerator (the Sleuth-Kit-class tool
// that can walk a live filesystem's own deleted-but-unreclaimed
// directory entries). The core never implements such an enumerator
// itself; it only calls through this interface and bounds the call
// with a wall-clock timeout so a hung external tool can never stall a
// scan indefinitely.
package adapter

import (
	"context"
	"time"
)

// DeletedEntry is one filesystem-reported deleted file a real adapter
// discovers by walking on-disk directory/MFT/inode structures.
type DeletedEntry struct {
	Name            string
	Path            string
	Extension       string
	Category        string
	Size            int64
	InodeEquivalent string
	ByteOffset      int64
	DeletedTime     time.Time
}

// Reader performs fragmented-file-aware reads keyed by the adapter's
// own inode-equivalent identifier, rather than a flat byte offset.
type Reader interface {
	ReadRandom(ctx context.Context, inode string, offset, length int64) ([]byte, error)
}

// Adapter enumerates deleted entries still visible in filesystem
// metadata for a source and category filter.
type Adapter interface {
	Name() string
	Enumerate(ctx context.Context, sourcePath string, categories []string, onFound func(DeletedEntry)) ([]DeletedEntry, error)
	Reader() Reader
}

// DefaultTimeout bounds every call into an Adapter; a real binding
// (e.g. a Sleuth-Kit wrapper) can hang on damaged metadata, and the
// Orchestrator must keep making forward progress with raw carving.
const DefaultTimeout = 60 * time.Second

// CallWithTimeout runs fn with DefaultTimeout and reports whether it
// completed in time. On timeout fn's goroutine is abandoned (its
// context is cancelled but the call is not forcibly killed); callers
// should treat a timeout as "no filesystem adapter data available"
// and continue with brute-force carving per spec's AdapterTimeout
// condition.
func CallWithTimeout(parent context.Context, fn func(ctx context.Context) ([]DeletedEntry, error)) ([]DeletedEntry, error, bool) {
	return callWithTimeout(parent, DefaultTimeout, fn)
}

// callWithTimeout is CallWithTimeout with a caller-chosen bound.
func callWithTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) ([]DeletedEntry, error)) ([]DeletedEntry, error, bool) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	type result struct {
		entries []DeletedEntry
		err     error
	}
	done := make(chan result, 1)
	go func() {
		entries, err := fn(ctx)
		done <- result{entries, err}
	}()

	select {
	case r := <-done:
		return r.entries, r.err, true
	case <-ctx.Done():
		return nil, ctx.Err(), false
	}
}

// NullAdapter is the only implementation shipped in this module;
// wiring a real filesystem-adapter binding is out of scope, the same
// way a GUI front end sits outside the core.
type NullAdapter struct{}

func (NullAdapter) Name() string { return "null" }

func (NullAdapter) Enumerate(ctx context.Context, sourcePath string, categories []string, onFound func(DeletedEntry)) ([]DeletedEntry, error) {
	return nil, nil
}

func (NullAdapter) Reader() Reader { return nullReader{} }

type nullReader struct{}

func (nullReader) ReadRandom(ctx context.Context, inode string, offset, length int64) ([]byte, error) {
	return nil, nil
}

var _ Adapter = NullAdapter{}
