// Package block provides sector-aligned random access to a raw block device
// or disk image, plus a chunk iterator used by the carving scan loop.
//
// Reads are served from an mmap mapping when one is available (regular
// files and block-special files that support it) and fall through to
// seek+read otherwise. The public surface only ever hands out copies of the
// underlying bytes so callers never have to reason about mapping lifetime.
package block

import (
	"io"
	"os"
	"sync"

	"github.com/arnesen/recoverd/errs"
)

// SectorSize is the alignment unit every read is rounded down to before it
// reaches the source, as required for character devices.
const SectorSize = 512

// Reader opens a single source (raw block device or regular file) for
// read-only, random access. A Reader is scoped to one open source; Close
// guarantees the mmap mapping (if any) and the underlying file handle are
// released on every exit path.
type Reader struct {
	mu     sync.Mutex
	file   *os.File
	path   string
	size   int64
	mapped []byte // non-nil when the source is memory-mapped
	closed bool
}

// Open opens path for read-only access and determines its size. It attempts
// to memory-map the source; failure to map is not fatal, the Reader falls
// back to seek+read.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, errs.NewPermissionError("cannot open " + path)
		}
		return nil, errs.NewSourceOpenError("cannot open "+path, err)
	}

	size, err := sourceSize(f)
	if err != nil {
		f.Close()
		return nil, errs.NewSourceOpenError("cannot determine size of "+path, err)
	}

	r := &Reader{file: f, path: path, size: size}
	if mapped, ok := tryMmap(f, size); ok {
		r.mapped = mapped
	}
	return r, nil
}

// Size returns the total size of the source, in bytes.
func (r *Reader) Size() int64 {
	return r.size
}

// Path returns the path the Reader was opened from, so candidates can be
// re-read later (e.g. by the Saver) without threading the handle around.
func (r *Reader) Path() string {
	return r.path
}

// Mmapped reports whether reads are currently served from a memory mapping.
func (r *Reader) Mmapped() bool {
	return r.mapped != nil
}

// Close releases the mmap mapping, if any, and the underlying file handle.
// It is safe to call more than once.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var mmapErr error
	if r.mapped != nil {
		mmapErr = munmap(r.mapped)
		r.mapped = nil
	}
	closeErr := r.file.Close()
	if mmapErr != nil {
		return mmapErr
	}
	return closeErr
}

// alignDown rounds offset down to the nearest sector boundary.
func alignDown(offset int64) int64 {
	return offset - (offset % SectorSize)
}

// ReadAt returns up to size bytes starting at offset. The offset is aligned
// down to a sector boundary before issuing the read, and the returned slice
// may be shorter than requested at end-of-source. When served from an mmap
// mapping the returned slice is a fresh copy, never a view into the
// mapping, so callers may hold onto it after the Reader closes.
func (r *Reader) ReadAt(offset int64, size int) ([]byte, error) {
	if offset < 0 || size <= 0 {
		return nil, nil
	}

	aligned := alignDown(offset)
	drift := offset - aligned
	wantEnd := offset + int64(size)
	if wantEnd > r.size {
		wantEnd = r.size
	}
	if aligned >= r.size {
		return nil, nil
	}

	readLen := wantEnd - aligned
	if readLen <= 0 {
		return nil, nil
	}

	var raw []byte
	var err error
	if r.mapped != nil {
		raw, err = r.readFromMap(aligned, readLen)
	} else {
		raw, err = r.readFromFile(aligned, readLen)
	}
	if err != nil && len(raw) == 0 {
		return nil, err
	}

	if drift >= int64(len(raw)) {
		return nil, nil
	}
	return raw[drift:], nil
}

func (r *Reader) readFromMap(offset, length int64) ([]byte, error) {
	end := offset + length
	if end > int64(len(r.mapped)) {
		end = int64(len(r.mapped))
	}
	out := make([]byte, end-offset)
	copy(out, r.mapped[offset:end])
	return out, nil
}

func (r *Reader) readFromFile(offset, length int64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := r.file.ReadAt(buf, offset)
	if n > 0 {
		// A short read at end-of-source or a recoverable mid-read error is
		// not fatal: truncate to what was actually read and continue.
		if err != nil && err != io.EOF {
			return buf[:n], errs.NewReadError("short read", err)
		}
		return buf[:n], nil
	}
	if err != nil && err != io.EOF {
		return nil, errs.NewReadError("read failed", err)
	}
	return nil, nil
}

func sourceSize(f *os.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	if info.Mode()&os.ModeDevice == 0 {
		return info.Size(), nil
	}
	// Character/block devices report a zero regular size; seek to the end
	// instead to discover their true length.
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return end, nil
}
