//go:build unix

package block

import (
	"os"

	"golang.org/x/sys/unix"
)

// tryMmap attempts to map the whole source read-only. Any failure (e.g. the
// source is a pipe, or mmap is unsupported for this device class) is
// reported as "not mapped" rather than an error: failing to map is never
// fatal, the caller falls back to seek+read.
func tryMmap(f *os.File, size int64) ([]byte, bool) {
	if size <= 0 {
		return nil, false
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, false
	}
	return data, true
}

func munmap(data []byte) error {
	return unix.Munmap(data)
}
