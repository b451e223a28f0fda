//go:build !unix

package block

import "os"

// tryMmap is unavailable on non-Unix platforms in this build; the Reader
// transparently falls back to seek+read.
func tryMmap(f *os.File, size int64) ([]byte, bool) {
	return nil, false
}

func munmap(data []byte) error {
	return nil
}
