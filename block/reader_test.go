package block_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arnesen/recoverd/block"
)

func writeTempImage(t *testing.T, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReader_ReadAt_ExactRange(t *testing.T) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	path := writeTempImage(t, data)

	r, err := block.Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.EqualValues(t, len(data), r.Size())

	got, err := r.ReadAt(1024, 512)
	require.NoError(t, err)
	require.Equal(t, data[1024:1536], got)
}

func TestReader_ReadAt_PastEndIsTruncated(t *testing.T) {
	data := make([]byte, 1000)
	path := writeTempImage(t, data)

	r, err := block.Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAt(900, 500)
	require.NoError(t, err)
	require.Len(t, got, 100)
}

func TestReader_ReadAt_OffsetBeyondSource(t *testing.T) {
	path := writeTempImage(t, make([]byte, 100))
	r, err := block.Open(path)
	require.NoError(t, err)
	defer r.Close()

	got, err := r.ReadAt(1000, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestIterChunks_CoversWholeRangeWithOverlap(t *testing.T) {
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := writeTempImage(t, data)

	r, err := block.Open(path)
	require.NoError(t, err)
	defer r.Close()

	it := r.IterChunks(0, 1000, 300, 50, false)
	var chunks []block.Chunk
	for {
		c, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		chunks = append(chunks, c)
	}

	require.NotEmpty(t, chunks)
	// Overlap means consecutive chunks share `overlap` bytes, so the last
	// chunk's end must reach the end of the range.
	last := chunks[len(chunks)-1]
	require.Equal(t, int64(1000), last.Offset+int64(len(last.Data)))
}

func TestIterChunks_SkipsAllZeroChunks(t *testing.T) {
	data := make([]byte, 2000)
	for i := 1000; i < 1500; i++ {
		data[i] = 0xAB
	}
	path := writeTempImage(t, data)

	r, err := block.Open(path)
	require.NoError(t, err)
	defer r.Close()

	it := r.IterRanges([]block.Range{{Start: 0, End: 2000}}, 500, 0, true)
	var sawNonZero bool
	for {
		c, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		for _, b := range c.Data {
			if b != 0 {
				sawNonZero = true
			}
		}
	}

	require.True(t, sawNonZero)
	require.Greater(t, it.EmptyBytesSkipped(), int64(0))
}

func TestIterRanges_RestrictsToGivenRanges(t *testing.T) {
	data := make([]byte, 5000)
	path := writeTempImage(t, data)

	r, err := block.Open(path)
	require.NoError(t, err)
	defer r.Close()

	ranges := []block.Range{{Start: 100, End: 200}, {Start: 4000, End: 4100}}
	it := r.IterRanges(ranges, 1000, 0, false)

	var total int64
	for {
		c, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		total += int64(len(c.Data))
	}
	require.EqualValues(t, 200, total)
}
