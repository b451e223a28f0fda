package carve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/signature"
)

func writeTempImage(t *testing.T, data []byte) *block.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	r, err := block.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestCarveFooter_JPEG(t *testing.T) {
	body := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	// A letter pattern, not zeros: the validator rejects a mid-file
	// sample whose entropy is below 1.0.
	filler := make([]byte, 4096)
	for i := range filler {
		filler[i] = 'a' + byte(i%26)
	}
	body = append(body, filler...)
	body = append(body, 0xFF, 0xD9)
	body = append(body, []byte("trailing garbage")...)
	r := writeTempImage(t, body)

	sig, ok := signature.ByExtensionAndCategory("jpg", signature.Image)
	require.True(t, ok)

	res := Carve(r, 0, sig)
	require.Equal(t, Accepted, res.Outcome)
	assert.Equal(t, int64(4096+6), res.File.Size)
}

func TestCarveFooter_NoFooterIsOrphan(t *testing.T) {
	body := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	body = append(body, make([]byte, 4096)...)
	r := writeTempImage(t, body)

	sig, ok := signature.ByExtensionAndCategory("jpg", signature.Image)
	require.True(t, ok)

	res := Carve(r, 0, sig)
	assert.Equal(t, OrphanHeader, res.Outcome)
	assert.NotNil(t, res.File)
}

func TestCarveHeader_BMP(t *testing.T) {
	data := make([]byte, 100)
	data[0], data[1] = 'B', 'M'
	putUint32LE(data, 2, 100)
	putUint32LE(data, 10, 54)
	putUint32LE(data, 14, 40)
	putUint16LE(data, 26, 1)
	putUint16LE(data, 28, 24)
	r := writeTempImage(t, data)

	sig, ok := signature.ByExtensionAndCategory("bmp", signature.Image)
	require.True(t, ok)

	res := Carve(r, 0, sig)
	require.Equal(t, Accepted, res.Outcome, res.Reason)
	assert.Equal(t, int64(100), res.File.Size)
}

func putUint32LE(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

func putUint16LE(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}
