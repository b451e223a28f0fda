package validate

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnesen/recoverd/signature"
)

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

func TestValidate_JPEG_Workable(t *testing.T) {
	sig, ok := signature.ByExtensionAndCategory("jpg", signature.Image)
	require.True(t, ok)
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, randomish(8000)...)
	r := Validate(sig, data, int64(len(data)))
	assert.Equal(t, Workable, r.State, r.Reason)
}

func TestValidate_JPEG_RejectsRestartMarkerAfterSOI(t *testing.T) {
	sig, ok := signature.ByExtensionAndCategory("jpg", signature.Image)
	require.True(t, ok)
	data := append([]byte{0xFF, 0xD8, 0xFF, 0xD0}, randomish(8000)...)
	r := Validate(sig, data, int64(len(data)))
	assert.Equal(t, Nonworkable, r.State)
}

func TestValidate_RejectsBelowMinimumSize(t *testing.T) {
	sig, ok := signature.ByExtensionAndCategory("jpg", signature.Image)
	require.True(t, ok)
	r := Validate(sig, []byte{0xFF, 0xD8, 0xFF, 0xE0}, 10)
	assert.Equal(t, Nonworkable, r.State)
}

func TestCheckBMP_ValidHeader(t *testing.T) {
	data := make([]byte, 54)
	data[0], data[1] = 'B', 'M'
	putLE32(data, 2, 54)
	putLE32(data, 10, 54)
	putLE32(data, 14, 40)
	putLE16(data, 26, 1)
	putLE16(data, 28, 24)
	r := checkBMP(data)
	assert.Equal(t, Workable, r.State, r.Reason)
}

func TestCheckBMP_RejectsBadDibSize(t *testing.T) {
	data := make([]byte, 54)
	data[0], data[1] = 'B', 'M'
	putLE32(data, 14, 999)
	r := checkBMP(data)
	assert.Equal(t, Nonworkable, r.State)
}

func TestCheckICO_ValidatesDirectoryEntry(t *testing.T) {
	data := make([]byte, 22)
	putLE16(data, 2, 1)
	putLE16(data, 4, 1)
	putLE32(data, 6+12, 22)
	putLE32(data, 6+8, 100)
	r := checkICO(data)
	assert.Equal(t, Workable, r.State, r.Reason)
}

func TestDeepDecodeGzip_ValidStream(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(randomish(2000))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	r := DeepDecode("GZIP", buf.Bytes())
	assert.Equal(t, Workable, r.State, r.Reason)
}

func TestDeepDecodeGzip_Truncated(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(randomish(2000))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	truncated := buf.Bytes()[:buf.Len()-5]
	r := DeepDecode("GZIP", truncated)
	assert.Equal(t, Nonworkable, r.State)
}

func putLE16(b []byte, off int, v uint16) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
}

func putLE32(b []byte, off int, v uint32) {
	b[off] = byte(v)
	b[off+1] = byte(v >> 8)
	b[off+2] = byte(v >> 16)
	b[off+3] = byte(v >> 24)
}

func randomish(n int) []byte {
	out := make([]byte, n)
	x := uint32(123456789)
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = byte(x)
	}
	return out
}
