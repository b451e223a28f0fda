package repair

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_JPEGAppendsMissingEOI(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	data = append(data, make([]byte, 4100)...)
	res := Apply("JPEG", data)
	require.True(t, res.Success)
	assert.Contains(t, res.ActionsRun, "append_jpeg_eoi")
	assert.True(t, len(res.Data) >= 2)
	assert.Equal(t, byte(0xFF), res.Data[len(res.Data)-2])
	assert.Equal(t, byte(0xD9), res.Data[len(res.Data)-1])
}

func TestApply_GIFFixesVersionAndTrailer(t *testing.T) {
	data := []byte("GIF88a")
	data = append(data, make([]byte, 20)...)
	res := Apply("GIF", data)
	assert.Contains(t, res.ActionsRun, "fix_gif_version")
	assert.Equal(t, byte(0x3B), res.Data[len(res.Data)-1])
}

func TestApply_BMPFixesDeclaredSize(t *testing.T) {
	data := make([]byte, 100)
	data[0], data[1] = 'B', 'M'
	putLE32(data, 2, 9999)
	putLE32(data, 10, 54)
	putLE32(data, 14, 40)
	res := Apply("BMP", data)
	assert.Contains(t, res.ActionsRun, "fix_bmp_declared_size")
	assert.Equal(t, uint32(100), le32(res.Data, 2))
}
