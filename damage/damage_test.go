package damage

import (
	"encoding/binary"
	"hash/crc32"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPNG() []byte {
	buf := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
	buf = append(buf, chunk("IHDR", make([]byte, 13))...)
	buf = append(buf, chunk("IDAT", []byte{1, 2, 3, 4})...)
	buf = append(buf, chunk("IEND", nil)...)
	return buf
}

func chunk(typ string, data []byte) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	out = append(out, []byte(typ)...)
	out = append(out, data...)
	crc := crc32.ChecksumIEEE(append([]byte(typ), data...))
	crcBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBytes, crc)
	return append(out, crcBytes...)
}

func TestAnalyze_HealthyPNG(t *testing.T) {
	r := Analyze("PNG", validPNG())
	assert.Equal(t, Healthy, r.Level)
	assert.True(t, r.HeaderOK)
	assert.True(t, r.StructuralOK, r.StructuralNote)
}

func TestAnalyze_PNGBadCRC(t *testing.T) {
	data := validPNG()
	// Corrupt a byte inside the IHDR chunk's data, leaving its CRC stale.
	data[8+8] ^= 0xFF
	r := Analyze("PNG", data)
	assert.False(t, r.StructuralOK)
	assert.Contains(t, r.RepairPlan, "fix_png_crcs")
}

func TestAnalyze_JPEGMissingFooter(t *testing.T) {
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	data = append(data, make([]byte, 20)...)
	r := Analyze("JPEG", data)
	assert.True(t, r.FooterMissing)
	assert.Contains(t, r.RepairPlan, "append_jpeg_eoi")
}

func TestAnalyze_NullRegionFlagged(t *testing.T) {
	data := make([]byte, 1<<20)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0})
	r := Analyze("JPEG", data)
	assert.True(t, r.NullFlagged)
	assert.Greater(t, r.NullPercent, 0.5)
}

func TestLevelForScore(t *testing.T) {
	assert.Equal(t, Healthy, levelForScore(0))
	assert.Equal(t, Minor, levelForScore(0.1))
	assert.Equal(t, Moderate, levelForScore(0.3))
	assert.Equal(t, Severe, levelForScore(0.5))
	assert.Equal(t, Fatal, levelForScore(0.9))
}

func TestIsRepairable_FooterOnlyDamageOnJPEGIsRepairable(t *testing.T) {
	require.True(t, isRepairable("JPEG", Report{
		Level:         Minor,
		HeaderOK:      true,
		StructuralOK:  true,
		FooterMissing: true,
	}))
}
