package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_IsPopulated(t *testing.T) {
	assert.NotEmpty(t, Catalog)
	for _, s := range Catalog {
		assert.NotEmpty(t, s.Name)
		assert.NotEmpty(t, s.Extension)
		assert.NotEmpty(t, s.Category)
	}
}

func TestSignature_Match_JPEG(t *testing.T) {
	s, ok := ByExtensionAndCategory("jpg", Image)
	require.True(t, ok)
	assert.True(t, s.Match([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.False(t, s.Match([]byte{0x00, 0x00, 0x00}))
}

func TestSignature_Match_RespectsOffset(t *testing.T) {
	s, ok := ByExtensionAndCategory("avi", Video)
	require.True(t, ok)
	data := append([]byte("RIFF"), append([]byte{0, 0, 0, 0}, []byte("AVI ")...)...)
	assert.True(t, s.Match(data))
	assert.False(t, s.Match([]byte("RIFFxxxxWAVE")))
}

func TestByExtensionAndCategory_Unknown(t *testing.T) {
	_, ok := ByExtensionAndCategory("nope", Image)
	assert.False(t, ok)
}

func TestResolveIsoBmffBrand_KnownAndUnknown(t *testing.T) {
	s, ok := ResolveIsoBmffBrand("heic")
	require.True(t, ok)
	assert.Equal(t, "heic", s.Extension)

	_, ok = ResolveIsoBmffBrand("zzzz")
	assert.False(t, ok)
}

func TestResolveRiffSubtype(t *testing.T) {
	s, ok := ResolveRiffSubtype("WEBP")
	require.True(t, ok)
	assert.Equal(t, Image, s.Category)

	_, ok = ResolveRiffSubtype("NOPE")
	assert.False(t, ok)
}

func TestCarveMode_String(t *testing.T) {
	assert.Equal(t, "Footer", Footer.String())
	assert.Equal(t, "MaxRead", MaxRead.String())
}
