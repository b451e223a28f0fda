package entropy_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnesen/recoverd/entropy"
)

func TestShannon_AllZero(t *testing.T) {
	data := make([]byte, 4096)
	require.Equal(t, float64(0), entropy.Shannon(data))
}

func TestShannon_AllSameByte(t *testing.T) {
	data := bytes.Repeat([]byte{0x41}, 1024)
	assert.Equal(t, float64(0), entropy.Shannon(data))
}

func TestShannon_Empty(t *testing.T) {
	assert.Equal(t, float64(0), entropy.Shannon(nil))
}

func TestShannon_Random256(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	// Each of the 256 byte values appears exactly once, so entropy is the
	// maximum possible: exactly 8 bits/byte.
	assert.InDelta(t, 8.0, entropy.Shannon(data), 0.0001)
}

func TestSample_ShorterThanWindow(t *testing.T) {
	data := []byte{1, 2, 3}
	assert.Equal(t, data, entropy.Sample(data, 10))
}

func TestSample_TakesMiddle(t *testing.T) {
	data := make([]byte, 100)
	for i := range data {
		data[i] = byte(i)
	}
	window := entropy.Sample(data, 10)
	require.Len(t, window, 10)
	assert.Equal(t, byte(45), window[0])
}

func TestIsAllZero(t *testing.T) {
	assert.True(t, entropy.IsAllZero(make([]byte, 100)))
	assert.False(t, entropy.IsAllZero([]byte{0, 0, 1}))
	assert.True(t, entropy.IsAllZero(nil))
}

func TestPercentZero(t *testing.T) {
	data := []byte{0, 0, 0, 1}
	assert.InDelta(t, 0.75, entropy.PercentZero(data), 0.0001)
}
