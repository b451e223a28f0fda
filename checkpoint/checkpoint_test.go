package checkpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	rec := Record{Device: "/dev/sdb", Mode: "forensic", LastOffset: 4096, FileCounter: 3}
	require.NoError(t, Save(dir, rec))

	loaded, ok, err := Load(dir)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "/dev/sdb", loaded.Device)
	assert.Equal(t, CurrentVersion, loaded.Version)
}

func TestLoad_MissingFileIsNotFound(t *testing.T) {
	_, ok, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAcceptable_RejectsDeviceMismatch(t *testing.T) {
	rec := Record{Device: "/dev/sda", Version: CurrentVersion, Timestamp: time.Now()}
	assert.False(t, Acceptable(rec, "/dev/sdb"))
}

func TestAcceptable_RejectsStaleCheckpoint(t *testing.T) {
	rec := Record{Device: "/dev/sda", Version: CurrentVersion, Timestamp: time.Now().Add(-25 * time.Hour)}
	assert.False(t, Acceptable(rec, "/dev/sda"))
}

func TestAcceptable_AcceptsFreshMatch(t *testing.T) {
	rec := Record{Device: "/dev/sda", Version: CurrentVersion, Timestamp: time.Now()}
	assert.True(t, Acceptable(rec, "/dev/sda"))
}

func TestPushOffset_CapsAt500(t *testing.T) {
	var rec Record
	for i := 0; i < 600; i++ {
		rec.PushOffset(int64(i))
	}
	assert.Len(t, rec.Last500Offsets, 500)
	assert.Equal(t, int64(599), rec.Last500Offsets[len(rec.Last500Offsets)-1])
}
