package health

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arnesen/recoverd/session"
)

func TestProbe_RegularFileIsDiskImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	require := os.WriteFile(path, []byte("data"), 0o644)
	assert.NoError(t, require)

	h := Probe(path)
	assert.Equal(t, "Disk-Image", string(h.MediaClass))
	assert.Equal(t, "High", string(h.RecoveryConfidence))
}

func TestBaseDeviceName(t *testing.T) {
	assert.Equal(t, "sda", baseDeviceName("/dev/sda1"))
	assert.Equal(t, "nvme0n1", baseDeviceName("/dev/nvme0n1p1"))
}

func TestClassify_HDDIsHighConfidence(t *testing.T) {
	conf, warn := classify(session.DriveHealth{MediaClass: session.MediaHDD})
	assert.Equal(t, session.ConfidenceHigh, conf)
	assert.Empty(t, warn)
}

func TestClassify_InternalSSDWithTrimIsLowConfidence(t *testing.T) {
	conf, warn := classify(session.DriveHealth{MediaClass: session.MediaSSD, TrimEnabled: true})
	assert.Equal(t, session.ConfidenceLow, conf)
	assert.NotEmpty(t, warn)
}

func TestClassify_ExternalSSDIsMediumRegardlessOfTrim(t *testing.T) {
	conf, _ := classify(session.DriveHealth{MediaClass: session.MediaSSD, External: true, TrimEnabled: true})
	assert.Equal(t, session.ConfidenceMedium, conf)
}
