package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewScan_HasID(t *testing.T) {
	s := NewScan("/dev/sdb", nil)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", s.ID.String())
}

func TestScan_AddFile_ConcurrentSafe(t *testing.T) {
	s := NewScan("/dev/sdb", nil)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddFile(&RecoveredFile{})
			s.AddBytesScanned(4096)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, s.FileCount())
	assert.Equal(t, int64(50*4096), s.BytesScanned)
}

func TestScan_Cancel(t *testing.T) {
	s := NewScan("/dev/sdb", nil)
	assert.False(t, s.IsCancelled())
	s.Cancel()
	assert.True(t, s.IsCancelled())
}

func TestProvenance_String(t *testing.T) {
	assert.Equal(t, "Carved", Carved.String())
	assert.Equal(t, "Filesystem", Filesystem.String())
}
