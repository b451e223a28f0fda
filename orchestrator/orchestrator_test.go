package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.uber.org/zap"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/signature"
)

func TestRun_FindsCarvedJPEGInBruteForceMode(t *testing.T) {
	body := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	// A letter pattern, not zeros: the validator rejects a mid-file
	// sample whose entropy is below 1.0.
	payload := make([]byte, 8192)
	for i := range payload {
		payload[i] = 'a' + byte(i%26)
	}
	body = append(body, payload...)
	body = append(body, 0xFF, 0xD9)

	filler := []byte("the quick brown fox jumps over the lazy dog 0123456789 ")
	image := make([]byte, 1<<20)
	for i := range image {
		image[i] = filler[i%len(filler)]
	}
	copy(image[1024:], body)

	path := filepath.Join(t.TempDir(), "image.bin")
	require.NoError(t, os.WriteFile(path, image, 0o644))

	logger, _ := zap.NewDevelopment()
	scan, err := Run(context.Background(), Options{
		DevicePath: path,
		Categories: []signature.Category{signature.Image},
		Logger:     logger.Sugar(),
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, scan.FileCount(), 1)
}

func TestWorkerCountFor_CapsAtEight(t *testing.T) {
	n := workerCountFor(10 << 30)
	assert.LessOrEqual(t, n, maxWorkers)
}

func TestAssignRangesGreedily_BalancesLoad(t *testing.T) {
	ranges := []block.Range{
		{Start: 0, End: 100}, {Start: 100, End: 150}, {Start: 150, End: 400}, {Start: 400, End: 420},
	}
	buckets := assignRangesGreedily(ranges, 2)
	assert.Len(t, buckets, 2)
}
