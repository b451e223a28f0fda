package saver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/session"
	"github.com/arnesen/recoverd/signature"
)

func TestSave_WritesJPEGAndVerifiesReadback(t *testing.T) {
	body := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	body = append(body, make([]byte, 256)...)
	body = append(body, 0xFF, 0xD9)

	srcPath := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(srcPath, body, 0o644))
	r, err := block.Open(srcPath)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	sig, ok := signature.ByExtensionAndCategory("jpg", signature.Image)
	require.True(t, ok)

	f := &session.RecoveredFile{
		Signature:  sig,
		Offset:     0,
		Size:       int64(len(body)),
		SourcePath: srcPath,
		Provenance: session.Carved,
	}

	outDir := t.TempDir()
	res := Save(context.Background(), r, nil, f, outDir, 1)
	require.NoError(t, res.Err)
	assert.True(t, res.ReadbackOK)
	assert.FileExists(t, res.DestinationPath)
	assert.True(t, f.Persisted)
}

func TestDisambiguate_AppendsSuffixOnCollision(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "recovered_000001.jpg"), []byte("x"), 0o644))
	got := disambiguate(dir, "recovered_000001.jpg")
	assert.Equal(t, filepath.Join(dir, "recovered_000001_1.jpg"), got)
}
