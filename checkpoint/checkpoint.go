// Package checkpoint persists and restores Scan Orchestrator progress
// so a long scan can resume after an interruption, writing the
// checkpoint file with an atomic temp-file-then-rename approach so a
// crash mid-write never leaves a half-written checkpoint behind.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CurrentVersion is bumped whenever the checkpoint record's shape
// changes in a way that breaks resume compatibility.
const CurrentVersion = 1

// maxAge bounds how stale a checkpoint may be before Acceptable refuses to
// resume from it.
const maxAge = 24 * time.Hour

const fileName = "scan_checkpoint.json"

// Record is the on-disk checkpoint shape, written periodically during
// a scan and consulted on resume.
type Record struct {
	Version         int       `json:"version"`
	Timestamp       time.Time `json:"timestamp"`
	Device          string    `json:"device"`
	Mode            string    `json:"mode"`
	LastOffset      int64     `json:"last_offset"`
	FileCounter     int       `json:"file_counter"`
	FilesFound      int       `json:"files_found"`
	BytesScanned    int64     `json:"bytes_scanned"`
	Last500Offsets  []int64   `json:"last_500_offsets"`
	EntropySkipped  int64     `json:"entropy_skipped"`
}

// Path returns the fixed checkpoint file name inside dir.
func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Save atomically writes rec to dir, via a temp file + rename so a
// crash mid-write never leaves a corrupt checkpoint behind.
func Save(dir string, rec Record) error {
	rec.Version = CurrentVersion
	rec.Timestamp = time.Now()

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".scan_checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close: %w", err)
	}
	if err := os.Rename(tmpPath, Path(dir)); err != nil {
		return fmt.Errorf("checkpoint: rename: %w", err)
	}
	return nil
}

// Load reads the checkpoint in dir, if any. ok is false when no
// checkpoint file exists.
func Load(dir string) (Record, bool, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, false, nil
		}
		return Record{}, false, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Acceptable reports whether rec may be resumed against device: the
// device must match, the checkpoint's version must be at least as new
// as CurrentVersion, and it must not be older than 24 hours.
func Acceptable(rec Record, device string) bool {
	if rec.Device != device {
		return false
	}
	if rec.Version < CurrentVersion {
		return false
	}
	if time.Since(rec.Timestamp) >= maxAge {
		return false
	}
	return true
}

// Clear removes the checkpoint file in dir after a scan completes
// successfully. A missing file is not an error.
func Clear(dir string) error {
	err := os.Remove(Path(dir))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// PushOffset appends offset to the record's trailing window, keeping
// only the most recent 500 entries.
func (r *Record) PushOffset(offset int64) {
	r.Last500Offsets = append(r.Last500Offsets, offset)
	if len(r.Last500Offsets) > 500 {
		r.Last500Offsets = r.Last500Offsets[len(r.Last500Offsets)-500:]
	}
}
