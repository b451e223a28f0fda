// Package saver materializes Recovered Files to disk: a validation and
// damage pass over the source bytes as read, a repair attempt when the
// Damage Analyzer flags the candidate, an informational pre-write
// integrity check, and a post-write readback that recomputes the
// fingerprint to catch any write-path corruption.
package saver

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arnesen/recoverd/adapter"
	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/carve"
	"github.com/arnesen/recoverd/damage"
	"github.com/arnesen/recoverd/errs"
	"github.com/arnesen/recoverd/repair"
	"github.com/arnesen/recoverd/session"
	"github.com/arnesen/recoverd/validate"
)

// IntegrityCheck is the pre-write validator/damage snapshot attached
// to a saved file; it never blocks the write, only informs the
// caller whether the on-disk bytes are already known to be damaged.
type IntegrityCheck struct {
	Validation validate.Result
	Damage     damage.Report
}

// Result describes the outcome of saving one Recovered File.
type Result struct {
	File            *session.RecoveredFile
	DestinationPath string
	PreWrite        IntegrityCheck
	RepairAttempted bool
	RepairSucceeded bool
	ReadbackOK      bool
	Err             error
}

// Save writes f's bytes into outputDir/<Category>/, performing the
// validate/repair/verify sequence. For
// provenance Filesystem, reader's adapter-backed ReadRandom is used
// instead of a raw offset read.
func Save(ctx context.Context, r *block.Reader, a adapter.Adapter, f *session.RecoveredFile, outputDir string, sequence int) Result {
	data, err := readSourceBytes(ctx, r, a, f)
	if err != nil {
		return Result{File: f, Err: errs.NewSaveError("read source", err)}
	}

	data = retrim(r, f, data)

	report := damage.Analyze(f.Signature.Name, data)
	repairAttempted := false
	repairSucceeded := false
	if report.Level != damage.Healthy && report.Repairable {
		repairAttempted = true
		res := repair.Apply(f.Signature.Name, data)
		f.Repair = &session.RepairResult{
			Success:           res.Success,
			Before:            res.Before,
			After:             res.After,
			BeforeFingerprint: fingerprint(data),
			ActionsRun:        res.ActionsRun,
			ActionsFailed:     res.ActionsFailed,
		}
		if res.Success {
			data = res.Data
			repairSucceeded = true
			report = res.After
			f.Repair.AfterFingerprint = fingerprint(data)
		}
	}

	preWrite := IntegrityCheck{
		Validation: validate.Validate(f.Signature, data, int64(len(data))),
		Damage:     report,
	}
	f.Validation = preWrite.Validation
	f.Damage = &report

	category := string(f.Signature.Category)
	destDir := filepath.Join(outputDir, category)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{File: f, PreWrite: preWrite, Err: errs.NewSaveError("create destination directory", err)}
	}

	destPath := disambiguate(destDir, fmt.Sprintf("recovered_%06d.%s", sequence, f.Signature.Extension))

	if err := writeAndSync(destPath, data); err != nil {
		return Result{File: f, PreWrite: preWrite, Err: errs.NewSaveError("write", err)}
	}

	readbackOK, err := verifyReadback(destPath, data)
	if err != nil {
		return Result{File: f, DestinationPath: destPath, PreWrite: preWrite, RepairAttempted: repairAttempted, RepairSucceeded: repairSucceeded, Err: err}
	}

	f.Persisted = true
	f.DestinationPath = destPath
	f.Fingerprint = fingerprint(data)

	return Result{
		File:            f,
		DestinationPath: destPath,
		PreWrite:        preWrite,
		RepairAttempted: repairAttempted,
		RepairSucceeded: repairSucceeded,
		ReadbackOK:      readbackOK,
	}
}

func readSourceBytes(ctx context.Context, r *block.Reader, a adapter.Adapter, f *session.RecoveredFile) ([]byte, error) {
	if f.Provenance == session.Filesystem && a != nil {
		return a.Reader().ReadRandom(ctx, f.InodeRef, 0, f.Size)
	}
	return r.ReadAt(f.Offset, int(f.Size))
}

// retrim runs the carve finish (validation and damage analysis) over the
// bytes as read. It applies no carve-mode trim: the footer, ISO boxes,
// header size and next boundary are not re-located, and the bytes come
// back at their full length.
func retrim(r *block.Reader, f *session.RecoveredFile, data []byte) []byte {
	res := carve.FinalizeCombined(r, f.Offset, data, f.Signature)
	if res.File != nil {
		return data[:res.File.Size]
	}
	return data
}

func writeAndSync(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := file.Write(data); err != nil {
		return err
	}
	return file.Sync()
}

// verifyReadback re-reads the just-written file from disk, recomputes
// its fingerprint, and confirms size and content match what was
// written, catching any corruption introduced on the write path.
func verifyReadback(path string, original []byte) (bool, error) {
	readBack, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("saver: readback: %w", err)
	}
	if len(readBack) != len(original) {
		return false, nil
	}
	return fingerprint(readBack) == fingerprint(original), nil
}

func disambiguate(dir, name string) string {
	candidate := filepath.Join(dir, name)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate
	}
	ext := filepath.Ext(name)
	base := name[:len(name)-len(ext)]
	for i := 1; ; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}
}

func fingerprint(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
