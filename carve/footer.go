package carve

import (
	"bytes"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/damage"
	"github.com/arnesen/recoverd/session"
	"github.com/arnesen/recoverd/signature"
)

// carveFooter reads up to min(max_size, device_end-offset, 8 MiB),
// finds the footer (last occurrence for JPEG, first for everything
// else), and truncates there. If no footer is found, the candidate is
// reported as an orphan header for the bifragment pass, carrying the
// partial bytes' damage report. The orchestrator does not add an orphan
// to the scan; only a bifragment stitch that succeeds is recorded.
func carveFooter(r *block.Reader, offset int64, sig signature.Signature) Result {
	remaining := r.Size() - offset
	if remaining <= 0 {
		return Result{Outcome: Rejected, Reason: "offset at or past end of device"}
	}
	readSize := sig.MaxSize
	if readSize > maxFooterSearch {
		readSize = maxFooterSearch
	}
	if readSize > remaining {
		readSize = remaining
	}

	data, err := r.ReadAt(offset, int(readSize))
	if err != nil {
		return Result{Outcome: Rejected, Reason: "read failed: " + err.Error()}
	}
	if len(sig.Footer) == 0 {
		return Result{Outcome: Rejected, Reason: "signature has no footer pattern"}
	}

	idx := findFooterIndex(data, sig)
	if idx < 0 {
		return orphanHeader(r, offset, sig, data)
	}

	end := idx + len(sig.Footer)
	if int64(end) < sig.MinSize {
		return Result{Outcome: Rejected, Reason: "candidate shorter than minimum size"}
	}
	return finalizeCandidate(r, r.Path(), offset, int64(end), sig)
}

func findFooterIndex(data []byte, sig signature.Signature) int {
	if sig.Name == "JPEG" {
		return bytes.LastIndex(data, sig.Footer)
	}
	return bytes.Index(data, sig.Footer)
}

func orphanHeader(r *block.Reader, offset int64, sig signature.Signature, partial []byte) Result {
	report := damage.Analyze(sig.Name, partial)
	f := &session.RecoveredFile{
		Signature:  sig,
		Offset:     offset,
		Size:       int64(len(partial)),
		SourcePath: r.Path(),
		Provenance: session.Carved,
		Damage:     &report,
	}
	return Result{Outcome: OrphanHeader, File: f, Reason: "footer not found within search window"}
}
