package carve

import (
	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/signature"
)

// carveMaxRead tries a format-specific exact-size probe first; failing
// that, it reads up to the category cap, trims at the next
// high-confidence header boundary, and falls back to an entropy-based
// trim.
func carveMaxRead(r *block.Reader, offset int64, sig signature.Signature) Result {
	remaining := r.Size() - offset
	if remaining <= 0 {
		return Result{Outcome: Rejected, Reason: "offset at or past end of device"}
	}

	if sig.Name == "MKV-WEBM" {
		if docType, ok := ebmlDocType(r, offset); ok {
			if resolved, ok := signature.ResolveEBMLDocType(docType); ok {
				sig = resolved
			}
		}
	}

	if probeFn, ok := exactSizeProbes[sig.Extension]; ok {
		if size, ok := probeFn(r, offset, remaining); ok {
			clamped := clampSize(size, sig.MinSize, sig.MaxSize, remaining)
			if clamped > 0 {
				return finalizeCandidate(r, r.Path(), offset, clamped, sig)
			}
		}
	}

	categoryCap := signature.MaxReadCategoryCap(sig.Category)
	readSize := categoryCap
	if readSize > sig.MaxSize {
		readSize = sig.MaxSize
	}
	if readSize > remaining {
		readSize = remaining
	}
	data, err := r.ReadAt(offset, int(readSize))
	if err != nil {
		return Result{Outcome: Rejected, Reason: "read failed: " + err.Error()}
	}

	trimAt := findNextBoundary(data, sig)
	if trimAt < 0 {
		trimAt = entropyTrim(data)
	}
	if int64(trimAt) < sig.MinSize {
		trimAt = len(data)
	}

	size := clampSize(int64(trimAt), sig.MinSize, sig.MaxSize, remaining)
	if size < 0 {
		return Result{Outcome: Rejected, Reason: "trimmed size below minimum"}
	}
	return finalizeCandidate(r, r.Path(), offset, size, sig)
}
