package carve

import (
	"encoding/binary"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/signature"
	"github.com/arnesen/recoverd/validate"
)

const headerProbeSize = 256

// carveHeader reads a probe window, validates it structurally, then
// reads the format's declared-size field and clamps it to
// [min_size, max_size] and device bounds before reading and validating
// the full candidate.
func carveHeader(r *block.Reader, offset int64, sig signature.Signature) Result {
	remaining := r.Size() - offset
	if remaining <= 0 {
		return Result{Outcome: Rejected, Reason: "offset at or past end of device"}
	}
	probeLen := int64(headerProbeSize)
	if probeLen > remaining {
		probeLen = remaining
	}
	probe, err := r.ReadAt(offset, int(probeLen))
	if err != nil {
		return Result{Outcome: Rejected, Reason: "read failed: " + err.Error()}
	}

	if resolved, ok := resolveActualSignature(sig, probe); ok {
		sig = resolved
	} else if isRiffFamily(sig) {
		return Result{Outcome: Rejected, Reason: "RIFF form type did not resolve to a known subtype"}
	}

	probeResult := validate.Validate(sig, probe, 0)
	if probeResult.State == validate.Nonworkable {
		return Result{Outcome: Rejected, Reason: probeResult.Reason}
	}

	declared, ok := declaredSize(sig, probe)
	if !ok {
		return Result{Outcome: Rejected, Reason: "could not read declared size field"}
	}

	size := clampSize(declared, sig.MinSize, sig.MaxSize, remaining)
	if size < 0 {
		return Result{Outcome: Rejected, Reason: "declared size below minimum"}
	}
	return finalizeCandidate(r, r.Path(), offset, size, sig)
}

func isRiffFamily(sig signature.Signature) bool {
	switch sig.Name {
	case "WEBP", "AVI", "WAV":
		return true
	default:
		return false
	}
}

// resolveActualSignature re-derives the true Signature for a candidate
// whose catalog match is ambiguous at the magic-pattern level: every
// RIFF form shares the same "RIFF" magic at offset 0, so the catalog
// entry that happened to match first (images before videos before
// audio, per Catalog's init order) isn't necessarily the candidate's
// real identity. Reading the form type at offset 8 resolves it.
func resolveActualSignature(sig signature.Signature, probe []byte) (signature.Signature, bool) {
	if !isRiffFamily(sig) || len(probe) < 12 {
		return signature.Signature{}, false
	}
	return signature.ResolveRiffSubtype(string(probe[8:12]))
}

func declaredSize(sig signature.Signature, probe []byte) (int64, bool) {
	switch sig.Name {
	case "BMP":
		if len(probe) < 6 {
			return 0, false
		}
		return int64(binary.LittleEndian.Uint32(probe[2:6])), true
	case "ICO":
		return icoDeclaredSize(probe)
	case "WAV", "AVI", "WEBP":
		if len(probe) < 8 {
			return 0, false
		}
		return int64(binary.LittleEndian.Uint32(probe[4:8])) + 8, true
	case "AIFF":
		if len(probe) < 8 {
			return 0, false
		}
		return int64(binary.BigEndian.Uint32(probe[4:8])) + 8, true
	default:
		return 0, false
	}
}

// icoDeclaredSize walks the ICO directory to find the end of the last
// embedded image, since ICO carries no single top-level size field.
func icoDeclaredSize(probe []byte) (int64, bool) {
	if len(probe) < 6 {
		return 0, false
	}
	count := int(binary.LittleEndian.Uint16(probe[4:6]))
	if count < 1 || count > 256 {
		return 0, false
	}
	dirEnd := 6 + count*16
	if len(probe) < dirEnd {
		return 0, false
	}
	var end int64
	for i := 0; i < count; i++ {
		entry := probe[6+i*16 : 6+i*16+16]
		imgSize := int64(binary.LittleEndian.Uint32(entry[8:12]))
		imgOffset := int64(binary.LittleEndian.Uint32(entry[12:16]))
		if imgOffset+imgSize > end {
			end = imgOffset + imgSize
		}
	}
	return end, true
}
