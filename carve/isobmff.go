package carve

import (
	"encoding/binary"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/signature"
)

var knownTopLevelBoxes = map[string]bool{
	"ftyp": true, "moov": true, "mdat": true, "free": true, "skip": true,
	"wide": true, "meta": true, "moof": true, "mfra": true, "styp": true,
	"sidx": true, "ssix": true, "pdin": true, "uuid": true,
}

const isoBmffZeroSizeCap = 500 << 20

// carveIsoBmff walks top-level ISO Base Media boxes until an unknown box
// type is seen (after at least ftyp + one other box) or bounds run out.
func carveIsoBmff(r *block.Reader, offset int64, sig signature.Signature) Result {
	remaining := r.Size() - offset
	if remaining <= 0 {
		return Result{Outcome: Rejected, Reason: "offset at or past end of device"}
	}
	windowSize := sig.MaxSize
	if windowSize > remaining {
		windowSize = remaining
	}
	data, err := r.ReadAt(offset, int(windowSize))
	if err != nil {
		return Result{Outcome: Rejected, Reason: "read failed: " + err.Error()}
	}

	if len(data) < 8 || string(data[4:8]) != "ftyp" {
		return Result{Outcome: Rejected, Reason: "first box is not ftyp"}
	}

	boxesSeen := 0
	sawMoovOrMdat := false
	pos := 0
	for pos+8 <= len(data) {
		size := int64(binary.BigEndian.Uint32(data[pos : pos+4]))
		boxType := string(data[pos+4 : pos+8])

		headerLen := 8
		if size == 1 {
			if pos+16 > len(data) {
				break
			}
			size = int64(binary.BigEndian.Uint64(data[pos+8 : pos+16]))
			headerLen = 16
		} else if size == 0 {
			if boxesSeen < 2 {
				break
			}
			size = int64(len(data) - pos)
			if size > isoBmffZeroSizeCap {
				size = isoBmffZeroSizeCap
			}
		}

		if !knownTopLevelBoxes[boxType] {
			if boxesSeen >= 2 {
				break
			}
			return Result{Outcome: Rejected, Reason: "unknown box type before ftyp + one other seen"}
		}
		if boxType == "moov" || boxType == "mdat" {
			sawMoovOrMdat = true
		}
		if size < int64(headerLen) {
			break
		}

		boxesSeen++
		pos += int(size)
		if pos > len(data) {
			pos = len(data)
			break
		}
	}

	if boxesSeen < 2 || !sawMoovOrMdat {
		return Result{Outcome: Rejected, Reason: "requires both ftyp and one of moov/mdat"}
	}

	size := clampSize(int64(pos), sig.MinSize, sig.MaxSize, remaining)
	if size < 0 {
		return Result{Outcome: Rejected, Reason: "carved size below minimum"}
	}
	return finalizeCandidate(r, r.Path(), offset, size, sig)
}
