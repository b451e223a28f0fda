// Package shared holds the free-range walking logic the filesystem
// probers share: a flat-bitmap walk for the two families that keep
// their free space in one on-disk bitmap (exFAT's Allocation Bitmap,
// NTFS's $Bitmap), and a predicate-driven walk for the two that don't
// (FAT's linked-list-style table, ext's per-group bitmaps read one
// block at a time).
package shared

import (
	"github.com/boljen/go-bitmap"

	"github.com/arnesen/recoverd/session"
)

// FreeRunsFromPredicate walks totalUnits units, calling isFree for
// each, and returns the contiguous free-unit runs converted to byte
// ranges via unitToByteOffset.
func FreeRunsFromPredicate(totalUnits uint, isFree func(unit uint) bool, unitToByteOffset func(unit uint) int64) []session.Range {
	var ranges []session.Range
	inRun := false
	var runStart uint

	flush := func(end uint) {
		if !inRun {
			return
		}
		ranges = append(ranges, session.Range{
			Start: unitToByteOffset(runStart),
			End:   unitToByteOffset(end),
		})
		inRun = false
	}

	// FAT cluster numbering starts at 2; ext block numbering starts at
	// 0 (or 1 for the first group). Callers pass the unit index space
	// that matches their own clusterToByte/blockToByte closures, so this
	// helper stays agnostic and just walks 0..totalUnits.
	for i := uint(0); i < totalUnits; i++ {
		free := isFree(i)
		if free && !inRun {
			inRun = true
			runStart = i
		} else if !free && inRun {
			flush(i)
		}
	}
	flush(totalUnits)
	return ranges
}

// FreeRunsFromBitmap walks an allocation bitmap (one bit per unit, 0 =
// free, 1 = allocated, the convention exFAT's Allocation Bitmap and
// NTFS's $Bitmap both use) and returns the contiguous free-unit runs
// converted to absolute byte ranges via unitToByteOffset.
//
// This is a fresh implementation of the contiguous-run scan, not a
// reuse of a mutable block allocator: probing never writes to the
// bitmap, so there is no AllocateBlock/FreeBlock surface here, only the
// read-only run walk built on top of FreeRunsFromPredicate.
func FreeRunsFromBitmap(bm bitmap.Bitmap, totalUnits uint, unitToByteOffset func(unit uint) int64) []session.Range {
	return FreeRunsFromPredicate(totalUnits, func(unit uint) bool {
		return !bm.Get(int(unit))
	}, unitToByteOffset)
}

// BitmapFromBytes wraps a raw on-disk bitmap (as read from a volume)
// into a bitmap.Bitmap FreeRunsFromBitmap can walk, without copying
// when the read already covers every bit: the library stores one byte
// per 8 bits with bit 0 of each byte as the lowest-numbered unit,
// matching the on-disk layout used by exFAT and NTFS. A short read
// (a truncated bitmap data length, or a $DATA run that didn't cover
// every cluster) is zero-padded out to totalUnits bits so the walk
// never indexes past the slice instead of panicking on malformed
// input.
func BitmapFromBytes(raw []byte, totalUnits uint) bitmap.Bitmap {
	need := int((totalUnits + 7) / 8)
	if len(raw) < need {
		padded := make([]byte, need)
		copy(padded, raw)
		raw = padded
	}
	return bitmap.Bitmap(raw)
}
