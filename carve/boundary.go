package carve

import (
	"github.com/arnesen/recoverd/entropy"
	"github.com/arnesen/recoverd/signature"
)

// findNextBoundary searches data (starting after the candidate's own
// header) for the next high-confidence header boundary: a
// non-ambiguous catalog pattern, a RIFF with a valid subtype, or an
// ftyp box with a recognized brand. Returns -1 if none is found.
func findNextBoundary(data []byte, self signature.Signature) int {
	searchStart := 16
	if searchStart > len(data) {
		return -1
	}
	best := -1
	for i := searchStart; i < len(data); i++ {
		if matchesConfidentBoundary(data[i:], self) {
			best = i
			break
		}
	}
	return best
}

func matchesConfidentBoundary(window []byte, self signature.Signature) bool {
	for _, s := range signature.Catalog {
		if s.Ambiguous || s.Name == self.Name {
			continue
		}
		if s.Match(window) {
			return true
		}
	}
	if len(window) >= 12 && string(window[0:4]) == "RIFF" {
		if _, ok := signature.ResolveRiffSubtype(string(window[8:12])); ok {
			return true
		}
	}
	if len(window) >= 12 && string(window[4:8]) == "ftyp" {
		if _, ok := signature.ResolveIsoBmffBrand(string(window[8:12])); ok {
			return true
		}
	}
	return false
}

const entropyWindow = 32 * 1024

// entropyTrim walks 32 KiB windows. The baseline is the mean entropy of
// the first three windows, whatever their entropy; those windows are
// never cut. After them, the first window below 1.0 bits/byte, or 3.5 or
// more bits below the baseline, is the cut point, whether or not the
// window before it was high-entropy. It then trims trailing all-zero
// sectors, rounded up to a 512-byte sector boundary.
func entropyTrim(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	var baseline float64
	baselineSet := false
	baselineSamples := 0
	cut := len(data)

	for off := 0; off < len(data); off += entropyWindow {
		end := off + entropyWindow
		if end > len(data) {
			end = len(data)
		}
		e := entropy.Shannon(data[off:end])

		if !baselineSet {
			baseline += e
			baselineSamples++
			if baselineSamples >= 3 {
				baseline /= float64(baselineSamples)
				baselineSet = true
			}
			continue
		}

		if e < 1.0 {
			cut = off
			break
		}
		if baseline-e >= 3.5 {
			cut = off
			break
		}
	}

	return trimTrailingZeroSectors(data[:cut])
}

func trimTrailingZeroSectors(data []byte) int {
	const sector = 512
	end := len(data)
	for end >= sector {
		block := data[end-sector : end]
		if !allZeroBytes(block) {
			break
		}
		end -= sector
	}
	// Round back up to the next sector boundary so we don't truncate
	// mid-sector when the trailing run isn't sector-aligned.
	if end%sector != 0 {
		end += sector - end%sector
		if end > len(data) {
			end = len(data)
		}
	}
	return end
}

func allZeroBytes(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
