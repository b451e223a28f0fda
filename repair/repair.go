// Package repair applies a Damage Analyzer repair plan to a mutable byte
// buffer, one action tag at a time, and reports whether the result is
// measurably healthier than the input.
package repair

import (
	"encoding/binary"

	"github.com/arnesen/recoverd/damage"
)

// Result is the outcome of applying a repair plan.
type Result struct {
	Data          []byte
	ActionsRun    []string
	ActionsFailed []string
	Before        damage.Report
	After         damage.Report
	Success       bool
}

// action mutates buf in place (or returns a replacement) and reports
// whether it made progress.
type action func(formatName string, buf []byte) ([]byte, bool)

var actions = map[string]action{
	"trim_leading_garbage_jpeg": trimLeadingGarbageJPEG,
	"append_jpeg_eoi":           appendJPEGEOI,
	"trim_leading_garbage_png":  trimLeadingGarbagePNG,
	"fix_png_crcs":              fixPNGCRCs,
	"append_png_iend":           appendPNGIEND,
	"fix_bmp_declared_size":     fixBMPDeclaredSize,
	"fix_bmp_data_offset":       fixBMPDataOffset,
	"skip_to_ftyp_box":          skipToFtypBox,
	"repair_moov_box":           repairMoovBox,
	"truncate_oversized_box":    truncateOversizedBox,
	"fix_riff_declared_size":    fixRIFFDeclaredSize,
	"fix_gif_version":           fixGIFVersion,
	"append_gif_trailer":        appendGIFTrailer,
	"reconstruct_mpeg_header":   reconstructMPEGHeader,
	"resync_mpeg_start_code":    resyncMPEGStartCode,
	"remove_mpeg_garbage_gaps":  removeMPEGGarbageGaps,
	"append_mpeg_end_code":      appendMPEGEndCode,
	"excise_null_regions":       exciseNullRegions,
	"align_swf_signature":       alignSWFSignature,
	"rewrite_swf_size":          rewriteSWFSize,
	"trim_swf_trailing_nulls":   trimSWFTrailingNulls,
}

// Apply runs the format's repair plan against data and re-runs the Damage
// Analyzer on the result. Success is declared when the repaired level is
// strictly better than before, or at least one action ran with none
// failing.
func Apply(formatName string, data []byte) Result {
	before := damage.Analyze(formatName, data)
	buf := append([]byte(nil), data...)

	var res Result
	res.Before = before

	for _, tag := range before.RepairPlan {
		fn, ok := actions[tag]
		if !ok {
			res.ActionsFailed = append(res.ActionsFailed, tag)
			continue
		}
		next, ok := fn(formatName, buf)
		if !ok {
			res.ActionsFailed = append(res.ActionsFailed, tag)
			continue
		}
		buf = next
		res.ActionsRun = append(res.ActionsRun, tag)
	}

	res.Data = buf
	res.After = damage.Analyze(formatName, buf)
	res.Success = res.After.Level < res.Before.Level ||
		(len(res.ActionsRun) > 0 && len(res.ActionsFailed) == 0)
	return res
}

func le32(b []byte, off int) uint32 {
	if off+4 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[off : off+4])
}

func putLE32(b []byte, off int, v uint32) {
	if off+4 > len(b) {
		return
	}
	binary.LittleEndian.PutUint32(b[off:off+4], v)
}
