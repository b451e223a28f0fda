// Package carve implements the four carve strategies bound to a
// Signature's CarveMode: a static dispatch table keyed on the tagged
// enum, replacing what would otherwise be a virtual-dispatch class
// hierarchy.
package carve

import (
	"crypto/md5"
	"encoding/hex"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/damage"
	"github.com/arnesen/recoverd/session"
	"github.com/arnesen/recoverd/signature"
	"github.com/arnesen/recoverd/validate"
)

// Outcome classifies what a carve attempt produced.
type Outcome int

const (
	Accepted Outcome = iota
	Rejected
	OrphanHeader
)

// Result is what a carve strategy returns for one candidate offset.
type Result struct {
	Outcome Outcome
	File    *session.RecoveredFile
	Reason  string
}

type strategy func(r *block.Reader, offset int64, sig signature.Signature) Result

var strategies = map[signature.CarveMode]strategy{
	signature.Footer:  carveFooter,
	signature.Header:  carveHeader,
	signature.IsoBmff: carveIsoBmff,
	signature.MaxRead: carveMaxRead,
}

// Carve runs the carve strategy bound to sig.CarveMode against the
// candidate found at offset.
func Carve(r *block.Reader, offset int64, sig signature.Signature) Result {
	fn, ok := strategies[sig.CarveMode]
	if !ok {
		return Result{Outcome: Rejected, Reason: "no carve strategy registered for mode"}
	}
	return fn(r, offset, sig)
}

const maxFooterSearch = 8 << 20

func finalizeCandidate(r *block.Reader, sourcePath string, offset, size int64, sig signature.Signature) Result {
	data, err := r.ReadAt(offset, int(size))
	if err != nil {
		return Result{Outcome: Rejected, Reason: "read failed: " + err.Error()}
	}
	return finalizeBytes(sourcePath, offset, data, sig)
}

func finalizeBytes(sourcePath string, offset int64, data []byte, sig signature.Signature) Result {
	v := validate.Validate(sig, data, int64(len(data)))
	if v.State == validate.Nonworkable {
		return Result{Outcome: Rejected, Reason: v.Reason}
	}

	report := damage.Analyze(sig.Name, data)
	sum := md5.Sum(data)

	f := &session.RecoveredFile{
		Signature:   sig,
		Offset:      offset,
		Size:        int64(len(data)),
		SourcePath:  sourcePath,
		Fingerprint: hex.EncodeToString(sum[:]),
		Provenance:  session.Carved,
		Validation:  v,
		Damage:      &report,
	}
	return Result{Outcome: Accepted, File: f}
}

// FinalizeCombined runs the same validation/damage-analysis finish as
// a normal carve, but over bytes already assembled by the caller —
// used by the Orchestrator's bifragment gap-carving pass, which
// concatenates a header fragment and a footer fragment from two
// separate free ranges before it can validate the result.
func FinalizeCombined(r *block.Reader, offset int64, data []byte, sig signature.Signature) Result {
	return finalizeBytes(r.Path(), offset, data, sig)
}

func clampSize(size, min, max, deviceRemaining int64) int64 {
	if size > max {
		size = max
	}
	if size > deviceRemaining {
		size = deviceRemaining
	}
	if size < min {
		return -1
	}
	return size
}
