// Package orchestrator drives a single scan session: mode selection
// against drive health and filesystem probers, the chunked carve loop
// with entropy-based skipping, bifragment gap carving for orphan
// headers, parallel worker fan-out over the scan domain, and periodic
// checkpointing. Workers are plain goroutines joined over channels,
// the idiomatic Go analogue of the OS-thread/process fan-out spec
// describes, logged with a zap SugaredLogger the way the pack's image
// inspector logs its own long-running passes.
package orchestrator

import (
	"context"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/arnesen/recoverd/adapter"
	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/carve"
	"github.com/arnesen/recoverd/checkpoint"
	"github.com/arnesen/recoverd/dedup"
	"github.com/arnesen/recoverd/entropy"
	"github.com/arnesen/recoverd/errs"
	"github.com/arnesen/recoverd/fsprobe"
	"github.com/arnesen/recoverd/health"
	"github.com/arnesen/recoverd/session"
	"github.com/arnesen/recoverd/signature"
)

const (
	chunkSize           = 4 << 20
	chunkOverlap         = 64 << 10
	entropySampleSize    = 4 << 10
	entropyHighThreshold = 7.995
	entropyLowThreshold  = 0.5
	checkpointEvery      = 100 << 20
	maxWorkers           = 8
	parallelThreshold    = 100 << 20
	workerRangeMiB       = 50 << 20
	bifragmentSearchMax  = 10
)

// Options configures one scan run.
type Options struct {
	DevicePath     string
	Categories     []signature.Category
	CheckpointDir  string
	Adapter        adapter.Adapter
	Callbacks      session.Callbacks
	Logger         *zap.SugaredLogger
}

// Run executes a full scan per Options and returns the populated Scan.
func Run(ctx context.Context, opts Options) (*session.Scan, error) {
	logger := opts.Logger
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l.Sugar()
	}

	reader, err := block.Open(opts.DevicePath)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	scan := session.NewScan(opts.DevicePath, opts.Categories)
	scan.Mmapped = reader.Mmapped()

	drive := health.Probe(opts.DevicePath)
	if drive.Warning != "" {
		logger.Warnw("drive health warning", "device", opts.DevicePath, "warning", drive.Warning)
	}

	var scanRanges []block.Range
	if info, ok, _ := fsprobe.Detect(reader); ok {
		scan.Mode = session.ModeForensic
		scan.FilesystemFamily = info.Family
		for _, rg := range info.FreeRanges {
			scanRanges = append(scanRanges, block.Range{Start: rg.Start, End: rg.End})
		}
		logger.Infow("entered forensic mode", "family", info.Family, "free_ranges", len(scanRanges))
	} else {
		scan.Mode = session.ModeBruteForce
		scanRanges = []block.Range{{Start: 0, End: reader.Size()}}
		logger.Infow("entered brute-force mode", "size", reader.Size())
	}

	if opts.Adapter != nil {
		runAdapterPass(ctx, opts.Adapter, opts, scan, logger)
	}

	var resumeFrom int64
	if opts.CheckpointDir != "" {
		if rec, ok, _ := checkpoint.Load(opts.CheckpointDir); ok && checkpoint.Acceptable(rec, opts.DevicePath) {
			resumeFrom = rec.LastOffset
			scan.BytesScanned = rec.BytesScanned
			scan.EmptyBytesSkipped = rec.EntropySkipped
			logger.Infow("resuming from checkpoint", "last_offset", resumeFrom)
		}
	}
	scanRanges = clipRangesFrom(scanRanges, resumeFrom)

	var totalBytes int64
	for _, rg := range scanRanges {
		totalBytes += rg.End - rg.Start
	}

	workerCount := 1
	if totalBytes > parallelThreshold {
		workerCount = workerCountFor(totalBytes)
	}

	var orphans []orphanCandidate
	tracker := dedup.New()

	if workerCount <= 1 {
		orphans = scanSequential(ctx, reader, scanRanges, scan, tracker, opts, logger)
	} else {
		var ok bool
		var dropped map[int64]bool
		orphans, ok, dropped = scanParallel(ctx, opts.DevicePath, scanRanges, workerCount, scan, tracker, opts, logger)
		if !ok {
			logger.Warnw("parallel startup failed, falling back to single worker")
			orphans = scanSequential(ctx, reader, scanRanges, scan, tracker, opts, logger)
		} else {
			scan.DropOffsets(dropped)
		}
	}

	if scan.Mode == session.ModeForensic {
		bifragmentPass(reader, scanRanges, orphans, scan, tracker, logger)
	}

	scan.EndTime = time.Now()
	if opts.CheckpointDir != "" && !scan.IsCancelled() {
		_ = checkpoint.Clear(opts.CheckpointDir)
	}
	if opts.Callbacks.OnScanComplete != nil {
		opts.Callbacks.OnScanComplete(scan)
	}
	return scan, nil
}

type orphanCandidate struct {
	file  *session.RecoveredFile
	tailRange block.Range
}

func clipRangesFrom(ranges []block.Range, from int64) []block.Range {
	if from <= 0 {
		return ranges
	}
	var out []block.Range
	for _, rg := range ranges {
		if rg.End <= from {
			continue
		}
		if rg.Start < from {
			rg.Start = from
		}
		out = append(out, rg)
	}
	return out
}

func workerCountFor(totalBytes int64) int {
	avail := runtime.GOMAXPROCS(0)
	byChunks := int((totalBytes + workerRangeMiB - 1) / workerRangeMiB)
	n := avail
	if byChunks < n {
		n = byChunks
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

func runAdapterPass(ctx context.Context, a adapter.Adapter, opts Options, scan *session.Scan, logger *zap.SugaredLogger) {
	categoryNames := make([]string, 0, len(opts.Categories))
	for _, c := range opts.Categories {
		categoryNames = append(categoryNames, string(c))
	}
	entries, err, completed := adapter.CallWithTimeout(ctx, func(ctx context.Context) ([]adapter.DeletedEntry, error) {
		return a.Enumerate(ctx, opts.DevicePath, categoryNames, nil)
	})
	if !completed {
		logger.Warnw(errs.NewAdapterTimeout(adapter.DefaultTimeout.String()).Error())
		return
	}
	if err != nil {
		logger.Warnw("filesystem adapter error", "error", err)
		return
	}
	for _, e := range entries {
		scan.AddFile(&session.RecoveredFile{
			Offset:       e.ByteOffset,
			Size:         e.Size,
			SourcePath:   opts.DevicePath,
			Provenance:   session.Filesystem,
			OriginalName: e.Name,
			OriginalPath: e.Path,
			InodeRef:     e.InodeEquivalent,
		})
	}
}

// scanSequential runs the chunked carve loop over ranges in the
// current goroutine, used both for single-worker runs and as each
// parallel worker's body.
func scanSequential(ctx context.Context, r *block.Reader, ranges []block.Range, scan *session.Scan, tracker *dedup.Tracker, opts Options, logger *zap.SugaredLogger) []orphanCandidate {
	it := r.IterRanges(ranges, chunkSize, chunkOverlap, true)
	var orphans []orphanCandidate
	var sinceCheckpoint int64

	for {
		if scan.IsCancelled() {
			break
		}
		select {
		case <-ctx.Done():
			scan.Cancel()
			return orphans
		default:
		}

		chunk, ok, err := it.Next()
		if err != nil || !ok {
			break
		}

		sample := entropy.Sample(chunk.Data, entropySampleSize)
		e := entropy.Shannon(sample)
		if e > entropyHighThreshold || e < entropyLowThreshold {
			scan.AddEmptyBytesSkipped(int64(len(chunk.Data)))
			sinceCheckpoint += int64(len(chunk.Data))
			continue
		}

		scanChunk(chunk, r, scan, tracker, &orphans, opts.Callbacks.OnFileFound)

		scan.AddBytesScanned(int64(len(chunk.Data)))
		sinceCheckpoint += int64(len(chunk.Data))

		if opts.Callbacks.OnProgress != nil {
			opts.Callbacks.OnProgress(session.Progress{
				BytesScanned:      scan.BytesScanned,
				TotalBytes:        r.Size(),
				FilesFound:        scan.FileCount(),
				EmptyBytesSkipped: scan.EmptyBytesSkipped,
			})
		}

		if opts.CheckpointDir != "" && sinceCheckpoint >= checkpointEvery {
			sinceCheckpoint = 0
			rec := checkpoint.Record{
				Device:       opts.DevicePath,
				Mode:         scan.Mode.String(),
				LastOffset:   chunk.Offset + int64(len(chunk.Data)),
				FileCounter:  scan.FileCount(),
				FilesFound:   scan.FileCount(),
				BytesScanned: scan.BytesScanned,
				EntropySkipped: scan.EmptyBytesSkipped,
			}
			if err := checkpoint.Save(opts.CheckpointDir, rec); err != nil {
				logger.Warnw("checkpoint save failed", "error", err)
			}
		}
	}
	return orphans
}

// scanChunk runs the magic-pattern enumeration and auxiliary pattern
// search against one chunk, carving every candidate it finds.
func scanChunk(chunk block.Chunk, r *block.Reader, scan *session.Scan, tracker *dedup.Tracker, orphans *[]orphanCandidate, onFound func(*session.RecoveredFile)) {
	for _, sig := range signature.Catalog {
		for _, m := range sig.Magics {
			relBase := -m.Offset
			for i := 0; i+len(m.Pattern) <= len(chunk.Data); i++ {
				if !matchesPattern(chunk.Data[i:], m.Pattern) {
					continue
				}
				candidateOffset := chunk.Offset + int64(i+relBase)
				if candidateOffset < 0 {
					continue
				}
				emitCarve(r, candidateOffset, sig, scan, tracker, orphans, onFound)
			}
		}
	}

	for _, aux := range carve.SearchAuxiliaryPatterns(chunk.Data) {
		absOffset := chunk.Offset + int64(aux.RelOffset)
		sig, ok := resolveAuxSignature(r, absOffset, aux.SigName)
		if !ok {
			continue
		}
		emitCarve(r, absOffset, sig, scan, tracker, orphans, onFound)
	}
}

func matchesPattern(window, pattern []byte) bool {
	if len(window) < len(pattern) {
		return false
	}
	for i, b := range pattern {
		if window[i] != b {
			return false
		}
	}
	return true
}

// auxSignatureExt maps a SearchAuxiliaryPatterns result to the catalog row
// that owns it, for every SigName that isn't resolved by a second byte
// read (RIFF sub-type, ISO-BMFF brand).
var auxSignatureExt = map[string]struct {
	Extension string
	Category  signature.Category
}{
	"MPEG-TS": {"ts", signature.Video},
	"AIFF":    {"aiff", signature.Audio},
	"ZIP":     {"zip", signature.Archive},
	"DOCX":    {"docx", signature.Document},
	"XLSX":    {"xlsx", signature.Document},
	"PPTX":    {"pptx", signature.Document},
	"EPUB":    {"epub", signature.Document},
	"ODT":     {"odt", signature.Document},
	"ODS":     {"ods", signature.Document},
	"ODP":     {"odp", signature.Document},
	"TAR":     {"tar", signature.Archive},
	"ISO9660": {"iso", signature.Archive},
}

// resolveAuxSignature turns a ChunkSearchMatch into the Signature it should
// be carved as. RIFF and ISOBMFFGeneric matches are ambiguous at the magic
// level (their real identity lives a few bytes further into the candidate),
// so those two read a small probe and resolve through the same
// discriminator tables the header/ISO-BMFF carve strategies use; every
// other SigName maps onto a fixed extension/category pair.
func resolveAuxSignature(r *block.Reader, absOffset int64, sigName string) (signature.Signature, bool) {
	switch sigName {
	case "RIFF":
		probe, err := r.ReadAt(absOffset, 12)
		if err != nil || len(probe) < 12 {
			return signature.Signature{}, false
		}
		return signature.ResolveRiffSubtype(string(probe[8:12]))
	case "ISOBMFFGeneric":
		probe, err := r.ReadAt(absOffset, 12)
		if err != nil || len(probe) < 12 {
			return signature.Signature{}, false
		}
		return signature.ResolveIsoBmffBrand(string(probe[8:12]))
	default:
		info, ok := auxSignatureExt[sigName]
		if !ok {
			return signature.Signature{}, false
		}
		return signature.ByExtensionAndCategory(info.Extension, info.Category)
	}
}

func emitCarve(r *block.Reader, offset int64, sig signature.Signature, scan *session.Scan, tracker *dedup.Tracker, orphans *[]orphanCandidate, onFound func(*session.RecoveredFile)) {
	res := carve.Carve(r, offset, sig)
	switch res.Outcome {
	case carve.Accepted:
		if res.File.Fingerprint != "" && !tracker.Accept(res.File.Offset, res.File.Fingerprint) {
			return
		}
		scan.AddFile(res.File)
		if onFound != nil {
			onFound(res.File)
		}
	case carve.OrphanHeader:
		*orphans = append(*orphans, orphanCandidate{file: res.File, tailRange: block.Range{Start: offset, End: offset + res.File.Size}})
	}
}

// bifragmentPass attempts to stitch each orphan header to a footer
// found in one of the next (up to 10) free ranges, recovering files
// split across non-contiguous free runs.
func bifragmentPass(r *block.Reader, ranges []block.Range, orphans []orphanCandidate, scan *session.Scan, tracker *dedup.Tracker, logger *zap.SugaredLogger) {
	sorted := append([]block.Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	for _, orphan := range orphans {
		sig := orphan.file.Signature
		if len(sig.Footer) == 0 {
			continue
		}

		rangeIdx := -1
		for i, rg := range sorted {
			if rg.Start <= orphan.tailRange.Start && orphan.tailRange.Start < rg.End {
				rangeIdx = i
				break
			}
		}
		if rangeIdx < 0 {
			continue
		}

		searched := 0
		for i := rangeIdx + 1; i < len(sorted) && searched < bifragmentSearchMax; i++ {
			searched++
			rg := sorted[i]
			data, err := r.ReadAt(rg.Start, int(rg.End-rg.Start))
			if err != nil {
				continue
			}
			idx := indexOf(data, sig.Footer)
			if idx < 0 {
				continue
			}

			headTail, err := r.ReadAt(orphan.tailRange.Start, int(orphan.tailRange.End-orphan.tailRange.Start))
			if err != nil {
				continue
			}
			combined := append(append([]byte(nil), headTail...), data[:idx+len(sig.Footer)]...)

			res := carve.FinalizeCombined(r, orphan.tailRange.Start, combined, sig)
			if res.File != nil {
				if res.File.Fingerprint == "" || tracker.Accept(res.File.Offset, res.File.Fingerprint) {
					scan.AddFile(res.File)
					logger.Infow("bifragment carve recovered", "offset", orphan.tailRange.Start, "format", sig.Name)
				}
			}
			break
		}
	}
}

func indexOf(haystack, needle []byte) int {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if matchesPattern(haystack[i:], needle) {
			return i
		}
	}
	return -1
}
