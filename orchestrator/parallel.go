package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/arnesen/recoverd/block"
	"github.com/arnesen/recoverd/dedup"
	"github.com/arnesen/recoverd/session"
)

// scanParallel splits ranges across workerCount goroutines using a
// greedy largest-first assignment that balances total bytes per
// worker, runs each worker's own Block Reader / Dedup Tracker /
// sequential scan loop, and merges their results back into scan and
// the caller-owned dedup tracker. ok is false if the Block Reader for
// any worker failed to open, signaling the caller to fall back to a
// single in-process scan.
func scanParallel(ctx context.Context, devicePath string, ranges []block.Range, workerCount int, scan *session.Scan, tracker *dedup.Tracker, opts Options, logger *zap.SugaredLogger) ([]orphanCandidate, bool, map[int64]bool) {
	buckets := assignRangesGreedily(ranges, workerCount)

	type workerResult struct {
		orphans []orphanCandidate
		tracker *dedup.Tracker
	}

	results := make([]workerResult, len(buckets))
	readers := make([]*block.Reader, len(buckets))

	var openErrs *multierror.Error
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		r, err := block.Open(devicePath)
		if err != nil {
			openErrs = multierror.Append(openErrs, err)
			continue
		}
		readers[i] = r
	}
	if openErrs.ErrorOrNil() != nil {
		logger.Warnw("opening per-worker block readers failed, falling back to sequential scan", "error", openErrs.ErrorOrNil())
		for _, opened := range readers {
			if opened != nil {
				opened.Close()
			}
		}
		return nil, false, nil
	}
	defer func() {
		for _, r := range readers {
			if r != nil {
				r.Close()
			}
		}
	}()

	var wg sync.WaitGroup
	for i, bucket := range buckets {
		if len(bucket) == 0 {
			continue
		}
		i, bucket := i, bucket
		wg.Add(1)
		go func() {
			defer wg.Done()
			workerTracker := dedup.New()
			workerOpts := opts
			workerOpts.CheckpointDir = "" // only the coordinator writes checkpoints
			orphans := scanSequential(ctx, readers[i], bucket, scan, workerTracker, workerOpts, logger)
			results[i] = workerResult{orphans: orphans, tracker: workerTracker}
		}()
	}
	wg.Wait()

	var allOrphans []orphanCandidate
	dropped := make(map[int64]bool)
	for _, res := range results {
		allOrphans = append(allOrphans, res.orphans...)
		if res.tracker != nil {
			for _, offset := range tracker.Merge(res.tracker) {
				dropped[offset] = true
			}
		}
	}

	return allOrphans, true, dropped
}

// assignRangesGreedily splits ranges into workerCount buckets by
// repeatedly handing the largest remaining range to the
// currently-lightest bucket, the same load-balancing heuristic as
// classic multiprocessor scheduling.
func assignRangesGreedily(ranges []block.Range, workerCount int) [][]block.Range {
	sorted := append([]block.Range(nil), ranges...)
	sort.Slice(sorted, func(i, j int) bool {
		return (sorted[i].End - sorted[i].Start) > (sorted[j].End - sorted[j].Start)
	})

	buckets := make([][]block.Range, workerCount)
	loads := make([]int64, workerCount)

	for _, rg := range sorted {
		lightest := 0
		for i := 1; i < workerCount; i++ {
			if loads[i] < loads[lightest] {
				lightest = i
			}
		}
		buckets[lightest] = append(buckets[lightest], rg)
		loads[lightest] += rg.End - rg.Start
	}
	return buckets
}
