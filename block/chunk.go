package block

// Range is a half-open byte interval [Start, End) on the source.
type Range struct {
	Start int64
	End   int64
}

// Chunk is one window handed to a caller of the chunk iterator.
type Chunk struct {
	Offset int64
	Data   []byte
}

// ChunkIterator is an external iterator whose Next() advances one chunk
// at a time, rather than a coroutine or callback-based push. Overlap and
// empty-chunk skipping are entirely the iterator's concern; callers just
// call Next() until it's exhausted.
type ChunkIterator struct {
	reader     *Reader
	ranges     []Range
	rangeIdx   int
	cursor     int64
	blockSize  int
	overlap    int
	skipEmpty  bool
	emptySkip  int64
	lastWasEnd bool // true right after a chunk was skipped; suppress overlap
}

// IterChunks yields (offset, bytes) pairs covering [start, end) with the
// given inter-chunk overlap, used to catch magic patterns that straddle a
// chunk boundary. When skipEmpty is set, an all-zero chunk is omitted and
// its size added to the running empty-bytes counter; no overlap is applied
// across a skipped chunk.
func (r *Reader) IterChunks(start, end int64, blockSize, overlap int, skipEmpty bool) *ChunkIterator {
	return r.IterRanges([]Range{{Start: start, End: end}}, blockSize, overlap, skipEmpty)
}

// IterRanges is the same as IterChunks but restricted to a list of ranges,
// used for forensic-mode scans where only free-space byte ranges matter.
func (r *Reader) IterRanges(ranges []Range, blockSize, overlap int, skipEmpty bool) *ChunkIterator {
	if blockSize <= 0 {
		blockSize = 4 << 20
	}
	normalized := make([]Range, 0, len(ranges))
	for _, rg := range ranges {
		if rg.End > rg.Start {
			normalized = append(normalized, rg)
		}
	}

	it := &ChunkIterator{
		reader:    r,
		ranges:    normalized,
		blockSize: blockSize,
		overlap:   overlap,
		skipEmpty: skipEmpty,
	}
	if len(normalized) > 0 {
		it.cursor = normalized[0].Start
	}
	return it
}

// EmptyBytesSkipped returns the running total of bytes that were skipped
// because their chunk was entirely zero.
func (it *ChunkIterator) EmptyBytesSkipped() int64 {
	return it.emptySkip
}

// Next advances the iterator and returns the next chunk. ok is false once
// every range has been exhausted.
func (it *ChunkIterator) Next() (chunk Chunk, ok bool, err error) {
	for it.rangeIdx < len(it.ranges) {
		rg := it.ranges[it.rangeIdx]
		if it.cursor >= rg.End {
			it.rangeIdx++
			if it.rangeIdx < len(it.ranges) {
				it.cursor = it.ranges[it.rangeIdx].Start
				it.lastWasEnd = false
			}
			continue
		}

		readSize := it.blockSize
		if remaining := rg.End - it.cursor; remaining < int64(readSize) {
			readSize = int(remaining)
		}

		data, readErr := it.reader.ReadAt(it.cursor, readSize)
		if readErr != nil {
			// A seek failure: skip this chunk and continue, per the Block
			// Reader's failure policy.
			it.cursor += int64(readSize)
			continue
		}
		if len(data) == 0 {
			it.rangeIdx++
			if it.rangeIdx < len(it.ranges) {
				it.cursor = it.ranges[it.rangeIdx].Start
				it.lastWasEnd = false
			}
			continue
		}

		offset := it.cursor
		advance := int64(len(data))

		if it.skipEmpty && allZero(data) {
			it.emptySkip += int64(len(data))
			it.cursor += advance
			it.lastWasEnd = true
			continue
		}

		// Apply overlap for the next read, unless the previous chunk was
		// skipped (no overlap carries across a gap).
		nextAdvance := advance
		if !it.lastWasEnd && it.overlap > 0 && advance > int64(it.overlap) {
			nextAdvance = advance - int64(it.overlap)
		}
		it.cursor += nextAdvance
		it.lastWasEnd = false

		return Chunk{Offset: offset, Data: data}, true, nil
	}

	return Chunk{}, false, nil
}

func allZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}
