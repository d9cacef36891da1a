package webm

// TimecodeFixer rewrites cluster timecodes so that the concatenation of
// independent upload sessions plays back as one stream with non-decreasing
// timestamps. Each listener owns its own fixer; heads are cloned before
// editing because the underlying chunk is shared with other listeners.
//
// The zero value is ready to use.
type TimecodeFixer struct {
	lastOut uint64
	offset  int64
}

// Process applies the current offset to a chunk. ClusterHead chunks are
// returned as edited copies; everything else passes through unchanged.
func (f *TimecodeFixer) Process(c Chunk) Chunk {
	switch c := c.(type) {
	case *HeaderChunk:
		f.lastOut = 0
		return c
	case *ClusterHeadChunk:
		head := c.Clone()
		newStart := uint64(int64(head.Start) + f.offset)
		if newStart < f.lastOut {
			// The source restarted its timecodes; bump the offset so this
			// cluster lands just past the last one we emitted.
			f.offset += int64(f.lastOut-newStart) + 1
			newStart = f.lastOut + 1
		}
		head.SetStart(newStart)
		head.End = uint64(int64(c.End) + f.offset)
		f.lastOut = head.End
		return head
	default:
		return c
	}
}
