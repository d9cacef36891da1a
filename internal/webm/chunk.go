package webm

import (
	"encoding/binary"

	"github.com/Azunyan1111/go-webm-relay/internal/ebml"
)

// ChunkKind enumerates the three units of fan-out.
type ChunkKind int

const (
	// ChunkHeader is the serialized stream prefix up to the first cluster.
	ChunkHeader ChunkKind = iota
	// ChunkClusterHead is a cluster tag plus its Timecode child.
	ChunkClusterHead
	// ChunkClusterBody is an element contained within a cluster.
	ChunkClusterBody
)

// Chunk is a self-contained run of serialized WebM bytes. Chunks own their
// bytes (the chunker copies out of the tokenizer's rolling buffer) and are
// shared read-only between listeners; the one mutable chunk, ClusterHead,
// is cloned by the timecode fixer before editing.
type Chunk interface {
	Kind() ChunkKind
	Bytes() []byte
}

// HeaderChunk carries the serialized initialization segment.
type HeaderChunk struct {
	data []byte
}

func (c *HeaderChunk) Kind() ChunkKind { return ChunkHeader }
func (c *HeaderChunk) Bytes() []byte   { return c.data }

// ClusterHeadChunk is a cluster tag with an unknown 4-byte size field and
// an 8-byte Timecode child, so the embedded timecode can be rewritten in
// place without changing the byte length.
type ClusterHeadChunk struct {
	Start uint64 // cluster base timecode, ms
	End   uint64 // cluster end timecode, ms; the chunker emits heads with End == Start
	data  []byte
}

func newClusterHead(timecode uint64) *ClusterHeadChunk {
	data, err := ebml.AppendVarint(make([]byte, 0, 18), ebml.ValueVarint(IDCluster))
	if err == nil {
		data, err = ebml.AppendVarint4(data, ebml.UnknownVarint())
	}
	if err == nil {
		data, err = ebml.AppendUintElement(data, IDTimecode, timecode)
	}
	if err != nil {
		// The IDs and the 8-byte size are constants; this cannot fail.
		panic(err)
	}
	return &ClusterHeadChunk{Start: timecode, End: timecode, data: data}
}

func (c *ClusterHeadChunk) Kind() ChunkKind { return ChunkClusterHead }
func (c *ClusterHeadChunk) Bytes() []byte   { return c.data }

// SetStart rewrites the embedded cluster timecode in place.
func (c *ClusterHeadChunk) SetStart(timecode uint64) {
	c.Start = timecode
	binary.BigEndian.PutUint64(c.data[len(c.data)-8:], timecode)
}

// Clone returns an independently editable copy of the chunk.
func (c *ClusterHeadChunk) Clone() *ClusterHeadChunk {
	return &ClusterHeadChunk{
		Start: c.Start,
		End:   c.End,
		data:  append([]byte(nil), c.data...),
	}
}

// ClusterBodyChunk carries the opaque bytes of one in-cluster element.
type ClusterBodyChunk struct {
	data []byte
}

func (c *ClusterBodyChunk) Kind() ChunkKind { return ChunkClusterBody }
func (c *ClusterBodyChunk) Bytes() []byte   { return c.data }

type chunkerState int

const (
	stateBuildingHeader chunkerState = iota
	stateEmittingClusterHead
	stateEmittingBody
)

// Chunker is a state machine turning WebM events into chunks. A valid
// output sequence is Header, then (ClusterHead, ClusterBody*) repeating.
// Header elements seen again mid-stream (a source that restarted and
// re-sent its framing) are absorbed so listeners observe one continuous
// stream.
type Chunker struct {
	state chunkerState
	buf   []byte
	start uint64
	end   uint64
}

func NewChunker() *Chunker {
	return &Chunker{}
}

// Push feeds one event and returns the chunks it completes, which may be
// none. Event payloads are copied, so they may reference a rolling buffer
// that is about to be reused.
func (c *Chunker) Push(ev Event) ([]Chunk, error) {
	switch c.state {
	case stateBuildingHeader:
		if ev.Kind == KindCluster {
			header := &HeaderChunk{data: c.buf}
			c.buf = nil
			c.state = stateEmittingClusterHead
			return []Chunk{header}, nil
		}
		var err error
		c.buf, err = appendEvent(c.buf, ev)
		return nil, err

	case stateEmittingClusterHead:
		switch ev.Kind {
		case KindTimecode:
			c.state = stateEmittingBody
			return []Chunk{c.beginCluster(ev.Timecode)}, nil
		case KindSimpleBlock:
			// Cluster without a Timecode child; carry on from the last
			// observed block time.
			c.state = stateEmittingBody
			head := c.beginCluster(c.end)
			body, err := c.blockBody(ev)
			if err != nil {
				return nil, err
			}
			return []Chunk{head, body}, nil
		default:
			return nil, nil
		}

	case stateEmittingBody:
		switch ev.Kind {
		case KindCluster:
			c.state = stateEmittingClusterHead
			return nil, nil
		case KindSimpleBlock:
			body, err := c.blockBody(ev)
			if err != nil {
				return nil, err
			}
			return []Chunk{body}, nil
		default:
			// EBML heads, Segment markers, repeated Tracks/Info, seek
			// tables, stray Timecodes: all per-session framing.
			return nil, nil
		}
	}
	return nil, nil
}

func (c *Chunker) beginCluster(timecode uint64) *ClusterHeadChunk {
	c.start = timecode
	c.end = timecode
	return newClusterHead(timecode)
}

func (c *Chunker) blockBody(ev Event) (*ClusterBodyChunk, error) {
	data, err := appendEvent(nil, ev)
	if err != nil {
		return nil, err
	}
	c.end = uint64(int64(c.start) + int64(ev.Block.Timecode))
	return &ClusterBodyChunk{data: data}, nil
}
