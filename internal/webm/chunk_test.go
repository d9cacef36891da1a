package webm

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func push(t *testing.T, c *Chunker, events ...Event) []Chunk {
	t.Helper()
	var chunks []Chunk
	for _, ev := range events {
		out, err := c.Push(ev)
		require.NoError(t, err)
		chunks = append(chunks, out...)
	}
	return chunks
}

func sessionEvents(tracks []byte, clusters ...uint64) []Event {
	events := []Event{
		{Kind: KindEBMLHead},
		{Kind: KindSegment},
		{Kind: KindSeekHead},
		{Kind: KindInfo},
		{Kind: KindTracks, Data: tracks},
	}
	for _, timecode := range clusters {
		events = append(events,
			Event{Kind: KindCluster},
			Event{Kind: KindTimecode, Timecode: timecode},
			Event{Kind: KindSimpleBlock, Block: SimpleBlock{Track: 1, Timecode: 5, Flags: 0x80, Data: []byte{0xAA}}},
			Event{Kind: KindSimpleBlock, Block: SimpleBlock{Track: 2, Timecode: 10, Data: []byte{0xBB}}},
		)
	}
	return events
}

func TestChunkerEmitsAlignedSequence(t *testing.T) {
	chunks := push(t, NewChunker(), sessionEvents([]byte{0xAE, 0x81, 0x01}, 0, 1000)...)

	kinds := make([]ChunkKind, len(chunks))
	for i, c := range chunks {
		kinds[i] = c.Kind()
	}
	assert.Equal(t, []ChunkKind{
		ChunkHeader,
		ChunkClusterHead, ChunkClusterBody, ChunkClusterBody,
		ChunkClusterHead, ChunkClusterBody, ChunkClusterBody,
	}, kinds)

	assertAligned(t, chunks)
}

// assertAligned checks the Header, (ClusterHead, ClusterBody*)* invariant.
func assertAligned(t *testing.T, chunks []Chunk) {
	t.Helper()
	headers := 0
	seenHead := false
	for i, c := range chunks {
		switch c.Kind() {
		case ChunkHeader:
			headers++
			assert.Equal(t, 0, i, "header must come first")
		case ChunkClusterHead:
			assert.Equal(t, 1, headers, "cluster head before header")
			seenHead = true
		case ChunkClusterBody:
			assert.True(t, seenHead, "cluster body before cluster head at %d", i)
		}
	}
	assert.Equal(t, 1, headers)
}

func TestChunkerHeaderBytes(t *testing.T) {
	tracks := []byte{0xAE, 0x83, 0xD7, 0x81, 0x01}
	chunks := push(t, NewChunker(), sessionEvents(tracks, 0)...)
	require.NotEmpty(t, chunks)
	header := chunks[0]
	require.Equal(t, ChunkHeader, header.Kind())

	want := []byte{
		// Re-synthesized EBML head.
		0x1A, 0x45, 0xDF, 0xA3, 0x10, 0x00, 0x00, 0x07,
		0x42, 0x82, 0x84, 'w', 'e', 'b', 'm',
		// Segment with unknown size; SeekHead and Info are stripped.
		0x18, 0x53, 0x80, 0x67, 0xFF,
		// Tracks, captured verbatim.
		0x16, 0x54, 0xAE, 0x6B, 0x85,
	}
	want = append(want, tracks...)
	assert.Equal(t, want, header.Bytes())
}

func TestChunkerClusterHeadLayout(t *testing.T) {
	chunks := push(t, NewChunker(), sessionEvents(nil, 5000)...)
	require.GreaterOrEqual(t, len(chunks), 2)
	head, ok := chunks[1].(*ClusterHeadChunk)
	require.True(t, ok)

	data := head.Bytes()
	require.Len(t, data, 18)
	assert.Equal(t, []byte{0x1F, 0x43, 0xB6, 0x75}, data[:4], "cluster ID")
	assert.Equal(t, []byte{0x1F, 0xFF, 0xFF, 0xFF}, data[4:8], "4-byte unknown size")
	assert.Equal(t, []byte{0xE7, 0x88}, data[8:10], "timecode tag with 8-byte payload")
	assert.Equal(t, uint64(5000), binary.BigEndian.Uint64(data[10:]))
	assert.Equal(t, uint64(5000), head.Start)
	assert.Equal(t, uint64(5000), head.End)

	// The in-place edit the fixer performs is size-preserving.
	head.SetStart(123456)
	assert.Len(t, head.Bytes(), 18)
	assert.Equal(t, uint64(123456), binary.BigEndian.Uint64(head.Bytes()[10:]))
}

func TestChunkerSimpleBlockBytes(t *testing.T) {
	chunks := push(t, NewChunker(),
		Event{Kind: KindCluster},
		Event{Kind: KindTimecode, Timecode: 0},
		Event{Kind: KindSimpleBlock, Block: SimpleBlock{Track: 1, Timecode: -2, Flags: 0x80, Data: []byte{0xDE, 0xAD}}},
	)
	require.Len(t, chunks, 3)
	body := chunks[2]
	require.Equal(t, ChunkClusterBody, body.Kind())
	assert.Equal(t, []byte{0xA3, 0x86, 0x81, 0xFF, 0xFE, 0x80, 0xDE, 0xAD}, body.Bytes())
}

func TestChunkerAbsorbsResumedSessionFraming(t *testing.T) {
	chunker := NewChunker()
	first := push(t, chunker, sessionEvents([]byte{0x01}, 0, 1000)...)

	// The source restarts and re-sends its whole framing.
	second := push(t, chunker, sessionEvents([]byte{0x02}, 0)...)

	kinds := make([]ChunkKind, len(second))
	for i, c := range second {
		kinds[i] = c.Kind()
	}
	// No second Header: only the new cluster comes through.
	assert.Equal(t, []ChunkKind{ChunkClusterHead, ChunkClusterBody, ChunkClusterBody}, kinds)
	assertAligned(t, append(first, second...))
}

func TestChunkerClusterWithoutTimecode(t *testing.T) {
	chunker := NewChunker()
	push(t, chunker, sessionEvents(nil, 2000)...)

	chunks := push(t, chunker,
		Event{Kind: KindCluster},
		Event{Kind: KindSimpleBlock, Block: SimpleBlock{Track: 1, Data: []byte{0x00}}},
	)
	require.Len(t, chunks, 2)
	head, ok := chunks[0].(*ClusterHeadChunk)
	require.True(t, ok)
	// Base carries on from the last observed block time.
	assert.Equal(t, uint64(2010), head.Start)
}

func TestChunkerDropsIgnorableBodyEvents(t *testing.T) {
	chunker := NewChunker()
	push(t, chunker, sessionEvents(nil, 0)...)

	chunks := push(t, chunker,
		Event{Kind: KindVoid},
		Event{Kind: KindUnknown, ID: 0x0C53BB6B, Data: []byte{1}},
		Event{Kind: KindTimecode, Timecode: 99},
	)
	assert.Empty(t, chunks)
}
