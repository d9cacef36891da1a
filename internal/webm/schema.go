// Package webm implements the WebM subset of EBML the relay cares about:
// the event schema, the chunker that groups events for fan-out, and the
// per-listener stream fixers.
package webm

import (
	"encoding/binary"

	"github.com/Azunyan1111/go-webm-relay/internal/ebml"
)

// Element IDs of the WebM subset. These are stored as the varint decoder
// yields them, with the length marker stripped; re-encoding restores the
// marker, so IDEBMLHead serializes back to the 0x1A45DFA3 wire bytes.
const (
	IDEBMLHead    = 0x0A45DFA3
	IDDocType     = 0x0282
	IDSegment     = 0x08538067
	IDSeekHead    = 0x014D9B74
	IDInfo        = 0x0549A966
	IDTracks      = 0x0654AE6B
	IDCluster     = 0x0F43B675
	IDTimecode    = 0x67
	IDSimpleBlock = 0x23
	IDVoid        = 0x6C
)

// EventKind enumerates the closed set of WebM events.
type EventKind int

const (
	KindEBMLHead EventKind = iota
	KindSegment
	KindSeekHead
	KindInfo
	KindTracks
	KindCluster
	KindTimecode
	KindSimpleBlock
	KindVoid
	KindUnknown
)

// SimpleBlock is one media frame: a track number, a timecode relative to the
// enclosing cluster, a flags byte, and opaque frame bytes.
type SimpleBlock struct {
	Track    uint64
	Timecode int16
	Flags    uint8
	Data     []byte
}

// Keyframe reports whether the block's keyframe flag is set.
func (b SimpleBlock) Keyframe() bool { return b.Flags&0x80 != 0 }

// Event is one parsed WebM element. Payload fields are set according to
// Kind; slices may reference the tokenizer's rolling buffer and are only
// valid until the next event is pulled.
type Event struct {
	Kind     EventKind
	ID       uint64 // KindUnknown
	Timecode uint64 // KindTimecode, in milliseconds
	Block    SimpleBlock
	Data     []byte // KindTracks, KindUnknown
}

// Schema implements ebml.Schema for the WebM subset.
type Schema struct{}

// ShouldUnwrap descends into Segment and Cluster; every other element is
// captured whole.
func (Schema) ShouldUnwrap(id uint64) bool {
	return id == IDSegment || id == IDCluster
}

// DecodeElement maps an element to its event. Unknown IDs never fail.
func (Schema) DecodeElement(id uint64, payload []byte) (Event, error) {
	switch id {
	case IDEBMLHead:
		return Event{Kind: KindEBMLHead}, nil
	case IDSegment:
		return Event{Kind: KindSegment}, nil
	case IDSeekHead:
		return Event{Kind: KindSeekHead}, nil
	case IDInfo:
		return Event{Kind: KindInfo}, nil
	case IDTracks:
		return Event{Kind: KindTracks, Data: payload}, nil
	case IDCluster:
		return Event{Kind: KindCluster}, nil
	case IDTimecode:
		t, err := ebml.DecodeUint(payload)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: KindTimecode, Timecode: t}, nil
	case IDSimpleBlock:
		block, err := ParseSimpleBlock(payload)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: KindSimpleBlock, Block: block}, nil
	case IDVoid:
		return Event{Kind: KindVoid}, nil
	default:
		return Event{Kind: KindUnknown, ID: id, Data: payload}, nil
	}
}

// ParseSimpleBlock decodes a SimpleBlock payload: a varint track number, a
// signed 16-bit big-endian relative timecode, a flags byte, then frame
// bytes.
func ParseSimpleBlock(payload []byte) (SimpleBlock, error) {
	track, n, err := ebml.DecodeVarint(payload)
	if err != nil {
		return SimpleBlock{}, err
	}
	if n == 0 || track.Unknown || len(payload) < n+3 {
		return SimpleBlock{}, ebml.ErrCorruptPayload
	}
	return SimpleBlock{
		Track:    track.Value,
		Timecode: int16(binary.BigEndian.Uint16(payload[n : n+2])),
		Flags:    payload[n+2],
		Data:     payload[n+3:],
	}, nil
}
