package webm

import (
	"encoding/binary"

	"github.com/Azunyan1111/go-webm-relay/internal/ebml"
)

// appendEvent re-serializes an event. Seek tables, Info, Void and unknown
// elements serialize to nothing: they are per-session framing the relay
// strips, and dropping Info leaves the stream at the Matroska default
// timecode scale of 1 ms, which the whole pipeline assumes.
func appendEvent(dst []byte, ev Event) ([]byte, error) {
	switch ev.Kind {
	case KindEBMLHead:
		// Re-synthesized rather than copied: the source's head may carry
		// session-specific fields, and all WebM heads are interchangeable.
		return ebml.AppendElement(dst, IDEBMLHead, func(body []byte) ([]byte, error) {
			return ebml.AppendBytesElement(body, IDDocType, []byte("webm"))
		})
	case KindSegment:
		return ebml.AppendTagHeader(dst, IDSegment, ebml.UnknownVarint())
	case KindTracks:
		return ebml.AppendBytesElement(dst, IDTracks, ev.Data)
	case KindTimecode:
		return ebml.AppendUintElement(dst, IDTimecode, ev.Timecode)
	case KindSimpleBlock:
		return appendSimpleBlock(dst, ev.Block)
	default:
		return dst, nil
	}
}

func appendSimpleBlock(dst []byte, block SimpleBlock) ([]byte, error) {
	payload, err := ebml.AppendVarint(nil, ebml.ValueVarint(block.Track))
	if err != nil {
		return dst, err
	}
	payload = binary.BigEndian.AppendUint16(payload, uint16(block.Timecode))
	payload = append(payload, block.Flags)
	payload = append(payload, block.Data...)
	return ebml.AppendBytesElement(dst, IDSimpleBlock, payload)
}
