package ebml

import (
	"errors"
	"io"
)

// DefaultSoftLimit bounds the rolling buffer for relay ingest streams. The
// hard cap is twice this, 2 MiB.
const DefaultSoftLimit = 1024 * 1024

const readChunkSize = 4096

// Schema maps element IDs to decoded events of a document type.
type Schema[E any] interface {
	// ShouldUnwrap reports whether an element's payload should stay in
	// the buffer and be parsed as further events, rather than being
	// captured whole. Unknown-size elements can only be parsed if
	// unwrapped.
	ShouldUnwrap(id uint64) bool

	// DecodeElement builds the event for an element. The payload slice
	// may reference the source's rolling buffer.
	DecodeElement(id uint64, payload []byte) (E, error)
}

// Source is a pull tokenizer turning a byte stream into element events.
//
// Event payloads reference the rolling buffer and are only valid until the
// next call to Next; callers that hold onto payload bytes across calls must
// copy them out first.
type Source[E any] struct {
	r      io.Reader
	schema Schema[E]

	buf     []byte
	pending int // bytes of buf consumed by the last emitted event
	rerr    error

	softLimit int
	hardLimit int
}

// NewSource wraps r with a tokenizer for the given schema, using
// DefaultSoftLimit for the rolling buffer.
func NewSource[E any](r io.Reader, schema Schema[E]) *Source[E] {
	s := &Source[E]{r: r, schema: schema}
	s.SetSoftLimit(DefaultSoftLimit)
	return s
}

// SetSoftLimit configures the rolling buffer cap. The buffer may exceed it
// briefly while one element is assembled; at twice the soft limit parsing
// fails with ErrResourcesExceeded.
func (s *Source[E]) SetSoftLimit(n int) {
	s.softLimit = n
	s.hardLimit = 2 * n
}

// Next returns the next event. It returns io.EOF on a clean end of stream,
// ErrCorruptPayload if the stream ends inside an element, and
// ErrResourcesExceeded if a single element cannot fit in the buffer.
func (s *Source[E]) Next() (E, error) {
	var zero E

	// Release the bytes of the previously emitted event.
	s.buf = s.buf[s.pending:]
	s.pending = 0

	for {
		if len(s.buf) > 0 {
			tag, header, err := DecodeTag(s.buf)
			if err != nil {
				return zero, err
			}
			if header > 0 {
				total := header
				if !s.schema.ShouldUnwrap(tag.ID) {
					if tag.Size.Unknown {
						return zero, ErrUnknownElementLength
					}
					if tag.Size.Value > uint64(s.hardLimit) {
						return zero, ErrResourcesExceeded
					}
					total += int(tag.Size.Value)
				}
				if total <= len(s.buf) {
					event, err := s.schema.DecodeElement(tag.ID, s.buf[header:total])
					if err != nil {
						return zero, err
					}
					s.pending = total
					return event, nil
				}
			}
		}

		if err := s.fill(); err != nil {
			if errors.Is(err, io.EOF) {
				if len(s.buf) > 0 {
					// Partial element at end of stream.
					return zero, ErrCorruptPayload
				}
				return zero, io.EOF
			}
			return zero, err
		}
		if len(s.buf) > s.hardLimit {
			return zero, ErrResourcesExceeded
		}
	}
}

func (s *Source[E]) fill() error {
	if s.rerr != nil {
		return s.rerr
	}
	var chunk [readChunkSize]byte
	n, err := s.r.Read(chunk[:])
	if n > 0 {
		s.buf = append(s.buf, chunk[:n]...)
	}
	if err != nil {
		s.rerr = err
		if n > 0 {
			return nil
		}
		return err
	}
	return nil
}
