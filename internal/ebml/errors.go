// Package ebml implements the EBML variable-length-integer codec and a
// pull-based tokenizer for turning an arriving byte stream into a sequence
// of element events without copying their payloads.
package ebml

import "errors"

// Error taxonomy. Parse errors are fatal to the stream that produced them
// and are never propagated past the ingest boundary that owns that stream.
var (
	ErrCorruptVarint        = errors.New("ebml: varint could not be parsed")
	ErrUnknownElementID     = errors.New("ebml: element ID was \"unknown\"")
	ErrUnknownElementLength = errors.New("ebml: element length was \"unknown\" for an element not allowing that")
	ErrCorruptPayload       = errors.New("ebml: element payload could not be parsed")
	ErrOutOfRange           = errors.New("ebml: varint out of range")
	ErrResourcesExceeded    = errors.New("ebml: resource limit exceeded")
)
