package ebml

import "encoding/binary"

// Varint is an EBML variable-length integer: either a numeric value or the
// reserved "unknown" value. Decoded values have the length-marker bit
// stripped; encoding restores it, so a decoded element ID round-trips to the
// same wire bytes.
type Varint struct {
	Value   uint64
	Unknown bool
}

// UnknownVarint is the reserved "unknown length" varint.
func UnknownVarint() Varint { return Varint{Unknown: true} }

// ValueVarint wraps a numeric varint.
func ValueVarint(v uint64) Varint { return Varint{Value: v} }

// Tag is a decoded EBML element header.
type Tag struct {
	ID   uint64
	Size Varint
}

const (
	smallFlag = uint64(0x80)
	fourFlag  = uint64(0x10) << (8 * 3)
	fourMax   = fourFlag - 2
	sevenFlag = uint64(0x01) << (7 * 7)
	sevenMax  = sevenFlag - 2
)

// DecodeVarint parses an EBML varint at the start of b. It returns the
// decoded varint and the number of bytes it occupies, or n == 0 when more
// bytes are needed. A first byte of zero is corrupt.
func DecodeVarint(b []byte) (Varint, int, error) {
	if len(b) == 0 {
		return Varint{}, 0, nil
	}

	length := 1
	mask := byte(0x80)
	for mask > 0 && b[0]&mask == 0 {
		mask >>= 1
		length++
	}
	if mask == 0 {
		return Varint{}, 0, ErrCorruptVarint
	}
	if length > len(b) {
		return Varint{}, 0, nil
	}

	value := uint64(b[0] &^ mask)
	unknownMarker := uint64(mask - 1)
	for i := 1; i < length; i++ {
		value = value<<8 | uint64(b[i])
		unknownMarker = unknownMarker<<8 | 0xFF
	}

	if value == unknownMarker {
		return Varint{Unknown: true}, length, nil
	}
	return Varint{Value: value}, length, nil
}

// DecodeTag parses an element header (ID varint followed by size varint).
// It returns the tag and header length, or n == 0 when more bytes are
// needed. An "unknown" element ID is an error.
func DecodeTag(b []byte) (Tag, int, error) {
	id, idLen, err := DecodeVarint(b)
	if err != nil || idLen == 0 {
		return Tag{}, 0, err
	}
	if id.Unknown {
		return Tag{}, 0, ErrUnknownElementID
	}

	size, sizeLen, err := DecodeVarint(b[idLen:])
	if err != nil || sizeLen == 0 {
		return Tag{}, 0, err
	}
	return Tag{ID: id.Value, Size: size}, idLen + sizeLen, nil
}

// DecodeUint parses a fixed-width big-endian unsigned integer payload.
func DecodeUint(b []byte) (uint64, error) {
	if len(b) < 1 || len(b) > 8 {
		return 0, ErrCorruptPayload
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// AppendVarint appends v using the minimal encoding (at most 7 bytes).
// Values of 2^49-1 and above do not fit and fail with ErrOutOfRange.
func AppendVarint(dst []byte, v Varint) ([]byte, error) {
	if v.Unknown {
		return append(dst, 0xFF), nil
	}
	if v.Value > sevenMax {
		return dst, ErrOutOfRange
	}

	flag := smallFlag
	size := 1
	// flag-1 is the "unknown" representation once OR'd with the flag bit,
	// so the value must stay strictly below it.
	for v.Value >= flag-1 {
		flag <<= 8 - 1
		size++
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], flag|v.Value)
	return append(dst, buf[8-size:]...), nil
}

// AppendVarint4 appends v using the fixed 4-byte encoding, used for size
// fields that must be patchable in place.
func AppendVarint4(dst []byte, v Varint) ([]byte, error) {
	var number uint64
	switch {
	case v.Unknown:
		number = fourFlag | (fourFlag - 1)
	case v.Value > fourMax:
		return dst, ErrOutOfRange
	default:
		number = fourFlag | v.Value
	}

	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(number))
	return append(dst, buf[:]...), nil
}

// AppendTagHeader appends an element header: the ID varint followed by the
// size varint.
func AppendTagHeader(dst []byte, id uint64, size Varint) ([]byte, error) {
	dst, err := AppendVarint(dst, Varint{Value: id})
	if err != nil {
		return dst, err
	}
	return AppendVarint(dst, size)
}

// AppendBytesElement appends a complete element with a string or binary
// payload.
func AppendBytesElement(dst []byte, id uint64, payload []byte) ([]byte, error) {
	dst, err := AppendTagHeader(dst, id, Varint{Value: uint64(len(payload))})
	if err != nil {
		return dst, err
	}
	return append(dst, payload...), nil
}

// AppendUintElement appends an element with a fixed 8-byte integer payload,
// so the value can later be rewritten in place without resizing.
func AppendUintElement(dst []byte, id uint64, value uint64) ([]byte, error) {
	dst, err := AppendTagHeader(dst, id, Varint{Value: 8})
	if err != nil {
		return dst, err
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], value)
	return append(dst, buf[:]...), nil
}

// AppendElement appends an element whose payload is produced by body. The
// size field is written as a 4-byte placeholder and patched once the body
// length is known.
func AppendElement(dst []byte, id uint64, body func([]byte) ([]byte, error)) ([]byte, error) {
	dst, err := AppendVarint(dst, Varint{Value: id})
	if err != nil {
		return dst, err
	}
	dst, err = AppendVarint4(dst, Varint{Unknown: true})
	if err != nil {
		return dst, err
	}

	start := len(dst)
	dst, err = body(dst)
	if err != nil {
		return dst, err
	}

	var patch [4]byte
	size, err := AppendVarint4(patch[:0], Varint{Value: uint64(len(dst) - start)})
	if err != nil {
		return dst, err
	}
	copy(dst[start-4:start], size)
	return dst, nil
}
