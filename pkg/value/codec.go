package value

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fenwickgraph/graphdb/pkg/ids"
)

// Encode appends the canonical big-endian binary encoding of v to dst
// and returns the extended slice. One tag byte is written, followed by
// the variant's payload as laid out in spec.md §3/§4.2.
//
// Encode never fails: every constructible Value is representable.
func Encode(dst []byte, v Value) []byte {
	dst = append(dst, byte(v.tag))
	switch v.tag {
	case TagNull:
		// no payload
	case TagString:
		dst = appendString(dst, v.str)
	case TagInt:
		dst = appendUint64(dst, uint64(v.i))
	case TagFloat:
		dst = appendUint64(dst, math.Float64bits(v.f))
	case TagNodeRef, TagEdgeRef, TagID:
		dst = append(dst, v.ref[:]...)
	case TagBool:
		if v.b {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	}
	return dst
}

// Decode reads a single encoded Value from the front of b and returns
// it along with the number of bytes consumed.
//
// Decode is strict: an unrecognized tag byte yields ErrInvalidValueTag;
// a buffer too short for the tag's payload yields ErrCorruption.
func Decode(b []byte) (Value, int, error) {
	if len(b) < 1 {
		return Value{}, 0, ErrCorruption
	}
	tag := Tag(b[0])
	rest := b[1:]

	switch tag {
	case TagNull:
		return Null, 1, nil
	case TagString:
		s, n, err := readString(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return String(s), 1 + n, nil
	case TagInt:
		u, n, err := readUint64(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return Int(int64(u)), 1 + n, nil
	case TagFloat:
		u, n, err := readUint64(rest)
		if err != nil {
			return Value{}, 0, err
		}
		return Float(math.Float64frombits(u)), 1 + n, nil
	case TagNodeRef, TagEdgeRef, TagID:
		if len(rest) < ids.Size {
			return Value{}, 0, ErrCorruption
		}
		id, err := ids.FromBytes(rest[:ids.Size])
		if err != nil {
			return Value{}, 0, fmt.Errorf("%w: %v", ErrCorruption, err)
		}
		switch tag {
		case TagNodeRef:
			return NodeRef(id), 1 + ids.Size, nil
		case TagEdgeRef:
			return EdgeRef(id), 1 + ids.Size, nil
		default:
			return ID(id), 1 + ids.Size, nil
		}
	case TagBool:
		if len(rest) < 1 {
			return Value{}, 0, ErrCorruption
		}
		return Bool(rest[0] != 0), 2, nil
	default:
		return Value{}, 0, ErrInvalidValueTag
	}
}

// EncodeAll is a convenience wrapper that allocates a fresh buffer.
func EncodeAll(v Value) []byte {
	return Encode(nil, v)
}

// DecodeAll decodes a single Value occupying the entirety of b,
// rejecting trailing bytes as corruption.
func DecodeAll(b []byte) (Value, error) {
	v, n, err := Decode(b)
	if err != nil {
		return Value{}, err
	}
	if n != len(b) {
		return Value{}, ErrCorruption
	}
	return v, nil
}

// --- shared length-prefixed helpers, reused by labels/properties ---

func appendUint32(dst []byte, n uint32) []byte {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], n)
	return append(dst, buf[:]...)
}

func appendUint64(dst []byte, n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return append(dst, buf[:]...)
}

func appendString(dst []byte, s string) []byte {
	dst = appendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}

func readUint32(b []byte) (uint32, int, error) {
	if len(b) < 4 {
		return 0, 0, ErrCorruption
	}
	return binary.BigEndian.Uint32(b), 4, nil
}

func readUint64(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, ErrCorruption
	}
	return binary.BigEndian.Uint64(b), 8, nil
}

func readString(b []byte) (string, int, error) {
	length, n, err := readUint32(b)
	if err != nil {
		return "", 0, err
	}
	b = b[n:]
	if uint32(len(b)) < length {
		return "", 0, ErrCorruption
	}
	return string(b[:length]), n + int(length), nil
}

// EncodeLabels appends a 4-byte count followed by that many
// length-prefixed label strings, per spec.md §4.2/§6.
func EncodeLabels(dst []byte, labels []string) []byte {
	dst = appendUint32(dst, uint32(len(labels)))
	for _, l := range labels {
		dst = appendString(dst, l)
	}
	return dst
}

// DecodeLabels reads a label set encoded by EncodeLabels.
func DecodeLabels(b []byte) ([]string, int, error) {
	count, n, err := readUint32(b)
	if err != nil {
		return nil, 0, err
	}
	total := n
	b = b[n:]
	labels := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		s, sn, err := readString(b)
		if err != nil {
			return nil, 0, err
		}
		labels = append(labels, s)
		b = b[sn:]
		total += sn
	}
	return labels, total, nil
}

// PropertyEntry is a single ordered (key, value) pair within a property
// map, preserving insertion order on decode.
type PropertyEntry struct {
	Key   string
	Value Value
}

// EncodeProperties appends a 4-byte count followed by that many
// (key_len, key_bytes, value_tag, value_payload) entries, per spec.md
// §4.2/§6. Order is preserved.
func EncodeProperties(dst []byte, props []PropertyEntry) []byte {
	dst = appendUint32(dst, uint32(len(props)))
	for _, p := range props {
		dst = appendString(dst, p.Key)
		dst = Encode(dst, p.Value)
	}
	return dst
}

// DecodeProperties reads a property map encoded by EncodeProperties,
// preserving the original key order.
func DecodeProperties(b []byte) ([]PropertyEntry, int, error) {
	count, n, err := readUint32(b)
	if err != nil {
		return nil, 0, err
	}
	total := n
	b = b[n:]
	props := make([]PropertyEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		key, kn, err := readString(b)
		if err != nil {
			return nil, 0, err
		}
		b = b[kn:]
		total += kn

		v, vn, err := Decode(b)
		if err != nil {
			return nil, 0, err
		}
		b = b[vn:]
		total += vn

		props = append(props, PropertyEntry{Key: key, Value: v})
	}
	return props, total, nil
}
