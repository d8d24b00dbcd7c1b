package store

import (
	"encoding/binary"
	"fmt"
)

// compactSize is a minimally-encoded variable-length integer used to prefix
// variable-length fields in the store's binary encodings (name letters,
// collection counts), adapted from the teacher's wire CompactSize.
type compactSize uint64

func (c compactSize) encode() []byte {
	v := uint64(c)
	switch {
	case v < 0xfd:
		return []byte{byte(v)}
	case v <= 0xffff:
		b := make([]byte, 3)
		b[0] = 0xfd
		binary.LittleEndian.PutUint16(b[1:], uint16(v))
		return b
	case v <= 0xffffffff:
		b := make([]byte, 5)
		b[0] = 0xfe
		binary.LittleEndian.PutUint32(b[1:], uint32(v))
		return b
	default:
		b := make([]byte, 9)
		b[0] = 0xff
		binary.LittleEndian.PutUint64(b[1:], v)
		return b
	}
}

func decodeCompactSize(b []byte) (compactSize, int, error) {
	if len(b) < 1 {
		return 0, 0, fmt.Errorf("compactsize: empty")
	}
	switch tag := b[0]; {
	case tag < 0xfd:
		return compactSize(tag), 1, nil
	case tag == 0xfd:
		if len(b) < 3 {
			return 0, 0, fmt.Errorf("compactsize: truncated u16")
		}
		v := binary.LittleEndian.Uint16(b[1:3])
		if v < 0xfd {
			return 0, 0, fmt.Errorf("compactsize: non-minimal u16")
		}
		return compactSize(v), 3, nil
	case tag == 0xfe:
		if len(b) < 5 {
			return 0, 0, fmt.Errorf("compactsize: truncated u32")
		}
		v := binary.LittleEndian.Uint32(b[1:5])
		if v <= 0xffff {
			return 0, 0, fmt.Errorf("compactsize: non-minimal u32")
		}
		return compactSize(v), 5, nil
	default:
		if len(b) < 9 {
			return 0, 0, fmt.Errorf("compactsize: truncated u64")
		}
		v := binary.LittleEndian.Uint64(b[1:9])
		if v <= 0xffffffff {
			return 0, 0, fmt.Errorf("compactsize: non-minimal u64")
		}
		return compactSize(v), 9, nil
	}
}
