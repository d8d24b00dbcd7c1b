package consensus

import "math/big"

// maxVarintBytes bounds a single encoded integer: 19 groups of 7 bits cover
// the full 128-bit range (19*7 = 133 >= 128), matching spec.md §4.1.
const maxVarintBytes = 19

// WriteU128Varint appends the LEB128-style encoding of v to dst: each byte
// carries 7 value bits little-endian, with the high bit set on every byte
// except the last.
func WriteU128Varint(dst []byte, v U128) []byte {
	n := v.big()
	if n.Sign() == 0 {
		return append(dst, 0x00)
	}
	n = new(big.Int).Set(n)
	mask := big.NewInt(0x7f)
	for n.Sign() > 0 {
		group := new(big.Int).And(n, mask)
		n.Rsh(n, 7)
		b := byte(group.Uint64())
		if n.Sign() > 0 {
			b |= 0x80
		}
		dst = append(dst, b)
	}
	return dst
}

// readU128Varint decodes a single varint from the front of the cursor.
// Flaws: FlawVarintOverflow if the integer spans more than 19 bytes or its
// value exceeds 2^128-1; FlawTruncatedVarint if the stream ends mid-integer.
func readU128Varint(c *byteCursor) (U128, *Flaw) {
	acc := new(big.Int)
	shift := uint(0)
	for i := 0; ; i++ {
		if i >= maxVarintBytes {
			return U128{}, flaw(FlawVarintOverflow, "varint exceeds 19 bytes")
		}
		b, ok := c.readU8()
		if !ok {
			return U128{}, flaw(FlawTruncatedVarint, "stream ended mid-integer")
		}
		group := big.NewInt(int64(b & 0x7f))
		group.Lsh(group, shift)
		acc.Or(acc, group)
		shift += 7
		if b&0x80 == 0 {
			val, ok := U128FromBigInt(acc)
			if !ok {
				return U128{}, flaw(FlawVarintOverflow, "value exceeds 2^128-1")
			}
			return val, nil
		}
	}
}

// DecodeU128VarintStream decodes the entire payload as a flat sequence of
// u128 varints (spec.md §4.1). A flaw anywhere in the stream aborts decoding
// of the whole message.
func DecodeU128VarintStream(payload []byte) ([]U128, *Flaw) {
	c := newByteCursor(payload)
	out := make([]U128, 0, len(payload)/2)
	for !c.atEnd() {
		v, fl := readU128Varint(c)
		if fl != nil {
			return nil, fl
		}
		out = append(out, v)
	}
	return out, nil
}
