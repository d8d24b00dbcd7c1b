package consensus

import "testing"

func TestVarintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 127, 128, 300, 16384, 1 << 40}
	for _, v := range cases {
		enc := WriteU128Varint(nil, U128FromUint64(v))
		got, fl := DecodeU128VarintStream(enc)
		if fl != nil {
			t.Fatalf("decode(%d): unexpected flaw %v", v, fl)
		}
		if len(got) != 1 {
			t.Fatalf("decode(%d): got %d values, want 1", v, len(got))
		}
		if u, ok := got[0].Uint64(); !ok || u != v {
			t.Fatalf("decode(%d) = %d", v, u)
		}
	}
}

func TestVarintMultipleValues(t *testing.T) {
	var buf []byte
	buf = WriteU128Varint(buf, U128FromUint64(5))
	buf = WriteU128Varint(buf, U128FromUint64(300))
	buf = WriteU128Varint(buf, ZeroU128)
	got, fl := DecodeU128VarintStream(buf)
	if fl != nil {
		t.Fatalf("unexpected flaw: %v", fl)
	}
	want := []uint64{5, 300, 0}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i, w := range want {
		if u, _ := got[i].Uint64(); u != w {
			t.Fatalf("value[%d] = %d, want %d", i, u, w)
		}
	}
}

func TestVarintTruncatedStream(t *testing.T) {
	_, fl := DecodeU128VarintStream([]byte{0x80})
	if fl == nil || fl.Code != FlawTruncatedVarint {
		t.Fatalf("expected FlawTruncatedVarint, got %v", fl)
	}
}

func TestVarintOverflow(t *testing.T) {
	overlong := make([]byte, 20)
	for i := range overlong {
		overlong[i] = 0x80
	}
	overlong[len(overlong)-1] = 0x01
	_, fl := DecodeU128VarintStream(overlong)
	if fl == nil || fl.Code != FlawVarintOverflow {
		t.Fatalf("expected FlawVarintOverflow, got %v", fl)
	}
}
