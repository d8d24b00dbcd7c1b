package consensus

import "testing"

func TestNameIntegerRoundTrip(t *testing.T) {
	cases := []string{"A", "Z", "AA", "AB", "ZZ", "RELIC", "MBTC"}
	for _, letters := range cases {
		v := EncodeNameInteger(letters)
		got, ok := DecodeNameInteger(v)
		if !ok {
			t.Fatalf("DecodeNameInteger(%s) failed to decode", letters)
		}
		if got != letters {
			t.Fatalf("round trip %s -> %s -> %s", letters, v, got)
		}
	}
}

func TestNameIntegerKnownValues(t *testing.T) {
	// v=0; v=(v+1)*26+(c-'A') per letter.
	if EncodeNameInteger("A").Cmp(U128FromUint64(26)) != 0 {
		t.Fatalf("A should encode to 26")
	}
	if EncodeNameInteger("Z").Cmp(U128FromUint64(51)) != 0 {
		t.Fatalf("Z should encode to 51")
	}
	if EncodeNameInteger("AA").Cmp(U128FromUint64(702)) != 0 {
		t.Fatalf("AA should encode to 702")
	}
}

func TestDecodeNameInteger_ZeroInvalid(t *testing.T) {
	if _, ok := DecodeNameInteger(ZeroU128); ok {
		t.Fatalf("expected 0 to be an invalid name encoding")
	}
}

func TestValidateSpacerMask(t *testing.T) {
	if !ValidateSpacerMask(0, 1) {
		t.Fatalf("single-letter name should allow a zero mask")
	}
	if ValidateSpacerMask(1, 1) {
		t.Fatalf("single-letter name should reject any spacer bit")
	}
	if !ValidateSpacerMask(0b11, 3) {
		t.Fatalf("3-letter name should allow bits 0 and 1")
	}
	if ValidateSpacerMask(0b100, 3) {
		t.Fatalf("3-letter name should reject bit 2 (only 2 gaps exist)")
	}
}

func TestNameDisplay(t *testing.T) {
	n := Name{Letters: "AB", SpacerMask: 0b1}
	if got := n.Display(); got != "A•B" {
		t.Fatalf("Display() = %q, want %q", got, "A•B")
	}
}
