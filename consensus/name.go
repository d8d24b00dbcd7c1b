package consensus

import "math/big"

const maxNameLetters = 26

var (
	big26 = big.NewInt(26)
	big1  = big.NewInt(1)
)

// Name is the pair (letters, spacer_mask) of spec.md §3. Letters is a
// nonempty sequence over A..Z, length 1..26. SpacerMask bit i (0-indexed,
// valid for i in 0..len(Letters)-2) set means a bullet renders between
// letter i and letter i+1.
type Name struct {
	Letters    string
	SpacerMask uint32
}

// EncodeNameInteger computes the collision-free base-26 integer encoding of
// letters (spec.md §4.3): v=0; for c in letters: v = (v+1)*26 + (c-'A').
func EncodeNameInteger(letters string) U128 {
	v := new(big.Int)
	for i := 0; i < len(letters); i++ {
		v.Add(v, big1)
		v.Mul(v, big26)
		v.Add(v, big.NewInt(int64(letters[i]-'A')))
	}
	out, _ := U128FromBigInt(v)
	return out
}

// DecodeNameInteger reverses EncodeNameInteger. Returns false (NameInvalid)
// if v is zero (no encoding produces 0) or decodes to more than 26 letters.
func DecodeNameInteger(v U128) (string, bool) {
	n := new(big.Int).Set(v.big())
	if n.Sign() == 0 {
		return "", false
	}
	lettersRev := make([]byte, 0, maxNameLetters)
	for i := 0; i < maxNameLetters && n.Sign() > 0; i++ {
		d := new(big.Int).Mod(n, big26)
		lettersRev = append(lettersRev, byte('A')+byte(d.Int64()))
		n.Div(n, big26)
		n.Sub(n, big1)
	}
	if n.Sign() != 0 {
		return "", false // more than 26 letters: overflow
	}
	out := make([]byte, len(lettersRev))
	for i, c := range lettersRev {
		out[len(out)-1-i] = c
	}
	return string(out), true
}

// validateLetters reports whether s is a nonempty sequence of 1..26 A-Z
// characters.
func validateLetters(s string) bool {
	if len(s) < 1 || len(s) > maxNameLetters {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// ValidateSpacerMask checks mask against a name of nLetters letters: bits at
// position >= nLetters-1 must be zero (spec.md §3, §4.3). A single-letter
// name admits no spacer bits at all.
func ValidateSpacerMask(mask uint32, nLetters int) bool {
	if nLetters <= 1 {
		return mask == 0
	}
	validBits := uint(nLetters - 1)
	if validBits >= 32 {
		return true
	}
	return mask>>validBits == 0
}

// Display renders name interleaving U+2022 (•) wherever SpacerMask requires.
func (n Name) Display() string {
	if len(n.Letters) == 0 {
		return ""
	}
	out := make([]byte, 0, len(n.Letters)*4)
	for i := 0; i < len(n.Letters); i++ {
		out = append(out, n.Letters[i])
		if i < len(n.Letters)-1 && n.SpacerMask&(1<<uint(i)) != 0 {
			out = append(out, "•"...)
		}
	}
	return string(out)
}
