package consensus

const (
	opReturn      = 0x6a
	opMarker      = 0x5f // OP_15, spec.md §6
	op0           = 0x00
	opPushData1   = 0x4c
	opPushData2   = 0x4d
	opPushData4   = 0x4e
	maxDirectPush = 0x4b // opcodes 0x01..0x4b push that many bytes
)

// ScanKeepsakeOutput locates the Relics OP_RETURN+marker output among tx's
// outputs and concatenates its data pushes into a single payload
// (spec.md §4.1, §6).
//
// found is false when no output carries the marker (ordinary transfer, no
// message). A non-nil Flaw means a message was present but malformed
// (MultipleMarkers, NonPushOpcode); found is still true in that case so
// callers know a cenotaph must be produced.
func ScanKeepsakeOutput(outputs [][]byte) (payload []byte, found bool, fl *Flaw) {
	markerIdx := -1
	for i, script := range outputs {
		if len(script) < 2 || script[0] != opReturn || script[1] != opMarker {
			continue
		}
		if markerIdx >= 0 {
			return nil, true, flaw(FlawMultipleMarkers, "more than one Keepsake marker output")
		}
		markerIdx = i
	}
	if markerIdx < 0 {
		return nil, false, nil
	}

	c := newByteCursor(outputs[markerIdx][2:])
	out := make([]byte, 0, c.remaining())
	for !c.atEnd() {
		opcode, ok := c.readU8()
		if !ok {
			break
		}
		switch {
		case opcode == op0:
			// pushes the empty array; contributes nothing.
		case opcode >= 0x01 && opcode <= maxDirectPush:
			data, ok := c.readBytes(int(opcode))
			if !ok {
				return nil, true, flaw(FlawNonPushOpcode, "truncated direct push")
			}
			out = append(out, data...)
		case opcode == opPushData1:
			n, ok := c.readU8()
			if !ok {
				return nil, true, flaw(FlawNonPushOpcode, "truncated PUSHDATA1 length")
			}
			data, ok := c.readBytes(int(n))
			if !ok {
				return nil, true, flaw(FlawNonPushOpcode, "truncated PUSHDATA1 payload")
			}
			out = append(out, data...)
		case opcode == opPushData2:
			lenBytes, ok := c.readBytes(2)
			if !ok {
				return nil, true, flaw(FlawNonPushOpcode, "truncated PUSHDATA2 length")
			}
			n := int(lenBytes[0]) | int(lenBytes[1])<<8
			data, ok := c.readBytes(n)
			if !ok {
				return nil, true, flaw(FlawNonPushOpcode, "truncated PUSHDATA2 payload")
			}
			out = append(out, data...)
		case opcode == opPushData4:
			lenBytes, ok := c.readBytes(4)
			if !ok {
				return nil, true, flaw(FlawNonPushOpcode, "truncated PUSHDATA4 length")
			}
			n := int(lenBytes[0]) | int(lenBytes[1])<<8 | int(lenBytes[2])<<16 | int(lenBytes[3])<<24
			data, ok := c.readBytes(n)
			if !ok {
				return nil, true, flaw(FlawNonPushOpcode, "truncated PUSHDATA4 payload")
			}
			out = append(out, data...)
		default:
			return nil, true, flaw(FlawNonPushOpcode, "non-push opcode after Keepsake marker")
		}
	}
	return out, true, nil
}
