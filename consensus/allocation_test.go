package consensus

import "testing"

func TestAllocate_TransferAllSentinel(t *testing.T) {
	id := RelicId{Block: 1, TxIndex: 1}
	in := AllocationInput{
		InputPool:  map[RelicId]U128{id: U128FromUint64(100)},
		Transfers:  []Transfer{{ID: id, Amount: ZeroU128, Output: 0}},
		NOutputs:   2,
		IsOpReturn: []bool{false, false},
	}
	res, ok := Allocate(in)
	if !ok {
		t.Fatalf("unexpected overflow")
	}
	if res.PerOutput[0][id].Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("output 0 = %s, want 100 (amount==0 means transfer all)", res.PerOutput[0][id])
	}
	if len(res.PerOutput[1]) != 0 {
		t.Fatalf("output 1 should be empty")
	}
}

func TestAllocate_SplitEvenlySentinel(t *testing.T) {
	id := RelicId{Block: 1, TxIndex: 1}
	in := AllocationInput{
		InputPool:  map[RelicId]U128{id: U128FromUint64(100)},
		Transfers:  []Transfer{{ID: id, Amount: U128FromUint64(100), Output: 3}}, // Output == NOutputs
		NOutputs:   3,
		IsOpReturn: []bool{false, false, false},
	}
	res, ok := Allocate(in)
	if !ok {
		t.Fatalf("unexpected overflow")
	}
	// 100 / 3 = 33 remainder 1, remainder to first output.
	if res.PerOutput[0][id].Cmp(U128FromUint64(34)) != 0 {
		t.Fatalf("output 0 = %s, want 34", res.PerOutput[0][id])
	}
	if res.PerOutput[1][id].Cmp(U128FromUint64(33)) != 0 {
		t.Fatalf("output 1 = %s, want 33", res.PerOutput[1][id])
	}
	if res.PerOutput[2][id].Cmp(U128FromUint64(33)) != 0 {
		t.Fatalf("output 2 = %s, want 33", res.PerOutput[2][id])
	}
}

func TestAllocate_AbsentIdIsNoOp(t *testing.T) {
	id := RelicId{Block: 1, TxIndex: 1}
	other := RelicId{Block: 1, TxIndex: 2}
	in := AllocationInput{
		InputPool:  map[RelicId]U128{id: U128FromUint64(100)},
		Transfers:  []Transfer{{ID: other, Amount: U128FromUint64(5), Output: 0}},
		NOutputs:   2,
		IsOpReturn: []bool{false, false},
	}
	res, ok := Allocate(in)
	if !ok {
		t.Fatalf("unexpected overflow")
	}
	// The transfer referencing `other` is a no-op; id's full balance defaults
	// to the first non-OP_RETURN output.
	if res.PerOutput[0][id].Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("output 0 = %s, want 100", res.PerOutput[0][id])
	}
}

func TestAllocate_BurnsToOpReturnOutput(t *testing.T) {
	id := RelicId{Block: 1, TxIndex: 1}
	in := AllocationInput{
		InputPool:  map[RelicId]U128{id: U128FromUint64(100)},
		Transfers:  []Transfer{{ID: id, Amount: ZeroU128, Output: 0}},
		NOutputs:   1,
		IsOpReturn: []bool{true},
	}
	res, ok := Allocate(in)
	if !ok {
		t.Fatalf("unexpected overflow")
	}
	if res.Burned[id].Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("burned = %s, want 100", res.Burned[id])
	}
}

func TestAllocate_PointerOverridesDefault(t *testing.T) {
	id := RelicId{Block: 1, TxIndex: 1}
	ptr := uint32(1)
	in := AllocationInput{
		InputPool:  map[RelicId]U128{id: U128FromUint64(100)},
		Pointer:    &ptr,
		NOutputs:   2,
		IsOpReturn: []bool{false, false},
	}
	res, ok := Allocate(in)
	if !ok {
		t.Fatalf("unexpected overflow")
	}
	if res.PerOutput[1][id].Cmp(U128FromUint64(100)) != 0 {
		t.Fatalf("output 1 (pointer target) = %s, want 100", res.PerOutput[1][id])
	}
	if len(res.PerOutput[0]) != 0 {
		t.Fatalf("output 0 should be empty")
	}
}
