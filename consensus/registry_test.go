package consensus

import "testing"

func TestSealFee(t *testing.T) {
	cases := []struct {
		length int
		want   uint64
	}{
		{1, 210000}, {2, 21000}, {3, 2100}, {4, 500}, {6, 500}, {7, 10}, {12, 10}, {13, 1}, {26, 1},
	}
	for _, c := range cases {
		got := SealFee(c.length)
		want := MBTCDisplay(c.want)
		if got.Cmp(want) != 0 {
			t.Fatalf("SealFee(%d) = %s, want %s", c.length, got, want)
		}
	}
}

func TestClassifySeal_MissingInscription(t *testing.T) {
	outcome := ClassifySeal(false, false, ZeroU128, MBTCDisplay(1), false, false)
	if outcome != SealFlawMissingInscription {
		t.Fatalf("got %v, want SealFlawMissingInscription", outcome)
	}
}

func TestClassifySeal_InsufficientFee(t *testing.T) {
	outcome := ClassifySeal(true, true, MBTCDisplay(1), MBTCDisplay(10), false, false)
	if outcome != SealFlawInsufficientFee {
		t.Fatalf("got %v, want SealFlawInsufficientFee", outcome)
	}
}

func TestClassifySeal_NameTakenGlobally(t *testing.T) {
	outcome := ClassifySeal(true, true, MBTCDisplay(10), MBTCDisplay(10), true, false)
	if outcome != SealFlawNameTaken {
		t.Fatalf("got %v, want SealFlawNameTaken", outcome)
	}
}

func TestClassifySeal_FrontrunRefund(t *testing.T) {
	outcome := ClassifySeal(true, true, MBTCDisplay(10), MBTCDisplay(10), false, true)
	if outcome != SealFrontrunRefund {
		t.Fatalf("got %v, want SealFrontrunRefund", outcome)
	}
}

func TestClassifySeal_Success(t *testing.T) {
	outcome := ClassifySeal(true, true, MBTCDisplay(10), MBTCDisplay(10), false, false)
	if outcome != SealSucceeded {
		t.Fatalf("got %v, want SealSucceeded", outcome)
	}
}

func TestEvaluateEnshrine_Success(t *testing.T) {
	amount := U128FromUint64(100)
	cap := uint64(10)
	seed := U128FromUint64(50)
	price := PriceSchedule{Mode: PriceModeFixed, Fixed: ZeroU128}
	record := &SealingRecord{InscriptionLive: true}
	ok, _ := EvaluateEnshrine(record, true, &amount, &cap, true, price, &seed)
	if !ok {
		t.Fatalf("expected enshrine to succeed")
	}
}

func TestEvaluateEnshrine_WithoutSealing(t *testing.T) {
	amount := U128FromUint64(100)
	cap := uint64(10)
	seed := U128FromUint64(50)
	price := PriceSchedule{Mode: PriceModeFixed}
	ok, code := EvaluateEnshrine(nil, true, &amount, &cap, true, price, &seed)
	if ok || code != FlawEnshrineWithoutSealing {
		t.Fatalf("got (%v,%v), want (false, FlawEnshrineWithoutSealing)", ok, code)
	}
}

func TestEvaluateEnshrine_NotOwner(t *testing.T) {
	amount := U128FromUint64(100)
	cap := uint64(10)
	seed := U128FromUint64(50)
	price := PriceSchedule{Mode: PriceModeFixed}
	record := &SealingRecord{InscriptionLive: true}
	ok, code := EvaluateEnshrine(record, false, &amount, &cap, true, price, &seed)
	if ok || code != FlawEnshrineNotOwner {
		t.Fatalf("got (%v,%v), want (false, FlawEnshrineNotOwner)", ok, code)
	}
}

func TestEvaluateEnshrine_SeedExceedsSupply(t *testing.T) {
	amount := U128FromUint64(10)
	cap := uint64(2)
	seed := U128FromUint64(1000)
	price := PriceSchedule{Mode: PriceModeFixed}
	record := &SealingRecord{InscriptionLive: true}
	ok, code := EvaluateEnshrine(record, true, &amount, &cap, true, price, &seed)
	if ok || code != FlawSeedExceedsSupply {
		t.Fatalf("got (%v,%v), want (false, FlawSeedExceedsSupply)", ok, code)
	}
}
