package value

import "testing"

func TestRegistersGetSetRoundTrip(t *testing.T) {
	r := NewRegisters(4)
	if err := r.Set(0, Int32(5)); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := r.Get(0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AsInt32() != 5 {
		t.Fatalf("want 5, got %d", got.AsInt32())
	}
}

func TestRegistersUnsetSlotReadsNull(t *testing.T) {
	r := NewRegisters(2)
	got, err := r.Get(1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != KindNull {
		t.Fatalf("want null kind, got %v", got.Kind)
	}
}

func TestRegistersOutOfRangeIsFatal(t *testing.T) {
	r := NewRegisters(2)
	if _, err := r.Get(5); err == nil {
		t.Fatal("expected out-of-range error")
	}
	if err := r.Set(-1, Int32(1)); err == nil {
		t.Fatal("expected out-of-range error on negative index")
	}
}

func TestWideWriteInvalidatesPartnerHalf(t *testing.T) {
	r := NewRegisters(4)
	_ = r.SetWide(0, Int64(42))
	_ = r.Set(1, Int32(9)) // write to the high half alone
	// Writing v1 directly must invalidate v2 (its own wide partner), and a
	// fresh read of v0's original wide pairing is no longer trustworthy.
	got, _ := r.Get(1)
	if got.AsInt32() != 9 {
		t.Fatalf("want 9, got %d", got.AsInt32())
	}
	v2, _ := r.Get(2)
	if v2.Kind != KindNull {
		t.Fatalf("expected v2 invalidated by the write to its wide partner v1, got %v", v2.Kind)
	}
}

func TestMoveWideCopiesBothHalves(t *testing.T) {
	r := NewRegisters(4)
	_ = r.SetWide(0, Int64(100))
	if err := r.MoveWide(2, 0); err != nil {
		t.Fatalf("move-wide: %v", err)
	}
	v0, _ := r.Get(2)
	if v0.AsInt64() != 100 {
		t.Fatalf("want 100, got %d", v0.AsInt64())
	}
}
