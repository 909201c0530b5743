package interp

import "testing"

// spec.md §8: div/rem by zero is a fatal KindRuntime error, not a trap
// value, and int shift amounts mask to the low 5 bits the same way the JVM
// spec (and the underlying hardware shift instruction) does.

func TestDivIntByZeroIsFatal(t *testing.T) {
	f := &frame{}
	_, err := binIntOp(f, 3, 10, 0)
	if err == nil {
		t.Fatalf("expected an error dividing by zero")
	}
	ee, ok := err.(*EmuError)
	if !ok || ee.Kind != KindRuntime {
		t.Fatalf("expected a KindRuntime EmuError, got %#v", err)
	}
}

func TestRemIntByZeroIsFatal(t *testing.T) {
	f := &frame{}
	_, err := binIntOp(f, 4, 10, 0)
	if err == nil {
		t.Fatalf("expected an error for rem by zero")
	}
}

func TestShiftAmountMasksToFiveBits(t *testing.T) {
	f := &frame{}
	masked, err := binIntOp(f, 8, 1, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	unmasked, err := binIntOp(f, 8, 1, 35) // 35 & 0x1f == 3
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if masked != unmasked {
		t.Fatalf("shl by 3 (%d) should equal shl by 35 (%d)", masked, unmasked)
	}
	if masked != 8 {
		t.Fatalf("want 1<<3 == 8, got %d", masked)
	}
}

func TestDivIntTwosComplementOverflow(t *testing.T) {
	f := &frame{}
	// math.MinInt32 / -1 overflows in two's-complement arithmetic; Go's own
	// integer division wraps the same way the JVM's idiv does here rather
	// than panicking, so this should return MinInt32 unchanged with no error.
	r, err := binIntOp(f, 3, -2147483648, -1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != -2147483648 {
		t.Fatalf("want -2147483648, got %d", r)
	}
}
