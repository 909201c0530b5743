package dex

import "testing"

func TestOpcodeFamilyMoveRange(t *testing.T) {
	for _, op := range []uint8{0x01, 0x02, 0x03, 0x07, 0x08, 0x09} {
		if got := OpcodeFamily(op); got != FamMove {
			t.Fatalf("opcode 0x%02x: want FamMove, got %v", op, got)
		}
	}
}

func TestOpcodeFamilyInvokeRanges(t *testing.T) {
	cases := map[uint8]Family{
		0x6e: FamInvokeVirtual,
		0x6f: FamInvokeSuper,
		0x70: FamInvokeDirect,
		0x71: FamInvokeStatic,
		0x72: FamInvokeInterface,
		0x74: FamInvokeVirtual, // /range variant
		0x77: FamInvokeStatic,  // /range variant
	}
	for op, want := range cases {
		if got := OpcodeFamily(op); got != want {
			t.Fatalf("opcode 0x%02x: want %v, got %v", op, want, got)
		}
	}
}

func TestOpcodeFamilyArithmeticRanges(t *testing.T) {
	if got := OpcodeFamily(0x7b); got != FamUnaryOp {
		t.Fatalf("0x7b: want FamUnaryOp, got %v", got)
	}
	if got := OpcodeFamily(0x90); got != FamBinaryOp {
		t.Fatalf("0x90: want FamBinaryOp, got %v", got)
	}
	if got := OpcodeFamily(0xd0); got != FamBinaryOpConst {
		t.Fatalf("0xd0: want FamBinaryOpConst, got %v", got)
	}
}

func TestOpcodeFamilyUnknownFallsBackToNop(t *testing.T) {
	if got := OpcodeFamily(0x3e); got != FamNop {
		t.Fatalf("unused opcode 0x3e: want FamNop, got %v", got)
	}
}
