package dex

import (
	"reflect"
	"testing"
)

func TestDecodeConst4PositiveLiteral(t *testing.T) {
	// const/4 v1, #+5
	code := []uint16{0x5112}
	next, args := Decode(code, 0, 0x12)
	if next != 1 {
		t.Fatalf("want next=1, got %d", next)
	}
	if args.A != 1 || args.B != 5 {
		t.Fatalf("want A=1 B=5, got A=%d B=%d", args.A, args.B)
	}
}

func TestDecodeConst4NegativeLiteralSignExtends(t *testing.T) {
	// const/4 v0, #-1 (nibble 0xF sign-extends to -1)
	code := []uint16{0xF012}
	_, args := Decode(code, 0, 0x12)
	if int32(args.B) != -1 {
		t.Fatalf("want B=-1, got %d", int32(args.B))
	}
}

func TestDecodeInvokeVirtual35c(t *testing.T) {
	// invoke-virtual {v1, v2}, method_idx=7
	code := []uint16{0x206e, 0x0007, 0x0021}
	next, args := Decode(code, 0, 0x6e)
	if next != 3 {
		t.Fatalf("want next=3, got %d", next)
	}
	if args.A != 7 {
		t.Fatalf("want method idx 7, got %d", args.A)
	}
	if !reflect.DeepEqual(args.RegList, []uint16{1, 2}) {
		t.Fatalf("want reg list [1 2], got %v", args.RegList)
	}
}

func TestDecodeGotoOffsetResolvesToAbsolutePosition(t *testing.T) {
	// goto +3 at code-unit position 10
	code := make([]uint16, 11)
	code[10] = 0x0328
	_, args := Decode(code, 10, 0x28)
	if args.A != 13 {
		t.Fatalf("want absolute target 13, got %d", args.A)
	}
}
