package traceindex

import "testing"

func TestDecodeMUTF8ASCII(t *testing.T) {
	got := decodeMUTF8([]byte("decrypt"))
	if got != "decrypt" {
		t.Fatalf("want %q, got %q", "decrypt", got)
	}
}

func TestDecodeMUTF8EncodedNull(t *testing.T) {
	// MUTF-8 encodes U+0000 as the two-byte sequence 0xC0 0x80 rather than a
	// literal 0x00 byte, so it survives inside a NUL-terminated string.
	got := decodeMUTF8([]byte{'a', 0xC0, 0x80, 'b'})
	want := "a\x00b"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestDecodeMUTF8TwoByteSequence(t *testing.T) {
	// U+00E9 (e-acute) encodes as 0xC3 0xA9 in both UTF-8 and MUTF-8.
	got := decodeMUTF8([]byte{0xC3, 0xA9})
	want := "é"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestDecodeMUTF8ThreeByteSequence(t *testing.T) {
	// U+2603 (snowman) requires a 3-byte sequence.
	got := decodeMUTF8([]byte{0xE2, 0x98, 0x83})
	want := "☃"
	if got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}
