package wirebuf

import (
	"bytes"
	"errors"
	"testing"
)

func TestPackUnpackRoundTripPrimitives(t *testing.T) {
	buf := New(0)
	if err := buf.Pack("nNCy", 0xFEED, 0xDEADBEEF, 0x7F, 300); err != nil {
		t.Fatalf("pack: %v", err)
	}

	var n16 uint16
	var n32 uint32
	var c8 uint8
	var vi uint32
	if err := buf.Unpack("nNCy", &n16, &n32, &c8, &vi); err != nil {
		t.Fatalf("unpack: %v", err)
	}

	if n16 != 0xFEED {
		t.Fatalf("n16 = %#x, want 0xFEED", n16)
	}
	if n32 != 0xDEADBEEF {
		t.Fatalf("n32 = %#x, want 0xDEADBEEF", n32)
	}
	if c8 != 0x7F {
		t.Fatalf("c8 = %#x, want 0x7F", c8)
	}
	if vi != 300 {
		t.Fatalf("varint = %d, want 300", vi)
	}
	if buf.Offset() != buf.Len() {
		t.Fatalf("offset %d should equal length %d after full unpack", buf.Offset(), buf.Len())
	}
}

func TestPackUnpackLengthPairedBytes(t *testing.T) {
	buf := New(0)
	label := "_googlecast"
	if err := buf.Pack("Ca*", len(label), label); err != nil {
		t.Fatalf("pack: %v", err)
	}

	var slen uint8
	var out string
	if err := buf.Unpack("Ca*", &slen, &out); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if int(slen) != len(label) || out != label {
		t.Fatalf("round trip got (%d, %q), want (%d, %q)", slen, out, len(label), label)
	}
}

func TestPackUnpackExplicitLengthBytes(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x99}
	buf := New(0)
	if err := buf.Pack("b%", 4, payload); err != nil {
		t.Fatalf("pack: %v", err)
	}
	if buf.Len() != 4 {
		t.Fatalf("packed length = %d, want 4", buf.Len())
	}

	var out []byte
	if err := buf.Unpack("b%", 4, &out); err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !bytes.Equal(out, payload[:4]) {
		t.Fatalf("unpacked %x, want %x", out, payload[:4])
	}
}

func TestVarintRoundTripBoundaries(t *testing.T) {
	cases := []uint32{0, 1, 127, 128, 16383, 16384, 2097151, 2097152, 268435455, 268435456, 0xFFFFFFFF}
	for _, want := range cases {
		buf := New(0)
		if err := buf.Pack("y", want); err != nil {
			t.Fatalf("pack %d: %v", want, err)
		}
		var got uint32
		if err := buf.Unpack("y", &got); err != nil {
			t.Fatalf("unpack %d: %v", want, err)
		}
		if got != want {
			t.Fatalf("varint round trip = %d, want %d", got, want)
		}
		if buf.Len() > 5 {
			t.Fatalf("varint for %d used %d bytes, want <= 5", want, buf.Len())
		}
	}
}

func TestUnpackShortInputReturnsSentinel(t *testing.T) {
	buf := New(0)
	if err := buf.Pack("C", 5); err != nil {
		t.Fatalf("pack: %v", err)
	}

	var v uint32
	if err := buf.Unpack("N", &v); !errors.Is(err, ErrShort) {
		t.Fatalf("unpack err = %v, want ErrShort", err)
	}
}

func TestFixedBufferRefusesOverflow(t *testing.T) {
	storage := make([]byte, 4)
	buf := NewFixed(storage)
	if err := buf.Pack("N", 1); err != nil {
		t.Fatalf("pack within capacity: %v", err)
	}
	if err := buf.Pack("C", 1); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("pack beyond capacity err = %v, want ErrNoSpace", err)
	}
}

func TestConsumeKeepsTailAndResetsCursor(t *testing.T) {
	buf := New(0)
	if err := buf.Append([]byte{1, 2, 3, 4, 5}); err != nil {
		t.Fatalf("append: %v", err)
	}
	var b uint8
	if err := buf.Unpack("C", &b); err != nil {
		t.Fatalf("unpack: %v", err)
	}

	buf.Consume(2)
	if buf.Offset() != 0 {
		t.Fatalf("offset after consume = %d, want 0", buf.Offset())
	}
	if !bytes.Equal(buf.Bytes(), []byte{3, 4, 5}) {
		t.Fatalf("bytes after consume = %v, want [3 4 5]", buf.Bytes())
	}
}

func TestOffsetNeverExceedsLength(t *testing.T) {
	buf := New(8)
	if err := buf.Append([]byte{1, 2}); err != nil {
		t.Fatalf("append: %v", err)
	}
	buf.SetOffset(99)
	if buf.Offset() != buf.Len() {
		t.Fatalf("offset clamped to %d, want %d", buf.Offset(), buf.Len())
	}
	buf.SetOffset(-1)
	if buf.Offset() != 0 {
		t.Fatalf("offset clamped to %d, want 0", buf.Offset())
	}
}

func TestGrowthPreservesContent(t *testing.T) {
	buf := New(2)
	payload := bytes.Repeat([]byte{0xAB}, 100)
	if err := buf.Append(payload); err != nil {
		t.Fatalf("append: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), payload) {
		t.Fatal("content lost across growth")
	}
}
