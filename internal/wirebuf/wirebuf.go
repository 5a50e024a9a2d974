// Package wirebuf provides a growable byte buffer with a read cursor and
// format-driven pack/unpack primitives for wire protocol assembly.
package wirebuf

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	// ErrShort is returned by Unpack when the buffered input cannot satisfy
	// the requested format.
	ErrShort = errors.New("wirebuf: short buffer")

	// ErrNoSpace is returned when a fixed-storage buffer cannot grow to fit
	// appended content.
	ErrNoSpace = errors.New("wirebuf: fixed buffer full")
)

// Buffer is a contiguous byte region, owned (New) or borrowed from the caller
// (NewFixed), with a write length and a read cursor. Invariant: 0 <= offset <= length <= cap(data). Not safe for
// concurrent use.
type Buffer struct {
	data   []byte
	length int
	offset int
	fixed  bool
}

// New returns a buffer backed by owned storage that grows on demand.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, capacity)}
}

// NewFixed returns a buffer backed by the caller's storage. Appends beyond
// the storage capacity fail with ErrNoSpace.
func NewFixed(storage []byte) *Buffer {
	return &Buffer{data: storage, fixed: true}
}

// Len reports the number of valid bytes held.
func (b *Buffer) Len() int { return b.length }

// Offset reports the read cursor position.
func (b *Buffer) Offset() int { return b.offset }

// SetOffset repositions the read cursor. Positions beyond the valid length
// are clamped.
func (b *Buffer) SetOffset(offset int) {
	if offset < 0 {
		offset = 0
	}
	if offset > b.length {
		offset = b.length
	}
	b.offset = offset
}

// Bytes exposes the valid region for zero-copy reads. The slice aliases the
// buffer storage and is invalidated by the next mutation.
func (b *Buffer) Bytes() []byte { return b.data[:b.length] }

// Remaining exposes the unread tail of the valid region.
func (b *Buffer) Remaining() []byte { return b.data[b.offset:b.length] }

// Empty drops all content and resets the cursor. Storage is retained.
func (b *Buffer) Empty() {
	b.length = 0
	b.offset = 0
}

// EnsureCapacity guarantees room for n more bytes beyond the current length.
func (b *Buffer) EnsureCapacity(n int) error {
	need := b.length + n
	if need <= cap(b.data) {
		b.data = b.data[:cap(b.data)]
		return nil
	}
	if b.fixed {
		return ErrNoSpace
	}
	grown := cap(b.data) * 2
	if grown < need {
		grown = need
	}
	next := make([]byte, grown)
	copy(next, b.data[:b.length])
	b.data = next
	return nil
}

// Append copies raw bytes onto the end of the valid region.
func (b *Buffer) Append(p []byte) error {
	if err := b.EnsureCapacity(len(p)); err != nil {
		return err
	}
	copy(b.data[b.length:], p)
	b.length += len(p)
	return nil
}

// Consume drops n leading bytes and resets the cursor, keeping the buffer
// rolling across message boundaries.
func (b *Buffer) Consume(n int) {
	if n > b.length {
		n = b.length
	}
	copy(b.data, b.data[n:b.length])
	b.length -= n
	b.offset = 0
}

// Pack appends values encoded per the format string. Supported codes:
//
//	n   16-bit big-endian unsigned
//	N   32-bit big-endian unsigned
//	C c 8-bit
//	a* A*  raw bytes, written in full (length carried by a preceding code)
//	y   protobuf varint
//	b%  raw bytes with an explicit length argument (length, data)
//
// Spaces in the format are ignored.
func (b *Buffer) Pack(format string, args ...any) error {
	ai := 0
	next := func() (any, error) {
		if ai >= len(args) {
			return nil, fmt.Errorf("wirebuf: pack %q: missing argument %d", format, ai)
		}
		v := args[ai]
		ai++
		return v, nil
	}

	for fi := 0; fi < len(format); fi++ {
		code := format[fi]
		if code == ' ' {
			continue
		}
		if fi+1 < len(format) && (format[fi+1] == '*' || format[fi+1] == '%') {
			fi++
		}

		switch code {
		case 'n':
			arg, err := next()
			if err != nil {
				return err
			}
			v, err := asUint(arg)
			if err != nil {
				return err
			}
			if err := b.EnsureCapacity(2); err != nil {
				return err
			}
			b.data[b.length] = byte(v >> 8)
			b.data[b.length+1] = byte(v)
			b.length += 2

		case 'N':
			arg, err := next()
			if err != nil {
				return err
			}
			v, err := asUint(arg)
			if err != nil {
				return err
			}
			if err := b.EnsureCapacity(4); err != nil {
				return err
			}
			b.data[b.length] = byte(v >> 24)
			b.data[b.length+1] = byte(v >> 16)
			b.data[b.length+2] = byte(v >> 8)
			b.data[b.length+3] = byte(v)
			b.length += 4

		case 'C', 'c':
			arg, err := next()
			if err != nil {
				return err
			}
			v, err := asUint(arg)
			if err != nil {
				return err
			}
			if err := b.EnsureCapacity(1); err != nil {
				return err
			}
			b.data[b.length] = byte(v)
			b.length++

		case 'a', 'A':
			arg, err := next()
			if err != nil {
				return err
			}
			raw, err := asBytes(arg)
			if err != nil {
				return err
			}
			if err := b.Append(raw); err != nil {
				return err
			}

		case 'y':
			arg, err := next()
			if err != nil {
				return err
			}
			v, err := asUint(arg)
			if err != nil {
				return err
			}
			encoded := protowire.AppendVarint(nil, v)
			if err := b.Append(encoded); err != nil {
				return err
			}

		case 'b':
			lenArg, err := next()
			if err != nil {
				return err
			}
			n, err := asUint(lenArg)
			if err != nil {
				return err
			}
			arg, err := next()
			if err != nil {
				return err
			}
			raw, err := asBytes(arg)
			if err != nil {
				return err
			}
			if int(n) > len(raw) {
				return fmt.Errorf("wirebuf: pack %q: length %d exceeds data size %d", format, n, len(raw))
			}
			if err := b.Append(raw[:n]); err != nil {
				return err
			}

		default:
			return fmt.Errorf("wirebuf: pack: unknown format code %q", code)
		}
	}

	return nil
}

// Unpack reads values per the format string into pointer arguments, advancing
// the cursor. Raw-byte codes a*/A* take their length from the most recently
// unpacked integer; b% takes an explicit length value followed by a *[]byte.
// Insufficient input returns ErrShort with the cursor left where the failing
// field began.
func (b *Buffer) Unpack(format string, args ...any) error {
	ai := 0
	next := func() (any, error) {
		if ai >= len(args) {
			return nil, fmt.Errorf("wirebuf: unpack %q: missing argument %d", format, ai)
		}
		v := args[ai]
		ai++
		return v, nil
	}

	var lastUint uint64
	for fi := 0; fi < len(format); fi++ {
		code := format[fi]
		if code == ' ' {
			continue
		}
		if fi+1 < len(format) && (format[fi+1] == '*' || format[fi+1] == '%') {
			fi++
		}

		switch code {
		case 'n':
			if b.length-b.offset < 2 {
				return ErrShort
			}
			v := uint16(b.data[b.offset])<<8 | uint16(b.data[b.offset+1])
			b.offset += 2
			lastUint = uint64(v)
			arg, err := next()
			if err != nil {
				return err
			}
			if err := storeUint(arg, uint64(v)); err != nil {
				return err
			}

		case 'N':
			if b.length-b.offset < 4 {
				return ErrShort
			}
			v := uint32(b.data[b.offset])<<24 | uint32(b.data[b.offset+1])<<16 |
				uint32(b.data[b.offset+2])<<8 | uint32(b.data[b.offset+3])
			b.offset += 4
			lastUint = uint64(v)
			arg, err := next()
			if err != nil {
				return err
			}
			if err := storeUint(arg, uint64(v)); err != nil {
				return err
			}

		case 'C', 'c':
			if b.length-b.offset < 1 {
				return ErrShort
			}
			v := b.data[b.offset]
			b.offset++
			lastUint = uint64(v)
			arg, err := next()
			if err != nil {
				return err
			}
			if err := storeUint(arg, uint64(v)); err != nil {
				return err
			}

		case 'a', 'A':
			n := int(lastUint)
			if b.length-b.offset < n {
				return ErrShort
			}
			arg, err := next()
			if err != nil {
				return err
			}
			if err := storeBytes(arg, b.data[b.offset:b.offset+n]); err != nil {
				return err
			}
			b.offset += n

		case 'y':
			v, consumed := protowire.ConsumeVarint(b.data[b.offset:b.length])
			if consumed < 0 {
				return ErrShort
			}
			b.offset += consumed
			lastUint = v
			arg, err := next()
			if err != nil {
				return err
			}
			if err := storeUint(arg, v); err != nil {
				return err
			}

		case 'b':
			lenArg, err := next()
			if err != nil {
				return err
			}
			n64, err := asUint(lenArg)
			if err != nil {
				return err
			}
			n := int(n64)
			if b.length-b.offset < n {
				return ErrShort
			}
			arg, err := next()
			if err != nil {
				return err
			}
			if err := storeBytes(arg, b.data[b.offset:b.offset+n]); err != nil {
				return err
			}
			b.offset += n

		default:
			return fmt.Errorf("wirebuf: unpack: unknown format code %q", code)
		}
	}

	return nil
}

func asUint(arg any) (uint64, error) {
	switch v := arg.(type) {
	case int:
		return uint64(v), nil
	case int8:
		return uint64(v), nil
	case int16:
		return uint64(v), nil
	case int32:
		return uint64(v), nil
	case int64:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case uint:
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("wirebuf: unsupported integer argument %T", arg)
	}
}

func asBytes(arg any) ([]byte, error) {
	switch v := arg.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("wirebuf: unsupported bytes argument %T", arg)
	}
}

func storeUint(arg any, v uint64) error {
	switch p := arg.(type) {
	case *uint8:
		*p = uint8(v)
	case *int8:
		*p = int8(v)
	case *uint16:
		*p = uint16(v)
	case *uint32:
		*p = uint32(v)
	case *uint64:
		*p = v
	case *int:
		*p = int(v)
	case *int32:
		*p = int32(v)
	default:
		return fmt.Errorf("wirebuf: unsupported integer target %T", arg)
	}
	return nil
}

func storeBytes(arg any, src []byte) error {
	switch p := arg.(type) {
	case *[]byte:
		out := make([]byte, len(src))
		copy(out, src)
		*p = out
	case *string:
		*p = string(src)
	default:
		return fmt.Errorf("wirebuf: unsupported bytes target %T", arg)
	}
	return nil
}
