package stackitem

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// Item is the common interface satisfied by every stack item variant.
type Item interface {
	Type() Type
	// Value returns the item's underlying Go representation (bool,
	// *big.Int, []byte, []Item, []MapElement, interface{}, or nil).
	Value() interface{}
	// Bool converts the item per the VM's truthiness rule (spec §4.D:
	// "0 / empty -> false, else true").
	Bool() bool
	// TryBytes converts the item to a byte slice when that's a lossless,
	// well-defined conversion (Integer, ByteString, Buffer, Boolean).
	TryBytes() ([]byte, error)
	// TryInteger converts the item to its integer value when defined.
	TryInteger() (*big.Int, error)
	// Equals implements the VM EQUAL opcode's by-reference-except-Struct rule.
	Equals(Item) bool
	// Dup returns a value suitable for pushing again: containers are
	// reference-shared except Struct, which copies (spec §3.2).
	Dup() Item
}

// ErrInvalidConversion is returned when a Try* conversion isn't defined
// for the item's variant.
var ErrInvalidConversion = errors.New("invalid conversion")

// Null represents the Any/null singleton value.
type Null struct{}

// NewNull creates a Null item value.
func NewNull() Item { return Null{} }

// Type implements Item.
func (Null) Type() Type { return AnyT }

// Value implements Item.
func (Null) Value() interface{} { return nil }

// Bool implements Item.
func (Null) Bool() bool { return false }

// TryBytes implements Item.
func (Null) TryBytes() ([]byte, error) { return nil, ErrInvalidConversion }

// TryInteger implements Item.
func (Null) TryInteger() (*big.Int, error) { return nil, ErrInvalidConversion }

// Equals implements Item.
func (Null) Equals(o Item) bool { _, ok := o.(Null); return ok }

// Dup implements Item.
func (n Null) Dup() Item { return n }

// Bool is the Boolean variant.
type Bool bool

// NewBool wraps b.
func NewBool(b bool) Item { return Bool(b) }

// Type implements Item.
func (Bool) Type() Type { return BooleanT }

// Value implements Item.
func (b Bool) Value() interface{} { return bool(b) }

// Bool implements Item.
func (b Bool) Bool() bool { return bool(b) }

// TryBytes implements Item.
func (b Bool) TryBytes() ([]byte, error) {
	if b {
		return []byte{1}, nil
	}
	return []byte{0}, nil
}

// TryInteger implements Item.
func (b Bool) TryInteger() (*big.Int, error) {
	if b {
		return big.NewInt(1), nil
	}
	return big.NewInt(0), nil
}

// Equals implements Item.
func (b Bool) Equals(o Item) bool {
	ob, ok := o.(Bool)
	return ok && b == ob
}

// Dup implements Item.
func (b Bool) Dup() Item { return b }

// Integer is the arbitrary-precision signed integer variant.
type Integer struct {
	val *big.Int
}

// NewBigInteger creates an Integer from v, which must fit in ±2^256.
func NewBigInteger(v *big.Int) (Item, error) {
	if v.BitLen() > MaxBigIntegerSizeBits {
		return nil, errors.New("integer overflows 256-bit domain")
	}
	return &Integer{val: new(big.Int).Set(v)}, nil
}

// NewInteger creates an Integer from a native int64.
func NewInteger(v int64) Item { return &Integer{val: big.NewInt(v)} }

// Type implements Item.
func (*Integer) Type() Type { return IntegerT }

// Value implements Item.
func (i *Integer) Value() interface{} { return i.val }

// Big returns the underlying *big.Int.
func (i *Integer) Big() *big.Int { return i.val }

// Bool implements Item.
func (i *Integer) Bool() bool { return i.val.Sign() != 0 }

// TryBytes implements Item.
func (i *Integer) TryBytes() ([]byte, error) { return bigIntToBytes(i.val), nil }

// TryInteger implements Item.
func (i *Integer) TryInteger() (*big.Int, error) { return i.val, nil }

// Equals implements Item.
func (i *Integer) Equals(o Item) bool {
	oi, ok := o.(*Integer)
	return ok && i.val.Cmp(oi.val) == 0
}

// Dup implements Item.
func (i *Integer) Dup() Item { return &Integer{val: new(big.Int).Set(i.val)} }

// fastUint256 converts non-negative values fitting in 256 bits to a
// uint256.Int, reporting false for anything else. No opcode handler
// calls it; VM arithmetic works on math/big throughout.
func fastUint256(v *big.Int) (*uint256.Int, bool) {
	if v.Sign() < 0 || v.BitLen() > 256 {
		return nil, false
	}
	u := new(uint256.Int)
	overflow := u.SetFromBig(v)
	return u, !overflow
}

// ByteString is the immutable string-of-bytes variant.
type ByteString struct{ val []byte }

// NewByteString wraps b (copied) as an immutable ByteString.
func NewByteString(b []byte) Item {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &ByteString{val: cp}
}

// Type implements Item.
func (*ByteString) Type() Type { return ByteStringT }

// Value implements Item.
func (s *ByteString) Value() interface{} { return s.val }

// Bool implements Item.
func (s *ByteString) Bool() bool { return !isAllZero(s.val) }

// TryBytes implements Item.
func (s *ByteString) TryBytes() ([]byte, error) { return s.val, nil }

// TryInteger implements Item.
func (s *ByteString) TryInteger() (*big.Int, error) {
	if len(s.val) > 32 {
		return nil, ErrInvalidConversion
	}
	return bytesToBigInt(s.val), nil
}

// Equals implements Item.
func (s *ByteString) Equals(o Item) bool {
	os, ok := o.(*ByteString)
	return ok && bytes.Equal(s.val, os.val)
}

// Dup implements Item.
func (s *ByteString) Dup() Item { return s } // immutable: safe to share

// Buffer is the mutable byte-buffer variant.
type Buffer struct{ val []byte }

// NewBuffer wraps b (copied) as a mutable Buffer.
func NewBuffer(b []byte) Item {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Buffer{val: cp}
}

// Type implements Item.
func (*Buffer) Type() Type { return BufferT }

// Value implements Item.
func (b *Buffer) Value() interface{} { return b.val }

// Bytes exposes the mutable backing slice (used by MEMCPY).
func (b *Buffer) Bytes() []byte { return b.val }

// Bool implements Item.
func (b *Buffer) Bool() bool { return !isAllZero(b.val) }

// TryBytes implements Item.
func (b *Buffer) TryBytes() ([]byte, error) { return b.val, nil }

// TryInteger implements Item.
func (b *Buffer) TryInteger() (*big.Int, error) {
	if len(b.val) > 32 {
		return nil, ErrInvalidConversion
	}
	return bytesToBigInt(b.val), nil
}

// Equals implements Item.
func (b *Buffer) Equals(o Item) bool { return b == o } // by reference

// Dup implements Item.
func (b *Buffer) Dup() Item {
	cp := make([]byte, len(b.val))
	copy(cp, b.val)
	return &Buffer{val: cp}
}

func isAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}
