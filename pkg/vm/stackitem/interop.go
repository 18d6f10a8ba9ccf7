package stackitem

import "math/big"

// Interop wraps an opaque host object (e.g. a storage iterator) so it can
// travel on the evaluation stack without being inspectable by script code.
type Interop struct {
	value interface{}
}

// NewInterop wraps value as an InteropInterface item.
func NewInterop(value interface{}) *Interop { return &Interop{value: value} }

// Type implements Item.
func (*Interop) Type() Type { return InteropT }

// Value implements Item.
func (i *Interop) Value() interface{} { return i.value }

// Bool implements Item.
func (i *Interop) Bool() bool { return true }

// TryBytes implements Item.
func (i *Interop) TryBytes() ([]byte, error) { return nil, ErrInvalidConversion }

// TryInteger implements Item.
func (i *Interop) TryInteger() (*big.Int, error) { return nil, ErrInvalidConversion }

// Equals implements Item: compares by reference.
func (i *Interop) Equals(o Item) bool { return sameRef(i, o) }

// Dup implements Item: reference-shared.
func (i *Interop) Dup() Item { return i }

// Pointer represents an indirect script offset, used by CALLA.
type Pointer struct {
	Position int
	Script   []byte
}

// NewPointer creates a Pointer to position within script.
func NewPointer(position int, script []byte) *Pointer {
	return &Pointer{Position: position, Script: script}
}

// Type implements Item.
func (*Pointer) Type() Type { return PointerT }

// Value implements Item.
func (p *Pointer) Value() interface{} { return p.Position }

// Bool implements Item.
func (p *Pointer) Bool() bool { return true }

// TryBytes implements Item.
func (p *Pointer) TryBytes() ([]byte, error) { return nil, ErrInvalidConversion }

// TryInteger implements Item.
func (p *Pointer) TryInteger() (*big.Int, error) { return nil, ErrInvalidConversion }

// Equals implements Item: compares by reference.
func (p *Pointer) Equals(o Item) bool { return sameRef(p, o) }

// Dup implements Item: reference-shared (immutable).
func (p *Pointer) Dup() Item { return p }
