package stackitem

import "math/big"

// Struct is the copy-by-value container variant: equality and CLONE
// recurse structurally instead of comparing/sharing by reference
// (spec §3.2).
type Struct struct {
	value []Item
}

// NewStruct creates a Struct over value (not copied).
func NewStruct(value []Item) *Struct { return &Struct{value: value} }

// Type implements Item.
func (*Struct) Type() Type { return StructT }

// Value implements Item.
func (s *Struct) Value() interface{} { return s.value }

// Len returns the field count.
func (s *Struct) Len() int { return len(s.value) }

// Get returns the field at index i.
func (s *Struct) Get(i int) Item { return s.value[i] }

// Set overwrites the field at index i.
func (s *Struct) Set(i int, item Item) { s.value[i] = item }

// Append adds a field to the end.
func (s *Struct) Append(item Item) { s.value = append(s.value, item) }

// Bool implements Item.
func (s *Struct) Bool() bool { return true }

// TryBytes implements Item.
func (s *Struct) TryBytes() ([]byte, error) { return nil, ErrInvalidConversion }

// TryInteger implements Item.
func (s *Struct) TryInteger() (*big.Int, error) { return nil, ErrInvalidConversion }

// Equals implements Item: Struct compares structurally, recursing into
// nested Structs (but still by reference for nested Array/Map).
func (s *Struct) Equals(o Item) bool {
	os, ok := o.(*Struct)
	if !ok || len(s.value) != len(os.value) {
		return false
	}
	for i := range s.value {
		if !s.value[i].Equals(os.value[i]) {
			return false
		}
	}
	return true
}

// Dup implements Item: Struct is deep-copied (CLONE semantics), field by
// field, recursing into nested Structs.
func (s *Struct) Dup() Item {
	cp := make([]Item, len(s.value))
	for i, v := range s.value {
		cp[i] = v.Dup()
	}
	return &Struct{value: cp}
}

func (s *Struct) items() []Item { return s.value }
