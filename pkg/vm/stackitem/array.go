package stackitem

import "math/big"

// Array is the reference-counted, reference-compared ordered-container
// variant.
type Array struct {
	value []Item
}

// NewArray creates an Array over value (not copied).
func NewArray(value []Item) *Array { return &Array{value: value} }

// Type implements Item.
func (*Array) Type() Type { return ArrayT }

// Value implements Item.
func (a *Array) Value() interface{} { return a.value }

// Len returns the element count.
func (a *Array) Len() int { return len(a.value) }

// Append adds item to the end of the array.
func (a *Array) Append(item Item) { a.value = append(a.value, item) }

// Remove deletes the element at index i.
func (a *Array) Remove(i int) {
	a.value = append(a.value[:i], a.value[i+1:]...)
}

// Set overwrites the element at index i.
func (a *Array) Set(i int, item Item) { a.value[i] = item }

// Get returns the element at index i.
func (a *Array) Get(i int) Item { return a.value[i] }

// Clear empties the array in place.
func (a *Array) Clear() { a.value = nil }

// Reverse reverses the array in place.
func (a *Array) Reverse() {
	for i, j := 0, len(a.value)-1; i < j; i, j = i+1, j-1 {
		a.value[i], a.value[j] = a.value[j], a.value[i]
	}
}

// Bool implements Item: non-empty arrays are always truthy as containers
// don't carry numeric value, matching the spec's "0/empty -> false" rule
// only for scalar types; containers convert via CONVERT(Boolean) only
// when explicitly requested, where VM semantics treat any container as
// true.
func (a *Array) Bool() bool { return true }

// TryBytes implements Item; arrays have no byte representation.
func (a *Array) TryBytes() ([]byte, error) { return nil, ErrInvalidConversion }

// TryInteger implements Item; arrays have no integer representation.
func (a *Array) TryInteger() (*big.Int, error) { return nil, ErrInvalidConversion }

// Equals implements Item: Array compares by reference.
func (a *Array) Equals(o Item) bool { return sameRef(a, o) }

// Dup implements Item: Array is reference-shared (matches spec §3.2: only
// Struct copies on clone/equality).
func (a *Array) Dup() Item { return a }

func (a *Array) items() []Item { return a.value }

func sameRef(a, o Item) bool { return a == o }
