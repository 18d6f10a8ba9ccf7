package stackitem

import "math/big"

// MapElement is a single key/value pair; keys must be a primitive
// variant (Boolean, Integer, ByteString, Buffer) per spec §3.2.
type MapElement struct {
	Key   Item
	Value Item
}

// Map is the reference-counted associative-container variant.
type Map struct {
	elems []MapElement
}

// NewMap creates an empty Map.
func NewMap() *Map { return &Map{} }

// Type implements Item.
func (*Map) Type() Type { return MapT }

// Value implements Item.
func (m *Map) Value() interface{} { return m.elems }

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.elems) }

func mapKey(it Item) interface{} {
	switch v := it.(type) {
	case Bool:
		return bool(v)
	case *Integer:
		return v.val.String()
	case *ByteString:
		return "b:" + string(v.val)
	case *Buffer:
		return "b:" + string(v.val)
	default:
		return it
	}
}

// Index returns the position of key in the map, or -1.
func (m *Map) Index(key Item) int {
	k := mapKey(key)
	for i, e := range m.elems {
		if mapKey(e.Key) == k {
			return i
		}
	}
	return -1
}

// Get returns the value for key and whether it was present.
func (m *Map) Get(key Item) (Item, bool) {
	i := m.Index(key)
	if i < 0 {
		return nil, false
	}
	return m.elems[i].Value, true
}

// Set inserts or overwrites key -> value.
func (m *Map) Set(key, value Item) {
	if i := m.Index(key); i >= 0 {
		m.elems[i].Value = value
		return
	}
	m.elems = append(m.elems, MapElement{Key: key, Value: value})
}

// Delete removes key, if present.
func (m *Map) Delete(key Item) {
	if i := m.Index(key); i >= 0 {
		m.elems = append(m.elems[:i], m.elems[i+1:]...)
	}
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []Item {
	out := make([]Item, len(m.elems))
	for i, e := range m.elems {
		out[i] = e.Key
	}
	return out
}

// Values returns the values in insertion order.
func (m *Map) Values() []Item {
	out := make([]Item, len(m.elems))
	for i, e := range m.elems {
		out[i] = e.Value
	}
	return out
}

// Clear empties the map in place.
func (m *Map) Clear() { m.elems = nil }

// Bool implements Item.
func (m *Map) Bool() bool { return true }

// TryBytes implements Item.
func (m *Map) TryBytes() ([]byte, error) { return nil, ErrInvalidConversion }

// TryInteger implements Item.
func (m *Map) TryInteger() (*big.Int, error) { return nil, ErrInvalidConversion }

// Equals implements Item: Map compares by reference.
func (m *Map) Equals(o Item) bool { return sameRef(m, o) }

// Dup implements Item: Map is reference-shared.
func (m *Map) Dup() Item { return m }

func (m *Map) items() []Item {
	out := make([]Item, 0, len(m.elems)*2)
	for _, e := range m.elems {
		out = append(out, e.Key, e.Value)
	}
	return out
}
