// Package stackitem implements the VM's tagged value type (spec §3.2):
// Any, Boolean, Integer, ByteString, Buffer, Array, Struct, Map,
// InteropInterface and Pointer, with reference-counted containers and a
// lazy cycle tracker.
package stackitem

// Type tags a stack item's variant.
type Type byte

// Variant tags.
const (
	AnyT Type = iota
	PointerT
	BooleanT
	IntegerT
	ByteStringT
	BufferT
	ArrayT
	StructT
	MapT
	InteropT
)

// String renders the type name, used in error messages and ISTYPE.
func (t Type) String() string {
	switch t {
	case AnyT:
		return "Any"
	case PointerT:
		return "Pointer"
	case BooleanT:
		return "Boolean"
	case IntegerT:
		return "Integer"
	case ByteStringT:
		return "ByteString"
	case BufferT:
		return "Buffer"
	case ArrayT:
		return "Array"
	case StructT:
		return "Struct"
	case MapT:
		return "Map"
	case InteropT:
		return "InteropInterface"
	default:
		return "Unknown"
	}
}

// MaxSize is the gas-bounded maximum byte length of a ByteString/Buffer.
const MaxSize = 1024 * 1024

// MaxArraySize is the maximum element count of a container.
const MaxArraySize = 2048

// MaxNestingDepth bounds container nesting (spec §3.2).
const MaxNestingDepth = 32

// MaxBigIntegerSizeBits bounds Integer to the VM's ±2^256 domain.
const MaxBigIntegerSizeBits = 256
