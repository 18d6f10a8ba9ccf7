// Package smartcontract defines contract-facing types shared by the VM,
// native contracts and RPC layer: parameter/ABI types, the multi-sig
// verification script builder, NEF containers and manifests.
package smartcontract

import "fmt"

// ParamType is the ABI/parameter type tag used in manifests and RPC
// invocation parameters.
type ParamType byte

// Parameter types.
const (
	AnyType          ParamType = 0x00
	SignatureType    ParamType = 0x10
	BoolType         ParamType = 0x11
	IntegerType      ParamType = 0x12
	Hash160Type      ParamType = 0x14
	Hash256Type      ParamType = 0x15
	ByteArrayType    ParamType = 0x16
	PublicKeyType    ParamType = 0x17
	StringType       ParamType = 0x18
	ArrayType        ParamType = 0x20
	MapType          ParamType = 0x22
	InteropInterface ParamType = 0x30
	VoidType         ParamType = 0xff
)

// String implements fmt.Stringer.
func (t ParamType) String() string {
	switch t {
	case AnyType:
		return "Any"
	case SignatureType:
		return "Signature"
	case BoolType:
		return "Boolean"
	case IntegerType:
		return "Integer"
	case Hash160Type:
		return "Hash160"
	case Hash256Type:
		return "Hash256"
	case ByteArrayType:
		return "ByteArray"
	case PublicKeyType:
		return "PublicKey"
	case StringType:
		return "String"
	case ArrayType:
		return "Array"
	case MapType:
		return "Map"
	case InteropInterface:
		return "InteropInterface"
	case VoidType:
		return "Void"
	default:
		return fmt.Sprintf("Unknown(0x%02x)", byte(t))
	}
}

// RVCount returns the number of values a method with this return type
// leaves on the stack: 0 for VoidType, 1 otherwise (spec §4.D "RVCount").
func (t ParamType) RVCount() int {
	if t == VoidType {
		return 0
	}
	return 1
}

// Parameter is a named, typed ABI parameter (method argument or a decoded
// RPC invocation argument carrying its value).
type Parameter struct {
	Name  string      `json:"name,omitempty"`
	Type  ParamType   `json:"type"`
	Value interface{} `json:"value,omitempty"`
}
