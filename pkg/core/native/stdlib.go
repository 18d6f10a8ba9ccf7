package native

import (
	"encoding/base64"
	"strconv"
	"unicode/utf8"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/encoding/base58"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// StdLib exposes pure helper methods with no storage of its own: numeric
// and string conversions, JSON, and binary/text codecs (spec §4.E.8).
type StdLib struct {
	md *interop.ContractMD
}

// NewStdLib constructs the StdLib native.
func NewStdLib() *StdLib {
	s := &StdLib{}
	s.md = &interop.ContractMD{
		ID:   IDStdLib,
		Hash: nativeHash("StdLib"),
		Name: "StdLib",
		Methods: []interop.MethodDescriptor{
			{Name: "serialize", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "deserialize", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "jsonSerialize", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "jsonDeserialize", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "itoa", ParamCount: 2, RequiredFlags: callflag.None, Safe: true},
			{Name: "atoi", ParamCount: 2, RequiredFlags: callflag.None, Safe: true},
			{Name: "base58Encode", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "base58Decode", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "base58CheckEncode", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "base58CheckDecode", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "base64Encode", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "base64Decode", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "stringLen", ParamCount: 1, RequiredFlags: callflag.None, Safe: true},
			{Name: "memoryCompare", ParamCount: 2, RequiredFlags: callflag.None, Safe: true},
		},
	}
	return s
}

// Metadata implements interop.Contract.
func (s *StdLib) Metadata() *interop.ContractMD { return s.md }

// OnPersist is a no-op: StdLib keeps no state.
func (s *StdLib) OnPersist(*interop.Context) error { return nil }

// PostPersist is a no-op for StdLib.
func (s *StdLib) PostPersist(*interop.Context) error { return nil }

// Invoke implements interop.Contract.
func (s *StdLib) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "serialize":
		b, err := stackitem.Serialize(arg(args, 0))
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(b), nil
	case "deserialize":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.Deserialize(b)
	case "jsonSerialize":
		b, err := stackitem.ToJSON(arg(args, 0))
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(b), nil
	case "jsonDeserialize":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.FromJSON(b)
	case "itoa":
		n, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		base := int64(10)
		if len(args) > 1 {
			if bi, err := argInt(args, 1); err == nil {
				base = bi.Int64()
			}
		}
		return stackitem.NewByteString([]byte(n.Text(int(base)))), nil
	case "atoi":
		str, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		base := int64(10)
		if len(args) > 1 {
			if bi, err := argInt(args, 1); err == nil {
				base = bi.Int64()
			}
		}
		n, err := strconv.ParseInt(string(str), int(base), 64)
		if err != nil {
			return nil, err
		}
		return stackitem.NewInteger(n), nil
	case "base58Encode":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString([]byte(base58.Encode(b))), nil
	case "base58Decode":
		str, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		b, err := base58.Decode(string(str))
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(b), nil
	case "base58CheckEncode":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString([]byte(base58.CheckEncode(b))), nil
	case "base58CheckDecode":
		str, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		b, err := base58.CheckDecode(string(str))
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(b), nil
	case "base64Encode":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString([]byte(base64.StdEncoding.EncodeToString(b))), nil
	case "base64Decode":
		str, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		b, err := base64.StdEncoding.DecodeString(string(str))
		if err != nil {
			return nil, err
		}
		return stackitem.NewByteString(b), nil
	case "stringLen":
		b, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewInteger(int64(utf8.RuneCount(b))), nil
	case "memoryCompare":
		a, err := arg(args, 0).TryBytes()
		if err != nil {
			return nil, err
		}
		b, err := arg(args, 1).TryBytes()
		if err != nil {
			return nil, err
		}
		return stackitem.NewInteger(int64(compareBytesNative(a, b))), nil
	default:
		return nil, errUnknownMethod
	}
}

func compareBytesNative(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}
