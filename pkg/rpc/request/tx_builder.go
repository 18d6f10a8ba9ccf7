package request

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm"
	"github.com/n3-core/node/pkg/vm/opcode"
)

// CreateFunctionInvocationScript builds the script invokefunction and
// invokescript use to call operation on contract with the arguments
// encoded in params (a JSON array of FuncParam, or nil for a no-argument
// call), using callflag.All the way a wallet-issued invocation runs
// (spec §4.L "invokefunction").
func CreateFunctionInvocationScript(contract util.Uint160, operation string, params *Param) ([]byte, error) {
	w := io.NewBufBinWriter()
	var args []Param
	if params != nil {
		var err error
		args, err = params.GetArray()
		if err != nil {
			return nil, fmt.Errorf("request: invokefunction params: %w", err)
		}
	}
	if err := ExpandArrayIntoScript(w.BinWriter, args); err != nil {
		return nil, err
	}
	vm.EmitInt(w.BinWriter, int64(len(args)))
	vm.EmitOpcode(w.BinWriter, opcode.PACK)
	vm.EmitCall(w.BinWriter, contract, operation, int64(callflag.All))
	if w.Err != nil {
		return nil, w.Err
	}
	return w.Bytes(), nil
}

// ExpandArrayIntoScript writes a push instruction for every element of
// params, last element first, so that params[0] ends on top of the stack
// and a later `PUSH len(params); PACK` (or a nested Array parameter's own
// PACK) makes it element 0 of the resulting array — pkg/vm/ops.go pack()
// fills the array from the top of the stack down
// (spec §4.L "invokefunction" parameter encoding).
func ExpandArrayIntoScript(w *io.BinWriter, params []Param) error {
	for i := len(params) - 1; i >= 0; i-- {
		fp, err := params[i].GetFuncParam()
		if err != nil {
			return err
		}
		if err := emitFuncParam(w, fp); err != nil {
			return err
		}
	}
	return nil
}

func emitFuncParam(w *io.BinWriter, fp FuncParam) error {
	switch fp.Type {
	case smartcontract.ByteArrayType, smartcontract.SignatureType:
		b, err := fp.Value.GetBytesBase64()
		if err != nil {
			return fmt.Errorf("request: %s parameter: %w", fp.Type, err)
		}
		vm.EmitBytes(w, b)
	case smartcontract.StringType:
		s, err := fp.Value.GetString()
		if err != nil {
			return fmt.Errorf("request: string parameter: %w", err)
		}
		vm.EmitBytes(w, []byte(s))
	case smartcontract.Hash160Type:
		u, err := fp.Value.GetUint160FromHex()
		if err != nil {
			return fmt.Errorf("request: hash160 parameter: %w", err)
		}
		vm.EmitBytes(w, u.BytesBE())
	case smartcontract.Hash256Type:
		u, err := fp.Value.GetUint256()
		if err != nil {
			return fmt.Errorf("request: hash256 parameter: %w", err)
		}
		vm.EmitBytes(w, u.BytesBE())
	case smartcontract.PublicKeyType:
		b, err := fp.Value.GetBytesHex()
		if err != nil {
			return fmt.Errorf("request: public key parameter: %w", err)
		}
		pub, err := keys.NewPublicKeyFromBytes(b)
		if err != nil {
			return fmt.Errorf("request: public key parameter: %w", err)
		}
		vm.EmitBytes(w, pub.Bytes())
	case smartcontract.IntegerType:
		v, err := funcParamBigInt(fp.Value)
		if err != nil {
			return fmt.Errorf("request: integer parameter: %w", err)
		}
		if err := vm.EmitBigInt(w, v); err != nil {
			return err
		}
	case smartcontract.BoolType:
		var b bool
		if err := json.Unmarshal(fp.Value.RawMessage, &b); err != nil {
			b = string(fp.Value.RawMessage) != `false` && string(fp.Value.RawMessage) != `0` && len(fp.Value.RawMessage) != 0
		}
		if b {
			vm.EmitInt(w, 1)
		} else {
			vm.EmitInt(w, 0)
		}
	case smartcontract.ArrayType:
		elems, err := fp.Value.GetArray()
		if err != nil {
			return fmt.Errorf("request: array parameter: %w", err)
		}
		if err := ExpandArrayIntoScript(w, elems); err != nil {
			return err
		}
		vm.EmitInt(w, int64(len(elems)))
		vm.EmitOpcode(w, opcode.PACK)
	case smartcontract.AnyType:
		vm.EmitOpcode(w, opcode.PUSHNULL)
	default:
		return fmt.Errorf("request: unsupported parameter type %s", fp.Type)
	}
	return nil
}

// funcParamBigInt accepts either a JSON number or a decimal string for
// an Integer FuncParam, matching the reference node's leniency toward
// loosely-typed JSON-RPC clients.
func funcParamBigInt(p Param) (*big.Int, error) {
	var s string
	if err := json.Unmarshal(p.RawMessage, &s); err == nil {
		v, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer string %q", s)
		}
		return v, nil
	}
	var f float64
	if err := json.Unmarshal(p.RawMessage, &f); err == nil {
		return big.NewInt(int64(f)), nil
	}
	var b bool
	if err := json.Unmarshal(p.RawMessage, &b); err == nil {
		if b {
			return big.NewInt(1), nil
		}
		return big.NewInt(0), nil
	}
	return nil, fmt.Errorf("value %s is not an integer", p.String())
}
