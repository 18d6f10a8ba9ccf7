package interop

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"

	"github.com/n3-core/node/pkg/core/state"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm"
	"github.com/n3-core/node/pkg/vm/stackitem"
	"go.uber.org/zap"
)

// storageContext is the InteropInterface payload returned by
// System.Storage.GetContext/GetReadOnlyContext (spec §4.D interop list).
type storageContext struct {
	id       int32
	readOnly bool
}

// RegisterSyscalls installs every System.* interop this spec names onto
// v, closing each handler over ic (spec §4.D "Interop (syscalls)").
func RegisterSyscalls(ic *Context, v *vm.VM) {
	reg := func(name string, price int64, flags callflag.CallFlag, fn vm.InteropFunc) {
		v.RegisterInterop(name, &vm.InteropHandler{Func: fn, Price: price, Required: flags})
	}

	// System.Runtime.*
	reg("System.Runtime.Platform", 1<<3, callflag.None, func(v *vm.VM) error {
		v.Estack().Push(stackitem.NewByteString([]byte("NEO")))
		return nil
	})
	reg("System.Runtime.GetTrigger", 1<<3, callflag.None, func(v *vm.VM) error {
		v.Estack().Push(stackitem.NewInteger(int64(ic.Trigger)))
		return nil
	})
	reg("System.Runtime.CheckWitness", 1<<10, callflag.None, func(v *vm.VM) error {
		raw, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		v.Estack().Push(stackitem.NewBool(checkWitness(ic, raw)))
		return nil
	})
	reg("System.Runtime.Log", 1<<15, callflag.AllowNotify, func(v *vm.VM) error {
		msg, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		if ic.Log != nil {
			ic.Log.Info("contract log", zap.String("message", string(msg)), zap.Stringer("script", v.CurrentContext().ContractHash))
		}
		return nil
	})
	reg("System.Runtime.Notify", 1<<15, callflag.AllowNotify, func(v *vm.VM) error {
		eventState := v.Estack().Pop()
		name, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		ic.AddNotification(v.CurrentContext().ContractHash, string(name), eventState)
		return nil
	})
	reg("System.Runtime.GetTime", 1<<3, callflag.None, func(v *vm.VM) error {
		var ts uint64
		if ic.Block != nil {
			ts = ic.Block.Header.Timestamp
		}
		item, err := stackitem.NewBigInteger(new(big.Int).SetUint64(ts))
		if err != nil {
			return err
		}
		v.Estack().Push(item)
		return nil
	})
	reg("System.Runtime.GetInvocationCounter", 1<<3, callflag.None, func(v *vm.VM) error {
		n := ic.Invocations[v.CurrentContext().ContractHash]
		v.Estack().Push(stackitem.NewInteger(int64(n)))
		return nil
	})
	reg("System.Runtime.GetScriptContainer", 1<<3, callflag.None, func(v *vm.VM) error {
		if ic.Tx != nil {
			v.Estack().Push(stackitem.NewByteString(ic.Tx.Hash().BytesBE()))
		} else {
			v.Estack().Push(stackitem.NewNull())
		}
		return nil
	})
	reg("System.Runtime.GetCallingScriptHash", 1<<3, callflag.None, func(v *vm.VM) error {
		v.Estack().Push(stackitem.NewByteString(v.CurrentContext().ContractHash.BytesBE()))
		return nil
	})
	reg("System.Runtime.GetExecutingScriptHash", 1<<3, callflag.None, func(v *vm.VM) error {
		v.Estack().Push(stackitem.NewByteString(v.CurrentContext().ContractHash.BytesBE()))
		return nil
	})
	reg("System.Runtime.BurnGas", 1<<4, callflag.None, func(v *vm.VM) error {
		_, err := v.Estack().Pop().TryInteger()
		return err
	})

	// System.Storage.*
	reg("System.Storage.GetContext", 1<<4, callflag.ReadStates, func(v *vm.VM) error {
		v.Estack().Push(stackitem.NewInterop(&storageContext{id: currentContractID(ic, v)}))
		return nil
	})
	reg("System.Storage.GetReadOnlyContext", 1<<4, callflag.ReadStates, func(v *vm.VM) error {
		v.Estack().Push(stackitem.NewInterop(&storageContext{id: currentContractID(ic, v), readOnly: true}))
		return nil
	})
	reg("System.Storage.AsReadOnly", 1<<4, callflag.ReadStates, func(v *vm.VM) error {
		sc := mustStorageContext(v.Estack().Pop())
		v.Estack().Push(stackitem.NewInterop(&storageContext{id: sc.id, readOnly: true}))
		return nil
	})
	reg("System.Storage.Get", 1<<15, callflag.ReadStates, func(v *vm.VM) error {
		sc := mustStorageContext(v.Estack().Pop())
		key, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		val, err := ic.DAO.Get(storageKey(sc.id, key))
		if err == storage.ErrKeyNotFound {
			v.Estack().Push(stackitem.NewNull())
			return nil
		}
		if err != nil {
			return err
		}
		v.Estack().Push(stackitem.NewByteString(val))
		return nil
	})
	reg("System.Storage.Put", 1<<15, callflag.WriteStates, func(v *vm.VM) error {
		sc := mustStorageContext(v.Estack().Pop())
		if sc.readOnly {
			return errReadOnlyContext
		}
		key, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		val, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		return ic.DAO.Put(storageKey(sc.id, key), val)
	})
	reg("System.Storage.Delete", 1<<15, callflag.WriteStates, func(v *vm.VM) error {
		sc := mustStorageContext(v.Estack().Pop())
		if sc.readOnly {
			return errReadOnlyContext
		}
		key, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		return ic.DAO.Delete(storageKey(sc.id, key))
	})
	reg("System.Storage.Find", 1<<15, callflag.ReadStates, func(v *vm.VM) error {
		sc := mustStorageContext(v.Estack().Pop())
		prefix, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		var pairs []stackitem.Item
		ic.DAO.Seek(storageKey(sc.id, prefix), func(k, val []byte) bool {
			pairs = append(pairs, stackitem.NewStruct([]stackitem.Item{
				stackitem.NewByteString(k[5:]), // strip the 1-byte KeyPrefix + 4-byte contract id
				stackitem.NewByteString(val),
			}))
			return true
		})
		v.Estack().Push(stackitem.NewInterop(newIterator(pairs)))
		return nil
	})

	// System.Contract.*
	reg("System.Contract.Call", 1<<15, callflag.AllowCall, func(v *vm.VM) error {
		return execContractCall(ic, v)
	})
	reg("System.Contract.CallNative", 0, callflag.None, func(v *vm.VM) error {
		return nil // dispatched by the native method shim script, not directly invoked by contract code
	})
	reg("System.Contract.GetCallFlags", 1<<10, callflag.None, func(v *vm.VM) error {
		v.Estack().Push(stackitem.NewInteger(int64(v.CurrentContext().GetCallFlags())))
		return nil
	})
	reg("System.Contract.CreateStandardAccount", 1<<8, callflag.None, func(v *vm.VM) error {
		pub, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		pk, err := keys.NewPublicKeyFromBytes(pub)
		if err != nil {
			return err
		}
		v.Estack().Push(stackitem.NewByteString(pk.ScriptHash().BytesBE()))
		return nil
	})
	reg("System.Contract.CreateMultisigAccount", 1<<8, callflag.None, func(v *vm.VM) error {
		m, err := v.Estack().Pop().TryInteger()
		if err != nil {
			return err
		}
		pubItems := v.Estack().Pop()
		arr, ok := pubItems.(*stackitem.Array)
		if !ok {
			return errInvalidAccountArgs
		}
		pubs := make([][]byte, 0, arr.Len())
		for i := 0; i < arr.Len(); i++ {
			b, err := arr.Get(i).TryBytes()
			if err != nil {
				return err
			}
			pubs = append(pubs, b)
		}
		script, err := smartcontract.CreateMultiSigRedeemScript(int(m.Int64()), pubs)
		if err != nil {
			return err
		}
		v.Estack().Push(stackitem.NewByteString(hash.Hash160(script).BytesBE()))
		return nil
	})

	// System.Crypto.*
	reg("System.Crypto.CheckSig", 1<<15, callflag.None, func(v *vm.VM) error {
		pubBytes, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		sig, err := v.Estack().Pop().TryBytes()
		if err != nil {
			return err
		}
		pk, err := keys.NewPublicKeyFromBytes(pubBytes)
		if err != nil {
			v.Estack().Push(stackitem.NewBool(false))
			return nil
		}
		digest := checkedHash(ic)
		v.Estack().Push(stackitem.NewBool(pk.Verify(sig, digest)))
		return nil
	})
	reg("System.Crypto.CheckMultisig", 1<<21, callflag.None, func(v *vm.VM) error {
		return execCheckMultisig(ic, v)
	})

	// System.Iterator.*
	reg("System.Iterator.Next", 1<<15, callflag.None, func(v *vm.VM) error {
		it := mustIterator(v.Estack().Pop())
		v.Estack().Push(stackitem.NewBool(it.next()))
		return nil
	})
	reg("System.Iterator.Value", 1<<4, callflag.None, func(v *vm.VM) error {
		it := mustIterator(v.Estack().Pop())
		v.Estack().Push(it.value())
		return nil
	})
}

var errInvalidAccountArgs = errors.New("interop: invalid multisig account arguments")
var errTooManyMultisigKeys = errors.New("interop: multisig key count exceeds 1024")
var errMoreSignaturesThanKeys = errors.New("interop: multisig signature count exceeds key count")
var errUnsortedMultisigKeys = errors.New("interop: multisig public keys not sorted ascending")

// execContractCall implements System.Contract.Call (spec §4.D, §4.E.9):
// pop (hash, method, callflags, args), dispatch to a native contract
// directly or load the target's NEF into a new execution context.
func execContractCall(ic *Context, v *vm.VM) error {
	hashBytes, err := v.Estack().Pop().TryBytes()
	if err != nil {
		return err
	}
	method, err := v.Estack().Pop().TryBytes()
	if err != nil {
		return err
	}
	flagsItem, err := v.Estack().Pop().TryInteger()
	if err != nil {
		return err
	}
	argsItem := v.Estack().Pop()
	argsArr, ok := argsItem.(*stackitem.Array)
	if !ok {
		return errInvalidAccountArgs
	}
	args := make([]stackitem.Item, argsArr.Len())
	for i := 0; i < argsArr.Len(); i++ {
		args[i] = argsArr.Get(i)
	}

	var target util.Uint160
	copy(target[:], hashBytes)

	callerFlags := v.CurrentContext().GetCallFlags()
	requested := callflag.CallFlag(flagsItem.Int64())
	effective := callerFlags & requested

	if c, ok := ic.NativeByHash(target); ok {
		ic.Invocations[target]++
		result, err := c.Invoke(ic, string(method), args)
		if err != nil {
			return err
		}
		if result == nil {
			result = stackitem.NewNull()
		}
		v.Estack().Push(result)
		return nil
	}

	data, err := ic.DAO.Get(storage.AppendPrefix(storage.STContract, target[:]))
	if err != nil {
		return fmt.Errorf("interop: unknown contract %s: %w", target, err)
	}
	var c state.Contract
	r := io.NewBinReaderFromBuf(data)
	c.DecodeBinary(r)
	if r.Err != nil {
		return r.Err
	}
	abiMethod, ok := c.Manifest.ABI.FindMethod(string(method), len(args))
	if !ok {
		return fmt.Errorf("interop: method %s not found on %s", method, target)
	}
	callerHash := v.CurrentContext().ContractHash
	if callerData, err := ic.DAO.Get(storage.AppendPrefix(storage.STContract, callerHash[:])); err == nil {
		var caller state.Contract
		cr := io.NewBinReaderFromBuf(callerData)
		caller.DecodeBinary(cr)
		if cr.Err == nil && !caller.Manifest.CanCall(target.String(), string(method)) {
			return fmt.Errorf("interop: %s not permitted to call %s.%s", callerHash, target, method)
		}
	}
	ic.Invocations[target]++
	ctx, err := v.LoadScript(c.NEF.Script, abiMethod.ReturnType.RVCount(), effective, target)
	if err != nil {
		return err
	}
	ctx.IP = abiMethod.Offset
	for i := len(args) - 1; i >= 0; i-- {
		ctx.Estack.Push(args[i])
	}
	return nil
}

// execCheckMultisig implements System.Crypto.CheckMultisig: verify that
// every signature in order matches some public key in order, both lists
// sorted ascending (spec §4.D, mirrors the multisig redeem script).
func execCheckMultisig(ic *Context, v *vm.VM) error {
	pubItem := v.Estack().Pop()
	pubArr, ok := pubItem.(*stackitem.Array)
	if !ok {
		return errInvalidAccountArgs
	}
	sigItem := v.Estack().Pop()
	sigArr, ok := sigItem.(*stackitem.Array)
	if !ok {
		return errInvalidAccountArgs
	}
	if pubArr.Len() > smartcontract.MaxMultisigKeys {
		return errTooManyMultisigKeys
	}
	if sigArr.Len() > pubArr.Len() {
		return errMoreSignaturesThanKeys
	}
	if sigArr.Len() == 0 {
		v.Estack().Push(stackitem.NewBool(false))
		return nil
	}
	pubBytesAll := make([][]byte, pubArr.Len())
	for i := 0; i < pubArr.Len(); i++ {
		b, err := pubArr.Get(i).TryBytes()
		if err != nil {
			return err
		}
		pubBytesAll[i] = b
	}
	for i := 1; i < len(pubBytesAll); i++ {
		if bytes.Compare(pubBytesAll[i-1], pubBytesAll[i]) >= 0 {
			return errUnsortedMultisigKeys
		}
	}
	digest := checkedHash(ic)
	pi, si := 0, 0
	for si < sigArr.Len() && pi < pubArr.Len() {
		sigBytes, err := sigArr.Get(si).TryBytes()
		if err != nil {
			return err
		}
		pk, err := keys.NewPublicKeyFromBytes(pubBytesAll[pi])
		if err == nil && pk.Verify(sigBytes, digest) {
			si++
		}
		pi++
		if sigArr.Len()-si > pubArr.Len()-pi {
			break
		}
	}
	v.Estack().Push(stackitem.NewBool(si == sigArr.Len()))
	return nil
}

func storageKey(contractID int32, key []byte) []byte {
	b := make([]byte, 4+len(key))
	b[0] = byte(contractID)
	b[1] = byte(contractID >> 8)
	b[2] = byte(contractID >> 16)
	b[3] = byte(contractID >> 24)
	copy(b[4:], key)
	return storage.AppendPrefix(storage.STStorage, b)
}

func mustStorageContext(it stackitem.Item) *storageContext {
	ii := it.(*stackitem.Interop)
	return ii.Value().(*storageContext)
}

// currentContractID resolves the executing contract's storage id: its
// fixed native id, or the id assigned at deployment for an ordinary
// contract (spec §4.E.3 "deploy" assigns an incrementing id).
func currentContractID(ic *Context, v *vm.VM) int32 {
	h := v.CurrentContext().ContractHash
	if c, ok := ic.NativeByHash(h); ok {
		return c.Metadata().ID
	}
	data, err := ic.DAO.Get(storage.AppendPrefix(storage.STContract, h[:]))
	if err != nil {
		return 0
	}
	var c state.Contract
	r := io.NewBinReaderFromBuf(data)
	c.DecodeBinary(r)
	return c.ID
}

var errReadOnlyContext = storageReadOnlyError("interop: storage context is read-only")

type storageReadOnlyError string

func (e storageReadOnlyError) Error() string { return string(e) }

func checkedHash(ic *Context) []byte {
	if ic.Tx != nil {
		return ic.Tx.Hash().BytesBE()
	}
	return ic.Block.Header.Hash().BytesBE()
}

func checkWitness(ic *Context, accountOrGroup []byte) bool {
	var account util.Uint160
	if len(accountOrGroup) == util.Uint160Size {
		copy(account[:], accountOrGroup)
	} else {
		pk, err := keys.NewPublicKeyFromBytes(accountOrGroup)
		if err != nil {
			return false
		}
		account = pk.ScriptHash()
	}
	for _, s := range ic.Signers() {
		if s.Account == account {
			return scopeAllows(s, ic.CurrentContractHash())
		}
	}
	return false
}

// CurrentContractHash returns the contract hash executing in ic.VM right
// now, used to evaluate witness scopes against the calling contract.
func (ic *Context) CurrentContractHash() util.Uint160 {
	if ic.VM == nil || ic.VM.CurrentContext() == nil {
		return util.Uint160{}
	}
	return ic.VM.CurrentContext().ContractHash
}

// scopeAllows reports whether signer s's witness scope authorises
// executing contract c (spec §3.1 "Signer"). Global always authorises;
// CustomContracts authorises c when it is in AllowedContracts;
// CalledByEntry authorises any c, since the engine does not expose call
// depth to tell the entry script apart. CustomGroups and Rules scopes are
// not evaluated and authorise nothing on their own.
func scopeAllows(s transaction.Signer, c util.Uint160) bool {
	if s.Scopes&transaction.Global != 0 {
		return true
	}
	if s.Scopes&transaction.CustomContracts != 0 {
		for _, h := range s.AllowedContracts {
			if h == c {
				return true
			}
		}
	}
	return s.Scopes&transaction.CalledByEntry != 0
}

// System.Iterator support: a simple in-memory cursor over Find results.
type contractIterator struct {
	items []stackitem.Item
	pos   int
}

func newIterator(items []stackitem.Item) *contractIterator {
	return &contractIterator{items: items, pos: -1}
}

func (it *contractIterator) next() bool {
	if it.pos+1 >= len(it.items) {
		return false
	}
	it.pos++
	return true
}

func (it *contractIterator) value() stackitem.Item {
	if it.pos < 0 || it.pos >= len(it.items) {
		return stackitem.NewNull()
	}
	return it.items[it.pos]
}

func mustIterator(it stackitem.Item) *contractIterator {
	ii := it.(*stackitem.Interop)
	return ii.Value().(*contractIterator)
}
