// Package native implements the built-in contracts: fixed hashes, no
// stored code, dispatched directly by System.Contract.Call/CallNative
// instead of running VM bytecode (spec §4.E "Native contracts").
package native

import (
	"math/big"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

// hash160 is a local alias for Hash160 over a verification script, used
// to derive the committee/multisig account from a candidate key set.
func hash160(script []byte) util.Uint160 { return hash.Hash160(script) }

// scriptOrEmpty builds the standard m-of-n verification script, or
// returns an empty script when there are no candidates to sign with
// (spec §4.E.4 "committee multi-signature witness" with zero candidates
// at genesis before any registration happens).
func scriptOrEmpty(m int, pubs [][]byte) ([]byte, error) {
	if len(pubs) == 0 {
		return []byte{}, nil
	}
	return smartcontract.CreateMultiSigRedeemScript(m, pubs)
}

// Fixed native contract ids, negative per the reference client's
// convention of reserving non-negative ids for deployed contracts
// (spec §4.E.9 "fixed contract id").
const (
	IDContractManagement = -1
	IDStdLib             = -2
	IDCryptoLib          = -3
	IDLedgerContract     = -4
	IDNeoToken           = -5
	IDGasToken           = -6
	IDPolicyContract     = -7
	IDRoleManagement     = -8
	IDOracleContract     = -9
)

func nativeHash(name string) util.Uint160 {
	return hash.Hash160([]byte(name))
}

// storeKey builds the storage key a native contract's own substate lives
// under: (contract id, sub-prefix byte, sub-key), mirroring how ordinary
// contract storage is namespaced by id (spec §4.E.9).
func storeKey(id int32, prefix byte, sub []byte) []byte {
	b := make([]byte, 5+len(sub))
	b[0] = byte(id)
	b[1] = byte(id >> 8)
	b[2] = byte(id >> 16)
	b[3] = byte(id >> 24)
	b[4] = prefix
	copy(b[5:], sub)
	return storage.AppendPrefix(storage.STStorage, b)
}

func getItem(ic *interop.Context, id int32, prefix byte, sub []byte) ([]byte, bool) {
	v, err := ic.DAO.Get(storeKey(id, prefix, sub))
	if err != nil {
		return nil, false
	}
	return v, true
}

func putItem(ic *interop.Context, id int32, prefix byte, sub, value []byte) error {
	return ic.DAO.Put(storeKey(id, prefix, sub), value)
}

func deleteItem(ic *interop.Context, id int32, prefix byte, sub []byte) error {
	return ic.DAO.Delete(storeKey(id, prefix, sub))
}

func getBalance(ic *interop.Context, id int32, account util.Uint160) *big.Int {
	v, ok := getItem(ic, id, prefixBalance, account[:])
	if !ok {
		return big.NewInt(0)
	}
	return bigint.FromBytes(v)
}

func putBalance(ic *interop.Context, id int32, account util.Uint160, amount *big.Int) error {
	if amount.Sign() == 0 {
		return deleteItem(ic, id, prefixBalance, account[:])
	}
	return putItem(ic, id, prefixBalance, account[:], bigint.ToBytes(amount))
}

// prefixes shared across NEP-17 natives (NeoToken, GasToken).
const (
	prefixBalance    byte = 0x14
	prefixTotalSupply byte = 0x0b
)

func getTotalSupply(ic *interop.Context, id int32) *big.Int {
	v, ok := getItem(ic, id, prefixTotalSupply, nil)
	if !ok {
		return big.NewInt(0)
	}
	return bigint.FromBytes(v)
}

func putTotalSupply(ic *interop.Context, id int32, amount *big.Int) error {
	return putItem(ic, id, prefixTotalSupply, nil, bigint.ToBytes(amount))
}

// requireWitness reports whether account's witness is present in ic's
// transaction signers, the gate every state-mutating native method
// applies to its `account` argument (spec §4.F "check_witness").
func requireWitness(ic *interop.Context, account util.Uint160) bool {
	for _, s := range ic.Signers() {
		if s.Account == account {
			return true
		}
	}
	return false
}

func errNotEnoughBalance() error { return errInsufficientFunds }

var errInsufficientFunds = stackItemError("native: insufficient balance")
var errUnauthorized = stackItemError("native: witness check failed")
var errUnknownMethod = stackItemError("native: unknown method")

type stackItemError string

func (e stackItemError) Error() string { return string(e) }

func arg(args []stackitem.Item, i int) stackitem.Item {
	if i >= len(args) {
		return stackitem.NewNull()
	}
	return args[i]
}

func argUint160(args []stackitem.Item, i int) (util.Uint160, error) {
	b, err := arg(args, i).TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	var u util.Uint160
	copy(u[:], b)
	return u, nil
}

func argInt(args []stackitem.Item, i int) (*big.Int, error) {
	return arg(args, i).TryInteger()
}
