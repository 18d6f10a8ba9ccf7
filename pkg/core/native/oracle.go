package native

import (
	"math/big"

	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/encoding/bigint"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/stackitem"
)

const (
	oraclePrefixRequest   byte = 0x07
	oraclePrefixIDCounter byte = 0x09
	oraclePrefixPrice     byte = 0x05

	defaultOracleRequestPrice = 50_000_000 // 0.5 GAS, mainnet default
)

// oracleRequest is one pending Oracle.request call, persisted until its
// matching OracleResponse attribute is processed (spec §4.E.6).
type oracleRequest struct {
	OriginalTx       util.Uint256
	GasForResponse   int64
	URL              string
	Filter           string
	CallbackContract util.Uint160
	CallbackMethod   string
	UserData         []byte
}

func (r *oracleRequest) encode(w *io.BinWriter) {
	w.WriteBytes(r.OriginalTx[:])
	w.WriteI64LE(r.GasForResponse)
	w.WriteString(r.URL)
	w.WriteString(r.Filter)
	w.WriteBytes(r.CallbackContract[:])
	w.WriteString(r.CallbackMethod)
	w.WriteVarBytes(r.UserData)
}

func (r *oracleRequest) decode(rd *io.BinReader) {
	rd.ReadBytes(r.OriginalTx[:])
	r.GasForResponse = rd.ReadI64LE()
	r.URL = rd.ReadString()
	r.Filter = rd.ReadString()
	rd.ReadBytes(r.CallbackContract[:])
	r.CallbackMethod = rd.ReadString()
	r.UserData = rd.ReadVarBytes(transaction.MaxScriptLength)
}

// Oracle lets a contract request off-chain data and, once a designated
// Oracle node observes the request and injects a signed OracleResponse
// transaction, dispatches the callback with the result (spec §4.E.6).
type Oracle struct {
	md    *interop.ContractMD
	gas   *GasToken
	roles *RoleManagement
}

// NewOracle constructs the Oracle native, wired to gas for fee deduction
// and roles to resolve the active Oracle-node set.
func NewOracle(gas *GasToken, roles *RoleManagement) *Oracle {
	o := &Oracle{gas: gas, roles: roles}
	o.md = &interop.ContractMD{
		ID:   IDOracleContract,
		Hash: nativeHash("OracleContract"),
		Name: "OracleContract",
		Methods: []interop.MethodDescriptor{
			{Name: "request", ParamCount: 6, RequiredFlags: callflag.All},
			{Name: "getPrice", RequiredFlags: callflag.ReadStates, Safe: true},
			{Name: "setPrice", ParamCount: 1, RequiredFlags: callflag.WriteStates},
		},
	}
	return o
}

// Metadata implements interop.Contract.
func (o *Oracle) Metadata() *interop.ContractMD { return o.md }

// OnPersist seeds the default request price at genesis.
func (o *Oracle) OnPersist(ic *interop.Context) error {
	if ic.Block == nil || ic.Block.Header.Index != 0 {
		return nil
	}
	return putItem(ic, o.md.ID, oraclePrefixPrice, nil, bigint.ToBytes(big.NewInt(defaultOracleRequestPrice)))
}

// OracleNodes returns the ECPoints designated to the Oracle role as of
// ic's block height. Ledger verification does not call it: an
// OracleResponse transaction's witness is not checked against this set.
func (o *Oracle) OracleNodes(ic *interop.Context) []*keys.PublicKey {
	if o.roles == nil {
		return nil
	}
	return o.roles.GetDesignatedByRole(ic, RoleOracle, ic.BlockHeight())
}

// PostPersist dispatches Finish for every OracleResponse attribute
// carried by the block's transactions (spec §4.E.6 "finish()").
func (o *Oracle) PostPersist(ic *interop.Context) error {
	if ic.Block == nil {
		return nil
	}
	for _, tx := range ic.Block.Transactions {
		for _, a := range tx.Attributes {
			if a.Type != transaction.OracleResponseT {
				continue
			}
			if err := o.finish(ic, a); err != nil {
				return err
			}
		}
	}
	return nil
}

func (o *Oracle) price(ic *interop.Context) int64 {
	v, ok := getItem(ic, o.md.ID, oraclePrefixPrice, nil)
	if !ok {
		return defaultOracleRequestPrice
	}
	return bigint.FromBytes(v).Int64()
}

func requestSubKey(id uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(id >> (56 - 8*i))
	}
	return b
}

func (o *Oracle) nextID(ic *interop.Context) uint64 {
	v, ok := getItem(ic, o.md.ID, oraclePrefixIDCounter, nil)
	var id uint64
	if ok && len(v) >= 8 {
		for i := 0; i < 8; i++ {
			id = id<<8 | uint64(v[i])
		}
	}
	next := id + 1
	nb := make([]byte, 8)
	for i := 0; i < 8; i++ {
		nb[i] = byte(next >> (56 - 8*i))
	}
	_ = putItem(ic, o.md.ID, oraclePrefixIDCounter, nil, nb)
	return id
}

// request stores a pending oracle request, deducts its fee from the
// requesting transaction's sender, and emits OracleRequest
// (spec §4.E.6 "request(url, filter, callback_contract, ...)").
func (o *Oracle) request(ic *interop.Context, args []stackitem.Item) (stackitem.Item, error) {
	url, err := arg(args, 0).TryBytes()
	if err != nil {
		return nil, err
	}
	filter, err := arg(args, 1).TryBytes()
	if err != nil {
		return nil, err
	}
	callback, err := arg(args, 2).TryBytes()
	if err != nil {
		return nil, err
	}
	callbackMethod, err := arg(args, 3).TryBytes()
	if err != nil {
		return nil, err
	}
	userData, _ := arg(args, 4).TryBytes()
	gasForResponse, err := argInt(args, 5)
	if err != nil {
		return nil, err
	}
	if gasForResponse.Sign() <= 0 {
		return nil, errInsufficientFunds
	}
	if ic.Tx == nil {
		return nil, errUnauthorized
	}
	var cb util.Uint160
	copy(cb[:], callback)
	fee := new(big.Int).Add(big.NewInt(o.price(ic)), gasForResponse)
	if o.gas != nil {
		if err := o.gas.Burn(ic, ic.Tx.Sender(), fee); err != nil {
			return nil, err
		}
	}
	id := o.nextID(ic)
	req := &oracleRequest{
		OriginalTx:       ic.Tx.Hash(),
		GasForResponse:   gasForResponse.Int64(),
		URL:              string(url),
		Filter:           string(filter),
		CallbackContract: cb,
		CallbackMethod:   string(callbackMethod),
		UserData:         userData,
	}
	w := io.NewBufBinWriter()
	req.encode(w.BinWriter)
	if w.Err != nil {
		return nil, w.Err
	}
	if err := putItem(ic, o.md.ID, oraclePrefixRequest, requestSubKey(id), w.Bytes()); err != nil {
		return nil, err
	}
	ic.AddNotification(o.md.Hash, "OracleRequest", stackitem.NewArray([]stackitem.Item{
		stackitem.NewInteger(int64(id)),
		stackitem.NewByteString(ic.Tx.Sender().BytesBE()),
		stackitem.NewByteString(url),
		bytesOrNull(filter),
	}))
	return stackitem.NewNull(), nil
}

// finish dispatches callback_method on callback_contract with
// (user_data, code, result), the userData passed *by value* copied from
// the original request record at response time rather than re-read live
// from storage (spec §9 Open Questions item 1).
func (o *Oracle) finish(ic *interop.Context, a transaction.Attribute) error {
	data, ok := getItem(ic, o.md.ID, oraclePrefixRequest, requestSubKey(a.OracleID))
	if !ok {
		return nil // request already consumed or unknown; tolerated, matches reference behavior
	}
	req := new(oracleRequest)
	req.decode(io.NewBinReaderFromBuf(data))
	if err := deleteItem(ic, o.md.ID, oraclePrefixRequest, requestSubKey(a.OracleID)); err != nil {
		return err
	}
	_, err := ic.CallNative(req.CallbackContract, req.CallbackMethod, []stackitem.Item{
		bytesOrNull(req.UserData),
		stackitem.NewInteger(int64(a.OracleCode)),
		bytesOrNull(a.OracleResult),
	})
	return err
}

// Invoke implements interop.Contract.
func (o *Oracle) Invoke(ic *interop.Context, method string, args []stackitem.Item) (stackitem.Item, error) {
	switch method {
	case "request":
		return o.request(ic, args)
	case "getPrice":
		return stackitem.NewInteger(o.price(ic)), nil
	case "setPrice":
		v, err := argInt(args, 0)
		if err != nil {
			return nil, err
		}
		if err := putItem(ic, o.md.ID, oraclePrefixPrice, nil, bigint.ToBytes(v)); err != nil {
			return nil, err
		}
		return stackitem.NewNull(), nil
	default:
		return nil, errUnknownMethod
	}
}
