// Package core implements the block processor: the 9-step process_block
// sequence, genesis construction, and the read-only Ledger surface
// native contracts and RPC consume (spec §4.I).
package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/interop"
	"github.com/n3-core/node/pkg/core/mempool"
	"github.com/n3-core/node/pkg/core/mpt"
	"github.com/n3-core/node/pkg/core/native"
	"github.com/n3-core/node/pkg/core/state"
	"github.com/n3-core/node/pkg/core/storage"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/metrics"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/smartcontract/callflag"
	"github.com/n3-core/node/pkg/smartcontract/trigger"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm"
	"github.com/n3-core/node/pkg/vm/stackitem"
	"go.uber.org/zap"
)

// MaxValidUntilBlockIncrement bounds how far into the future a
// transaction's ValidUntilBlock may be set relative to the current
// height, mirroring mainnet's default (5760 blocks, ~1 day at 15s/block).
const MaxValidUntilBlockIncrement = 5760

// VerificationGasLimit caps the gas a single witness script may spend
// when verified outside a block (mempool admission, RPC); it is far
// below a transaction's SystemFee cap since a witness only needs to
// evaluate a signature check, never general contract logic.
const VerificationGasLimit = 1_50000000 // 1.5 GAS

// Policy caps the block processor enforces, read from config in a real
// deployment but given fixed defaults here (spec §4.I step 2).
type Policy struct {
	MaxBlockSize          int
	MaxTransactionsPerBlock int
	MaxBlockSystemFee      int64
}

// DefaultPolicy mirrors the reference client's mainnet defaults.
var DefaultPolicy = Policy{
	MaxBlockSize:            262144,
	MaxTransactionsPerBlock: 512,
	MaxBlockSystemFee:       900_000_000_00000000,
}

// Blockchain owns the canonical chain state: the persistent store, the
// native contract set, and the mempool that feeds it candidate blocks
// (spec §4.I).
type Blockchain struct {
	store   storage.Store
	natives *native.Set
	Mempool *mempool.Pool
	Policy  Policy
	log     *zap.Logger

	height    uint32
	current   util.Uint256
	stateRoot util.Uint256
}

// ErrInvalidBlock wraps a process_block verification failure.
var ErrInvalidBlock = errors.New("core: block verification failed")

// New constructs a Blockchain over store. Call RunGenesis once, on a
// fresh store, before AddBlock.
func New(store storage.Store, log *zap.Logger) *Blockchain {
	if log == nil {
		log = zap.NewNop()
	}
	bc := &Blockchain{
		store:   store,
		natives: native.NewSet(),
		Mempool: mempool.New(50_000),
		Policy:  DefaultPolicy,
		log:     log,
	}
	if h, idx, err := bc.readCurrentPointer(); err == nil {
		bc.current, bc.height = h, idx
	}
	if r, err := bc.store.Get(stateRootKey(bc.height)); err == nil {
		copy(bc.stateRoot[:], r)
	}
	return bc
}

// storage key helpers, per spec §6.2's fixed prefix layout.

func headerHashKey(index uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, index)
	return storage.AppendPrefix(storage.IXHeaderHashList, b)
}

func blockKey(hash util.Uint256) []byte {
	return storage.AppendPrefix(storage.DataBlock, hash.BytesBE())
}

func txKey(hash util.Uint256) []byte {
	return storage.AppendPrefix(storage.DataTransaction, hash.BytesBE())
}

func currentBlockKey() []byte {
	return storage.SYSCurrentBlock.Bytes()
}

func stateRootKey(index uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, index)
	return storage.AppendPrefix(storage.DataStateRoot, b)
}

func (bc *Blockchain) readCurrentPointer() (util.Uint256, uint32, error) {
	v, err := bc.store.Get(currentBlockKey())
	if err != nil {
		return util.Uint256{}, 0, err
	}
	var h util.Uint256
	copy(h[:], v[:32])
	idx := binary.BigEndian.Uint32(v[32:36])
	return h, idx, nil
}

// BlockHeight implements interop.Ledger.
func (bc *Blockchain) BlockHeight() uint32 { return bc.height }

// CurrentBlockHash implements interop.Ledger.
func (bc *Blockchain) CurrentBlockHash() util.Uint256 { return bc.current }

// StateRoot returns the contract-storage trie root as of the current
// height (spec §4.C, §4.I step 7).
func (bc *Blockchain) StateRoot() util.Uint256 { return bc.stateRoot }

// GetHeaderHash implements interop.Ledger.
func (bc *Blockchain) GetHeaderHash(index uint32) util.Uint256 {
	v, err := bc.store.Get(headerHashKey(index))
	if err != nil {
		return util.Uint256{}
	}
	var h util.Uint256
	copy(h[:], v)
	return h
}

// GetBlock implements interop.Ledger, reassembling transaction bodies
// from the trimmed header + hash list persisted form (spec §3.1
// "trimmed block").
func (bc *Blockchain) GetBlock(hash util.Uint256) (*block.Block, error) {
	v, err := bc.store.Get(blockKey(hash))
	if err != nil {
		return nil, err
	}
	trimmed := new(block.Trimmed)
	decodeFromBytes(trimmed, v)
	txs := make([]*transaction.Transaction, len(trimmed.Hashes))
	for i, h := range trimmed.Hashes {
		tx, _, err := bc.GetTransaction(h)
		if err != nil {
			return nil, err
		}
		txs[i] = tx
	}
	return &block.Block{Header: trimmed.Header, Transactions: txs}, nil
}

// GetTransaction implements interop.Ledger.
func (bc *Blockchain) GetTransaction(hash util.Uint256) (*transaction.Transaction, uint32, error) {
	v, err := bc.store.Get(txKey(hash))
	if err != nil {
		return nil, 0, err
	}
	height := binary.BigEndian.Uint32(v[:4])
	tx := new(transaction.Transaction)
	decodeFromBytes(tx, v[4:])
	return tx, height, nil
}

// RunGenesis builds and applies block 0, minting the initial NEO/GAS
// supply to nextConsensus (spec §4.E.4/§4.E.5 "genesis").
func (bc *Blockchain) RunGenesis(nextConsensus util.Uint160, timestamp uint64) error {
	if bc.height != 0 || !bc.current.Equals(util.Uint256{}) {
		return nil
	}
	genesis := &block.Block{
		Header: block.Header{
			Version:       0,
			PrevHash:      util.Uint256{},
			Timestamp:     timestamp,
			Index:         0,
			PrimaryIndex:  0,
			NextConsensus: nextConsensus,
		},
	}
	genesis.Header.MerkleRoot = genesis.ComputeMerkleRoot()
	return bc.persist(genesis)
}

// AddBlock runs the full process_block sequence and commits the result,
// in the strict order spec §4.I mandates.
func (bc *Blockchain) AddBlock(b *block.Block) error {
	// Step 1: header verification.
	if b.Header.Index != bc.height+1 {
		return fmt.Errorf("%w: index %d does not follow %d", ErrInvalidBlock, b.Header.Index, bc.height)
	}
	if !b.Header.PrevHash.Equals(bc.current) {
		return fmt.Errorf("%w: prev_hash mismatch", ErrInvalidBlock)
	}
	prev, err := bc.GetBlock(bc.current)
	if err == nil && b.Header.Timestamp <= prev.Header.Timestamp {
		return fmt.Errorf("%w: timestamp does not advance", ErrInvalidBlock)
	}
	if b.Header.Index > 0 {
		if prev == nil {
			return fmt.Errorf("%w: previous block %s not found", ErrInvalidBlock, bc.current.StringLE())
		}
		if err := bc.verifyBlockWitness(b, prev); err != nil {
			return err
		}
	}

	// Step 2: transaction list verification.
	if !b.VerifyMerkleRoot() {
		return fmt.Errorf("%w: merkle root mismatch", ErrInvalidBlock)
	}
	seen := make(map[util.Uint256]struct{}, len(b.Transactions))
	var totalSize int
	var totalSysFee int64
	for _, tx := range b.Transactions {
		h := tx.Hash()
		if _, dup := seen[h]; dup {
			return fmt.Errorf("%w: duplicate transaction %s", ErrInvalidBlock, h.StringLE())
		}
		seen[h] = struct{}{}
		totalSize += tx.Size()
		totalSysFee += tx.SystemFee
	}
	if totalSize > bc.Policy.MaxBlockSize {
		return fmt.Errorf("%w: block size %d exceeds policy", ErrInvalidBlock, totalSize)
	}
	if len(b.Transactions) > bc.Policy.MaxTransactionsPerBlock {
		return fmt.Errorf("%w: %d transactions exceeds policy", ErrInvalidBlock, len(b.Transactions))
	}
	if totalSysFee > bc.Policy.MaxBlockSystemFee {
		return fmt.Errorf("%w: system fee %d exceeds policy", ErrInvalidBlock, totalSysFee)
	}

	return bc.persist(b)
}

// persist runs steps 3-8 of process_block against b, which the caller
// has already verified (or which is the unverified genesis block).
func (bc *Blockchain) persist(b *block.Block) error {
	// Step 3: fresh DataCache over current state.
	dao := storage.NewDataCache(bc.store)

	// Step 4: OnPersist trigger.
	onPersist := interop.NewContext(trigger.OnPersist, bc, dao, b, nil, bc.log)
	bc.natives.RegisterAll(onPersist)
	for _, c := range onPersist.SortedNatives() {
		if err := c.OnPersist(onPersist); err != nil {
			return fmt.Errorf("core: OnPersist %s: %w", c.Metadata().Name, err)
		}
	}

	logs := make([]*state.AppExecLog, 0, len(b.Transactions)+1)
	logs = append(logs, &state.AppExecLog{
		Container:  b.Hash(),
		Executions: []state.ExecutionResult{execResultOf(onPersist, nil)},
	})

	// Step 5: execute each transaction under the Application trigger.
	for _, tx := range b.Transactions {
		ic := interop.NewContext(trigger.Application, bc, dao, b, tx, bc.log)
		bc.natives.RegisterAll(ic)
		ic.UseSigners(tx.Signers)

		v := ic.SpawnVM(tx.SystemFee)
		if _, err := v.LoadScript(tx.Script, -1, callflag.All, tx.Sender()); err != nil {
			return fmt.Errorf("core: load script for %s: %w", tx.Hash().StringLE(), err)
		}
		v.Run()

		logs = append(logs, &state.AppExecLog{
			Container:  tx.Hash(),
			Executions: []state.ExecutionResult{execResultOf(ic, v)},
		})

		if err := dao.Put(txKey(tx.Hash()), encodeTxRecord(tx, b.Header.Index)); err != nil {
			return err
		}
	}

	// Step 6: PostPersist trigger.
	postPersist := interop.NewContext(trigger.PostPersist, bc, dao, b, nil, bc.log)
	bc.natives.RegisterAll(postPersist)
	for _, c := range postPersist.SortedNatives() {
		if err := c.PostPersist(postPersist); err != nil {
			return fmt.Errorf("core: PostPersist %s: %w", c.Metadata().Name, err)
		}
	}
	logs = append(logs, &state.AppExecLog{
		Container:  b.Hash(),
		Executions: []state.ExecutionResult{execResultOf(postPersist, nil)},
	})

	// Persist the block/header-index records into the same DataCache so
	// they commit atomically with every native/application mutation.
	if err := dao.Put(blockKey(b.Hash()), encodeToBytes(b.Trim())); err != nil {
		return err
	}
	if err := dao.Put(headerHashKey(b.Header.Index), b.Hash().BytesBE()); err != nil {
		return err
	}
	ptr := make([]byte, 36)
	copy(ptr, b.Hash().BytesBE())
	binary.BigEndian.PutUint32(ptr[32:], b.Header.Index)
	if err := dao.Put(currentBlockKey(), ptr); err != nil {
		return err
	}

	// Step 7: state root. The trie tracks contract storage keys only
	// (STStorage prefix), rooted at the previous block's root and built
	// over dao itself so every node Flush writes lands in the same
	// overlay that step 8 commits atomically (spec §4.C, §4.I step 7).
	trie := mpt.New(dao, bc.stateRoot)
	var trieErr error
	dao.Changes(func(key, value []byte, st storage.ItemState) {
		if trieErr != nil || len(key) == 0 || storage.KeyPrefix(key[0]) != storage.STStorage {
			return
		}
		if st == storage.Deleted {
			trieErr = trie.Delete(key[1:])
			return
		}
		trieErr = trie.Put(key[1:], value)
	})
	if trieErr != nil {
		return fmt.Errorf("core: update state trie for block %s: %w", b.Hash().StringLE(), trieErr)
	}
	if err := trie.Flush(); err != nil {
		return err
	}
	newStateRoot := trie.Root()
	if err := dao.Put(stateRootKey(b.Header.Index), newStateRoot.BytesBE()); err != nil {
		return err
	}

	for _, l := range logs {
		if err := dao.Put(storage.AppendPrefix(storage.DataAppLog, l.Container.BytesBE()), encodeToBytes(l)); err != nil {
			return err
		}
	}

	// Step 8: atomic commit.
	if err := dao.Commit(); err != nil {
		return fmt.Errorf("core: commit block %s: %w", b.Hash().StringLE(), err)
	}

	bc.height = b.Header.Index
	bc.current = b.Hash()
	bc.stateRoot = newStateRoot

	included := make([]util.Uint256, len(b.Transactions))
	for i, tx := range b.Transactions {
		included[i] = tx.Hash()
	}
	bc.Mempool.OnBlockPersisted(included, bc.height)

	metrics.SetBlockHeight(bc.height)
	metrics.SetMempoolSize(bc.Mempool.Size())

	return nil
}

// Natives exposes the registered native contract instances, used by RPC
// governance methods (getcommittee, getnextblockvalidators,
// getunclaimedgas) and by consensus's mempool verification callback.
func (bc *Blockchain) Natives() *native.Set { return bc.natives }

// GetContract looks up a deployed contract's record by its script hash,
// reading through a fresh read-only overlay of current state (spec
// §4.L getcontractstate).
func (bc *Blockchain) GetContract(hash util.Uint160) (*state.Contract, error) {
	dao := storage.NewDataCache(bc.store)
	ic := interop.NewContext(trigger.Application, bc, dao, nil, nil, bc.log)
	return bc.natives.Management.GetContract(ic, hash)
}

// GetStorageItem reads one contract storage item as of current state
// (spec §4.L getstorage).
func (bc *Blockchain) GetStorageItem(contractID int32, key []byte) ([]byte, bool) {
	full := make([]byte, 0, 4+len(key))
	full = append(full, byte(contractID), byte(contractID>>8), byte(contractID>>16), byte(contractID>>24))
	full = append(full, key...)
	v, err := bc.store.Get(storage.AppendPrefix(storage.STStorage, full))
	if err != nil {
		return nil, false
	}
	return v, true
}

// FindStorage iterates every storage item of contractID whose key has
// the given prefix, in ascending key order (spec §4.L findstorage).
func (bc *Blockchain) FindStorage(contractID int32, prefix []byte) []storage.KeyValue {
	idPrefix := make([]byte, 0, 4+len(prefix))
	idPrefix = append(idPrefix, byte(contractID), byte(contractID>>8), byte(contractID>>16), byte(contractID>>24))
	idPrefix = append(idPrefix, prefix...)
	var out []storage.KeyValue
	bc.store.Seek(storage.AppendPrefix(storage.STStorage, idPrefix), func(k, v []byte) bool {
		out = append(out, storage.KeyValue{Key: append([]byte{}, k[5:]...), Value: append([]byte{}, v...)})
		return true
	})
	return out
}

// GetAppLog returns the persisted application log for a transaction or
// block hash, if one was recorded (spec §4.L getapplicationlog).
func (bc *Blockchain) GetAppLog(container util.Uint256) (*state.AppExecLog, error) {
	v, err := bc.store.Get(storage.AppendPrefix(storage.DataAppLog, container.BytesBE()))
	if err != nil {
		return nil, err
	}
	log := new(state.AppExecLog)
	decodeFromBytes(log, v)
	return log, nil
}

// VerifyTransaction runs the spec §4.G verification pipeline against tx
// as of the current chain state (read-only; no mutation is ever
// committed), returning the first failing check, or Succeed.
func (bc *Blockchain) VerifyTransaction(tx *transaction.Transaction) transaction.VerifyResult {
	if tx.Size() > transaction.MaxTransactionSize || len(tx.Script) == 0 || len(tx.Script) > transaction.MaxScriptLength {
		return transaction.InvalidSize
	}
	if tx.SystemFee < 0 || tx.NetworkFee < 0 {
		return transaction.InvalidAttribute
	}
	if len(tx.Signers) == 0 || len(tx.Signers) != len(tx.Witnesses) {
		return transaction.InvalidAttribute
	}
	if tx.ValidUntilBlock <= bc.height || tx.ValidUntilBlock > bc.height+MaxValidUntilBlockIncrement {
		return transaction.Expired
	}
	if _, _, err := bc.GetTransaction(tx.Hash()); err == nil {
		return transaction.AlreadyExists
	}
	if bc.Mempool.Contains(tx.Hash()) {
		return transaction.AlreadyExists
	}

	dao := storage.NewDataCache(bc.store)
	ic := interop.NewContext(trigger.Verification, bc, dao, nil, tx, bc.log)
	bc.natives.RegisterAll(ic)
	ic.UseSigners(tx.Signers)

	for _, s := range tx.Signers {
		if bc.natives.Policy.IsBlocked(ic, s.Account) {
			return transaction.PolicyFail
		}
	}
	feePerByte := bc.natives.Policy.FeePerByte(ic)
	if !transaction.RemainingNetworkFeeCoversSize(tx.NetworkFee, tx.Size(), feePerByte) {
		return transaction.InsufficientNetworkFee
	}
	if tx.IsHighPriority() {
		committee := bc.natives.Neo.CommitteeAddress(ic)
		var ok bool
		for _, s := range tx.Signers {
			if s.Account == committee {
				ok = true
				break
			}
		}
		if !ok {
			return transaction.PolicyFail
		}
	}
	for i, s := range tx.Signers {
		if !bc.verifyWitness(ic, s.Account, tx.Witnesses[i]) {
			return transaction.InvalidWitness
		}
	}
	balance := bc.natives.Gas.Balance(ic, tx.Sender())
	if balance.Cmp(big.NewInt(tx.SystemFee+tx.NetworkFee)) < 0 {
		return transaction.InsufficientFunds
	}
	return transaction.Succeed
}

// InvokeResult is the outcome of a read-only script invocation (spec
// §4.L invokefunction/invokescript): final VM state, gas spent, the
// resulting stack and any notifications, none of which are persisted.
type InvokeResult struct {
	State         vm.State
	GasConsumed   int64
	Stack         []stackitem.Item
	Notifications []state.NotificationEvent
	FaultMessage  string
}

// InvokeScript runs script under the Application trigger with gasLimit,
// against a throwaway DataCache overlay that is always discarded,
// exactly the "without persisting side effects" contract spec §4.L
// requires of invokefunction/invokescript.
func (bc *Blockchain) InvokeScript(script []byte, signers []transaction.Signer, gasLimit int64) *InvokeResult {
	dao := storage.NewDataCache(bc.store)
	ic := interop.NewContext(trigger.Application, bc, dao, nil, nil, bc.log)
	bc.natives.RegisterAll(ic)
	if signers != nil {
		ic.UseSigners(signers)
	}
	var sender util.Uint160
	if len(signers) > 0 {
		sender = signers[0].Account
	}
	v := ic.SpawnVM(gasLimit)
	res := &InvokeResult{Notifications: ic.Notifications}
	if _, err := v.LoadScript(script, -1, callflag.All, sender); err != nil {
		res.State = vm.Fault
		res.FaultMessage = err.Error()
		return res
	}
	res.State = v.Run()
	res.GasConsumed = v.GasConsumed()
	res.Notifications = ic.Notifications
	if rs := v.ResultStack(); rs != nil {
		res.Stack = rs.ToArray()
	}
	if fe := v.UncaughtException(); fe != nil {
		res.FaultMessage = fe.Error()
	}
	return res
}

// CalculateNetworkFee estimates the network fee a transaction's current
// signers/witnesses would require: the size-based cost plus the actual
// gas each witness's verification script spends when run against
// current state (spec §4.L calculatenetworkfee), mirroring the
// verification pipeline VerifyTransaction itself runs.
func (bc *Blockchain) CalculateNetworkFee(tx *transaction.Transaction) int64 {
	dao := storage.NewDataCache(bc.store)
	ic := interop.NewContext(trigger.Verification, bc, dao, nil, tx, bc.log)
	bc.natives.RegisterAll(ic)
	ic.UseSigners(tx.Signers)

	feePerByte := bc.natives.Policy.FeePerByte(ic)
	fee := feePerByte * int64(tx.Size())
	for i, sg := range tx.Signers {
		if i >= len(tx.Witnesses) {
			break
		}
		w := tx.Witnesses[i]
		v := ic.SpawnVM(VerificationGasLimit)
		if _, err := v.LoadScript(w.VerificationScript, -1, callflag.ReadOnly, sg.Account); err != nil {
			continue
		}
		if len(w.InvocationScript) > 0 {
			if _, err := v.LoadScript(w.InvocationScript, 0, callflag.ReadOnly, sg.Account); err != nil {
				continue
			}
		}
		v.Run()
		fee += v.GasConsumed()
	}
	return fee
}

// verifyWitness runs one signer's witness under the Verification trigger
// (spec §4.F "check_witness"): the invocation script is executed first
// to push its arguments, then the verification script, whose final
// top-of-stack boolean decides authorisation. The witness's script hash
// must equal account. A witness without a verification script gets no
// special case: it leaves nothing on the stack and so never authorises.
func (bc *Blockchain) verifyWitness(ic *interop.Context, account util.Uint160, w transaction.Witness) bool {
	if w.ScriptHash() != account {
		return false
	}
	v := ic.SpawnVM(VerificationGasLimit)
	if _, err := v.LoadScript(w.VerificationScript, -1, callflag.ReadOnly, account); err != nil {
		return false
	}
	if len(w.InvocationScript) > 0 {
		if _, err := v.LoadScript(w.InvocationScript, 0, callflag.ReadOnly, account); err != nil {
			return false
		}
	}
	if v.Run() != vm.Halt {
		return false
	}
	top := v.ResultStack()
	if top == nil || top.Len() == 0 {
		return false
	}
	return top.Peek(0).Bool()
}

// verifyBlockWitness checks b's header witness against prev's
// next_consensus account and bounds b's PrimaryIndex against the
// validator set prev committed to (spec §4.I step 1). It is the block
// processor's responsibility header.Verify documents but cannot itself
// perform, since only the chain has the native-contract state needed to
// derive the validator set.
func (bc *Blockchain) verifyBlockWitness(b *block.Block, prev *block.Block) error {
	dao := storage.NewDataCache(bc.store)
	ic := interop.NewContext(trigger.Verification, bc, dao, prev, nil, bc.log)
	bc.natives.RegisterAll(ic)

	validators := bc.natives.Neo.GetNextBlockValidators(ic)
	if len(validators) == 0 {
		if !b.Header.Witness.ScriptHash().Equals(prev.Header.NextConsensus) {
			return fmt.Errorf("%w: header witness does not match next_consensus", ErrInvalidBlock)
		}
		return nil
	}
	if int(b.Header.PrimaryIndex) >= len(validators) {
		return fmt.Errorf("%w: primary_index %d out of range for %d validators", ErrInvalidBlock, b.Header.PrimaryIndex, len(validators))
	}

	pubs := make([][]byte, len(validators))
	for i, pk := range validators {
		pubs[i] = pk.Bytes()
	}
	m := len(validators)*2/3 + 1
	script, err := smartcontract.CreateMultiSigRedeemScript(m, pubs)
	if err != nil {
		return fmt.Errorf("%w: derive next_consensus script: %v", ErrInvalidBlock, err)
	}
	account := hash.Hash160(script)
	if !account.Equals(prev.Header.NextConsensus) {
		return fmt.Errorf("%w: derived validator account does not match next_consensus", ErrInvalidBlock)
	}
	if !bc.verifyWitness(ic, account, b.Header.Witness) {
		return fmt.Errorf("%w: header witness verification failed", ErrInvalidBlock)
	}
	return nil
}

func execResultOf(ic *interop.Context, v *vm.VM) state.ExecutionResult {
	res := state.ExecutionResult{Trigger: byte(ic.Trigger)}
	for _, n := range ic.Notifications {
		res.Notifications = append(res.Notifications, n)
	}
	if v != nil {
		res.VMState = v.State()
		res.GasConsumed = v.GasConsumed()
		if fe := v.UncaughtException(); fe != nil {
			res.FaultMessage = fe.Error()
		}
	}
	return res
}

func encodeTxRecord(tx *transaction.Transaction, height uint32) []byte {
	h := make([]byte, 4)
	binary.BigEndian.PutUint32(h, height)
	return append(h, encodeToBytes(tx)...)
}

// ListContracts returns every deployed contract's record, in ascending
// script-hash order, by scanning the STContract keyspace (spec §4.E.3
// list_contracts). RPC's getcontractstate(id|name) resolves against this
// list since the store carries no secondary id/name index.
func (bc *Blockchain) ListContracts() []*state.Contract {
	var out []*state.Contract
	bc.store.Seek(storage.STContract.Bytes(), func(_, v []byte) bool {
		c := new(state.Contract)
		decodeFromBytes(c, v)
		out = append(out, c)
		return true
	})
	return out
}

// StateRootAt returns the contract-storage trie root persisted for
// block index, as recorded at the end of that block's process_block
// (spec §4.C "state root for block h is retained").
func (bc *Blockchain) StateRootAt(index uint32) (util.Uint256, error) {
	v, err := bc.store.Get(stateRootKey(index))
	if err != nil {
		return util.Uint256{}, err
	}
	return util.Uint256DecodeBytesBE(v)
}

// OpenTrie opens a read-only Merkle-Patricia trie rooted at root, for
// proof generation against a historical or current state root (spec
// §4.L getproof).
func (bc *Blockchain) OpenTrie(root util.Uint256) *mpt.Trie {
	return mpt.New(bc.store, root)
}

// ReadOnlyContext builds a throwaway interop.Context over the current
// chain state, for RPC methods that read native-contract state
// (getcommittee, getnextblockvalidators, getunclaimedgas) without
// running a script.
func (bc *Blockchain) ReadOnlyContext() *interop.Context {
	dao := storage.NewDataCache(bc.store)
	ic := interop.NewContext(trigger.Application, bc, dao, nil, nil, bc.log)
	bc.natives.RegisterAll(ic)
	return ic
}
