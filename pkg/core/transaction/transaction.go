package transaction

import (
	"errors"
	"fmt"

	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// Size limits (spec §4.G item 1; policy may tighten MaxTransactionSize
// further at runtime, these are the hard protocol ceilings).
const (
	MaxTransactionSize      = 102400
	MaxScriptLength         = 65536
	MaxAttributes           = 16
	MaxTransactionSigners   = 16
)

// Transaction is the NEO3 transaction: a script executed under the
// Application trigger, authorised by an ordered list of signers/witnesses
// (spec §3.1 "Transaction").
type Transaction struct {
	Version         byte
	Nonce           uint32
	SystemFee       int64
	NetworkFee      int64
	ValidUntilBlock uint32
	Signers         []Signer
	Attributes      []Attribute
	Script          []byte
	Witnesses       []Witness

	hash      util.Uint256
	hashValid bool
	size      int
}

// Sender is the paying/primary account: signers[0] (spec §3.1).
func (t *Transaction) Sender() util.Uint160 {
	if len(t.Signers) == 0 {
		return util.Uint160{}
	}
	return t.Signers[0].Account
}

// Size returns the cached encoded size, computing it on first use.
func (t *Transaction) Size() int {
	if t.size == 0 {
		w := io.NewBufBinWriter()
		t.EncodeBinary(w.BinWriter)
		t.size = w.Len()
	}
	return t.size
}

// Hash returns SHA256(SHA256(unsigned_fields)), computing and caching it
// on first use (spec §3.1 "derived hash").
func (t *Transaction) Hash() util.Uint256 {
	if !t.hashValid {
		w := io.NewBufBinWriter()
		t.encodeUnsigned(w.BinWriter)
		t.hash = hash.Hash256(w.Bytes())
		t.hashValid = true
	}
	return t.hash
}

func (t *Transaction) encodeUnsigned(w *io.BinWriter) {
	w.WriteB(t.Version)
	w.WriteU32LE(t.Nonce)
	w.WriteI64LE(t.SystemFee)
	w.WriteI64LE(t.NetworkFee)
	w.WriteU32LE(t.ValidUntilBlock)
	io.WriteArray(w, t.Signers, func(w *io.BinWriter, s Signer) { s.EncodeBinary(w) })
	io.WriteArray(w, t.Attributes, func(w *io.BinWriter, a Attribute) { a.EncodeBinary(w) })
	w.WriteVarBytes(t.Script)
}

// EncodeBinary implements io.Serializable.
func (t *Transaction) EncodeBinary(w *io.BinWriter) {
	t.encodeUnsigned(w)
	io.WriteArray(w, t.Witnesses, func(w *io.BinWriter, wit Witness) { wit.EncodeBinary(w) })
}

// DecodeBinary implements io.Serializable.
func (t *Transaction) DecodeBinary(r *io.BinReader) {
	t.Version = r.ReadB()
	t.Nonce = r.ReadU32LE()
	t.SystemFee = r.ReadI64LE()
	t.NetworkFee = r.ReadI64LE()
	t.ValidUntilBlock = r.ReadU32LE()
	t.Signers = io.ReadArray(r, func(r *io.BinReader) Signer {
		var s Signer
		s.DecodeBinary(r)
		return s
	}, MaxTransactionSigners)
	t.Attributes = io.ReadArray(r, func(r *io.BinReader) Attribute {
		var a Attribute
		a.DecodeBinary(r)
		return a
	}, MaxAttributes)
	t.Script = r.ReadVarBytes(MaxScriptLength)
	t.Witnesses = io.ReadArray(r, func(r *io.BinReader) Witness {
		var w Witness
		w.DecodeBinary(r)
		return w
	})
	t.hashValid = false
	if r.Err != nil {
		return
	}
	r.Err = t.validateStructure()
}

// validateStructure enforces the shape invariants that don't depend on
// chain state (spec §4.G items 1-4); policy/state-dependent checks live
// in the ledger package's verification pipeline.
func (t *Transaction) validateStructure() error {
	if t.SystemFee < 0 {
		return errors.New("transaction: negative system fee")
	}
	if t.NetworkFee < 0 {
		return errors.New("transaction: negative network fee")
	}
	if len(t.Signers) == 0 {
		return errors.New("transaction: no signers")
	}
	if len(t.Script) == 0 {
		return errors.New("transaction: empty script")
	}
	if len(t.Witnesses) != len(t.Signers) {
		return fmt.Errorf("transaction: %d witnesses for %d signers", len(t.Witnesses), len(t.Signers))
	}
	seen := make(map[util.Uint160]struct{}, len(t.Signers))
	globalSeen := false
	for _, s := range t.Signers {
		if _, ok := seen[s.Account]; ok {
			return fmt.Errorf("transaction: duplicate signer %s", s.Account)
		}
		seen[s.Account] = struct{}{}
		if s.Scopes == Global {
			if globalSeen {
				return errors.New("transaction: multiple Global signers")
			}
			globalSeen = true
		}
	}
	var conflictsSeen = map[util.Uint256]struct{}{}
	typeCount := map[AttrType]int{}
	for _, a := range t.Attributes {
		typeCount[a.Type]++
		if !AllowMultiple(a.Type) && typeCount[a.Type] > 1 {
			return fmt.Errorf("transaction: duplicate attribute of type %v", a.Type)
		}
		if a.Type == ConflictsT {
			if _, ok := conflictsSeen[a.ConflictHash]; ok {
				return errors.New("transaction: duplicate Conflicts attribute")
			}
			conflictsSeen[a.ConflictHash] = struct{}{}
		}
	}
	return nil
}

// HasAttribute reports whether t carries an attribute of type want.
func (t *Transaction) HasAttribute(want AttrType) bool {
	for _, a := range t.Attributes {
		if a.Type == want {
			return true
		}
	}
	return false
}

// IsHighPriority reports whether t carries the HighPriority attribute
// (spec §3.1, §4.H ordering key item 1).
func (t *Transaction) IsHighPriority() bool { return t.HasAttribute(HighPriorityT) }
