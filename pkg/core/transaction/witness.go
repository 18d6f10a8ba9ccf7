// Package transaction implements the NEO3 transaction data model: typed
// signers, witnesses, attributes and the transaction itself, with
// canonical binary and hashing rules (spec §3.1, §4.G).
package transaction

import (
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// MaxWitnessScriptSize bounds a single invocation/verification script.
const MaxWitnessScriptSize = 65536

// Witness is the pair of scripts proving a Signer authorised a
// transaction: the invocation script pushes arguments (signatures), the
// verification script evaluates to a boolean (spec §3.1 "Witness").
type Witness struct {
	InvocationScript   []byte
	VerificationScript []byte
}

// EncodeBinary implements io.Serializable.
func (w *Witness) EncodeBinary(bw *io.BinWriter) {
	bw.WriteVarBytes(w.InvocationScript)
	bw.WriteVarBytes(w.VerificationScript)
}

// DecodeBinary implements io.Serializable.
func (w *Witness) DecodeBinary(br *io.BinReader) {
	w.InvocationScript = br.ReadVarBytes(MaxWitnessScriptSize)
	w.VerificationScript = br.ReadVarBytes(MaxWitnessScriptSize)
}

// ScriptHash returns the address a verification script authorises,
// i.e. RIPEMD160(SHA256(verification_script)) (spec §3.1 "ScriptHash").
func (w *Witness) ScriptHash() util.Uint160 {
	return hash.Hash160(w.VerificationScript)
}
