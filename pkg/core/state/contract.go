// Package state holds on-chain records that aren't wire messages in
// their own right: deployed contracts, notifications/application logs,
// and NEP-17-adjacent bookkeeping (spec §3.1 "Contract", "Notification").
package state

import (
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/util"
)

// Contract is a deployed contract's on-chain record (spec §3.1
// "Contract"): identity, update bookkeeping and its NEF/manifest pair.
type Contract struct {
	ID            int32
	UpdateCounter uint16
	Hash          util.Uint160
	NEF           smartcontract.NefFile
	Manifest      smartcontract.ContractManifest
}

// EncodeBinary implements io.Serializable.
func (c *Contract) EncodeBinary(w *io.BinWriter) {
	w.WriteI32LE(c.ID)
	w.WriteU16LE(c.UpdateCounter)
	w.WriteBytes(c.Hash[:])
	c.NEF.EncodeBinary(w)
	data, err := smartcontract.MarshalManifest(&c.Manifest)
	if err != nil {
		w.Err = err
		return
	}
	w.WriteVarBytes(data)
}

// DecodeBinary implements io.Serializable.
func (c *Contract) DecodeBinary(r *io.BinReader) {
	c.ID = r.ReadI32LE()
	c.UpdateCounter = r.ReadU16LE()
	r.ReadBytes(c.Hash[:])
	c.NEF.DecodeBinary(r)
	data := r.ReadVarBytes()
	if r.Err != nil {
		return
	}
	m, err := smartcontract.UnmarshalManifest(data)
	if err != nil {
		r.Err = err
		return
	}
	c.Manifest = *m
}

// CreateContractHash derives the deterministic script hash assigned to a
// freshly deployed contract: Hash160(0x00 || sender || nonce as u32 LE ||
// name as a var-length string)
// (spec §4.E.3 "deploy").
func CreateContractHash(sender util.Uint160, nonce uint32, name string) util.Uint160 {
	w := io.NewBufBinWriter()
	w.WriteB(0) // PUSH0-equivalent separator, matches the opcode-prefixed derivation in the reference client
	w.WriteBytes(sender[:])
	w.WriteU32LE(nonce)
	w.WriteString(name)
	return hash.Hash160(w.Bytes())
}
