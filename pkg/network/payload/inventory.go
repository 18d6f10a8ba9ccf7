package payload

import (
	"github.com/n3-core/node/pkg/core/block"
	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// MaxInventoryHashes bounds a single Inv/GetData/NotFound message
// (matches the block/mempool size limits; a single announce can't
// exceed what a block could ever contain plus slack for mempool dumps).
const MaxInventoryHashes = 50000

// Inventory carries a batch of same-typed hashes, used for Inv,
// GetData and NotFound (spec §4.K "Inventory exchange").
type Inventory struct {
	Type   InventoryType
	Hashes []util.Uint256
}

// EncodeBinary implements io.Serializable.
func (i *Inventory) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(i.Type))
	w.WriteVarUint(uint64(len(i.Hashes)))
	for _, h := range i.Hashes {
		w.WriteBytes(h.BytesBE())
	}
}

// DecodeBinary implements io.Serializable.
func (i *Inventory) DecodeBinary(r *io.BinReader) {
	i.Type = InventoryType(r.ReadB())
	n := r.ReadVarUint()
	if n > MaxInventoryHashes {
		r.Err = errTooManyHashes
		return
	}
	i.Hashes = make([]util.Uint256, n)
	for j := range i.Hashes {
		buf := make([]byte, util.Uint256Size)
		r.ReadBytes(buf)
		if r.Err != nil {
			return
		}
		h, err := util.Uint256DecodeBytesBE(buf)
		if err != nil {
			r.Err = err
			return
		}
		i.Hashes[j] = h
	}
}

var errTooManyHashes = invErr("payload: inventory message exceeds MaxInventoryHashes")

type invErr string

func (e invErr) Error() string { return string(e) }

// GetBlocks requests a range of block hashes starting after HashStart,
// up to Count blocks (0 or -1 meaning "as many as the peer will give").
type GetBlocks struct {
	HashStart util.Uint256
	Count     int16
}

// EncodeBinary implements io.Serializable.
func (g *GetBlocks) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(g.HashStart.BytesBE())
	w.WriteU16LE(uint16(g.Count))
}

// DecodeBinary implements io.Serializable.
func (g *GetBlocks) DecodeBinary(r *io.BinReader) {
	buf := make([]byte, util.Uint256Size)
	r.ReadBytes(buf)
	if r.Err != nil {
		return
	}
	h, err := util.Uint256DecodeBytesBE(buf)
	if err != nil {
		r.Err = err
		return
	}
	g.HashStart = h
	g.Count = int16(r.ReadU16LE())
}

// GetHeaders requests headers the same way GetBlocks requests full
// blocks (spec §4.K "Bulk sync").
type GetHeaders = GetBlocks

// Headers carries a batch of block headers in response to GetHeaders.
type Headers struct {
	Headers []*block.Header
}

// EncodeBinary implements io.Serializable.
func (h *Headers) EncodeBinary(w *io.BinWriter) {
	io.WriteArray(w, h.Headers, func(w *io.BinWriter, hdr *block.Header) { hdr.EncodeBinary(w) })
}

// DecodeBinary implements io.Serializable.
func (h *Headers) DecodeBinary(r *io.BinReader) {
	h.Headers = io.ReadArray(r, func(r *io.BinReader) *block.Header {
		hdr := new(block.Header)
		hdr.DecodeBinary(r)
		return hdr
	}, 2000)
}

// TxPayload wraps a single relayed transaction (command Transaction).
type TxPayload struct {
	Tx *transaction.Transaction
}

// EncodeBinary implements io.Serializable.
func (t *TxPayload) EncodeBinary(w *io.BinWriter) { t.Tx.EncodeBinary(w) }

// DecodeBinary implements io.Serializable.
func (t *TxPayload) DecodeBinary(r *io.BinReader) {
	t.Tx = new(transaction.Transaction)
	t.Tx.DecodeBinary(r)
}

// BlockPayload wraps a single relayed block (command Block).
type BlockPayload struct {
	Block *block.Block
}

// EncodeBinary implements io.Serializable.
func (b *BlockPayload) EncodeBinary(w *io.BinWriter) { b.Block.EncodeBinary(w) }

// DecodeBinary implements io.Serializable.
func (b *BlockPayload) DecodeBinary(r *io.BinReader) {
	b.Block = new(block.Block)
	b.Block.DecodeBinary(r)
}

// AddrEntry is one peer address record, as exchanged via GetAddr/Addr
// and persisted by addrmgr for cold-start discovery.
type AddrEntry struct {
	Timestamp    uint32
	Capabilities []Capability
	Address      string // "ip:port"
}

// EncodeBinary implements io.Serializable.
func (a *AddrEntry) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(a.Timestamp)
	io.WriteArray(w, a.Capabilities, func(w *io.BinWriter, c Capability) { c.EncodeBinary(w) })
	w.WriteString(a.Address)
}

// DecodeBinary implements io.Serializable.
func (a *AddrEntry) DecodeBinary(r *io.BinReader) {
	a.Timestamp = r.ReadU32LE()
	a.Capabilities = io.ReadArray(r, func(r *io.BinReader) Capability {
		var c Capability
		c.DecodeBinary(r)
		return c
	}, 32)
	a.Address = r.ReadString(64)
}

// Addr carries a batch of peer addresses in response to GetAddr.
type Addr struct {
	Entries []AddrEntry
}

// EncodeBinary implements io.Serializable.
func (a *Addr) EncodeBinary(w *io.BinWriter) {
	io.WriteArray(w, a.Entries, func(w *io.BinWriter, e AddrEntry) { e.EncodeBinary(w) })
}

// DecodeBinary implements io.Serializable.
func (a *Addr) DecodeBinary(r *io.BinReader) {
	a.Entries = io.ReadArray(r, func(r *io.BinReader) AddrEntry {
		var e AddrEntry
		e.DecodeBinary(r)
		return e
	}, 1000)
}

// Ping carries the sender's current height and a nonce Pong must echo.
type Ping struct {
	LastBlockIndex uint32
	Timestamp      uint32
	Nonce          uint32
}

// EncodeBinary implements io.Serializable.
func (p *Ping) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(p.LastBlockIndex)
	w.WriteU32LE(p.Timestamp)
	w.WriteU32LE(p.Nonce)
}

// DecodeBinary implements io.Serializable.
func (p *Ping) DecodeBinary(r *io.BinReader) {
	p.LastBlockIndex = r.ReadU32LE()
	p.Timestamp = r.ReadU32LE()
	p.Nonce = r.ReadU32LE()
}

// Pong = Ping, echoing the nonce it was sent in response to.
type Pong = Ping
