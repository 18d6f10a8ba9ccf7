package smartcontract

import (
	"errors"
	"fmt"

	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
)

// nefMagic is the fixed 4-byte NEF file header (spec §3.1 "NefFile").
const nefMagic = 0x3346454e // "NEF3"

// MaxScriptLength bounds a NEF's compiled script (spec §4.G item 1).
const MaxScriptLength = 512 * 1024

// NefFile is the compiled-contract container: script plus compiler
// provenance and an integrity checksum (spec §3.1 "NefFile").
type NefFile struct {
	Compiler string
	Source   string
	Tokens   []MethodToken
	Script   []byte
	Checksum uint32
}

// MethodToken references an external contract method a NEF's script may
// invoke without an explicit System.Contract.Call, used for optimized
// inter-contract calls.
type MethodToken struct {
	Hash       [20]byte
	Method     string
	ParamCount uint16
	HasReturn  bool
	CallFlag   byte
}

// EncodeBinary implements io.Serializable.
func (n *NefFile) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(nefMagic)
	writeFixedString(w, n.Compiler, 64)
	w.WriteString(n.Source)
	w.WriteB(0) // reserved
	io.WriteArray(w, n.Tokens, func(w *io.BinWriter, t MethodToken) {
		w.WriteBytes(t.Hash[:])
		w.WriteString(t.Method)
		w.WriteU16LE(t.ParamCount)
		w.WriteBool(t.HasReturn)
		w.WriteB(t.CallFlag)
	})
	w.WriteU16LE(0) // reserved
	w.WriteVarBytes(n.Script)
	w.WriteU32LE(n.Checksum)
}

// DecodeBinary implements io.Serializable.
func (n *NefFile) DecodeBinary(r *io.BinReader) {
	magic := r.ReadU32LE()
	if r.Err == nil && magic != nefMagic {
		r.Err = errors.New("smartcontract: invalid NEF magic")
		return
	}
	n.Compiler = readFixedString(r, 64)
	n.Source = r.ReadString()
	_ = r.ReadB()
	n.Tokens = io.ReadArray(r, func(r *io.BinReader) MethodToken {
		var t MethodToken
		r.ReadBytes(t.Hash[:])
		t.Method = r.ReadString()
		t.ParamCount = r.ReadU16LE()
		t.HasReturn = r.ReadBool()
		t.CallFlag = r.ReadB()
		return t
	})
	_ = r.ReadU16LE()
	n.Script = r.ReadVarBytes(MaxScriptLength)
	n.Checksum = r.ReadU32LE()
	if r.Err == nil && n.Checksum != n.computeChecksum() {
		r.Err = fmt.Errorf("smartcontract: NEF checksum mismatch")
	}
}

// computeChecksum returns the first 4 bytes of Hash256 over every field
// except Checksum itself.
func (n *NefFile) computeChecksum() uint32 {
	w := io.NewBufBinWriter()
	cp := *n
	cp.Checksum = 0
	cp.EncodeBinary(w.BinWriter)
	b := w.Bytes()
	sum := hash.Hash256(b[:len(b)-4])
	return uint32(sum[0]) | uint32(sum[1])<<8 | uint32(sum[2])<<16 | uint32(sum[3])<<24
}

// UpdateChecksum recomputes and stores Checksum; callers must invoke it
// after mutating Script/Compiler/Source/Tokens and before persisting or
// hashing the NEF.
func (n *NefFile) UpdateChecksum() {
	n.Checksum = n.computeChecksum()
}

func writeFixedString(w *io.BinWriter, s string, size int) {
	b := make([]byte, size)
	copy(b, s)
	w.WriteBytes(b)
}

func readFixedString(r *io.BinReader, size int) string {
	b := make([]byte, size)
	r.ReadBytes(b)
	n := 0
	for n < len(b) && b[n] != 0 {
		n++
	}
	return string(b[:n])
}
