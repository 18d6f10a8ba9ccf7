package transaction

import (
	"errors"
	"fmt"

	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// AttrType tags a TransactionAttribute variant (spec §3.1
// "TransactionAttribute").
type AttrType byte

// Attribute types. Nothing in this repository consults config.Hardforks
// for NotaryAssisted or Conflicts: both are accepted whenever they
// decode, at any height.
const (
	HighPriorityT   AttrType = 0x01
	OracleResponseT AttrType = 0x11
	NotValidBeforeT AttrType = 0x20
	ConflictsT      AttrType = 0x21
	NotaryAssistedT AttrType = 0x22
)

// OracleResponseCode is the outcome reported by an OracleResponse
// attribute (spec §4.E.6).
type OracleResponseCode byte

// Response codes.
const (
	OracleSuccess           OracleResponseCode = 0x00
	OracleProtocolError     OracleResponseCode = 0x10
	OracleConsensusUnreach  OracleResponseCode = 0x12
	OracleNotFound          OracleResponseCode = 0x14
	OracleTimeout           OracleResponseCode = 0x16
	OracleForbidden         OracleResponseCode = 0x18
	OracleResponseTooLarge  OracleResponseCode = 0x1a
	OracleInsufficientFunds OracleResponseCode = 0x1c
	OracleContentTypeNotSup OracleResponseCode = 0x1f
	OracleError             OracleResponseCode = 0xff
)

// MaxOracleResultSize bounds OracleResponse.Result.
const MaxOracleResultSize = 0xffff

// Attribute is a tagged transaction attribute; exactly one of the
// type-specific fields below is meaningful, selected by Type.
type Attribute struct {
	Type AttrType

	// HighPriority carries no payload.

	// OracleResponse fields.
	OracleID     uint64
	OracleCode   OracleResponseCode
	OracleResult []byte

	// NotValidBefore field.
	Height uint32

	// Conflicts field.
	ConflictHash util.Uint256

	// NotaryAssisted field.
	NKeys byte
}

// EncodeBinary implements io.Serializable.
func (a *Attribute) EncodeBinary(w *io.BinWriter) {
	w.WriteB(byte(a.Type))
	switch a.Type {
	case HighPriorityT:
	case OracleResponseT:
		w.WriteU64LE(a.OracleID)
		w.WriteB(byte(a.OracleCode))
		w.WriteVarBytes(a.OracleResult)
	case NotValidBeforeT:
		w.WriteU32LE(a.Height)
	case ConflictsT:
		w.WriteBytes(a.ConflictHash[:])
	case NotaryAssistedT:
		w.WriteB(a.NKeys)
	}
}

// DecodeBinary implements io.Serializable.
func (a *Attribute) DecodeBinary(r *io.BinReader) {
	a.Type = AttrType(r.ReadB())
	switch a.Type {
	case HighPriorityT:
	case OracleResponseT:
		a.OracleID = r.ReadU64LE()
		a.OracleCode = OracleResponseCode(r.ReadB())
		a.OracleResult = r.ReadVarBytes(MaxOracleResultSize)
		if r.Err == nil && a.OracleCode != OracleSuccess && len(a.OracleResult) != 0 {
			r.Err = errors.New("transaction: non-success OracleResponse must carry an empty result")
		}
	case NotValidBeforeT:
		a.Height = r.ReadU32LE()
	case ConflictsT:
		r.ReadBytes(a.ConflictHash[:])
	case NotaryAssistedT:
		a.NKeys = r.ReadB()
	default:
		if r.Err == nil {
			r.Err = fmt.Errorf("transaction: unknown attribute type 0x%02x", byte(a.Type))
		}
	}
}

// AllowMultiple reports whether a transaction may carry more than one
// attribute of type t (only Conflicts may repeat; every other type is a
// singleton).
func AllowMultiple(t AttrType) bool {
	return t == ConflictsT
}
