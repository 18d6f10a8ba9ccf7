// Package io implements the node's canonical binary codec: fixed-width
// little-endian integers, Bitcoin-style VarInt/VarBytes/VarString, and the
// Serializable interface every wire/storage structure implements.
package io

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"unicode/utf8"
)

// MaxArraySize is the default cap applied to array/slice length prefixes
// decoded from untrusted input, guarding against memory-exhaustion attacks.
const MaxArraySize = 0x1000000

// ErrArrayTooBig is returned when a VarInt-prefixed array/string length
// exceeds MaxArraySize.
var ErrArrayTooBig = errors.New("array is too big")

// Serializable defines a binary codec for a type: it can read itself from
// a BinReader and write itself to a BinWriter. Implementations must be
// symmetric: DecodeBinary(w) after EncodeBinary(r) reproduces the value.
type Serializable interface {
	DecodeBinary(*BinReader)
	EncodeBinary(*BinWriter)
}

// BinReader wraps an io.Reader and accumulates the first error encountered,
// letting callers chain a sequence of reads and check Err once at the end.
type BinReader struct {
	r   io.Reader
	u64 []byte
	Err error
}

// NewBinReaderFromIO creates a BinReader from an arbitrary io.Reader.
func NewBinReaderFromIO(ior io.Reader) *BinReader {
	return &BinReader{r: ior, u64: make([]byte, 8)}
}

// NewBinReaderFromBuf creates a BinReader reading from an in-memory buffer.
func NewBinReaderFromBuf(b []byte) *BinReader {
	return NewBinReaderFromIO(bytes.NewReader(b))
}

// ReadU64LE reads a uint64 encoded little-endian.
func (r *BinReader) ReadU64LE() uint64 {
	return binary.LittleEndian.Uint64(r.readBytes(8))
}

// ReadU32LE reads a uint32 encoded little-endian.
func (r *BinReader) ReadU32LE() uint32 {
	return binary.LittleEndian.Uint32(r.readBytes(4))
}

// ReadU16LE reads a uint16 encoded little-endian.
func (r *BinReader) ReadU16LE() uint16 {
	return binary.LittleEndian.Uint16(r.readBytes(2))
}

// ReadU16BE reads a uint16 encoded big-endian.
func (r *BinReader) ReadU16BE() uint16 {
	return binary.BigEndian.Uint16(r.readBytes(2))
}

// ReadB reads a single byte.
func (r *BinReader) ReadB() byte {
	b := r.readBytes(1)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}

// ReadBool reads a single byte and interprets it as a boolean (non-zero = true).
func (r *BinReader) ReadBool() bool {
	return r.ReadB() != 0
}

// ReadI64LE reads an int64 encoded little-endian two's complement.
func (r *BinReader) ReadI64LE() int64 {
	return int64(r.ReadU64LE())
}

// ReadI32LE reads an int32 encoded little-endian two's complement.
func (r *BinReader) ReadI32LE() int32 {
	return int32(r.ReadU32LE())
}

func (r *BinReader) readBytes(n int) []byte {
	if r.Err != nil {
		return make([]byte, n)
	}
	buf := make([]byte, n)
	_, r.Err = io.ReadFull(r.r, buf)
	return buf
}

// ReadBytes reads exactly len(buf) bytes into buf.
func (r *BinReader) ReadBytes(buf []byte) {
	if r.Err != nil {
		return
	}
	_, r.Err = io.ReadFull(r.r, buf)
}

// ReadVarUint reads a canonically-encoded VarInt (see spec §4.A); any
// non-minimal encoding is treated as a decode error.
func (r *BinReader) ReadVarUint() uint64 {
	if r.Err != nil {
		return 0
	}
	b := r.ReadB()
	switch b {
	case 0xfd:
		v := r.ReadU16LE()
		if v < 0xfd {
			r.Err = errors.New("non-minimal varint encoding")
		}
		return uint64(v)
	case 0xfe:
		v := r.ReadU32LE()
		if v <= math.MaxUint16 {
			r.Err = errors.New("non-minimal varint encoding")
		}
		return uint64(v)
	case 0xff:
		v := r.ReadU64LE()
		if v <= math.MaxUint32 {
			r.Err = errors.New("non-minimal varint encoding")
		}
		return v
	default:
		return uint64(b)
	}
}

// ReadVarBytes reads a VarInt length followed by that many bytes.
func (r *BinReader) ReadVarBytes(maxSize ...int) []byte {
	n := r.ReadVarUint()
	limit := uint64(MaxArraySize)
	if len(maxSize) > 0 {
		limit = uint64(maxSize[0])
	}
	if n > limit {
		r.Err = ErrArrayTooBig
		return nil
	}
	b := make([]byte, n)
	r.ReadBytes(b)
	return b
}

// ErrInvalidUTF8 is returned by ReadString when the decoded bytes are
// not valid UTF-8 (spec §4.A "strict decoding rejects invalid UTF-8").
var ErrInvalidUTF8 = errors.New("io: VarString is not valid UTF-8")

// ReadString reads a VarString: UTF-8 bytes with a VarInt length prefix.
func (r *BinReader) ReadString(maxSize ...int) string {
	b := r.ReadVarBytes(maxSize...)
	if r.Err != nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.Err = ErrInvalidUTF8
		return ""
	}
	return string(b)
}

// ReadArray decodes a VarInt-prefixed homogeneous array, invoking decode
// once per element to build each T. It is the generic counterpart of the
// teacher's reflection-based `r.ReadArray(&arr)` helper.
func ReadArray[T any](r *BinReader, decode func(*BinReader) T, maxSize ...int) []T {
	n := r.ReadVarUint()
	limit := uint64(MaxArraySize)
	if len(maxSize) > 0 {
		limit = uint64(maxSize[0])
	}
	if n > limit {
		r.Err = ErrArrayTooBig
		return nil
	}
	arr := make([]T, n)
	for i := range arr {
		if r.Err != nil {
			break
		}
		arr[i] = decode(r)
	}
	return arr
}
