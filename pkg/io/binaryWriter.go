package io

import (
	"bytes"
	"encoding/binary"
	"io"
)

// BinWriter wraps an io.Writer, accumulating the first error so callers
// can chain writes and check Err/Error() once at the end.
type BinWriter struct {
	w   io.Writer
	u64 []byte
	Err error
}

// NewBinWriterFromIO creates a BinWriter writing to an arbitrary io.Writer.
func NewBinWriterFromIO(iow io.Writer) *BinWriter {
	return &BinWriter{w: iow, u64: make([]byte, 8)}
}

// WriteU64LE writes val little-endian.
func (w *BinWriter) WriteU64LE(val uint64) {
	binary.LittleEndian.PutUint64(w.u64, val)
	w.writeBytes(w.u64)
}

// WriteU32LE writes val little-endian.
func (w *BinWriter) WriteU32LE(val uint32) {
	binary.LittleEndian.PutUint32(w.u64[:4], val)
	w.writeBytes(w.u64[:4])
}

// WriteU16LE writes val little-endian.
func (w *BinWriter) WriteU16LE(val uint16) {
	binary.LittleEndian.PutUint16(w.u64[:2], val)
	w.writeBytes(w.u64[:2])
}

// WriteU16BE writes val big-endian.
func (w *BinWriter) WriteU16BE(val uint16) {
	binary.BigEndian.PutUint16(w.u64[:2], val)
	w.writeBytes(w.u64[:2])
}

// WriteB writes a single byte.
func (w *BinWriter) WriteB(val byte) {
	w.u64[0] = val
	w.writeBytes(w.u64[:1])
}

// WriteBool writes a boolean as a single 0x00/0x01 byte.
func (w *BinWriter) WriteBool(val bool) {
	if val {
		w.WriteB(1)
	} else {
		w.WriteB(0)
	}
}

// WriteI64LE writes val little-endian two's complement.
func (w *BinWriter) WriteI64LE(val int64) { w.WriteU64LE(uint64(val)) }

// WriteI32LE writes val little-endian two's complement.
func (w *BinWriter) WriteI32LE(val int32) { w.WriteU32LE(uint32(val)) }

func (w *BinWriter) writeBytes(b []byte) {
	if w.Err != nil {
		return
	}
	_, w.Err = w.w.Write(b)
}

// WriteBytes writes b verbatim, with no length prefix.
func (w *BinWriter) WriteBytes(b []byte) {
	w.writeBytes(b)
}

// WriteVarUint writes n using the canonical minimal VarInt encoding.
func (w *BinWriter) WriteVarUint(n uint64) {
	if w.Err != nil {
		return
	}
	switch {
	case n < 0xfd:
		w.WriteB(byte(n))
	case n <= 0xffff:
		w.WriteB(0xfd)
		w.WriteU16LE(uint16(n))
	case n <= 0xffffffff:
		w.WriteB(0xfe)
		w.WriteU32LE(uint32(n))
	default:
		w.WriteB(0xff)
		w.WriteU64LE(n)
	}
}

// WriteVarBytes writes a VarInt length prefix followed by b.
func (w *BinWriter) WriteVarBytes(b []byte) {
	w.WriteVarUint(uint64(len(b)))
	w.WriteBytes(b)
}

// WriteString writes s as a VarString (UTF-8 VarBytes).
func (w *BinWriter) WriteString(s string) {
	w.WriteVarBytes([]byte(s))
}

// WriteArray writes a VarInt-prefixed homogeneous array, invoking encode
// once per element.
func WriteArray[T any](w *BinWriter, arr []T, encode func(*BinWriter, T)) {
	w.WriteVarUint(uint64(len(arr)))
	for _, it := range arr {
		if w.Err != nil {
			return
		}
		encode(w, it)
	}
}

// Error returns the first error encountered, if any.
func (w *BinWriter) Error() error { return w.Err }

// BufBinWriter is a BinWriter backed by an in-memory buffer, convenient
// for one-shot serialization (e.g. computing a hash over encoded bytes).
type BufBinWriter struct {
	*BinWriter
	buf *bytes.Buffer
}

// NewBufBinWriter creates a BufBinWriter ready for use.
func NewBufBinWriter() *BufBinWriter {
	b := new(bytes.Buffer)
	return &BufBinWriter{BinWriter: NewBinWriterFromIO(b), buf: b}
}

// Len returns the number of bytes written so far.
func (bw *BufBinWriter) Len() int { return bw.buf.Len() }

// Bytes returns the accumulated buffer; it is an error to call it if Err != nil.
func (bw *BufBinWriter) Bytes() []byte {
	if bw.BinWriter.Err != nil {
		return nil
	}
	b := bw.buf.Bytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Reset clears the buffer and any accumulated error, allowing reuse.
func (bw *BufBinWriter) Reset() {
	bw.buf.Reset()
	bw.BinWriter.Err = nil
}
