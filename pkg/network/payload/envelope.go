package payload

import (
	"fmt"

	"github.com/pierrec/lz4"

	"github.com/n3-core/node/pkg/io"
)

// FlagCompressed marks a payload as LZ4-compressed (spec §6.1 "flags").
const FlagCompressed byte = 1 << 0

// CompressionThreshold is the smallest uncompressed payload size worth
// compressing; below it the framing overhead isn't worth paying.
const CompressionThreshold = 128

// MaxPayloadSize bounds a single envelope's payload, decompressed,
// guarding against a peer claiming an enormous VarBytes length.
const MaxPayloadSize = 16 * 1024 * 1024

// Envelope is the fixed message frame every P2P message is wrapped in
// (spec §6.1 "Message envelope").
type Envelope struct {
	Magic   uint32
	Command Command
	Flags   byte
	Payload []byte
}

// NewEnvelope wraps raw (an already-encoded payload body) for magic,
// compressing it when it clears CompressionThreshold and compress is
// true (negotiated via peer capabilities).
func NewEnvelope(magic uint32, cmd Command, raw []byte, compress bool) (*Envelope, error) {
	e := &Envelope{Magic: magic, Command: cmd, Payload: raw}
	if compress && len(raw) >= CompressionThreshold {
		compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, compressed, nil)
		if err == nil && n > 0 && n < len(raw) {
			e.Payload = compressed[:n]
			e.Flags |= FlagCompressed
		}
	}
	return e, nil
}

// EncodeBinary implements io.Serializable.
func (e *Envelope) EncodeBinary(w *io.BinWriter) {
	w.WriteU32LE(e.Magic)
	w.WriteB(byte(e.Command))
	w.WriteB(e.Flags)
	w.WriteVarBytes(e.Payload)
}

// DecodeBinary implements io.Serializable.
func (e *Envelope) DecodeBinary(r *io.BinReader) {
	e.Magic = r.ReadU32LE()
	e.Command = Command(r.ReadB())
	e.Flags = r.ReadB()
	e.Payload = r.ReadVarBytes(MaxPayloadSize)
}

// DecompressedPayload returns the envelope's payload, inflating it
// first if FlagCompressed is set. uncompressedHint sizes the output
// buffer; pass 0 if unknown.
func (e *Envelope) DecompressedPayload(uncompressedHint int) ([]byte, error) {
	if e.Flags&FlagCompressed == 0 {
		return e.Payload, nil
	}
	if uncompressedHint <= 0 {
		uncompressedHint = MaxPayloadSize
	}
	out := make([]byte, uncompressedHint)
	n, err := lz4.UncompressBlock(e.Payload, out)
	if err != nil {
		return nil, fmt.Errorf("payload: lz4 decompress: %w", err)
	}
	return out[:n], nil
}
