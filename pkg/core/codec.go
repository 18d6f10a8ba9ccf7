package core

import "github.com/n3-core/node/pkg/io"

// encodeToBytes serializes any io.Serializable into a fresh byte slice,
// the same BufBinWriter round trip every wire/storage type in this repo
// uses.
func encodeToBytes(s io.Serializable) []byte {
	w := io.NewBufBinWriter()
	s.EncodeBinary(w.BinWriter)
	return w.Bytes()
}

// decodeFromBytes is the inverse of encodeToBytes.
func decodeFromBytes(s io.Serializable, b []byte) {
	r := io.NewBinReaderFromBuf(b)
	s.DecodeBinary(r)
}
