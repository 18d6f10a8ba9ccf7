package result

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"

	"github.com/n3-core/node/pkg/encoding/address"
	"github.com/n3-core/node/pkg/util"
)

func hexString(b []byte) string   { return hex.EncodeToString(b) }
func base64String(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

// fixed8String renders an amount already in datoshi (10^-8 GAS) as the
// decimal string JSON-RPC clients expect for sysfee/netfee fields.
func fixed8String(v int64) string {
	return util.Fixed8(v).String()
}

func addressString(u util.Uint160, version byte) string {
	return address.Uint160ToString(u, version)
}

// hexUint64 renders a little-endian 8-byte value as "0x"-prefixed hex,
// the convention block headers use for their Nonce field.
func hexUint64(v uint64) string {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return "0x" + hex.EncodeToString(b)
}
