// Package address converts between Uint160 script hashes and their
// Base58Check "address" string form, versioned per network.
package address

import (
	"errors"

	"github.com/n3-core/node/pkg/encoding/base58"
	"github.com/n3-core/node/pkg/util"
)

// Uint160ToString renders a script hash as an address using the given
// network's address version byte (config ProtocolConfiguration.AddressVersion).
func Uint160ToString(u util.Uint160, version byte) string {
	b := make([]byte, 0, util.Uint160Size+1)
	b = append(b, version)
	b = append(b, u.BytesBE()...)
	return base58.CheckEncode(b)
}

// StringToUint160 parses an address string back into a script hash,
// verifying the version byte matches.
func StringToUint160(s string, version byte) (u util.Uint160, err error) {
	b, err := base58.CheckDecode(s)
	if err != nil {
		return u, err
	}
	if len(b) != util.Uint160Size+1 {
		return u, errors.New("invalid address length")
	}
	if b[0] != version {
		return u, errors.New("invalid address version")
	}
	return util.Uint160DecodeBytesBE(b[1:])
}
