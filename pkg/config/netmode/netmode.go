// Package netmode names the well-known network magics a node can run
// against, mirroring the teacher's pkg/config/netmode.
package netmode

import "strconv"

// Magic identifies the P2P network a message/block belongs to (wire
// envelope's magic field).
type Magic uint32

// Well-known magics.
const (
	MainNet Magic = 0x334f454e
	TestNet Magic = 0x3254334e
	PrivNet Magic = 56753
)

// String implements fmt.Stringer.
func (n Magic) String() string {
	switch n {
	case MainNet:
		return "mainnet"
	case TestNet:
		return "testnet"
	case PrivNet:
		return "privnet"
	default:
		return "net 0x" + strconv.FormatUint(uint64(n), 16)
	}
}
