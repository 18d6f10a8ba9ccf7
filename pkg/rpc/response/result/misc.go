package result

import "github.com/n3-core/node/pkg/util"

// Protocol is the JSON form of the network's protocol parameters,
// nested inside Version (getversion, spec §4.L).
type Protocol struct {
	AddressVersion              byte     `json:"addressversion"`
	Network                     uint32   `json:"network"`
	MillisecondsPerBlock        uint32   `json:"msperblock"`
	MaxTransactionsPerBlock     uint32   `json:"maxtransactionsperblock"`
	MaxValidUntilBlockIncrement uint32   `json:"maxvaliduntilblockincrement"`
	ValidatorsCount             byte     `json:"validatorscount"`
	SeedList                    []string `json:"seedlist"`
}

// Version is the JSON form of getversion's result.
type Version struct {
	TCPPort   uint16   `json:"tcpport"`
	WSPort    uint16   `json:"wsport,omitempty"`
	Nonce     uint32   `json:"nonce"`
	UserAgent string   `json:"useragent"`
	Protocol  Protocol `json:"protocol"`
}

// Peer describes one connected or known network address for getpeers.
type Peer struct {
	Address string `json:"address"`
	Port    uint16 `json:"port"`
}

// GetPeers is the JSON form of getpeers' result: the node reports
// connected peers directly and has no separate bad/unconnected lists
// since it doesn't persist a failure history beyond the address manager
// (spec §4.K "Address discovery").
type GetPeers struct {
	Unconnected []Peer `json:"unconnected"`
	Connected   []Peer `json:"connected"`
	Bad         []Peer `json:"bad"`
}

// ValidateAddress is the JSON form of validateaddress's result.
type ValidateAddress struct {
	Address string `json:"address"`
	IsValid bool   `json:"isvalid"`
}

// NEP17Balance is one token balance entry within NEP17Balances.
type NEP17Balance struct {
	AssetHash   util.Uint160 `json:"assethash"`
	Amount      string       `json:"amount"`
	LastUpdated uint32       `json:"lastupdatedblock"`
}

// NEP17Balances is the JSON form of getnep17balances' result.
type NEP17Balances struct {
	Address  string         `json:"address"`
	Balances []NEP17Balance `json:"balance"`
}

// NEP17Transfer is one entry in NEP17Transfers' sent/received lists.
type NEP17Transfer struct {
	Timestamp   uint64       `json:"timestamp"`
	AssetHash   util.Uint160 `json:"assethash"`
	Address     string       `json:"transferaddress,omitempty"`
	Amount      string       `json:"amount"`
	BlockIndex  uint32       `json:"blockindex"`
	TxHash      util.Uint256 `json:"txhash"`
}

// NEP17Transfers is the JSON form of getnep17transfers' result.
type NEP17Transfers struct {
	Sent     []NEP17Transfer `json:"sent"`
	Received []NEP17Transfer `json:"received"`
	Address  string          `json:"address"`
}

// UnclaimedGas is the JSON form of getunclaimedgas' result.
type UnclaimedGas struct {
	Unclaimed string `json:"unclaimed"`
	Address   string `json:"address"`
}

// ValidatorInfo describes one committee/validator entry for
// getvalidators/getcommittee/getnextblockvalidators.
type ValidatorInfo struct {
	PublicKey string `json:"publickey"`
	Votes     string `json:"votes"`
	Active    bool   `json:"active"`
}
