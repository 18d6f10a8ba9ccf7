package native

import "github.com/n3-core/node/pkg/core/interop"

// Set holds one instance of each built-in contract, constructed in
// dependency order (NeoToken before the natives that check its
// committee witness, GasToken before NeoToken's distribution hook is
// wired back to it) and ready to register onto an interop.Context
// (spec §4.E "Native contracts").
type Set struct {
	Management *ContractManagement
	StdLib     *StdLib
	CryptoLib  *CryptoLib
	Ledger     *Ledger
	Neo        *NeoToken
	Gas        *GasToken
	Policy     *Policy
	Role       *RoleManagement
	Oracle     *Oracle
}

// NewSet constructs every native contract and resolves their
// cross-references.
func NewSet() *Set {
	neo := NewNeoToken()
	gas := NewGasToken()
	neo.SetGasToken(gas)
	role := NewRoleManagement(neo)
	return &Set{
		Management: NewContractManagement(),
		StdLib:     NewStdLib(),
		CryptoLib:  NewCryptoLib(),
		Ledger:     NewLedger(),
		Neo:        neo,
		Gas:        gas,
		Policy:     NewPolicy(neo),
		Role:       role,
		Oracle:     NewOracle(gas, role),
	}
}

// RegisterAll adds every native contract in s onto ic, indexed by hash
// and by id, going from id -1 down to -9.
func (s *Set) RegisterAll(ic *interop.Context) {
	for _, c := range []interop.Contract{
		s.Management, s.StdLib, s.CryptoLib, s.Ledger,
		s.Neo, s.Gas, s.Policy, s.Role, s.Oracle,
	} {
		ic.RegisterNative(c)
	}
}
