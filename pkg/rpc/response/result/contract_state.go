package result

import (
	"github.com/n3-core/node/pkg/core/state"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/util"
)

// NefFile is the JSON form of smartcontract.NefFile.
type NefFile struct {
	Magic    uint32           `json:"magic"`
	Compiler string           `json:"compiler"`
	Source   string           `json:"source"`
	Tokens   []MethodToken    `json:"tokens"`
	Script   string           `json:"script"`
	Checksum uint32           `json:"checksum"`
}

// MethodToken is the JSON form of smartcontract.MethodToken.
type MethodToken struct {
	Hash       util.Uint160 `json:"hash"`
	Method     string       `json:"method"`
	ParamCount uint16       `json:"paramcount"`
	HasReturn  bool         `json:"hasreturnvalue"`
	CallFlag   byte         `json:"callflags"`
}

// NewNefFile converts a parsed NefFile to its JSON form.
func NewNefFile(n smartcontract.NefFile) NefFile {
	out := NefFile{
		Compiler: n.Compiler,
		Source:   n.Source,
		Script:   base64String(n.Script),
		Checksum: n.Checksum,
	}
	for _, t := range n.Tokens {
		out.Tokens = append(out.Tokens, MethodToken{
			Hash:       util.Uint160(t.Hash),
			Method:     t.Method,
			ParamCount: t.ParamCount,
			HasReturn:  t.HasReturn,
			CallFlag:   t.CallFlag,
		})
	}
	return out
}

// ContractState is the JSON form of state.Contract (getcontractstate).
type ContractState struct {
	ID            int32                         `json:"id"`
	UpdateCounter uint16                        `json:"updatecounter"`
	Hash          util.Uint160                  `json:"hash"`
	NEF           NefFile                       `json:"nef"`
	Manifest      smartcontract.ContractManifest `json:"manifest"`
}

// NewContractState converts a ledger Contract into its JSON form.
func NewContractState(c *state.Contract) ContractState {
	return ContractState{
		ID:            c.ID,
		UpdateCounter: c.UpdateCounter,
		Hash:          c.Hash,
		NEF:           NewNefFile(c.NEF),
		Manifest:      c.Manifest,
	}
}
