package smartcontract

import (
	ojson "github.com/nspcc-dev/go-ordered-json"
)

// ContractManifest is the structured metadata accompanying a contract's
// NEF: identity, declared standards, ABI and the permission/trust
// sandboxing rules other contracts are held to when calling it
// (spec §3.1 "ContractManifest").
type ContractManifest struct {
	Name               string            `json:"name"`
	Groups             []ContractGroup   `json:"groups"`
	SupportedStandards []string          `json:"supportedstandards"`
	ABI                ContractABI       `json:"abi"`
	Permissions        []Permission      `json:"permissions"`
	Trusts             WildcardContainer `json:"trusts"`
	Extra              ojson.OrderedObject `json:"extra"`
}

// ContractGroup associates a public key with a signature over the
// contract hash, letting a publisher claim several deployed contracts as
// belonging to one group (referenced by Signer.AllowedGroups).
type ContractGroup struct {
	PubKey    string `json:"pubkey"`
	Signature string `json:"signature"`
}

// ContractABI is the method/event surface a contract exposes.
type ContractABI struct {
	Methods []ContractMethod `json:"methods"`
	Events  []ContractEvent  `json:"events"`
}

// ContractMethod describes one ABI entry point.
type ContractMethod struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
	ReturnType ParamType   `json:"returntype"`
	Offset     int         `json:"offset"`
	Safe       bool        `json:"safe"`
}

// ContractEvent describes one notification a contract may emit.
type ContractEvent struct {
	Name       string      `json:"name"`
	Parameters []Parameter `json:"parameters"`
}

// FindMethod locates an ABI method by name and parameter count, the
// overload resolution rule contract calls use (spec §4.E.9).
func (a *ContractABI) FindMethod(name string, paramCount int) (*ContractMethod, bool) {
	for i := range a.Methods {
		if a.Methods[i].Name == name && len(a.Methods[i].Parameters) == paramCount {
			return &a.Methods[i], true
		}
	}
	return nil, false
}

// Permission restricts which contracts/methods this contract may invoke;
// "*" in Contract/Methods means wildcard (any).
type Permission struct {
	Contract string   `json:"contract"`
	Methods  []string `json:"methods"`
}

// WildcardContainer is either the literal wildcard "*" or an explicit
// list of script hashes/group keys (manifest Trusts field).
type WildcardContainer struct {
	Wildcard bool
	Values   []string
}

// MarshalJSON implements json.Marshaler.
func (w WildcardContainer) MarshalJSON() ([]byte, error) {
	if w.Wildcard {
		return []byte(`"*"`), nil
	}
	return ojson.Marshal(w.Values)
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *WildcardContainer) UnmarshalJSON(data []byte) error {
	if string(data) == `"*"` {
		w.Wildcard = true
		w.Values = nil
		return nil
	}
	w.Wildcard = false
	return ojson.Unmarshal(data, &w.Values)
}

// IsStandardSupported reports whether std appears in SupportedStandards,
// e.g. "NEP-17" for NeoToken/GasToken (spec glossary "NEP-17").
func (m *ContractManifest) IsStandardSupported(std string) bool {
	for _, s := range m.SupportedStandards {
		if s == std {
			return true
		}
	}
	return false
}

// CanCall reports whether this manifest's Permissions entries allow
// calling method on the contract whose hash string is targetHashHex. A
// Permission matches when its Contract is "*" or equals targetHashHex;
// group keys and the target's declared standards are not consulted.
func (m *ContractManifest) CanCall(targetHashHex, method string) bool {
	for _, p := range m.Permissions {
		if p.Contract != "*" && p.Contract != targetHashHex {
			continue
		}
		for _, meth := range p.Methods {
			if meth == "*" || meth == method {
				return true
			}
		}
	}
	return false
}

// MarshalManifest renders m using the ordered-JSON codec so ABI field
// order round-trips exactly, matching how contract hashes are pinned to
// a manifest's exact byte encoding during deployment.
func MarshalManifest(m *ContractManifest) ([]byte, error) {
	return ojson.Marshal(m)
}

// UnmarshalManifest parses data produced by MarshalManifest.
func UnmarshalManifest(data []byte) (*ContractManifest, error) {
	m := new(ContractManifest)
	if err := ojson.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
