// Package request decodes JSON-RPC parameter arrays into the typed
// values each method contract expects (spec §4.L). It mirrors the
// reference node's separation between wire-level parameter parsing and
// the result types a method returns (see package result), grounded on
// the upstream pkg/rpc/request layout.
package request

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/encoding/address"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/util"
)

var (
	errMissingParameter = errors.New("request: missing parameter")
	errNotAString       = errors.New("request: not a string")
	errNotAnInt         = errors.New("request: not an integer")
	errNotABool         = errors.New("request: not a boolean")
)

// Param wraps one positional JSON-RPC parameter, deferring type
// assertion until the method handler knows what it expects.
type Param struct {
	json.RawMessage
}

// String renders the raw JSON for error messages.
func (p Param) String() string {
	return string(p.RawMessage)
}

// GetString requires p to hold a JSON string.
func (p Param) GetString() (string, error) {
	var s string
	if err := json.Unmarshal(p.RawMessage, &s); err != nil {
		return "", errNotAString
	}
	return s, nil
}

// AsString is GetString with a fallback on a missing/null param.
func (p Param) AsString(def string) string {
	s, err := p.GetString()
	if err != nil || string(p.RawMessage) == "null" {
		return def
	}
	return s
}

// GetBool requires p to hold a JSON boolean.
func (p Param) GetBool() (bool, error) {
	var b bool
	if err := json.Unmarshal(p.RawMessage, &b); err != nil {
		return false, errNotABool
	}
	return b, nil
}

// AsBool is GetBool with a fallback.
func (p Param) AsBool(def bool) bool {
	b, err := p.GetBool()
	if err != nil {
		return def
	}
	return b
}

// GetInt requires p to hold a JSON number with no fractional part.
func (p Param) GetInt() (int, error) {
	var f float64
	if err := json.Unmarshal(p.RawMessage, &f); err != nil || f != float64(int(f)) {
		return 0, errNotAnInt
	}
	return int(f), nil
}

// AsInt is GetInt with a fallback.
func (p Param) AsInt(def int) int {
	i, err := p.GetInt()
	if err != nil {
		return def
	}
	return i
}

// GetArray requires p to hold a JSON array, returned as further Params.
func (p Param) GetArray() ([]Param, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(p.RawMessage, &raw); err != nil {
		return nil, fmt.Errorf("request: not an array: %w", err)
	}
	out := make([]Param, len(raw))
	for i, r := range raw {
		out[i] = Param{r}
	}
	return out, nil
}

// GetUint256 parses p as a "0x"-prefixed big-endian hash string.
func (p Param) GetUint256() (util.Uint256, error) {
	s, err := p.GetString()
	if err != nil {
		return util.Uint256{}, err
	}
	return util.Uint256DecodeStringBE(s)
}

// GetUint160FromHex parses p as a "0x"-prefixed script hash string.
func (p Param) GetUint160FromHex() (util.Uint160, error) {
	s, err := p.GetString()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeStringBE(s)
}

// GetUint160FromAddress parses p as a Base58Check address.
func (p Param) GetUint160FromAddress(version byte) (util.Uint160, error) {
	s, err := p.GetString()
	if err != nil {
		return util.Uint160{}, err
	}
	return address.StringToUint160(s, version)
}

// GetUint160FromAddressOrHex accepts either form, trying the address
// encoding first since it's what most RPC clients send for accounts.
func (p Param) GetUint160FromAddressOrHex(version byte) (util.Uint160, error) {
	s, err := p.GetString()
	if err != nil {
		return util.Uint160{}, err
	}
	if u, err := address.StringToUint160(s, version); err == nil {
		return u, nil
	}
	return util.Uint160DecodeStringBE(s)
}

// GetBytesHex parses p as a hex-encoded byte string.
func (p Param) GetBytesHex() ([]byte, error) {
	s, err := p.GetString()
	if err != nil {
		return nil, err
	}
	return hex.DecodeString(s)
}

// GetBytesBase64 parses p as a base64-encoded byte string.
func (p Param) GetBytesBase64() ([]byte, error) {
	s, err := p.GetString()
	if err != nil {
		return nil, err
	}
	return base64.StdEncoding.DecodeString(s)
}

// FuncParam is one invokefunction/invokescript argument: a typed,
// contract-facing value (spec §4.L "invokefunction").
type FuncParam struct {
	Type  smartcontract.ParamType `json:"type"`
	Value Param                   `json:"value"`
}

// GetFuncParam requires p to decode into a FuncParam.
func (p Param) GetFuncParam() (FuncParam, error) {
	var fp FuncParam
	if err := json.Unmarshal(p.RawMessage, &fp); err != nil {
		return fp, fmt.Errorf("request: invalid func parameter: %w", err)
	}
	return fp, nil
}

// SignerWithWitness decodes a transaction.Signer paired with the
// transaction.Witness an invokefunction "signers" entry may carry for
// invocation-time witness checks.
type SignerWithWitness struct {
	transaction.Signer
	transaction.Witness
}

type signerWithWitnessAux struct {
	Account          string   `json:"account"`
	Scopes           string   `json:"scopes"`
	AllowedContracts []string `json:"allowedcontracts,omitempty"`
	AllowedGroups    []string `json:"allowedgroups,omitempty"`
	Invocation       string   `json:"invocation,omitempty"`
	Verification     string   `json:"verification,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler, accepting the same
// account/scopes/witness shape invokefunction's "signers" array uses.
func (s *SignerWithWitness) UnmarshalJSON(data []byte) error {
	var aux signerWithWitnessAux
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	acc, err := util.Uint160DecodeStringBE(aux.Account)
	if err != nil {
		return fmt.Errorf("request: invalid signer account: %w", err)
	}
	s.Signer.Account = acc
	scope, err := parseScopes(aux.Scopes)
	if err != nil {
		return err
	}
	s.Signer.Scopes = scope
	for _, c := range aux.AllowedContracts {
		u, err := util.Uint160DecodeStringBE(c)
		if err != nil {
			return fmt.Errorf("request: invalid allowed contract: %w", err)
		}
		s.Signer.AllowedContracts = append(s.Signer.AllowedContracts, u)
	}
	for _, g := range aux.AllowedGroups {
		b, err := hex.DecodeString(g)
		if err != nil {
			return fmt.Errorf("request: invalid allowed group: %w", err)
		}
		s.Signer.AllowedGroups = append(s.Signer.AllowedGroups, b)
	}
	if aux.Invocation != "" {
		b, err := base64.StdEncoding.DecodeString(aux.Invocation)
		if err != nil {
			return fmt.Errorf("request: invalid invocation script: %w", err)
		}
		s.Witness.InvocationScript = b
	}
	if aux.Verification != "" {
		b, err := base64.StdEncoding.DecodeString(aux.Verification)
		if err != nil {
			return fmt.Errorf("request: invalid verification script: %w", err)
		}
		s.Witness.VerificationScript = b
	}
	return nil
}

func parseScopes(s string) (transaction.WitnessScope, error) {
	if s == "" {
		return transaction.CalledByEntry, nil
	}
	var out transaction.WitnessScope
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			tok := s[start:i]
			start = i + 1
			switch tok {
			case "None":
				out |= transaction.None
			case "CalledByEntry":
				out |= transaction.CalledByEntry
			case "CustomContracts":
				out |= transaction.CustomContracts
			case "CustomGroups":
				out |= transaction.CustomGroups
			case "WitnessRules":
				out |= transaction.WitnessRules
			case "Global":
				out |= transaction.Global
			default:
				return 0, fmt.Errorf("request: unknown witness scope %q", tok)
			}
		}
	}
	return out, nil
}

// GetSignerWithWitness requires p to decode into a SignerWithWitness.
func (p Param) GetSignerWithWitness() (SignerWithWitness, error) {
	var s SignerWithWitness
	if err := json.Unmarshal(p.RawMessage, &s); err != nil {
		return s, err
	}
	return s, nil
}

// GetSignersWithWitnesses requires p to decode into a []SignerWithWitness.
func (p Param) GetSignersWithWitnesses() ([]SignerWithWitness, error) {
	var s []SignerWithWitness
	if err := json.Unmarshal(p.RawMessage, &s); err != nil {
		return nil, err
	}
	return s, nil
}

// ErrMissingParameter is returned by Params.Value when an index is out
// of range.
var ErrMissingParameter = errMissingParameter

// Params is a decoded JSON-RPC positional parameter array.
type Params []Param

// Value returns the i'th parameter, or an error if too few were
// supplied.
func (ps Params) Value(i int) (Param, error) {
	if i < 0 || i >= len(ps) {
		return Param{}, errMissingParameter
	}
	return ps[i], nil
}

// ValueWithDefault returns the i'th parameter, or def (as a Param
// wrapping its JSON encoding) if too few were supplied.
func (ps Params) ValueWithDefault(i int, def Param) Param {
	if v, err := ps.Value(i); err == nil {
		return v
	}
	return def
}
