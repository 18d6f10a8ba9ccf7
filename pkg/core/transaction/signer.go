package transaction

import (
	"errors"
	"fmt"

	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

// WitnessScope restricts the contexts in which a Signer's witness is
// considered to authorise an action (spec §3.1 "Signer").
type WitnessScope byte

// Scopes. Multiple bits may be combined except Global, which must be
// exclusive.
const (
	None             WitnessScope = 0
	CalledByEntry    WitnessScope = 0x01
	CustomContracts  WitnessScope = 0x10
	CustomGroups     WitnessScope = 0x20
	WitnessRules     WitnessScope = 0x40
	Global           WitnessScope = 0x80
)

// String implements fmt.Stringer.
func (s WitnessScope) String() string {
	if s == None {
		return "None"
	}
	if s == Global {
		return "Global"
	}
	var parts []string
	if s&CalledByEntry != 0 {
		parts = append(parts, "CalledByEntry")
	}
	if s&CustomContracts != 0 {
		parts = append(parts, "CustomContracts")
	}
	if s&CustomGroups != 0 {
		parts = append(parts, "CustomGroups")
	}
	if s&WitnessRules != 0 {
		parts = append(parts, "WitnessRules")
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}

// Has reports whether s includes every bit of want.
func (s WitnessScope) Has(want WitnessScope) bool { return s&want == want }

// Signer binds an account to the scope its witness authorises within a
// transaction (spec §3.1 "Signer").
type Signer struct {
	Account          util.Uint160
	Scopes           WitnessScope
	AllowedContracts []util.Uint160
	AllowedGroups    [][]byte // compressed public keys
	Rules            []WitnessRule
}

// MaxAllowedSubitems bounds AllowedContracts/AllowedGroups/Rules length.
const MaxAllowedSubitems = 16

// WitnessRule is a boolean expression guarding when WitnessRules scope
// grants authorisation; the condition tree is kept opaque (an encoded
// VM-evaluable predicate) rather than modelled exhaustively here.
type WitnessRule struct {
	Action    WitnessRuleAction
	Condition []byte // encoded condition expression
}

// WitnessRuleAction is the effect a matching WitnessRule has.
type WitnessRuleAction byte

// Actions.
const (
	WitnessRuleDeny  WitnessRuleAction = 0
	WitnessRuleAllow WitnessRuleAction = 1
)

// EncodeBinary implements io.Serializable.
func (s *Signer) EncodeBinary(w *io.BinWriter) {
	w.WriteBytes(s.Account[:])
	w.WriteB(byte(s.Scopes))
	if s.Scopes&CustomContracts != 0 {
		io.WriteArray(w, s.AllowedContracts, func(w *io.BinWriter, u util.Uint160) {
			w.WriteBytes(u[:])
		})
	}
	if s.Scopes&CustomGroups != 0 {
		io.WriteArray(w, s.AllowedGroups, func(w *io.BinWriter, g []byte) {
			w.WriteVarBytes(g)
		})
	}
	if s.Scopes&WitnessRules != 0 {
		io.WriteArray(w, s.Rules, func(w *io.BinWriter, r WitnessRule) {
			w.WriteB(byte(r.Action))
			w.WriteVarBytes(r.Condition)
		})
	}
}

// DecodeBinary implements io.Serializable.
func (s *Signer) DecodeBinary(r *io.BinReader) {
	r.ReadBytes(s.Account[:])
	s.Scopes = WitnessScope(r.ReadB())
	if r.Err == nil && s.Scopes&Global != 0 && s.Scopes != Global {
		r.Err = errors.New("transaction: Global scope must not be combined with other scopes")
		return
	}
	if s.Scopes&CustomContracts != 0 {
		s.AllowedContracts = io.ReadArray(r, func(r *io.BinReader) util.Uint160 {
			var u util.Uint160
			r.ReadBytes(u[:])
			return u
		}, MaxAllowedSubitems)
	}
	if s.Scopes&CustomGroups != 0 {
		s.AllowedGroups = io.ReadArray(r, func(r *io.BinReader) []byte {
			return r.ReadVarBytes(33)
		}, MaxAllowedSubitems)
	}
	if s.Scopes&WitnessRules != 0 {
		s.Rules = io.ReadArray(r, func(r *io.BinReader) WitnessRule {
			var rule WitnessRule
			rule.Action = WitnessRuleAction(r.ReadB())
			rule.Condition = r.ReadVarBytes()
			return rule
		}, MaxAllowedSubitems)
	}
	if r.Err == nil {
		if len(s.AllowedContracts) > MaxAllowedSubitems || len(s.AllowedGroups) > MaxAllowedSubitems || len(s.Rules) > MaxAllowedSubitems {
			r.Err = fmt.Errorf("transaction: signer subitems exceed %d", MaxAllowedSubitems)
		}
	}
}
