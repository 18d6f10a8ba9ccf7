package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/crypto/keys"
	"github.com/n3-core/node/pkg/encoding/address"
	"github.com/n3-core/node/pkg/smartcontract"
	"github.com/n3-core/node/pkg/util"
	"github.com/n3-core/node/pkg/vm/opcode"
)

// Contract is the NEP-6 description of an account's verification
// script: its raw bytes plus the named/typed parameters a caller must
// supply in the invocation script.
type Contract struct {
	Script     ScriptBytes           `json:"script"`
	Parameters []ContractParam       `json:"parameters"`
	Deployed   bool                  `json:"deployed"`
}

// ContractParam names one positional parameter of a verification
// script, e.g. {"name":"signature0","type":"Signature"}.
type ContractParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ScriptBytes round-trips through JSON as a hex string rather than
// base64, matching NEP-6's convention for the "script" field.
type ScriptBytes []byte

// MarshalJSON implements json.Marshaler.
func (s ScriptBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ScriptBytes) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	b, err := hex.DecodeString(str)
	if err != nil {
		return fmt.Errorf("wallet: invalid script hex: %w", err)
	}
	*s = b
	return nil
}

// ScriptHash returns the Hash160 of the verification script.
func (c *Contract) ScriptHash() util.Uint160 {
	return hash.Hash160(c.Script)
}

// Account is one NEP-6 wallet entry: an address, its encrypted (or, for
// watch-only entries, absent) private key and the contract whose
// verification script derives that address.
type Account struct {
	Address      string    `json:"address"`
	Label        string    `json:"label,omitempty"`
	IsDefault    bool      `json:"isdefault"`
	Lock         bool      `json:"lock"`
	EncryptedWIF string    `json:"key,omitempty"`
	Contract     *Contract `json:"contract,omitempty"`
	Extra        any       `json:"extra,omitempty"`

	addressVersion byte
	privateKey     *keys.PrivateKey
}

// NewAccount generates a fresh single-signature account on version's
// address space, with the key left unencrypted in memory until Encrypt
// is called.
func NewAccount(version byte) (*Account, error) {
	priv, err := keys.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	return accountFromPrivateKey(priv, version), nil
}

// NewAccountFromWIF decodes a WIF-encoded key into a new account.
func NewAccountFromWIF(wif string, version byte) (*Account, error) {
	priv, err := keys.NewPrivateKeyFromWIF(wif)
	if err != nil {
		return nil, err
	}
	return accountFromPrivateKey(priv, version), nil
}

// NewAccountFromEncryptedWIF decrypts a NEP2Encrypt-produced string
// before building the account, verifying passphrase in the process.
func NewAccountFromEncryptedWIF(encrypted, passphrase string, version byte) (*Account, error) {
	wif, err := NEP2Decrypt(encrypted, passphrase, version)
	if err != nil {
		return nil, err
	}
	acc, err := NewAccountFromWIF(wif, version)
	if err != nil {
		return nil, err
	}
	acc.EncryptedWIF = encrypted
	return acc, nil
}

func accountFromPrivateKey(priv *keys.PrivateKey, version byte) *Account {
	pub := priv.PublicKey()
	script := keys.SignatureRedeemScript(pub)
	return &Account{
		Address: priv.Address(version),
		Contract: &Contract{
			Script:     script,
			Parameters: []ContractParam{{Name: "signature", Type: "Signature"}},
		},
		addressVersion: version,
		privateKey:     priv,
	}
}

// PrivateKey returns the account's decrypted key, or nil if it has not
// been loaded (watch-only account, or Decrypt not yet called).
func (a *Account) PrivateKey() *keys.PrivateKey { return a.privateKey }

// ScriptHash returns the Uint160 this account signs for.
func (a *Account) ScriptHash() util.Uint160 {
	if a.Contract != nil {
		return a.Contract.ScriptHash()
	}
	return util.Uint160{}
}

// Encrypt replaces EncryptedWIF with passphrase's NEP2Encrypt output and
// drops the in-memory plaintext key, so the account is safe to persist.
func (a *Account) Encrypt(passphrase string) error {
	if a.privateKey == nil {
		return errors.New("wallet: account has no private key to encrypt")
	}
	enc, err := NEP2Encrypt(a.privateKey, passphrase, a.addressVersion)
	if err != nil {
		return err
	}
	a.EncryptedWIF = enc
	a.privateKey = nil
	return nil
}

// Decrypt loads the account's private key from EncryptedWIF using
// passphrase, so PrivateKey() becomes usable for signing.
func (a *Account) Decrypt(passphrase string, version byte) error {
	if a.EncryptedWIF == "" {
		return errors.New("wallet: account has no encrypted key")
	}
	wif, err := NEP2Decrypt(a.EncryptedWIF, passphrase, version)
	if err != nil {
		return err
	}
	priv, err := keys.NewPrivateKeyFromWIF(wif)
	if err != nil {
		return err
	}
	a.privateKey = priv
	a.addressVersion = version
	return nil
}

// SignHashable produces the invocation script for a single-signature
// account over data, ready to attach as the Witness.InvocationScript.
func (a *Account) SignHashable(data []byte) ([]byte, error) {
	if a.privateKey == nil {
		return nil, errors.New("wallet: account is locked")
	}
	sig, err := a.privateKey.Sign(data)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(opcode.PUSHDATA1), byte(len(sig))}, sig...), nil
}

// NewMultiSigAccount builds a watch/sign account for an m-of-n
// committee contract, used for the consensus/committee multi-sig
// address rather than any one validator's own key.
func NewMultiSigAccount(m int, pubs []*keys.PublicKey, version byte) (*Account, error) {
	raw := make([][]byte, len(pubs))
	for i, p := range pubs {
		raw[i] = p.Bytes()
	}
	script, err := smartcontract.CreateMultiSigRedeemScript(m, raw)
	if err != nil {
		return nil, err
	}
	h := hash.Hash160(script)
	params := make([]ContractParam, m)
	for i := range params {
		params[i] = ContractParam{Name: fmt.Sprintf("signature%d", i), Type: "Signature"}
	}
	return &Account{
		Address: address.Uint160ToString(h, version),
		Contract: &Contract{
			Script:     script,
			Parameters: params,
		},
		addressVersion: version,
	}, nil
}
