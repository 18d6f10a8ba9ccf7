// Package wallet implements NEP-6 JSON wallets: NEP-2 encrypted
// accounts, single- and multi-signature contracts, and the signing
// operations the consensus service and CLI need (spec §6.5 "Wallet").
package wallet

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/n3-core/node/pkg/util"
)

// ScryptParams are the NEP-6 "scrypt" document fields; a wallet file can
// in principle carry non-default cost parameters, though this node only
// ever produces the NEP-2 defaults.
type ScryptParams struct {
	N int `json:"n"`
	R int `json:"r"`
	P int `json:"p"`
}

// DefaultScryptParams mirrors the constants NEP2Encrypt/NEP2Decrypt use.
var DefaultScryptParams = ScryptParams{N: nep2ScryptN, R: nep2ScryptR, P: nep2ScryptP}

// Wallet is a NEP-6 JSON document: a versioned list of accounts plus
// the scrypt cost parameters they were encrypted with.
type Wallet struct {
	Version string     `json:"version"`
	Accounts []*Account `json:"accounts"`
	Scrypt   ScryptParams `json:"scrypt"`
	Extra    any        `json:"extra,omitempty"`

	path           string
	addressVersion byte
}

const nep6Version = "1.0"

// NewWallet creates an empty wallet bound to version (the network's
// ProtocolConfiguration.AddressVersion).
func NewWallet(path string, version byte) *Wallet {
	return &Wallet{
		Version:        nep6Version,
		Scrypt:         DefaultScryptParams,
		path:           path,
		addressVersion: version,
	}
}

// LoadFile reads and parses a NEP-6 wallet file. Accounts remain
// encrypted (or, for watch-only entries, keyless) until AccountByAddress
// and Decrypt are used.
func LoadFile(path string, version byte) (*Wallet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wallet: read %s: %w", path, err)
	}
	w := new(Wallet)
	if err := json.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("wallet: parse %s: %w", path, err)
	}
	w.path = path
	w.addressVersion = version
	for _, acc := range w.Accounts {
		acc.addressVersion = version
	}
	return w, nil
}

// Save writes the wallet back to its backing file as indented JSON.
func (w *Wallet) Save() error {
	if w.path == "" {
		return errors.New("wallet: no backing file path")
	}
	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(w.path, data, 0600)
}

// AddAccount appends acc, replacing the default flag of any existing
// account if acc.IsDefault is set.
func (w *Wallet) AddAccount(acc *Account) {
	if acc.IsDefault {
		for _, a := range w.Accounts {
			a.IsDefault = false
		}
	}
	w.Accounts = append(w.Accounts, acc)
}

// RemoveAccount deletes the account matching address, if any.
func (w *Wallet) RemoveAccount(address string) bool {
	for i, a := range w.Accounts {
		if a.Address == address {
			w.Accounts = append(w.Accounts[:i], w.Accounts[i+1:]...)
			return true
		}
	}
	return false
}

// AccountByAddress looks up an account by its Base58Check address.
func (w *Wallet) AccountByAddress(address string) *Account {
	for _, a := range w.Accounts {
		if a.Address == address {
			return a
		}
	}
	return nil
}

// AccountByScriptHash looks up an account by the Uint160 its contract
// hashes to, the form signers/witnesses carry on the wire.
func (w *Wallet) AccountByScriptHash(h util.Uint160) *Account {
	for _, a := range w.Accounts {
		if a.Contract != nil && a.Contract.ScriptHash().Equals(h) {
			return a
		}
	}
	return nil
}

// DefaultAccount returns the account marked IsDefault, or the first
// account if none is marked, or nil for an empty wallet.
func (w *Wallet) DefaultAccount() *Account {
	for _, a := range w.Accounts {
		if a.IsDefault {
			return a
		}
	}
	if len(w.Accounts) > 0 {
		return w.Accounts[0]
	}
	return nil
}

// DecryptAll decrypts every encrypted account with passphrase, stopping
// at the first failure; used at node startup to unlock the consensus
// signing key.
func (w *Wallet) DecryptAll(passphrase string) error {
	for _, a := range w.Accounts {
		if a.EncryptedWIF == "" {
			continue
		}
		if err := a.Decrypt(passphrase, w.addressVersion); err != nil {
			return fmt.Errorf("wallet: account %s: %w", a.Address, err)
		}
	}
	return nil
}
