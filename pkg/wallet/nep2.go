package wallet

import (
	"crypto/aes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/scrypt"

	"github.com/n3-core/node/pkg/crypto/keys"
)

// NEP-2 constants (NEP-2 "Passphrase-protected private key").
const (
	nep2ScryptN      = 16384
	nep2ScryptR      = 8
	nep2ScryptP      = 8
	nep2ScryptKeyLen = 64

	nep2Prefix1 = 0x01
	nep2Prefix2 = 0x42
	nep2Flag    = 0xe0
)

// ErrInvalidPassphrase is returned by NEP2Decrypt when the address-hash
// checksum embedded in the encrypted key doesn't match, meaning either
// the passphrase or the encrypted string itself is wrong.
var ErrInvalidPassphrase = errors.New("wallet: invalid passphrase or corrupted key")

// NEP2Encrypt encrypts priv under passphrase, scoped to addressVersion,
// returning the Base58Check NEP-2 string.
func NEP2Encrypt(priv *keys.PrivateKey, passphrase string, addressVersion byte) (string, error) {
	address := priv.Address(addressVersion)
	addrHash := addressChecksum(address)

	derived, err := scrypt.Key([]byte(passphrase), addrHash, nep2ScryptN, nep2ScryptR, nep2ScryptP, nep2ScryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("wallet: scrypt: %w", err)
	}
	derived1, derived2 := derived[:32], derived[32:]

	privBytes := priv.Bytes()
	xored := make([]byte, 32)
	for i := range xored {
		xored[i] = privBytes[i] ^ derived1[i]
	}

	encrypted, err := aesECBEncrypt(xored, derived2)
	if err != nil {
		return "", err
	}

	buf := make([]byte, 0, 39)
	buf = append(buf, nep2Prefix1, nep2Prefix2, nep2Flag)
	buf = append(buf, addrHash...)
	buf = append(buf, encrypted...)
	return base58.Encode(append(buf, checksum4(buf)...)), nil
}

// NEP2Decrypt recovers priv's WIF from a NEP2Encrypt-produced string.
func NEP2Decrypt(encrypted, passphrase string, addressVersion byte) (string, error) {
	b, err := base58.Decode(encrypted)
	if err != nil || len(b) != 43 {
		return "", fmt.Errorf("wallet: malformed NEP-2 key: %w", err)
	}
	payload, sum := b[:39], b[39:]
	if !bytesEqual4(checksum4(payload), sum) {
		return "", fmt.Errorf("wallet: NEP-2 checksum mismatch")
	}
	if payload[0] != nep2Prefix1 || payload[1] != nep2Prefix2 || payload[2] != nep2Flag {
		return "", fmt.Errorf("wallet: unrecognized NEP-2 header")
	}
	addrHash := payload[3:7]
	encrypted32 := payload[7:39]

	derived, err := scrypt.Key([]byte(passphrase), addrHash, nep2ScryptN, nep2ScryptR, nep2ScryptP, nep2ScryptKeyLen)
	if err != nil {
		return "", fmt.Errorf("wallet: scrypt: %w", err)
	}
	derived1, derived2 := derived[:32], derived[32:]

	xored, err := aesECBDecrypt(encrypted32, derived2)
	if err != nil {
		return "", err
	}
	privBytes := make([]byte, 32)
	for i := range privBytes {
		privBytes[i] = xored[i] ^ derived1[i]
	}

	priv, err := keys.NewPrivateKeyFromBytes(privBytes)
	if err != nil {
		return "", err
	}
	if !bytesEqual4(addressChecksum(priv.Address(addressVersion)), addrHash) {
		return "", ErrInvalidPassphrase
	}
	return priv.WIF(), nil
}

// addressChecksum is the first 4 bytes of sha256(sha256(address)),
// NEP-2's binding of the encrypted key to one specific address.
func addressChecksum(address string) []byte {
	return checksum4([]byte(address))
}

func checksum4(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:4]
}

func bytesEqual4(a, b []byte) bool {
	if len(a) != 4 || len(b) != 4 {
		return false
	}
	return a[0] == b[0] && a[1] == b[1] && a[2] == b[2] && a[3] == b[3]
}

// aesECBEncrypt encrypts exactly two 16-byte blocks under key with raw
// AES-256-ECB, the cipher mode NEP-2 mandates (no chaining, no padding:
// the plaintext is always exactly 32 bytes).
func aesECBEncrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(plaintext))
	bs := block.BlockSize()
	for i := 0; i < len(plaintext); i += bs {
		block.Encrypt(out[i:i+bs], plaintext[i:i+bs])
	}
	return out, nil
}

func aesECBDecrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(ciphertext))
	bs := block.BlockSize()
	for i := 0; i < len(ciphertext); i += bs {
		block.Decrypt(out[i:i+bs], ciphertext[i:i+bs])
	}
	return out, nil
}
