package smartcontract

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/n3-core/node/pkg/vm/opcode"
)

// MaxMultisigKeys is the largest key set a CheckMultisig verification
// script may reference (spec §4.F).
const MaxMultisigKeys = 1024

// CreateMultiSigRedeemScript builds the standard m-of-n verification
// script `PUSH m || PUSH pk_1 || ... || PUSH pk_n || PUSH n || SYSCALL
// CheckMultisig` (spec §4.F). pubs may come in any order: the keys are
// written sorted ascending by their compressed encoding.
func CreateMultiSigRedeemScript(m int, pubs [][]byte) ([]byte, error) {
	n := len(pubs)
	if m < 1 || m > n || n > MaxMultisigKeys {
		return nil, fmt.Errorf("smartcontract: invalid multisig params m=%d n=%d", m, n)
	}
	sorted := make([][]byte, n)
	copy(sorted, pubs)
	sort.Slice(sorted, func(i, j int) bool {
		return compareBytes(sorted[i], sorted[j]) < 0
	})

	script := make([]byte, 0, n*35+10)
	script = appendPushInt(script, m)
	for _, pub := range sorted {
		if len(pub) != 33 {
			return nil, fmt.Errorf("smartcontract: public key must be 33 bytes, got %d", len(pub))
		}
		script = append(script, byte(opcode.PUSHDATA1), byte(len(pub)))
		script = append(script, pub...)
	}
	script = appendPushInt(script, n)
	script = append(script, byte(opcode.SYSCALL))
	script = append(script, interopID("System.Crypto.CheckMultisig")...)
	return script, nil
}

func compareBytes(a, b []byte) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

// appendPushInt appends the shortest PUSH opcode encoding n (0 <= n <= 16
// uses PUSH0..PUSH16; larger counts use PUSHINT8/16).
func appendPushInt(script []byte, n int) []byte {
	switch {
	case n == 0:
		return append(script, byte(opcode.PUSH0))
	case n >= 1 && n <= 16:
		return append(script, byte(opcode.PUSH1)+byte(n-1))
	case n <= 0x7f:
		return append(script, byte(opcode.PUSHINT8), byte(n))
	default:
		return append(script, byte(opcode.PUSHINT16), byte(n), byte(n>>8))
	}
}

func interopID(name string) []byte {
	sum := sha256.Sum256([]byte(name))
	id := make([]byte, 4)
	binary.LittleEndian.PutUint32(id, binary.LittleEndian.Uint32(sum[:4]))
	return id
}

// ErrInvalidSignatureCount is returned when a CheckMultisig invocation
// script doesn't carry exactly as many signatures as the verification
// script's m.
var ErrInvalidSignatureCount = errors.New("smartcontract: invalid signature count")
