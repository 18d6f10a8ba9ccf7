package transaction_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/n3-core/node/pkg/core/transaction"
	"github.com/n3-core/node/pkg/crypto/hash"
	"github.com/n3-core/node/pkg/io"
	"github.com/n3-core/node/pkg/util"
)

func sampleTransaction() *transaction.Transaction {
	return &transaction.Transaction{
		Version:         0,
		Nonce:           123,
		SystemFee:       10_000_000,
		NetworkFee:      1_000_000,
		ValidUntilBlock: 5000,
		Signers: []transaction.Signer{
			{Account: util.Uint160{1, 2, 3}, Scopes: transaction.CalledByEntry},
		},
		Attributes: []transaction.Attribute{
			{Type: transaction.HighPriorityT},
		},
		Script: []byte{0x0d, 0x0e, 0x6c}, // PUSH1 PUSH2 ADD
		Witnesses: []transaction.Witness{
			{InvocationScript: []byte{0x0c}, VerificationScript: []byte{0x0c}},
		},
	}
}

func TestTransactionRoundTrip(t *testing.T) {
	tx := sampleTransaction()
	w := io.NewBufBinWriter()
	tx.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	var decoded transaction.Transaction
	r := io.NewBinReaderFromBuf(w.Bytes())
	decoded.DecodeBinary(r)
	require.NoError(t, r.Err)

	assert.Equal(t, tx.Hash(), decoded.Hash())
	assert.Equal(t, tx.Nonce, decoded.Nonce)
	assert.Equal(t, tx.SystemFee, decoded.SystemFee)
	assert.Equal(t, tx.Script, decoded.Script)
}

func TestTransactionHashIsDoubleSha256OfUnsignedFields(t *testing.T) {
	tx := sampleTransaction()

	w := io.NewBufBinWriter()
	w.WriteB(tx.Version)
	w.WriteU32LE(tx.Nonce)
	w.WriteI64LE(tx.SystemFee)
	w.WriteI64LE(tx.NetworkFee)
	w.WriteU32LE(tx.ValidUntilBlock)
	io.WriteArray(w.BinWriter, tx.Signers, func(bw *io.BinWriter, s transaction.Signer) { s.EncodeBinary(bw) })
	io.WriteArray(w.BinWriter, tx.Attributes, func(bw *io.BinWriter, a transaction.Attribute) { a.EncodeBinary(bw) })
	w.WriteVarBytes(tx.Script)
	require.NoError(t, w.Err)

	assert.Equal(t, hash.Hash256(w.Bytes()), tx.Hash())
}

func TestTransactionRejectsDuplicateSigners(t *testing.T) {
	tx := sampleTransaction()
	tx.Signers = append(tx.Signers, tx.Signers[0])
	tx.Witnesses = append(tx.Witnesses, tx.Witnesses[0])

	w := io.NewBufBinWriter()
	tx.EncodeBinary(w.BinWriter)
	require.NoError(t, w.Err)

	var decoded transaction.Transaction
	r := io.NewBinReaderFromBuf(w.Bytes())
	decoded.DecodeBinary(r)
	assert.Error(t, r.Err)
}
