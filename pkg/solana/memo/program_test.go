package memo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "Memo1UhkJRfHyvLMcVucJwxXeuD728EqVDDwQDxFMNo", ProgramKey.String())
}

func TestInstruction(t *testing.T) {
	i := Instruction("hello, world!")
	assert.Equal(t, ProgramKey, i.Program)
	assert.Empty(t, i.Accounts)
	assert.Equal(t, "hello, world!", string(i.Data))
}

func TestDecompile(t *testing.T) {
	payer := solana.PublicKey{1}

	tx, err := solana.NewTransaction(payer, solana.Hash{}, Instruction("hello, world"))
	require.NoError(t, err)

	var decoded solana.Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))

	i, err := DecompileMemo(decoded.Message, 0)
	assert.NoError(t, err)
	assert.Equal(t, "hello, world", string(i.Data))
	assert.Empty(t, i.Signers)

	_, err = DecompileMemo(decoded.Message, 1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "instruction doesn't exist")

	decoded.Message.AccountKeys[1] = solana.PublicKey{2}
	_, err = DecompileMemo(decoded.Message, 0)
	assert.Error(t, err)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestDecompile_Signers(t *testing.T) {
	payer, cosigner := solana.PublicKey{1}, solana.PublicKey{2}

	tx, err := solana.NewTransaction(payer, solana.Hash{}, Instruction("signed", payer, cosigner))
	require.NoError(t, err)
	assert.EqualValues(t, 2, tx.Message.Header.NumRequiredSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlySignedAccounts)

	i, err := DecompileMemo(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{payer, cosigner}, i.Signers)
}
