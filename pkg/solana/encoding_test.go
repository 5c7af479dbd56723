package solana

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_MarshalLayout(t *testing.T) {
	payer, program := testKey(1), testKey(2)
	blockhash := Hash{3}

	m, err := NewMessage([]Instruction{
		NewInstruction(program, []byte{0x01}, NewAccountMeta(payer, true)),
	}, &payer, blockhash)
	require.NoError(t, err)

	var expected []byte
	expected = append(expected, 0x80)    // version 0
	expected = append(expected, 1, 0, 1) // header
	expected = append(expected, 2)       // account count
	expected = append(expected, payer[:]...)
	expected = append(expected, program[:]...)
	expected = append(expected, blockhash[:]...)
	expected = append(expected, 1)       // instruction count
	expected = append(expected, 1)       // program index
	expected = append(expected, 1, 0)    // accounts
	expected = append(expected, 1, 0x01) // data
	expected = append(expected, 0)       // lookup count

	assert.Equal(t, expected, m.Marshal())
}

func TestMessage_MarshalRoundTrip(t *testing.T) {
	payer := testKey(1)

	ixs := []Instruction{
		NewInstruction(testKey(10), bytes.Repeat([]byte{0xab}, 200), NewAccountMeta(testKey(2), false), NewReadonlyAccountMeta(testKey(3), true)),
		NewInstruction(testKey(11), nil),
		NewInstruction(testKey(10), []byte{1, 2}, NewAccountMeta(payer, true)),
	}

	m, err := NewMessage(ixs, &payer, Hash{1, 2, 3})
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, decoded.Unmarshal(m.Marshal()))
	assert.Equal(t, m, decoded)
	require.NoError(t, decoded.Sanitize())

	// Lookups survive the round trip.
	m.AddressTableLookups = []MessageAddressTableLookup{
		{AccountKey: testKey(20), WritableIndexes: []byte{0, 1}, ReadonlyIndexes: []byte{}},
		{AccountKey: testKey(21), WritableIndexes: []byte{}, ReadonlyIndexes: []byte{5}},
	}
	require.NoError(t, decoded.Unmarshal(m.Marshal()))
	assert.Equal(t, m, decoded)
}

func TestMessage_UnmarshalErrors(t *testing.T) {
	payer := testKey(1)
	m, err := NewMessage([]Instruction{
		NewInstruction(testKey(2), []byte{1, 2, 3}, NewAccountMeta(testKey(3), false)),
	}, &payer, Hash{9})
	require.NoError(t, err)
	m.AddressTableLookups = []MessageAddressTableLookup{
		{AccountKey: testKey(4), WritableIndexes: []byte{1}, ReadonlyIndexes: []byte{2}},
	}

	raw := m.Marshal()

	// Every truncation fails.
	for i := 0; i < len(raw); i++ {
		var decoded Message
		err := decoded.Unmarshal(raw[:i])
		assert.True(t, errors.Is(err, ErrDeserialization), "truncated at %d", i)
	}

	var decoded Message

	// Trailing bytes.
	err = decoded.Unmarshal(append(append([]byte{}, raw...), 0))
	assert.True(t, errors.Is(err, ErrDeserialization))

	// Legacy message.
	legacy := append([]byte{}, raw[1:]...)
	err = decoded.Unmarshal(legacy)
	assert.True(t, errors.Is(err, ErrDeserialization))

	// Unsupported version.
	v1 := append([]byte{}, raw...)
	v1[0] = 0x81
	err = decoded.Unmarshal(v1)
	assert.True(t, errors.Is(err, ErrDeserialization))

	// Account count larger than the payload.
	huge := append([]byte{}, raw[:4]...)
	huge = append(huge, 0xff, 0xff, 0x03)
	err = decoded.Unmarshal(huge)
	assert.True(t, errors.Is(err, ErrDeserialization))

	// Failed decodes leave the destination untouched.
	assert.Equal(t, Message{}, decoded)
}

func TestTransaction_MarshalRoundTrip(t *testing.T) {
	payer := newTestKeypair(t, 1)
	other := newTestKeypair(t, 2)

	tx, err := NewTransaction(
		payer.PublicKey(),
		Hash{5},
		NewInstruction(testKey(10), []byte{1}, NewAccountMeta(other.PublicKey(), true)),
	)
	require.NoError(t, err)
	require.NoError(t, tx.TrySign([]Signer{payer, other}, Hash{5}))

	raw := tx.Marshal()
	assert.EqualValues(t, 2, raw[0])
	assert.Equal(t, tx.Signatures[0][:], raw[1:1+SignatureSize])
	assert.Equal(t, tx.Message.Marshal(), raw[1+2*SignatureSize:])
	assert.True(t, len(raw) <= MaxTransactionSize)

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(raw))
	assert.Equal(t, tx, decoded)
	require.NoError(t, decoded.Verify())
}

func TestTransaction_UnmarshalErrors(t *testing.T) {
	payer := newTestKeypair(t, 1)

	tx, err := NewTransaction(payer.PublicKey(), Hash{5}, NewInstruction(testKey(10), []byte{1}))
	require.NoError(t, err)
	require.NoError(t, tx.TrySign([]Signer{payer}, Hash{5}))

	raw := tx.Marshal()
	for i := 0; i < len(raw); i++ {
		var decoded Transaction
		err := decoded.Unmarshal(raw[:i])
		assert.True(t, errors.Is(err, ErrDeserialization), "truncated at %d", i)
	}

	var decoded Transaction
	err = decoded.Unmarshal(append(append([]byte{}, raw...), 1, 2, 3))
	assert.True(t, errors.Is(err, ErrDeserialization))

	// Signature count larger than the payload.
	err = decoded.Unmarshal([]byte{0xff, 0x01, 0x00})
	assert.True(t, errors.Is(err, ErrDeserialization))
}

func TestTransaction_UnmarshalUnsigned(t *testing.T) {
	payer := testKey(1)

	tx, err := NewTransaction(payer, Hash{5}, NewInstruction(testKey(10), nil))
	require.NoError(t, err)
	assert.False(t, tx.IsSigned())

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx, decoded)
	assert.True(t, decoded.Signatures[0].IsZero())
}
