package solana

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestNewMessage_SingleInstruction(t *testing.T) {
	payer, program := testKey(1), testKey(2)
	blockhash := Hash{3}

	m, err := NewMessage([]Instruction{
		NewInstruction(program, []byte{0x01}, NewAccountMeta(payer, true)),
	}, &payer, blockhash)
	require.NoError(t, err)

	assert.Equal(t, MessageHeader{
		NumRequiredSignatures:       1,
		NumReadonlySignedAccounts:   0,
		NumReadonlyUnsignedAccounts: 1,
	}, m.Header)
	assert.Equal(t, []PublicKey{payer, program}, m.AccountKeys)
	assert.Equal(t, blockhash, m.RecentBlockhash)
	assert.Equal(t, []CompiledInstruction{
		{ProgramIDIndex: 1, Accounts: []byte{0}, Data: []byte{0x01}},
	}, m.Instructions)
	assert.Nil(t, m.AddressTableLookups)

	require.NoError(t, m.Sanitize())
}

func TestNewMessage_InstructionOrder(t *testing.T) {
	payer := testKey(1)
	programA, programB := testKey(20), testKey(10)
	account := testKey(30)

	m, err := NewMessage([]Instruction{
		NewInstruction(programA, []byte{1}, NewAccountMeta(account, false)),
		NewInstruction(programB, []byte{2}),
		NewInstruction(programA, []byte{3}),
	}, &payer, Hash{})
	require.NoError(t, err)

	assert.Equal(t, []PublicKey{payer, account, programB, programA}, m.AccountKeys)
	require.Len(t, m.Instructions, 3)
	assert.Equal(t, []byte{1}, m.Instructions[0].Data)
	assert.Equal(t, []byte{2}, m.Instructions[1].Data)
	assert.Equal(t, []byte{3}, m.Instructions[2].Data)
	assert.Equal(t, []PublicKey{programA, programB, programA}, m.ProgramIDs())
}

func TestMessage_Sanitize(t *testing.T) {
	valid := func() Message {
		return Message{
			Header: MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlySignedAccounts:   0,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys: []PublicKey{testKey(1), testKey(2), testKey(3)},
			Instructions: []CompiledInstruction{
				{ProgramIDIndex: 2, Accounts: []byte{0, 1}},
			},
		}
	}
	require.NoError(t, valid().Sanitize())

	for _, tc := range []struct {
		name   string
		mutate func(m *Message)
	}{
		{
			name: "too many required signatures",
			mutate: func(m *Message) {
				m.Header.NumRequiredSignatures = 3
			},
		},
		{
			name: "too many readonly unsigned",
			mutate: func(m *Message) {
				m.Header.NumReadonlyUnsignedAccounts = 3
			},
		},
		{
			name: "no writable fee payer",
			mutate: func(m *Message) {
				m.Header.NumReadonlySignedAccounts = 1
			},
		},
		{
			name: "no signers",
			mutate: func(m *Message) {
				m.Header.NumRequiredSignatures = 0
			},
		},
		{
			name: "program index out of bounds",
			mutate: func(m *Message) {
				m.Instructions[0].ProgramIDIndex = 3
			},
		},
		{
			name: "program is fee payer",
			mutate: func(m *Message) {
				m.Instructions[0].ProgramIDIndex = 0
			},
		},
		{
			name: "account index out of bounds",
			mutate: func(m *Message) {
				m.Instructions[0].Accounts = []byte{0, 3}
			},
		},
		{
			name: "empty lookup",
			mutate: func(m *Message) {
				m.AddressTableLookups = []MessageAddressTableLookup{{AccountKey: testKey(9)}}
			},
		},
		{
			name: "lookup index out of bounds",
			mutate: func(m *Message) {
				// 3 static keys + 1 loaded key leaves index 3 as the maximum.
				m.AddressTableLookups = []MessageAddressTableLookup{
					{AccountKey: testKey(9), WritableIndexes: []byte{4}},
				}
			},
		},
		{
			name: "readonly lookup index out of bounds",
			mutate: func(m *Message) {
				m.AddressTableLookups = []MessageAddressTableLookup{
					{AccountKey: testKey(9), ReadonlyIndexes: []byte{1, 200}},
				}
			},
		},
		{
			name: "too many loaded keys",
			mutate: func(m *Message) {
				m.AddressTableLookups = []MessageAddressTableLookup{
					{AccountKey: testKey(9), WritableIndexes: make([]byte, 200)},
					{AccountKey: testKey(10), ReadonlyIndexes: make([]byte, 54)},
				}
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			m := valid()
			tc.mutate(&m)
			assert.True(t, errors.Is(m.Sanitize(), ErrSanitize))
		})
	}
}

func TestMessage_SanitizeLookups(t *testing.T) {
	m := Message{
		Header: MessageHeader{
			NumRequiredSignatures: 1,
		},
		AccountKeys: []PublicKey{testKey(1), testKey(2)},
		Instructions: []CompiledInstruction{
			{ProgramIDIndex: 1, Accounts: []byte{0}},
		},
		AddressTableLookups: []MessageAddressTableLookup{
			{AccountKey: testKey(9), WritableIndexes: []byte{0, 2}},
			{AccountKey: testKey(10), ReadonlyIndexes: []byte{3}},
		},
	}
	require.NoError(t, m.Sanitize())

	// Exactly 256 keys in total is allowed.
	m.AddressTableLookups = []MessageAddressTableLookup{
		{AccountKey: testKey(9), WritableIndexes: make([]byte, 200)},
		{AccountKey: testKey(10), ReadonlyIndexes: make([]byte, 54)},
	}
	require.NoError(t, m.Sanitize())
}

func TestMessage_IsWritable(t *testing.T) {
	payer, signer, readonlySigner := testKey(1), testKey(2), testKey(3)
	writable, program := testKey(4), testKey(5)

	m := Message{
		Header: MessageHeader{
			NumRequiredSignatures:       3,
			NumReadonlySignedAccounts:   1,
			NumReadonlyUnsignedAccounts: 1,
		},
		AccountKeys: []PublicKey{payer, signer, readonlySigner, writable, SysvarClockID, SystemProgramID, program},
		Instructions: []CompiledInstruction{
			{ProgramIDIndex: 6, Accounts: []byte{0, 1, 2, 3, 4}},
			{ProgramIDIndex: 5, Accounts: []byte{0, 3}},
		},
	}

	assert.True(t, m.IsWritable(0))
	assert.True(t, m.IsWritable(1))
	assert.False(t, m.IsWritable(2))
	assert.True(t, m.IsWritable(3))

	// Sysvars and builtins are never writable.
	assert.False(t, m.IsWritable(4))
	assert.False(t, m.IsWritable(5))

	// Readonly range.
	assert.False(t, m.IsWritable(6))

	assert.False(t, m.IsWritable(-1))
	assert.False(t, m.IsWritable(7))

	assert.True(t, m.IsSigner(0))
	assert.True(t, m.IsSigner(2))
	assert.False(t, m.IsSigner(3))
}

func TestMessage_DemoteProgramID(t *testing.T) {
	payer, program := testKey(1), testKey(2)

	m := Message{
		Header: MessageHeader{
			NumRequiredSignatures: 1,
		},
		AccountKeys: []PublicKey{payer, program},
		Instructions: []CompiledInstruction{
			{ProgramIDIndex: 1, Accounts: []byte{0}},
		},
	}

	// program is in the writable range, but is invoked.
	assert.True(t, m.DemoteProgramID(1))
	assert.False(t, m.IsWritable(1))
	assert.False(t, m.DemoteProgramID(0))

	// The upgradeable loader lifts the demotion.
	m.AccountKeys = append(m.AccountKeys, BPFLoaderUpgradeableProgramID)
	m.Header.NumReadonlyUnsignedAccounts = 1
	assert.True(t, m.IsUpgradeableLoaderPresent())
	assert.False(t, m.DemoteProgramID(1))
	assert.True(t, m.IsWritable(1))
	assert.False(t, m.IsWritable(2))
}

func TestMessage_ProgramQueries(t *testing.T) {
	payer, account, programA, programB := testKey(1), testKey(2), testKey(3), testKey(4)

	m := Message{
		Header: MessageHeader{
			NumRequiredSignatures:       1,
			NumReadonlyUnsignedAccounts: 2,
		},
		AccountKeys: []PublicKey{payer, account, programA, programB},
		Instructions: []CompiledInstruction{
			{ProgramIDIndex: 2, Accounts: []byte{0, 1}},
			{ProgramIDIndex: 3, Accounts: []byte{2}},
		},
	}

	assert.False(t, m.IsKeyCalledAsProgram(0))
	assert.True(t, m.IsKeyCalledAsProgram(2))
	assert.True(t, m.IsKeyCalledAsProgram(3))
	assert.False(t, m.IsKeyCalledAsProgram(256))
	assert.False(t, m.IsKeyCalledAsProgram(-1))

	assert.True(t, m.IsKeyPassedToProgram(0))
	assert.True(t, m.IsKeyPassedToProgram(2))
	assert.False(t, m.IsKeyPassedToProgram(3))
	assert.False(t, m.IsKeyPassedToProgram(256))

	assert.True(t, m.IsNonLoaderKey(0))
	assert.True(t, m.IsNonLoaderKey(1))
	assert.True(t, m.IsNonLoaderKey(2))
	assert.False(t, m.IsNonLoaderKey(3))

	id, ok := m.ProgramID(1)
	require.True(t, ok)
	assert.Equal(t, programB, id)
	_, ok = m.ProgramID(2)
	assert.False(t, ok)

	index, ok := m.ProgramIndex(0)
	require.True(t, ok)
	assert.Equal(t, 2, index)
	_, ok = m.ProgramIndex(-1)
	assert.False(t, ok)

	assert.Equal(t, []PublicKey{programA, programB}, m.ProgramIDs())

	pos, ok := m.ProgramPosition(3)
	require.True(t, ok)
	assert.Equal(t, 1, pos)
	_, ok = m.ProgramPosition(1)
	assert.False(t, ok)

	assert.True(t, m.MaybeExecutable(2))
	assert.False(t, m.MaybeExecutable(0))

	assert.Equal(t, []PublicKey{payer}, m.SignerKeys())

	accounts, ok := m.InstructionAccounts(0)
	require.True(t, ok)
	assert.Equal(t, []PublicKey{payer, account}, accounts)
	_, ok = m.InstructionAccounts(2)
	assert.False(t, ok)

	m.Instructions[1].Accounts = []byte{9}
	_, ok = m.InstructionAccounts(1)
	assert.False(t, ok)
}

func TestMessage_HasDuplicates(t *testing.T) {
	m := Message{AccountKeys: []PublicKey{testKey(1), testKey(2), testKey(3)}}
	assert.False(t, m.HasDuplicates())

	m.AccountKeys = append(m.AccountKeys, testKey(2))
	assert.True(t, m.HasDuplicates())

	assert.False(t, Message{}.HasDuplicates())
}

func TestHashRawMessage(t *testing.T) {
	payer, program := testKey(1), testKey(2)
	m, err := NewMessage([]Instruction{NewInstruction(program, []byte{1})}, &payer, Hash{7})
	require.NoError(t, err)

	raw := m.Marshal()
	expected := blake3.Sum256(append([]byte("solana-tx-message-v1"), raw...))

	assert.Equal(t, Hash(expected), HashRawMessage(raw))
	assert.Equal(t, Hash(expected), m.Hash())

	m.RecentBlockhash = Hash{8}
	assert.NotEqual(t, Hash(expected), m.Hash())
}

func TestIsBuiltinKeyOrSysvar(t *testing.T) {
	for _, key := range []PublicKey{
		SystemProgramID,
		VoteProgramID,
		BPFLoaderUpgradeableProgramID,
		SysvarClockID,
		SysvarFeesID,
		SysvarRentID,
		SysvarInstructionsID,
	} {
		assert.True(t, IsBuiltinKeyOrSysvar(key), key.String())
	}

	assert.False(t, IsBuiltinKeyOrSysvar(testKey(1)))

	// Shares a first byte with the system program.
	var near PublicKey
	near[31] = 1
	assert.False(t, IsBuiltinKeyOrSysvar(near))
}

func TestMessage_String(t *testing.T) {
	payer, program := testKey(1), testKey(2)
	m, err := NewMessage([]Instruction{NewInstruction(program, []byte{1})}, &payer, Hash{7})
	require.NoError(t, err)

	s := m.String()
	assert.Contains(t, s, payer.String())
	assert.Contains(t, s, program.String())
	assert.Contains(t, s, Hash{7}.String())
}
