package solana

import (
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddressLookupTable_Lookup(t *testing.T) {
	table := AddressLookupTable{
		PublicKey: testKey(50),
		Addresses: []PublicKey{testKey(1), testKey(2), testKey(3), testKey(4)},
	}

	lookup, err := table.Lookup([]PublicKey{testKey(3)}, []PublicKey{testKey(4), testKey(1)})
	require.NoError(t, err)
	assert.Equal(t, testKey(50), lookup.AccountKey)
	assert.Equal(t, []byte{2}, lookup.WritableIndexes)
	assert.Equal(t, []byte{3, 0}, lookup.ReadonlyIndexes)

	lookup, err = table.Lookup(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, lookup.WritableIndexes)
	assert.Empty(t, lookup.ReadonlyIndexes)

	_, err = table.Lookup([]PublicKey{testKey(9)}, nil)
	assert.True(t, errors.Is(err, ErrKeyNotFound))
}

func TestAddressLookupTable_LookupRoundTrip(t *testing.T) {
	payer := testKey(1)
	table := AddressLookupTable{
		PublicKey: testKey(50),
		Addresses: []PublicKey{testKey(20), testKey(21), testKey(22)},
	}

	m, err := NewMessage([]Instruction{NewInstruction(testKey(10), []byte{1})}, &payer, Hash{1})
	require.NoError(t, err)

	lookup, err := table.Lookup([]PublicKey{testKey(22)}, []PublicKey{testKey(20)})
	require.NoError(t, err)
	m.AddressTableLookups = []MessageAddressTableLookup{lookup}
	require.NoError(t, m.Sanitize())

	var decoded Message
	require.NoError(t, decoded.Unmarshal(m.Marshal()))
	assert.Equal(t, m, decoded)
}

func TestSortableAddressLookupTables(t *testing.T) {
	tables := []AddressLookupTable{
		{PublicKey: testKey(3)},
		{PublicKey: testKey(1)},
		{PublicKey: testKey(2)},
	}

	sort.Sort(SortableAddressLookupTables(tables))
	assert.Equal(t, testKey(1), tables[0].PublicKey)
	assert.Equal(t, testKey(2), tables[1].PublicKey)
	assert.Equal(t, testKey(3), tables[2].PublicKey)
}
