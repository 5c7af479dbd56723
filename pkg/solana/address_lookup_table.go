package solana

import (
	"github.com/pkg/errors"
)

// AddressLookupTable is a client side copy of an on-chain address lookup
// table.
type AddressLookupTable struct {
	PublicKey PublicKey
	Addresses []PublicKey
}

// Lookup returns the lookup that loads writable and readonly from the table.
// Every key must be present in the table.
func (t AddressLookupTable) Lookup(writable, readonly []PublicKey) (MessageAddressTableLookup, error) {
	writableIndexes, err := t.indexesOf(writable)
	if err != nil {
		return MessageAddressTableLookup{}, err
	}

	readonlyIndexes, err := t.indexesOf(readonly)
	if err != nil {
		return MessageAddressTableLookup{}, err
	}

	return MessageAddressTableLookup{
		AccountKey:      t.PublicKey,
		WritableIndexes: writableIndexes,
		ReadonlyIndexes: readonlyIndexes,
	}, nil
}

func (t AddressLookupTable) indexesOf(keys []PublicKey) ([]byte, error) {
	indexes := make([]byte, 0, len(keys))
	for _, key := range keys {
		i, ok := position(t.Addresses, key)
		if !ok {
			return nil, errors.Wrapf(ErrKeyNotFound, "%s not in table %s", key, t.PublicKey)
		}
		if i > 255 {
			return nil, errors.Wrapf(ErrAccountIndexOverflow, "%s at index %d in table %s", key, i, t.PublicKey)
		}
		indexes = append(indexes, byte(i))
	}
	return indexes, nil
}

type SortableAddressLookupTables []AddressLookupTable

func (s SortableAddressLookupTables) Len() int {
	return len(s)
}

func (s SortableAddressLookupTables) Less(i int, j int) bool {
	return s[i].PublicKey.Compare(s[j].PublicKey) < 0
}

func (s SortableAddressLookupTables) Swap(i int, j int) {
	s[i], s[j] = s[j], s[i]
}
