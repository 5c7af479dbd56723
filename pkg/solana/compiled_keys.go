package solana

import (
	"math"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/pkg/errors"
)

// CompiledKeyMeta is the merged privilege state of a single key across every
// instruction of a message.
type CompiledKeyMeta struct {
	IsSigner   bool
	IsWritable bool
	IsInvoked  bool
}

// CompiledKeys is the deduplicated set of keys referenced by a list of
// instructions, along with an optional fee payer.
//
// Keys are held in byte-lexicographic order, which fixes the order keys
// appear in within each privilege partition of the compiled message.
type CompiledKeys struct {
	payer   *PublicKey
	keyMeta *treemap.Map
}

func publicKeyComparator(a, b interface{}) int {
	return a.(PublicKey).Compare(b.(PublicKey))
}

// CompileKeys merges the account references of instructions. If payer is
// provided, it is always a writable signer.
func CompileKeys(instructions []Instruction, payer *PublicKey) *CompiledKeys {
	keyMeta := treemap.NewWith(publicKeyComparator)

	lookup := func(key PublicKey) CompiledKeyMeta {
		if v, ok := keyMeta.Get(key); ok {
			return v.(CompiledKeyMeta)
		}
		return CompiledKeyMeta{}
	}

	for _, ix := range instructions {
		meta := lookup(ix.Program)
		meta.IsInvoked = true
		keyMeta.Put(ix.Program, meta)

		for _, account := range ix.Accounts {
			meta := lookup(account.PublicKey)
			meta.IsSigner = meta.IsSigner || account.IsSigner
			meta.IsWritable = meta.IsWritable || account.IsWritable
			keyMeta.Put(account.PublicKey, meta)
		}
	}

	ck := &CompiledKeys{keyMeta: keyMeta}
	if payer != nil {
		p := *payer
		ck.payer = &p

		meta := lookup(p)
		meta.IsSigner = true
		meta.IsWritable = true
		keyMeta.Put(p, meta)
	}

	return ck
}

// Meta returns the merged meta for key.
func (c *CompiledKeys) Meta(key PublicKey) (CompiledKeyMeta, bool) {
	v, ok := c.keyMeta.Get(key)
	if !ok {
		return CompiledKeyMeta{}, false
	}
	return v.(CompiledKeyMeta), true
}

// Len returns the number of distinct keys, including the payer.
func (c *CompiledKeys) Len() int {
	return c.keyMeta.Size()
}

// TryIntoMessageComponents partitions the compiled keys into the message
// header and static account key order:
//
//	[writable signers][readonly signers][writable non-signers][readonly non-signers]
//
// with the payer, if any, first. The compiled keys are consumed by this call.
func (c *CompiledKeys) TryIntoMessageComponents() (MessageHeader, []PublicKey, error) {
	defer c.keyMeta.Clear()

	var writableSigners, readonlySigners, writableNonSigners, readonlyNonSigners []PublicKey
	if c.payer != nil {
		c.keyMeta.Remove(*c.payer)
		writableSigners = append(writableSigners, *c.payer)
	}

	it := c.keyMeta.Iterator()
	for it.Next() {
		key := it.Key().(PublicKey)
		meta := it.Value().(CompiledKeyMeta)

		switch {
		case meta.IsSigner && meta.IsWritable:
			writableSigners = append(writableSigners, key)
		case meta.IsSigner:
			readonlySigners = append(readonlySigners, key)
		case meta.IsWritable:
			writableNonSigners = append(writableNonSigners, key)
		default:
			readonlyNonSigners = append(readonlyNonSigners, key)
		}
	}

	signersLen := len(writableSigners) + len(readonlySigners)
	if signersLen > math.MaxUint8 {
		return MessageHeader{}, nil, errors.Wrapf(ErrAccountIndexOverflow, "%d signers", signersLen)
	}
	if len(readonlySigners) > math.MaxUint8 {
		return MessageHeader{}, nil, errors.Wrapf(ErrAccountIndexOverflow, "%d readonly signers", len(readonlySigners))
	}
	if len(readonlyNonSigners) > math.MaxUint8 {
		return MessageHeader{}, nil, errors.Wrapf(ErrAccountIndexOverflow, "%d readonly non-signers", len(readonlyNonSigners))
	}

	header := MessageHeader{
		NumRequiredSignatures:       byte(signersLen),
		NumReadonlySignedAccounts:   byte(len(readonlySigners)),
		NumReadonlyUnsignedAccounts: byte(len(readonlyNonSigners)),
	}

	keys := make([]PublicKey, 0, signersLen+len(writableNonSigners)+len(readonlyNonSigners))
	keys = append(keys, writableSigners...)
	keys = append(keys, readonlySigners...)
	keys = append(keys, writableNonSigners...)
	keys = append(keys, readonlyNonSigners...)

	return header, keys, nil
}

func errorKeyNotFound(key PublicKey) error {
	return errors.Wrapf(ErrKeyNotFound, "%s", key)
}
