package address_lookup_table

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	solbinary "github.com/code-payments/code-solana-sdk/pkg/solana/binary"
	"github.com/code-payments/code-solana-sdk/pkg/solana/system"
)

// Reference: https://github.com/solana-program/address-lookup-table/blob/main/program/src/instruction.rs

// AddressLookupTab1e1111111111111111111111111
var ProgramKey = solana.PublicKey{2, 119, 166, 175, 151, 51, 155, 122, 200, 141, 24, 146, 201, 4, 70, 245, 0, 2, 48, 146, 102, 246, 46, 83, 193, 24, 36, 73, 130, 0, 0, 0}

const (
	commandCreateLookupTable uint32 = iota
	commandFreezeLookupTable
	commandExtendLookupTable
	commandDeactivateLookupTable
	commandCloseLookupTable
)

// Create returns an instruction creating the table at alt, which must be the
// address derived by GetAddress for the same authority, slot and bump.
func Create(alt, authority, payer solana.PublicKey, recentSlot uint64, bumpSeed uint8) solana.Instruction {
	data := make([]byte, 4+8+1)

	var offset int
	solbinary.PutUint32(data[offset:], commandCreateLookupTable, &offset)
	solbinary.PutUint64(data[offset:], recentSlot, &offset)
	solbinary.PutUint8(data[offset:], bumpSeed, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(alt, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(payer, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey, false),
	)
}

func Freeze(alt, authority solana.PublicKey) solana.Instruction {
	return authorityInstruction(commandFreezeLookupTable, alt, authority)
}

func Extend(alt, authority, payer solana.PublicKey, addresses ...solana.PublicKey) solana.Instruction {
	data := make([]byte, 4+8+len(addresses)*solana.PublicKeySize)

	var offset int
	solbinary.PutUint32(data[offset:], commandExtendLookupTable, &offset)
	solbinary.PutUint64(data[offset:], uint64(len(addresses)), &offset)
	for _, address := range addresses {
		solbinary.PutKey32(data[offset:], address, &offset)
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(alt, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(payer, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey, false),
	)
}

func Deactivate(alt, authority solana.PublicKey) solana.Instruction {
	return authorityInstruction(commandDeactivateLookupTable, alt, authority)
}

// Close returns an instruction closing a deactivated table and sending its
// lamports to recipient.
func Close(alt, authority, recipient solana.PublicKey) solana.Instruction {
	ixn := authorityInstruction(commandCloseLookupTable, alt, authority)
	ixn.Accounts = append(ixn.Accounts, solana.NewAccountMeta(recipient, false))
	return ixn
}

func authorityInstruction(command uint32, alt, authority solana.PublicKey) solana.Instruction {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, command)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(alt, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledExtend struct {
	Table     solana.PublicKey
	Authority solana.PublicKey
	Payer     solana.PublicKey
	Addresses []solana.PublicKey
}

func DecompileExtend(m solana.Message, index int) (*DecompiledExtend, error) {
	if index < 0 || index >= len(m.Instructions) {
		return nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	if program, ok := m.ProgramID(index); !ok || program != ProgramKey {
		return nil, solana.ErrIncorrectProgram
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], commandExtendLookupTable)

	i := m.Instructions[index]
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return nil, solana.ErrIncorrectInstruction
	}

	accounts, ok := m.InstructionAccounts(index)
	if !ok {
		return nil, errors.Errorf("invalid account index in instruction %d", index)
	}
	if len(accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(accounts))
	}
	if len(i.Data) < 4+8 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	var count uint64
	offset := 4
	solbinary.GetUint64(i.Data[offset:], &count, &offset)
	if count > maxAddresses || uint64(len(i.Data)) != 4+8+count*solana.PublicKeySize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledExtend{
		Table:     accounts[0],
		Authority: accounts[1],
		Payer:     accounts[2],
		Addresses: make([]solana.PublicKey, count),
	}
	for j := range v.Addresses {
		solbinary.GetKey32(i.Data[offset:], &v.Addresses[j], &offset)
	}

	return v, nil
}
