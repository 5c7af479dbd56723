package system

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// ProgramKey is the address of the system program.
var ProgramKey = solana.SystemProgramID

const (
	commandCreateAccount uint32 = iota
	commandAssign
	commandTransfer
	// nolint:varcheck,deadcode,unused
	commandCreateAccountWithSeed
	// nolint:varcheck,deadcode,unused
	commandAdvanceNonceAccount
	// nolint:varcheck,deadcode,unused
	commandWithdrawNonceAccount
	// nolint:varcheck,deadcode,unused
	commandInitializeNonceAccount
	// nolint:varcheck,deadcode,unused
	commandAuthorizeNonceAccount
	commandAllocate
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner solana.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   //Address of program that will own the new account
	//   owner: Pubkey,
	// }
	//
	data := make([]byte, 4+2*8+32)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner[:])

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  solana.PublicKey
	Address solana.PublicKey

	Lamports uint64
	Size     uint64
	Owner    solana.PublicKey
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	i, accounts, err := decompile(m, index, commandCreateAccount)
	if err != nil {
		return nil, err
	}

	if len(accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(accounts))
	}
	if len(i.Data) != 52 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledCreateAccount{
		Funder:  accounts[0],
		Address: accounts[1],
	}
	v.Lamports = binary.LittleEndian.Uint64(i.Data[4:])
	v.Size = binary.LittleEndian.Uint64(i.Data[4+8:])
	copy(v.Owner[:], i.Data[4+2*8:])

	return v, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L74-L79
func Assign(account, owner solana.PublicKey) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Assigned account public key
	data := make([]byte, 4+32)
	binary.LittleEndian.PutUint32(data, commandAssign)
	copy(data[4:], owner[:])

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(account, true),
	)
}

type DecompiledAssign struct {
	Account solana.PublicKey
	Owner   solana.PublicKey
}

func DecompileAssign(m solana.Message, index int) (*DecompiledAssign, error) {
	i, accounts, err := decompile(m, index, commandAssign)
	if err != nil {
		return nil, err
	}

	if len(accounts) != 1 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(accounts))
	}
	if len(i.Data) != 36 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledAssign{Account: accounts[0]}
	copy(v.Owner[:], i.Data[4:])
	return v, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L81-L86
func Transfer(from, to solana.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, commandTransfer)
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

type DecompiledTransfer struct {
	From     solana.PublicKey
	To       solana.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, accounts, err := decompile(m, index, commandTransfer)
	if err != nil {
		return nil, err
	}

	if len(accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(accounts))
	}
	if len(i.Data) != 12 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledTransfer{
		From:     accounts[0],
		To:       accounts[1],
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
	}, nil
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L159-L166
func Allocate(account solana.PublicKey, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] New account
	data := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(data, commandAllocate)
	binary.LittleEndian.PutUint64(data[4:], size)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(account, true),
	)
}

func decompile(m solana.Message, index int, command uint32) (solana.CompiledInstruction, []solana.PublicKey, error) {
	if index < 0 || index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, nil, errors.Errorf("instruction doesn't exist at %d", index)
	}

	program, ok := m.ProgramID(index)
	if !ok || program != ProgramKey {
		return solana.CompiledInstruction{}, nil, solana.ErrIncorrectProgram
	}

	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], command)

	i := m.Instructions[index]
	if !bytes.HasPrefix(i.Data, prefix[:]) {
		return solana.CompiledInstruction{}, nil, solana.ErrIncorrectInstruction
	}

	accounts, ok := m.InstructionAccounts(index)
	if !ok {
		return solana.CompiledInstruction{}, nil, errors.Errorf("invalid account index in instruction %d", index)
	}

	return i, accounts, nil
}
