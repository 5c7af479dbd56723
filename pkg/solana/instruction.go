package solana

import (
	"math"

	"github.com/pkg/errors"
)

// AccountMeta represents a single account reference within an instruction.
type AccountMeta struct {
	PublicKey  PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Instruction is a single, uncompiled program invocation. The order of
// Accounts is the order the program receives them in.
type Instruction struct {
	Program  PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CompiledInstruction is an instruction whose program and account references
// have been rewritten as indices into a message's account keys.
type CompiledInstruction struct {
	ProgramIDIndex byte
	Accounts       []byte
	Data           []byte
}

// CompileInstruction resolves the program and accounts of ix against keys.
func CompileInstruction(ix Instruction, keys []PublicKey) (CompiledInstruction, error) {
	programIndex, ok := position(keys, ix.Program)
	if !ok {
		return CompiledInstruction{}, errorKeyNotFound(ix.Program)
	}
	if programIndex > math.MaxUint8 {
		return CompiledInstruction{}, errors.Wrapf(ErrAccountIndexOverflow, "program %s at index %d", ix.Program, programIndex)
	}

	accounts := make([]byte, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		index, ok := position(keys, meta.PublicKey)
		if !ok {
			return CompiledInstruction{}, errorKeyNotFound(meta.PublicKey)
		}
		if index > math.MaxUint8 {
			return CompiledInstruction{}, errors.Wrapf(ErrAccountIndexOverflow, "account %s at index %d", meta.PublicKey, index)
		}
		accounts[i] = byte(index)
	}

	data := make([]byte, len(ix.Data))
	copy(data, ix.Data)

	return CompiledInstruction{
		ProgramIDIndex: byte(programIndex),
		Accounts:       accounts,
		Data:           data,
	}, nil
}

// CompileInstructions compiles every instruction against keys, preserving
// instruction order.
func CompileInstructions(ixs []Instruction, keys []PublicKey) ([]CompiledInstruction, error) {
	compiled := make([]CompiledInstruction, 0, len(ixs))
	for _, ix := range ixs {
		c, err := CompileInstruction(ix, keys)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, c)
	}
	return compiled, nil
}

func position(keys []PublicKey, key PublicKey) (int, bool) {
	for i, k := range keys {
		if k == key {
			return i, true
		}
	}
	return -1, false
}
