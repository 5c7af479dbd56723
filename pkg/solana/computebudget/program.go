package compute_budget

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = solana.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	// nolint:varcheck,deadcode,unused
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

var (
	ErrInvalidLength      = errors.New("invalid length")
	ErrInvalidInstruction = errors.New("invalid instruction")
)

// RequestHeapFrame requests a transaction-wide program heap region size in
// bytes. The value must be a multiple of 1024.
func RequestHeapFrame(bytes uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandRequestHeapFrame
	binary.LittleEndian.PutUint32(data[1:], bytes)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = commandSetComputeUnitLimit
	binary.LittleEndian.PutUint32(data[1:], computeUnitLimit)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

// SetComputeUnitPrice sets the prioritization fee in micro-lamports per
// compute unit.
func SetComputeUnitPrice(computeUnitPrice uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = commandSetComputeUnitPrice
	binary.LittleEndian.PutUint64(data[1:], computeUnitPrice)

	return solana.NewInstruction(
		ProgramKey,
		data,
	)
}

func ParseRequestHeapFrameIxnData(data []byte) (uint32, error) {
	return parseUint32(data, commandRequestHeapFrame)
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	return parseUint32(data, commandSetComputeUnitLimit)
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, ErrInvalidLength
	}

	if data[0] != commandSetComputeUnitPrice {
		return 0, ErrInvalidInstruction
	}

	return binary.LittleEndian.Uint64(data[1:]), nil
}

// ComputeBudget is the set of compute budget settings requested by a message.
type ComputeBudget struct {
	HeapFrame        *uint32
	ComputeUnitLimit *uint32
	ComputeUnitPrice *uint64
}

// DecompileComputeBudget collects the compute budget instructions of a
// message. Instructions for other programs are skipped.
func DecompileComputeBudget(m solana.Message) (*ComputeBudget, error) {
	var budget ComputeBudget

	for i, ixn := range m.Instructions {
		if program, ok := m.ProgramID(i); !ok || program != ProgramKey {
			continue
		}

		if len(ixn.Data) == 0 {
			return nil, errors.Wrapf(ErrInvalidInstruction, "instruction %d", i)
		}

		switch ixn.Data[0] {
		case commandRequestHeapFrame:
			v, err := ParseRequestHeapFrameIxnData(ixn.Data)
			if err != nil {
				return nil, errors.Wrapf(err, "instruction %d", i)
			}
			budget.HeapFrame = &v
		case commandSetComputeUnitLimit:
			v, err := ParseSetComputeUnitLimitIxnData(ixn.Data)
			if err != nil {
				return nil, errors.Wrapf(err, "instruction %d", i)
			}
			budget.ComputeUnitLimit = &v
		case commandSetComputeUnitPrice:
			v, err := ParseSetComputeUnitPriceIxnData(ixn.Data)
			if err != nil {
				return nil, errors.Wrapf(err, "instruction %d", i)
			}
			budget.ComputeUnitPrice = &v
		default:
			return nil, errors.Wrapf(ErrInvalidInstruction, "instruction %d", i)
		}
	}

	return &budget, nil
}

func parseUint32(data []byte, command uint8) (uint32, error) {
	if len(data) != 5 {
		return 0, ErrInvalidLength
	}

	if data[0] != command {
		return 0, ErrInvalidInstruction
	}

	return binary.LittleEndian.Uint32(data[1:]), nil
}
