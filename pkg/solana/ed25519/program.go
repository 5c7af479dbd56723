package ed25519

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

// Ed25519SigVerify111111111111111111111111111
var ProgramKey = solana.PublicKey{3, 125, 70, 214, 124, 147, 251, 190, 18, 249, 66, 143, 131, 141, 64, 255, 5, 112, 116, 73, 39, 244, 138, 100, 252, 202, 112, 68, 128, 0, 0, 0}

const (
	headerSize         = 16
	publicKeyOffset    = headerSize
	signatureOffset    = publicKeyOffset + solana.PublicKeySize
	messageDataOffset  = signatureOffset + solana.SignatureSize
	currentInstruction = math.MaxUint16
	maxMessageDataSize = math.MaxUint16 - messageDataOffset
)

// Instruction returns a signature verification instruction for message,
// signed by signer.
//
// Reference: https://github.com/solana-labs/solana/blob/27eff8408b7223bb3c4ab70523f8a8dca3ca6645/sdk/src/ed25519_instruction.rs#L32
func Instruction(signer solana.Signer, message []byte) (solana.Instruction, error) {
	if len(message) > maxMessageDataSize {
		return solana.Instruction{}, errors.Errorf("message too large: %d", len(message))
	}

	signature, err := signer.Sign(message)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to sign message")
	}

	publicKey := signer.PublicKey()

	data := make([]byte, messageDataOffset+len(message))

	offset := 0

	data[offset] = 1 // num_signatures
	offset++

	data[offset] = 0 // padding
	offset++

	binary.LittleEndian.PutUint16(data[offset:], signatureOffset) // signature_offset
	offset += 2

	binary.LittleEndian.PutUint16(data[offset:], currentInstruction) // signature_instruction_index
	offset += 2

	binary.LittleEndian.PutUint16(data[offset:], publicKeyOffset) // public_key_offset
	offset += 2

	binary.LittleEndian.PutUint16(data[offset:], currentInstruction) // public_key_instruction_index
	offset += 2

	binary.LittleEndian.PutUint16(data[offset:], messageDataOffset) // message_data_offset
	offset += 2

	binary.LittleEndian.PutUint16(data[offset:], uint16(len(message))) // message_data_size
	offset += 2

	binary.LittleEndian.PutUint16(data[offset:], currentInstruction) // message_instruction_index
	offset += 2

	copy(data[offset:], publicKey[:])
	offset += solana.PublicKeySize

	copy(data[offset:], signature[:])
	offset += solana.SignatureSize

	copy(data[offset:], message)

	return solana.NewInstruction(
		ProgramKey,
		data,
	), nil
}
