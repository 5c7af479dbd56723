package system

import (
	"github.com/pkg/errors"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
	"github.com/code-payments/code-solana-sdk/pkg/solana/binary"
)

type NonceVersion uint32

const (
	NonceAccountSize = 80
)

const (
	NonceVersion0 NonceVersion = iota
	NonceVersion1
)

var (
	ErrInvalidAccountSize    = errors.New("invalid nonce account size")
	ErrInvalidAccountVersion = errors.New("invalid nonce account version")
	ErrInvalidAccountOwner   = errors.New("invalid nonce account owner")
)

// NonceAccount is the on-chain state of an initialized nonce account. Only
// reading is supported, nonce instructions are not built by this package.
//
// https://github.com/solana-labs/solana/blob/da00b39f4f92fb16417bd2d8bd218a04a34527b8/sdk/program/src/nonce/state/current.rs#L8
type NonceAccount struct {
	Version       uint32
	State         uint32
	Authority     solana.PublicKey
	Blockhash     solana.Hash
	FeeCalculator FeeCalculator
}

type FeeCalculator struct {
	LamportsPerSignature uint64
}

func (obj NonceAccount) Marshal() []byte {
	res := make([]byte, NonceAccountSize)

	var offset int
	binary.PutUint32(res[offset:], obj.Version, &offset)
	binary.PutUint32(res[offset:], obj.State, &offset)
	binary.PutKey32(res[offset:], obj.Authority, &offset)
	binary.PutKey32(res[offset:], solana.PublicKey(obj.Blockhash), &offset)

	binary.PutUint64(res[offset:], obj.FeeCalculator.LamportsPerSignature, &offset)

	return res
}

func (obj *NonceAccount) Unmarshal(data []byte) error {
	if len(data) != NonceAccountSize {
		return ErrInvalidAccountSize
	}

	var offset int
	var blockhash solana.PublicKey

	binary.GetUint32(data[offset:], &obj.Version, &offset)
	binary.GetUint32(data[offset:], &obj.State, &offset)
	binary.GetKey32(data[offset:], &obj.Authority, &offset)
	binary.GetKey32(data[offset:], &blockhash, &offset)
	obj.Blockhash = solana.Hash(blockhash)

	binary.GetUint64(data[offset:], &obj.FeeCalculator.LamportsPerSignature, &offset)

	if NonceVersion(obj.Version) != NonceVersion1 {
		return ErrInvalidAccountVersion
	}

	return nil
}

// GetNonceValueFromAccount returns the stored blockhash of a nonce account.
func GetNonceValueFromAccount(info solana.AccountInfo) (solana.Hash, error) {
	if info.Owner != ProgramKey {
		return solana.Hash{}, ErrInvalidAccountOwner
	}

	var account NonceAccount
	if err := account.Unmarshal(info.Data); err != nil {
		return solana.Hash{}, err
	}
	return account.Blockhash, nil
}
