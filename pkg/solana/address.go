package solana

import (
	"crypto/sha256"
	"math"

	"filippo.io/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32

	pdaMarker = "ProgramDerivedAddress"
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")
	ErrInvalidPublicKey      = errors.New("invalid public key")
	ErrNoViableBumpSeed      = errors.New("unable to find a viable program address bump seed")
)

var (
	programHashCtor = sha256.New
)

// IsOnCurve reports whether key is a valid compressed ed25519 point, and so
// may have a private key.
func IsOnCurve(key PublicKey) bool {
	_, err := new(edwards25519.Point).SetBytes(key[:])
	return err == nil
}

// CreateProgramAddress derives a program address from seeds and program.
//
// Program addresses are public keys that _do not_ lie on the ed25519 curve, so
// there is no associated private key. In the event that the program and seed
// parameters result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program PublicKey, seeds ...[]byte) (PublicKey, error) {
	if len(seeds) > maxSeeds {
		return PublicKey{}, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return PublicKey{}, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return PublicKey{}, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program[:], []byte(pdaMarker)} {
		if _, err := h.Write(v); err != nil {
			return PublicKey{}, errors.Wrap(err, "failed to hash seed")
		}
	}

	var pub PublicKey
	copy(pub[:], h.Sum(nil))

	if IsOnCurve(pub) {
		return PublicKey{}, ErrInvalidPublicKey
	}

	return pub, nil
}

// FindProgramAddressAndBump searches bump seeds from 255 downwards for the
// first one yielding a valid program address. It returns the address and bump
// seed.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program PublicKey, seeds ...[]byte) (PublicKey, uint8, error) {
	bumpSeed := []byte{math.MaxUint8}
	for i := 0; i < math.MaxUint8; i++ {
		pub, err := CreateProgramAddress(program, append(seeds, bumpSeed)...)
		if err == nil {
			return pub, bumpSeed[0], nil
		}
		if err != ErrInvalidPublicKey {
			return PublicKey{}, 0, err
		}

		bumpSeed[0]--
	}

	return PublicKey{}, 0, ErrNoViableBumpSeed
}

// FindProgramAddress is FindProgramAddressAndBump without the bump seed.
func FindProgramAddress(program PublicKey, seeds ...[]byte) (PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}
