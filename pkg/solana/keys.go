package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	PublicKeySize = ed25519.PublicKeySize
	HashSize      = sha256.Size
	SignatureSize = ed25519.SignatureSize
)

// PublicKey is a 32 byte account or program address.
type PublicKey [PublicKeySize]byte

// Hash is a 32 byte content hash, such as a recent blockhash.
type Hash [HashSize]byte

// Signature is a 64 byte ed25519 signature. The zero value marks a slot that
// has not been signed yet.
type Signature [SignatureSize]byte

// PublicKeyFromBytes copies b into a PublicKey. b must be exactly 32 bytes.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var pub PublicKey
	if len(b) != PublicKeySize {
		return pub, errors.Wrapf(ErrDeserialization, "invalid public key length: %d", len(b))
	}
	copy(pub[:], b)
	return pub, nil
}

// PublicKeyFromBase58 parses a base58 encoded public key.
func PublicKeyFromBase58(s string) (PublicKey, error) {
	var pub PublicKey
	err := decodeFixed(s, pub[:])
	return pub, err
}

// MustPublicKeyFromBase58 is PublicKeyFromBase58 for well known constants. It
// panics on malformed input.
func MustPublicKeyFromBase58(s string) PublicKey {
	pub, err := PublicKeyFromBase58(s)
	if err != nil {
		panic(err)
	}
	return pub
}

func (k PublicKey) String() string {
	return base58.Encode(k[:])
}

// Compare orders keys byte-lexicographically.
func (k PublicKey) Compare(other PublicKey) int {
	return bytes.Compare(k[:], other[:])
}

func (k PublicKey) IsZero() bool {
	return k == PublicKey{}
}

// ToEd25519 returns the key in the form expected by crypto/ed25519.
func (k PublicKey) ToEd25519() ed25519.PublicKey {
	return ed25519.PublicKey(k[:])
}

// HashFromBase58 parses a base58 encoded hash.
func HashFromBase58(s string) (Hash, error) {
	var h Hash
	err := decodeFixed(s, h[:])
	return h, err
}

func (h Hash) String() string {
	return base58.Encode(h[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// SignatureFromBase58 parses a base58 encoded signature.
func SignatureFromBase58(s string) (Signature, error) {
	var sig Signature
	err := decodeFixed(s, sig[:])
	return sig, err
}

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// IsZero reports whether the signature is the unsigned sentinel.
func (s Signature) IsZero() bool {
	return s == Signature{}
}

// Verify checks the signature against the provided key and message.
func (s Signature) Verify(pub PublicKey, message []byte) bool {
	return ed25519.Verify(pub.ToEd25519(), message, s[:])
}

// decodeFixed decodes s into dst, left padding with zero bytes when the
// decoded value is shorter than dst.
func decodeFixed(s string, dst []byte) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return errors.Wrap(ErrDeserialization, err.Error())
	}
	if len(raw) > len(dst) {
		return errors.Wrapf(ErrDeserialization, "decoded value too long: %d > %d", len(raw), len(dst))
	}

	for i := range dst {
		dst[i] = 0
	}
	copy(dst[len(dst)-len(raw):], raw)
	return nil
}
