package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// Signer produces signatures on behalf of a single public key. Keys held in
// memory, on hardware or behind a remote service can all satisfy it.
type Signer interface {
	PublicKey() PublicKey
	Sign(message []byte) (Signature, error)
}

// Keypair is an in-memory ed25519 Signer.
type Keypair struct {
	privateKey ed25519.PrivateKey
}

// NewKeypair generates a random keypair.
func NewKeypair() (*Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate key")
	}
	return &Keypair{privateKey: priv}, nil
}

// KeypairFromSeed derives a keypair from a 32 byte seed.
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("invalid seed length: %d", len(seed))
	}
	return &Keypair{privateKey: ed25519.NewKeyFromSeed(seed)}, nil
}

// KeypairFromSecretKey loads a keypair from a 64 byte secret key (seed
// followed by public key). The embedded public key must match the seed.
func KeypairFromSecretKey(secret []byte) (*Keypair, error) {
	if len(secret) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid secret key length: %d", len(secret))
	}

	kp, err := KeypairFromSeed(secret[:ed25519.SeedSize])
	if err != nil {
		return nil, err
	}

	pub := kp.PublicKey()
	if !bytes.Equal(pub[:], secret[ed25519.SeedSize:]) {
		return nil, errors.New("secret key does not match embedded public key")
	}
	return kp, nil
}

// LoadKeypairFile reads a keypair stored as a JSON array of the 64 secret key
// bytes, the format used by the Solana CLI.
func LoadKeypairFile(path string) (*Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keypair file %s", path)
	}

	var secret []byte
	var ints []int
	if err := json.Unmarshal(raw, &ints); err != nil {
		return nil, errors.Wrapf(err, "invalid keypair file %s", path)
	}
	for _, v := range ints {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid byte value in keypair file: %d", v)
		}
		secret = append(secret, byte(v))
	}

	return KeypairFromSecretKey(secret)
}

// WriteFile stores the keypair in the format read by LoadKeypairFile.
func (k *Keypair) WriteFile(path string) error {
	ints := make([]int, len(k.privateKey))
	for i, b := range k.privateKey {
		ints[i] = int(b)
	}

	raw, err := json.Marshal(ints)
	if err != nil {
		return errors.Wrap(err, "failed to encode keypair")
	}

	return errors.Wrapf(os.WriteFile(path, raw, 0600), "failed to write keypair file %s", path)
}

// PublicKey implements Signer.PublicKey.
func (k *Keypair) PublicKey() PublicKey {
	var pub PublicKey
	copy(pub[:], k.privateKey.Public().(ed25519.PublicKey))
	return pub
}

// Sign implements Signer.Sign.
func (k *Keypair) Sign(message []byte) (Signature, error) {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.privateKey, message))
	return sig, nil
}

// SecretKey returns a copy of the 64 byte secret key.
func (k *Keypair) SecretKey() []byte {
	secret := make([]byte, len(k.privateKey))
	copy(secret, k.privateKey)
	return secret
}
