package solana

import (
	"bytes"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey returns a key that is distinct per b and never a builtin.
func testKey(b byte) PublicKey {
	var k PublicKey
	k[0] = b
	k[PublicKeySize-1] = 0xee
	return k
}

func newTestKeypair(t *testing.T, seed byte) *Keypair {
	kp, err := KeypairFromSeed(bytes.Repeat([]byte{seed}, 32))
	require.NoError(t, err)
	return kp
}

func TestPublicKey_Base58(t *testing.T) {
	for _, s := range []string{
		"11111111111111111111111111111111",
		"MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr",
		"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
		"BPFLoaderUpgradeab1e11111111111111111111111",
	} {
		pub, err := PublicKeyFromBase58(s)
		require.NoError(t, err)
		assert.Equal(t, s, pub.String())
	}

	assert.True(t, SystemProgramID.IsZero())
	assert.False(t, testKey(1).IsZero())
}

func TestPublicKey_Base58LeftPads(t *testing.T) {
	raw := []byte{1, 2, 3}
	pub, err := PublicKeyFromBase58(base58.Encode(raw))
	require.NoError(t, err)

	var expected PublicKey
	copy(expected[PublicKeySize-3:], raw)
	assert.Equal(t, expected, pub)
}

func TestPublicKey_Base58Invalid(t *testing.T) {
	for _, s := range []string{
		"0OIl",
		"not base58!",
		base58.Encode(bytes.Repeat([]byte{0xff}, PublicKeySize+1)),
	} {
		_, err := PublicKeyFromBase58(s)
		assert.True(t, errors.Is(err, ErrDeserialization), s)
	}

	assert.Panics(t, func() { MustPublicKeyFromBase58("0OIl") })
}

func TestPublicKeyFromBytes(t *testing.T) {
	raw := bytes.Repeat([]byte{7}, PublicKeySize)
	pub, err := PublicKeyFromBytes(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, pub[:])

	_, err = PublicKeyFromBytes(raw[:31])
	assert.True(t, errors.Is(err, ErrDeserialization))
}

func TestPublicKey_Compare(t *testing.T) {
	assert.Equal(t, 0, testKey(1).Compare(testKey(1)))
	assert.Equal(t, -1, testKey(1).Compare(testKey(2)))
	assert.Equal(t, 1, testKey(2).Compare(testKey(1)))
}

func TestHashAndSignature_Base58(t *testing.T) {
	h := Hash{1, 2, 3, 4}
	decodedHash, err := HashFromBase58(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, decodedHash)
	assert.True(t, Hash{}.IsZero())

	sig := Signature{9, 8, 7}
	decodedSig, err := SignatureFromBase58(sig.String())
	require.NoError(t, err)
	assert.Equal(t, sig, decodedSig)
	assert.True(t, Signature{}.IsZero())
	assert.False(t, sig.IsZero())

	_, err = HashFromBase58(base58.Encode(bytes.Repeat([]byte{1}, HashSize+1)))
	assert.True(t, errors.Is(err, ErrDeserialization))

	_, err = SignatureFromBase58(base58.Encode(bytes.Repeat([]byte{1}, SignatureSize+1)))
	assert.True(t, errors.Is(err, ErrDeserialization))
}

func TestSignature_Verify(t *testing.T) {
	kp := newTestKeypair(t, 1)
	msg := []byte("hello")

	sig, err := kp.Sign(msg)
	require.NoError(t, err)

	assert.True(t, sig.Verify(kp.PublicKey(), msg))
	assert.False(t, sig.Verify(kp.PublicKey(), []byte("hellO")))
	assert.False(t, sig.Verify(newTestKeypair(t, 2).PublicKey(), msg))
	assert.False(t, Signature{}.Verify(kp.PublicKey(), msg))
}
