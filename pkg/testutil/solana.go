package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-solana-sdk/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) *solana.Keypair {
	kp, err := solana.NewKeypair()
	require.NoError(t, err)
	return kp
}

func GenerateSolanaKeys(t *testing.T, n int) []solana.PublicKey {
	keys := make([]solana.PublicKey, n)
	for i := 0; i < n; i++ {
		keys[i] = GenerateSolanaKeypair(t).PublicKey()
	}
	return keys
}
