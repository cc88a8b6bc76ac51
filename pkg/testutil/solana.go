package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
)

// GenerateSolanaKeys returns n random, on-curve public keys
func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// NewRandomAddress returns a base58 encoded, on-curve ledger address
func NewRandomAddress(t *testing.T) string {
	return base58.Encode(GenerateSolanaKeys(t, 1)[0])
}
