package program

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/testutil"
)

func TestDeriver_Derive(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	deriver := NewDeriver(keys[0])

	first, err := deriver.Derive([]byte("counter"), keys[1])
	require.NoError(t, err)
	second, err := deriver.Derive([]byte("counter"), keys[1])
	require.NoError(t, err)

	assert.Equal(t, first.Address, second.Address)
	assert.Equal(t, first.Bump, second.Bump)
	assert.False(t, solana.IsOnCurve(first.Address))

	other, err := deriver.Derive([]byte("token-state"), keys[1])
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, other.Address)

	_, err = deriver.Derive(make([]byte, solana.MaxSeedLength+1))
	assert.Error(t, err)
}

func TestDeriver_Verify(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	deriver := NewDeriver(keys[0])
	seeds := [][]byte{[]byte("counter"), keys[1]}

	derived, err := deriver.Derive(seeds...)
	require.NoError(t, err)

	assert.NoError(t, deriver.Verify(derived.Address, derived.Bump, seeds...))

	// Only the canonical bump is accepted
	for bump := 0; bump <= 255; bump++ {
		if uint8(bump) == derived.Bump {
			continue
		}
		assert.Equal(t, ErrAddressMismatch, deriver.Verify(derived.Address, uint8(bump), seeds...))
	}

	assert.Equal(t, ErrAddressMismatch, deriver.Verify(keys[2], derived.Bump, seeds...))
	assert.Equal(t, ErrAddressMismatch, deriver.Verify(derived.Address, derived.Bump, []byte("counter"), keys[2]))
	assert.Equal(t, ErrAddressMismatch, NewDeriver(keys[2]).Verify(derived.Address, derived.Bump, seeds...))
}

func TestDeriver_VerifyCanonical(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	deriver := NewDeriver(keys[0])

	expected, err := deriver.Derive([]byte("token-state"), keys[1])
	require.NoError(t, err)

	actual, err := deriver.VerifyCanonical(expected.Address, []byte("token-state"), keys[1])
	require.NoError(t, err)
	assert.Equal(t, expected, actual)

	_, err = deriver.VerifyCanonical(keys[2], []byte("token-state"), keys[1])
	assert.Equal(t, ErrAddressMismatch, err)
}

func TestAuthorityProof(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	deriver := NewDeriver(keys[0])

	derived, err := deriver.Derive([]byte("token-state"), keys[1])
	require.NoError(t, err)

	proof := derived.Proof()
	assert.Equal(t, [][]byte{[]byte("token-state"), keys[1], {derived.Bump}}, proof.SignerSeeds())

	signer, err := proof.Signer(keys[0])
	require.NoError(t, err)
	assert.Equal(t, derived.Address, signer)

	// The proof is bound to the presenting program
	signer, err = proof.Signer(keys[1])
	if err == nil {
		assert.NotEqual(t, derived.Address, signer)
	}
}
