package solana

import (
	"crypto/ed25519"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/mr-tron/base58"
)

// IsOnCurve reports whether the key decodes to a point on the ed25519 curve.
// Only on-curve keys can have an associated private key, so program addresses
// are never on curve. It uses the same decoding as CreateProgramAddress.
func IsOnCurve(key ed25519.PublicKey) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var point [32]byte
	copy(point[:], key)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&point)
}

// MustBase58Decode decodes a base58 string, panicking on failure. It's meant
// for well-known program and sysvar addresses declared at init time.
func MustBase58Decode(value string) ed25519.PublicKey {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
