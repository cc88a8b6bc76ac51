package program

import (
	"crypto/ed25519"

	"github.com/code-payments/code-authority-server/pkg/solana"
)

// AuthorityProof lets a program sign for one of its derived addresses in a
// single cross-program invocation. It carries the seeds and bump used to
// derive the address, never key material.
type AuthorityProof struct {
	Seeds [][]byte
	Bump  uint8
}

// SignerSeeds returns the full seed list, bump included
func (p AuthorityProof) SignerSeeds() [][]byte {
	seeds := make([][]byte, 0, len(p.Seeds)+1)
	seeds = append(seeds, p.Seeds...)
	seeds = append(seeds, []byte{p.Bump})
	return seeds
}

// Signer returns the address the proof signs for when presented by the
// provided program
func (p AuthorityProof) Signer(program ed25519.PublicKey) (ed25519.PublicKey, error) {
	return solana.CreateProgramAddress(program, p.SignerSeeds()...)
}
