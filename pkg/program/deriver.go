package program

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/solana"
)

// DerivedAddress is a program address along with the inputs used to derive it
type DerivedAddress struct {
	Address ed25519.PublicKey
	Bump    uint8
	Seeds   [][]byte
}

// Proof returns the authority proof for signing as the derived address
func (d *DerivedAddress) Proof() AuthorityProof {
	return AuthorityProof{
		Seeds: d.Seeds,
		Bump:  d.Bump,
	}
}

// Deriver computes and verifies program derived addresses for a single
// program
type Deriver struct {
	programId ed25519.PublicKey
}

func NewDeriver(programId ed25519.PublicKey) *Deriver {
	return &Deriver{
		programId: programId,
	}
}

func (d *Deriver) ProgramId() ed25519.PublicKey {
	return d.programId
}

// Derive finds the canonical address and bump for the seeds
func (d *Deriver) Derive(seeds ...[]byte) (*DerivedAddress, error) {
	address, bump, err := solana.FindProgramAddressAndBump(d.programId, seeds...)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving program address")
	}

	return &DerivedAddress{
		Address: address,
		Bump:    bump,
		Seeds:   seeds,
	}, nil
}

// Verify checks the address against the seeds and the provided bump. The
// bump is used as is, and is expected to come from a stored record.
func (d *Deriver) Verify(address ed25519.PublicKey, bump uint8, seeds ...[]byte) error {
	err := solana.VerifyProgramAddress(d.programId, address, bump, seeds...)
	switch err {
	case nil:
		return nil
	case solana.ErrProgramAddressDiffer, solana.ErrTooManySeeds, solana.ErrMaxSeedLengthExceeded:
		return ErrAddressMismatch
	default:
		return err
	}
}

// VerifyCanonical checks the address is the canonical derivation for the
// seeds, and returns the derivation. It is used before a record exists.
func (d *Deriver) VerifyCanonical(address ed25519.PublicKey, seeds ...[]byte) (*DerivedAddress, error) {
	derived, err := d.Derive(seeds...)
	if err != nil {
		return nil, ErrAddressMismatch
	}
	if !derived.Address.Equal(address) {
		return nil, ErrAddressMismatch
	}
	return derived, nil
}
