package tokenstate

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana/binary"
)

const (
	TokenStateAccountSize = (32 + // mint
		32 + // authority
		1 + // bump
		1) // decimals
)

var TokenStateAccountDiscriminator = program.AccountDiscriminator("TokenState")

// TokenStateAccount is the controller record for a mint. Its derived address
// is the mint's mint and freeze authority.
type TokenStateAccount struct {
	Mint      ed25519.PublicKey
	Authority ed25519.PublicKey
	Bump      uint8
	Decimals  uint8
}

func (obj *TokenStateAccount) Name() string {
	return "TokenState"
}

func (obj *TokenStateAccount) Size() int {
	return TokenStateAccountSize
}

func (obj *TokenStateAccount) Marshal() []byte {
	data := make([]byte, TokenStateAccountSize)

	var offset int
	binary.PutKey32(data[offset:], obj.Mint, &offset)
	binary.PutKey32(data[offset:], obj.Authority, &offset)
	binary.PutUint8(data[offset:], obj.Bump, &offset)
	binary.PutUint8(data[offset:], obj.Decimals, &offset)

	return data
}

func (obj *TokenStateAccount) Unmarshal(data []byte) error {
	if len(data) != TokenStateAccountSize {
		return errors.Errorf("invalid token state account size: %d", len(data))
	}

	var offset int
	binary.GetKey32(data[offset:], &obj.Mint, &offset)
	binary.GetKey32(data[offset:], &obj.Authority, &offset)
	binary.GetUint8(data[offset:], &obj.Bump, &offset)
	binary.GetUint8(data[offset:], &obj.Decimals, &offset)

	return nil
}

// UnmarshalTokenStateAccount decodes persisted token state account data,
// header included
func UnmarshalTokenStateAccount(data []byte) (*TokenStateAccount, error) {
	var obj TokenStateAccount
	if err := program.DecodeRecord(data, &obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// proof returns the authority proof for signing as the token state
func (obj *TokenStateAccount) proof() program.AuthorityProof {
	return program.AuthorityProof{
		Seeds: tokenStateSeeds(obj.Mint),
		Bump:  obj.Bump,
	}
}
