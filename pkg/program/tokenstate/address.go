package tokenstate

import (
	"crypto/ed25519"

	"github.com/code-payments/code-authority-server/pkg/solana"
)

var (
	TokenStatePrefix = []byte("token-state")
)

type GetTokenStateAddressArgs struct {
	Mint ed25519.PublicKey
}

func GetTokenStateAddress(args *GetTokenStateAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		TokenStatePrefix,
		args.Mint,
	)
}

func tokenStateSeeds(mint ed25519.PublicKey) [][]byte {
	return [][]byte{TokenStatePrefix, mint}
}
