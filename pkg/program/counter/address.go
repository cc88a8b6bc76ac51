package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-authority-server/pkg/solana"
)

var (
	CounterPrefix = []byte("counter")
)

type GetCounterAddressArgs struct {
	Owner ed25519.PublicKey
}

func GetCounterAddress(args *GetCounterAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		CounterPrefix,
		args.Owner,
	)
}

func counterSeeds(owner ed25519.PublicKey) [][]byte {
	return [][]byte{CounterPrefix, owner}
}
