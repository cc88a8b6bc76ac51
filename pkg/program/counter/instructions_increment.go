package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
)

var IncrementInstructionDiscriminator = program.InstructionDiscriminator("increment")

type IncrementInstructionAccounts struct {
	Counter   ed25519.PublicKey
	Owner     ed25519.PublicKey
	Authority ed25519.PublicKey
}

func NewIncrementInstruction(
	accounts *IncrementInstructionAccounts,
) solana.Instruction {
	data := make([]byte, 0, program.DiscriminatorSize)
	data = append(data, IncrementInstructionDiscriminator[:]...)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Counter,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Owner,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Authority,
				IsWritable: false,
				IsSigner:   true,
			},
		},
	}
}
