package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

var InitializeInstructionDiscriminator = program.InstructionDiscriminator("initialize")

type InitializeInstructionAccounts struct {
	Counter ed25519.PublicKey
	User    ed25519.PublicKey
}

func NewInitializeInstruction(
	accounts *InitializeInstructionAccounts,
) solana.Instruction {
	data := make([]byte, 0, program.DiscriminatorSize)
	data = append(data, InitializeInstructionDiscriminator[:]...)

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
				PublicKey:  accounts.User,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  system.ProgramKey,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}
