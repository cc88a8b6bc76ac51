package tokenstate

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/token"
)

var MintTokensInstructionDiscriminator = program.InstructionDiscriminator("mint_tokens")

const (
	MintTokensInstructionArgsSize = 8 // amount
)

type MintTokensInstructionArgs struct {
	Amount uint64
}

type MintTokensInstructionAccounts struct {
	Authority ed25519.PublicKey
	State     ed25519.PublicKey
	Mint      ed25519.PublicKey
	Recipient ed25519.PublicKey
}

func NewMintTokensInstruction(
	accounts *MintTokensInstructionAccounts,
	args *MintTokensInstructionArgs,
) solana.Instruction {
	data := make([]byte, program.DiscriminatorSize+MintTokensInstructionArgsSize)
	copy(data, MintTokensInstructionDiscriminator[:])
	binary.LittleEndian.PutUint64(data[program.DiscriminatorSize:], args.Amount)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.State,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Recipient,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  token.ProgramKey,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func (args *MintTokensInstructionArgs) unmarshal(data []byte) error {
	if len(data) != MintTokensInstructionArgsSize {
		return program.ErrInstructionDidNotDeserialize
	}
	args.Amount = binary.LittleEndian.Uint64(data)
	return nil
}
