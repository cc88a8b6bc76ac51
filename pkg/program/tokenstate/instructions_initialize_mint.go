package tokenstate

import (
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/binary"
	"github.com/code-payments/code-authority-server/pkg/solana/metadata"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
	"github.com/code-payments/code-authority-server/pkg/solana/token"
)

var InitializeMintInstructionDiscriminator = program.InstructionDiscriminator("initialize_mint")

// MetadataArgs describes the token in the metadata program
type MetadataArgs struct {
	Name   string
	Symbol string
	Uri    string
}

type InitializeMintInstructionArgs struct {
	Decimals uint8

	// Metadata is optional. When nil, no metadata account is created.
	Metadata *MetadataArgs
}

type InitializeMintInstructionAccounts struct {
	Payer     ed25519.PublicKey
	Authority ed25519.PublicKey
	State     ed25519.PublicKey
	Mint      ed25519.PublicKey
	Metadata  ed25519.PublicKey

	// MetadataProgram defaults to metadata.ProgramKey when unset
	MetadataProgram ed25519.PublicKey
}

func NewInitializeMintInstruction(
	accounts *InitializeMintInstructionAccounts,
	args *InitializeMintInstructionArgs,
) (solana.Instruction, error) {
	encoded, err := args.marshal()
	if err != nil {
		return solana.Instruction{}, err
	}

	data := make([]byte, 0, program.DiscriminatorSize+len(encoded))
	data = append(data, InitializeMintInstructionDiscriminator[:]...)
	data = append(data, encoded...)

	metadataProgram := accounts.MetadataProgram
	if len(metadataProgram) == 0 {
		metadataProgram = metadata.ProgramKey
	}

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
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
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Metadata,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  metadataProgram,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  system.ProgramKey,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  token.ProgramKey,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  system.RentSysVar,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}, nil
}

// The optional metadata is encoded as a borsh option
func (args *InitializeMintInstructionArgs) marshal() ([]byte, error) {
	if args.Metadata == nil {
		return []byte{args.Decimals, 0}, nil
	}

	encoded, err := borsh.Serialize(*args.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "error serializing metadata args")
	}

	data := []byte{args.Decimals, 1}
	return append(data, encoded...), nil
}

func (args *InitializeMintInstructionArgs) unmarshal(data []byte) error {
	if len(data) < 2 {
		return program.ErrInstructionDidNotDeserialize
	}

	args.Decimals = data[0]
	args.Metadata = nil

	offset := 2
	switch data[1] {
	case 0:
	case 1:
		var metadataArgs MetadataArgs
		for _, field := range []*string{&metadataArgs.Name, &metadataArgs.Symbol, &metadataArgs.Uri} {
			if !binary.GetString(data[offset:], field, &offset) {
				return program.ErrInstructionDidNotDeserialize
			}
		}
		args.Metadata = &metadataArgs
	default:
		return program.ErrInstructionDidNotDeserialize
	}

	if offset != len(data) {
		return program.ErrInstructionDidNotDeserialize
	}
	return nil
}
