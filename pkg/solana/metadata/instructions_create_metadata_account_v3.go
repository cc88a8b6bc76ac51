package metadata

import (
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

const (
	instructionCreateMetadataAccountV3 uint8 = 33
)

type CreateMetadataAccountV3InstructionArgs struct {
	Data              DataV2
	IsMutable         bool
	CollectionDetails *CollectionDetails
}

type CreateMetadataAccountV3InstructionAccounts struct {
	Metadata        ed25519.PublicKey
	Mint            ed25519.PublicKey
	MintAuthority   ed25519.PublicKey
	Payer           ed25519.PublicKey
	UpdateAuthority ed25519.PublicKey

	UpdateAuthorityIsSigner bool
}

// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/main/clients/rust/src/generated/instructions/create_metadata_account_v3.rs
func NewCreateMetadataAccountV3Instruction(
	accounts *CreateMetadataAccountV3InstructionAccounts,
	args *CreateMetadataAccountV3InstructionArgs,
) (solana.Instruction, error) {
	encoded, err := borsh.Serialize(*args)
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "error serializing instruction args")
	}

	data := make([]byte, 0, 1+len(encoded))
	data = append(data, instructionCreateMetadataAccountV3)
	data = append(data, encoded...)

	return solana.Instruction{
		Program: ProgramKey,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Metadata,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Mint,
				IsWritable: false,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.MintAuthority,
				IsWritable: false,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Payer,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.UpdateAuthority,
				IsWritable: false,
				IsSigner:   accounts.UpdateAuthorityIsSigner,
			},
			{
				PublicKey:  system.ProgramKey,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}, nil
}

type DecompiledCreateMetadataAccountV3 struct {
	Accounts CreateMetadataAccountV3InstructionAccounts
	Args     CreateMetadataAccountV3InstructionArgs
}

func DecompileCreateMetadataAccountV3(i solana.Instruction) (*DecompiledCreateMetadataAccountV3, error) {
	if err := i.CheckProgram(ProgramKey, 6); err != nil {
		return nil, err
	}
	if len(i.Data) < 1 || i.Data[0] != instructionCreateMetadataAccountV3 {
		return nil, solana.ErrIncorrectInstruction
	}
	if !i.Account(5).Equal(system.ProgramKey) {
		return nil, errors.New("system program key mismatch")
	}

	var args CreateMetadataAccountV3InstructionArgs
	if err := borsh.Deserialize(&args, i.Data[1:]); err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}
	if err := args.clearAbsentOptions(i.Data[1:]); err != nil {
		return nil, errors.Wrap(err, "invalid instruction data")
	}

	return &DecompiledCreateMetadataAccountV3{
		Accounts: CreateMetadataAccountV3InstructionAccounts{
			Metadata:                i.Account(0),
			Mint:                    i.Account(1),
			MintAuthority:           i.Account(2),
			Payer:                   i.Account(3),
			UpdateAuthority:         i.Account(4),
			UpdateAuthorityIsSigner: i.Accounts[4].IsSigner,
		},
		Args: args,
	}, nil
}

// clearAbsentOptions sets the options the encoded args mark as None to nil
func (args *CreateMetadataAccountV3InstructionArgs) clearAbsentOptions(data []byte) error {
	r := &optionReader{data: data}
	r.skipString()
	r.skipString()
	r.skipString()
	r.skip(2)
	hasCreators := r.creators()
	hasCollection := r.option(collectionSize)
	hasUses := r.option(usesSize)
	r.skip(1)
	hasCollectionDetails := r.option(collectionDetailsSize)
	if r.err != nil {
		return r.err
	}

	if !hasCreators {
		args.Data.Creators = nil
	}
	if !hasCollection {
		args.Data.Collection = nil
	}
	if !hasUses {
		args.Data.Uses = nil
	}
	if !hasCollectionDetails {
		args.CollectionDetails = nil
	}
	return nil
}
