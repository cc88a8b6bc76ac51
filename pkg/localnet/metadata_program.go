package localnet

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/metadata"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

// metadataProgram implements metadata account creation of the token
// metadata program
type metadataProgram struct {
	log *logrus.Entry
}

func newMetadataProgram() program.Program {
	return &metadataProgram{
		log: logrus.StandardLogger().WithField("type", "localnet/metadata"),
	}
}

// ProgramId implements program.Program.ProgramId
func (p *metadataProgram) ProgramId() ed25519.PublicKey {
	return metadata.ProgramKey
}

// Process implements program.Program.Process
func (p *metadataProgram) Process(ctx context.Context, env *program.Env, ix solana.Instruction) error {
	decompiled, err := metadata.DecompileCreateMetadataAccountV3(ix)
	if err != nil {
		return metadata.ErrorInstructionUnpack
	}
	accounts := decompiled.Accounts
	args := decompiled.Args

	log := p.log.WithFields(logrus.Fields{
		"method":   "CreateMetadataAccountV3",
		"metadata": base58.Encode(accounts.Metadata),
		"mint":     base58.Encode(accounts.Mint),
	})

	expected, bump, err := metadata.GetMetadataAddress(accounts.Mint)
	if err != nil {
		return solana.InstructionErrorInvalidSeeds
	}
	if !expected.Equal(accounts.Metadata) {
		log.Debug("metadata address mismatch")
		return metadata.ErrorInvalidMetadataKey
	}

	if !env.IsSigner(accounts.Payer) {
		return solana.InstructionErrorMissingRequiredSignature
	}
	if !env.IsSigner(accounts.MintAuthority) {
		return metadata.ErrorNotMintAuthority
	}

	mint, err := loadMint(ctx, env, accounts.Mint)
	if err != nil {
		return err
	}
	if len(mint.MintAuthority) == 0 || !mint.MintAuthority.Equal(accounts.MintAuthority) {
		log.Debug("mint authority mismatch")
		return metadata.ErrorInvalidMintAuthority
	}

	if err := args.Data.Validate(); err != nil {
		return err
	}

	exists, err := env.Txn.Exists(ctx, base58.Encode(accounts.Metadata))
	if err != nil {
		return err
	} else if exists {
		return metadata.ErrorAlreadyInitialized
	}

	proof := program.AuthorityProof{
		Seeds: [][]byte{metadata.MetadataPrefix, metadata.ProgramKey, accounts.Mint},
		Bump:  bump,
	}
	allocate := system.CreateAccount(accounts.Payer, accounts.Metadata, metadata.ProgramKey, 0, metadata.MaxMetadataAccountSize)
	if err := env.Invoke(ctx, allocate, proof); err != nil {
		return err
	}

	record := &metadata.MetadataAccount{
		Key:                  metadata.AccountKeyMetadataV1,
		UpdateAuthority:      metadata.NewKey(accounts.UpdateAuthority),
		Mint:                 metadata.NewKey(accounts.Mint),
		Name:                 args.Data.Name,
		Symbol:               args.Data.Symbol,
		Uri:                  args.Data.Uri,
		SellerFeeBasisPoints: args.Data.SellerFeeBasisPoints,
		Creators:             args.Data.Creators,
		IsMutable:            args.IsMutable,
		Collection:           args.Data.Collection,
		Uses:                 args.Data.Uses,
		CollectionDetails:    args.CollectionDetails,
	}
	encoded, err := record.Marshal()
	if err != nil {
		return err
	}
	if len(encoded) > metadata.MaxMetadataAccountSize {
		return solana.InstructionErrorAccountDataTooSmall
	}

	data := make([]byte, metadata.MaxMetadataAccountSize)
	copy(data, encoded)
	if err := update(ctx, env, accounts.Metadata, data); err != nil {
		return err
	}

	log.Trace("metadata created")
	return nil
}
