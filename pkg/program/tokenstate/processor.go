package tokenstate

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/metadata"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
	"github.com/code-payments/code-authority-server/pkg/solana/token"
)

// Program is the token state program. A token state record, derived from
// ("token-state", mint), is the mint and freeze authority of its mint, and
// mints tokens on behalf of the authority it stores.
type Program struct {
	log      *logrus.Entry
	deriver  *program.Deriver
	accessor *program.Accessor
}

func New() *Program {
	return &Program{
		log:      logrus.StandardLogger().WithField("type", "program/tokenstate"),
		deriver:  program.NewDeriver(PROGRAM_ID),
		accessor: program.NewAccessor(PROGRAM_ID),
	}
}

// ProgramId implements program.Program.ProgramId
func (p *Program) ProgramId() ed25519.PublicKey {
	return PROGRAM_ID
}

// Process implements program.Program.Process
func (p *Program) Process(ctx context.Context, env *program.Env, ix solana.Instruction) error {
	discriminator, data, err := program.ParseInstruction(ix.Data)
	if err != nil {
		return err
	}

	switch discriminator {
	case InitializeMintInstructionDiscriminator:
		if len(ix.Accounts) < 9 {
			return program.ErrAccountNotEnoughKeys
		}

		var args InitializeMintInstructionArgs
		if err := args.unmarshal(data); err != nil {
			return err
		}

		if !ix.Account(6).Equal(system.ProgramKey) {
			return program.ErrInvalidProgramId
		}
		if !ix.Account(7).Equal(token.ProgramKey) {
			return ErrInvalidTokenProgram
		}
		if !ix.Account(8).Equal(system.RentSysVar) {
			return program.ErrConstraintAddress
		}

		return p.InitializeMint(ctx, env, &InitializeMintInstructionAccounts{
			Payer:           ix.Account(0),
			Authority:       ix.Account(1),
			State:           ix.Account(2),
			Mint:            ix.Account(3),
			Metadata:        ix.Account(4),
			MetadataProgram: ix.Account(5),
		}, &args)
	case MintTokensInstructionDiscriminator:
		if len(ix.Accounts) < 5 {
			return program.ErrAccountNotEnoughKeys
		}

		var args MintTokensInstructionArgs
		if err := args.unmarshal(data); err != nil {
			return err
		}

		if !ix.Account(4).Equal(token.ProgramKey) {
			return ErrInvalidTokenProgram
		}

		return p.MintTokens(ctx, env, &MintTokensInstructionAccounts{
			Authority: ix.Account(0),
			State:     ix.Account(1),
			Mint:      ix.Account(2),
			Recipient: ix.Account(3),
		}, &args)
	default:
		return program.ErrInstructionFallbackNotFound
	}
}

// InitializeMint creates the token state for a new mint, makes the state the
// mint's mint and freeze authority, and optionally creates the mint's
// metadata. Every precondition is checked before the first effect.
func (p *Program) InitializeMint(ctx context.Context, env *program.Env, accounts *InitializeMintInstructionAccounts, args *InitializeMintInstructionArgs) error {
	log := p.log.WithFields(logrus.Fields{
		"method":    "InitializeMint",
		"mint":      base58.Encode(accounts.Mint),
		"authority": base58.Encode(accounts.Authority),
		"decimals":  args.Decimals,
	})

	for _, signer := range []ed25519.PublicKey{accounts.Payer, accounts.Authority, accounts.Mint} {
		if err := env.RequireSigner(signer); err != nil {
			return err
		}
	}
	for _, account := range []ed25519.PublicKey{accounts.Payer, accounts.State, accounts.Mint} {
		if err := env.RequireWritable(account); err != nil {
			return err
		}
	}

	if args.Metadata != nil {
		if err := env.RequireWritable(accounts.Metadata); err != nil {
			return err
		}
		if !accounts.MetadataProgram.Equal(metadata.ProgramKey) {
			log.Debug("metadata program mismatch")
			return ErrInvalidMetadataProgram
		}

		expected, _, err := metadata.GetMetadataAddress(accounts.Mint)
		if err != nil {
			return err
		}
		if !expected.Equal(accounts.Metadata) {
			log.Debug("metadata account mismatch")
			return ErrInvalidMetadataAccount
		}
	}

	derived, err := p.deriver.VerifyCanonical(accounts.State, tokenStateSeeds(accounts.Mint)...)
	if err != nil {
		return err
	}

	exists, err := p.accessor.Exists(ctx, env, accounts.State)
	if err != nil {
		return err
	} else if exists {
		return program.ErrAlreadyExists
	}

	exists, err = p.accessor.Exists(ctx, env, accounts.Mint)
	if err != nil {
		return err
	} else if exists {
		return system.ErrorAccountAlreadyInUse
	}

	record := &TokenStateAccount{
		Mint:      accounts.Mint,
		Authority: accounts.Authority,
		Bump:      derived.Bump,
		Decimals:  args.Decimals,
	}
	if err := p.accessor.CreateGuarded(ctx, env, accounts.Payer, derived, record); err != nil {
		return err
	}

	err = env.Invoke(ctx, system.CreateAccount(accounts.Payer, accounts.Mint, token.ProgramKey, 0, token.MintSize))
	if err != nil {
		log.WithError(err).Debug("failure allocating mint")
		return err
	}

	err = env.Invoke(ctx, token.InitializeMint2(accounts.Mint, accounts.State, accounts.State, args.Decimals))
	if err != nil {
		log.WithError(err).Debug("failure initializing mint")
		return err
	}

	if args.Metadata != nil {
		createMetadata, err := metadata.NewCreateMetadataAccountV3Instruction(
			&metadata.CreateMetadataAccountV3InstructionAccounts{
				Metadata:                accounts.Metadata,
				Mint:                    accounts.Mint,
				MintAuthority:           accounts.State,
				Payer:                   accounts.Payer,
				UpdateAuthority:         accounts.Authority,
				UpdateAuthorityIsSigner: true,
			},
			&metadata.CreateMetadataAccountV3InstructionArgs{
				Data: metadata.DataV2{
					Name:   args.Metadata.Name,
					Symbol: args.Metadata.Symbol,
					Uri:    args.Metadata.Uri,
				},
				IsMutable: true,
			},
		)
		if err != nil {
			return err
		}

		if err := env.Invoke(ctx, createMetadata, record.proof()); err != nil {
			log.WithError(err).Debug("failure creating metadata")
			return err
		}
	}

	log.Debug("mint initialized")
	return nil
}

// MintTokens mints tokens to the recipient, signed by the token state on
// behalf of its stored authority
func (p *Program) MintTokens(ctx context.Context, env *program.Env, accounts *MintTokensInstructionAccounts, args *MintTokensInstructionArgs) error {
	log := p.log.WithFields(logrus.Fields{
		"method":    "MintTokens",
		"mint":      base58.Encode(accounts.Mint),
		"recipient": base58.Encode(accounts.Recipient),
		"amount":    args.Amount,
	})

	if err := env.RequireSigner(accounts.Authority); err != nil {
		return err
	}
	for _, account := range []ed25519.PublicKey{accounts.State, accounts.Mint, accounts.Recipient} {
		if err := env.RequireWritable(account); err != nil {
			return err
		}
	}

	var record TokenStateAccount
	if err := p.accessor.Load(ctx, env, accounts.State, &record); err != nil {
		return err
	}

	// The stored bump is authoritative once the state exists
	if err := p.deriver.Verify(accounts.State, record.Bump, tokenStateSeeds(accounts.Mint)...); err != nil {
		return err
	}

	if err := program.CrossCheck(ErrInvalidMint, record.Mint, accounts.Mint); err != nil {
		return err
	}

	if err := program.Authorize(ErrUnauthorized, record.Authority, accounts.Authority); err != nil {
		log.Debug("mint attempted by non-authority")
		return err
	}

	recipientData, err := program.LoadExternal(ctx, env, accounts.Recipient, token.ProgramKey)
	if err != nil {
		return err
	}
	var recipient token.Account
	if !recipient.Unmarshal(recipientData) {
		return program.ErrAccountDidNotDeserialize
	}
	if err := program.CrossCheck(ErrInvalidRecipient, record.Mint, recipient.Mint); err != nil {
		log.Debug("recipient mint mismatch")
		return err
	}

	// Supply limits are enforced by the token program
	mintTo := token.MintTo(accounts.Mint, accounts.Recipient, accounts.State, args.Amount)
	if err := env.Invoke(ctx, mintTo, record.proof()); err != nil {
		log.WithError(err).Debug("failure minting tokens")
		return err
	}

	log.Trace("tokens minted")
	return nil
}
