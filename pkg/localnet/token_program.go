package localnet

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/token"
)

// tokenProgram implements the subset of the token program used by token
// state records: mint initialization, token account initialization and
// minting.
type tokenProgram struct {
	log *logrus.Entry
}

func newTokenProgram() program.Program {
	return &tokenProgram{
		log: logrus.StandardLogger().WithField("type", "localnet/token"),
	}
}

// ProgramId implements program.Program.ProgramId
func (p *tokenProgram) ProgramId() ed25519.PublicKey {
	return token.ProgramKey
}

// Process implements program.Program.Process
func (p *tokenProgram) Process(ctx context.Context, env *program.Env, ix solana.Instruction) error {
	command, err := token.GetCommand(ix)
	if err != nil {
		return solana.InstructionErrorInvalidInstructionData
	}

	switch command {
	case token.CommandInitializeMint2:
		decompiled, err := token.DecompileInitializeMint2(ix)
		if err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		return p.initializeMint(ctx, env, decompiled)
	case token.CommandInitializeAccount:
		decompiled, err := token.DecompileInitializeAccount(ix)
		if err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		return p.initializeAccount(ctx, env, decompiled)
	case token.CommandMintTo:
		decompiled, err := token.DecompileMintTo(ix)
		if err != nil {
			return solana.InstructionErrorInvalidInstructionData
		}
		return p.mintTo(ctx, env, decompiled)
	default:
		return token.ErrorInvalidInstruction
	}
}

func (p *tokenProgram) initializeMint(ctx context.Context, env *program.Env, decompiled *token.DecompiledInitializeMint2) error {
	data, err := loadTokenOwned(ctx, env, decompiled.Mint, token.MintSize)
	if err != nil {
		return err
	}

	var mint token.Mint
	if !mint.Unmarshal(data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if mint.IsInitialized {
		return token.ErrorAlreadyInUse
	}

	mint = token.Mint{
		MintAuthority:   decompiled.MintAuthority,
		Decimals:        decompiled.Decimals,
		IsInitialized:   true,
		FreezeAuthority: decompiled.FreezeAuthority,
	}
	if err := update(ctx, env, decompiled.Mint, mint.Marshal()); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"method":         "InitializeMint2",
		"mint":           base58.Encode(decompiled.Mint),
		"mint_authority": base58.Encode(decompiled.MintAuthority),
	}).Trace("mint initialized")
	return nil
}

func (p *tokenProgram) initializeAccount(ctx context.Context, env *program.Env, decompiled *token.DecompiledInitializeAccount) error {
	data, err := loadTokenOwned(ctx, env, decompiled.Account, token.AccountSize)
	if err != nil {
		return err
	}

	var account token.Account
	if !account.Unmarshal(data) {
		return solana.InstructionErrorInvalidAccountData
	}
	if account.State != token.AccountStateUninitialized {
		return token.ErrorAlreadyInUse
	}

	if _, err := loadMint(ctx, env, decompiled.Mint); err != nil {
		return token.ErrorInvalidMint
	}

	account = token.Account{
		Mint:  decompiled.Mint,
		Owner: decompiled.Owner,
		State: token.AccountStateInitialized,
	}
	if err := update(ctx, env, decompiled.Account, account.Marshal()); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"method":  "InitializeAccount",
		"account": base58.Encode(decompiled.Account),
		"mint":    base58.Encode(decompiled.Mint),
		"owner":   base58.Encode(decompiled.Owner),
	}).Trace("token account initialized")
	return nil
}

func (p *tokenProgram) mintTo(ctx context.Context, env *program.Env, decompiled *token.DecompiledMintTo) error {
	log := p.log.WithFields(logrus.Fields{
		"method":      "MintTo",
		"mint":        base58.Encode(decompiled.Mint),
		"destination": base58.Encode(decompiled.Destination),
		"amount":      decompiled.Amount,
	})

	destinationData, err := loadTokenOwned(ctx, env, decompiled.Destination, token.AccountSize)
	if err != nil {
		return err
	}
	var destination token.Account
	if !destination.Unmarshal(destinationData) {
		return solana.InstructionErrorInvalidAccountData
	}
	switch destination.State {
	case token.AccountStateUninitialized:
		return token.ErrorUninitializedState
	case token.AccountStateFrozen:
		return token.ErrorAccountFrozen
	}
	if !destination.Mint.Equal(decompiled.Mint) {
		return token.ErrorMintMismatch
	}

	mint, err := loadMint(ctx, env, decompiled.Mint)
	if err != nil {
		return err
	}

	if len(mint.MintAuthority) == 0 {
		return token.ErrorFixedSupply
	}
	if !mint.MintAuthority.Equal(decompiled.Authority) {
		log.Debug("mint authority mismatch")
		return token.ErrorOwnerMismatch
	}
	if !env.IsSigner(decompiled.Authority) {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if destination.Amount > math.MaxUint64-decompiled.Amount {
		return token.ErrorOverflow
	}
	if mint.Supply > math.MaxUint64-decompiled.Amount {
		log.Debug("supply overflow")
		return token.ErrorOverflow
	}
	destination.Amount += decompiled.Amount
	mint.Supply += decompiled.Amount

	if err := update(ctx, env, decompiled.Destination, destination.Marshal()); err != nil {
		return err
	}
	if err := update(ctx, env, decompiled.Mint, mint.Marshal()); err != nil {
		return err
	}

	log.Trace("tokens minted")
	return nil
}

// loadTokenOwned returns the data of a token program account with the
// expected allocation
func loadTokenOwned(ctx context.Context, env *program.Env, address ed25519.PublicKey, size int) ([]byte, error) {
	record, err := env.Txn.Get(ctx, base58.Encode(address))
	if err == ledger.ErrAccountNotFound {
		// Unallocated accounts belong to the system program
		return nil, solana.InstructionErrorIncorrectProgramID
	} else if err != nil {
		return nil, err
	}

	if !record.IsOwnedBy(base58.Encode(token.ProgramKey)) {
		return nil, solana.InstructionErrorIncorrectProgramID
	}
	if len(record.Data) != size {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	return record.Data, nil
}

// loadMint returns an initialized mint
func loadMint(ctx context.Context, env *program.Env, address ed25519.PublicKey) (*token.Mint, error) {
	data, err := loadTokenOwned(ctx, env, address, token.MintSize)
	if err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(data) {
		return nil, solana.InstructionErrorInvalidAccountData
	}
	if !mint.IsInitialized {
		return nil, token.ErrorUninitializedState
	}
	return &mint, nil
}
