package localnet

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
	"github.com/code-payments/code-authority-server/pkg/solana/token"
)

// associatedTokenAccountProgram creates token accounts at the address derived
// from their owner and mint
type associatedTokenAccountProgram struct {
	log *logrus.Entry
}

func newAssociatedTokenAccountProgram() program.Program {
	return &associatedTokenAccountProgram{
		log: logrus.StandardLogger().WithField("type", "localnet/associated"),
	}
}

// ProgramId implements program.Program.ProgramId
func (p *associatedTokenAccountProgram) ProgramId() ed25519.PublicKey {
	return token.AssociatedTokenAccountProgramKey
}

// Process implements program.Program.Process
func (p *associatedTokenAccountProgram) Process(ctx context.Context, env *program.Env, ix solana.Instruction) error {
	decompiled, err := token.DecompileCreateAssociatedAccount(ix)
	if err != nil {
		return solana.InstructionErrorInvalidInstructionData
	}

	log := p.log.WithFields(logrus.Fields{
		"method":  "Create",
		"address": base58.Encode(decompiled.Address),
		"owner":   base58.Encode(decompiled.Owner),
		"mint":    base58.Encode(decompiled.Mint),
	})

	expected, bump, err := token.GetAssociatedAccountAndBump(decompiled.Owner, decompiled.Mint)
	if err != nil {
		return solana.InstructionErrorInvalidSeeds
	}
	if !expected.Equal(decompiled.Address) {
		log.Debug("associated address mismatch")
		return solana.InstructionErrorInvalidSeeds
	}

	proof := program.AuthorityProof{
		Seeds: [][]byte{decompiled.Owner, token.ProgramKey, decompiled.Mint},
		Bump:  bump,
	}
	allocate := system.CreateAccount(decompiled.Subsidizer, decompiled.Address, token.ProgramKey, 0, token.AccountSize)
	if err := env.Invoke(ctx, allocate, proof); err != nil {
		return err
	}

	if err := env.Invoke(ctx, token.InitializeAccount(decompiled.Address, decompiled.Mint, decompiled.Owner)); err != nil {
		return err
	}

	log.Trace("associated token account created")
	return nil
}
