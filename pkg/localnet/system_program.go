package localnet

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

// systemProgram allocates new accounts. Lamports aren't tracked, so a created
// account is only an allocation of zeroed data bound to an owning program.
type systemProgram struct {
	log *logrus.Entry
}

func newSystemProgram() program.Program {
	return &systemProgram{
		log: logrus.StandardLogger().WithField("type", "localnet/system"),
	}
}

// ProgramId implements program.Program.ProgramId
func (p *systemProgram) ProgramId() ed25519.PublicKey {
	return system.ProgramKey
}

// Process implements program.Program.Process
func (p *systemProgram) Process(ctx context.Context, env *program.Env, ix solana.Instruction) error {
	decompiled, err := system.DecompileCreateAccount(ix)
	if err != nil {
		return solana.InstructionErrorInvalidInstructionData
	}

	log := p.log.WithFields(logrus.Fields{
		"method":  "CreateAccount",
		"address": base58.Encode(decompiled.Address),
		"owner":   base58.Encode(decompiled.Owner),
		"size":    decompiled.Size,
	})

	if !env.IsSigner(decompiled.Funder) || !env.IsSigner(decompiled.Address) {
		return solana.InstructionErrorMissingRequiredSignature
	}

	if !env.IsWritable(decompiled.Address) {
		return solana.InstructionErrorReadonlyDataModified
	}

	if decompiled.Size > system.MaxPermittedDataLength {
		return system.ErrorInvalidAccountDataLength
	}

	err = env.Txn.Create(ctx, &ledger.Record{
		Address: base58.Encode(decompiled.Address),
		Owner:   base58.Encode(decompiled.Owner),
		Data:    make([]byte, decompiled.Size),
	})
	if err == ledger.ErrAccountExists {
		log.Debug("account already in use")
		return system.ErrorAccountAlreadyInUse
	} else if err != nil {
		return err
	}

	log.Trace("account created")
	return nil
}
