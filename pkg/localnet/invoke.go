package localnet

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
)

// invoker handles the cross-program invocations of one top-level instruction
type invoker struct {
	programs map[string]program.Program
	maxDepth uint64

	// accounts referenced by the enclosing transaction
	accounts map[string]struct{}

	inner *[]solana.Instruction
}

// Invoke implements program.Invoker.Invoke
//
// The callee may treat an account as a signer only when the caller holds
// signer privilege for it, or when it's the address derived from one of the
// proofs under the caller's program id. Derived signer privilege lasts for
// this invocation only. Write access is never widened: the callee may only
// modify accounts the caller may modify and the inner instruction marks
// writable.
func (i *invoker) Invoke(ctx context.Context, caller *program.Env, ix solana.Instruction, proofs ...program.AuthorityProof) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if uint64(caller.Depth) >= i.maxDepth {
		return solana.InstructionErrorCallDepth
	}

	target, ok := i.programs[base58.Encode(ix.Program)]
	if !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	privileged := make([]ed25519.PublicKey, 0, len(caller.Signers)+len(proofs))
	privileged = append(privileged, caller.Signers...)
	for _, proof := range proofs {
		signer, err := proof.Signer(caller.ProgramId)
		if err == solana.ErrMaxSeedLengthExceeded {
			return solana.InstructionErrorMaxSeedLengthExceeded
		} else if err != nil {
			return solana.InstructionErrorInvalidSeeds
		}
		privileged = append(privileged, signer)
	}

	var signers, writable []ed25519.PublicKey
	for _, account := range ix.Accounts {
		if _, ok := i.accounts[base58.Encode(account.PublicKey)]; !ok {
			return solana.InstructionErrorMissingAccount
		}

		if account.IsWritable {
			if !caller.IsWritable(account.PublicKey) {
				return solana.InstructionErrorPrivilegeEscalation
			}
			writable = append(writable, account.PublicKey)
		}

		if !account.IsSigner {
			continue
		}
		if !containsKey(privileged, account.PublicKey) {
			return solana.InstructionErrorMissingRequiredSignature
		}
		signers = append(signers, account.PublicKey)
	}

	*i.inner = append(*i.inner, ix)

	callee := &program.Env{
		ProgramId: ix.Program,
		Txn:       caller.Txn,
		Signers:   signers,
		Writable:  writable,
		Depth:     caller.Depth + 1,
		Invoker:   i,
	}
	return target.Process(ctx, callee, ix)
}

// update stages new data for an account the executing instruction may modify
func update(ctx context.Context, env *program.Env, address ed25519.PublicKey, data []byte) error {
	if !env.IsWritable(address) {
		return solana.InstructionErrorReadonlyDataModified
	}
	return env.Txn.Update(ctx, base58.Encode(address), data)
}
