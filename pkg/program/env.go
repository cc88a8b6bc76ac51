package program

import (
	"bytes"
	"context"
	"crypto/ed25519"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/solana"
)

// Program processes instructions addressed to its program id
type Program interface {
	ProgramId() ed25519.PublicKey
	Process(ctx context.Context, env *Env, ix solana.Instruction) error
}

// Invoker dispatches cross-program invocations. Proofs let the calling
// program sign for its derived addresses for the duration of the call.
type Invoker interface {
	Invoke(ctx context.Context, caller *Env, ix solana.Instruction, proofs ...AuthorityProof) error
}

// Env is the execution environment of a single instruction
type Env struct {
	// ProgramId is the program executing the instruction
	ProgramId ed25519.PublicKey

	// Txn stages every ledger write of the enclosing transaction
	Txn *ledger.Txn

	// Signers are the accounts with signer privilege for the instruction
	Signers []ed25519.PublicKey

	// Writable are the accounts the instruction may modify
	Writable []ed25519.PublicKey

	// Depth is the invocation depth, starting at 1 for transaction level
	// instructions
	Depth int

	Invoker Invoker
}

// IsSigner returns whether the account has signer privilege
func (e *Env) IsSigner(account ed25519.PublicKey) bool {
	return containsKey(e.Signers, account)
}

// IsWritable returns whether the account may be modified
func (e *Env) IsWritable(account ed25519.PublicKey) bool {
	return containsKey(e.Writable, account)
}

// Invoke calls another program on behalf of the executing program
func (e *Env) Invoke(ctx context.Context, ix solana.Instruction, proofs ...AuthorityProof) error {
	return e.Invoker.Invoke(ctx, e, ix, proofs...)
}

// RequireSigner fails with ErrAccountNotSigner unless the account signed
func (e *Env) RequireSigner(account ed25519.PublicKey) error {
	if !e.IsSigner(account) {
		return ErrAccountNotSigner
	}
	return nil
}

// RequireWritable fails with ErrAccountNotMutable unless the account may be
// modified
func (e *Env) RequireWritable(account ed25519.PublicKey) error {
	if !e.IsWritable(account) {
		return ErrAccountNotMutable
	}
	return nil
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if bytes.Equal(k, key) {
			return true
		}
	}
	return false
}
