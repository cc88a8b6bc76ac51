package solana

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrIncorrectProgram     = errors.New("incorrect program")
	ErrIncorrectInstruction = errors.New("incorrect instruction")
	ErrNotEnoughAccountKeys = errors.New("not enough account keys")
)

// AccountMeta represents the account information required
// for building transactions.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Instruction represents a transaction instruction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// CheckProgram validates the instruction targets the expected program and
// references at least minAccounts accounts.
func (i Instruction) CheckProgram(program ed25519.PublicKey, minAccounts int) error {
	if !bytes.Equal(i.Program, program) {
		return ErrIncorrectProgram
	}
	if len(i.Accounts) < minAccounts {
		return errors.Wrapf(ErrNotEnoughAccountKeys, "have %d, need %d", len(i.Accounts), minAccounts)
	}
	return nil
}

// Account returns the public key of the account at the provided index.
func (i Instruction) Account(index int) ed25519.PublicKey {
	return i.Accounts[index].PublicKey
}

// Signers returns the accounts that the instruction marks as signers.
func (i Instruction) Signers() []ed25519.PublicKey {
	var signers []ed25519.PublicKey
	for _, account := range i.Accounts {
		if account.IsSigner {
			signers = append(signers, account.PublicKey)
		}
	}
	return signers
}
