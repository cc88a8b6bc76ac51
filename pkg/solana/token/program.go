package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

// ProgramKey is the address of the token program that should be used.
//
// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
var ProgramKey = ed25519.PublicKey{6, 221, 246, 225, 215, 101, 161, 147, 217, 203, 225, 70, 206, 235, 121, 172, 28, 180, 133, 237, 95, 91, 55, 145, 58, 140, 245, 133, 126, 255, 0, 169}

type Command byte

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs
const (
	CommandInitializeMint Command = iota
	CommandInitializeAccount
	CommandInitializeMultisig
	CommandTransfer
	CommandApprove
	CommandRevoke
	CommandSetAuthority
	CommandMintTo
	CommandBurn
	CommandCloseAccount
	CommandFreezeAccount
	CommandThawAccount
	CommandTransfer2
	CommandApprove2
	CommandMintTo2
	CommandBurn2
	CommandInitializeAccount2
	CommandSyncNative
	CommandInitializeAccount3
	CommandInitializeMultisig2
	CommandInitializeMint2

	CommandUnknown = Command(math.MaxUint8)
)

const (
	ErrorNotRentExempt solana.CustomError = iota
	ErrorInsufficientFunds
	ErrorInvalidMint
	ErrorMintMismatch
	ErrorOwnerMismatch
	ErrorFixedSupply
	ErrorAlreadyInUse
	ErrorInvalidNumberOfProvidedSigners
	ErrorInvalidNumberOfRequiredSigners
	ErrorUninitializedState
	ErrorNativeNotSupported
	ErrorNonNativeHasBalance
	ErrorInvalidInstruction
	ErrorInvalidState
	ErrorOverflow
	ErrorAuthorityTypeNotSupported
	ErrorMintCannotFreeze
	ErrorAccountFrozen
	ErrorMintDecimalsMismatch
)

// GetCommand returns the token command encoded in the instruction.
func GetCommand(i solana.Instruction) (Command, error) {
	if err := i.CheckProgram(ProgramKey, 0); err != nil {
		return CommandUnknown, err
	}
	if len(i.Data) == 0 {
		return CommandUnknown, errors.New("token instruction missing data")
	}

	return Command(i.Data[0]), nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L443-L452
func InitializeMint2(mint, mintAuthority, freezeAuthority ed25519.PublicKey, decimals byte) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]` The mint to initialize.
	//
	// Data: decimals, mint authority, COption<freeze authority>
	data := make([]byte, 1+1+ed25519.PublicKeySize+1)
	data[0] = byte(CommandInitializeMint2)
	data[1] = decimals
	copy(data[2:], mintAuthority)
	if len(freezeAuthority) > 0 {
		data[2+ed25519.PublicKeySize] = 1
		data = append(data, freezeAuthority...)
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
	)
}

type DecompiledInitializeMint2 struct {
	Mint            ed25519.PublicKey
	Decimals        byte
	MintAuthority   ed25519.PublicKey
	FreezeAuthority ed25519.PublicKey
}

func DecompileInitializeMint2(i solana.Instruction) (*DecompiledInitializeMint2, error) {
	if err := i.CheckProgram(ProgramKey, 1); err != nil {
		return nil, err
	}

	base := 1 + 1 + ed25519.PublicKeySize + 1
	if len(i.Data) < base || i.Data[0] != byte(CommandInitializeMint2) {
		return nil, solana.ErrIncorrectInstruction
	}

	v := &DecompiledInitializeMint2{
		Mint:          i.Account(0),
		Decimals:      i.Data[1],
		MintAuthority: ed25519.PublicKey(i.Data[2 : 2+ed25519.PublicKeySize]),
	}

	switch i.Data[base-1] {
	case 0:
		if len(i.Data) != base {
			return nil, errors.Errorf("invalid data size: %d (expect %d)", len(i.Data), base)
		}
	case 1:
		if len(i.Data) != base+ed25519.PublicKeySize {
			return nil, errors.Errorf("invalid data size: %d (expect %d)", len(i.Data), base+ed25519.PublicKeySize)
		}
		v.FreezeAuthority = ed25519.PublicKey(i.Data[base:])
	default:
		return nil, solana.ErrIncorrectInstruction
	}

	return v, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L41-L55
func InitializeAccount(account, mint, owner ed25519.PublicKey) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   0. `[writable]`  The account to initialize.
	//   1. `[]` The mint this account will be associated with.
	//   2. `[]` The new account's owner/multisignature.
	//   3. `[]` Rent sysvar
	return solana.NewInstruction(
		ProgramKey,
		[]byte{byte(CommandInitializeAccount)},
		solana.NewAccountMeta(account, false),
		solana.NewReadonlyAccountMeta(mint, false),
		solana.NewReadonlyAccountMeta(owner, false),
		solana.NewReadonlyAccountMeta(system.RentSysVar, false),
	)
}

type DecompiledInitializeAccount struct {
	Account ed25519.PublicKey
	Mint    ed25519.PublicKey
	Owner   ed25519.PublicKey
}

func DecompileInitializeAccount(i solana.Instruction) (*DecompiledInitializeAccount, error) {
	if err := i.CheckProgram(ProgramKey, 0); err != nil {
		return nil, err
	}
	if len(i.Data) != 1 || i.Data[0] != byte(CommandInitializeAccount) {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if !i.Account(3).Equal(system.RentSysVar) {
		return nil, errors.Errorf("invalid rent program")
	}

	return &DecompiledInitializeAccount{
		Account: i.Account(0),
		Mint:    i.Account(1),
		Owner:   i.Account(2),
	}, nil
}

// Reference: https://github.com/solana-labs/solana-program-library/blob/b011698251981b5a12088acba18fad1d41c3719a/token/program/src/instruction.rs#L141-L156
func MintTo(mint, dest, authority ed25519.PublicKey, amount uint64) solana.Instruction {
	// Accounts expected by this instruction:
	//
	//   * Single authority
	//   0. `[writable]` The mint.
	//   1. `[writable]` The account to mint tokens to.
	//   2. `[signer]` The mint's minting authority.
	data := make([]byte, 1+8)
	data[0] = byte(CommandMintTo)
	binary.LittleEndian.PutUint64(data[1:], amount)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(mint, false),
		solana.NewAccountMeta(dest, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

type DecompiledMintTo struct {
	Mint        ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
	Amount      uint64
}

func DecompileMintTo(i solana.Instruction) (*DecompiledMintTo, error) {
	if err := i.CheckProgram(ProgramKey, 0); err != nil {
		return nil, err
	}
	if len(i.Data) == 0 || i.Data[0] != byte(CommandMintTo) {
		return nil, solana.ErrIncorrectInstruction
	}
	// note: we do < 3 instead of != 3 in order to support multisig cases.
	if len(i.Accounts) < 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != 9 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledMintTo{
		Mint:        i.Account(0),
		Destination: i.Account(1),
		Authority:   i.Account(2),
		Amount:      binary.LittleEndian.Uint64(i.Data[1:]),
	}, nil
}
