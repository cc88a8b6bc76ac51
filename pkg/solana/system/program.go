package system

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/solana"
)

// ProgramKey is the address of the system program.
//
// Current key: 11111111111111111111111111111111
var ProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

const (
	commandCreateAccount uint32 = iota
	commandAssign
	commandTransfer
)

// Reference: https://github.com/solana-labs/solana/blob/7e5a7de0a0b5be63bf5df0c3d8a8d8b5c3f2a97e/sdk/program/src/system_instruction.rs#L79
const (
	ErrorAccountAlreadyInUse solana.CustomError = iota
	ErrorResultWithNegativeLamports
	ErrorInvalidProgramId
	ErrorInvalidAccountDataLength
)

// MaxPermittedDataLength is the largest allocation a CreateAccount may request.
const MaxPermittedDataLength = 10 * 1024 * 1024

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	//
	// CreateAccount {
	//   // Number of lamports to transfer to the new account
	//   lamports: u64,
	//   // Number of bytes of memory to allocate
	//   space: u64,
	//
	//   //Address of program that will own the new account
	//   owner: Pubkey,
	// }
	//
	data := make([]byte, 4+2*8+32)
	binary.LittleEndian.PutUint32(data, commandCreateAccount)
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

func DecompileCreateAccount(i solana.Instruction) (*DecompiledCreateAccount, error) {
	if err := i.CheckProgram(ProgramKey, 2); err != nil {
		return nil, err
	}
	if len(i.Data) != 52 {
		return nil, solana.ErrIncorrectInstruction
	}
	if binary.LittleEndian.Uint32(i.Data) != commandCreateAccount {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}

	return &DecompiledCreateAccount{
		Funder:   i.Account(0),
		Address:  i.Account(1),
		Lamports: binary.LittleEndian.Uint64(i.Data[4:]),
		Size:     binary.LittleEndian.Uint64(i.Data[12:]),
		Owner:    ed25519.PublicKey(i.Data[20:52]),
	}, nil
}
