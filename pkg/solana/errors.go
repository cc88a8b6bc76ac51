package solana

import (
	"fmt"

	"github.com/pkg/errors"
)

// InstructionErrorKey is the string keys returned in an instruction error.
//
// Source: https://github.com/solana-labs/solana/blob/4e2754341514cd181ae3f373cc2548bd22e918b8/sdk/program/src/instruction.rs#L23
type InstructionErrorKey string

const (
	InstructionErrorGenericError              InstructionErrorKey = "GenericError"
	InstructionErrorInvalidArgument           InstructionErrorKey = "InvalidArgument"
	InstructionErrorInvalidInstructionData    InstructionErrorKey = "InvalidInstructionData"
	InstructionErrorInvalidAccountData        InstructionErrorKey = "InvalidAccountData"
	InstructionErrorAccountDataTooSmall       InstructionErrorKey = "AccountDataTooSmall"
	InstructionErrorIncorrectProgramID        InstructionErrorKey = "IncorrectProgramId"
	InstructionErrorMissingRequiredSignature  InstructionErrorKey = "MissingRequiredSignature"
	InstructionErrorAccountAlreadyInitialized InstructionErrorKey = "AccountAlreadyInitialized"
	InstructionErrorUninitializedAccount      InstructionErrorKey = "UninitializedAccount"
	InstructionErrorNotEnoughAccountKeys      InstructionErrorKey = "NotEnoughAccountKeys"
	InstructionErrorCustom                    InstructionErrorKey = "Custom"
	InstructionErrorUnsupportedProgramID      InstructionErrorKey = "UnsupportedProgramId"
	InstructionErrorCallDepth                 InstructionErrorKey = "CallDepth"
	InstructionErrorMaxSeedLengthExceeded     InstructionErrorKey = "MaxSeedLengthExceeded"
	InstructionErrorInvalidSeeds              InstructionErrorKey = "InvalidSeeds"
	InstructionErrorMissingAccount            InstructionErrorKey = "MissingAccount"
	InstructionErrorReadonlyDataModified      InstructionErrorKey = "ReadonlyDataModified"
	InstructionErrorPrivilegeEscalation       InstructionErrorKey = "PrivilegeEscalation"
)

// Error allows keys to be returned directly by program processors.
func (k InstructionErrorKey) Error() string {
	return string(k)
}

// CustomError is the numerical error returned by a non-system program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %x", int(c))
}

// InstructionError indicates an instruction returned an error in a transaction.
type InstructionError struct {
	Index int
	Err   error
}

func (i InstructionError) Error() string {
	return fmt.Sprintf("Error processing Instruction %d: %v", i.Index, i.Err)
}

// Unwrap exposes the program error so callers can match on it with errors.Is.
func (i InstructionError) Unwrap() error {
	return i.Err
}

func (i InstructionError) ErrorKey() InstructionErrorKey {
	if i.Err == nil {
		return ""
	}

	if i.CustomError() != nil {
		return InstructionErrorCustom
	}

	var key InstructionErrorKey
	if errors.As(i.Err, &key) {
		return key
	}

	return InstructionErrorKey(i.Err.Error())
}

func (i InstructionError) CustomError() *CustomError {
	var ce CustomError
	if errors.As(i.Err, &ce) {
		return &ce
	}

	return nil
}
