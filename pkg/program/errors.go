package program

import (
	"fmt"
)

// Class is the failure category of a program error. Callers match on a class
// with errors.Is, regardless of which program produced the error.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassAddressMismatch
	ClassAlreadyExists
	ClassRecordNotFound
	ClassUnauthorized
	ClassFieldMismatch
	ClassNumericalOverflow
	ClassInvalidInstruction
)

func (c Class) String() string {
	switch c {
	case ClassAddressMismatch:
		return "address mismatch"
	case ClassAlreadyExists:
		return "already exists"
	case ClassRecordNotFound:
		return "record not found"
	case ClassUnauthorized:
		return "unauthorized"
	case ClassFieldMismatch:
		return "field mismatch"
	case ClassNumericalOverflow:
		return "numerical overflow"
	case ClassInvalidInstruction:
		return "invalid instruction"
	}
	return "unknown"
}

func (c Class) Error() string {
	return c.String()
}

// Error is a program error. Code and Name identify the error within the
// program that defines it.
type Error struct {
	Code    uint32
	Name    string
	Message string
	Class   Class
}

func NewError(code uint32, name, message string, class Class) *Error {
	return &Error{
		Code:    code,
		Name:    name,
		Message: message,
		Class:   class,
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("Error Code: %s. Error Number: %d. Error Message: %s.", e.Name, e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Class:
		return e.Class == t
	case *Error:
		return t != nil && e.Code == t.Code && e.Name == t.Name
	}
	return false
}

// Instruction and account framework errors
//
// Reference: https://github.com/coral-xyz/anchor/blob/master/lang/src/error.rs
var (
	ErrInstructionMissing           = NewError(100, "InstructionMissing", "8 byte instruction identifier not provided", ClassInvalidInstruction)
	ErrInstructionFallbackNotFound  = NewError(101, "InstructionFallbackNotFound", "Fallback functions are not supported", ClassInvalidInstruction)
	ErrInstructionDidNotDeserialize = NewError(102, "InstructionDidNotDeserialize", "The program could not deserialize the given instruction", ClassInvalidInstruction)

	ErrConstraintHasOne  = NewError(2001, "ConstraintHasOne", "A has one constraint was violated", ClassFieldMismatch)
	ErrAddressMismatch   = NewError(2006, "ConstraintSeeds", "A seeds constraint was violated", ClassAddressMismatch)
	ErrConstraintAddress = NewError(2012, "ConstraintAddress", "An address constraint was violated", ClassFieldMismatch)

	ErrAccountDiscriminatorMismatch = NewError(3002, "AccountDiscriminatorMismatch", "8 byte discriminator did not match what was expected", ClassFieldMismatch)
	ErrAccountDidNotDeserialize     = NewError(3003, "AccountDidNotDeserialize", "Failed to deserialize the account", ClassFieldMismatch)
	ErrAccountNotEnoughKeys         = NewError(3005, "AccountNotEnoughKeys", "Not enough account keys given to the instruction", ClassInvalidInstruction)
	ErrAccountNotMutable            = NewError(3006, "AccountNotMutable", "The given account is not mutable", ClassInvalidInstruction)
	ErrAccountOwnedByWrongProgram   = NewError(3007, "AccountOwnedByWrongProgram", "The given account is owned by a different program than expected", ClassFieldMismatch)
	ErrInvalidProgramId             = NewError(3008, "InvalidProgramId", "Program ID was not as expected", ClassFieldMismatch)
	ErrAccountNotSigner             = NewError(3010, "AccountNotSigner", "The given account did not sign", ClassUnauthorized)
	ErrRecordNotFound               = NewError(3012, "AccountNotInitialized", "The program expected this account to be already initialized", ClassRecordNotFound)
	ErrAlreadyExists                = NewError(3016, "AccountAlreadyInitialized", "An account is already bound to the derived address", ClassAlreadyExists)
)
