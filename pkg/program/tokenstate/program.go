package tokenstate

import (
	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
)

var (
	PROGRAM_ADDRESS = solana.MustBase58Decode("ErdLiDbat2pkpij1ykatMERv2hkFmv6V8RgC77jfFcCD")
	PROGRAM_ID      = PROGRAM_ADDRESS
)

var (
	ErrUnauthorized           = program.NewError(6000, "Unauthorized", "The provided authority is not permitted to perform this action", program.ClassUnauthorized)
	ErrInvalidRecipient       = program.NewError(6001, "InvalidRecipient", "Recipient account does not match the configured mint", program.ClassFieldMismatch)
	ErrInvalidMetadataAccount = program.NewError(6002, "InvalidMetadataAccount", "Metadata account does not match the expected PDA", program.ClassFieldMismatch)
	ErrInvalidMetadataProgram = program.NewError(6003, "InvalidMetadataProgram", "Incorrect token metadata program account provided", program.ClassFieldMismatch)

	// The state's mint binding is checked as a has one constraint
	ErrInvalidMint = program.ErrConstraintHasOne

	ErrInvalidTokenProgram = program.ErrInvalidProgramId
)
