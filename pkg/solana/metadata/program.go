package metadata

import (
	"crypto/ed25519"

	"github.com/code-payments/code-authority-server/pkg/solana"
)

// ProgramKey is the address of the token metadata program.
//
// Current key: metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s
var ProgramKey = solana.MustBase58Decode("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

var MetadataPrefix = []byte("metadata")

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxUriLength    = 200

	MaxCreatorLimit = 5

	// MaxMetadataAccountSize is the allocation of a Metadata account
	//
	// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/main/programs/token-metadata/program/src/state/metadata.rs
	MaxMetadataAccountSize = 679
)

// Reference: https://github.com/metaplex-foundation/mpl-token-metadata/blob/main/programs/token-metadata/program/src/error.rs
const (
	ErrorInstructionUnpack solana.CustomError = iota
	ErrorInstructionPack
	ErrorNotRentExempt
	ErrorAlreadyInitialized
	ErrorUninitialized
	ErrorInvalidMetadataKey
	ErrorInvalidEditionKey
	ErrorUpdateAuthorityIncorrect
	ErrorUpdateAuthorityIsNotSigner
	ErrorNotMintAuthority
	ErrorInvalidMintAuthority
	ErrorNameTooLong
	ErrorSymbolTooLong
	ErrorUriTooLong
)

// GetMetadataAddress returns the metadata account address for a mint.
func GetMetadataAddress(mint ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		ProgramKey,
		MetadataPrefix,
		ProgramKey,
		mint,
	)
}
