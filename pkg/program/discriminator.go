package program

import (
	"crypto/sha256"
)

const DiscriminatorSize = 8

// HeaderSize is the number of bytes reserved ahead of a record's fields
const HeaderSize = DiscriminatorSize

type Discriminator [DiscriminatorSize]byte

// AccountDiscriminator returns the header that tags accounts holding the
// named record type
func AccountDiscriminator(name string) Discriminator {
	return newDiscriminator("account:" + name)
}

// InstructionDiscriminator returns the prefix that selects the named
// instruction handler
func InstructionDiscriminator(name string) Discriminator {
	return newDiscriminator("global:" + name)
}

func newDiscriminator(preimage string) Discriminator {
	var d Discriminator
	h := sha256.Sum256([]byte(preimage))
	copy(d[:], h[:DiscriminatorSize])
	return d
}

// ParseInstruction splits instruction data into its discriminator and the
// encoded arguments
func ParseInstruction(data []byte) (Discriminator, []byte, error) {
	var d Discriminator
	if len(data) < DiscriminatorSize {
		return d, nil, ErrInstructionMissing
	}
	copy(d[:], data)
	return d, data[DiscriminatorSize:], nil
}
