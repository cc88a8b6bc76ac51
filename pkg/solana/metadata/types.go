package metadata

import (
	"crypto/ed25519"
)

// Key is a borsh encoded 32 byte public key.
type Key [ed25519.PublicKeySize]byte

func NewKey(pub ed25519.PublicKey) Key {
	var k Key
	copy(k[:], pub)
	return k
}

func (k Key) PublicKey() ed25519.PublicKey {
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, k[:])
	return pub
}

type Creator struct {
	Address  Key
	Verified bool
	Share    uint8
}

type Collection struct {
	Verified bool
	Key      Key
}

type UseMethod uint8

const (
	UseMethodBurn UseMethod = iota
	UseMethodMultiple
	UseMethodSingle
)

type Uses struct {
	UseMethod UseMethod
	Remaining uint64
	Total     uint64
}

// CollectionDetails only carries the V1 variant, which is the single variant
// accepted at creation.
type CollectionDetails struct {
	Variant uint8
	Size    uint64
}

type DataV2 struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
	Collection           *Collection
	Uses                 *Uses
}

// Validate checks the field length limits enforced by the metadata program.
func (d *DataV2) Validate() error {
	if len(d.Name) > MaxNameLength {
		return ErrorNameTooLong
	}
	if len(d.Symbol) > MaxSymbolLength {
		return ErrorSymbolTooLong
	}
	if len(d.Uri) > MaxUriLength {
		return ErrorUriTooLong
	}
	if d.Creators != nil && len(*d.Creators) > MaxCreatorLimit {
		return ErrorInstructionUnpack
	}
	return nil
}
