package metadata

import (
	"crypto/ed25519"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

type AccountKey uint8

const (
	AccountKeyUninitialized AccountKey = 0
	AccountKeyMetadataV1    AccountKey = 4
)

// MetadataAccount is the prefix of the metadata program's Metadata account
// that is relevant to mints created here.
type MetadataAccount struct {
	Key                  AccountKey
	UpdateAuthority      Key
	Mint                 Key
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]Creator
	PrimarySaleHappened  bool
	IsMutable            bool
	EditionNonce         *uint8
	Collection           *Collection
	Uses                 *Uses
	CollectionDetails    *CollectionDetails
}

func (m *MetadataAccount) Marshal() ([]byte, error) {
	return borsh.Serialize(*m)
}

func (m *MetadataAccount) Unmarshal(data []byte) error {
	if len(data) == 0 {
		return errors.New("empty metadata account data")
	}
	if AccountKey(data[0]) != AccountKeyMetadataV1 {
		return errors.Errorf("unexpected metadata account key %d", data[0])
	}
	if err := borsh.Deserialize(m, data); err != nil {
		return err
	}
	return m.clearAbsentOptions(data)
}

// clearAbsentOptions sets the options the encoded account marks as None to
// nil
func (m *MetadataAccount) clearAbsentOptions(data []byte) error {
	r := &optionReader{data: data}
	r.skip(1 + 2*ed25519.PublicKeySize)
	r.skipString()
	r.skipString()
	r.skipString()
	r.skip(2)
	hasCreators := r.creators()
	r.skip(2)
	hasEditionNonce := r.option(editionNonceSize)
	hasCollection := r.option(collectionSize)
	hasUses := r.option(usesSize)
	hasCollectionDetails := r.option(collectionDetailsSize)
	if r.err != nil {
		return r.err
	}

	if !hasCreators {
		m.Creators = nil
	}
	if !hasEditionNonce {
		m.EditionNonce = nil
	}
	if !hasCollection {
		m.Collection = nil
	}
	if !hasUses {
		m.Uses = nil
	}
	if !hasCollectionDetails {
		m.CollectionDetails = nil
	}
	return nil
}
