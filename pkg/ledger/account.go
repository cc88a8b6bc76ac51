package ledger

import (
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	ErrAccountNotFound = errors.New("ledger account not found")
	ErrAccountExists   = errors.New("ledger account already exists")
	ErrStaleVersion    = errors.New("ledger account version is stale")
	ErrInvalidRecord   = errors.New("invalid ledger account record")
)

// Record is the persisted state of a single ledger account. Accounts are
// keyed by their base58 encoded address and are owned by exactly one program,
// which is the only one permitted to modify Data.
type Record struct {
	Id uint64

	Address string
	Owner   string

	Data []byte

	// Version is incremented on every applied update and is used for
	// optimistic concurrency control.
	Version uint64

	CreatedAt     time.Time
	LastUpdatedAt time.Time
}

func (r *Record) Validate() error {
	if r == nil {
		return errors.Wrap(ErrInvalidRecord, "record is nil")
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"address", r.Address},
		{"owner", r.Owner},
	} {
		if len(field.value) == 0 {
			return errors.Wrapf(ErrInvalidRecord, "%s is required", field.name)
		}

		decoded, err := base58.Decode(field.value)
		if err != nil || len(decoded) != 32 {
			return errors.Wrapf(ErrInvalidRecord, "%s is not a valid public key", field.name)
		}
	}

	return nil
}

// IsOwnedBy returns whether the account is owned by the provided program
// address.
func (r *Record) IsOwnedBy(owner string) bool {
	return r.Owner == owner
}

func (r *Record) Clone() *Record {
	data := make([]byte, len(r.Data))
	copy(data, r.Data)

	return &Record{
		Id: r.Id,

		Address: r.Address,
		Owner:   r.Owner,

		Data: data,

		Version: r.Version,

		CreatedAt:     r.CreatedAt,
		LastUpdatedAt: r.LastUpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Owner = r.Owner

	dst.Data = make([]byte, len(r.Data))
	copy(dst.Data, r.Data)

	dst.Version = r.Version

	dst.CreatedAt = r.CreatedAt
	dst.LastUpdatedAt = r.LastUpdatedAt
}
