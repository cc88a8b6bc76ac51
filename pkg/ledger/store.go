package ledger

import (
	"context"
)

type ChangeType uint8

const (
	ChangeTypeUnknown ChangeType = iota
	ChangeTypeCreate
	ChangeTypeUpdate
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeCreate:
		return "create"
	case ChangeTypeUpdate:
		return "update"
	}
	return "unknown"
}

// Change is a single staged modification to a ledger account.
type Change struct {
	Type   ChangeType
	Record *Record
}

type Store interface {
	// Get gets a ledger account by its address
	Get(ctx context.Context, address string) (*Record, error)

	// Apply atomically applies a set of changes. Either every change is
	// applied, or none are.
	//
	// Creates fail with ErrAccountExists when the address is already in use.
	// Updates fail with ErrAccountNotFound when the account doesn't exist, and
	// ErrStaleVersion when the record's version doesn't match what's stored.
	//
	// On success, the provided records are updated with their new versions
	// and timestamps.
	Apply(ctx context.Context, changes ...*Change) error
}
