package memory

import (
	"context"
	"sync"
	"time"

	"github.com/code-payments/code-authority-server/pkg/ledger"
)

type store struct {
	mu      sync.Mutex
	records map[string]*ledger.Record
	last    uint64
}

// New returns a new in memory ledger.Store
func New() ledger.Store {
	return &store{
		records: make(map[string]*ledger.Record),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(_ context.Context, address string) (*ledger.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.records[address]; ok {
		return item.Clone(), nil
	}
	return nil, ledger.ErrAccountNotFound
}

// Apply implements ledger.Store.Apply
func (s *store) Apply(_ context.Context, changes ...*ledger.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the full set of changes before modifying anything
	seen := make(map[string]struct{})
	for _, change := range changes {
		if err := change.Record.Validate(); err != nil {
			return err
		}

		address := change.Record.Address
		if _, ok := seen[address]; ok {
			return ledger.ErrInvalidRecord
		}
		seen[address] = struct{}{}

		existing, ok := s.records[address]
		switch change.Type {
		case ledger.ChangeTypeCreate:
			if ok {
				return ledger.ErrAccountExists
			}
		case ledger.ChangeTypeUpdate:
			if !ok {
				return ledger.ErrAccountNotFound
			}
			if existing.Version != change.Record.Version {
				return ledger.ErrStaleVersion
			}
		default:
			return ledger.ErrInvalidRecord
		}
	}

	now := time.Now()
	for _, change := range changes {
		record := change.Record

		switch change.Type {
		case ledger.ChangeTypeCreate:
			s.last++
			record.Id = s.last
			record.Version = 1
			record.CreatedAt = now
			record.LastUpdatedAt = now
		case ledger.ChangeTypeUpdate:
			existing := s.records[record.Address]
			record.Id = existing.Id
			record.Owner = existing.Owner
			record.Version = existing.Version + 1
			record.CreatedAt = existing.CreatedAt
			record.LastUpdatedAt = now
		}

		s.records[record.Address] = record.Clone()
	}

	return nil
}

func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*ledger.Record)
	s.last = 0
}
