package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/code-payments/code-authority-server/pkg/ledger"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed ledger.Store
func New(db *sql.DB) ledger.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements ledger.Store.Get
func (s *store) Get(ctx context.Context, address string) (*ledger.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}

	return fromModel(model), nil
}

// Apply implements ledger.Store.Apply
func (s *store) Apply(ctx context.Context, changes ...*ledger.Change) error {
	seen := make(map[string]struct{})
	models := make(map[*ledger.Change]*model)
	for _, change := range changes {
		model, err := toModel(change.Record)
		if err != nil {
			return err
		}

		if _, ok := seen[model.Address]; ok {
			return ledger.ErrInvalidRecord
		}
		seen[model.Address] = struct{}{}

		models[change] = model
	}

	if err := dbApply(ctx, s.db, models, changes); err != nil {
		return err
	}

	for _, change := range changes {
		fromModel(models[change]).CopyTo(change.Record)
	}

	return nil
}
