package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/code-authority-server/pkg/database/postgres"
	"github.com/code-payments/code-authority-server/pkg/ledger"
)

const (
	tableName = "codeauthority__core_ledger_account"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Owner   string `db:"owner"`

	Data []byte `db:"data"`

	Version int64 `db:"version"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *ledger.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Id: sql.NullInt64{Int64: int64(obj.Id), Valid: obj.Id > 0},

		Address: obj.Address,
		Owner:   obj.Owner,

		Data: data,

		Version: int64(obj.Version),

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *ledger.Record {
	data := make([]byte, len(obj.Data))
	copy(data, obj.Data)

	return &ledger.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Owner:   obj.Owner,

		Data: data,

		Version: uint64(obj.Version),

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *model) dbCreate(ctx context.Context, tx *sqlx.Tx) error {
	query := `INSERT INTO ` + tableName + `
		(address, owner, data, version, created_at, last_updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)

		RETURNING
			id, address, owner, data, version, created_at, last_updated_at`

	now := time.Now().UTC()

	err := tx.QueryRowxContext(
		ctx,
		query,

		m.Address,
		m.Owner,

		m.Data,

		now,
	).StructScan(m)

	return pgutil.CheckUniqueViolation(err, ledger.ErrAccountExists)
}

func (m *model) dbUpdate(ctx context.Context, tx *sqlx.Tx) error {
	query := `UPDATE ` + tableName + `
		SET data = $2, version = version + 1, last_updated_at = $4
		WHERE address = $1 AND version = $3

		RETURNING
			id, address, owner, data, version, created_at, last_updated_at`

	err := tx.QueryRowxContext(
		ctx,
		query,

		m.Address,
		m.Data,
		m.Version,
		time.Now().UTC(),
	).StructScan(m)
	if !pgutil.IsNoRows(err) {
		return err
	}

	// Distinguish a missing account from a concurrent modification
	var count int
	err = tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+tableName+` WHERE address = $1`, m.Address)
	if err != nil {
		return err
	}
	if count == 0 {
		return ledger.ErrAccountNotFound
	}
	return ledger.ErrStaleVersion
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT
		id, address, owner, data, version, created_at, last_updated_at
		FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := pgutil.ExecuteRetryable(func() error {
		return db.GetContext(ctx, res, query, address)
	})
	if err != nil {
		return nil, pgutil.CheckNoRows(err, ledger.ErrAccountNotFound)
	}
	return res, nil
}

func dbApply(ctx context.Context, db *sqlx.DB, models map[*ledger.Change]*model, changes []*ledger.Change) error {
	err := pgutil.ExecuteInTx(ctx, db, sql.LevelReadCommitted, func(tx *sqlx.Tx) error {
		for _, change := range changes {
			m := models[change]

			var err error
			switch change.Type {
			case ledger.ChangeTypeCreate:
				err = m.dbCreate(ctx, tx)
			case ledger.ChangeTypeUpdate:
				err = m.dbUpdate(ctx, tx)
			default:
				err = ledger.ErrInvalidRecord
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if pgutil.IsSerializationFailure(err) {
		return ledger.ErrStaleVersion
	}
	return err
}
