package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/testutil"
)

func RunTests(t *testing.T, s ledger.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s ledger.Store){
		testHappyPath,
		testCreateConflict,
		testStaleUpdate,
		testAtomicApply,
		testInvalidRecord,
		testTxn,
	} {
		tf(t, s)
		teardown()
	}
}

func testHappyPath(t *testing.T, s ledger.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address: testutil.NewRandomAddress(t),
			Owner:   testutil.NewRandomAddress(t),
			Data:    []byte{1, 2, 3},
		}

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: record}))
		assert.True(t, record.Id > 0)
		assert.EqualValues(t, 1, record.Version)
		assert.False(t, record.CreatedAt.IsZero())
		assert.False(t, record.LastUpdatedAt.IsZero())

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, record, actual)

		updated := actual.Clone()
		updated.Data = []byte{4, 5, 6, 7}
		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeUpdate, Record: updated}))
		assert.EqualValues(t, 2, updated.Version)
		assert.Equal(t, record.Id, updated.Id)

		actual, err = s.Get(ctx, record.Address)
		require.NoError(t, err)
		assertEquivalentRecords(t, updated, actual)
		assert.Equal(t, []byte{4, 5, 6, 7}, actual.Data)
		assert.Equal(t, record.Owner, actual.Owner)
	})
}

func testCreateConflict(t *testing.T, s ledger.Store) {
	t.Run("testCreateConflict", func(t *testing.T) {
		ctx := context.Background()

		record := &ledger.Record{
			Address: testutil.NewRandomAddress(t),
			Owner:   testutil.NewRandomAddress(t),
			Data:    []byte{1},
		}
		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: record.Clone()}))

		duplicate := record.Clone()
		duplicate.Data = []byte{2}
		assert.Equal(t, ledger.ErrAccountExists, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: duplicate}))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, actual.Data)
		assert.EqualValues(t, 1, actual.Version)
	})
}

func testStaleUpdate(t *testing.T, s ledger.Store) {
	t.Run("testStaleUpdate", func(t *testing.T) {
		ctx := context.Background()

		missing := &ledger.Record{
			Address: testutil.NewRandomAddress(t),
			Owner:   testutil.NewRandomAddress(t),
			Data:    []byte{1},
			Version: 1,
		}
		assert.Equal(t, ledger.ErrAccountNotFound, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeUpdate, Record: missing}))

		record := missing.Clone()
		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: record}))

		first := record.Clone()
		second := record.Clone()

		first.Data = []byte{2}
		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeUpdate, Record: first}))

		second.Data = []byte{3}
		assert.Equal(t, ledger.ErrStaleVersion, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeUpdate, Record: second}))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{2}, actual.Data)
		assert.EqualValues(t, 2, actual.Version)
	})
}

func testAtomicApply(t *testing.T, s ledger.Store) {
	t.Run("testAtomicApply", func(t *testing.T) {
		ctx := context.Background()

		existing := &ledger.Record{
			Address: testutil.NewRandomAddress(t),
			Owner:   testutil.NewRandomAddress(t),
			Data:    []byte{1},
		}
		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: existing}))

		other := &ledger.Record{
			Address: testutil.NewRandomAddress(t),
			Owner:   testutil.NewRandomAddress(t),
			Data:    []byte{9},
		}
		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: other}))

		fresh := &ledger.Record{
			Address: testutil.NewRandomAddress(t),
			Owner:   testutil.NewRandomAddress(t),
			Data:    []byte{2},
		}
		updated := existing.Clone()
		updated.Data = []byte{3}

		// The last change conflicts, so none of the prior changes may be applied
		err := s.Apply(
			ctx,
			&ledger.Change{Type: ledger.ChangeTypeCreate, Record: fresh},
			&ledger.Change{Type: ledger.ChangeTypeUpdate, Record: updated},
			&ledger.Change{Type: ledger.ChangeTypeCreate, Record: &ledger.Record{Address: other.Address, Owner: other.Owner}},
		)
		assert.Equal(t, ledger.ErrAccountExists, err)

		_, err = s.Get(ctx, fresh.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		actual, err := s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, actual.Data)
		assert.EqualValues(t, 1, actual.Version)
	})
}

func testInvalidRecord(t *testing.T, s ledger.Store) {
	t.Run("testInvalidRecord", func(t *testing.T) {
		ctx := context.Background()

		for _, record := range []*ledger.Record{
			{Address: "", Owner: testutil.NewRandomAddress(t)},
			{Address: testutil.NewRandomAddress(t), Owner: ""},
			{Address: "not-base58", Owner: testutil.NewRandomAddress(t)},
		} {
			err := s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: record})
			assert.ErrorIs(t, err, ledger.ErrInvalidRecord)
		}
	})
}

func testTxn(t *testing.T, s ledger.Store) {
	t.Run("testTxn", func(t *testing.T) {
		ctx := context.Background()

		owner := testutil.NewRandomAddress(t)
		existing := &ledger.Record{Address: testutil.NewRandomAddress(t), Owner: owner, Data: []byte{1}}
		require.NoError(t, s.Apply(ctx, &ledger.Change{Type: ledger.ChangeTypeCreate, Record: existing}))

		txn := ledger.NewTxn(s)
		assert.NotEmpty(t, txn.Id())

		created := &ledger.Record{Address: testutil.NewRandomAddress(t), Owner: owner, Data: []byte{2}}
		require.NoError(t, txn.Create(ctx, created))
		assert.Equal(t, ledger.ErrAccountExists, txn.Create(ctx, created))
		assert.Equal(t, ledger.ErrAccountExists, txn.Create(ctx, existing))

		// Reads observe the txn's own writes, but nothing is persisted yet
		require.NoError(t, txn.Update(ctx, created.Address, []byte{3}))
		require.NoError(t, txn.Update(ctx, existing.Address, []byte{4}))

		actual, err := txn.Get(ctx, created.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{3}, actual.Data)

		_, err = s.Get(ctx, created.Address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)

		changes := txn.Changes()
		require.Len(t, changes, 2)
		assert.Equal(t, ledger.ChangeTypeCreate, changes[0].Type)
		assert.Equal(t, ledger.ChangeTypeUpdate, changes[1].Type)

		assert.Empty(t, txn.Applied())
		require.NoError(t, txn.Commit(ctx))
		assert.Equal(t, ledger.ErrTxnClosed, txn.Commit(ctx))

		// Applied changes carry the store assigned state
		applied := txn.Applied()
		require.Len(t, applied, 2)
		assert.Equal(t, ledger.ChangeTypeCreate, applied[0].Type)
		assert.NotZero(t, applied[0].Record.Id)
		assert.EqualValues(t, 1, applied[0].Record.Version)
		assert.False(t, applied[0].Record.CreatedAt.IsZero())
		assert.Equal(t, ledger.ChangeTypeUpdate, applied[1].Type)
		assert.EqualValues(t, 2, applied[1].Record.Version)
		assert.False(t, applied[1].Record.LastUpdatedAt.IsZero())

		actual, err = s.Get(ctx, created.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{3}, actual.Data)
		assert.EqualValues(t, 1, actual.Version)

		actual, err = s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{4}, actual.Data)
		assert.EqualValues(t, 2, actual.Version)

		// Rolled back changes are never persisted
		txn = ledger.NewTxn(s)
		require.NoError(t, txn.Update(ctx, existing.Address, []byte{5}))
		txn.Rollback()

		_, err = txn.Get(ctx, existing.Address)
		assert.Equal(t, ledger.ErrTxnClosed, err)

		actual, err = s.Get(ctx, existing.Address)
		require.NoError(t, err)
		assert.Equal(t, []byte{4}, actual.Data)

		// Concurrent txns modifying the same account conflict on commit
		first := ledger.NewTxn(s)
		second := ledger.NewTxn(s)
		require.NoError(t, first.Update(ctx, existing.Address, []byte{6}))
		require.NoError(t, second.Update(ctx, existing.Address, []byte{7}))
		require.NoError(t, first.Commit(ctx))
		assert.Equal(t, ledger.ErrStaleVersion, second.Commit(ctx))
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *ledger.Record) {
	assert.Equal(t, obj1.Id, obj2.Id)
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.Data, obj2.Data)
	assert.Equal(t, obj1.Version, obj2.Version)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
	assert.Equal(t, obj1.LastUpdatedAt.Unix(), obj2.LastUpdatedAt.Unix())
}
