package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/metrics"
)

const (
	txnMetricsStructName = "ledger.txn"
)

var (
	ErrTxnClosed = errors.New("ledger transaction is closed")
)

type stagedChange struct {
	changeType ChangeType
	record     *Record
}

// Txn stages account changes against a Store. Reads observe the txn's own
// writes. Nothing is persisted until Commit, which applies every staged
// change in a single call to Store.Apply.
type Txn struct {
	log   *logrus.Entry
	id    string
	store Store

	mu      sync.Mutex
	order   []string
	staged  map[string]*stagedChange
	applied []*Change
	closed  bool
}

func NewTxn(store Store) *Txn {
	id := uuid.New().String()
	return &Txn{
		log:    logrus.StandardLogger().WithFields(logrus.Fields{"type": "ledger/txn", "txn": id}),
		id:     id,
		store:  store,
		staged: make(map[string]*stagedChange),
	}
}

func (t *Txn) Id() string {
	return t.id
}

// Get gets the account at the address, preferring any staged state
func (t *Txn) Get(ctx context.Context, address string) (*Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTxnClosed
	}

	if staged, ok := t.staged[address]; ok {
		return staged.record.Clone(), nil
	}
	return t.store.Get(ctx, address)
}

// Exists returns whether an account is bound to the address
func (t *Txn) Exists(ctx context.Context, address string) (bool, error) {
	_, err := t.Get(ctx, address)
	if err == ErrAccountNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// Create stages the creation of a new account
func (t *Txn) Create(ctx context.Context, record *Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	exists, err := t.Exists(ctx, record.Address)
	if err != nil {
		return err
	} else if exists {
		return ErrAccountExists
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxnClosed
	}

	t.stage(ChangeTypeCreate, record.Clone())
	return nil
}

// Update stages new account data for an existing account
func (t *Txn) Update(ctx context.Context, address string, data []byte) error {
	record, err := t.Get(ctx, address)
	if err != nil {
		return err
	}

	record.Data = make([]byte, len(data))
	copy(record.Data, data)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxnClosed
	}

	changeType := ChangeTypeUpdate
	if staged, ok := t.staged[address]; ok {
		changeType = staged.changeType
	}
	t.stage(changeType, record)
	return nil
}

// Changes returns a copy of the currently staged changes, in the order they
// were first staged
func (t *Txn) Changes() []*Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	changes := make([]*Change, 0, len(t.order))
	for _, address := range t.order {
		staged := t.staged[address]
		changes = append(changes, &Change{
			Type:   staged.changeType,
			Record: staged.record.Clone(),
		})
	}
	return changes
}

// Commit applies all staged changes atomically and closes the txn
func (t *Txn) Commit(ctx context.Context) error {
	tracer := metrics.TraceMethodCall(ctx, txnMetricsStructName, "Commit")
	defer tracer.End()

	changes := t.Changes()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return ErrTxnClosed
	}
	t.closed = true

	log := t.log.WithFields(logrus.Fields{
		"method":  "Commit",
		"changes": len(changes),
	})
	tracer.AddAttributes(map[string]interface{}{
		"txn":     t.id,
		"changes": len(changes),
	})

	if len(changes) == 0 {
		return nil
	}

	err := t.store.Apply(ctx, changes...)
	if err != nil {
		log.WithError(err).Debug("failure applying staged changes")
		tracer.OnError(err)
		return err
	}

	t.applied = changes

	log.Trace("applied staged changes")
	return nil
}

// Applied returns a copy of the changes applied by a successful Commit, with
// the ids, versions and timestamps assigned by the store. It's empty until
// then.
func (t *Txn) Applied() []*Change {
	t.mu.Lock()
	defer t.mu.Unlock()

	applied := make([]*Change, 0, len(t.applied))
	for _, change := range t.applied {
		applied = append(applied, &Change{
			Type:   change.Type,
			Record: change.Record.Clone(),
		})
	}
	return applied
}

// Rollback discards all staged changes and closes the txn
func (t *Txn) Rollback() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	t.log.WithFields(logrus.Fields{
		"method":  "Rollback",
		"changes": len(t.order),
	}).Trace("discarding staged changes")

	t.closed = true
	t.order = nil
	t.staged = make(map[string]*stagedChange)
}

func (t *Txn) stage(changeType ChangeType, record *Record) {
	if _, ok := t.staged[record.Address]; !ok {
		t.order = append(t.order, record.Address)
	}
	t.staged[record.Address] = &stagedChange{
		changeType: changeType,
		record:     record,
	}
}
