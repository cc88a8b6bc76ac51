package localnet

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/metrics"
	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/rate"
	"github.com/code-payments/code-authority-server/pkg/retry"
	"github.com/code-payments/code-authority-server/pkg/retry/backoff"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/sync"
)

const (
	executorMetricsStructName = "localnet.executor"
)

var (
	ErrEmptyTransaction    = errors.New("transaction has no instructions")
	ErrTooManyInstructions = errors.New("transaction exceeds the instruction limit")
	ErrInvalidSigner       = errors.New("transaction signer is not a valid ed25519 public key")
	ErrRateLimited         = errors.New("fee payer exceeded the transaction rate limit")
)

// Transaction is an ordered set of instructions executed atomically. Signers
// are the accounts that authorized the transaction. The first signer is the
// fee payer.
type Transaction struct {
	Signers      []ed25519.PublicKey
	Instructions []solana.Instruction
}

func NewTransaction(signers []ed25519.PublicKey, instructions ...solana.Instruction) *Transaction {
	return &Transaction{
		Signers:      signers,
		Instructions: instructions,
	}
}

// Receipt describes an executed transaction
type Receipt struct {
	// Id is the id of the ledger transaction that staged the changes
	Id string

	// InnerInstructions are the cross-program invocations made by each
	// top-level instruction, in invocation order
	InnerInstructions [][]solana.Instruction

	// Changes are the ledger changes applied by the transaction, as stored.
	// It's empty when the transaction failed.
	Changes []*ledger.Change
}

// InnerInstructionCount returns the total number of cross-program invocations
func (r *Receipt) InnerInstructionCount() int {
	var count int
	for _, inner := range r.InnerInstructions {
		count += len(inner)
	}
	return count
}

// Executor runs transactions against a ledger store. Every instruction of a
// transaction stages its writes in a single ledger transaction, which is only
// committed when all instructions succeed.
type Executor struct {
	log      *logrus.Entry
	conf     *conf
	store    ledger.Store
	locks    *sync.StripedLock
	limiter  rate.Limiter
	programs map[string]program.Program
}

// NewExecutor returns an executor that runs the provided programs alongside
// the simulated system, token, associated token account and token metadata
// programs
func NewExecutor(store ledger.Store, configProvider ConfigProvider, programs ...program.Program) *Executor {
	conf := configProvider()

	e := &Executor{
		log:      logrus.StandardLogger().WithField("type", "localnet/executor"),
		conf:     conf,
		store:    store,
		locks:    sync.NewStripedLock(uint(conf.lockStripes.Get(context.Background()))),
		limiter:  rate.NewLocalRateLimiter(conf.maxPayerRate.Get(context.Background())),
		programs: make(map[string]program.Program),
	}

	builtins := []program.Program{
		newSystemProgram(),
		newTokenProgram(),
		newAssociatedTokenAccountProgram(),
		newMetadataProgram(),
	}
	for _, p := range append(builtins, programs...) {
		e.programs[base58.Encode(p.ProgramId())] = p
	}

	return e
}

// Execute runs the transaction. A commit that loses a version race with
// another writer of the same store is re-executed from scratch, up to the
// configured number of attempts. On an instruction failure nothing is
// persisted, and the returned error is a solana.InstructionError wrapping the
// program error. The receipt is also returned on instruction failures so
// callers can inspect the invocations made before the failure.
func (e *Executor) Execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	tracer := metrics.TraceMethodCall(ctx, executorMetricsStructName, "Execute")
	defer tracer.End()

	start := time.Now()

	if len(tx.Signers) > 0 && !e.limiter.Allow(base58.Encode(tx.Signers[0])) {
		tracer.OnError(ErrRateLimited)
		recordRateLimited(ctx)
		return nil, ErrRateLimited
	}

	var receipt *Receipt
	attempts, err := retry.Retry(
		func() error {
			var err error
			receipt, err = e.execute(ctx, tx)
			return err
		},
		retry.Limit(uint(e.conf.commitAttempts.Get(ctx))),
		retry.Context(ctx),
		retry.RetriableIf(isCommitConflict),
		retry.BackoffWithJitter(backoff.BinaryExponential(e.conf.commitBackoff.Get(ctx)), time.Second, 0.1),
	)
	if attempts > 1 {
		e.log.WithFields(logrus.Fields{
			"method":   "Execute",
			"attempts": attempts,
		}).WithError(err).Debug("transaction retried after a stale commit")
	}

	tracer.AddAttributes(map[string]interface{}{
		"instructions": len(tx.Instructions),
		"attempts":     attempts,
	})
	tracer.OnError(err)
	recordExecutionMetrics(ctx, receipt, len(tx.Instructions), time.Since(start))
	recordExecutedTransactionEvent(ctx, receipt, len(tx.Instructions), attempts, err)

	return receipt, err
}

func (e *Executor) execute(ctx context.Context, tx *Transaction) (*Receipt, error) {
	if len(tx.Instructions) == 0 {
		return nil, ErrEmptyTransaction
	}
	if uint64(len(tx.Instructions)) > e.conf.maxInstructions.Get(ctx) {
		return nil, ErrTooManyInstructions
	}

	if e.conf.requireOnCurveSigners.Get(ctx) {
		for _, signer := range tx.Signers {
			if !solana.IsOnCurve(signer) {
				return nil, errors.Wrap(ErrInvalidSigner, base58.Encode(signer))
			}
		}
	}

	ctx, cancel := context.WithTimeout(ctx, e.conf.executionTimeout.Get(ctx))
	defer cancel()

	accounts := make(map[string]struct{})
	var lockKeys [][]byte
	for _, ix := range tx.Instructions {
		for _, account := range ix.Accounts {
			key := base58.Encode(account.PublicKey)
			if _, ok := accounts[key]; ok {
				continue
			}
			accounts[key] = struct{}{}
			lockKeys = append(lockKeys, account.PublicKey)
		}
	}

	unlock := e.locks.LockAll(lockKeys...)
	defer unlock()

	txn := ledger.NewTxn(e.store)

	log := e.log.WithFields(logrus.Fields{
		"method":       "execute",
		"txn":          txn.Id(),
		"instructions": len(tx.Instructions),
	})

	receipt := &Receipt{
		Id:                txn.Id(),
		InnerInstructions: make([][]solana.Instruction, len(tx.Instructions)),
	}

	for i, ix := range tx.Instructions {
		if err := ctx.Err(); err != nil {
			txn.Rollback()
			return receipt, err
		}

		err := e.executeInstruction(ctx, txn, tx, receipt, accounts, i)
		if err != nil {
			log.WithError(err).WithField("program", base58.Encode(ix.Program)).Debug("instruction failed")
			txn.Rollback()
			return receipt, solana.InstructionError{Index: i, Err: err}
		}
	}

	if err := txn.Commit(ctx); err != nil {
		log.WithError(err).Warn("failure committing transaction")
		return receipt, errors.Wrap(err, "error committing ledger transaction")
	}
	receipt.Changes = txn.Applied()

	log.Trace("transaction executed")
	return receipt, nil
}

func (e *Executor) executeInstruction(ctx context.Context, txn *ledger.Txn, tx *Transaction, receipt *Receipt, accounts map[string]struct{}, index int) error {
	ix := tx.Instructions[index]

	target, ok := e.programs[base58.Encode(ix.Program)]
	if !ok {
		return solana.InstructionErrorUnsupportedProgramID
	}

	var signers, writable []ed25519.PublicKey
	for _, account := range ix.Accounts {
		if account.IsWritable {
			writable = append(writable, account.PublicKey)
		}

		if !account.IsSigner {
			continue
		}
		if !containsKey(tx.Signers, account.PublicKey) {
			return solana.InstructionErrorMissingRequiredSignature
		}
		signers = append(signers, account.PublicKey)
	}

	env := &program.Env{
		ProgramId: ix.Program,
		Txn:       txn,
		Signers:   signers,
		Writable:  writable,
		Depth:     1,
		Invoker: &invoker{
			programs: e.programs,
			maxDepth: e.conf.maxInvokeDepth.Get(ctx),
			accounts: accounts,
			inner:    &receipt.InnerInstructions[index],
		},
	}
	return target.Process(ctx, env, ix)
}

// isCommitConflict returns whether the error came from losing a race to
// another writer at commit time, rather than from an instruction
func isCommitConflict(err error) bool {
	var ixErr solana.InstructionError
	if errors.As(err, &ixErr) {
		return false
	}
	return errors.Is(err, ledger.ErrStaleVersion) || errors.Is(err, ledger.ErrAccountExists)
}

func containsKey(keys []ed25519.PublicKey, key ed25519.PublicKey) bool {
	for _, k := range keys {
		if k.Equal(key) {
			return true
		}
	}
	return false
}
