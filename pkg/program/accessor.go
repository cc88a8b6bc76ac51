package program

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

// Accessor loads, creates and stores the records of a single program
type Accessor struct {
	log       *logrus.Entry
	programId ed25519.PublicKey
}

func NewAccessor(programId ed25519.PublicKey) *Accessor {
	return &Accessor{
		log:       logrus.StandardLogger().WithFields(logrus.Fields{"type": "program/accessor", "program": base58.Encode(programId)}),
		programId: programId,
	}
}

// Load reads the record at the address into r
func (a *Accessor) Load(ctx context.Context, env *Env, address ed25519.PublicKey, r Record) error {
	data, err := LoadExternal(ctx, env, address, a.programId)
	if err != nil {
		return err
	}
	return DecodeRecord(data, r)
}

// Exists returns whether any account is bound to the address
func (a *Accessor) Exists(ctx context.Context, env *Env, address ed25519.PublicKey) (bool, error) {
	return env.Txn.Exists(ctx, base58.Encode(address))
}

// CreateGuarded allocates the record at the derived address, paid for by
// the payer, and writes its initial state. It fails with ErrAlreadyExists
// when an account is already bound to the address.
func (a *Accessor) CreateGuarded(ctx context.Context, env *Env, payer ed25519.PublicKey, derived *DerivedAddress, r Record) error {
	log := a.log.WithFields(logrus.Fields{
		"method":  "CreateGuarded",
		"address": base58.Encode(derived.Address),
		"record":  r.Name(),
	})

	if err := env.RequireWritable(derived.Address); err != nil {
		return err
	}

	exists, err := a.Exists(ctx, env, derived.Address)
	if err != nil {
		return err
	} else if exists {
		return ErrAlreadyExists
	}

	allocate := system.CreateAccount(payer, derived.Address, a.programId, 0, uint64(AccountSize(r)))
	if err := env.Invoke(ctx, allocate, derived.Proof()); err != nil {
		log.WithError(err).Debug("failure allocating record account")
		return err
	}

	if err := a.Store(ctx, env, derived.Address, r); err != nil {
		return err
	}

	log.Trace("record created")
	return nil
}

// Store writes the record's state to the account at the address, which
// must be writable by the executing instruction
func (a *Accessor) Store(ctx context.Context, env *Env, address ed25519.PublicKey, r Record) error {
	data := EncodeRecord(r)
	if len(data) != AccountSize(r) {
		return ErrAccountDidNotDeserialize
	}

	// Only the owning program may write, and the allocation never grows
	current, err := env.Txn.Get(ctx, base58.Encode(address))
	if err == ledger.ErrAccountNotFound {
		return ErrRecordNotFound
	} else if err != nil {
		return err
	}
	if !current.IsOwnedBy(base58.Encode(a.programId)) {
		return ErrAccountOwnedByWrongProgram
	}
	if len(current.Data) != len(data) {
		return ErrAccountDidNotDeserialize
	}
	if err := env.RequireWritable(address); err != nil {
		return err
	}

	return env.Txn.Update(ctx, base58.Encode(address), data)
}

// LoadExternal returns the data of an account that must be owned by the
// provided program
func LoadExternal(ctx context.Context, env *Env, address, owner ed25519.PublicKey) ([]byte, error) {
	record, err := env.Txn.Get(ctx, base58.Encode(address))
	if err == ledger.ErrAccountNotFound {
		return nil, ErrRecordNotFound
	} else if err != nil {
		return nil, err
	}

	if !record.IsOwnedBy(base58.Encode(owner)) {
		return nil, ErrAccountOwnedByWrongProgram
	}
	return record.Data, nil
}

// Authorize fails with the provided Unauthorized class error unless the
// caller is the stored authority
func Authorize(err error, stored, caller ed25519.PublicKey) error {
	if !stored.Equal(caller) {
		return err
	}
	return nil
}

// CrossCheck fails with the provided FieldMismatch class error unless the
// supplied value matches the stored one
func CrossCheck(err error, stored, supplied ed25519.PublicKey) error {
	if !stored.Equal(supplied) {
		return err
	}
	return nil
}
