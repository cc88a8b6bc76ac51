package counter

import (
	"context"
	"crypto/ed25519"
	"math"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
)

// Program is the counter program. Each owner has a single counter, derived
// from ("counter", owner), that only its authority may increment.
type Program struct {
	log      *logrus.Entry
	deriver  *program.Deriver
	accessor *program.Accessor
}

func New() *Program {
	return &Program{
		log:      logrus.StandardLogger().WithField("type", "program/counter"),
		deriver:  program.NewDeriver(PROGRAM_ID),
		accessor: program.NewAccessor(PROGRAM_ID),
	}
}

// ProgramId implements program.Program.ProgramId
func (p *Program) ProgramId() ed25519.PublicKey {
	return PROGRAM_ID
}

// Process implements program.Program.Process
func (p *Program) Process(ctx context.Context, env *program.Env, ix solana.Instruction) error {
	discriminator, _, err := program.ParseInstruction(ix.Data)
	if err != nil {
		return err
	}

	switch discriminator {
	case InitializeInstructionDiscriminator:
		if len(ix.Accounts) < 3 {
			return program.ErrAccountNotEnoughKeys
		}
		if !ix.Account(2).Equal(system.ProgramKey) {
			return program.ErrInvalidProgramId
		}
		return p.Initialize(ctx, env, &InitializeInstructionAccounts{
			Counter: ix.Account(0),
			User:    ix.Account(1),
		})
	case IncrementInstructionDiscriminator:
		if len(ix.Accounts) < 3 {
			return program.ErrAccountNotEnoughKeys
		}
		return p.Increment(ctx, env, &IncrementInstructionAccounts{
			Counter:   ix.Account(0),
			Owner:     ix.Account(1),
			Authority: ix.Account(2),
		})
	default:
		return program.ErrInstructionFallbackNotFound
	}
}

// Initialize creates the user's counter with a zero count
func (p *Program) Initialize(ctx context.Context, env *program.Env, accounts *InitializeInstructionAccounts) error {
	log := p.log.WithFields(logrus.Fields{
		"method":  "Initialize",
		"counter": base58.Encode(accounts.Counter),
		"user":    base58.Encode(accounts.User),
	})

	if err := env.RequireSigner(accounts.User); err != nil {
		return err
	}
	for _, account := range []ed25519.PublicKey{accounts.Counter, accounts.User} {
		if err := env.RequireWritable(account); err != nil {
			return err
		}
	}

	derived, err := p.deriver.VerifyCanonical(accounts.Counter, counterSeeds(accounts.User)...)
	if err != nil {
		return err
	}

	record := &CounterAccount{
		Bump:      derived.Bump,
		Authority: accounts.User,
		Count:     0,
	}
	if err := p.accessor.CreateGuarded(ctx, env, accounts.User, derived, record); err != nil {
		log.WithError(err).Debug("failure creating counter")
		return err
	}

	log.Debug("counter initialized")
	return nil
}

// Increment adds one to the owner's counter, provided the authority signed
func (p *Program) Increment(ctx context.Context, env *program.Env, accounts *IncrementInstructionAccounts) error {
	log := p.log.WithFields(logrus.Fields{
		"method":    "Increment",
		"counter":   base58.Encode(accounts.Counter),
		"authority": base58.Encode(accounts.Authority),
	})

	if err := env.RequireSigner(accounts.Authority); err != nil {
		return err
	}
	if err := env.RequireWritable(accounts.Counter); err != nil {
		return err
	}

	var record CounterAccount
	if err := p.accessor.Load(ctx, env, accounts.Counter, &record); err != nil {
		return err
	}

	// The stored bump is authoritative once the counter exists
	if err := p.deriver.Verify(accounts.Counter, record.Bump, counterSeeds(accounts.Owner)...); err != nil {
		return err
	}

	if err := program.Authorize(ErrUnauthorized, record.Authority, accounts.Authority); err != nil {
		log.Debug("increment attempted by non-authority")
		return err
	}

	if record.Count == math.MaxUint64 {
		return ErrNumericalOverflow
	}
	record.Count++

	if err := p.accessor.Store(ctx, env, accounts.Counter, &record); err != nil {
		return err
	}

	log.WithField("count", record.Count).Trace("counter incremented")
	return nil
}
