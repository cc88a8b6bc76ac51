package program

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/ledger/memory"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
	"github.com/code-payments/code-authority-server/pkg/testutil"
)

type testRecord struct {
	Authority ed25519.PublicKey
	Value     uint64
}

func (r *testRecord) Name() string {
	return "TestRecord"
}

func (r *testRecord) Size() int {
	return ed25519.PublicKeySize + 8
}

func (r *testRecord) Marshal() []byte {
	b := make([]byte, r.Size())
	copy(b, r.Authority)
	binary.LittleEndian.PutUint64(b[ed25519.PublicKeySize:], r.Value)
	return b
}

func (r *testRecord) Unmarshal(data []byte) error {
	if len(data) != r.Size() {
		return errors.New("invalid size")
	}
	r.Authority = make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(r.Authority, data)
	r.Value = binary.LittleEndian.Uint64(data[ed25519.PublicKeySize:])
	return nil
}

// allocatingInvoker handles system account creation, which is the only
// invocation the accessor makes
type allocatingInvoker struct {
	calls []solana.Instruction
}

func (i *allocatingInvoker) Invoke(ctx context.Context, caller *Env, ix solana.Instruction, proofs ...AuthorityProof) error {
	i.calls = append(i.calls, ix)

	create, err := system.DecompileCreateAccount(ix)
	if err != nil {
		return err
	}

	var signed bool
	for _, proof := range proofs {
		signer, err := proof.Signer(caller.ProgramId)
		if err == nil && signer.Equal(create.Address) {
			signed = true
		}
	}
	if !signed && !caller.IsSigner(create.Address) {
		return solana.InstructionErrorMissingRequiredSignature
	}

	return caller.Txn.Create(ctx, &ledger.Record{
		Address: base58.Encode(create.Address),
		Owner:   base58.Encode(create.Owner),
		Data:    make([]byte, create.Size),
	})
}

type testEnv struct {
	store   ledger.Store
	invoker *allocatingInvoker
	env     *Env
}

func setup(t *testing.T) *testEnv {
	store := memory.New()
	invoker := &allocatingInvoker{}

	return &testEnv{
		store:   store,
		invoker: invoker,
		env: &Env{
			ProgramId: testutil.GenerateSolanaKeys(t, 1)[0],
			Txn:       ledger.NewTxn(store),
			Depth:     1,
			Invoker:   invoker,
		},
	}
}

func (e *testEnv) commit(t *testing.T) {
	require.NoError(t, e.env.Txn.Commit(context.Background()))
	e.env.Txn = ledger.NewTxn(e.store)
}
