package tokenstate

import (
	"context"
	"crypto/ed25519"
	"math"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/ledger/memory"
	"github.com/code-payments/code-authority-server/pkg/localnet"
	"github.com/code-payments/code-authority-server/pkg/program"
	"github.com/code-payments/code-authority-server/pkg/solana"
	"github.com/code-payments/code-authority-server/pkg/solana/metadata"
	"github.com/code-payments/code-authority-server/pkg/solana/system"
	"github.com/code-payments/code-authority-server/pkg/solana/token"
	"github.com/code-payments/code-authority-server/pkg/testutil"
)

type testEnv struct {
	ctx      context.Context
	executor *localnet.Executor

	payer     ed25519.PublicKey
	authority ed25519.PublicKey
	mint      ed25519.PublicKey
	state     ed25519.PublicKey
	metadata  ed25519.PublicKey
}

func setup(t *testing.T) *testEnv {
	keys := testutil.GenerateSolanaKeys(t, 3)

	state, _, err := GetTokenStateAddress(&GetTokenStateAddressArgs{Mint: keys[2]})
	require.NoError(t, err)
	metadataAddress, _, err := metadata.GetMetadataAddress(keys[2])
	require.NoError(t, err)

	return &testEnv{
		ctx:       context.Background(),
		executor:  localnet.NewExecutor(memory.New(), localnet.WithEnvConfigs(), New()),
		payer:     keys[0],
		authority: keys[1],
		mint:      keys[2],
		state:     state,
		metadata:  metadataAddress,
	}
}

func (e *testEnv) initializeMintInstruction(t *testing.T, args *InitializeMintInstructionArgs) solana.Instruction {
	ix, err := NewInitializeMintInstruction(&InitializeMintInstructionAccounts{
		Payer:     e.payer,
		Authority: e.authority,
		State:     e.state,
		Mint:      e.mint,
		Metadata:  e.metadata,
	}, args)
	require.NoError(t, err)
	return ix
}

func (e *testEnv) execute(signers []ed25519.PublicKey, instructions ...solana.Instruction) (*localnet.Receipt, error) {
	return e.executor.Execute(e.ctx, localnet.NewTransaction(signers, instructions...))
}

func (e *testEnv) initializeMint(t *testing.T, args *InitializeMintInstructionArgs) (*localnet.Receipt, error) {
	return e.execute([]ed25519.PublicKey{e.payer, e.authority, e.mint}, e.initializeMintInstruction(t, args))
}

func (e *testEnv) mintTokens(authority, recipient ed25519.PublicKey, amount uint64) (*localnet.Receipt, error) {
	ix := NewMintTokensInstruction(&MintTokensInstructionAccounts{
		Authority: authority,
		State:     e.state,
		Mint:      e.mint,
		Recipient: recipient,
	}, &MintTokensInstructionArgs{Amount: amount})
	return e.execute([]ed25519.PublicKey{authority}, ix)
}

func (e *testEnv) createTokenAccount(t *testing.T, owner, mint ed25519.PublicKey) ed25519.PublicKey {
	create, address, err := token.CreateAssociatedTokenAccount(e.payer, owner, mint)
	require.NoError(t, err)

	_, err = e.execute([]ed25519.PublicKey{e.payer}, create)
	require.NoError(t, err)
	return address
}

func (e *testEnv) getState(t *testing.T) *TokenStateAccount {
	record, err := e.executor.GetAccount(e.ctx, e.state)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(PROGRAM_ID), record.Owner)
	assert.Len(t, record.Data, program.DiscriminatorSize+TokenStateAccountSize)

	state, err := UnmarshalTokenStateAccount(record.Data)
	require.NoError(t, err)
	return state
}

func (e *testEnv) assertNothingCreated(t *testing.T) {
	for _, address := range []ed25519.PublicKey{e.state, e.mint, e.metadata} {
		_, err := e.executor.GetAccount(e.ctx, address)
		assert.Equal(t, ledger.ErrAccountNotFound, err)
	}
}

func TestInitializeMint_WithMetadata(t *testing.T) {
	env := setup(t)

	receipt, err := env.initializeMint(t, &InitializeMintInstructionArgs{
		Decimals: 9,
		Metadata: &MetadataArgs{
			Name:   "Test Token",
			Symbol: "TEST",
			Uri:    "https://example.com/test.json",
		},
	})
	require.NoError(t, err)

	// state allocation, mint allocation, mint initialization, metadata
	// creation and the metadata program's own allocation
	require.Len(t, receipt.InnerInstructions, 1)
	assert.Len(t, receipt.InnerInstructions[0], 5)

	state := env.getState(t)
	assert.EqualValues(t, env.mint, state.Mint)
	assert.EqualValues(t, env.authority, state.Authority)
	assert.EqualValues(t, 9, state.Decimals)

	_, expectedBump, err := GetTokenStateAddress(&GetTokenStateAddressArgs{Mint: env.mint})
	require.NoError(t, err)
	assert.Equal(t, expectedBump, state.Bump)

	mint, err := env.executor.GetMint(env.ctx, env.mint)
	require.NoError(t, err)
	assert.True(t, mint.IsInitialized)
	assert.EqualValues(t, 9, mint.Decimals)
	assert.EqualValues(t, env.state, mint.MintAuthority)
	assert.EqualValues(t, env.state, mint.FreezeAuthority)
	assert.EqualValues(t, 0, mint.Supply)

	tokenMetadata, err := env.executor.GetMetadata(env.ctx, env.mint)
	require.NoError(t, err)
	assert.Equal(t, "Test Token", tokenMetadata.Name)
	assert.Equal(t, "TEST", tokenMetadata.Symbol)
	assert.Equal(t, "https://example.com/test.json", tokenMetadata.Uri)
	assert.EqualValues(t, env.authority, tokenMetadata.UpdateAuthority.PublicKey())
	assert.EqualValues(t, env.mint, tokenMetadata.Mint.PublicKey())
	assert.EqualValues(t, 0, tokenMetadata.SellerFeeBasisPoints)
	assert.True(t, tokenMetadata.IsMutable)
}

func TestInitializeMint_WithoutMetadata(t *testing.T) {
	env := setup(t)

	receipt, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 0})
	require.NoError(t, err)
	assert.Len(t, receipt.InnerInstructions[0], 3)

	state := env.getState(t)
	assert.EqualValues(t, env.authority, state.Authority)
	assert.EqualValues(t, 0, state.Decimals)

	mint, err := env.executor.GetMint(env.ctx, env.mint)
	require.NoError(t, err)
	assert.EqualValues(t, env.state, mint.MintAuthority)

	_, err = env.executor.GetAccount(env.ctx, env.metadata)
	assert.Equal(t, ledger.ErrAccountNotFound, err)
}

func TestInitializeMint_InvalidMetadataProgram(t *testing.T) {
	env := setup(t)
	forged := testutil.GenerateSolanaKeys(t, 1)[0]

	ix, err := NewInitializeMintInstruction(&InitializeMintInstructionAccounts{
		Payer:           env.payer,
		Authority:       env.authority,
		State:           env.state,
		Mint:            env.mint,
		Metadata:        env.metadata,
		MetadataProgram: forged,
	}, &InitializeMintInstructionArgs{
		Decimals: 6,
		Metadata: &MetadataArgs{Name: "Test Token", Symbol: "TEST", Uri: "https://example.com/test.json"},
	})
	require.NoError(t, err)

	receipt, err := env.execute([]ed25519.PublicKey{env.payer, env.authority, env.mint}, ix)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMetadataProgram))
	assert.True(t, errors.Is(err, program.ClassFieldMismatch))
	assert.Empty(t, receipt.InnerInstructions[0])

	env.assertNothingCreated(t)
}

func TestInitializeMint_InvalidMetadataAccount(t *testing.T) {
	env := setup(t)
	env.metadata = testutil.GenerateSolanaKeys(t, 1)[0]

	receipt, err := env.initializeMint(t, &InitializeMintInstructionArgs{
		Decimals: 6,
		Metadata: &MetadataArgs{Name: "Test Token", Symbol: "TEST", Uri: "https://example.com/test.json"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidMetadataAccount))
	assert.Empty(t, receipt.InnerInstructions[0])

	env.assertNothingCreated(t)
}

func TestInitializeMint_InvalidStateAddress(t *testing.T) {
	env := setup(t)

	other := testutil.GenerateSolanaKeys(t, 1)[0]
	wrong, _, err := GetTokenStateAddress(&GetTokenStateAddressArgs{Mint: other})
	require.NoError(t, err)
	env.state = wrong

	_, err = env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 6})
	require.Error(t, err)
	assert.True(t, errors.Is(err, program.ErrAddressMismatch))

	env.assertNothingCreated(t)
}

func TestInitializeMint_Twice(t *testing.T) {
	env := setup(t)

	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 6})
	require.NoError(t, err)

	_, err = env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, program.ErrAlreadyExists))
	assert.True(t, errors.Is(err, program.ClassAlreadyExists))

	assert.EqualValues(t, 6, env.getState(t).Decimals)
}

func TestInitializeMint_MetadataFailureIsAtomic(t *testing.T) {
	env := setup(t)

	// The metadata program rejects the name after the state and mint were
	// staged
	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{
		Decimals: 6,
		Metadata: &MetadataArgs{
			Name:   string(make([]byte, metadata.MaxNameLength+1)),
			Symbol: "TEST",
			Uri:    "https://example.com/test.json",
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, metadata.ErrorNameTooLong))

	env.assertNothingCreated(t)
}

func TestInitializeMint_MissingSigner(t *testing.T) {
	env := setup(t)

	ix := env.initializeMintInstruction(t, &InitializeMintInstructionArgs{Decimals: 6})
	ix.Accounts[1].IsSigner = false

	_, err := env.execute([]ed25519.PublicKey{env.payer, env.mint}, ix)
	require.Error(t, err)
	assert.True(t, errors.Is(err, program.ErrAccountNotSigner))

	env.assertNothingCreated(t)
}

func TestMintTokens_HappyPath(t *testing.T) {
	env := setup(t)

	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 6})
	require.NoError(t, err)

	owner := testutil.GenerateSolanaKeys(t, 1)[0]
	recipient := env.createTokenAccount(t, owner, env.mint)

	receipt, err := env.mintTokens(env.authority, recipient, 1_000_000)
	require.NoError(t, err)
	require.Len(t, receipt.InnerInstructions[0], 1)
	assert.EqualValues(t, token.ProgramKey, receipt.InnerInstructions[0][0].Program)

	_, err = env.mintTokens(env.authority, recipient, 500)
	require.NoError(t, err)

	account, err := env.executor.GetTokenAccount(env.ctx, recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_500, account.Amount)

	mint, err := env.executor.GetMint(env.ctx, env.mint)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000_500, mint.Supply)
}

func TestMintTokens_Unauthorized(t *testing.T) {
	env := setup(t)

	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 6})
	require.NoError(t, err)

	other := testutil.GenerateSolanaKeys(t, 1)[0]
	recipient := env.createTokenAccount(t, other, env.mint)

	receipt, err := env.mintTokens(other, recipient, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnauthorized))
	assert.True(t, errors.Is(err, program.ClassUnauthorized))
	assert.Empty(t, receipt.InnerInstructions[0])

	account, err := env.executor.GetTokenAccount(env.ctx, recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 0, account.Amount)
}

func TestMintTokens_ReadonlyAccounts(t *testing.T) {
	env := setup(t)

	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 6})
	require.NoError(t, err)

	owner := testutil.GenerateSolanaKeys(t, 1)[0]
	recipient := env.createTokenAccount(t, owner, env.mint)

	for _, index := range []int{2, 3} {
		ix := NewMintTokensInstruction(&MintTokensInstructionAccounts{
			Authority: env.authority,
			State:     env.state,
			Mint:      env.mint,
			Recipient: recipient,
		}, &MintTokensInstructionArgs{Amount: 100})
		ix.Accounts[index].IsWritable = false

		receipt, err := env.execute([]ed25519.PublicKey{env.authority}, ix)
		require.Error(t, err)
		assert.True(t, errors.Is(err, program.ErrAccountNotMutable), "account %d: %v", index, err)
		assert.Empty(t, receipt.InnerInstructions[0])
	}

	account, err := env.executor.GetTokenAccount(env.ctx, recipient)
	require.NoError(t, err)
	assert.EqualValues(t, 0, account.Amount)

	mint, err := env.executor.GetMint(env.ctx, env.mint)
	require.NoError(t, err)
	assert.EqualValues(t, 0, mint.Supply)
}

func TestMintTokens_InvalidRecipient(t *testing.T) {
	env := setup(t)

	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 6})
	require.NoError(t, err)

	// A token account for a mint the state doesn't control
	keys := testutil.GenerateSolanaKeys(t, 2)
	otherMint, owner := keys[0], keys[1]
	_, err = env.execute(
		[]ed25519.PublicKey{env.payer, otherMint},
		createMintInstructions(env.payer, otherMint, owner)...,
	)
	require.NoError(t, err)
	recipient := env.createTokenAccount(t, owner, otherMint)

	receipt, err := env.mintTokens(env.authority, recipient, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecipient))
	assert.True(t, errors.Is(err, program.ClassFieldMismatch))

	// The token program was never invoked
	require.NotNil(t, receipt)
	assert.Empty(t, receipt.InnerInstructions[0])

	mint, err := env.executor.GetMint(env.ctx, env.mint)
	require.NoError(t, err)
	assert.EqualValues(t, 0, mint.Supply)
}

func TestMintTokens_InvalidMint(t *testing.T) {
	env := setup(t)

	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 6})
	require.NoError(t, err)

	owner := testutil.GenerateSolanaKeys(t, 1)[0]
	recipient := env.createTokenAccount(t, owner, env.mint)

	// The state is derived from its own mint, so a different mint fails the
	// address check before the mint binding is consulted
	env.mint = testutil.GenerateSolanaKeys(t, 1)[0]
	_, err = env.mintTokens(env.authority, recipient, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, program.ErrAddressMismatch))
}

func TestMintTokens_StateNotFound(t *testing.T) {
	env := setup(t)

	owner := testutil.GenerateSolanaKeys(t, 1)[0]
	_, err := env.mintTokens(env.authority, owner, 100)
	require.Error(t, err)
	assert.True(t, errors.Is(err, program.ErrRecordNotFound))
}

func TestMintTokens_SupplyOverflow(t *testing.T) {
	env := setup(t)

	_, err := env.initializeMint(t, &InitializeMintInstructionArgs{Decimals: 0})
	require.NoError(t, err)

	keys := testutil.GenerateSolanaKeys(t, 2)
	first := env.createTokenAccount(t, keys[0], env.mint)
	second := env.createTokenAccount(t, keys[1], env.mint)

	_, err = env.mintTokens(env.authority, first, math.MaxUint64)
	require.NoError(t, err)

	// The token program's error propagates unmodified
	_, err = env.mintTokens(env.authority, second, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, token.ErrorOverflow))

	var ixErr solana.InstructionError
	require.True(t, errors.As(err, &ixErr))
	require.NotNil(t, ixErr.CustomError())
	assert.Equal(t, token.ErrorOverflow, *ixErr.CustomError())

	mint, err := env.executor.GetMint(env.ctx, env.mint)
	require.NoError(t, err)
	assert.EqualValues(t, uint64(math.MaxUint64), mint.Supply)
}

func createMintInstructions(payer, mint, authority ed25519.PublicKey) []solana.Instruction {
	return []solana.Instruction{
		system.CreateAccount(payer, mint, token.ProgramKey, 0, token.MintSize),
		token.InitializeMint2(mint, authority, nil, 0),
	}
}
