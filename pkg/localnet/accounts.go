package localnet

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-authority-server/pkg/ledger"
	"github.com/code-payments/code-authority-server/pkg/solana/metadata"
	"github.com/code-payments/code-authority-server/pkg/solana/token"
)

var (
	ErrUnexpectedOwner = errors.New("account is owned by an unexpected program")
	ErrInvalidAccount  = errors.New("account data is invalid")
)

// GetAccount returns the committed state of the account at the address
func (e *Executor) GetAccount(ctx context.Context, address ed25519.PublicKey) (*ledger.Record, error) {
	return e.store.Get(ctx, base58.Encode(address))
}

// GetMint returns the committed state of a token mint
func (e *Executor) GetMint(ctx context.Context, address ed25519.PublicKey) (*token.Mint, error) {
	data, err := e.getOwnedData(ctx, address, token.ProgramKey)
	if err != nil {
		return nil, err
	}

	var mint token.Mint
	if !mint.Unmarshal(data) {
		return nil, ErrInvalidAccount
	}
	return &mint, nil
}

// GetTokenAccount returns the committed state of a token account
func (e *Executor) GetTokenAccount(ctx context.Context, address ed25519.PublicKey) (*token.Account, error) {
	data, err := e.getOwnedData(ctx, address, token.ProgramKey)
	if err != nil {
		return nil, err
	}

	var account token.Account
	if !account.Unmarshal(data) {
		return nil, ErrInvalidAccount
	}
	return &account, nil
}

// GetMetadata returns the committed metadata of a mint
func (e *Executor) GetMetadata(ctx context.Context, mint ed25519.PublicKey) (*metadata.MetadataAccount, error) {
	address, _, err := metadata.GetMetadataAddress(mint)
	if err != nil {
		return nil, err
	}

	data, err := e.getOwnedData(ctx, address, metadata.ProgramKey)
	if err != nil {
		return nil, err
	}

	var account metadata.MetadataAccount
	if err := account.Unmarshal(data); err != nil {
		return nil, errors.Wrap(ErrInvalidAccount, err.Error())
	}
	return &account, nil
}

func (e *Executor) getOwnedData(ctx context.Context, address, owner ed25519.PublicKey) ([]byte, error) {
	record, err := e.GetAccount(ctx, address)
	if err != nil {
		return nil, err
	}
	if !record.IsOwnedBy(base58.Encode(owner)) {
		return nil, ErrUnexpectedOwner
	}
	return record.Data, nil
}
