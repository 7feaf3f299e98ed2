package client

import (
	"context"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// GetWalletBalance returns the wallet's SOL balance in lamports.
func GetWalletBalance(ctx context.Context, client *rpc.Client, owner solana.PublicKey) (uint64, error) {
	out, err := client.GetBalance(ctx, owner, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, errors.Wrap(err, "get balance")
	}
	return out.Value, nil
}

// GetMintInfo fetches and decodes an SPL mint account.
func GetMintInfo(ctx context.Context, client *rpc.Client, mint solana.PublicKey) (*token.Mint, error) {
	info, err := client.GetAccountInfo(ctx, mint)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch mint %s", mint)
	}
	if info == nil || info.Value == nil {
		return nil, errors.Errorf("mint account %s not found", mint)
	}

	m := new(token.Mint)
	if err := m.UnmarshalWithDecoder(bin.NewBinDecoder(info.Value.Data.GetBinary())); err != nil {
		return nil, errors.Wrapf(err, "decode mint %s", mint)
	}
	return m, nil
}

// GetTokenAccountBalance returns the raw token amount held by a
// token account (a pool vault, usually).
func GetTokenAccountBalance(ctx context.Context, client *rpc.Client, account solana.PublicKey) (uint64, error) {
	out, err := client.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, errors.Wrapf(err, "token balance %s", account)
	}
	if out == nil || out.Value == nil {
		return 0, errors.Errorf("token account %s not found", account)
	}
	return cast.ToUint64(out.Value.Amount), nil
}
