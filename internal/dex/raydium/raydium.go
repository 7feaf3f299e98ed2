package raydium

import (
	"encoding/binary"

	"raydium-sniper/internal/codec"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

var (
	ammV4SwapDiscriminator = []byte{225, 226, 218, 232, 240, 105, 206, 129}
	cpmmSwapDiscriminator  = []byte{143, 190, 90, 218, 196, 30, 51, 222}
)

// SwapParams carries everything a swap instruction needs besides the
// pool accounts themselves.
type SwapParams struct {
	User         solana.PublicKey
	UserSource   solana.PublicKey
	UserDest     solana.PublicKey
	AmountIn     uint64
	MinAmountOut uint64
}

// BuildSwapInstruction dispatches to the variant-specific builder.
// Each builder returns a descriptive error when the pool state does
// not carry the accounts its layout requires, so nothing malformed is
// ever submitted.
func BuildSwapInstruction(pool *PoolAccounts, p SwapParams) (solana.Instruction, error) {
	switch pool.Variant {
	case codec.AmmV4:
		return buildAmmV4Swap(pool, p)
	case codec.Cpmm:
		return buildCpmmSwap(pool, p)
	default:
		return nil, errors.Errorf("unsupported pool variant %d", pool.Variant)
	}
}

func swapData(discriminator []byte, amountIn, minOut uint64) []byte {
	buf := make([]byte, 8+8+8)
	copy(buf, discriminator)
	binary.LittleEndian.PutUint64(buf[8:], amountIn)
	binary.LittleEndian.PutUint64(buf[16:], minOut)
	return buf
}

func buildAmmV4Swap(pool *PoolAccounts, p SwapParams) (solana.Instruction, error) {
	if pool.Authority.IsZero() {
		return nil, errors.Errorf("v4 pool %s: missing authority", pool.Pool)
	}
	if pool.OpenOrders.IsZero() || pool.TargetOrders.IsZero() {
		return nil, errors.Errorf("v4 pool %s: missing open/target orders", pool.Pool)
	}
	if pool.Market.IsZero() || pool.MarketProgram.IsZero() {
		return nil, errors.Errorf("v4 pool %s: missing market accounts", pool.Pool)
	}

	accounts := solana.AccountMetaSlice{
		// 1. user (signer, fee payer)
		{PublicKey: p.User, IsSigner: true, IsWritable: true},
		// 2. pool state
		{PublicKey: pool.Pool, IsSigner: false, IsWritable: true},
		// 3. pool authority
		{PublicKey: pool.Authority, IsSigner: false, IsWritable: false},
		// 4. open orders
		{PublicKey: pool.OpenOrders, IsSigner: false, IsWritable: true},
		// 5. target orders
		{PublicKey: pool.TargetOrders, IsSigner: false, IsWritable: true},
		// 6. base vault
		{PublicKey: pool.BaseVault, IsSigner: false, IsWritable: true},
		// 7. quote vault
		{PublicKey: pool.QuoteVault, IsSigner: false, IsWritable: true},
		// 8. user source token account
		{PublicKey: p.UserSource, IsSigner: false, IsWritable: true},
		// 9. user destination token account
		{PublicKey: p.UserDest, IsSigner: false, IsWritable: true},
		// 10. market program
		{PublicKey: pool.MarketProgram, IsSigner: false, IsWritable: false},
		// 11. market
		{PublicKey: pool.Market, IsSigner: false, IsWritable: true},
		// 12. system program
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(
		ProgramID(codec.AmmV4),
		accounts,
		swapData(ammV4SwapDiscriminator, p.AmountIn, p.MinAmountOut),
	), nil
}

func buildCpmmSwap(pool *PoolAccounts, p SwapParams) (solana.Instruction, error) {
	inVault, outVault, ok := pool.SolVault()
	if !ok {
		return nil, errors.Errorf("cpmm pool %s: no wrapped-SOL side", pool.Pool)
	}

	accounts := solana.AccountMetaSlice{
		// 1. user (signer, fee payer)
		{PublicKey: p.User, IsSigner: true, IsWritable: true},
		// 2. pool state
		{PublicKey: pool.Pool, IsSigner: false, IsWritable: true},
		// 3. user source token account
		{PublicKey: p.UserSource, IsSigner: false, IsWritable: true},
		// 4. user destination token account
		{PublicKey: p.UserDest, IsSigner: false, IsWritable: true},
		// 5. pool input vault
		{PublicKey: inVault, IsSigner: false, IsWritable: true},
		// 6. pool output vault
		{PublicKey: outVault, IsSigner: false, IsWritable: true},
		// 7. system program
		{PublicKey: solana.SystemProgramID, IsSigner: false, IsWritable: false},
	}

	return solana.NewInstruction(
		ProgramID(codec.Cpmm),
		accounts,
		swapData(cpmmSwapDiscriminator, p.AmountIn, p.MinAmountOut),
	), nil
}
