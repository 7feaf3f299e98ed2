package raydium

import (
	"math/big"

	"raydium-sniper/internal/codec"

	"github.com/gagliardetto/solana-go"
)

const (
	// Pool program IDs
	AmmV4ProgramID = "675kPX9MHTj2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	CpmmProgramID  = "CPMMoo8L3F4NbTegBCKVNunggL7H1ZpdTHKxQB5qKP1C"

	// Other Program IDs
	TokenProgram     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	Token2022Program = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"

	// Token addresses
	NativeMint = "So11111111111111111111111111111111111111112"

	// Seed for the v4 pool authority PDA
	ammAuthoritySeed = "amm authority"
)

// ProgramID returns the on-chain program address for a pool variant.
func ProgramID(v codec.Variant) solana.PublicKey {
	switch v {
	case codec.Cpmm:
		return solana.MustPublicKeyFromBase58(CpmmProgramID)
	default:
		return solana.MustPublicKeyFromBase58(AmmV4ProgramID)
	}
}

// AmmV4Authority derives the shared v4 pool authority PDA.
func AmmV4Authority() (solana.PublicKey, error) {
	authority, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(ammAuthoritySeed)},
		solana.MustPublicKeyFromBase58(AmmV4ProgramID),
	)
	return authority, err
}

// EstimateSwapOut applies the constant-product formula to the pool
// reserves: out = outReserve * in / (inReserve + in). Fees are
// ignored; the slippage tolerance absorbs them.
func EstimateSwapOut(inReserve, outReserve, amountIn uint64) uint64 {
	if inReserve == 0 || outReserve == 0 || amountIn == 0 {
		return 0
	}
	num := new(big.Int).Mul(
		new(big.Int).SetUint64(outReserve),
		new(big.Int).SetUint64(amountIn),
	)
	den := new(big.Int).Add(
		new(big.Int).SetUint64(inReserve),
		new(big.Int).SetUint64(amountIn),
	)
	return num.Div(num, den).Uint64()
}
