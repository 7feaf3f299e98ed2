package utils

import (
	"math/big"
	"math/rand"
)

const (
	LamportsPerSol = 1_000_000_000

	// Rough SOL/USD used for liquidity valuation. Good enough for
	// threshold checks; not a price feed.
	SolPriceUSD = 150.0

	BpsDenominator = 10_000
)

// SolToLamports converts a SOL amount to lamports, truncating
// anything below one lamport.
func SolToLamports(sol float64) uint64 {
	return uint64(sol * LamportsPerSol)
}

func LamportsToSol(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSol
}

// CalculateMinAmountOut applies a slippage tolerance in basis points
// to an expected output amount. Integer math, truncated:
// amount * (10000 - bps) / 10000. bps >= 10000 yields zero, which
// disables slippage protection entirely.
func CalculateMinAmountOut(amount uint64, slippageBps uint64) uint64 {
	if slippageBps >= BpsDenominator {
		return 0
	}
	num := new(big.Int).Mul(
		new(big.Int).SetUint64(amount),
		new(big.Int).SetUint64(BpsDenominator-slippageBps),
	)
	return num.Div(num, big.NewInt(BpsDenominator)).Uint64()
}

// PriorityFeeWithJitter returns base plus a uniform random jitter in
// [0, jitter). Spreads bots submitting in the same slot across fee
// levels so they don't all land on the identical price.
func PriorityFeeWithJitter(base, jitter uint64) uint64 {
	if jitter == 0 {
		return base
	}
	return base + uint64(rand.Int63n(int64(jitter)))
}

// EstimateUSDValueSOL values a SOL amount in USD using the static
// reference price.
func EstimateUSDValueSOL(sol float64) float64 {
	return sol * SolPriceUSD
}
