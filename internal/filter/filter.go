package filter

import (
	"context"
	"fmt"

	"raydium-sniper/internal/client"
	"raydium-sniper/internal/config"
	"raydium-sniper/internal/detector"
	"raydium-sniper/internal/dex/raydium"
	"raydium-sniper/internal/utils"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/zeromicro/go-zero/core/logx"
)

// Verdict is the outcome of evaluating one pool. A rejection always
// carries the reason of the first failing check.
type Verdict struct {
	Pass   bool
	Reason string
}

func pass() Verdict { return Verdict{Pass: true} }

func reject(format string, args ...any) Verdict {
	return Verdict{Pass: false, Reason: fmt.Sprintf(format, args...)}
}

// ChainReader is the chain surface the filter checks read through.
// Narrow on purpose: tests stub it, production wraps *rpc.Client.
type ChainReader interface {
	PoolAccounts(ctx context.Context, ev *detector.PoolCreationEvent) (*raydium.PoolAccounts, error)
	VaultBalance(ctx context.Context, vault solana.PublicKey) (uint64, error)
	MintInfo(ctx context.Context, mint solana.PublicKey) (*token.Mint, error)
}

// RugReporter fetches an external token risk report.
type RugReporter interface {
	Report(ctx context.Context, mint string) (*client.RugCheckResponse, error)
}

// Engine runs the filter pipeline in fixed order: blacklist first
// (deterministic, no I/O), then liquidity bounds, then rug
// indicators. The first rejection wins; network failures inside a
// check are soft — logged, the check skipped, evaluation continues.
type Engine struct {
	cfg       *config.Config
	blacklist *config.Blacklist
	chain     ChainReader
	rug       RugReporter
}

func NewEngine(cfg *config.Config, blacklist *config.Blacklist, chain ChainReader, rug RugReporter) *Engine {
	return &Engine{
		cfg:       cfg,
		blacklist: blacklist,
		chain:     chain,
		rug:       rug,
	}
}

// Evaluate runs every check against one pool-creation event.
func (e *Engine) Evaluate(ctx context.Context, ev *detector.PoolCreationEvent) Verdict {
	if v := e.checkBlacklist(ev); !v.Pass {
		return v
	}

	pool, err := e.chain.PoolAccounts(ctx, ev)
	if err != nil {
		// cannot read the pool at all: nothing further is checkable
		logx.Errorf("[%s]: pool state unavailable, skipping liquidity and rug checks: %v", ev.Pool, err)
		return pass()
	}

	if v := e.checkLiquidity(ctx, ev, pool); !v.Pass {
		return v
	}
	return e.checkRugIndicators(ctx, ev, pool)
}

// checkBlacklist rejects pools from blocked creators or for blocked
// mints. Zero I/O; always runs first.
func (e *Engine) checkBlacklist(ev *detector.PoolCreationEvent) Verdict {
	if e.blacklist == nil {
		return pass()
	}
	if e.blacklist.HasCreator(ev.Creator.String()) {
		return reject("creator %s is blacklisted", ev.Creator)
	}
	if e.blacklist.HasMint(ev.Amm.String()) {
		return reject("token %s is blacklisted", ev.Amm)
	}
	return pass()
}

// checkLiquidity values the SOL side of the pool in USD and applies
// the configured bounds. A balance read failure is soft.
func (e *Engine) checkLiquidity(ctx context.Context, ev *detector.PoolCreationEvent, pool *raydium.PoolAccounts) Verdict {
	solVault, _, ok := pool.SolVault()
	if !ok {
		return reject("pool %s has no wrapped-SOL side", ev.Pool)
	}

	lamports, err := e.chain.VaultBalance(ctx, solVault)
	if err != nil {
		logx.Errorf("[%s]: liquidity check skipped: %v", ev.Pool, err)
		return pass()
	}

	// both sides assumed balanced at creation
	liquidityUSD := 2 * utils.EstimateUSDValueSOL(utils.LamportsToSol(lamports))

	if liquidityUSD < e.cfg.MinLiquidityUSD {
		return reject("liquidity $%.0f below minimum $%.0f", liquidityUSD, e.cfg.MinLiquidityUSD)
	}
	if e.cfg.MaxLiquidityUSD > 0 && liquidityUSD > e.cfg.MaxLiquidityUSD {
		return reject("liquidity $%.0f above maximum $%.0f", liquidityUSD, e.cfg.MaxLiquidityUSD)
	}
	return pass()
}

// checkRugIndicators rejects tokens whose mint keeps a mint or
// freeze authority, and optionally consults the external rug report.
// Read failures are soft.
func (e *Engine) checkRugIndicators(ctx context.Context, ev *detector.PoolCreationEvent, pool *raydium.PoolAccounts) Verdict {
	mintAddr, ok := pool.TargetMint()
	if !ok {
		return reject("pool %s has no snipeable token side", ev.Pool)
	}

	mint, err := e.chain.MintInfo(ctx, mintAddr)
	if err != nil {
		logx.Errorf("[%s]: mint authority check skipped: %v", mintAddr, err)
	} else {
		if mint.MintAuthority != nil {
			return reject("mint %s retains mint authority", mintAddr)
		}
		if mint.FreezeAuthority != nil {
			return reject("mint %s retains freeze authority", mintAddr)
		}
	}

	if e.cfg.RugCheck && e.rug != nil {
		report, err := e.rug.Report(ctx, mintAddr.String())
		if err != nil {
			logx.Errorf("[%s]: rug report unavailable: %v", mintAddr, err)
			return pass()
		}
		if report.Rugged {
			return reject("mint %s already flagged as rugged", mintAddr)
		}
		if report.HasDangerRisk() {
			return reject("mint %s carries a danger-level risk", mintAddr)
		}
	}

	return pass()
}

// RPCChainReader implements ChainReader over a live RPC client.
type RPCChainReader struct {
	Client *rpc.Client
}

func (r *RPCChainReader) PoolAccounts(ctx context.Context, ev *detector.PoolCreationEvent) (*raydium.PoolAccounts, error) {
	return raydium.FetchPoolAccounts(ctx, r.Client, ev.Variant, ev.Pool)
}

func (r *RPCChainReader) VaultBalance(ctx context.Context, vault solana.PublicKey) (uint64, error) {
	return client.GetTokenAccountBalance(ctx, r.Client, vault)
}

func (r *RPCChainReader) MintInfo(ctx context.Context, mint solana.PublicKey) (*token.Mint, error) {
	return client.GetMintInfo(ctx, r.Client, mint)
}

// RugCheckReporter implements RugReporter against rugcheck.xyz.
type RugCheckReporter struct{}

func (RugCheckReporter) Report(ctx context.Context, mint string) (*client.RugCheckResponse, error) {
	return client.GetRugCheck(ctx, mint)
}
