package executor

import (
	"context"
	"fmt"
	"time"

	"raydium-sniper/internal/config"
	"raydium-sniper/internal/detector"
	"raydium-sniper/internal/dex/raydium"
	"raydium-sniper/internal/utils"
	"raydium-sniper/pkg/token2022"

	"github.com/avast/retry-go"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/zeromicro/go-zero/core/logx"
)

// State is the terminal outcome of a submission.
type State string

const (
	StateConfirmed State = "confirmed"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
)

const (
	// DryRunSignature marks results that never touched the network.
	DryRunSignature = "dry_run_simulation"

	maxSubmitAttempts   = 3
	confirmPollInterval = 500 * time.Millisecond
	confirmTimeout      = 30 * time.Second
)

// SubmissionResult is the final word on one buy: exactly one of the
// three states, with the on-chain rejection reason when failed.
type SubmissionResult struct {
	Signature     string
	State         State
	FailureReason string
	Attempts      int
	Simulated     bool
}

// solRPC is the slice of the RPC client the engine needs. *rpc.Client
// satisfies it; tests fake it.
type solRPC interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, sigs ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// BundleRelay broadcasts an already-signed transaction through a
// priority bundle service alongside plain RPC submission.
type BundleRelay interface {
	TipInstruction(owner solana.PublicKey, tip uint64) solana.Instruction
	BroadcastSigned(ctx context.Context, tx *solana.Transaction)
}

// Engine builds, signs and submits buy transactions. One submission
// walks Building -> Signed -> Submitted (re-entrant up to the retry
// ceiling) -> Confirmed | Rejected | TimedOut.
type Engine struct {
	cfg    *config.Config
	wallet *solana.Wallet
	rpc    solRPC
	relay  BundleRelay

	// overridable in tests
	pollInterval time.Duration
	timeout      time.Duration
	submitDelay  func(attempt uint) time.Duration
}

func NewEngine(cfg *config.Config, wallet *solana.Wallet, rpcClient solRPC, relay BundleRelay) *Engine {
	return &Engine{
		cfg:          cfg,
		wallet:       wallet,
		rpc:          rpcClient,
		relay:        relay,
		pollInterval: confirmPollInterval,
		timeout:      confirmTimeout,
		submitDelay:  retryDelay,
	}
}

// retryDelay is the linear backoff between submission attempts:
// 1s after the first failure, 2s after the second.
func retryDelay(attempt uint) time.Duration {
	return time.Duration(attempt+1) * time.Second
}

// ExecuteBuy performs the full buy pipeline for one pool. In dry-run
// mode it returns immediately with a simulated result and makes no
// network calls at all.
func (e *Engine) ExecuteBuy(ctx context.Context, ev *detector.PoolCreationEvent) (*SubmissionResult, error) {
	if e.cfg.DryRun {
		logx.Infof("[%s]: dry run, skipping submission", ev.Pool)
		return &SubmissionResult{
			Signature: DryRunSignature,
			State:     StateConfirmed,
			Simulated: true,
		}, nil
	}

	tx, err := e.buildSignedTx(ctx, ev)
	if err != nil {
		return nil, err
	}
	sig := tx.Signatures[0]

	result := &SubmissionResult{Signature: sig.String()}

	// one signed payload, re-sent as-is on every retry
	err = retry.Do(
		func() error {
			result.Attempts++
			_, sendErr := e.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
				SkipPreflight:       true,
				PreflightCommitment: rpc.CommitmentConfirmed,
			})
			if sendErr != nil {
				logx.Errorf("[%s]: {%s} submit attempt %d failed: %v", ev.Pool, sig, result.Attempts, sendErr)
			}
			return sendErr
		},
		retry.Attempts(maxSubmitAttempts),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return e.submitDelay(n)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		result.State = StateFailed
		result.FailureReason = fmt.Sprintf("submission failed after %d attempts: %v", result.Attempts, err)
		return result, nil
	}

	if e.relay != nil {
		e.relay.BroadcastSigned(ctx, tx)
	}

	logx.Infof("[%s]: {%s} submitted, awaiting confirmation", ev.Pool, sig)
	e.awaitConfirmation(ctx, sig, result)
	return result, nil
}

// buildSignedTx assembles the compute budget, token account and swap
// instructions, then signs exactly once.
func (e *Engine) buildSignedTx(ctx context.Context, ev *detector.PoolCreationEvent) (*solana.Transaction, error) {
	pool, err := raydium.FetchPoolAccounts(ctx, e.rpc, ev.Variant, ev.Pool)
	if err != nil {
		return nil, err
	}
	targetMint, ok := pool.TargetMint()
	if !ok {
		return nil, errors.Errorf("pool %s has no snipeable token side", ev.Pool)
	}
	inVault, outVault, _ := pool.SolVault()

	amountIn := utils.SolToLamports(e.cfg.BuyAmountSOL)
	minOut, err := e.minAmountOut(ctx, inVault, outVault, amountIn)
	if err != nil {
		return nil, err
	}

	blockhash, err := e.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, errors.Wrap(err, "fetch blockhash")
	}

	owner := e.wallet.PublicKey()
	wsol := solana.MustPublicKeyFromBase58(raydium.NativeMint)
	userSource, _, err := solana.FindAssociatedTokenAddress(owner, wsol)
	if err != nil {
		return nil, errors.Wrap(err, "derive source token account")
	}
	token2022Target := pool.TargetTokenProgram().Equals(solana.Token2022ProgramID)
	var userDest solana.PublicKey
	if token2022Target {
		userDest, _, err = token2022.FindAssociatedTokenAddress2022(owner, targetMint)
	} else {
		userDest, _, err = solana.FindAssociatedTokenAddress(owner, targetMint)
	}
	if err != nil {
		return nil, errors.Wrap(err, "derive destination token account")
	}

	swapIx, err := raydium.BuildSwapInstruction(pool, raydium.SwapParams{
		User:         owner,
		UserSource:   userSource,
		UserDest:     userDest,
		AmountIn:     amountIn,
		MinAmountOut: minOut,
	})
	if err != nil {
		return nil, err
	}

	builder := NewTxBuilder(owner, blockhash.Value.Blockhash)
	fee := utils.PriorityFeeWithJitter(e.cfg.PriorityFeeMicroLamports, e.cfg.PriorityFeeJitter)
	builder.AddInstruction(computebudget.NewSetComputeUnitPriceInstruction(fee).Build())
	builder.AddInstruction(computebudget.NewSetComputeUnitLimitInstruction(e.cfg.ComputeUnitLimit).Build())
	// the pool is brand new, the destination account never exists yet
	if token2022Target {
		builder.AddInstruction(token2022.NewCreate2022Instruction(owner, owner, targetMint).Build())
	} else {
		builder.AddInstruction(associatedtokenaccount.NewCreateInstruction(owner, owner, targetMint).Build())
	}
	builder.AddInstruction(swapIx)
	if e.relay != nil && e.cfg.JitoTipLamports > 0 {
		builder.AddInstruction(e.relay.TipInstruction(owner, e.cfg.JitoTipLamports))
	}

	tx, err := builder.BuildTx()
	if err != nil {
		return nil, errors.Wrap(err, "build transaction")
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(owner) {
			return &e.wallet.PrivateKey
		}
		return nil
	}); err != nil {
		return nil, errors.Wrap(err, "sign transaction")
	}
	return tx, nil
}

// minAmountOut estimates the swap output from live vault reserves
// and applies the slippage tolerance.
func (e *Engine) minAmountOut(ctx context.Context, inVault, outVault solana.PublicKey, amountIn uint64) (uint64, error) {
	inBal, err := e.vaultBalance(ctx, inVault)
	if err != nil {
		return 0, errors.Wrap(err, "read input reserve")
	}
	outBal, err := e.vaultBalance(ctx, outVault)
	if err != nil {
		return 0, errors.Wrap(err, "read output reserve")
	}
	expected := raydium.EstimateSwapOut(inBal, outBal, amountIn)
	return utils.CalculateMinAmountOut(expected, e.cfg.SlippageBps), nil
}

func (e *Engine) vaultBalance(ctx context.Context, vault solana.PublicKey) (uint64, error) {
	out, err := e.rpc.GetTokenAccountBalance(ctx, vault, rpc.CommitmentProcessed)
	if err != nil {
		return 0, err
	}
	if out == nil || out.Value == nil {
		return 0, errors.Errorf("token account %s not found", vault)
	}
	return cast.ToUint64(out.Value.Amount), nil
}

// awaitConfirmation polls signature status until confirmed, rejected
// on chain, or the deadline passes. An on-chain rejection is terminal
// and never retried; a deadline is reported as its own state since
// the transaction may still land.
func (e *Engine) awaitConfirmation(ctx context.Context, sig solana.Signature, result *SubmissionResult) {
	deadline := time.NewTimer(e.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			result.State = StateTimedOut
			result.FailureReason = "confirmation interrupted: " + ctx.Err().Error()
			return
		case <-deadline.C:
			result.State = StateTimedOut
			result.FailureReason = fmt.Sprintf("not confirmed within %v", e.timeout)
			return
		case <-ticker.C:
			out, err := e.rpc.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				logx.Errorf("{%s}: status poll failed: %v", sig, err)
				continue
			}
			if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
				continue
			}
			st := out.Value[0]
			if st.Err != nil {
				result.State = StateFailed
				result.FailureReason = fmt.Sprintf("rejected on chain: %v", st.Err)
				return
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				result.State = StateConfirmed
				return
			}
		}
	}
}
