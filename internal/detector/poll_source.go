package detector

import (
	"context"
	"time"

	"raydium-sniper/internal/codec"
	"raydium-sniper/internal/utils/fifomap"

	"github.com/avast/retry-go"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/zeromicro/go-zero/core/logx"
)

const (
	// signatures fetched per program per round
	pollSignatureLimit = 10

	// recency-set capacity; signatures seen longer ago than this many
	// entries may be re-fetched, then dropped again by the decoder
	seenSignatureCap = 4096
)

// pollRPC is the slice of the RPC client the polling source uses.
type pollRPC interface {
	GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error)
	GetTransaction(ctx context.Context, signature solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// PollSource discovers pools by walking recent signatures of the
// monitored programs over plain RPC. Slower than streaming but needs
// nothing beyond an RPC endpoint.
type PollSource struct {
	client   pollRPC
	programs map[solana.PublicKey]codec.Variant
	interval time.Duration
	seen     *fifomap.FIFOMap
}

func NewPollSource(client pollRPC, programs map[solana.PublicKey]codec.Variant, interval time.Duration) *PollSource {
	return &PollSource{
		client:   client,
		programs: programs,
		interval: interval,
		seen:     fifomap.NewFIFOMap(seenSignatureCap),
	}
}

func (s *PollSource) Name() string { return "rpc-poll" }

// Run polls every monitored program each round, sleeping the
// configured interval between rounds. Transient RPC errors are
// logged and retried on the next round.
func (s *PollSource) Run(ctx context.Context, out chan<- *PoolCreationEvent) error {
	logx.Infof("polling %d program(s) every %v", len(s.programs), s.interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		for program := range s.programs {
			if err := s.pollProgram(ctx, program, out); err != nil {
				return err
			}
		}

		timer.Reset(s.interval)
	}
}

func (s *PollSource) pollProgram(ctx context.Context, program solana.PublicKey, out chan<- *PoolCreationEvent) error {
	limit := pollSignatureLimit
	sigs, err := s.client.GetSignaturesForAddressWithOpts(ctx, program, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		logx.Errorf("[%s]: signature poll failed: %v", program, err)
		return nil
	}

	// oldest first, so events come out in chain order
	for i := len(sigs) - 1; i >= 0; i-- {
		sig := sigs[i]
		if sig.Err != nil {
			continue
		}
		sigStr := sig.Signature.String()
		if s.seen.Has(sigStr) {
			continue
		}
		s.seen.Set(sigStr, struct{}{})

		txResp, err := s.fetchTransaction(ctx, sig.Signature)
		if err != nil {
			logx.Errorf("[%s]: fetch transaction {%s} failed: %v", program, sigStr, err)
			continue
		}
		if txResp == nil || txResp.Transaction == nil {
			continue
		}
		decoded, err := txResp.Transaction.GetTransaction()
		if err != nil || decoded == nil {
			continue
		}

		ts := time.Now()
		if txResp.BlockTime != nil {
			ts = txResp.BlockTime.Time()
		}
		for _, ev := range eventsFromTransaction(s.programs, decoded, sigStr, txResp.Slot, ts) {
			select {
			case out <- ev:
				logx.Infof("[%s]: pool %s created by %s {%s}", ev.Variant, ev.Pool, ev.Creator, ev.Signature)
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

func (s *PollSource) fetchTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxSupportedTransactionVersion := uint64(0)
	var txResp *rpc.GetTransactionResult
	err := retry.Do(
		func() error {
			var err error
			txResp, err = s.client.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
				Commitment:                     rpc.CommitmentConfirmed,
				Encoding:                       solana.EncodingBase64,
				MaxSupportedTransactionVersion: &maxSupportedTransactionVersion,
			})
			return err
		},
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	return txResp, err
}
