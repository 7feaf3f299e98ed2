package detector

import (
	"context"
	"sync"
	"testing"
	"time"

	"raydium-sniper/internal/codec"
	"raydium-sniper/internal/dex/raydium"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
)

type fakePollRPC struct {
	mu        sync.Mutex
	sigs      []*rpc.TransactionSignature
	failFirst int // signature listings that error before recovery
	sigCalls  int
	txCalls   int
}

func (f *fakePollRPC) GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sigCalls++
	if f.sigCalls <= f.failFirst {
		return nil, errors.New("rpc node behind")
	}
	return f.sigs, nil
}

func (f *fakePollRPC) GetTransaction(ctx context.Context, signature solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.txCalls++
	return nil, nil
}

func (f *fakePollRPC) counts() (sigCalls, txCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sigCalls, f.txCalls
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition never reached")
		case <-time.After(time.Millisecond):
		}
	}
}

// runPollSource drives the source against the fake until the returned
// stop func is called; stop asserts a clean shutdown.
func runPollSource(t *testing.T, fake *fakePollRPC) (stop func()) {
	t.Helper()
	programs := map[solana.PublicKey]codec.Variant{
		raydium.ProgramID(codec.AmmV4): codec.AmmV4,
	}

	ctx, cancel := context.WithCancel(context.Background())
	src := NewPollSource(fake, programs, time.Millisecond)
	out := make(chan *PoolCreationEvent, 16)

	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, out) }()

	return func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("poll source returned %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("poll source did not stop")
		}
	}
}

func TestPollFetchesSignatureOnce(t *testing.T) {
	fake := &fakePollRPC{
		sigs: []*rpc.TransactionSignature{{Signature: solana.Signature{1}}},
	}
	stop := runPollSource(t, fake)

	waitUntil(t, func() bool { sig, _ := fake.counts(); return sig >= 3 })
	stop()

	if _, tx := fake.counts(); tx != 1 {
		t.Fatalf("repeated signature must be fetched once, got %d fetches", tx)
	}
}

func TestPollSurvivesSignatureListErrors(t *testing.T) {
	fake := &fakePollRPC{
		failFirst: 2,
		sigs:      []*rpc.TransactionSignature{{Signature: solana.Signature{2}}},
	}
	stop := runPollSource(t, fake)

	// keeps polling through the failed rounds and reaches the fetch
	waitUntil(t, func() bool { _, tx := fake.counts(); return tx >= 1 })
	waitUntil(t, func() bool { sig, _ := fake.counts(); return sig >= 4 })
	stop()
}

func TestPollSkipsFailedTransactions(t *testing.T) {
	fake := &fakePollRPC{
		sigs: []*rpc.TransactionSignature{{
			Signature: solana.Signature{3},
			Err:       map[string]interface{}{"InstructionError": "Custom"},
		}},
	}
	stop := runPollSource(t, fake)

	waitUntil(t, func() bool { sig, _ := fake.counts(); return sig >= 2 })
	stop()

	if _, tx := fake.counts(); tx != 0 {
		t.Fatal("failed transactions must never be fetched")
	}
}
