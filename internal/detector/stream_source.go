package detector

import (
	"context"
	"sync"
	"time"

	"raydium-sniper/internal/codec"
	"raydium-sniper/internal/stream"

	pb "github.com/lonelybeanz/solanaswap-go/yellowstone-grpc"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
)

// TxDeduper suppresses replayed signatures on the streaming path.
// Bloom-backed, so a rare false positive drops a real event; that is
// acceptable for a sniper, unbounded memory is not.
type TxDeduper struct {
	filter *bloom.BloomFilter
}

func NewTxDeduper(n uint, fpRate float64) *TxDeduper {
	return &TxDeduper{
		filter: bloom.NewWithEstimates(n, fpRate),
	}
}

func (d *TxDeduper) SeenOrAdd(sig string) bool {
	if d.filter.Test([]byte(sig)) {
		return true
	}
	d.filter.Add([]byte(sig))
	return false
}

// StreamSource consumes a Geyser transaction subscription filtered
// to the monitored pool programs.
type StreamSource struct {
	stream   *stream.GrpcStream
	programs map[solana.PublicKey]codec.Variant
	deduper  *TxDeduper
}

func NewStreamSource(gs *stream.GrpcStream, programs map[solana.PublicKey]codec.Variant) *StreamSource {
	return &StreamSource{
		stream:   gs,
		programs: programs,
		deduper:  NewTxDeduper(1_000_000, 0.001),
	}
}

func (s *StreamSource) Name() string { return "geyser-stream" }

func (s *StreamSource) subscription() *pb.SubscribeRequest {
	var subscription pb.SubscribeRequest
	commitment := pb.CommitmentLevel_PROCESSED
	subscription.Commitment = &commitment
	subscription.Transactions = make(map[string]*pb.SubscribeRequestFilterTransactions)

	failed := false
	vote := false
	filter := &pb.SubscribeRequestFilterTransactions{
		Failed: &failed,
		Vote:   &vote,
	}
	for program := range s.programs {
		filter.AccountInclude = append(filter.AccountInclude, program.String())
	}
	subscription.Transactions["pool_init_sub"] = filter

	return &subscription
}

// Run relays decoded pool initializations into out. The output queue
// is never blocked on: when it is full the subscription is torn down
// and an error returned, handing control to the fallback policy. The
// connection is closed on the way out either way.
func (s *StreamSource) Run(ctx context.Context, out chan<- *PoolCreationEvent) error {
	subscribe := make(chan interface{})
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.stream.Close()

	var once sync.Once
	s.stream.Subscribe(subCtx, s.subscription(), &once, subscribe)

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-subscribe:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				if err := s.stream.Err(); err != nil {
					return errors.Wrap(err, "stream subscription ended")
				}
				return errors.New("stream subscription ended")
			}
			sm, ok := msg.(*stream.StreamMessage)
			if !ok {
				continue
			}
			got, ok := sm.Data.(*pb.SubscribeUpdate)
			if !ok {
				continue
			}
			tx := got.GetTransaction()
			if tx == nil || tx.Transaction == nil {
				continue
			}

			events := eventsFromPbTransaction(s.programs, tx.Transaction, tx.Slot, time.Now())
			if len(events) == 0 {
				continue
			}
			if s.deduper.SeenOrAdd(events[0].Signature) {
				continue
			}

			for _, ev := range events {
				select {
				case out <- ev:
					logx.Infof("[%s]: pool %s created by %s {%s}", ev.Variant, ev.Pool, ev.Creator, ev.Signature)
				default:
					return errors.New("event queue full, terminating stream subscription")
				}
			}
		}
	}
}
