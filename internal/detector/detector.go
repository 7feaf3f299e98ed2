package detector

import (
	"context"
	"time"

	"raydium-sniper/internal/codec"
	"raydium-sniper/internal/config"
	"raydium-sniper/internal/dex/raydium"
	"raydium-sniper/internal/stream"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
)

// EventQueueSize bounds the detector's output queue. A full queue
// means the snipe loop is not keeping up; the streaming source
// fails fast rather than buffer stale pools.
const EventQueueSize = 1000

// ErrNoProgramsMonitored is returned when configuration disables
// every pool variant.
var ErrNoProgramsMonitored = errors.New("no pool programs monitored; enable at least one variant")

// PoolCreationEvent is one newly initialized liquidity pool,
// deduplicated by transaction signature at the producing source.
// Immutable once emitted.
type PoolCreationEvent struct {
	Variant   codec.Variant
	Pool      solana.PublicKey
	Amm       solana.PublicKey
	Creator   solana.PublicKey
	Program   solana.PublicKey
	Signature string
	Slot      uint64
	Timestamp time.Time
}

// Source produces pool-creation events into out until the context is
// cancelled or the source fails.
type Source interface {
	Name() string
	Run(ctx context.Context, out chan<- *PoolCreationEvent) error
}

// Detector multiplexes a primary (streaming) source and a polling
// fallback behind one uniform event channel.
type Detector struct {
	primary         Source
	fallback        Source
	fallbackEnabled bool
	events          chan *PoolCreationEvent
}

// MonitoredPrograms derives the watched program set from the variant
// toggles.
func MonitoredPrograms(cfg *config.Config) map[solana.PublicKey]codec.Variant {
	programs := make(map[solana.PublicKey]codec.Variant)
	if cfg.MonitorAmmV4 {
		programs[raydium.ProgramID(codec.AmmV4)] = codec.AmmV4
	}
	if cfg.MonitorCpmm {
		programs[raydium.ProgramID(codec.Cpmm)] = codec.Cpmm
	}
	return programs
}

// New wires the real sources: Geyser streaming when a gRPC endpoint
// is configured, RPC polling otherwise or as fallback. A gRPC dial
// failure is fatal unless the polling fallback is enabled.
func New(cfg *config.Config, rpcClient *rpc.Client) (*Detector, error) {
	programs := MonitoredPrograms(cfg)
	if len(programs) == 0 {
		return nil, ErrNoProgramsMonitored
	}

	var primary Source
	if cfg.GrpcEndpoint != "" {
		gs, err := stream.NewGrpcStream(cfg.GrpcEndpoint, cfg.GrpcXToken, cfg.GrpcInsecure)
		if err != nil {
			if !cfg.PollFallback {
				return nil, errors.Wrap(err, "connect grpc stream")
			}
			logx.Errorf("grpc stream unavailable, will poll instead: %v", err)
		} else {
			primary = NewStreamSource(gs, programs)
		}
	}

	poll := NewPollSource(rpcClient, programs, cfg.PollInterval)

	return NewWithSources(primary, poll, cfg.PollFallback), nil
}

// NewWithSources assembles a detector from explicit sources. primary
// may be nil, in which case the fallback is the only source.
func NewWithSources(primary, fallback Source, fallbackEnabled bool) *Detector {
	return &Detector{
		primary:         primary,
		fallback:        fallback,
		fallbackEnabled: fallbackEnabled,
		events:          make(chan *PoolCreationEvent, EventQueueSize),
	}
}

// Events is the uniform output channel. Closed when Run returns.
func (d *Detector) Events() <-chan *PoolCreationEvent {
	return d.events
}

// Run drives the sources until ctx is cancelled. A primary failure
// falls through to the polling source only when fallback is enabled;
// otherwise the error propagates and detection stops.
func (d *Detector) Run(ctx context.Context) error {
	defer close(d.events)

	if d.primary != nil {
		err := d.primary.Run(ctx, d.events)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			return nil
		}
		if !d.fallbackEnabled || d.fallback == nil {
			return errors.Wrapf(err, "source %s failed", d.primary.Name())
		}
		logx.Errorf("source %s failed: %v; falling back to %s", d.primary.Name(), err, d.fallback.Name())
	}

	if d.fallback == nil {
		return errors.New("no event source configured")
	}
	err := d.fallback.Run(ctx, d.events)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
