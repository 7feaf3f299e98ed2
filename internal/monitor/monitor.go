package monitor

import (
	"context"
	"time"

	"raydium-sniper/internal/config"
	"raydium-sniper/internal/detector"
	"raydium-sniper/internal/executor"
	"raydium-sniper/internal/filter"
	"raydium-sniper/internal/notify"
	"raydium-sniper/internal/status"
	"raydium-sniper/internal/utils/fifomap"

	"github.com/zeromicro/go-zero/core/logx"
	"golang.org/x/sync/errgroup"
)

// recentPoolCap bounds the recency guard that stops the loop from
// buying the same pool twice when both event sources report it.
const recentPoolCap = 4096

// PoolDetector produces pool-creation events. *detector.Detector
// satisfies it.
type PoolDetector interface {
	Run(ctx context.Context) error
	Events() <-chan *detector.PoolCreationEvent
}

// PoolFilter decides whether a pool is worth buying.
type PoolFilter interface {
	Evaluate(ctx context.Context, ev *detector.PoolCreationEvent) filter.Verdict
}

// BuyExecutor performs the buy for one pool.
type BuyExecutor interface {
	ExecuteBuy(ctx context.Context, ev *detector.PoolCreationEvent) (*executor.SubmissionResult, error)
}

// Sniper is the orchestrator: one goroutine runs the detector, one
// consumes its events strictly in order. Each event flows through
// dedup, rate limit, filter, execute; a buy in flight blocks the next
// event on purpose.
type Sniper struct {
	cfg      *config.Config
	detector PoolDetector
	filter   PoolFilter
	executor BuyExecutor
	notifier *notify.Notifier
	counters *status.Counters

	recentPools *fifomap.FIFOMap
	lastAttempt time.Time
}

func NewSniper(cfg *config.Config, det PoolDetector, flt PoolFilter, exec BuyExecutor, notifier *notify.Notifier, counters *status.Counters) *Sniper {
	if counters == nil {
		counters = status.NewCounters()
	}
	return &Sniper{
		cfg:         cfg,
		detector:    det,
		filter:      flt,
		executor:    exec,
		notifier:    notifier,
		counters:    counters,
		recentPools: fifomap.NewFIFOMap(recentPoolCap),
	}
}

// Run blocks until ctx is cancelled or the detector dies without a
// fallback. In-flight work finishes before it returns.
func (s *Sniper) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.detector.Run(ctx)
	})
	g.Go(func() error {
		s.consume(ctx)
		return nil
	})

	err := g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	logx.Info("sniper stopped")
	return nil
}

// consume drains the event channel until it closes. The channel is
// closed by the detector on its way out, so a detector failure also
// ends this loop.
func (s *Sniper) consume(ctx context.Context) {
	for ev := range s.detector.Events() {
		s.handle(ctx, ev)
	}
}

func (s *Sniper) handle(ctx context.Context, ev *detector.PoolCreationEvent) {
	s.counters.Detected.Add(1)

	poolKey := ev.Pool.String()
	if _, seen := s.recentPools.Get(poolKey); seen {
		logx.Infof("[%s]: already handled, skipping", ev.Pool)
		return
	}
	s.recentPools.Set(poolKey, struct{}{})

	s.throttle(ctx)
	if ctx.Err() != nil {
		return
	}

	verdict := s.filter.Evaluate(ctx, ev)
	if !verdict.Pass {
		s.counters.Filtered.Add(1)
		logx.Infof("[%s]: rejected: %s", ev.Pool, verdict.Reason)
		return
	}

	s.lastAttempt = time.Now()
	s.counters.Submitted.Add(1)
	result, err := s.executor.ExecuteBuy(ctx, ev)
	if err != nil {
		s.counters.Failed.Add(1)
		logx.Errorf("[%s]: buy aborted: %v", ev.Pool, err)
		s.notifier.Send("buy aborted for %s (%s): %v", ev.Pool, ev.Variant, err)
		return
	}
	s.report(ev, result)
}

// throttle enforces the minimum spacing between buy attempts.
func (s *Sniper) throttle(ctx context.Context) {
	if s.cfg.SnipeInterval <= 0 || s.lastAttempt.IsZero() {
		return
	}
	wait := s.cfg.SnipeInterval - time.Since(s.lastAttempt)
	if wait <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(wait):
	}
}

func (s *Sniper) report(ev *detector.PoolCreationEvent, result *executor.SubmissionResult) {
	switch result.State {
	case executor.StateConfirmed:
		s.counters.Confirmed.Add(1)
		if result.Simulated {
			logx.Infof("[%s]: dry run complete", ev.Pool)
			s.notifier.Send("dry run: would buy %s (%s)", ev.Pool, ev.Variant)
			return
		}
		logx.Infof("[%s]: {%s} buy confirmed after %d attempt(s)", ev.Pool, result.Signature, result.Attempts)
		s.notifier.Send("bought %s (%s)\ntx: %s", ev.Pool, ev.Variant, result.Signature)
	case executor.StateFailed:
		s.counters.Failed.Add(1)
		logx.Errorf("[%s]: {%s} buy failed: %s", ev.Pool, result.Signature, result.FailureReason)
		s.notifier.Send("buy failed for %s: %s", ev.Pool, result.FailureReason)
	case executor.StateTimedOut:
		s.counters.TimedOut.Add(1)
		logx.Errorf("[%s]: {%s} confirmation timed out: %s", ev.Pool, result.Signature, result.FailureReason)
		s.notifier.Send("buy unconfirmed for %s, check %s manually", ev.Pool, result.Signature)
	}
}
