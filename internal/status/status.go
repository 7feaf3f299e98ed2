package status

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zeromicro/go-zero/core/logx"
)

// Counters tracks the lifetime totals of the snipe loop. All fields
// are updated lock-free from the orchestrator goroutine and read by
// the HTTP handler.
type Counters struct {
	Detected  atomic.Uint64
	Filtered  atomic.Uint64
	Submitted atomic.Uint64
	Confirmed atomic.Uint64
	Failed    atomic.Uint64
	TimedOut  atomic.Uint64

	started time.Time
}

func NewCounters() *Counters {
	return &Counters{started: time.Now()}
}

func (c *Counters) snapshot() gin.H {
	return gin.H{
		"uptime_seconds": int64(time.Since(c.started).Seconds()),
		"detected":       c.Detected.Load(),
		"filtered":       c.Filtered.Load(),
		"submitted":      c.Submitted.Load(),
		"confirmed":      c.Confirmed.Load(),
		"failed":         c.Failed.Load(),
		"timed_out":      c.TimedOut.Load(),
	}
}

// Server exposes the counters at GET /status.
type Server struct {
	srv *http.Server
}

func NewServer(addr string, counters *Counters) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, counters.snapshot())
	})
	return &Server{srv: &http.Server{Addr: addr, Handler: r}}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.ListenAndServe()
	}()
	logx.Infof("status endpoint listening on %s", s.srv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
