package undoworker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cuemby/undomgr/pkg/log"
	"github.com/cuemby/undomgr/pkg/metrics"
	"github.com/cuemby/undomgr/pkg/undo"
)

// UndoFunc performs the actual undo work for req. It is the embedding's
// responsibility: the pool only decides when and to whom a request is
// handed, never what undoing it means.
type UndoFunc func(ctx context.Context, req *undo.Request) error

// Config configures a Pool.
type Config struct {
	Manager *undo.Manager
	// Workers is the number of goroutines polling Next. Must be positive.
	Workers int
	// UndoFunc is called once per request handed out by Next.
	UndoFunc UndoFunc
	// DBID, when non-nil, restricts every worker in this pool to requests
	// belonging to one database, matching Next's affinity parameter.
	DBID *uint32
	// IdleBackoff is how long a worker sleeps after Next reports nothing
	// eligible, before polling again. Defaults to 50ms.
	IdleBackoff time.Duration
}

// Pool runs Config.Workers goroutines against a shared Manager.
type Pool struct {
	cfg    Config
	log    zerolog.Logger
	cancel context.CancelFunc
	ctx    context.Context
	wg     sync.WaitGroup
}

// New constructs a Pool. It does not start any goroutines; call Start.
func New(cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.IdleBackoff <= 0 {
		cfg.IdleBackoff = 50 * time.Millisecond
	}
	return &Pool{
		cfg: cfg,
		log: log.WithComponent("undoworker"),
	}
}

// Start launches the worker goroutines. Calling Start twice is a
// programming error; the second call is a no-op.
func (p *Pool) Start() {
	if p.ctx != nil {
		return
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	for i := 0; i < p.cfg.Workers; i++ {
		id := uuid.NewString()
		p.wg.Add(1)
		go p.run(id)
	}
	metrics.WorkersActive.Set(float64(p.cfg.Workers))
}

// Stop signals every worker to exit and waits for in-flight UndoFunc calls
// to return.
func (p *Pool) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	metrics.WorkersActive.Set(0)
}

// SuspendPrepared removes a previously prepared transaction's request from
// scheduling and returns it, for recovery to drive to completion before
// workers start.
func (p *Pool) SuspendPrepared(fxid uint64) (*undo.Request, error) {
	return p.cfg.Manager.SuspendPrepared(fxid)
}

// Running reports whether Start has been called and Stop has not.
func (p *Pool) Running() bool {
	return p.ctx != nil && p.ctx.Err() == nil
}

func (p *Pool) run(workerID string) {
	defer p.wg.Done()
	wlog := log.WithWorkerID(p.log, workerID)
	wlog.Info().Msg("undo worker started")
	defer wlog.Info().Msg("undo worker stopped")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		default:
		}

		req, ok := p.cfg.Manager.Next(p.cfg.DBID, false)
		if !ok {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(p.cfg.IdleBackoff)
			select {
			case <-p.ctx.Done():
				return
			case <-timer.C:
			}
			continue
		}

		reqLog := log.WithFxid(log.WithDBID(wlog, req.DBID), req.Fxid)
		reqLog.Debug().Msg("processing undo request")

		execTimer := metrics.NewTimer()
		err := p.cfg.UndoFunc(p.ctx, req)
		execTimer.ObserveDuration(metrics.UndoExecutionDuration)

		if err != nil {
			reqLog.Warn().Err(err).Msg("undo attempt failed, rescheduling")
			metrics.UndoExecutionsTotal.WithLabelValues("failure").Inc()
			p.cfg.Manager.Reschedule(req)
			continue
		}

		reqLog.Debug().Msg("undo request completed")
		metrics.UndoExecutionsTotal.WithLabelValues("success").Inc()
		p.cfg.Manager.Unregister(req)
	}
}
