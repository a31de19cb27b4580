package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/patmartin03-stack/shadowai-experiment/internal/models"
	"github.com/patmartin03-stack/shadowai-experiment/internal/store"
)

// GatewayOptions tunes the flush scheduler. Zero values fall back to the
// defaults of the original deployment (10s interval, threshold 15).
type GatewayOptions struct {
	FlushInterval  time.Duration
	FlushThreshold int
	MaxPending     int
	MaxBackoff     time.Duration
}

func (o GatewayOptions) withDefaults() GatewayOptions {
	if o.FlushInterval <= 0 {
		o.FlushInterval = 10 * time.Second
	}
	if o.FlushThreshold <= 0 {
		o.FlushThreshold = 15
	}
	if o.MaxPending <= 0 {
		o.MaxPending = 5000
	}
	if o.MaxBackoff <= 0 {
		o.MaxBackoff = 5 * time.Minute
	}
	return o
}

// Gateway owns the event buffer, the persistence store and the periodic
// flush loop. It is constructed explicitly and stopped on shutdown, with a
// final synchronous flush so a clean restart loses nothing.
type Gateway struct {
	log   *zap.Logger
	store store.Store
	buf   *Buffer
	opts  GatewayOptions

	mu        sync.Mutex
	failures  int
	notBefore time.Time

	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	now func() time.Time
}

// NewGateway builds a stopped gateway; call Start to launch the flush loop.
func NewGateway(log *zap.Logger, st store.Store, opts GatewayOptions) *Gateway {
	opts = opts.withDefaults()
	return &Gateway{
		log:   log,
		store: st,
		buf:   NewBuffer(opts.MaxPending),
		opts:  opts,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		now:   time.Now,
	}
}

// Start launches the periodic flush loop.
func (g *Gateway) Start() {
	g.startOnce.Do(func() {
		g.log.Info("Starting event flush scheduler",
			zap.Duration("interval", g.opts.FlushInterval),
			zap.Int("threshold", g.opts.FlushThreshold))
		go g.run()
	})
}

func (g *Gateway) run() {
	defer close(g.done)
	ticker := time.NewTicker(g.opts.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-g.stop:
			return
		case <-ticker.C:
			if !g.flushAllowed() {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), g.opts.FlushInterval)
			g.FlushNow(ctx)
			cancel()
		}
	}
}

// Stop halts the loop and performs one final synchronous flush.
func (g *Gateway) Stop(ctx context.Context) {
	g.stopOnce.Do(func() {
		close(g.stop)
	})
	select {
	case <-g.done:
	case <-ctx.Done():
		return
	}
	if _, err := g.FlushNow(ctx); err != nil {
		g.log.Error("Final flush on shutdown failed", zap.Error(err))
	}
}

// LogEvent enqueues one record. When the buffer crosses the threshold a
// flush is kicked off away from the request path so the caller is never
// blocked on persistence latency.
func (g *Gateway) LogEvent(ev models.Event) int {
	n := g.buf.Enqueue(ev)
	if n >= g.opts.FlushThreshold {
		g.FlushAsync()
	}
	return n
}

// LogEvents enqueues a batch and returns the new buffer length.
func (g *Gateway) LogEvents(evs []models.Event) int {
	return g.buf.EnqueueAll(evs)
}

// FlushAsync triggers a fire-and-forget flush.
func (g *Gateway) FlushAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		g.FlushNow(ctx)
	}()
}

// FlushNow drains the buffer and performs exactly one bulk write. On
// failure the whole batch is re-queued for the next attempt. Explicit
// flushes bypass the failure backoff that pauses scheduled ticks.
func (g *Gateway) FlushNow(ctx context.Context) (int, error) {
	batch := g.buf.Drain()
	if len(batch) == 0 {
		return 0, nil
	}

	if err := g.store.AppendEvents(ctx, batch); err != nil {
		g.buf.Requeue(batch)
		g.recordFailure(err, len(batch))
		return 0, err
	}

	g.recordSuccess(len(batch))
	return len(batch), nil
}

// Pending returns the number of buffered records.
func (g *Gateway) Pending() int { return g.buf.Len() }

// Dropped returns how many records the overflow cap has discarded.
func (g *Gateway) Dropped() uint64 { return g.buf.Dropped() }

func (g *Gateway) flushAllowed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.now().Before(g.notBefore)
}

// recordFailure doubles the scheduled-flush delay per consecutive failure,
// capped at MaxBackoff.
func (g *Gateway) recordFailure(err error, batchSize int) {
	g.mu.Lock()
	g.failures++
	shift := g.failures - 1
	if shift > 10 {
		shift = 10
	}
	delay := g.opts.FlushInterval << shift
	if delay > g.opts.MaxBackoff {
		delay = g.opts.MaxBackoff
	}
	g.notBefore = g.now().Add(delay)
	failures := g.failures
	g.mu.Unlock()

	g.log.Warn("Bulk event write failed, batch re-queued",
		zap.Error(err),
		zap.Int("batch_size", batchSize),
		zap.Int("consecutive_failures", failures),
		zap.Duration("retry_delay", delay))
}

func (g *Gateway) recordSuccess(batchSize int) {
	g.mu.Lock()
	g.failures = 0
	g.notBefore = time.Time{}
	g.mu.Unlock()

	g.log.Debug("Flushed event batch", zap.Int("batch_size", batchSize))
}
