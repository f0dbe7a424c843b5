package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-workflow/internal/domain/audit"
)

// Config holds dispatcher configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	QueueSize     int           // default: 1000
	WriteTimeout  time.Duration // default: 30 seconds
}

// Dispatcher is an audit.Sink that queues events and writes them to the
// repository in batches from a background worker.
type Dispatcher struct {
	repo   audit.Repository
	config Config
	logger *slog.Logger

	queue    chan audit.Event
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu      sync.Mutex
	dropped int
}

var _ audit.Sink = (*Dispatcher)(nil)

func NewDispatcher(repo audit.Repository, cfg Config, logger *slog.Logger) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		repo:   repo,
		config: cfg,
		logger: logger,
		queue:  make(chan audit.Event, cfg.QueueSize),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Publish enqueues the event. When the queue is full the event is dropped.
func (d *Dispatcher) Publish(ctx context.Context, event audit.Event) {
	select {
	case <-d.stopCh:
		d.drop(ctx, event, "dispatcher stopped")
		return
	default:
	}

	select {
	case d.queue <- event:
	default:
		d.drop(ctx, event, "queue full")
	}
}

func (d *Dispatcher) drop(ctx context.Context, event audit.Event, reason string) {
	d.mu.Lock()
	d.dropped++
	d.mu.Unlock()
	d.logger.WarnContext(ctx, "audit event dropped",
		slog.String("reason", reason),
		slog.String("type", string(event.Type)),
		slog.String("resource_id", event.ResourceID),
	)
}

// Dropped reports how many events were discarded so far.
func (d *Dispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Run drains the queue until ctx is cancelled or Stop is called, then flushes
// what is left.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.done)

	batch := make([]audit.Event, 0, d.config.BatchSize)
	ticker := time.NewTicker(d.config.FlushInterval)
	defer ticker.Stop()

	d.logger.Info("audit dispatcher started",
		slog.Int("batch_size", d.config.BatchSize),
		slog.Duration("flush_interval", d.config.FlushInterval),
	)

	flush := func() {
		if len(batch) == 0 {
			return
		}
		wctx, cancel := context.WithTimeout(context.Background(), d.config.WriteTimeout)
		defer cancel()

		if err := d.repo.CreateBatch(wctx, batch); err != nil {
			d.logger.Error("failed to write audit batch", slog.Int("events", len(batch)), slog.Any("error", err))
		} else {
			d.logger.Debug("audit batch written", slog.Int("events", len(batch)))
		}
		batch = batch[:0]
	}

	drain := func() {
		for {
			select {
			case e := <-d.queue:
				batch = append(batch, e)
				if len(batch) >= d.config.BatchSize {
					flush()
				}
			default:
				flush()
				return
			}
		}
	}

	for {
		select {
		case e := <-d.queue:
			batch = append(batch, e)
			if len(batch) >= d.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-d.stopCh:
			drain()
			return nil
		case <-ctx.Done():
			d.Stop()
			drain()
			return nil
		}
	}
}

// Stop asks Run to flush and return. It does not wait; use Wait for that.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stopCh) })
}

// Wait blocks until Run has returned.
func (d *Dispatcher) Wait() {
	<-d.done
}
