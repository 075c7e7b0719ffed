package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/fleetreg/internal/domain/event"
	"github.com/geocoder89/fleetreg/internal/observability"
)

type DispatcherConfig struct {
	Transport    string // metrics label
	Buffer       int
	Workers      int
	MaxAttempts  int
	Backoff      Backoff
	DrainTimeout time.Duration
}

// Dispatcher decouples event delivery from the request path. Publish never blocks;
// Run owns the worker goroutines and drains the buffer on shutdown.
type Dispatcher struct {
	notifier Notifier
	cfg      DispatcherConfig
	log      *slog.Logger
	prom     *observability.Prom
	stats    *observability.DeliveryStats
	queue    chan event.RegistrationCreated
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(notifier Notifier, cfg DispatcherConfig, log *slog.Logger, prom *observability.Prom) *Dispatcher {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff.Base <= 0 {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportLog
	}
	if log == nil {
		log = slog.Default()
	}

	return &Dispatcher{
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		prom:     prom,
		stats:    observability.NewDeliveryStats(),
		queue:    make(chan event.RegistrationCreated, cfg.Buffer),
		sleep:    sleepCtx,
	}
}

// Publish enqueues evt, or drops it when the buffer is full. It reports whether evt was accepted.
func (d *Dispatcher) Publish(evt event.RegistrationCreated) bool {
	select {
	case d.queue <- evt:
		d.stats.IncEnqueued()
		d.prom.SetNotifyQueued(len(d.queue))
		return true
	default:
		d.stats.IncDropped()
		d.prom.NotifyResult(d.cfg.Transport, "dropped")
		d.log.Warn("notify.dropped",
			"reason", "buffer_full",
			"registration_id", evt.RegistrationID,
			"plate", evt.Plate,
		)
		return false
	}
}

func (d *Dispatcher) Stats() observability.DeliverySnapshot {
	return d.stats.Snapshot()
}

func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Run blocks until ctx is cancelled, then delivers what is still buffered within DrainTimeout.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.work(ctx)
		}()
	}
	wg.Wait()

	d.drain(ctx)
	return nil
}

func (d *Dispatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-d.queue:
			d.prom.SetNotifyQueued(len(d.queue))
			d.deliver(ctx, evt)
		}
	}
}

func (d *Dispatcher) drain(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), d.cfg.DrainTimeout)
	defer cancel()

	d.log.Info("notify.drain.start", "pending", len(d.queue))

	for {
		if ctx.Err() != nil {
			left := len(d.queue)
			for i := 0; i < left; i++ {
				d.stats.IncDropped()
				d.prom.NotifyResult(d.cfg.Transport, "dropped")
			}
			d.log.Warn("notify.drain.timeout", "dropped", left)
			return
		}

		select {
		case evt := <-d.queue:
			d.deliver(ctx, evt)
		default:
			d.log.Info("notify.drain.done")
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evt event.RegistrationCreated) {
	start := time.Now()
	defer func() { d.stats.ObserveDuration(time.Since(start)) }()

	var err error
	for attempt := 0; attempt < d.cfg.MaxAttempts; attempt++ {
		err = d.prom.ObserveNotify(d.cfg.Transport, func() error {
			return d.notifier.NotifyRegistrationCreated(ctx, evt)
		})
		if err == nil {
			d.stats.IncDelivered()
			d.prom.NotifyResult(d.cfg.Transport, "delivered")
			d.log.Debug("notify.delivered",
				"registration_id", evt.RegistrationID,
				"attempts", attempt+1,
			)
			return
		}

		if ctx.Err() != nil {
			d.requeue(evt)
			return
		}
		if errors.Is(err, ErrCircuitOpen) || attempt == d.cfg.MaxAttempts-1 {
			break
		}

		d.stats.IncRetried()
		d.prom.NotifyResult(d.cfg.Transport, "retry")
		d.log.Warn("notify.retry",
			"registration_id", evt.RegistrationID,
			"attempt", attempt+1,
			"err", err,
		)

		if d.sleep(ctx, d.cfg.Backoff.Delay(attempt)) != nil {
			// shutting down: hand the event to the drain phase
			d.requeue(evt)
			return
		}
	}

	d.stats.IncFailed()
	d.prom.NotifyResult(d.cfg.Transport, "failed")
	d.log.Error("notify.failed",
		"registration_id", evt.RegistrationID,
		"plate", evt.Plate,
		"err", err,
	)
}

func (d *Dispatcher) requeue(evt event.RegistrationCreated) {
	select {
	case d.queue <- evt:
	default:
		d.stats.IncDropped()
		d.prom.NotifyResult(d.cfg.Transport, "dropped")
		d.log.Warn("notify.dropped", "reason", "requeue_full", "registration_id", evt.RegistrationID)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
