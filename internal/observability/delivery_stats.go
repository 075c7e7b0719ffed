package observability

import (
	"sync/atomic"
	"time"
)

// DeliveryStats are in-process counters for notification delivery, reported by /readyz.
type DeliveryStats struct {
	enqueued  atomic.Uint64
	delivered atomic.Uint64
	failed    atomic.Uint64
	retried   atomic.Uint64
	dropped   atomic.Uint64

	// duration stats (nanoseconds)
	durationCount atomic.Uint64
	durationTotal atomic.Int64
	durationMax   atomic.Int64
}

func NewDeliveryStats() *DeliveryStats {
	return &DeliveryStats{}
}

func (m *DeliveryStats) IncEnqueued() {
	m.enqueued.Add(1)
}
func (m *DeliveryStats) IncDelivered() {
	m.delivered.Add(1)
}
func (m *DeliveryStats) IncFailed() {
	m.failed.Add(1)
}

func (m *DeliveryStats) IncRetried() {
	m.retried.Add(1)
}

func (m *DeliveryStats) IncDropped() {
	m.dropped.Add(1)
}

func (m *DeliveryStats) ObserveDuration(d time.Duration) {
	ns := d.Nanoseconds()
	m.durationCount.Add(1)
	m.durationTotal.Add(ns)

	for {
		curr := m.durationMax.Load()

		if ns <= curr {
			return
		}

		if m.durationMax.CompareAndSwap(curr, ns) {
			return
		}
	}
}

type DeliverySnapshot struct {
	Enqueued        uint64        `json:"enqueued"`
	Delivered       uint64        `json:"delivered"`
	Failed          uint64        `json:"failed"`
	Retried         uint64        `json:"retried"`
	Dropped         uint64        `json:"dropped"`
	AverageDuration time.Duration `json:"averageDurationNs"`
	MaxDuration     time.Duration `json:"maxDurationNs"`
}

func (m *DeliveryStats) Snapshot() DeliverySnapshot {
	count := m.durationCount.Load()
	total := m.durationTotal.Load()

	var avg time.Duration

	if count > 0 {
		avg = time.Duration(total / int64(count))
	}

	return DeliverySnapshot{
		Enqueued:        m.enqueued.Load(),
		Delivered:       m.delivered.Load(),
		Failed:          m.failed.Load(),
		Retried:         m.retried.Load(),
		Dropped:         m.dropped.Load(),
		AverageDuration: avg,
		MaxDuration:     time.Duration(m.durationMax.Load()),
	}
}
