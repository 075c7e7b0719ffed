package observability

import "time"

// ObserveNotify times a single transport send. A nil *Prom just runs fn.
func (p *Prom) ObserveNotify(transport string, fn func() error) error {
	if p == nil {
		return fn()
	}
	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "error"
	}
	p.NotifyDuration.WithLabelValues(transport, status).Observe(time.Since(start).Seconds())
	return err
}

func (p *Prom) NotifyResult(transport, result string) {
	if p == nil {
		return
	}
	p.NotifyResults.WithLabelValues(transport, result).Inc()
}

func (p *Prom) SetNotifyQueued(n int) {
	if p == nil {
		return
	}
	p.NotifyQueued.Set(float64(n))
}

func (p *Prom) RegistrationOutcome(outcome string) {
	if p == nil {
		return
	}
	p.RegistrationsCreated.WithLabelValues(outcome).Inc()
}

func (p *Prom) IncRateLimited(route string) {
	if p == nil {
		return
	}
	p.RateLimited.WithLabelValues(route).Inc()
}
