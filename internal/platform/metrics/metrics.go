package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps lock-free request counters for the /metrics endpoint.
type Collector struct {
	served       uint64
	clientErrors uint64
	serverErrors uint64
	throttled    uint64
	busyMs       uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.served, 1)
	switch {
	case status == 429:
		atomic.AddUint64(&c.throttled, 1)
	case status >= 500:
		atomic.AddUint64(&c.serverErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.busyMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	served := atomic.LoadUint64(&c.served)
	busyMs := atomic.LoadUint64(&c.busyMs)
	avg := float64(0)
	if served > 0 {
		avg = float64(busyMs) / float64(served)
	}
	return map[string]any{
		"requestsServed": served,
		"clientErrors":   atomic.LoadUint64(&c.clientErrors),
		"serverErrors":   atomic.LoadUint64(&c.serverErrors),
		"throttledTotal": atomic.LoadUint64(&c.throttled),
		"avgHandlerMs":   avg,
		"totalHandlerMs": busyMs,
	}
}
