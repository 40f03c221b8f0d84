package metrics

import (
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Checkout groups the counters of the admission and reservation pipeline.
// The zero value is ready to use.
type Checkout struct {
	AdmissionNormal   Counter
	AdmissionLarge    Counter
	AdmissionOver     Counter
	AdmissionShopFull Counter

	RevalidationFailed    Counter
	ReservationsCommitted Counter
	ReservationsDrifted   Counter
	DuplicateWebhooks     Counter
}

func NewCheckout() *Checkout {
	return &Checkout{}
}

// ObserveAdmission counts one admission decision by its status name.
func (c *Checkout) ObserveAdmission(status string) {
	switch status {
	case "NORMAL":
		c.AdmissionNormal.Inc()
	case "LARGE":
		c.AdmissionLarge.Inc()
	case "OVER":
		c.AdmissionOver.Inc()
	case "SHOP_FULL":
		c.AdmissionShopFull.Inc()
	}
}

func (c *Checkout) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"admission_normal":       c.AdmissionNormal.Load(),
		"admission_large":        c.AdmissionLarge.Load(),
		"admission_over":         c.AdmissionOver.Load(),
		"admission_shop_full":    c.AdmissionShopFull.Load(),
		"revalidation_failed":    c.RevalidationFailed.Load(),
		"reservations_committed": c.ReservationsCommitted.Load(),
		"reservations_drifted":   c.ReservationsDrifted.Load(),
		"duplicate_webhooks":     c.DuplicateWebhooks.Load(),
	}
}
