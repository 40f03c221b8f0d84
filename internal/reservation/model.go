package reservation

import "time"

// Reservation is the capacity an order consumes on its slot.
type Reservation struct {
	OrderDay  time.Time
	OrderCode string
	SlotID    int64
	Load      float64
}

type Status string

const (
	StatusCommitted           Status = "COMMITTED"
	StatusNeedsReconciliation Status = "NEEDS_RECONCILIATION"
)

type Outcome int

const (
	// the slot load was incremented by this call
	Committed Outcome = iota
	// an earlier delivery for the same order already handled it
	Duplicate
	// the slot could not take the load; the ledger row is flagged
	CapacityExceeded
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Duplicate:
		return "duplicate"
	case CapacityExceeded:
		return "capacity_exceeded"
	default:
		return "unknown"
	}
}
