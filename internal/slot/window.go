package slot

import (
	"sort"
	"time"
)

const DefaultLeadTime = 105 * time.Minute

// Aggregator groups fine-grained courier slots into customer windows.
type Aggregator struct {
	LeadTime time.Duration
}

func NewAggregator(lead time.Duration) Aggregator {
	if lead <= 0 {
		lead = DefaultLeadTime
	}
	return Aggregator{LeadTime: lead}
}

// Windows builds the windows of a day that is daysAhead days after now's
// date. now must already be expressed in the store's location.
func (a Aggregator) Windows(slots []DriverSlot, now time.Time, daysAhead int) []CustomerWindow {
	nowMinutes := now.Hour()*60 + now.Minute()
	lead := int(a.LeadTime / time.Minute)

	eligible := make([]DriverSlot, 0, len(slots))
	for _, s := range slots {
		if s.MaxCapacity <= 0 {
			continue
		}
		if daysAhead*minutesPerDay+s.Time.Minutes()-nowMinutes < lead {
			continue
		}
		eligible = append(eligible, s)
	}

	// chronological member order; ids break ties so output is stable
	sort.SliceStable(eligible, func(i, j int) bool {
		mi, mj := eligible[i].Time.Minutes(), eligible[j].Time.Minutes()
		if mi != mj {
			return mi < mj
		}
		return eligible[i].ID < eligible[j].ID
	})

	index := make(map[string]int)
	windows := make([]CustomerWindow, 0)
	for _, s := range eligible {
		label := s.Label()
		i, ok := index[label]
		if !ok {
			i = len(windows)
			index[label] = i
			windows = append(windows, CustomerWindow{Label: label, EarliestSlot: s})
		}
		w := &windows[i]
		w.SlotIDs = append(w.SlotIDs, s.ID)
		w.Slots = append(w.Slots, s)
		w.Capacity += s.MaxCapacity
		w.Load += s.CurrentLoad
	}

	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].StartMinutes() < windows[j].StartMinutes()
	})
	return windows
}
