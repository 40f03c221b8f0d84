package slot

import (
	"fmt"
	"time"
)

type Meridiem string

const (
	AM Meridiem = "AM"
	PM Meridiem = "PM"
)

const minutesPerDay = 24 * 60

// TimeOfDay is a 12-hour clock reading as configured by the scheduling side.
type TimeOfDay struct {
	Hour     int      `json:"hour"` // 1-12
	Minute   int      `json:"minute"`
	Meridiem Meridiem `json:"meridiem"`
}

// Minutes converts the reading to minutes since midnight.
func (t TimeOfDay) Minutes() int {
	hour := t.Hour
	switch {
	case t.Meridiem == PM && hour != 12:
		hour += 12
	case t.Meridiem == AM && hour == 12:
		hour = 0
	}
	return hour*60 + t.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%d:%02d %s", t.Hour, t.Minute, t.Meridiem)
}

func (t TimeOfDay) Valid() bool {
	return t.Hour >= 1 && t.Hour <= 12 && t.Minute >= 0 && t.Minute < 60 &&
		(t.Meridiem == AM || t.Meridiem == PM)
}

type DriverSlot struct {
	ID          int64        `json:"id"`
	Day         time.Weekday `json:"day"`
	Time        TimeOfDay    `json:"time"`
	MaxCapacity float64      `json:"max_capacity"`
	CurrentLoad float64      `json:"current_load"`
	WindowLabel *string      `json:"window_label,omitempty"`
}

func (s DriverSlot) Available() float64 {
	return s.MaxCapacity - s.CurrentLoad
}

// Label is the customer-facing window the slot belongs to.
func (s DriverSlot) Label() string {
	if s.WindowLabel != nil && *s.WindowLabel != "" {
		return *s.WindowLabel
	}
	return s.Time.String()
}

// CustomerWindow is derived per query from the slots sharing a label.
type CustomerWindow struct {
	Label        string       `json:"label"`
	SlotIDs      []int64      `json:"slot_ids"`
	Slots        []DriverSlot `json:"-"`
	EarliestSlot DriverSlot   `json:"earliest_slot"`
	Capacity     float64      `json:"capacity"`
	Load         float64      `json:"load"`
}

func (w CustomerWindow) Available() float64 {
	return w.Capacity - w.Load
}

// StartMinutes is the normalized time of the earliest member slot.
func (w CustomerWindow) StartMinutes() int {
	return w.EarliestSlot.Time.Minutes()
}

// AssignableSlot returns the earliest member slot able to carry the whole
// load on its own, or nil.
func (w CustomerWindow) AssignableSlot(required float64) *DriverSlot {
	for i := range w.Slots {
		if required <= w.Slots[i].Available() {
			return &w.Slots[i]
		}
	}
	return nil
}
