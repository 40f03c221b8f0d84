package admission

import (
	"context"
	"errors"
	"time"

	"pickup-be/internal/logger"
	"pickup-be/internal/slot"

	"go.uber.org/zap"
)

type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusLarge    Status = "LARGE"
	StatusOver     Status = "OVER"
	StatusShopFull Status = "SHOP_FULL"
)

// LargeOrderRatio is the share of available capacity above which an order
// is still admitted but flagged for extra care.
const LargeOrderRatio = 0.75

var (
	ErrShopFull       = errors.New("no window in the booking horizon can take this order")
	ErrWindowNotFound = errors.New("window not found")
)

// Classify applies the admission policy to a single capacity figure.
func Classify(required, capacity, load float64) Status {
	available := capacity - load
	switch {
	case required > available:
		return StatusOver
	case required > LargeOrderRatio*available:
		return StatusLarge
	default:
		return StatusNormal
	}
}

// ClassifyWindow classifies against the window aggregate but reports OVER
// when no single member slot can carry the order, since an order is
// assigned to exactly one slot.
func ClassifyWindow(required float64, w slot.CustomerWindow) Status {
	status := Classify(required, w.Capacity, w.Load)
	if status != StatusOver && w.AssignableSlot(required) == nil {
		return StatusOver
	}
	return status
}

// WindowSource supplies the windows of a calendar date.
type WindowSource interface {
	WindowsFor(ctx context.Context, date time.Time) ([]slot.CustomerWindow, error)
}

type Candidate struct {
	Date   time.Time           `json:"date"`
	Window slot.CustomerWindow `json:"window"`
	Slot   slot.DriverSlot     `json:"slot"`
}

type Decision struct {
	Status      Status     `json:"status"`
	Window      *Candidate `json:"window,omitempty"`
	Alternative *Candidate `json:"alternative,omitempty"`
}

type Controller struct {
	windows     WindowSource
	horizonDays int
}

func NewController(windows WindowSource, horizonDays int) *Controller {
	if horizonDays <= 0 {
		horizonDays = 7
	}
	return &Controller{windows: windows, horizonDays: horizonDays}
}

// Evaluate decides whether required fits the labelled window on date. An
// overflowing window comes back with the next window that fits, or with
// SHOP_FULL when the horizon is exhausted.
func (c *Controller) Evaluate(ctx context.Context, required float64, date time.Time, label string) (*Decision, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("window", label),
		zap.Float64("required", required),
	)

	windows, err := c.windows.WindowsFor(ctx, date)
	if err != nil {
		return nil, err
	}

	var selected *slot.CustomerWindow
	for i := range windows {
		if windows[i].Label == label {
			selected = &windows[i]
			break
		}
	}
	if selected == nil {
		return nil, ErrWindowNotFound
	}

	status := ClassifyWindow(required, *selected)
	if status != StatusOver {
		return &Decision{
			Status: status,
			Window: &Candidate{
				Date:   date,
				Window: *selected,
				Slot:   *selected.AssignableSlot(required),
			},
		}, nil
	}

	alt, err := c.FindAlternative(ctx, required, date, selected.StartMinutes())
	if errors.Is(err, ErrShopFull) {
		log.Info("shop full for requested load")
		return &Decision{Status: StatusShopFull}, nil
	}
	if err != nil {
		return nil, err
	}

	log.Info("window over capacity, offering alternative",
		zap.String("alternative", alt.Window.Label),
		zap.Time("alternative_date", alt.Date),
	)
	return &Decision{Status: StatusOver, Alternative: alt}, nil
}

// FindAlternative searches forward chronologically for the first window
// able to take required: later windows of date first, then whole following
// days up to the horizon.
func (c *Controller) FindAlternative(ctx context.Context, required float64, date time.Time, afterMinutes int) (*Candidate, error) {
	for day := 0; day < c.horizonDays; day++ {
		d := date.AddDate(0, 0, day)
		windows, err := c.windows.WindowsFor(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, w := range windows {
			if day == 0 && w.StartMinutes() <= afterMinutes {
				continue
			}
			if s := w.AssignableSlot(required); s != nil && ClassifyWindow(required, w) != StatusOver {
				return &Candidate{Date: d, Window: w, Slot: *s}, nil
			}
		}
	}
	return nil, ErrShopFull
}

// FirstAvailable is FindAlternative from the start of date.
func (c *Controller) FirstAvailable(ctx context.Context, required float64, date time.Time) (*Candidate, error) {
	return c.FindAlternative(ctx, required, date, -1)
}
