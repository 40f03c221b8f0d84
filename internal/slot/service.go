package slot

import (
	"context"
	"time"

	"pickup-be/internal/utils"
)

type Service interface {
	// WindowsFor returns the customer windows of a calendar date, with
	// windows inside the lead time already removed. Dates before today in
	// the store's timezone return ErrDateInPast.
	WindowsFor(ctx context.Context, date time.Time) ([]CustomerWindow, error)
	Get(ctx context.Context, id int64) (*DriverSlot, error)
	// Live re-reads a slot and returns ErrSlotNotFound unless it is still
	// offered on date: right weekday, staffed, outside the lead time.
	Live(ctx context.Context, date time.Time, id int64) (*DriverSlot, error)
}

type service struct {
	repo       Repository
	aggregator Aggregator
	loc        *time.Location
	now        func() time.Time
}

func NewService(repo Repository, aggregator Aggregator, loc *time.Location) Service {
	if loc == nil {
		loc = time.UTC
	}
	return &service{
		repo:       repo,
		aggregator: aggregator,
		loc:        loc,
		now:        time.Now,
	}
}

func (s *service) WindowsFor(ctx context.Context, date time.Time) ([]CustomerWindow, error) {
	now := s.now().In(s.loc)
	day := utils.DayOf(date.In(s.loc))
	daysAhead := daysBetween(utils.DayOf(now), day)
	if daysAhead < 0 {
		return nil, ErrDateInPast
	}

	slots, err := s.repo.ListByDay(ctx, day.Weekday())
	if err != nil {
		return nil, err
	}

	return s.aggregator.Windows(slots, now, daysAhead), nil
}

func (s *service) Get(ctx context.Context, id int64) (*DriverSlot, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Live(ctx context.Context, date time.Time, id int64) (*DriverSlot, error) {
	ds, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	day := utils.DayOf(date.In(s.loc))
	daysAhead := daysBetween(utils.DayOf(now), day)
	if daysAhead < 0 || ds.Day != day.Weekday() {
		return nil, ErrSlotNotFound
	}
	if len(s.aggregator.Windows([]DriverSlot{*ds}, now, daysAhead)) == 0 {
		return nil, ErrSlotNotFound
	}
	return ds, nil
}

// daysBetween counts calendar days, unaffected by DST transitions.
func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
