package slot

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pickup-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	ListByDay(ctx context.Context, day time.Weekday) ([]DriverSlot, error)
	GetByID(ctx context.Context, id int64) (*DriverSlot, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const slotColumns = `id, day_of_week, hour, minute, meridiem, max_capacity, current_load, window_label`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*DriverSlot, error) {
	var (
		s        DriverSlot
		day      int
		meridiem string
		label    sql.NullString
	)
	if err := row.Scan(
		&s.ID, &day, &s.Time.Hour, &s.Time.Minute, &meridiem,
		&s.MaxCapacity, &s.CurrentLoad, &label,
	); err != nil {
		return nil, err
	}
	s.Day = time.Weekday(day)
	s.Time.Meridiem = Meridiem(meridiem)
	if label.Valid {
		s.WindowLabel = &label.String
	}
	return &s, nil
}

// ListByDay returns the slots configured for a weekday. Slots with no
// capacity are never offered.
func (r *repository) ListByDay(ctx context.Context, day time.Weekday) ([]DriverSlot, error) {
	log := logger.FromCtx(ctx).With(zap.String("day", day.String()))

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+slotColumns+`
		FROM driver_slots
		WHERE day_of_week = $1 AND max_capacity > 0
		ORDER BY id
	`, int(day))
	if err != nil {
		log.Error("failed to query driver slots", zap.Error(err))
		return nil, ErrFailedListSlots
	}
	defer rows.Close()

	var slots []DriverSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			log.Error("failed to scan driver slot", zap.Error(err))
			return nil, ErrFailedListSlots
		}
		slots = append(slots, *s)
	}
	if err := rows.Err(); err != nil {
		log.Error("driver slot rows error", zap.Error(err))
		return nil, ErrFailedListSlots
	}

	return slots, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*DriverSlot, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+slotColumns+`
		FROM driver_slots
		WHERE id = $1
	`, id)

	s, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get driver slot",
			zap.Int64("slot_id", id),
			zap.Error(err),
		)
		return nil, err
	}
	return s, nil
}
