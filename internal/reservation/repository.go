package reservation

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type Repository interface {
	Commit(ctx context.Context, r Reservation) (Outcome, error)
}

type repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db, now: time.Now}
}

// Commit records the reservation and increments the slot load in one
// transaction. The ledger insert makes repeated deliveries for the same
// order a no-op, and the conditional update never lets the load pass the
// slot's capacity.
func (r *repository) Commit(ctx context.Context, res Reservation) (Outcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// 1. Claim the order code
	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO slot_reservations (order_day, order_code, slot_id, load_units, status, created_at)
		VALUES ($1, $2, $3, $4, 'PENDING', $5)
		ON CONFLICT (order_day, order_code) DO NOTHING
		RETURNING id
	`, res.OrderDay, res.OrderCode, res.SlotID, res.Load, r.now()).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return Duplicate, nil
	}
	if err != nil {
		return 0, err
	}

	// 2. Increment load if it still fits
	result, err := tx.ExecContext(ctx, `
		UPDATE driver_slots
		SET current_load = current_load + $1
		WHERE id = $2 AND current_load + $1 <= max_capacity
	`, res.Load, res.SlotID)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	outcome, status := Committed, StatusCommitted
	if n == 0 {
		outcome, status = CapacityExceeded, StatusNeedsReconciliation
	}

	// 3. Settle the ledger row
	if _, err := tx.ExecContext(ctx, `
		UPDATE slot_reservations
		SET status = $1
		WHERE id = $2
	`, string(status), id); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return outcome, nil
}
