package restaurant

import (
	"context"
	"database/sql"
	"slices"

	"pickup-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Restaurant struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Repository interface {
	// ActiveStatus reports every requested id. Ids missing from the store
	// come back inactive.
	ActiveStatus(ctx context.Context, ids []string) (map[string]Restaurant, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) ActiveStatus(ctx context.Context, ids []string) (map[string]Restaurant, error) {
	out := make(map[string]Restaurant, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, active
		FROM restaurants
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query restaurants", zap.Strings("ids", ids), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rest Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Active); err != nil {
			return nil, err
		}
		out[rest.ID] = rest
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := out[id]; !ok {
			out[id] = Restaurant{ID: id}
		}
	}
	return out, nil
}

// Inactive lists the ids whose restaurant is closed or unknown, sorted.
func Inactive(status map[string]Restaurant) []string {
	var ids []string
	for id, r := range status {
		if !r.Active {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}
