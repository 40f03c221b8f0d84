package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCartTTL = 24 * time.Hour

	// Each failed attempt means another writer committed, so this bounds
	// the number of concurrent writers a single update can outlast.
	maxUpdateAttempts = 50
)

// Store persists the per-user cart state between requests.
type Store interface {
	Load(ctx context.Context, userID uint) (*Cart, error)
	// Update applies fn to the current cart and stores the result atomically.
	// An empty cart is removed instead of saved.
	Update(ctx context.Context, userID uint, fn func(c *Cart) error) (*Cart, error)
}

type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) Store {
	if ttl <= 0 {
		ttl = defaultCartTTL
	}
	return &redisStore{client: client, ttl: ttl}
}

func cartKey(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

// Load returns an empty cart when the user has none.
func (s *redisStore) Load(ctx context.Context, userID uint) (*Cart, error) {
	return load(ctx, s.client, userID)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, cmd getter, userID uint) (*Cart, error) {
	raw, err := cmd.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &Cart{UserID: userID, Items: []Item{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedLoadCart, err)
	}

	var c Cart
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedLoadCart, err)
	}
	c.UserID = userID
	if c.Items == nil {
		c.Items = []Item{}
	}
	return &c, nil
}

// Update runs fn under WATCH on the cart key and retries when a concurrent
// writer changed the cart before EXEC.
func (s *redisStore) Update(ctx context.Context, userID uint, fn func(c *Cart) error) (*Cart, error) {
	key := cartKey(userID)

	var result *Cart
	txf := func(tx *redis.Tx) error {
		c, err := load(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := fn(c); err != nil {
			return err
		}

		var raw []byte
		if !c.IsEmpty() {
			raw, err = json.Marshal(c)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrFailedSaveCart, err)
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if raw == nil {
				pipe.Del(ctx, key)
				return nil
			}
			pipe.Set(ctx, key, raw, s.ttl)
			return nil
		})
		if errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrFailedSaveCart, err)
		}
		result = c
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: too much contention", ErrFailedSaveCart)
}
