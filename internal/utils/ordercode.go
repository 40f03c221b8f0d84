package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const orderCodeSpace = 1_000_000

// GenerateOrderCode returns a random zero-padded 6-digit code. Codes are only
// unique within one calendar day; callers retry against that day's codes.
func GenerateOrderCode() string {
	n, err := rand.Int(rand.Reader, big.NewInt(orderCodeSpace))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(time.Now().UnixNano() % orderCodeSpace)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// DayOf truncates t to midnight in its own location.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDay parses a YYYY-MM-DD date in loc. An empty string yields today.
func ParseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	if s == "" {
		return DayOf(now.In(loc)), nil
	}
	return time.ParseInLocation(time.DateOnly, s, loc)
}
