package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DigestSentTTL is wide enough to span DST transitions per spec.md §4.4,
// while still self-cleaning old per-day markers instead of accumulating
// one Redis key per user forever.
const DigestSentTTL = 48 * time.Hour

func digestKey(userID, date string) string {
	return fmt.Sprintf("session:digest_sent:%s:%s", userID, date)
}

// DigestSent reports whether the daily digest for userID on date (a
// "2006-01-02"-formatted local calendar date) has already been marked sent.
func (s *Store) DigestSent(ctx context.Context, userID, date string) (bool, error) {
	_, err := s.rdb.Get(ctx, digestKey(userID, date)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking digest sent marker: %w", err)
	}
	return true, nil
}

// MarkDigestSent records that userID's digest for date has been sent.
func (s *Store) MarkDigestSent(ctx context.Context, userID, date string) error {
	if err := s.rdb.Set(ctx, digestKey(userID, date), "1", DigestSentTTL).Err(); err != nil {
		return fmt.Errorf("setting digest sent marker: %w", err)
	}
	return nil
}
