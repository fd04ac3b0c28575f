package idempotency

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store remembers idempotency keys in Redis for a bounded window.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(userID, requestKey string) string {
	return fmt.Sprintf("idem:order:%s:%s", userID, requestKey)
}

// Seen records the key and reports whether it had been recorded before.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Middleware rejects replays of requests carrying an Idempotency-Key header.
// Requests without the header pass through; Redis outages fail open so the
// marketplace stays available.
func Middleware(store *Store, userID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			seen, err := store.Seen(r.Context(), store.Key(userID(r), key))
			if err == nil && seen {
				http.Error(w, `{"error":"duplicate request"}`, http.StatusConflict)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
