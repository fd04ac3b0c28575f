package idempotency

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestKeyFormat(t *testing.T) {
	s := NewStore(nil, time.Hour)
	assert.Equal(t, "idem:order:7:abc-123", s.Key("7", "abc-123"))
}

func userIDFromHeader(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func TestMiddlewarePassesThroughWithoutKey(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	// Redis is never consulted when the header is absent.
	h := Middleware(NewStore(nil, time.Hour), userIDFromHeader)(next)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/orders", nil))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddlewareFailsOpenWhenRedisDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1", // nothing listens here
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer func() { _ = rdb.Close() }()

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	h := Middleware(NewStore(rdb, time.Hour), userIDFromHeader)(next)

	req := httptest.NewRequest(http.MethodPost, "/orders", nil)
	req.Header.Set("X-User-ID", "7")
	req.Header.Set("Idempotency-Key", "abc-123")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.True(t, called, "an idempotency store outage must not block orders")
}
