package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimitMiddlewareRejectsBurstOverflow(t *testing.T) {
	store := NewLimiterStore(1, 2)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateLimitMiddleware(store)(next)

	ctx := context.WithValue(context.Background(), UserContextKey, "user-1")

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/contacts/view", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddlewareIsPerUser(t *testing.T) {
	store := NewLimiterStore(1, 1)
	h := RateLimitMiddleware(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, user := range []string{"user-1", "user-2"} {
		ctx := context.WithValue(context.Background(), UserContextKey, user)
		req := httptest.NewRequest(http.MethodPost, "/contacts/view", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "each user has an independent bucket")
	}
}

func TestLimiterStoreCleanup(t *testing.T) {
	store := NewLimiterStore(1, 1)
	store.Get("stale")

	store.mu.Lock()
	store.entries["stale"].lastSeen = store.entries["stale"].lastSeen.Add(-time.Hour)
	store.mu.Unlock()

	store.Cleanup()

	store.mu.Lock()
	_, ok := store.entries["stale"]
	store.mu.Unlock()
	assert.False(t, ok)
}
