package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(5, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Limit(okHandler)

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, do("10.0.0.1:1234"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:9999"))
	assert.Equal(t, http.StatusNoContent, do("10.0.0.2:1234"))

	now = now.Add(12 * time.Second)
	assert.Equal(t, http.StatusNoContent, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1234"))

	now = now.Add(10 * time.Minute)
	do("10.0.0.3:1")
	rl.mu.Lock()
	_, stale := rl.visitors["10.0.0.2"]
	rl.mu.Unlock()
	assert.False(t, stale)
}

func TestAdminAuth(t *testing.T) {
	secret := []byte("test-secret")
	h := AdminAuth(secret)(okHandler)

	call := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/articles", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	token, err := IssueAdminToken(secret, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, call("Bearer "+token))
	assert.Equal(t, http.StatusNoContent, call("bearer "+token))

	assert.Equal(t, http.StatusUnauthorized, call(""))
	assert.Equal(t, http.StatusUnauthorized, call(token))
	assert.Equal(t, http.StatusUnauthorized, call("Bearer garbage"))

	other, err := IssueAdminToken([]byte("other"), time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+other))

	expired, err := IssueAdminToken(secret, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+expired))

	wrongSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user_abc",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(secret)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call("Bearer "+wrongSubject))
}

func TestAdminAuthMisconfigured(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminAuth(nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	_, err := IssueAdminToken(nil, time.Now())
	assert.Error(t, err)
}
