package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/ehr/ccdaextract/internal/platform/auth"
)

func serveRateLimited(t *testing.T, h echo.HandlerFunc, e *echo.Echo, userID string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ccda/parse", nil)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), auth.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_WithinBurst(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		rec, err := serveRateLimited(t, h, e, "")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 0.5, BurstSize: 2})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		if _, err := serveRateLimited(t, h, e, ""); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := serveRateLimited(t, h, e, "")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T (%v)", err, err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("expected positive Retry-After, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Error("expected X-RateLimit-Remaining 0")
	}
}

func TestRateLimit_KeyedPerUser(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 0.5, BurstSize: 1})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if _, err := serveRateLimited(t, h, e, "alice"); err != nil {
		t.Fatalf("alice first request: %v", err)
	}
	if _, err := serveRateLimited(t, h, e, "bob"); err != nil {
		t.Fatalf("bob should have his own bucket: %v", err)
	}
	if _, err := serveRateLimited(t, h, e, "alice"); err == nil {
		t.Fatal("expected alice's second request to be limited")
	}
}
