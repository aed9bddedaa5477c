package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func invoke(t *testing.T, l *Limiter) int {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := l.Middleware()(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec.Code
}

func TestLimiterDisabled(t *testing.T) {
	l := New(nil, 0, time.Minute)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, invoke(t, l))
	}
}

func TestLimiterFailsOpenWithoutRedis(t *testing.T) {
	// nil cache behaves like an unreachable redis: counts are unknown,
	// so requests pass.
	l := New(nil, 2, time.Minute)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, invoke(t, l))
	}
}
