package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
)

func TestRouter_RateLimiting(t *testing.T) {
	srv := httptest.NewServer(NewRouter(store.NewMemory(nil), Options{
		ServiceName:       "store-test",
		RateLimitRequests: 10,
		RateLimitWindow:   time.Minute,
	}))
	defer srv.Close()

	get := func() int {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/messages", nil)
		require.NoError(t, err)
		res, err := srv.Client().Do(req)
		require.NoError(t, err)
		res.Body.Close()
		return res.StatusCode
	}

	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, get(), "request %d", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, get())

	// probes are not limited
	res, err := srv.Client().Get(srv.URL + "/health/live")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRecovery(t *testing.T) {
	h := Recovery()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), CodeInternal)
}
