package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscreen/backend/pkg/logger"
)

func TestNew(t *testing.T) {
	client := New(logger.NewNop(), 5*time.Second)
	require.NotNil(t, client)
	assert.Equal(t, 5*time.Second, client.Timeout())
	assert.Nil(t, client.limiter)

	client.WithRateLimit(2)
	assert.NotNil(t, client.limiter)

	client.WithRateLimit(0)
	assert.Nil(t, client.limiter)
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "test", payload["name"])

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	resp, err := New(logger.NewNop(), time.Second).
		PostJSON(context.Background(), server.URL, map[string]interface{}{"name": "test"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestNoImplicitRetry(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := New(logger.NewNop(), time.Second).Get(context.Background(), server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRateLimitHonoursContext(t *testing.T) {
	client := New(logger.NewNop(), time.Second).WithRateLimit(0.001)
	// drain the single burst token
	require.True(t, client.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Get(ctx, "http://127.0.0.1:1")
	assert.Error(t, err)
}

func TestIsSuccessAndRetryable(t *testing.T) {
	tests := []struct {
		status    int
		success   bool
		retryable bool
	}{
		{200, true, false},
		{204, true, false},
		{400, false, false},
		{404, false, false},
		{429, false, true},
		{500, false, true},
		{503, false, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			assert.Equal(t, tt.success, IsSuccess(tt.status))
			assert.Equal(t, tt.retryable, IsRetryableError(tt.status))
		})
	}
}
