package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"credit-default-risk/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, IsRetryableZeebeError(errors.New("rpc error: code = Unavailable desc = connection refused")))
	assert.True(t, IsRetryableZeebeError(errors.New("context deadline exceeded")))
	assert.False(t, IsRetryableZeebeError(errors.New("NOT_FOUND: job 42 not found")))
}

func TestExecuteWithRetry(t *testing.T) {
	rc := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	result, err := executeWithRetry(context.Background(), rc, func(context.Context) (interface{}, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("unavailable")
		}
		return "ok", nil
	}, "complete job")
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)

	calls = 0
	_, err = executeWithRetry(context.Background(), rc, func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("job not found")
	}, "complete job")
	assert.ErrorContains(t, err, "Zeebe operation 'complete job' failed")
	assert.Equal(t, 1, calls)

	calls = 0
	_, err = executeWithRetry(context.Background(), rc, func(context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("timeout")
	}, "complete job")
	assert.ErrorContains(t, err, "after 4 attempts")
	assert.Equal(t, 4, calls)
}

func TestExecuteWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := &RetryConfig{MaxRetries: 3, BaseDelay: time.Hour, MaxDelay: time.Hour}
	_, err := executeWithRetry(ctx, rc, func(context.Context) (interface{}, error) {
		return nil, errors.New("connection reset")
	}, "throw error")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigFrom(t *testing.T) {
	cc := ConfigFrom(config.CamundaConfig{BrokerAddress: "zeebe:26500", Timeout: 2000})
	assert.Equal(t, "zeebe:26500", cc.GatewayAddress)
	assert.Equal(t, 2*time.Second, cc.ConnectionTimeout)
	assert.Equal(t, 30*time.Second, cc.RequestTimeout)
	assert.Same(t, DefaultRetryConfig, cc.RetryConfig)
}
