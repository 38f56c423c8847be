package contentful

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBackoff(t *testing.T) {
	r := NewRateLimiter(1000)
	r.RecordRateLimit(50 * time.Millisecond)

	start := time.Now()
	require.NoError(t, r.Wait(t.Context()))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestRateLimiterWaitCanceled(t *testing.T) {
	r := NewRateLimiter(1000)
	r.RecordRateLimit(time.Hour)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.Wait(ctx), context.DeadlineExceeded)
}

func TestParseReset(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseReset("3"))
	assert.Equal(t, time.Second, parseReset(""))
	assert.Equal(t, time.Second, parseReset("soon"))
}
