package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleAdaptsTowardLatency(t *testing.T) {
	th := NewThrottle(100*time.Millisecond, 50*time.Millisecond, time.Second)

	// Slow responses push the delay up: (100+300)/2 = 200.
	th.Update(300*time.Millisecond, true)
	assert.Equal(t, 200*time.Millisecond, th.Delay())

	// Fast responses pull it back down: (200+0)/2 = 100.
	th.Update(0, true)
	assert.Equal(t, 100*time.Millisecond, th.Delay())
}

func TestThrottleClampsToBounds(t *testing.T) {
	th := NewThrottle(100*time.Millisecond, 50*time.Millisecond, 150*time.Millisecond)

	th.Update(10*time.Second, true)
	assert.Equal(t, 150*time.Millisecond, th.Delay())

	for i := 0; i < 10; i++ {
		th.Update(0, true)
	}
	assert.Equal(t, 50*time.Millisecond, th.Delay())
}

func TestThrottleNeverShrinksOnFailure(t *testing.T) {
	th := NewThrottle(200*time.Millisecond, 50*time.Millisecond, time.Second)

	th.Update(0, false)
	assert.Equal(t, 200*time.Millisecond, th.Delay())

	// A slow failure still grows the delay.
	th.Update(600*time.Millisecond, false)
	assert.Equal(t, 400*time.Millisecond, th.Delay())
}

func TestThrottleStartBelowFloor(t *testing.T) {
	th := NewThrottle(0, 80*time.Millisecond, time.Second)
	assert.Equal(t, 80*time.Millisecond, th.Delay())
}

func TestThrottleWaitHonorsContext(t *testing.T) {
	th := NewThrottle(time.Hour, time.Hour, 2*time.Hour)
	require.NoError(t, th.Wait(context.Background())) // first call has no prior request

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := th.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
