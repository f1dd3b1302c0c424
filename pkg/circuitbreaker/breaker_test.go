package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xythum/darkpool-relayer/pkg/logger"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(enabled bool) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker(logger.Algo, enabled, 3, 5*time.Second, 15*time.Second, &logger.EmptyLogger{})
	cb.now = clock.now
	return cb, clock
}

func TestCircuitBreakerTripsAtThreshold(t *testing.T) {
	cb, _ := newTestBreaker(true)

	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.RecordFailure())
	assert.False(t, cb.IsOpen())
	assert.True(t, cb.RecordFailure())
	assert.True(t, cb.IsOpen())
}

func TestCircuitBreakerWindowResetsCount(t *testing.T) {
	cb, clock := newTestBreaker(true)

	cb.RecordFailure()
	cb.RecordFailure()
	clock.advance(6 * time.Second)
	assert.False(t, cb.RecordFailure())

	count, _, _, _ := cb.GetState()
	assert.Equal(t, 1, count)
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	cb, clock := newTestBreaker(true)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	assert.True(t, cb.IsOpen())

	clock.advance(16 * time.Second)
	assert.False(t, cb.IsOpen())
}

func TestCircuitBreakerResetAndSuccess(t *testing.T) {
	cb, _ := newTestBreaker(true)

	for i := 0; i < 3; i++ {
		cb.RecordFailure()
	}
	cb.Reset()
	assert.False(t, cb.IsOpen())

	cb.RecordFailure()
	cb.RecordSuccess()
	count, _, _, _ := cb.GetState()
	assert.Equal(t, 0, count)
}

func TestCircuitBreakerDisabledNeverOpens(t *testing.T) {
	cb, _ := newTestBreaker(false)

	for i := 0; i < 10; i++ {
		assert.False(t, cb.RecordFailure())
	}
	assert.False(t, cb.IsOpen())
	assert.False(t, cb.IsEnabled())
	assert.Equal(t, logger.Algo, cb.Chain())
}
