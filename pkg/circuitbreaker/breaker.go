package circuitbreaker

import (
	"sync"
	"time"

	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/metrics"
)

// CircuitBreaker implements the circuit breaker pattern for transfers on one chain
type CircuitBreaker struct {
	chain         logger.Chain
	enabled       bool
	failureCount  int
	failureWindow time.Duration
	failThreshold int
	resetTimeout  time.Duration
	lastFailure   time.Time
	tripped       bool
	tripTime      time.Time
	logger        logger.Logger
	now           func() time.Time
	mu            sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(chain logger.Chain, enabled bool, threshold int, window time.Duration, resetTimeout time.Duration, log logger.Logger) *CircuitBreaker {
	return &CircuitBreaker{
		chain:         chain,
		enabled:       enabled,
		failThreshold: threshold,
		failureWindow: window,
		resetTimeout:  resetTimeout,
		logger:        log,
		now:           time.Now,
	}
}

// Chain returns the chain this breaker guards
func (cb *CircuitBreaker) Chain() logger.Chain {
	return cb.chain
}

// RecordFailure records a failure and trips the circuit if threshold is exceeded
func (cb *CircuitBreaker) RecordFailure() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.now()

	// If the circuit is already tripped, check if it's time to try again
	if cb.tripped {
		if now.Sub(cb.tripTime) > cb.resetTimeout {
			cb.logger.NoticeWithChain(cb.chain, "Circuit breaker: attempting to reset after timeout")
			cb.setTripped(false)
			cb.failureCount = 0
		} else {
			return true
		}
	}

	if now.Sub(cb.lastFailure) > cb.failureWindow {
		cb.failureCount = 0
	}

	cb.failureCount++
	cb.lastFailure = now

	if cb.failureCount >= cb.failThreshold {
		cb.setTripped(true)
		cb.tripTime = now
		cb.logger.ErrorWithChain(cb.chain, "Circuit breaker tripped: %d failures in window", cb.failureCount)
		return true
	}

	return false
}

// RecordSuccess clears the failure streak
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failureCount = 0
}

// IsOpen returns true if the circuit is open (tripped)
func (cb *CircuitBreaker) IsOpen() bool {
	if !cb.enabled {
		return false
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	// half-open after the reset timeout
	if cb.tripped && cb.now().Sub(cb.tripTime) > cb.resetTimeout {
		cb.setTripped(false)
		cb.failureCount = 0
		return false
	}

	return cb.tripped
}

// Reset manually resets the circuit breaker
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.setTripped(false)
	cb.failureCount = 0
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() (failureCount int, lastFailure time.Time, failureWindow time.Duration, failThreshold int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount, cb.lastFailure, cb.failureWindow, cb.failThreshold
}

// IsEnabled returns true if the circuit breaker is enabled
func (cb *CircuitBreaker) IsEnabled() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.enabled
}

func (cb *CircuitBreaker) setTripped(tripped bool) {
	cb.tripped = tripped
	v := 0.0
	if tripped {
		v = 1
	}
	metrics.CircuitOpen.WithLabelValues(cb.chain.String()).Set(v)
}
