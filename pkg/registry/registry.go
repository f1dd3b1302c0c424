// Package registry keeps the in-memory swap bookkeeping shared by both directions:
// the set of forward swaps already settled and the single pending reverse intent.
package registry

import (
	"errors"
	"sync"

	"github.com/xythum/darkpool-relayer/pkg/models"
)

var (
	ErrZeroExpectedAmount = errors.New("expected amount must be greater than zero")
	ErrEmptySwapID        = errors.New("swap id is required")
)

// Registry is safe for concurrent use
type Registry struct {
	mu      sync.RWMutex
	settled map[string]struct{}
	reverse *models.ReverseIntent
}

func New() *Registry {
	return &Registry{
		settled: make(map[string]struct{}),
	}
}

// IsSettled reports whether a forward swap id has already been claimed
func (r *Registry) IsSettled(swapID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.settled[swapID]
	return ok
}

// MarkSettled inserts swapID and reports whether this call inserted it
func (r *Registry) MarkSettled(swapID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settled[swapID]; ok {
		return false
	}
	r.settled[swapID] = struct{}{}
	return true
}

func (r *Registry) SettledCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.settled)
}

// RegisterReverse installs intent as the pending reverse intent and returns the one it replaced, if any
func (r *Registry) RegisterReverse(intent models.ReverseIntent) (*models.ReverseIntent, error) {
	if intent.ExpectedAmount == 0 {
		return nil, ErrZeroExpectedAmount
	}
	if intent.SwapID == "" {
		return nil, ErrEmptySwapID
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.reverse
	r.reverse = &intent
	return prev, nil
}

// ClearReverse drops the pending reverse intent
func (r *Registry) ClearReverse() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reverse = nil
}

// CompleteReverse clears the pending intent only if it still belongs to swapID
func (r *Registry) CompleteReverse(swapID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.reverse == nil || r.reverse.SwapID != swapID {
		return false
	}
	r.reverse = nil
	return true
}

// CurrentReverse returns a copy of the pending reverse intent
func (r *Registry) CurrentReverse() (models.ReverseIntent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.reverse == nil {
		return models.ReverseIntent{}, false
	}
	return *r.reverse, true
}
