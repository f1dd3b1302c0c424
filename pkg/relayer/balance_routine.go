package relayer

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/metrics"
)

// DefaultBalanceInterval is how often relayer holdings are refreshed
const DefaultBalanceInterval = time.Minute

// Balances is a snapshot of the relayer's holdings on both chains
type Balances struct {
	Token     *big.Int  `json:"tt"`
	Asset     uint64    `json:"asa"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BalanceRoutine manages the periodic refresh of relayer balances
type BalanceRoutine struct {
	ctx      context.Context
	evm      TokenChain
	algo     AssetChain
	interval time.Duration
	stopChan chan struct{}
	mu       sync.RWMutex
	running  bool
	latest   Balances
	logger   logger.Logger
}

// NewBalanceRoutine creates a new balance routine
func NewBalanceRoutine(ctx context.Context, evm TokenChain, algo AssetChain, interval time.Duration, log logger.Logger) *BalanceRoutine {
	if interval <= 0 {
		interval = DefaultBalanceInterval
	}
	return &BalanceRoutine{
		ctx:      ctx,
		evm:      evm,
		algo:     algo,
		interval: interval,
		logger:   log,
	}
}

// Start begins the periodic balance refresh
func (r *BalanceRoutine) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return
	}

	r.stopChan = make(chan struct{})
	r.running = true

	go r.run(r.stopChan)
}

// Stop halts the periodic refresh
func (r *BalanceRoutine) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	close(r.stopChan)
	r.stopChan = nil
	r.running = false
}

// IsRunning returns whether the routine is currently running
func (r *BalanceRoutine) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

// Latest returns the most recent snapshot; UpdatedAt is zero before the first refresh
func (r *BalanceRoutine) Latest() Balances {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b := r.latest
	if b.Token != nil {
		b.Token = new(big.Int).Set(b.Token)
	}
	return b
}

func (r *BalanceRoutine) run(stop <-chan struct{}) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.refresh()

	for {
		select {
		case <-ticker.C:
			r.refresh()
		case <-stop:
			return
		case <-r.ctx.Done():
			r.Stop()
			return
		}
	}
}

// refresh reads both balances; a failed read keeps the previous value
func (r *BalanceRoutine) refresh() {
	r.mu.RLock()
	next := r.latest
	r.mu.RUnlock()

	token, err := r.evm.TokenBalance(r.ctx)
	if err != nil {
		r.logger.ErrorWithChain(logger.Avax, "Failed to read TT balance: %v", err)
	} else {
		next.Token = token
		f, _ := new(big.Float).SetInt(token).Float64()
		metrics.RelayerBalance.WithLabelValues(logger.Avax.String(), "tt").Set(f)
	}

	asset, err := r.algo.AssetBalance(r.ctx)
	if err != nil {
		r.logger.ErrorWithChain(logger.Algo, "Failed to read ASA balance: %v", err)
	} else {
		next.Asset = asset
		metrics.RelayerBalance.WithLabelValues(logger.Algo.String(), "asa").Set(float64(asset))
	}

	next.UpdatedAt = time.Now()

	r.mu.Lock()
	r.latest = next
	r.mu.Unlock()
}
