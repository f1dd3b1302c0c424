package relayer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron"

	"github.com/xythum/darkpool-relayer/pkg/chainclient"
	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/metrics"
	"github.com/xythum/darkpool-relayer/pkg/models"
)

// DefaultPollInterval is the reverse poller tick period
const DefaultPollInterval = 5 * time.Second

// PollerState is the reverse poller's position in its watch cycle
type PollerState int32

const (
	Idle PollerState = iota
	Watching
)

func (s PollerState) String() string {
	if s == Watching {
		return "watching"
	}
	return "idle"
}

// Poller watches the relayer's ASA balance for the pending reverse intent and
// pays out TT once the expected amount has arrived.
type Poller struct {
	relayer  *Relayer
	interval time.Duration

	// guarded by tickMu; only one tick runs at a time
	tickMu   sync.Mutex
	swapID   string
	notified bool
	inflight common.Hash

	state atomic.Int32
}

func newPoller(r *Relayer, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{relayer: r, interval: interval}
}

// State returns the current poller state
func (p *Poller) State() PollerState {
	return PollerState(p.state.Load())
}

// Start schedules Tick every interval until ctx is done. Ticks never overlap.
func (p *Poller) Start(ctx context.Context) error {
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(p.interval).SingletonMode().Do(func() {
		p.Tick(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule reverse poller: %w", err)
	}
	scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		scheduler.Stop()
	}()
	return nil
}

func (p *Poller) resetIntent(swapID string) {
	p.swapID = swapID
	p.notified = false
	p.inflight = common.Hash{}
}

// Tick advances the state machine by one step and returns the resulting state
func (p *Poller) Tick(ctx context.Context) PollerState {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	r := p.relayer
	intent, ok := r.registry.CurrentReverse()
	if !ok {
		if p.State() == Watching {
			r.logger.NoticeWithChain(logger.Algo, "Stopping ASA monitor")
		}
		p.resetIntent("")
		p.state.Store(int32(Idle))
		metrics.PendingReverseIntents.Set(0)
		metrics.PollTicks.WithLabelValues("idle").Inc()
		return Idle
	}

	if p.State() == Idle {
		r.logger.NoticeWithChain(logger.Algo, "Starting ASA monitor for swap %s: expecting %d units on top of %d",
			intent.SwapID, intent.ExpectedAmount, intent.BaselineBalance)
		p.state.Store(int32(Watching))
	}
	if intent.SwapID != p.swapID {
		if p.swapID != "" {
			r.logger.NoticeWithChain(logger.Algo, "Swap %s superseded by %s", p.swapID, intent.SwapID)
		}
		if p.inflight != (common.Hash{}) {
			r.logger.NoticeWithChain(logger.Avax, "Abandoning TT transfer %s for superseded swap %s; it may still be mined",
				p.inflight.Hex(), p.swapID)
			r.publish(models.NewError(models.WhereReverse, p.swapID,
				fmt.Errorf("%w: transfer %s left unconfirmed", ErrSuperseded, p.inflight.Hex())))
		}
		p.resetIntent(intent.SwapID)
	}
	metrics.PendingReverseIntents.Set(1)

	if p.inflight == (common.Hash{}) {
		if !p.checkArrival(ctx, intent) {
			return Watching
		}
		if !p.submit(ctx, intent) {
			return Watching
		}
	}

	if !p.awaitSettlement(ctx, intent) {
		return Watching
	}

	r.registry.CompleteReverse(intent.SwapID)
	p.resetIntent("")
	p.state.Store(int32(Idle))
	metrics.PendingReverseIntents.Set(0)
	metrics.PollTicks.WithLabelValues("settled").Inc()
	return Idle
}

// checkArrival reports whether the relayer balance has reached the intent target
func (p *Poller) checkArrival(ctx context.Context, intent models.ReverseIntent) bool {
	r := p.relayer

	current, err := r.algo.AssetBalance(ctx)
	if err != nil {
		metrics.PollTicks.WithLabelValues("read_error").Inc()
		r.logger.ErrorWithChain(logger.Algo, "Failed to read ASA balance for swap %s: %v", intent.SwapID, err)
		return false
	}
	metrics.RelayerBalance.WithLabelValues(logger.Algo.String(), "asa").Set(float64(current))

	if !intent.Arrived(current) {
		metrics.PollTicks.WithLabelValues("waiting").Inc()
		r.logger.DebugWithChain(logger.Algo, "Swap %s: balance %d, waiting for %d", intent.SwapID, current, intent.Target())
		return false
	}

	if !p.notified {
		r.logger.InfoWithChain(logger.Algo, "Received %d units of the ASA for swap %s", intent.ExpectedAmount, intent.SwapID)
		r.publish(models.NewAlgoAsaReceived(intent.SwapID, intent.ExpectedAmount))
		p.notified = true
	}
	return true
}

// submit sends the TT payout and remembers its hash
func (p *Poller) submit(ctx context.Context, intent models.ReverseIntent) bool {
	r := p.relayer

	if r.evmBreaker.IsOpen() {
		metrics.PollTicks.WithLabelValues("circuit_open").Inc()
		r.logger.ErrorWithChain(logger.Avax, "Swap %s: %v for EVM transfers, retrying next tick", intent.SwapID, ErrCircuitOpen)
		return false
	}

	amount := ToTokenUnits(intent.ExpectedAmount, r.decimals)
	hash, err := r.evm.SendToken(ctx, intent.Destination, amount)
	if err != nil {
		r.evmBreaker.RecordFailure()
		metrics.ReverseSettlements.WithLabelValues("failed").Inc()
		metrics.PollTicks.WithLabelValues("transfer_error").Inc()
		r.logger.ErrorWithChain(logger.Avax, "Failed to send TT for swap %s: %v", intent.SwapID, err)
		r.publish(models.NewError(models.WhereReverse, intent.SwapID, err))
		return false
	}

	p.inflight = hash
	metrics.ReverseSettlements.WithLabelValues("submitted").Inc()
	r.logger.InfoWithChain(logger.Avax, "Sent %s TT to %s for swap %s (%s)",
		amount, intent.Destination.Hex(), intent.SwapID, r.explorer.AvaxTxURL(hash.Hex()))
	r.publish(models.NewAlgoTokenSent(intent.SwapID, hash.Hex(), intent.Destination.Hex()))
	return true
}

// awaitSettlement waits for the in-flight payout; a reverted payout is forgotten so the next tick resubmits
func (p *Poller) awaitSettlement(ctx context.Context, intent models.ReverseIntent) bool {
	r := p.relayer
	hash := p.inflight

	block, err := r.evm.WaitMined(ctx, hash)
	if err != nil {
		if errors.Is(err, chainclient.ErrTransactionReverted) {
			p.inflight = common.Hash{}
		}
		r.evmBreaker.RecordFailure()
		metrics.ReverseSettlements.WithLabelValues("unconfirmed").Inc()
		metrics.PollTicks.WithLabelValues("transfer_error").Inc()
		r.logger.ErrorWithChain(logger.Avax, "TT transfer %s for swap %s not confirmed: %v", hash.Hex(), intent.SwapID, err)
		r.publish(models.NewError(models.WhereReverse, intent.SwapID, err))
		return false
	}

	r.evmBreaker.RecordSuccess()
	metrics.ReverseSettlements.WithLabelValues("confirmed").Inc()
	r.logger.NoticeWithChain(logger.Avax, "TT transfer %s confirmed in block %d for swap %s", hash.Hex(), block, intent.SwapID)
	r.publish(models.NewAlgoTokenConfirmed(intent.SwapID, hash.Hex(), intent.Destination.Hex()))
	return true
}
