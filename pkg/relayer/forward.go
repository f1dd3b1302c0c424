package relayer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xythum/darkpool-relayer/pkg/algoclient"
	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/metrics"
	"github.com/xythum/darkpool-relayer/pkg/models"
)

// runForward processes queued locks one at a time in arrival order
func (r *Relayer) runForward(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Forward pipeline stopped")
			return
		case intent := <-r.intents:
			metrics.QueuedLocks.Set(float64(len(r.intents)))
			if err := r.processLock(ctx, intent); err != nil {
				r.logger.DebugWithChain(logger.Algo, "Lock %s not settled: %v", intent.Key(), err)
			}
		}
	}
}

// processLock drives a single lock intent to an ASA transfer on Algorand
func (r *Relayer) processLock(ctx context.Context, intent models.LockIntent) error {
	start := time.Now()
	swapID := intent.Key()

	r.logger.InfoWithChain(logger.Avax, "Lock detected: swap %s, %s wei from %s to %q (tx %s)",
		swapID, intent.Amount, intent.User.Hex(), intent.Destination, r.explorer.AvaxTxURL(intent.TxHash.Hex()))
	r.publish(models.NewLockDetected(intent))

	if r.registry.IsSettled(swapID) {
		metrics.LockEvents.WithLabelValues("duplicate").Inc()
		r.logger.Notice("Swap %s already processed, skipping", swapID)
		return ErrAlreadySettled
	}

	destination := strings.TrimSpace(intent.Destination)
	if err := algoclient.ValidateAddress(destination); err != nil {
		return r.rejectLock(swapID, "invalid_destination", err)
	}

	amount, err := ToAssetUnits(intent.Amount, r.decimals)
	if err != nil {
		return r.rejectLock(swapID, "invalid_amount", fmt.Errorf("%w: %s wei at %d decimals", err, intent.Amount, r.decimals))
	}

	if r.algoBreaker.IsOpen() {
		return r.rejectLock(swapID, "circuit_open", fmt.Errorf("%w for Algorand transfers", ErrCircuitOpen))
	}

	if !r.registry.MarkSettled(swapID) {
		metrics.LockEvents.WithLabelValues("duplicate").Inc()
		return ErrAlreadySettled
	}
	metrics.SettledSwaps.Set(float64(r.registry.SettledCount()))

	txID, err := r.algo.SendAsset(ctx, destination, amount)
	if err != nil {
		r.algoBreaker.RecordFailure()
		metrics.ForwardTransfers.WithLabelValues("failed").Inc()
		return r.rejectLock(swapID, "transfer_failed", err)
	}
	metrics.ForwardTransfers.WithLabelValues("submitted").Inc()
	r.logger.InfoWithChain(logger.Algo, "Sent %d units of the ASA to %s for swap %s (%s)",
		amount, destination, swapID, r.explorer.AlgoTxURL(txID))
	r.publish(models.NewAsaSent(swapID, txID, amount))

	round, err := r.algo.WaitConfirmed(ctx, txID)
	if err != nil {
		r.algoBreaker.RecordFailure()
		metrics.ForwardTransfers.WithLabelValues("unconfirmed").Inc()
		return r.rejectLock(swapID, "confirmation_failed", err)
	}

	r.algoBreaker.RecordSuccess()
	metrics.ForwardTransfers.WithLabelValues("confirmed").Inc()
	metrics.LockEvents.WithLabelValues("settled").Inc()
	metrics.ForwardProcessingTime.Observe(time.Since(start).Seconds())
	r.logger.NoticeWithChain(logger.Algo, "ASA transfer %s confirmed in round %d for swap %s", txID, round, swapID)
	r.publish(models.NewAsaConfirmed(swapID, txID))
	return nil
}

func (r *Relayer) rejectLock(swapID, outcome string, err error) error {
	metrics.LockEvents.WithLabelValues(outcome).Inc()
	r.logger.ErrorWithChain(logger.Algo, "Swap %s failed (%s): %v", swapID, outcome, err)
	r.publish(models.NewError(models.WhereForward, swapID, err))
	return err
}
