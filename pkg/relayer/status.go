package relayer

import (
	"context"
	"fmt"
	"time"
)

const readyTimeout = 5 * time.Second

// Snapshot reports the relayer's bookkeeping state
func (r *Relayer) Snapshot() map[string]interface{} {
	status := map[string]interface{}{
		"evm_address":   r.evm.Address().Hex(),
		"algo_address":  r.algo.Address(),
		"settled_swaps": r.registry.SettledCount(),
		"queued_locks":  len(r.intents),
		"poller":        r.poller.State().String(),
	}
	if intent, ok := r.registry.CurrentReverse(); ok {
		status["pending_reverse"] = intent
	}
	return status
}

// Status implements health.StatusProvider
func (s *Service) Status(_ context.Context) map[string]interface{} {
	status := s.relayer.Snapshot()
	status["network"] = s.config.Network
	status["asset_id"] = s.algo.AssetID()
	status["lock_address"] = s.config.EVM.LockAddress.Hex()
	status["token_address"] = s.config.EVM.TokenAddress.Hex()
	status["observers"] = s.hub.ObserverCount()

	if b := s.balances.Latest(); !b.UpdatedAt.IsZero() {
		balances := map[string]interface{}{
			"asa":        b.Asset,
			"updated_at": b.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if b.Token != nil {
			balances["tt"] = b.Token.String()
		}
		status["balances"] = balances
	}
	return status
}

// Ready checks that both chain endpoints answer
func (s *Service) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	if _, err := s.evm.GetLatestBlockNumber(ctx); err != nil {
		return fmt.Errorf("EVM endpoint not ready: %w", err)
	}
	if _, err := s.algo.LastRound(ctx); err != nil {
		return fmt.Errorf("algod not ready: %w", err)
	}
	return nil
}
