package chainclient

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/xythum/darkpool-relayer/pkg/contracts"
	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/metrics"
	"github.com/xythum/darkpool-relayer/pkg/models"
)

// DefaultResubscribeBackoff is the delay before a dropped log subscription is reopened
const DefaultResubscribeBackoff = 3 * time.Second

// LogSubscriber opens a push subscription for filtered logs
type LogSubscriber interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// LockSource turns Locked logs into lock intents
type LockSource struct {
	subscriber LogSubscriber
	filterer   *contracts.LockFilterer
	backoff    time.Duration
	logger     logger.Logger
}

func NewLockSource(subscriber LogSubscriber, filterer *contracts.LockFilterer, backoff time.Duration, log logger.Logger) *LockSource {
	if backoff <= 0 {
		backoff = DefaultResubscribeBackoff
	}
	return &LockSource{
		subscriber: subscriber,
		filterer:   filterer,
		backoff:    backoff,
		logger:     log,
	}
}

// Run delivers decoded intents to out in arrival order until ctx is done.
// Logs that fail to decode are passed to onError and dropped.
func (s *LockSource) Run(ctx context.Context, out chan<- models.LockIntent, onError func(error)) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{s.filterer.Address()},
		Topics:    [][]common.Hash{{s.filterer.LockedTopic()}},
	}

	for {
		err := s.consume(ctx, query, out, onError)
		if ctx.Err() != nil {
			return
		}

		metrics.SubscriptionRestarts.Inc()
		s.logger.ErrorWithChain(logger.Avax, "Lock subscription dropped: %v, resubscribing in %s", err, s.backoff)

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.backoff):
		}
	}
}

// consume runs one subscription until it fails or ctx is done
func (s *LockSource) consume(ctx context.Context, query ethereum.FilterQuery, out chan<- models.LockIntent, onError func(error)) error {
	logs := make(chan types.Log)
	sub, err := s.subscriber.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return fmt.Errorf("failed to subscribe to lock logs: %w", err)
	}
	defer sub.Unsubscribe()

	s.logger.NoticeWithChain(logger.Avax, "Listening for Locked events on %s", s.filterer.Address().Hex())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			if err == nil {
				return fmt.Errorf("subscription closed")
			}
			return err
		case vLog := <-logs:
			if vLog.Removed {
				s.logger.NoticeWithChain(logger.Avax, "Ignoring removed log in tx %s", vLog.TxHash.Hex())
				continue
			}

			intent, err := s.decode(vLog)
			if err != nil {
				metrics.DecodeErrors.Inc()
				s.logger.ErrorWithChain(logger.Avax, "Failed to decode lock log in tx %s: %v", vLog.TxHash.Hex(), err)
				if onError != nil {
					onError(fmt.Errorf("tx %s: %w", vLog.TxHash.Hex(), err))
				}
				continue
			}

			select {
			case out <- intent:
				metrics.QueuedLocks.Set(float64(len(out)))
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (s *LockSource) decode(vLog types.Log) (models.LockIntent, error) {
	event, err := s.filterer.ParseLocked(vLog)
	if err != nil {
		return models.LockIntent{}, err
	}
	return models.LockIntent{
		User:        event.User,
		Amount:      event.Amount,
		SwapID:      common.Hash(event.SwapId),
		Destination: event.TargetAlgorandAddr,
		TxHash:      vLog.TxHash,
		BlockNumber: vLog.BlockNumber,
		LogIndex:    vLog.Index,
	}, nil
}
