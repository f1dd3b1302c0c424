package relayer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/metrics"
	"github.com/xythum/darkpool-relayer/pkg/models"
)

// HandleExpect registers an announced reverse swap. The relayer's current ASA balance
// becomes the baseline the poller measures the inbound transfer against.
func (r *Relayer) HandleExpect(ctx context.Context, req models.ExpectRequest) error {
	swapID := strings.TrimSpace(req.SwapID)

	amount, err := strconv.ParseUint(strings.TrimSpace(req.Amount.String()), 10, 64)
	if err != nil || amount == 0 {
		return r.rejectExpect(swapID, fmt.Errorf("%w: %q", ErrInvalidExpectedAmount, req.Amount.String()))
	}

	target := strings.TrimSpace(req.TargetEvm)
	if !common.IsHexAddress(target) {
		return r.rejectExpect(swapID, fmt.Errorf("%w: %q", ErrInvalidTarget, target))
	}

	baseline, err := r.algo.AssetBalance(ctx)
	if err != nil {
		return r.rejectExpect(swapID, fmt.Errorf("failed to snapshot ASA balance: %w", err))
	}
	if amount > math.MaxUint64-baseline {
		return r.rejectExpect(swapID, fmt.Errorf("%w: %d on top of balance %d exceeds the ASA range",
			ErrInvalidExpectedAmount, amount, baseline))
	}

	intent := models.ReverseIntent{
		SwapID:          swapID,
		ExpectedAmount:  amount,
		BaselineBalance: baseline,
		Destination:     common.HexToAddress(target),
		RegisteredAt:    time.Now(),
	}
	prev, err := r.registry.RegisterReverse(intent)
	if err != nil {
		return r.rejectExpect(swapID, err)
	}
	if prev != nil && prev.SwapID != swapID {
		r.logger.NoticeWithChain(logger.Algo, "Reverse swap %s replaced by %s before settlement", prev.SwapID, swapID)
	}

	metrics.PendingReverseIntents.Set(1)
	r.logger.InfoWithChain(logger.Algo, "Expecting %d units of the ASA for swap %s (baseline %d), paying %s",
		amount, swapID, baseline, intent.Destination.Hex())
	return nil
}

func (r *Relayer) rejectExpect(swapID string, err error) error {
	r.logger.ErrorWithChain(logger.Algo, "EXPECT_ASA %s rejected: %v", swapID, err)
	r.publish(models.NewError(models.WhereExpect, swapID, err))
	return err
}
