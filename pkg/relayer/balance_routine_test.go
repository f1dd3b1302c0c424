package relayer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/relayer/mocks"
	"github.com/xythum/darkpool-relayer/pkg/relayer/testutil"
)

func TestBalanceRoutineStartStop(t *testing.T) {
	evm := mocks.NewTokenChain(testutil.GenerateAddress())
	evm.Balance = tokens(3)
	algo := mocks.NewAssetChain(testutil.GenerateAlgoAddress(), 77)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := NewBalanceRoutine(ctx, evm, algo, 10*time.Millisecond, &logger.EmptyLogger{})

	assert.False(t, r.IsRunning())
	assert.True(t, r.Latest().UpdatedAt.IsZero())

	r.Start()
	r.Start()
	assert.True(t, r.IsRunning())

	require.Eventually(t, func() bool {
		return !r.Latest().UpdatedAt.IsZero()
	}, time.Second, 5*time.Millisecond)

	latest := r.Latest()
	assert.Equal(t, uint64(77), latest.Asset)
	testutil.AssertBigIntEqual(t, tokens(3), latest.Token)

	r.Stop()
	r.Stop()
	assert.False(t, r.IsRunning())
}

func TestBalanceRoutineKeepsLastValueOnError(t *testing.T) {
	evm := mocks.NewTokenChain(testutil.GenerateAddress())
	algo := mocks.NewAssetChain(testutil.GenerateAlgoAddress(), 50)
	r := NewBalanceRoutine(context.Background(), evm, algo, time.Hour, &logger.EmptyLogger{})

	r.refresh()
	assert.Equal(t, uint64(50), r.Latest().Asset)

	algo.SetBalanceErr(assert.AnError)
	r.refresh()
	assert.Equal(t, uint64(50), r.Latest().Asset)
}

func TestBalanceRoutineStopsWithContext(t *testing.T) {
	evm := mocks.NewTokenChain(testutil.GenerateAddress())
	algo := mocks.NewAssetChain(testutil.GenerateAlgoAddress(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	r := NewBalanceRoutine(ctx, evm, algo, 10*time.Millisecond, &logger.EmptyLogger{})
	r.Start()
	cancel()

	require.Eventually(t, func() bool { return !r.IsRunning() }, time.Second, 5*time.Millisecond)
}
