package relayer

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/models"
	"github.com/xythum/darkpool-relayer/pkg/relayer/testutil"
)

func TestProcessLockSettles(t *testing.T) {
	f := newFixture(t, nil)
	dest := testutil.GenerateAlgoAddress()
	intent := lockIntent(1, testutil.CreateBigInt("5500000000000000000"), "  "+dest+"\n")

	require.NoError(t, f.relayer.processLock(context.Background(), intent))

	transfers := f.algo.Transfers()
	require.Len(t, transfers, 1)
	assert.Equal(t, dest, transfers[0].To)
	assert.Equal(t, uint64(5), transfers[0].Amount)
	assert.True(t, f.relayer.Registry().IsSettled(intent.Key()))

	assert.Equal(t, []models.EventType{
		models.EventLockDetected,
		models.EventAsaSent,
		models.EventAsaConfirmed,
	}, f.events.Types())

	events := f.events.Events()
	assert.Equal(t, intent.Key(), events[0].SwapID)
	assert.Equal(t, "5500000000000000000", events[0].Amount)
	assert.Equal(t, "5", events[1].Amount)
	assert.Equal(t, transfers[0].TxID, events[2].AsaTxID)
}

func TestProcessLockIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	intent := lockIntent(2, tokens(3), testutil.GenerateAlgoAddress())

	require.NoError(t, f.relayer.processLock(context.Background(), intent))
	err := f.relayer.processLock(context.Background(), intent)

	assert.ErrorIs(t, err, ErrAlreadySettled)
	assert.Len(t, f.algo.Transfers(), 1)
	assert.Equal(t, 2, f.events.Count(models.EventLockDetected))
	assert.Zero(t, f.events.Count(models.EventError))
	assert.Equal(t, 1, f.relayer.Registry().SettledCount())
}

func TestProcessLockRejections(t *testing.T) {
	tests := []struct {
		name    string
		amount  *big.Int
		dest    string
		opts    []fixtureOption
		wantErr error
	}{
		{
			name:   "malformed destination",
			amount: tokens(1),
			dest:   "not-an-algorand-address",
		},
		{
			name:   "bad checksum",
			amount: tokens(1),
			dest:   "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA",
		},
		{
			name:    "amount below one unit",
			amount:  big.NewInt(999),
			dest:    testutil.GenerateAlgoAddress(),
			wantErr: ErrZeroAmount,
		},
		{
			name:    "algorand circuit open",
			amount:  tokens(1),
			dest:    testutil.GenerateAlgoAddress(),
			opts:    []fixtureOption{withBreakers(trippedBreaker(logger.Algo), nil)},
			wantErr: ErrCircuitOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil, tt.opts...)
			intent := lockIntent(3, tt.amount, tt.dest)

			err := f.relayer.processLock(context.Background(), intent)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			assert.Empty(t, f.algo.Transfers())
			assert.False(t, f.relayer.Registry().IsSettled(intent.Key()))
			assert.Equal(t, []models.EventType{models.EventLockDetected, models.EventError}, f.events.Types())

			errEvent := f.events.Events()[1]
			assert.Equal(t, models.WhereForward, errEvent.Where)
			assert.Equal(t, intent.Key(), errEvent.SwapID)
			assert.NotEmpty(t, errEvent.Message)
		})
	}
}

func TestProcessLockTransferFailureStaysSettled(t *testing.T) {
	f := newFixture(t, nil)
	f.algo.SendErr = errors.New("overspend")
	intent := lockIntent(4, tokens(2), testutil.GenerateAlgoAddress())

	err := f.relayer.processLock(context.Background(), intent)
	require.Error(t, err)

	// no automatic retry: the swap id stays claimed
	assert.True(t, f.relayer.Registry().IsSettled(intent.Key()))
	assert.Equal(t, []models.EventType{models.EventLockDetected, models.EventError}, f.events.Types())
	assert.Contains(t, f.events.Events()[1].Message, "overspend")

	assert.ErrorIs(t, f.relayer.processLock(context.Background(), intent), ErrAlreadySettled)
}

func TestProcessLockConfirmationFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.algo.ConfirmErr = errors.New("not confirmed after 4 rounds")
	intent := lockIntent(5, tokens(2), testutil.GenerateAlgoAddress())

	err := f.relayer.processLock(context.Background(), intent)
	require.Error(t, err)

	assert.Len(t, f.algo.Transfers(), 1)
	assert.Equal(t, []models.EventType{
		models.EventLockDetected,
		models.EventAsaSent,
		models.EventError,
	}, f.events.Types())
}

func TestRunForwardProcessesInArrivalOrder(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := testutil.SetupTestWithTimeout(t)
	defer cancel()

	dests := []string{testutil.GenerateAlgoAddress(), testutil.GenerateAlgoAddress(), testutil.GenerateAlgoAddress()}
	for i, dest := range dests {
		f.relayer.Intents() <- lockIntent(byte(10+i), tokens(int64(i+1)), dest)
	}

	done := make(chan struct{})
	go func() {
		f.relayer.runForward(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(f.algo.Transfers()) == len(dests)
	}, time.Second, 10*time.Millisecond)

	for i, transfer := range f.algo.Transfers() {
		assert.Equal(t, dests[i], transfer.To)
		assert.Equal(t, uint64(i+1), transfer.Amount)
	}

	cancel()
	<-done
}

func TestReportDecodeError(t *testing.T) {
	f := newFixture(t, nil)
	f.relayer.ReportDecodeError(errors.New("unexpected topic count"))

	events := f.events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventError, events[0].Type)
	assert.Equal(t, models.WhereLockDecode, events[0].Where)
	assert.Empty(t, events[0].SwapID)
}
