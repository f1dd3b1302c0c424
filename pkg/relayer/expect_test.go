package relayer

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xythum/darkpool-relayer/pkg/models"
	"github.com/xythum/darkpool-relayer/pkg/relayer/testutil"
)

func TestHandleExpectRegistersIntent(t *testing.T) {
	f := newFixture(t, []uint64{250})
	target := testutil.GenerateAddress()

	err := f.relayer.HandleExpect(context.Background(), models.ExpectRequest{
		Type:      models.CommandExpectASA,
		SwapID:    "swap-1",
		Amount:    json.Number("40"),
		TargetEvm: target.Hex(),
	})
	require.NoError(t, err)

	intent, ok := f.relayer.Registry().CurrentReverse()
	require.True(t, ok)
	assert.Equal(t, "swap-1", intent.SwapID)
	assert.Equal(t, uint64(40), intent.ExpectedAmount)
	assert.Equal(t, uint64(250), intent.BaselineBalance)
	assert.Equal(t, uint64(290), intent.Target())
	assert.Equal(t, target, intent.Destination)
	assert.False(t, intent.RegisteredAt.IsZero())
	assert.Empty(t, f.events.Events())
}

func TestHandleExpectReplacesPendingIntent(t *testing.T) {
	f := newFixture(t, []uint64{10, 12})
	ctx := context.Background()

	expect(t, f, "first", "5")
	second := expect(t, f, "second", "7")

	intent, ok := f.relayer.Registry().CurrentReverse()
	require.True(t, ok)
	assert.Equal(t, "second", intent.SwapID)
	assert.Equal(t, uint64(12), intent.BaselineBalance)
	assert.Equal(t, second.TargetEvm, intent.Destination.Hex())
	assert.Equal(t, Watching, f.relayer.Poller().Tick(ctx))
}

func TestHandleExpectRejections(t *testing.T) {
	target := testutil.GenerateAddress().Hex()

	tests := []struct {
		name       string
		amount     string
		target     string
		balanceErr error
		wantErr    error
	}{
		{"zero amount", "0", target, nil, ErrInvalidExpectedAmount},
		{"negative amount", "-5", target, nil, ErrInvalidExpectedAmount},
		{"fractional amount", "1.5", target, nil, ErrInvalidExpectedAmount},
		{"not a number", "ten", target, nil, ErrInvalidExpectedAmount},
		{"bad target", "10", "0x1234", nil, ErrInvalidTarget},
		{"empty target", "10", "", nil, ErrInvalidTarget},
		{"balance unavailable", "10", target, errors.New("algod down"), nil},
		{"max uint64 over baseline", strconv.FormatUint(math.MaxUint64, 10), target, nil, ErrInvalidExpectedAmount},
		{"one past remaining range", strconv.FormatUint(math.MaxUint64-100+1, 10), target, nil, ErrInvalidExpectedAmount},
		{"beyond uint64", "18446744073709551616", target, nil, ErrInvalidExpectedAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, []uint64{100})
			f.algo.SetBalanceErr(tt.balanceErr)

			err := f.relayer.HandleExpect(context.Background(), models.ExpectRequest{
				Type:      models.CommandExpectASA,
				SwapID:    "swap-x",
				Amount:    json.Number(tt.amount),
				TargetEvm: tt.target,
			})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			_, pending := f.relayer.Registry().CurrentReverse()
			assert.False(t, pending)

			events := f.events.Events()
			require.Len(t, events, 1)
			assert.Equal(t, models.EventError, events[0].Type)
			assert.Equal(t, models.WhereExpect, events[0].Where)
			assert.Equal(t, "swap-x", events[0].SwapID)
		})
	}
}

func TestHandleExpectAcceptsRemainingRange(t *testing.T) {
	f := newFixture(t, []uint64{100})

	expect(t, f, "swap-edge", strconv.FormatUint(math.MaxUint64-100, 10))

	intent, ok := f.relayer.Registry().CurrentReverse()
	require.True(t, ok)
	assert.Equal(t, uint64(math.MaxUint64), intent.Target())
	assert.False(t, intent.Arrived(100))
	assert.Empty(t, f.events.Events())
}
