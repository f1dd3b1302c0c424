package relayer

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xythum/darkpool-relayer/pkg/relayer/testutil"
)

func TestToAssetUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   *big.Int
		decimals uint
		want     uint64
		wantErr  error
	}{
		{"whole tokens", testutil.CreateBigInt("5000000000000000000"), 18, 5, nil},
		{"remainder floored", testutil.CreateBigInt("5999999999999999999"), 18, 5, nil},
		{"zero decimals", big.NewInt(42), 0, 42, nil},
		{"below one unit", testutil.CreateBigInt("999999999999999999"), 18, 0, ErrZeroAmount},
		{"zero", big.NewInt(0), 18, 0, ErrZeroAmount},
		{"negative", big.NewInt(-1), 0, 0, ErrZeroAmount},
		{"nil", nil, 18, 0, ErrZeroAmount},
		{"max uint64", new(big.Int).SetUint64(^uint64(0)), 0, ^uint64(0), nil},
		{"overflow", new(big.Int).Add(new(big.Int).SetUint64(^uint64(0)), big.NewInt(1)), 0, 0, ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToAssetUnits(tt.amount, tt.decimals)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToTokenUnits(t *testing.T) {
	testutil.AssertBigIntEqual(t, testutil.CreateBigInt("10000000000000000000"), ToTokenUnits(10, 18))
	testutil.AssertBigIntEqual(t, big.NewInt(7), ToTokenUnits(7, 0))
	testutil.AssertBigIntEqual(t, big.NewInt(0), ToTokenUnits(0, 18))
}

func TestRoundTripNeverExceedsLocked(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		decimals := uint(rng.Intn(19))
		amount := new(big.Int).Rand(rng, testutil.CreateBigInt("100000000000000000000000"))
		amount.Add(amount, big.NewInt(1))

		units, err := ToAssetUnits(amount, decimals)
		if err != nil {
			assert.True(t, errors.Is(err, ErrZeroAmount) || errors.Is(err, ErrAmountOverflow), err)
			continue
		}
		back := ToTokenUnits(units, decimals)
		assert.LessOrEqual(t, back.Cmp(amount), 0, "amount %s decimals %d", amount, decimals)

		// the remainder is less than one asset unit
		diff := new(big.Int).Sub(amount, back)
		assert.Negative(t, diff.Cmp(pow10(decimals)))
	}
}
