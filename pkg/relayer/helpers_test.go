package relayer

import (
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xythum/darkpool-relayer/pkg/circuitbreaker"
	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/models"
	"github.com/xythum/darkpool-relayer/pkg/relayer/mocks"
	"github.com/xythum/darkpool-relayer/pkg/relayer/testutil"
)

const testDecimals = 18

type fixture struct {
	relayer *Relayer
	algo    *mocks.AssetChain
	evm     *mocks.TokenChain
	events  *mocks.Publisher
}

type fixtureOption func(*Options)

func withBreakers(algo, evm *circuitbreaker.CircuitBreaker) fixtureOption {
	return func(o *Options) {
		o.AlgoBreaker = algo
		o.EVMBreaker = evm
	}
}

func withPollInterval(d time.Duration) fixtureOption {
	return func(o *Options) {
		o.PollInterval = d
	}
}

func newFixture(t *testing.T, balances []uint64, opts ...fixtureOption) *fixture {
	t.Helper()
	f := &fixture{
		algo:   mocks.NewAssetChain(testutil.GenerateAlgoAddress(), balances...),
		evm:    mocks.NewTokenChain(testutil.GenerateAddress()),
		events: &mocks.Publisher{},
	}
	options := Options{
		EVM:           f.evm,
		Algo:          f.algo,
		Publisher:     f.events,
		TokenDecimals: testDecimals,
		Logger:        &logger.EmptyLogger{},
	}
	for _, opt := range opts {
		opt(&options)
	}
	f.relayer = New(options)
	return f
}

// trippedBreaker returns an enabled breaker that is already open
func trippedBreaker(chain logger.Chain) *circuitbreaker.CircuitBreaker {
	cb := circuitbreaker.NewCircuitBreaker(chain, true, 1, time.Minute, time.Hour, &logger.EmptyLogger{})
	cb.RecordFailure()
	return cb
}

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), pow10(testDecimals))
}

func lockIntent(swap byte, amount *big.Int, dest string) models.LockIntent {
	return models.LockIntent{
		User:        testutil.GenerateAddress(),
		Amount:      amount,
		SwapID:      common.BytesToHash([]byte{swap}),
		Destination: dest,
		TxHash:      common.BytesToHash([]byte{0xee, swap}),
		BlockNumber: 100,
	}
}
