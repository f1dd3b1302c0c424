package relayer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xythum/darkpool-relayer/pkg/models"
)

func TestSnapshot(t *testing.T) {
	f := newFixture(t, []uint64{5})

	status := f.relayer.Snapshot()
	assert.Equal(t, f.evm.Addr.Hex(), status["evm_address"])
	assert.Equal(t, f.algo.Addr, status["algo_address"])
	assert.Equal(t, 0, status["settled_swaps"])
	assert.Equal(t, "idle", status["poller"])
	assert.NotContains(t, status, "pending_reverse")

	f.relayer.Registry().MarkSettled("0x01")
	expect(t, f, "swap-1", "3")

	status = f.relayer.Snapshot()
	assert.Equal(t, 1, status["settled_swaps"])
	pending, ok := status["pending_reverse"].(models.ReverseIntent)
	require.True(t, ok)
	assert.Equal(t, uint64(8), pending.Target())
}

func TestBreakersKeyedByChain(t *testing.T) {
	f := newFixture(t, nil)
	breakers := f.relayer.Breakers()
	require.Len(t, breakers, 2)
	assert.Equal(t, "algo", breakers["algo"].Chain().String())
	assert.Equal(t, "avax", breakers["avax"].Chain().String())
}
