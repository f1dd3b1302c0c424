package contracts

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testLockAddress = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testUser        = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testSwapID      = common.HexToHash("0xabcdef")
	testDestination = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAY5HFKQ"
)

func packNonIndexed(t *testing.T, abiJSON string, values ...interface{}) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	require.NoError(t, err)
	data, err := parsed.Events["Locked"].Inputs.NonIndexed().Pack(values...)
	require.NoError(t, err)
	return data
}

func TestParseLockedAmountInData(t *testing.T) {
	f, err := NewLockFilterer(testLockAddress)
	require.NoError(t, err)

	amount := new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	log := types.Log{
		Address: testLockAddress,
		Topics: []common.Hash{
			f.LockedTopic(),
			common.BytesToHash(testUser.Bytes()),
			testSwapID,
		},
		Data: packNonIndexed(t, LockABI, amount, testDestination),
	}

	event, err := f.ParseLocked(log)
	require.NoError(t, err)
	assert.Equal(t, testUser, event.User)
	assert.Equal(t, 0, amount.Cmp(event.Amount))
	assert.Equal(t, [32]byte(testSwapID), event.SwapId)
	assert.Equal(t, testDestination, event.TargetAlgorandAddr)
}

func TestParseLockedIndexedAmount(t *testing.T) {
	f, err := NewLockFilterer(testLockAddress)
	require.NoError(t, err)

	amount := big.NewInt(123456)
	log := types.Log{
		Address: testLockAddress,
		Topics: []common.Hash{
			f.LockedTopic(),
			common.BytesToHash(testUser.Bytes()),
			common.BigToHash(amount),
			testSwapID,
		},
		Data: packNonIndexed(t, LockIndexedAmountABI, testDestination),
	}

	event, err := f.ParseLocked(log)
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(event.Amount))
	assert.Equal(t, [32]byte(testSwapID), event.SwapId)
	assert.Equal(t, testDestination, event.TargetAlgorandAddr)
}

func TestParseLockedRejectsMalformedLogs(t *testing.T) {
	f, err := NewLockFilterer(testLockAddress)
	require.NoError(t, err)

	tests := []struct {
		name string
		log  types.Log
	}{
		{
			name: "no topics",
			log:  types.Log{},
		},
		{
			name: "foreign event",
			log:  types.Log{Topics: []common.Hash{common.HexToHash("0x01"), {}, {}}},
		},
		{
			name: "too few topics",
			log:  types.Log{Topics: []common.Hash{f.LockedTopic()}},
		},
		{
			name: "truncated data",
			log: types.Log{
				Topics: []common.Hash{f.LockedTopic(), common.BytesToHash(testUser.Bytes()), testSwapID},
				Data:   []byte{0x01, 0x02},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParseLocked(tt.log)
			assert.Error(t, err)
		})
	}
}

func TestLockedTopicMatchesSignature(t *testing.T) {
	f, err := NewLockFilterer(testLockAddress)
	require.NoError(t, err)

	expected := crypto.Keccak256Hash([]byte("Locked(address,uint256,bytes32,string)"))
	assert.Equal(t, expected, f.LockedTopic())
	assert.Equal(t, testLockAddress, f.Address())
}
