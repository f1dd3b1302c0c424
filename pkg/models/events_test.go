package models

import (
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockDetectedCarriesAmountAsString(t *testing.T) {
	amount, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	intent := LockIntent{
		User:        common.HexToAddress("0x00000000000000000000000000000000000000aa"),
		Amount:      amount,
		SwapID:      common.HexToHash("0x01"),
		Destination: "ALGOADDR",
	}

	data, err := json.Marshal(NewLockDetected(intent))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "LOCK_DETECTED", decoded["type"])
	assert.Equal(t, "AVAX_TO_ALGO", decoded["direction"])
	assert.Equal(t, "123456789012345678901234567890", decoded["amount"])
	assert.Equal(t, intent.SwapID.Hex(), decoded["swapId"])
	assert.Equal(t, "ALGOADDR", decoded["algoAddress"])
	assert.NotContains(t, decoded, "message")
}

func TestErrorEventOmitsEmptySwapID(t *testing.T) {
	data, err := json.Marshal(NewError(WhereLockDecode, "", errors.New("bad log")))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "ERROR", decoded["type"])
	assert.Equal(t, "LOCK_DECODE", decoded["where"])
	assert.Equal(t, "bad log", decoded["message"])
	assert.NotContains(t, decoded, "swapId")
}

func TestExpectRequestAcceptsStringAndNumberAmounts(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"number", `{"type":"EXPECT_ASA","swapId":"s1","amount":10,"targetEvm":"0xabc"}`},
		{"string", `{"type":"EXPECT_ASA","swapId":"s1","amount":"10","targetEvm":"0xabc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req ExpectRequest
			require.NoError(t, json.Unmarshal([]byte(tt.frame), &req))
			assert.Equal(t, CommandExpectASA, req.Type)
			assert.Equal(t, "10", req.Amount.String())
		})
	}
}

func TestReverseIntentTarget(t *testing.T) {
	r := ReverseIntent{BaselineBalance: 100, ExpectedAmount: 10}
	assert.Equal(t, uint64(110), r.Target())
}
