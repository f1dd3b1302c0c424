package models

import (
	"encoding/json"
	"math"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LockIntent is a decoded Locked event from the lock contract on the EVM chain
type LockIntent struct {
	User        common.Address
	Amount      *big.Int
	SwapID      common.Hash
	Destination string

	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint
}

// Key returns the registry key for the swap
func (i LockIntent) Key() string {
	return SwapKey(i.SwapID)
}

// SwapKey renders a swap id as 0x-prefixed lowercase hex
func SwapKey(id common.Hash) string {
	return id.Hex()
}

// ReverseIntent is an announced inbound ASA transfer the relayer settles with TT on the EVM chain
type ReverseIntent struct {
	SwapID          string         `json:"swapId"`
	ExpectedAmount  uint64         `json:"expectedAmount"`
	BaselineBalance uint64         `json:"baselineBalance"`
	Destination     common.Address `json:"targetEvm"`
	RegisteredAt    time.Time      `json:"registeredAt"`
}

// Target is the relayer ASA balance at which the inbound transfer counts as received.
// It saturates at math.MaxUint64.
func (r ReverseIntent) Target() uint64 {
	if r.ExpectedAmount > math.MaxUint64-r.BaselineBalance {
		return math.MaxUint64
	}
	return r.BaselineBalance + r.ExpectedAmount
}

// Arrived reports whether current holds the expected amount on top of the baseline
func (r ReverseIntent) Arrived(current uint64) bool {
	return current >= r.BaselineBalance && current-r.BaselineBalance >= r.ExpectedAmount
}

// CommandExpectASA is the observer command announcing a reverse swap
const CommandExpectASA = "EXPECT_ASA"

// ExpectRequest is the inbound observer frame for an EXPECT_ASA command.
// Amount accepts both a JSON number and a numeric string.
type ExpectRequest struct {
	Type      string      `json:"type"`
	SwapID    string      `json:"swapId"`
	Amount    json.Number `json:"amount"`
	TargetEvm string      `json:"targetEvm"`
}
