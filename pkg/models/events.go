package models

import (
	"math/big"
	"strconv"
)

// EventType tags a lifecycle event sent to observers
type EventType string

const (
	EventLockDetected     EventType = "LOCK_DETECTED"
	EventAsaSent          EventType = "ASA_SENT"
	EventAsaConfirmed     EventType = "ASA_CONFIRMED"
	EventAlgoAsaReceived  EventType = "ALGO_ASA_RECEIVED"
	EventAlgoTokenSent    EventType = "ALGO_TT_SENT"
	EventAlgoTokenConfirm EventType = "ALGO_TT_CONFIRMED"
	EventError            EventType = "ERROR"
)

const (
	DirectionForward = "AVAX_TO_ALGO"

	WhereForward    = "AVAX_TO_ALGO"
	WhereReverse    = "ALGO_TO_AVAX_TT"
	WhereExpect     = "EXPECT_ASA"
	WhereLockDecode = "LOCK_DECODE"
)

// Event is a lifecycle message published to every observer.
// Integer amounts are carried as decimal strings.
type Event struct {
	Type        EventType `json:"type"`
	Direction   string    `json:"direction,omitempty"`
	Where       string    `json:"where,omitempty"`
	SwapID      string    `json:"swapId,omitempty"`
	User        string    `json:"user,omitempty"`
	Amount      string    `json:"amount,omitempty"`
	AlgoAddress string    `json:"algoAddress,omitempty"`
	AsaTxID     string    `json:"asaTxId,omitempty"`
	AsaAmount   string    `json:"asaAmount,omitempty"`
	EvmTx       string    `json:"evmTx,omitempty"`
	TargetEvm   string    `json:"targetEvm,omitempty"`
	Message     string    `json:"message,omitempty"`
}

func NewLockDetected(intent LockIntent) Event {
	return Event{
		Type:        EventLockDetected,
		Direction:   DirectionForward,
		User:        intent.User.Hex(),
		Amount:      bigString(intent.Amount),
		SwapID:      intent.Key(),
		AlgoAddress: intent.Destination,
	}
}

func NewAsaSent(swapID, txID string, amount uint64) Event {
	return Event{
		Type:      EventAsaSent,
		Direction: DirectionForward,
		SwapID:    swapID,
		AsaTxID:   txID,
		Amount:    strconv.FormatUint(amount, 10),
	}
}

func NewAsaConfirmed(swapID, txID string) Event {
	return Event{
		Type:      EventAsaConfirmed,
		Direction: DirectionForward,
		SwapID:    swapID,
		AsaTxID:   txID,
	}
}

func NewAlgoAsaReceived(swapID string, amount uint64) Event {
	return Event{
		Type:      EventAlgoAsaReceived,
		SwapID:    swapID,
		AsaAmount: strconv.FormatUint(amount, 10),
	}
}

func NewAlgoTokenSent(swapID, txHash, target string) Event {
	return Event{
		Type:      EventAlgoTokenSent,
		SwapID:    swapID,
		EvmTx:     txHash,
		TargetEvm: target,
	}
}

func NewAlgoTokenConfirmed(swapID, txHash, target string) Event {
	return Event{
		Type:      EventAlgoTokenConfirm,
		SwapID:    swapID,
		EvmTx:     txHash,
		TargetEvm: target,
	}
}

// NewError builds an ERROR event; swapID may be empty when the failure precedes identification.
func NewError(where, swapID string, err error) Event {
	return Event{
		Type:    EventError,
		Where:   where,
		SwapID:  swapID,
		Message: err.Error(),
	}
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
