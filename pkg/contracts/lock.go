package contracts

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// LockABI is the event surface of the deployed lock contract.
// Solidity: event Locked(address indexed user, uint256 amount, bytes32 indexed swapId, string targetAlgorandAddr)
const LockABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "user", "type": "address"},
			{"indexed": false, "internalType": "uint256", "name": "amount", "type": "uint256"},
			{"indexed": true, "internalType": "bytes32", "name": "swapId", "type": "bytes32"},
			{"indexed": false, "internalType": "string", "name": "targetAlgorandAddr", "type": "string"}
		],
		"name": "Locked",
		"type": "event"
	}
]`

// LockIndexedAmountABI describes the variant of the lock contract that also indexes amount.
// The event signature, and so topic0, is identical to LockABI.
const LockIndexedAmountABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "address", "name": "user", "type": "address"},
			{"indexed": true, "internalType": "uint256", "name": "amount", "type": "uint256"},
			{"indexed": true, "internalType": "bytes32", "name": "swapId", "type": "bytes32"},
			{"indexed": false, "internalType": "string", "name": "targetAlgorandAddr", "type": "string"}
		],
		"name": "Locked",
		"type": "event"
	}
]`

const lockedEventName = "Locked"

var ErrUnexpectedTopics = errors.New("unexpected topic count for Locked event")

// LockLocked represents a Locked event raised by the lock contract.
type LockLocked struct {
	User               common.Address
	Amount             *big.Int
	SwapId             [32]byte
	TargetAlgorandAddr string
	Raw                types.Log
}

// LockFilterer decodes Locked logs of either contract layout.
type LockFilterer struct {
	address common.Address
	plain   *bind.BoundContract
	indexed *bind.BoundContract
	eventID common.Hash
}

// NewLockFilterer creates a decoder bound to the lock contract address.
func NewLockFilterer(address common.Address) (*LockFilterer, error) {
	plain, err := abi.JSON(strings.NewReader(LockABI))
	if err != nil {
		return nil, err
	}
	indexed, err := abi.JSON(strings.NewReader(LockIndexedAmountABI))
	if err != nil {
		return nil, err
	}
	return &LockFilterer{
		address: address,
		plain:   bind.NewBoundContract(address, plain, nil, nil, nil),
		indexed: bind.NewBoundContract(address, indexed, nil, nil, nil),
		eventID: plain.Events[lockedEventName].ID,
	}, nil
}

// Address returns the lock contract address.
func (f *LockFilterer) Address() common.Address {
	return f.address
}

// LockedTopic returns topic0 of the Locked event.
func (f *LockFilterer) LockedTopic() common.Hash {
	return f.eventID
}

// ParseLocked decodes a Locked log. Three topics means amount lives in the data section,
// four topics means amount is indexed.
func (f *LockFilterer) ParseLocked(log types.Log) (*LockLocked, error) {
	if len(log.Topics) == 0 || log.Topics[0] != f.eventID {
		return nil, fmt.Errorf("log is not a Locked event")
	}

	event := new(LockLocked)
	var err error
	switch len(log.Topics) {
	case 3:
		err = f.plain.UnpackLog(event, lockedEventName, log)
	case 4:
		err = f.indexed.UnpackLog(event, lockedEventName, log)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedTopics, len(log.Topics))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unpack Locked log: %w", err)
	}
	if event.Amount == nil {
		return nil, errors.New("locked log carries no amount")
	}

	event.Raw = log
	return event, nil
}
