package mocks

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xythum/darkpool-relayer/pkg/models"
)

// AssetTransfer is a recorded ASA transfer
type AssetTransfer struct {
	To     string
	Amount uint64
	TxID   string
}

// AssetChain is an in-memory Algorand side. Balances are served in order and the
// last one repeats once the script runs out.
type AssetChain struct {
	mu sync.Mutex

	Addr       string
	Balances   []uint64
	BalanceErr error
	SendErr    error
	ConfirmErr error

	balanceReads int
	transfers    []AssetTransfer
}

func NewAssetChain(addr string, balances ...uint64) *AssetChain {
	return &AssetChain{Addr: addr, Balances: balances}
}

func (c *AssetChain) Address() string {
	return c.Addr
}

func (c *AssetChain) SendAsset(_ context.Context, to string, amount uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return "", c.SendErr
	}
	txID := fmt.Sprintf("TX%d", len(c.transfers)+1)
	c.transfers = append(c.transfers, AssetTransfer{To: to, Amount: amount, TxID: txID})
	return txID, nil
}

func (c *AssetChain) WaitConfirmed(_ context.Context, _ string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ConfirmErr != nil {
		return 0, c.ConfirmErr
	}
	return 1000, nil
}

func (c *AssetChain) AssetBalance(_ context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.BalanceErr != nil {
		return 0, c.BalanceErr
	}
	if len(c.Balances) == 0 {
		return 0, nil
	}
	i := c.balanceReads
	if i >= len(c.Balances) {
		i = len(c.Balances) - 1
	}
	c.balanceReads++
	return c.Balances[i], nil
}

// SetBalanceErr swaps the balance read error
func (c *AssetChain) SetBalanceErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.BalanceErr = err
}

func (c *AssetChain) Transfers() []AssetTransfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]AssetTransfer(nil), c.transfers...)
}

// TokenTransfer is a recorded TT transfer
type TokenTransfer struct {
	To     common.Address
	Amount *big.Int
	Hash   common.Hash
}

// TokenChain is an in-memory EVM side. MinedErrs are returned by successive
// WaitMined calls before it starts succeeding.
type TokenChain struct {
	mu sync.Mutex

	Addr      common.Address
	Balance   *big.Int
	SendErr   error
	MinedErrs []error

	transfers  []TokenTransfer
	minedCalls []common.Hash
}

func NewTokenChain(addr common.Address) *TokenChain {
	return &TokenChain{Addr: addr, Balance: big.NewInt(0)}
}

func (c *TokenChain) Address() common.Address {
	return c.Addr
}

func (c *TokenChain) SendToken(_ context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.SendErr != nil {
		return common.Hash{}, c.SendErr
	}
	hash := crypto.Keccak256Hash([]byte(fmt.Sprintf("%s:%s:%d", to.Hex(), amount, len(c.transfers))))
	c.transfers = append(c.transfers, TokenTransfer{To: to, Amount: new(big.Int).Set(amount), Hash: hash})
	return hash, nil
}

func (c *TokenChain) WaitMined(_ context.Context, hash common.Hash) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minedCalls = append(c.minedCalls, hash)
	if len(c.MinedErrs) > 0 {
		err := c.MinedErrs[0]
		c.MinedErrs = c.MinedErrs[1:]
		if err != nil {
			return 0, err
		}
	}
	return 42, nil
}

func (c *TokenChain) TokenBalance(_ context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return new(big.Int).Set(c.Balance), nil
}

func (c *TokenChain) Transfers() []TokenTransfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]TokenTransfer(nil), c.transfers...)
}

// MinedCalls returns the hashes WaitMined was asked about, in order
func (c *TokenChain) MinedCalls() []common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]common.Hash(nil), c.minedCalls...)
}

// Publisher records every published event
type Publisher struct {
	mu     sync.Mutex
	events []models.Event
}

func (p *Publisher) Publish(event models.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *Publisher) Events() []models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.Event(nil), p.events...)
}

// Types returns the event types in publish order
func (p *Publisher) Types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

// Count returns how many events of type t were published
func (p *Publisher) Count(t models.EventType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == t {
			n++
		}
	}
	return n
}
