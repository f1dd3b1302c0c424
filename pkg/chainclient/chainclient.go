package chainclient

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/xythum/darkpool-relayer/pkg/contracts"
	"github.com/xythum/darkpool-relayer/pkg/logger"
)

// DefaultReceiptPollInterval is how often a pending transaction receipt is queried
const DefaultReceiptPollInterval = 2 * time.Second

// ErrTransactionReverted is returned when a mined transaction has a failed status
var ErrTransactionReverted = errors.New("transaction reverted")

// Client contains the EVM connection, the relayer key and the contracts it works with
type Client struct {
	Ctx          context.Context
	ChainID      *big.Int
	RPCURL       string
	Client       *ethclient.Client
	Token        *contracts.ERC20
	TokenAddress common.Address
	Lock         *contracts.LockFilterer

	privateKey          *ecdsa.PrivateKey
	from                common.Address
	receiptPollInterval time.Duration
	logger              logger.Logger
}

// New dials the websocket RPC endpoint and binds the token and lock contracts
func New(ctx context.Context, rpcURL, privateKeyHex string, tokenAddress, lockAddress common.Address, log logger.Logger) (*Client, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	client := &Client{
		Ctx:                 ctx,
		RPCURL:              rpcURL,
		TokenAddress:        tokenAddress,
		privateKey:          privateKey,
		from:                crypto.PubkeyToAddress(privateKey.PublicKey),
		receiptPollInterval: DefaultReceiptPollInterval,
		logger:              log,
	}
	if err := client.connect(ctx, lockAddress); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", rpcURL, err)
	}

	return client, nil
}

func (c *Client) connect(ctx context.Context, lockAddress common.Address) error {
	rpc, err := ethclient.DialContext(ctx, c.RPCURL)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}
	c.Client = rpc

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain ID: %w", err)
	}
	c.ChainID = chainID

	token, err := contracts.NewERC20(c.TokenAddress, rpc)
	if err != nil {
		return fmt.Errorf("failed to bind token contract: %w", err)
	}
	c.Token = token

	lock, err := contracts.NewLockFilterer(lockAddress)
	if err != nil {
		return fmt.Errorf("failed to bind lock contract: %w", err)
	}
	c.Lock = lock

	return nil
}

// Address returns the relayer's EVM address
func (c *Client) Address() common.Address {
	return c.from
}

// SendToken submits a token transfer from the relayer account and returns the transaction hash
func (c *Client) SendToken(ctx context.Context, to common.Address, amount *big.Int) (common.Hash, error) {
	opts, err := c.transactOpts(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to prepare transaction: %w", err)
	}

	tx, err := c.Token.Transfer(opts, to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to submit token transfer: %w", err)
	}

	c.logger.DebugWithChain(logger.Avax, "Submitted token transfer %s: %s to %s (nonce %d)",
		tx.Hash().Hex(), amount.String(), to.Hex(), tx.Nonce())
	return tx.Hash(), nil
}

// transactOpts builds signer options with a fresh pending nonce and EIP-1559 fee caps
func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.privateKey, c.ChainID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transactor: %w", err)
	}
	auth.Context = ctx

	nonce, err := c.Client.PendingNonceAt(ctx, c.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending nonce: %w", err)
	}
	auth.Nonce = new(big.Int).SetUint64(nonce)

	gasTip, err := c.Client.SuggestGasTipCap(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas tip cap: %w", err)
	}
	gasPrice, err := c.Client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	auth.GasTipCap = gasTip
	auth.GasFeeCap = new(big.Int).Add(gasTip, gasPrice)

	return auth, nil
}

// WaitMined polls for the receipt of hash until it is mined or ctx ends, and returns the block number
func (c *Client) WaitMined(ctx context.Context, hash common.Hash) (uint64, error) {
	receipt, err := waitReceipt(ctx, c.Client, hash, c.receiptPollInterval, c.logger)
	if err != nil {
		return 0, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return 0, fmt.Errorf("%w: %s", ErrTransactionReverted, hash.Hex())
	}
	return receipt.BlockNumber.Uint64(), nil
}

type receiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

func waitReceipt(ctx context.Context, client receiptReader, hash common.Hash, interval time.Duration, log logger.Logger) (*types.Receipt, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			log.DebugWithChain(logger.Avax, "Receipt query for %s failed: %v", hash.Hex(), err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("stopped waiting for %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// TokenBalance returns the relayer's token balance
func (c *Client) TokenBalance(ctx context.Context) (*big.Int, error) {
	balance, err := c.Token.BalanceOf(&bind.CallOpts{Context: ctx}, c.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	return balance, nil
}

// GetLatestBlockNumber gets the latest block number from the chain
func (c *Client) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	if c.Client == nil {
		return 0, fmt.Errorf("client not connected")
	}
	return c.Client.BlockNumber(ctx)
}

// LockSource returns an event source reading Locked logs over this connection
func (c *Client) LockSource(backoff time.Duration) *LockSource {
	return NewLockSource(c.Client, c.Lock, backoff, c.logger)
}

// Close closes the RPC connection
func (c *Client) Close() {
	if c.Client != nil {
		c.Client.Close()
	}
}
