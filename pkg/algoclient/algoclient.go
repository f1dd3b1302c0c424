package algoclient

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/algorand/go-algorand-sdk/v2/client/v2/algod"
	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/algorand/go-algorand-sdk/v2/mnemonic"
	"github.com/algorand/go-algorand-sdk/v2/transaction"
	"github.com/algorand/go-algorand-sdk/v2/types"

	"github.com/xythum/darkpool-relayer/pkg/logger"
)

// DefaultConfirmationRounds is how many rounds a transfer may stay pending before it counts as failed
const DefaultConfirmationRounds = 4

var (
	ErrInvalidAddress = errors.New("invalid Algorand address")

	addressPattern = regexp.MustCompile(`^[A-Z2-7]{58}$`)
)

// ValidateAddress checks the base32 shape and the checksum of an Algorand address
func ValidateAddress(addr string) error {
	if !addressPattern.MatchString(addr) {
		return fmt.Errorf("%w: %q does not match the address format", ErrInvalidAddress, addr)
	}
	if _, err := types.DecodeAddress(addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}

// Client holds the algod connection and the relayer account that sends the ASA
type Client struct {
	algod              *algod.Client
	account            crypto.Account
	assetID            uint64
	confirmationRounds uint64
	logger             logger.Logger
}

// New connects to algod and derives the relayer account from its mnemonic
func New(server, port, token, relayerMnemonic string, assetID, confirmationRounds uint64, log logger.Logger) (*Client, error) {
	address := server
	if port != "" {
		address = strings.TrimSuffix(server, "/") + ":" + port
	}

	ac, err := algod.MakeClient(address, token)
	if err != nil {
		return nil, fmt.Errorf("failed to create algod client: %w", err)
	}

	sk, err := mnemonic.ToPrivateKey(strings.TrimSpace(relayerMnemonic))
	if err != nil {
		return nil, fmt.Errorf("failed to derive relayer key from mnemonic: %w", err)
	}

	account, err := accountFromKey(sk)
	if err != nil {
		return nil, err
	}

	if confirmationRounds == 0 {
		confirmationRounds = DefaultConfirmationRounds
	}

	return &Client{
		algod:              ac,
		account:            account,
		assetID:            assetID,
		confirmationRounds: confirmationRounds,
		logger:             log,
	}, nil
}

func accountFromKey(sk ed25519.PrivateKey) (crypto.Account, error) {
	account, err := crypto.AccountFromPrivateKey(sk)
	if err != nil {
		return crypto.Account{}, fmt.Errorf("failed to load relayer account: %w", err)
	}
	if err := ValidateAddress(account.Address.String()); err != nil {
		return crypto.Account{}, fmt.Errorf("relayer account: %w", err)
	}
	return account, nil
}

// Address returns the relayer's Algorand address
func (c *Client) Address() string {
	return c.account.Address.String()
}

// AssetID returns the ASA the relayer moves
func (c *Client) AssetID() uint64 {
	return c.assetID
}

// SendAsset submits an ASA transfer from the relayer account and returns the transaction id
func (c *Client) SendAsset(ctx context.Context, to string, amount uint64) (string, error) {
	params, err := c.algod.SuggestedParams().Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get suggested params: %w", err)
	}

	txn, err := transaction.MakeAssetTransferTxn(c.Address(), to, amount, nil, params, "", c.assetID)
	if err != nil {
		return "", fmt.Errorf("failed to build asset transfer: %w", err)
	}

	txID, signed, err := crypto.SignTransaction(c.account.PrivateKey, txn)
	if err != nil {
		return "", fmt.Errorf("failed to sign asset transfer: %w", err)
	}

	if _, err := c.algod.SendRawTransaction(signed).Do(ctx); err != nil {
		return "", fmt.Errorf("failed to submit asset transfer: %w", err)
	}

	c.logger.DebugWithChain(logger.Algo, "Submitted ASA transfer %s: %d units of %d to %s", txID, amount, c.assetID, to)
	return txID, nil
}

// WaitConfirmed blocks until txID is confirmed and returns the confirmed round
func (c *Client) WaitConfirmed(ctx context.Context, txID string) (uint64, error) {
	info, err := transaction.WaitForConfirmation(c.algod, txID, c.confirmationRounds, ctx)
	if err != nil {
		return 0, fmt.Errorf("transaction %s not confirmed: %w", txID, err)
	}
	return info.ConfirmedRound, nil
}

// AssetBalance reads the relayer's holding of the configured ASA
func (c *Client) AssetBalance(ctx context.Context) (uint64, error) {
	info, err := c.algod.AccountAssetInformation(c.Address(), c.assetID).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read asset %d holding: %w", c.assetID, err)
	}
	return info.AssetHolding.Amount, nil
}

// LastRound returns the latest round seen by the node
func (c *Client) LastRound(ctx context.Context) (uint64, error) {
	status, err := c.algod.Status().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get node status: %w", err)
	}
	return status.LastRound, nil
}
