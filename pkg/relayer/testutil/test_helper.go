package testutil

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/algorand/go-algorand-sdk/v2/crypto"
	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

// Constants for testing
const (
	DefaultTestTimeout = 5 * time.Second
)

// GenerateAddress creates a random EVM address for testing
func GenerateAddress() common.Address {
	privateKey, _ := ethcrypto.GenerateKey()
	return ethcrypto.PubkeyToAddress(privateKey.PublicKey)
}

// GenerateAlgoAddress creates a random, checksummed Algorand address
func GenerateAlgoAddress() string {
	return crypto.GenerateAccount().Address.String()
}

// CreateBigInt parses a string into a big.Int
func CreateBigInt(value string) *big.Int {
	result := new(big.Int)
	result.SetString(value, 10)
	return result
}

// AssertBigIntEqual compares two big.Int values for equality in tests
func AssertBigIntEqual(t *testing.T, expected, actual *big.Int, msgAndArgs ...interface{}) {
	if expected == nil && actual == nil {
		return
	}

	if (expected == nil && actual != nil) || (expected != nil && actual == nil) {
		assert.Fail(t, "Values not equal", msgAndArgs...)
		return
	}

	assert.Equal(t, 0, expected.Cmp(actual), msgAndArgs...)
}

// SetupTestWithTimeout creates a context bounded by DefaultTestTimeout
func SetupTestWithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), DefaultTestTimeout)
}
