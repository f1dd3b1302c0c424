package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/xythum/darkpool-relayer/pkg/logger"
)

const (
	mainnet = "mainnet"
	testnet = "testnet"

	// DefaultNetwork is the network explorer links point at
	DefaultNetwork = testnet

	// DefaultAvaxWSURL is the Fuji C-Chain websocket endpoint
	DefaultAvaxWSURL = "wss://api.avax-test.network/ext/bc/C/ws"

	// DefaultTokenDecimals is the decimals delta between TT and the ASA
	DefaultTokenDecimals = 18

	// DefaultPollIntervalMS defines the reverse poller interval in milliseconds
	DefaultPollIntervalMS = 5000

	// DefaultConfirmationRounds is how long an ASA transfer may stay pending
	DefaultConfirmationRounds = 4

	// DefaultHTTPPort serves /ping, /status and /metrics
	DefaultHTTPPort = "5001"

	// DefaultWSPort serves the observer websocket
	DefaultWSPort = "5002"

	// DefaultEventQueueSize bounds the lock intents waiting for the forward pipeline
	DefaultEventQueueSize = 64

	// DefaultCircuitBreakerEnabled defines whether the circuit breaker is enabled
	DefaultCircuitBreakerEnabled = true

	// DefaultCircuitBreakerThreshold defines the number of failures before the circuit breaker trips
	DefaultCircuitBreakerThreshold = 5

	// DefaultCircuitBreakerWindow defines the time window for the circuit breaker
	DefaultCircuitBreakerWindow = 5

	// DefaultCircuitBreakerReset defines the reset timeout for the circuit breaker
	DefaultCircuitBreakerReset = 15

	// DefaultLogFormat selects the console logger
	DefaultLogFormat = "text"

	// maxTokenDecimals keeps 10^decimals inside uint256
	maxTokenDecimals = 77
)

// GetEnvNetwork returns the configured network from environment variables or defaults to testnet
func GetEnvNetwork() (string, error) {
	network := os.Getenv("NETWORK")
	if network == "" {
		network = DefaultNetwork
	}

	if network != mainnet && network != testnet {
		return "", fmt.Errorf("invalid NETWORK value: %s, must be 'mainnet' or 'testnet'", network)
	}

	return network, nil
}

// GetEnvAvaxWSURL returns the EVM websocket endpoint
func GetEnvAvaxWSURL() (string, error) {
	wsURL := os.Getenv("AVAX_WS_URL")
	if wsURL == "" {
		return DefaultAvaxWSURL, nil
	}
	return wsURL, validateWSURL("AVAX_WS_URL", wsURL)
}

func validateWSURL(name, value string) error {
	parsed, err := url.Parse(value)
	if err != nil || (parsed.Scheme != "ws" && parsed.Scheme != "wss") || parsed.Host == "" {
		return fmt.Errorf("invalid %s value: %s, must be a ws:// or wss:// URL", name, value)
	}
	return nil
}

// GetEnvAddress reads a required EVM contract address
func GetEnvAddress(name string) (common.Address, error) {
	value := os.Getenv(name)
	if value == "" {
		return common.Address{}, fmt.Errorf("%s environment variable is required", name)
	}
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s value: %s, must be a valid EVM address", name, value)
	}
	return common.HexToAddress(value), nil
}

// GetEnvAssetID returns the ASA id
func GetEnvAssetID() (uint64, error) {
	value := os.Getenv("ASA_ID")
	if value == "" {
		return 0, fmt.Errorf("ASA_ID environment variable is required")
	}
	return parseAssetID(value)
}

func parseAssetID(value string) (uint64, error) {
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid ASA_ID value: %s, must be a positive integer", value)
	}
	return id, nil
}

// GetEnvTokenDecimals returns the decimals delta between TT and the ASA
func GetEnvTokenDecimals() (uint, error) {
	value := os.Getenv("TT_DECIMALS")
	if value == "" {
		return DefaultTokenDecimals, nil
	}
	return parseTokenDecimals(value)
}

func parseTokenDecimals(value string) (uint, error) {
	decimals, err := strconv.ParseUint(value, 10, 8)
	if err != nil || decimals > maxTokenDecimals {
		return 0, fmt.Errorf("invalid TT_DECIMALS value: %s, must be an integer between 0 and %d", value, maxTokenDecimals)
	}
	return uint(decimals), nil
}

// GetEnvPollInterval returns the reverse poller interval
func GetEnvPollInterval() (time.Duration, error) {
	value := os.Getenv("POLL_INTERVAL_MS")
	if value == "" {
		return DefaultPollIntervalMS * time.Millisecond, nil
	}

	interval, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid POLL_INTERVAL_MS value: %s, must be an integer", value)
	}
	if interval <= 0 {
		return 0, fmt.Errorf("POLL_INTERVAL_MS must be greater than 0")
	}
	return time.Duration(interval) * time.Millisecond, nil
}

// GetEnvConfirmationRounds returns how many rounds an ASA transfer may stay pending
func GetEnvConfirmationRounds() (uint64, error) {
	value := os.Getenv("ALGOD_CONFIRMATION_ROUNDS")
	if value == "" {
		return DefaultConfirmationRounds, nil
	}

	rounds, err := strconv.ParseUint(value, 10, 64)
	if err != nil || rounds == 0 {
		return 0, fmt.Errorf("invalid ALGOD_CONFIRMATION_ROUNDS value: %s, must be a positive integer", value)
	}
	return rounds, nil
}

// GetEnvPort reads a port number with a default
func GetEnvPort(name, fallback string) (string, error) {
	port := os.Getenv(name)
	if port == "" {
		return fallback, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid %s value: %s, must be a valid integer", name, port)
	}
	return port, nil
}

// GetEnvEventQueueSize returns the capacity of the lock intent queue
func GetEnvEventQueueSize() (int, error) {
	value := os.Getenv("EVENT_QUEUE_SIZE")
	if value == "" {
		return DefaultEventQueueSize, nil
	}

	size, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid EVENT_QUEUE_SIZE value: %s, must be an integer", value)
	}
	if size <= 0 {
		return 0, fmt.Errorf("EVENT_QUEUE_SIZE must be greater than 0")
	}
	return size, nil
}

// GetEnvCircuitBreakerEnabled returns whether the circuit breaker is enabled from environment variables
func GetEnvCircuitBreakerEnabled() (bool, error) {
	enabled := os.Getenv("CIRCUIT_BREAKER_ENABLED")
	if enabled == "" {
		return DefaultCircuitBreakerEnabled, nil
	}

	if enabled == "true" {
		return true, nil
	} else if enabled == "false" {
		return false, nil
	}

	return false, fmt.Errorf("invalid CIRCUIT_BREAKER_ENABLED value: %s, must be 'true' or 'false'", enabled)
}

// GetEnvCircuitBreakerThreshold returns the circuit breaker threshold from environment variables
func GetEnvCircuitBreakerThreshold() (int, error) {
	threshold := os.Getenv("CIRCUIT_BREAKER_THRESHOLD")
	if threshold == "" {
		return DefaultCircuitBreakerThreshold, nil
	}

	thresholdInt, err := strconv.Atoi(threshold)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_THRESHOLD value: %s, must be an integer", threshold)
	}
	if thresholdInt <= 0 {
		return 0, fmt.Errorf("CIRCUIT_BREAKER_THRESHOLD must be greater than 0")
	}
	return thresholdInt, nil
}

// GetEnvCircuitBreakerWindow returns the circuit breaker window duration from environment variables
func GetEnvCircuitBreakerWindow() (time.Duration, error) {
	window := os.Getenv("CIRCUIT_BREAKER_WINDOW")
	if window == "" {
		return DefaultCircuitBreakerWindow * time.Second, nil
	}

	parsed, err := time.ParseDuration(window)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_WINDOW value: %s, must be a valid duration string", window)
	}
	return parsed, nil
}

// GetEnvCircuitBreakerReset returns the circuit breaker reset timeout from environment variables
func GetEnvCircuitBreakerReset() (time.Duration, error) {
	reset := os.Getenv("CIRCUIT_BREAKER_RESET")
	if reset == "" {
		return DefaultCircuitBreakerReset * time.Second, nil
	}

	parsed, err := time.ParseDuration(reset)
	if err != nil {
		return 0, fmt.Errorf("invalid CIRCUIT_BREAKER_RESET value: %s, must be a valid duration string", reset)
	}
	return parsed, nil
}

// GetEnvLogLevel returns the minimum log level
func GetEnvLogLevel() (logger.Level, error) {
	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return logger.InfoLevel, fmt.Errorf("invalid LOG_LEVEL value: %w", err)
	}
	return level, nil
}

// GetEnvLogColoring returns whether console output is colored
func GetEnvLogColoring() (bool, error) {
	value := os.Getenv("LOG_COLORING")
	if value == "" {
		return true, nil
	}
	coloring, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid LOG_COLORING value: %s, must be a boolean", value)
	}
	return coloring, nil
}

// GetEnvLogFormat returns text or json
func GetEnvLogFormat() (string, error) {
	format := strings.ToLower(os.Getenv("LOG_FORMAT"))
	if format == "" {
		return DefaultLogFormat, nil
	}
	if format != "text" && format != "json" {
		return "", fmt.Errorf("invalid LOG_FORMAT value: %s, must be 'text' or 'json'", format)
	}
	return format, nil
}
