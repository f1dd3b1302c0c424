package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/xythum/darkpool-relayer/pkg/logger"
)

// Config holds the configuration for the relayer service
type Config struct {
	Network        string
	EVM            EVMConfig
	Algorand       AlgorandConfig
	TokenDecimals  uint
	PollInterval   time.Duration
	HTTPPort       string
	WSPort         string
	EventQueueSize int
	MetricsAPIKey  string
	CircuitBreaker CircuitBreakerConfig
	LoggerConfig   LoggerConfig
}

// EVMConfig holds the chain A connection and contract settings
type EVMConfig struct {
	WSURL        string
	PrivateKey   string
	LockAddress  common.Address
	TokenAddress common.Address
}

// AlgorandConfig holds the chain B connection and asset settings
type AlgorandConfig struct {
	Server             string
	Port               string
	Token              string
	Mnemonic           string
	AssetID            uint64
	ConfirmationRounds uint64
}

// CircuitBreakerConfig holds circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled        bool
	Threshold      int
	WindowDuration time.Duration
	ResetTimeout   time.Duration
}

// LoggerConfig holds the configuration for logging
type LoggerConfig struct {
	Level    logger.Level
	Coloring bool
	Format   string
}

// LoadConfig loads the configuration from the env file and environment variables,
// then applies overridePath when it is set
func LoadConfig(envFile, overridePath string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Printf("Warning: %s not found, using environment variables", envFile)
	}

	cfg, err := loadFromEnv()
	if err != nil {
		return nil, err
	}

	if overridePath != "" {
		if err := applyFile(cfg, overridePath); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFromEnv() (*Config, error) {
	network, err := GetEnvNetwork()
	if err != nil {
		return nil, err
	}

	wsURL, err := GetEnvAvaxWSURL()
	if err != nil {
		return nil, err
	}

	lockAddress, err := GetEnvAddress("LOCK_ADDRESS")
	if err != nil {
		return nil, err
	}

	tokenAddress, err := GetEnvAddress("TOKEN_ADDRESS")
	if err != nil {
		return nil, err
	}

	assetID, err := GetEnvAssetID()
	if err != nil {
		return nil, err
	}

	decimals, err := GetEnvTokenDecimals()
	if err != nil {
		return nil, err
	}

	pollInterval, err := GetEnvPollInterval()
	if err != nil {
		return nil, err
	}

	rounds, err := GetEnvConfirmationRounds()
	if err != nil {
		return nil, err
	}

	httpPort, err := GetEnvPort("HTTP_PORT", DefaultHTTPPort)
	if err != nil {
		return nil, err
	}

	wsPort, err := GetEnvPort("WS_PORT", DefaultWSPort)
	if err != nil {
		return nil, err
	}

	queueSize, err := GetEnvEventQueueSize()
	if err != nil {
		return nil, err
	}

	cbEnabled, err := GetEnvCircuitBreakerEnabled()
	if err != nil {
		return nil, err
	}

	cbThreshold, err := GetEnvCircuitBreakerThreshold()
	if err != nil {
		return nil, err
	}

	cbWindow, err := GetEnvCircuitBreakerWindow()
	if err != nil {
		return nil, err
	}

	cbReset, err := GetEnvCircuitBreakerReset()
	if err != nil {
		return nil, err
	}

	logLevel, err := GetEnvLogLevel()
	if err != nil {
		return nil, err
	}

	logColoring, err := GetEnvLogColoring()
	if err != nil {
		return nil, err
	}

	logFormat, err := GetEnvLogFormat()
	if err != nil {
		return nil, err
	}

	return &Config{
		Network: network,
		EVM: EVMConfig{
			WSURL:        wsURL,
			PrivateKey:   strings.TrimSpace(os.Getenv("PRIVATE_KEY")),
			LockAddress:  lockAddress,
			TokenAddress: tokenAddress,
		},
		Algorand: AlgorandConfig{
			Server:             os.Getenv("ALGOD_SERVER"),
			Port:               os.Getenv("ALGOD_PORT"),
			Token:              os.Getenv("ALGOD_TOKEN"),
			Mnemonic:           strings.TrimSpace(os.Getenv("ALGO_RELAYER_MNEMONIC")),
			AssetID:            assetID,
			ConfirmationRounds: rounds,
		},
		TokenDecimals:  decimals,
		PollInterval:   pollInterval,
		HTTPPort:       httpPort,
		WSPort:         wsPort,
		EventQueueSize: queueSize,
		MetricsAPIKey:  os.Getenv("METRICS_API_KEY"),
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:        cbEnabled,
			Threshold:      cbThreshold,
			WindowDuration: cbWindow,
			ResetTimeout:   cbReset,
		},
		LoggerConfig: LoggerConfig{
			Level:    logLevel,
			Coloring: logColoring,
			Format:   logFormat,
		},
	}, nil
}

// fileConfig is the optional YAML override; only non-empty fields replace env values.
// Keys are never read from the file.
type fileConfig struct {
	Network        string `yaml:"network"`
	AvaxWSURL      string `yaml:"avax_ws_url"`
	LockAddress    string `yaml:"lock_address"`
	TokenAddress   string `yaml:"token_address"`
	AlgodServer    string `yaml:"algod_server"`
	AlgodPort      string `yaml:"algod_port"`
	AsaID          string `yaml:"asa_id"`
	TokenDecimals  *uint  `yaml:"tt_decimals"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
	HTTPPort       string `yaml:"http_port"`
	WSPort         string `yaml:"ws_port"`
	EventQueueSize int    `yaml:"event_queue_size"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
}

func applyFile(cfg *Config, path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file at '%s': %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(buf, &fc); err != nil {
		return fmt.Errorf("failed to unmarshal config file at '%s': %w", path, err)
	}

	if fc.Network != "" {
		cfg.Network = fc.Network
	}
	if fc.AvaxWSURL != "" {
		cfg.EVM.WSURL = fc.AvaxWSURL
	}
	if fc.LockAddress != "" {
		if !common.IsHexAddress(fc.LockAddress) {
			return fmt.Errorf("invalid lock_address in '%s': %s", path, fc.LockAddress)
		}
		cfg.EVM.LockAddress = common.HexToAddress(fc.LockAddress)
	}
	if fc.TokenAddress != "" {
		if !common.IsHexAddress(fc.TokenAddress) {
			return fmt.Errorf("invalid token_address in '%s': %s", path, fc.TokenAddress)
		}
		cfg.EVM.TokenAddress = common.HexToAddress(fc.TokenAddress)
	}
	if fc.AlgodServer != "" {
		cfg.Algorand.Server = fc.AlgodServer
	}
	if fc.AlgodPort != "" {
		cfg.Algorand.Port = fc.AlgodPort
	}
	if fc.AsaID != "" {
		id, err := parseAssetID(fc.AsaID)
		if err != nil {
			return err
		}
		cfg.Algorand.AssetID = id
	}
	if fc.TokenDecimals != nil {
		cfg.TokenDecimals = *fc.TokenDecimals
	}
	if fc.PollIntervalMS > 0 {
		cfg.PollInterval = time.Duration(fc.PollIntervalMS) * time.Millisecond
	}
	if fc.HTTPPort != "" {
		cfg.HTTPPort = fc.HTTPPort
	}
	if fc.WSPort != "" {
		cfg.WSPort = fc.WSPort
	}
	if fc.EventQueueSize > 0 {
		cfg.EventQueueSize = fc.EventQueueSize
	}
	if fc.LogLevel != "" {
		level, err := logger.ParseLevel(fc.LogLevel)
		if err != nil {
			return err
		}
		cfg.LoggerConfig.Level = level
	}
	if fc.LogFormat != "" {
		cfg.LoggerConfig.Format = strings.ToLower(fc.LogFormat)
	}
	return nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.EVM.PrivateKey == "" {
		return fmt.Errorf("PRIVATE_KEY environment variable is required")
	}
	if cfg.Algorand.Mnemonic == "" {
		return fmt.Errorf("ALGO_RELAYER_MNEMONIC environment variable is required")
	}
	if cfg.Algorand.Server == "" {
		return fmt.Errorf("ALGOD_SERVER environment variable is required")
	}
	if cfg.Network != mainnet && cfg.Network != testnet {
		return fmt.Errorf("invalid network: %s", cfg.Network)
	}
	if err := validateWSURL("AVAX_WS_URL", cfg.EVM.WSURL); err != nil {
		return err
	}
	if cfg.TokenDecimals > maxTokenDecimals {
		return fmt.Errorf("TT_DECIMALS must not exceed %d", maxTokenDecimals)
	}
	if cfg.LoggerConfig.Format != "text" && cfg.LoggerConfig.Format != "json" {
		return fmt.Errorf("invalid log format: %s", cfg.LoggerConfig.Format)
	}
	if cfg.HTTPPort == cfg.WSPort {
		return fmt.Errorf("HTTP_PORT and WS_PORT must differ")
	}
	return nil
}
