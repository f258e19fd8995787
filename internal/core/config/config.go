package config

import (
	"time"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig  `yaml:"server"`
	Chains     []ChainConfig `yaml:"chains"`
	Channel    ChannelConfig `yaml:"channel"`
	Oracle     OracleConfig  `yaml:"oracle"`
	Quorum     QuorumConfig  `yaml:"quorum"`
	Monitoring MonitorConfig `yaml:"monitoring"`
	Redis      RedisConfig   `yaml:"redis"`
	Logging    LoggingConfig `yaml:"logging"`
}

// ServerConfig holds HTTP health server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ChannelConfig sizes the shared inbound event channel. A full channel
// blocks watchers; nothing is dropped.
type ChannelConfig struct {
	Buffer int `yaml:"buffer"`
}

// ChainConfig holds settings for one monitored chain.
type ChainConfig struct {
	ChainID            domain.ChainID   `yaml:"id"`
	Name               string           `yaml:"name"`
	Type               string           `yaml:"type"` // "evm" or "simulated"
	PollInterval       time.Duration    `yaml:"poll_interval"`
	MaxBackoff         time.Duration    `yaml:"max_backoff"`
	BridgeContract     string           `yaml:"bridge_contract"`
	DestinationChainID domain.ChainID   `yaml:"destination_chain_id"`
	TokenDecimals      int              `yaml:"token_decimals"`
	Providers          []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an RPC provider endpoint.
type ProviderConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// OracleConfig configures the price lookup service.
type OracleConfig struct {
	URL      string            `yaml:"url"`
	Timeout  time.Duration     `yaml:"timeout"`
	CacheTTL time.Duration     `yaml:"cache_ttl"`
	AssetIDs map[string]string `yaml:"asset_ids"` // token address -> oracle asset id
}

// QuorumConfig configures the validator coordinator endpoint.
type QuorumConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// MonitorConfig configures the monitoring/reporting sink.
type MonitorConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig holds Redis connection configuration for the price cache.
type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
}
