package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/bridge-listener/internal/core/domain"
)

// Load reads configuration from a YAML file and validates it.
// A validation failure here is fatal: the listener must not start on a
// broken chain set.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Channel.Buffer == 0 {
		cfg.Channel.Buffer = 64
	}
	if cfg.Oracle.Timeout == 0 {
		cfg.Oracle.Timeout = 5 * time.Second
	}
	if cfg.Oracle.CacheTTL == 0 {
		cfg.Oracle.CacheTTL = 30 * time.Second
	}
	if cfg.Quorum.Timeout == 0 {
		cfg.Quorum.Timeout = 10 * time.Second
	}
	if cfg.Monitoring.Timeout == 0 {
		cfg.Monitoring.Timeout = 5 * time.Second
	}

	for i := range cfg.Chains {
		if cfg.Chains[i].PollInterval == 0 {
			cfg.Chains[i].PollInterval = 5 * time.Second
		}
		if cfg.Chains[i].MaxBackoff == 0 {
			cfg.Chains[i].MaxBackoff = 60 * time.Second
		}
		if cfg.Chains[i].TokenDecimals == 0 {
			cfg.Chains[i].TokenDecimals = 6
		}
		if cfg.Chains[i].Type == "" {
			cfg.Chains[i].Type = "evm"
		}
	}
}

// Validate checks the chain set for configuration errors.
func (c *AppConfig) Validate() error {
	if len(c.Chains) == 0 {
		return fmt.Errorf("no chains configured")
	}

	seen := make(map[domain.ChainID]struct{}, len(c.Chains))
	for _, chain := range c.Chains {
		if chain.ChainID == 0 {
			return fmt.Errorf("chain id must be a positive integer")
		}
		if _, dup := seen[chain.ChainID]; dup {
			return fmt.Errorf("duplicate chain id: %s", chain.ChainID)
		}
		seen[chain.ChainID] = struct{}{}

		switch chain.Type {
		case "evm":
			if len(chain.Providers) == 0 {
				return fmt.Errorf("chain %s: evm chains need at least one provider", chain.ChainID)
			}
			if chain.BridgeContract == "" {
				return fmt.Errorf("chain %s: evm chains need a bridge contract address", chain.ChainID)
			}
		case "simulated":
			// Simulated sources stamp every event with the configured
			// destination; without one they would emit only invalid events.
			if chain.DestinationChainID == 0 {
				return fmt.Errorf("chain %s: simulated chains need a destination chain id", chain.ChainID)
			}
		default:
			return fmt.Errorf("chain %s: unknown type %q", chain.ChainID, chain.Type)
		}

		if chain.DestinationChainID != 0 && chain.DestinationChainID == chain.ChainID {
			return fmt.Errorf("chain %s: destination must differ from source", chain.ChainID)
		}
	}

	return nil
}
