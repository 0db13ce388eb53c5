package configloader

import (
	"fmt"
	"os"

	"chainfund/internal/domain/entity"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds HTTP server configurations.
type ServerConfig struct {
	Port                string `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"readTimeoutSeconds"`
	WriteTimeoutSeconds int    `yaml:"writeTimeoutSeconds"`
	IdleTimeoutSeconds  int    `yaml:"idleTimeoutSeconds"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PriceFeedConfig holds reference price feed API configurations.
type PriceFeedConfig struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	CacheTTLMinutes      int    `yaml:"cacheTTLMinutes"`
	VsCurrency           string `yaml:"vsCurrency"`
}

// RoutingConfig holds bridge aggregator API configurations.
type RoutingConfig struct {
	BaseURL              string  `yaml:"baseURL"`
	RequestTimeoutMillis int64   `yaml:"requestTimeoutMillis"`
	RequestsPerSecond    float64 `yaml:"requestsPerSecond"`
	StatusPollMillis     int64   `yaml:"statusPollMillis"`
}

// PlannerConfig holds deposit planning parameters.
type PlannerConfig struct {
	DustThresholdUSD          float64 `yaml:"dustThresholdUsd"`
	EpsilonUSD                float64 `yaml:"epsilonUsd"`
	RouteLookupTimeoutSeconds int     `yaml:"routeLookupTimeoutSeconds"`
}

// PerformanceConfig holds performance-related configurations.
type PerformanceConfig struct {
	MaxConcurrentRoutines int `yaml:"max_concurrent_routines"`
	RPCCallTimeoutSeconds int `yaml:"rpc_call_timeout_seconds"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig               `yaml:"server"`
	Logging     LoggingConfig              `yaml:"logging"`
	PriceFeed   PriceFeedConfig            `yaml:"priceFeed"`
	Routing     RoutingConfig              `yaml:"routing"`
	Planner     PlannerConfig              `yaml:"planner"`
	Performance PerformanceConfig          `yaml:"performance"`
	Networks    []entity.NetworkDefinition `yaml:"networks"`
}

// Load reads the YAML configuration file from the given path, applies
// defaults and validates the network registry.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Server.ReadTimeoutSeconds <= 0 {
		cfg.Server.ReadTimeoutSeconds = 15
	}
	if cfg.Server.WriteTimeoutSeconds <= 0 {
		cfg.Server.WriteTimeoutSeconds = 30
	}
	if cfg.Server.IdleTimeoutSeconds <= 0 {
		cfg.Server.IdleTimeoutSeconds = 60
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.PriceFeed.BaseURL == "" {
		cfg.PriceFeed.BaseURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.PriceFeed.RequestTimeoutMillis <= 0 {
		cfg.PriceFeed.RequestTimeoutMillis = 10000
	}
	if cfg.PriceFeed.CacheTTLMinutes <= 0 {
		cfg.PriceFeed.CacheTTLMinutes = 5
	}
	if cfg.PriceFeed.VsCurrency == "" {
		cfg.PriceFeed.VsCurrency = "usd"
	}

	if cfg.Routing.RequestTimeoutMillis <= 0 {
		cfg.Routing.RequestTimeoutMillis = 20000
	}
	if cfg.Routing.RequestsPerSecond <= 0 {
		cfg.Routing.RequestsPerSecond = 2
	}
	if cfg.Routing.StatusPollMillis <= 0 {
		cfg.Routing.StatusPollMillis = 3000
	}

	if cfg.Planner.DustThresholdUSD <= 0 {
		cfg.Planner.DustThresholdUSD = 0.50
	}
	if cfg.Planner.EpsilonUSD <= 0 {
		cfg.Planner.EpsilonUSD = 0.01
	}
	if cfg.Planner.RouteLookupTimeoutSeconds <= 0 {
		cfg.Planner.RouteLookupTimeoutSeconds = 30
	}

	if cfg.Performance.MaxConcurrentRoutines <= 0 {
		cfg.Performance.MaxConcurrentRoutines = 10
	}
	if cfg.Performance.RPCCallTimeoutSeconds <= 0 {
		cfg.Performance.RPCCallTimeoutSeconds = 10
	}

	for i := range cfg.Networks {
		nd := &cfg.Networks[i]
		if nd.NativeDecimals == 0 {
			nd.NativeDecimals = 18
		}
		for j := range nd.Tokens {
			nd.Tokens[j].ChainID = nd.ChainID
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Routing.BaseURL == "" {
		return fmt.Errorf("routing.baseURL is required")
	}

	var settlement *entity.NetworkDefinition
	seen := make(map[uint64]struct{}, len(cfg.Networks))
	for i := range cfg.Networks {
		nd := &cfg.Networks[i]
		if nd.Name == "" || nd.Identifier == "" {
			return fmt.Errorf("network at index %d is missing a name or identifier", i)
		}
		if nd.PrimaryRPCURL == "" {
			return fmt.Errorf("network %s has no primary RPC URL", nd.Identifier)
		}
		if _, dup := seen[nd.ChainID]; dup {
			return fmt.Errorf("duplicate chain id %d in network registry", nd.ChainID)
		}
		seen[nd.ChainID] = struct{}{}

		if nd.Settlement {
			if settlement != nil {
				return fmt.Errorf("multiple settlement networks configured (%s and %s)", settlement.Identifier, nd.Identifier)
			}
			settlement = nd
		}
	}

	if settlement == nil {
		return entity.ErrNoSettlementNetwork
	}
	if _, ok := settlement.SettlementToken(); !ok {
		return entity.ErrNoSettlementToken
	}
	return nil
}
