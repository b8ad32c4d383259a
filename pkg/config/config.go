// Package config loads a node's on-disk configuration: the persistent
// config.toml described in the protocol's configuration knobs, merged with
// environment overrides and a .env file if one is present in the data
// directory.
//
// Version: v0.1.0
package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nodalync/engine/internal/health"
	"github.com/nodalync/engine/internal/ops"
	"github.com/nodalync/engine/internal/p2p"
	"github.com/nodalync/engine/internal/primitives"
	"github.com/nodalync/engine/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// NetworkConfig controls the libp2p host (§6: "network.enabled, listen
// addresses, bootstrap multiaddresses, gossipsub propagation wait").
type NetworkConfig struct {
	Enabled                  bool     `mapstructure:"enabled"`
	ListenAddr               string   `mapstructure:"listen_addr"`
	BootstrapPeers           []string `mapstructure:"bootstrap_peers"`
	DiscoveryTag             string   `mapstructure:"discovery_tag"`
	GossipPropagationWaitMs  uint64   `mapstructure:"gossip_propagation_wait_ms"`
}

// ChannelConfig controls payment-channel opening behavior (§6: "channel
// auto_deposit on/off; max accept deposit").
type ChannelConfig struct {
	MinDeposit       uint64 `mapstructure:"min_deposit"`
	AutoOpenChannel  bool   `mapstructure:"auto_deposit"`
	MaxAcceptDeposit uint64 `mapstructure:"max_accept_deposit"`
	DisputeWindowMs  uint64 `mapstructure:"dispute_window_ms"`
}

// EconomicsConfig controls pricing and, informationally, the settlement
// threshold. AutoSettleThreshold is a recognized knob (§6) but is not wired
// to override econ.SettlementBatchThreshold: that constant and its paired
// interval are protocol invariants (§8 boundary behaviors) rather than an
// operator tunable, so a node reports this value back to callers without
// letting it change trigger behavior.
type EconomicsConfig struct {
	DefaultPrice        uint64 `mapstructure:"default_price"`
	AutoSettleThreshold uint64 `mapstructure:"auto_settle_threshold"`
}

// StorageConfig controls where a node's persistent layout lives on disk
// (§6: "storage paths; cache max size MB (default 1000)").
type StorageConfig struct {
	DataDir        string `mapstructure:"data_dir"`
	CacheMaxSizeMB uint64 `mapstructure:"cache_max_size_mb"`
}

// SettlementConfig names the external settlement contract a node submits
// batches and channel lifecycle transactions to (§6: "settlement: target
// network tag, account id, key path, contract id, auto-deposit enablement
// and bounds").
type SettlementConfig struct {
	NetworkTag        string `mapstructure:"network_tag"`
	AccountID         string `mapstructure:"account_id"`
	KeyPath           string `mapstructure:"key_path"`
	ContractID        string `mapstructure:"contract_id"`
	AutoDeposit       bool   `mapstructure:"auto_deposit"`
	MinContractBalance uint64 `mapstructure:"min_contract_balance"`
	AutoDepositAmount uint64 `mapstructure:"auto_deposit_amount"`
}

// LoggingConfig mirrors the teacher's Logging section.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// HealthConfig overrides the background health monitor's cadence; zero
// values fall back to health.DefaultCheckInterval/DefaultPeerSaveInterval.
type HealthConfig struct {
	CheckIntervalMs    uint64 `mapstructure:"check_interval_ms"`
	PeerSaveIntervalMs uint64 `mapstructure:"peer_save_interval_ms"`
}

// Config is the unified configuration for a node, loaded from config.toml
// plus environment overrides.
type Config struct {
	Network    NetworkConfig    `mapstructure:"network"`
	Channel    ChannelConfig    `mapstructure:"channel"`
	Economics  EconomicsConfig  `mapstructure:"economics"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Health     HealthConfig     `mapstructure:"health"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// defaults seeds a Config with the values named directly in the protocol
// description, so a missing config.toml or a partially-populated one still
// yields a runnable node.
func defaults(dataDir string) Config {
	opsDefaults := ops.DefaultConfig()
	return Config{
		Network: NetworkConfig{
			Enabled:                 true,
			ListenAddr:              "/ip4/0.0.0.0/tcp/0",
			DiscoveryTag:            "nodalync",
			GossipPropagationWaitMs: 5_000,
		},
		Channel: ChannelConfig{
			MinDeposit:       uint64(opsDefaults.ChannelMinDeposit),
			AutoOpenChannel:  opsDefaults.AutoOpenChannel,
			MaxAcceptDeposit: uint64(opsDefaults.MaxAcceptDeposit),
			DisputeWindowMs:  opsDefaults.DisputeWindowMs,
		},
		Economics: EconomicsConfig{
			DefaultPrice: uint64(opsDefaults.DefaultPrice),
		},
		Storage: StorageConfig{
			DataDir:        dataDir,
			CacheMaxSizeMB: 1000,
		},
		Settlement: SettlementConfig{
			NetworkTag: "testnet",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Health: HealthConfig{
			CheckIntervalMs:    uint64(health.DefaultCheckInterval.Milliseconds()),
			PeerSaveIntervalMs: uint64(health.DefaultPeerSaveInterval.Milliseconds()),
		},
	}
}

// Load reads <dataDir>/config.toml, merges a <dataDir>/.env file and the
// process environment, and returns the resulting Config. A missing
// config.toml is not an error: the node falls back to defaults() entirely,
// letting a first run bootstrap from nothing but a data directory.
func Load(dataDir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dataDir, ".env"))

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dataDir)
	v.SetEnvPrefix("NODALYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := defaults(dataDir)
	setViperDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}

	AppConfig = cfg
	return &cfg, nil
}

// setViperDefaults registers every known key with viper before
// ReadInConfig/Unmarshal. Viper's AutomaticEnv only resolves environment
// overrides for keys it already knows about from some other source, so
// without this a key absent from config.toml would never pick up its
// NODALYNC_ environment variable.
func setViperDefaults(v *viper.Viper, d Config) {
	v.SetDefault("network.enabled", d.Network.Enabled)
	v.SetDefault("network.listen_addr", d.Network.ListenAddr)
	v.SetDefault("network.bootstrap_peers", d.Network.BootstrapPeers)
	v.SetDefault("network.discovery_tag", d.Network.DiscoveryTag)
	v.SetDefault("network.gossip_propagation_wait_ms", d.Network.GossipPropagationWaitMs)

	v.SetDefault("channel.min_deposit", d.Channel.MinDeposit)
	v.SetDefault("channel.auto_deposit", d.Channel.AutoOpenChannel)
	v.SetDefault("channel.max_accept_deposit", d.Channel.MaxAcceptDeposit)
	v.SetDefault("channel.dispute_window_ms", d.Channel.DisputeWindowMs)

	v.SetDefault("economics.default_price", d.Economics.DefaultPrice)
	v.SetDefault("economics.auto_settle_threshold", d.Economics.AutoSettleThreshold)

	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.cache_max_size_mb", d.Storage.CacheMaxSizeMB)

	v.SetDefault("settlement.network_tag", d.Settlement.NetworkTag)
	v.SetDefault("settlement.account_id", d.Settlement.AccountID)
	v.SetDefault("settlement.key_path", d.Settlement.KeyPath)
	v.SetDefault("settlement.contract_id", d.Settlement.ContractID)
	v.SetDefault("settlement.auto_deposit", d.Settlement.AutoDeposit)
	v.SetDefault("settlement.min_contract_balance", d.Settlement.MinContractBalance)
	v.SetDefault("settlement.auto_deposit_amount", d.Settlement.AutoDepositAmount)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)

	v.SetDefault("health.check_interval_ms", d.Health.CheckIntervalMs)
	v.SetDefault("health.peer_save_interval_ms", d.Health.PeerSaveIntervalMs)
}

// LoadFromEnv loads configuration using the NODALYNC_DATA_DIR environment
// variable, defaulting to the current directory.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("NODALYNC_DATA_DIR", "."))
}

// ContentDir, CacheDir, IdentityDir and DBPath lay out the persistent
// directory structure named in §6: content/, cache/, identity/, and a
// single database file alongside config.toml.
func (c *Config) ContentDir() string  { return filepath.Join(c.Storage.DataDir, "content") }
func (c *Config) CacheDir() string    { return filepath.Join(c.Storage.DataDir, "cache") }
func (c *Config) IdentityDir() string { return filepath.Join(c.Storage.DataDir, "identity") }
func (c *Config) DBPath() string      { return filepath.Join(c.Storage.DataDir, "nodalync.db") }
func (c *Config) PeersDBPath() string { return filepath.Join(c.Storage.DataDir, "peers.db") }

// CacheMaxBytes converts the configured cache ceiling to bytes for
// cache.Store.EvictTo.
func (c *Config) CacheMaxBytes() uint64 { return c.Storage.CacheMaxSizeMB * 1024 * 1024 }

// P2PConfig builds the libp2p host configuration from the loaded network
// section and a node's already-loaded identity key.
func (c *Config) P2PConfig(identity primitives.PrivateKey) p2p.Config {
	return p2p.Config{
		ListenAddr:     c.Network.ListenAddr,
		BootstrapPeers: c.Network.BootstrapPeers,
		DiscoveryTag:   c.Network.DiscoveryTag,
		Identity:       identity,
	}
}

// OpsConfig builds the operations engine's Config from the loaded channel
// and economics sections, keeping ops.DefaultConfig's query/retry knobs
// (§6 names no override for those).
func (c *Config) OpsConfig() ops.Config {
	cfg := ops.DefaultConfig()
	cfg.ChannelMinDeposit = primitives.Amount(c.Channel.MinDeposit)
	cfg.AutoOpenChannel = c.Channel.AutoOpenChannel
	cfg.MaxAcceptDeposit = primitives.Amount(c.Channel.MaxAcceptDeposit)
	if c.Channel.DisputeWindowMs != 0 {
		cfg.DisputeWindowMs = c.Channel.DisputeWindowMs
	}
	cfg.DefaultPrice = primitives.Amount(c.Economics.DefaultPrice)
	return cfg
}

// HealthIntervals resolves the configured check/peer-save cadence, falling
// back to the package defaults when unset.
func (c *Config) HealthIntervals() (check, peerSave uint64) {
	check, peerSave = c.Health.CheckIntervalMs, c.Health.PeerSaveIntervalMs
	if check == 0 {
		check = uint64(health.DefaultCheckInterval.Milliseconds())
	}
	if peerSave == 0 {
		peerSave = uint64(health.DefaultPeerSaveInterval.Milliseconds())
	}
	return check, peerSave
}
