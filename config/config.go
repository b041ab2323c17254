// (c) 2019-2020, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads every §6 tunable from file, environment and flags via
// spf13/viper, the same layered-source approach the teacher's sibling
// chain-client repos (Juneo-io-juneogo's node config) use ahead of cobra's
// flag parsing. It only surfaces values that are genuine constructor
// parameters elsewhere in the module (avalanche.Parameters, tsdc.Parameters,
// txpool.Config, the node identity and storage path); constants the rest of
// the module treats as fixed (MaxTxBytes, AVSRetention, the reward curve's
// S0) are documented here but not re-exposed as knobs.
package config

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/timecoin-project/timecoin/avalanche"
	"github.com/timecoin-project/timecoin/core"
	"github.com/timecoin-project/timecoin/ids"
	"github.com/timecoin-project/timecoin/tsdc"
	"github.com/timecoin-project/timecoin/txpool"
)

// Validator is the on-disk genesis representation of a masternode: a
// hex-encoded public key plus its declared tier, from which StakeWeight is
// derived (core.Tier's numeric value IS the weight contribution).
type Validator struct {
	ID     string `mapstructure:"id"`
	PubKey string `mapstructure:"pubkey"`
	Tier   string `mapstructure:"tier"`
}

// Config is the fully-resolved set of node tunables, ready to hand to
// node.Config's sub-structs.
type Config struct {
	// Self identifies this node's own Address among the genesis validators.
	Self string `mapstructure:"self"`
	// PrivKeyHex is this node's secp256k1 private key, hex-encoded.
	PrivKeyHex string `mapstructure:"priv_key"`
	// DataDir holds the LevelDB store.
	DataDir string `mapstructure:"data_dir"`
	// ChainIDHex names the chain this node produces blocks for.
	ChainIDHex string `mapstructure:"chain_id"`
	// GenesisTimeUnix is slot 0's start, as a Unix timestamp in seconds.
	GenesisTimeUnix int64 `mapstructure:"genesis_time_unix"`

	Genesis []Validator `mapstructure:"genesis_validators"`

	SlotSeconds          int `mapstructure:"slot_seconds"`
	LeaderTimeoutMS      int `mapstructure:"leader_timeout_ms"`
	SlotGraceMS          int `mapstructure:"slot_grace_ms"`
	ClockSkewToleranceMS int `mapstructure:"clock_skew_tolerance_ms"`
	MaxBlockTxCount      int `mapstructure:"max_block_tx_count"`

	AvalancheK             int     `mapstructure:"avalanche.k"`
	AvalancheKMin          int     `mapstructure:"avalanche.k_min"`
	AvalancheAlpha         float64 `mapstructure:"avalanche.alpha"`
	AvalancheBeta          int     `mapstructure:"avalanche.beta"`
	AvalancheRoundTimeoutMS int    `mapstructure:"avalanche.round_timeout_ms"`
	AvalancheMaxRounds      int    `mapstructure:"avalanche.max_rounds"`
	AvalancheSuspicionCap   int32  `mapstructure:"avalanche.suspicion_cap"`

	MaxPoolBytes int64 `mapstructure:"max_pool_bytes"`
	MaxPoolCount int   `mapstructure:"max_pool_count"`

	NotifierQueueSize int `mapstructure:"notifier_queue_size"`

	LogLevel string `mapstructure:"log.level"`
	LogJSON  bool    `mapstructure:"log.json"`
}

// SetDefaults installs every §6 default value onto v, so a config file or
// flag set only needs to override what it means to change.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "./timecoin-data")
	v.SetDefault("chain_id", "0000000000000000000000000000000000000000000000000000000000000001")

	v.SetDefault("slot_seconds", 600)
	v.SetDefault("leader_timeout_ms", 5000)
	v.SetDefault("slot_grace_ms", 30000)
	v.SetDefault("clock_skew_tolerance_ms", 5000)
	v.SetDefault("max_block_tx_count", 10_000)

	v.SetDefault("avalanche.k", 20)
	v.SetDefault("avalanche.k_min", 7)
	v.SetDefault("avalanche.alpha", 0.7)
	v.SetDefault("avalanche.beta", 20)
	v.SetDefault("avalanche.round_timeout_ms", 500)
	v.SetDefault("avalanche.max_rounds", 100)
	v.SetDefault("avalanche.suspicion_cap", 50)

	v.SetDefault("max_pool_bytes", 300*1024*1024)
	v.SetDefault("max_pool_count", 10_000)

	v.SetDefault("notifier_queue_size", 256)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}

// Load reads v (already populated from file/env/flags by the caller) into a
// Config. It checks only that self, priv_key and at least one genesis
// validator are present; other values are passed through unchecked.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	// Unmarshal nests dotted keys ("avalanche.k" becomes avalanche -> k), so
	// the dotted mapstructure tags never match; read those keys directly.
	cfg.AvalancheK = v.GetInt("avalanche.k")
	cfg.AvalancheKMin = v.GetInt("avalanche.k_min")
	cfg.AvalancheAlpha = v.GetFloat64("avalanche.alpha")
	cfg.AvalancheBeta = v.GetInt("avalanche.beta")
	cfg.AvalancheRoundTimeoutMS = v.GetInt("avalanche.round_timeout_ms")
	cfg.AvalancheMaxRounds = v.GetInt("avalanche.max_rounds")
	cfg.AvalancheSuspicionCap = v.GetInt32("avalanche.suspicion_cap")
	cfg.LogLevel = v.GetString("log.level")
	cfg.LogJSON = v.GetBool("log.json")
	if cfg.Self == "" {
		return nil, fmt.Errorf("config: \"self\" is required")
	}
	if cfg.PrivKeyHex == "" {
		return nil, fmt.Errorf("config: \"priv_key\" is required")
	}
	if len(cfg.Genesis) == 0 {
		return nil, fmt.Errorf("config: at least one genesis validator is required")
	}
	return &cfg, nil
}

// PrivateKey decodes PrivKeyHex into a core.PrivateKey.
func (c *Config) PrivateKey() (core.PrivateKey, error) {
	b, err := hex.DecodeString(c.PrivKeyHex)
	if err != nil {
		return nil, fmt.Errorf("config: priv_key is not valid hex: %w", err)
	}
	return core.PrivateKey(b), nil
}

// ChainID decodes ChainIDHex into an ids.ID.
func (c *Config) ChainID() (ids.ID, error) {
	id, err := ids.FromString(c.ChainIDHex)
	if err != nil {
		return ids.ID{}, fmt.Errorf("config: chain_id is not a valid 32-byte hex id: %w", err)
	}
	return id, nil
}

// InitialValidators resolves the genesis validator list into core.Validator
// records, mapping each declared tier name onto its core.Tier weight.
func (c *Config) InitialValidators() ([]core.Validator, error) {
	out := make([]core.Validator, 0, len(c.Genesis))
	for _, gv := range c.Genesis {
		tier, err := parseTier(gv.Tier)
		if err != nil {
			return nil, fmt.Errorf("config: genesis validator %s: %w", gv.ID, err)
		}
		pub, err := hex.DecodeString(gv.PubKey)
		if err != nil {
			return nil, fmt.Errorf("config: genesis validator %s: bad pubkey hex: %w", gv.ID, err)
		}
		out = append(out, core.Validator{
			ID:          core.Address(gv.ID),
			PubKey:      core.PubKey(pub),
			StakeWeight: uint64(tier),
			Tier:        tier,
		})
	}
	return out, nil
}

func parseTier(name string) (core.Tier, error) {
	switch name {
	case "free":
		return core.TierFree, nil
	case "bronze":
		return core.TierBronze, nil
	case "silver":
		return core.TierSilver, nil
	case "gold":
		return core.TierGold, nil
	default:
		return 0, fmt.Errorf("unknown tier %q", name)
	}
}

// AvalancheParameters builds the avalanche.Parameters this config describes.
func (c *Config) AvalancheParameters() avalanche.Parameters {
	return avalanche.Parameters{
		KMin:           c.AvalancheKMin,
		KMax:           c.AvalancheK,
		QuorumFraction: c.AvalancheAlpha,
		Beta:           c.AvalancheBeta,
		RoundTimeout:   time.Duration(c.AvalancheRoundTimeoutMS) * time.Millisecond,
		MaxRounds:      c.AvalancheMaxRounds,
		SuspicionCap:   c.AvalancheSuspicionCap,
	}
}

// TSDCParameters builds the tsdc.Parameters this config describes.
func (c *Config) TSDCParameters() tsdc.Parameters {
	return tsdc.Parameters{
		SlotPeriod:         time.Duration(c.SlotSeconds) * time.Second,
		LeaderTimeout:      time.Duration(c.LeaderTimeoutMS) * time.Millisecond,
		SlotGrace:          time.Duration(c.SlotGraceMS) * time.Millisecond,
		ClockSkewTolerance: time.Duration(c.ClockSkewToleranceMS) * time.Millisecond,
		MaxBlockTxCount:    c.MaxBlockTxCount,
	}
}

// TxPoolConfig builds the txpool.Config this config describes.
func (c *Config) TxPoolConfig() txpool.Config {
	return txpool.Config{MaxPoolBytes: c.MaxPoolBytes, MaxPoolCount: c.MaxPoolCount}
}

// SlotClock builds the tsdc.SlotClock this config describes.
func (c *Config) SlotClock() tsdc.SlotClock {
	return tsdc.SlotClock{
		GenesisTime: time.Unix(c.GenesisTimeUnix, 0).UTC(),
		SlotPeriod:  time.Duration(c.SlotSeconds) * time.Second,
	}
}
