// Package config loads dtrsim's run configuration (spec §6): SRAM
// capacities, the eviction policy to drive jitsim with, and an optional
// deterministic seed. Unmarshals through github.com/spf13/viper so
// defaults, a config file, and environment variables layer in that order.
// Plain fixture files (no layering, no env overrides) are decoded with
// sigs.k8s.io/yaml instead; see dag.LoadFixture.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"dtrsim/heuristic"
	"dtrsim/memtier"

	"github.com/spf13/viper"
)

// EvictionPolicy names one of the two pluggable heuristics spec §4.B
// defines.
type EvictionPolicy string

const (
	PolicyRandom EvictionPolicy = "random"
	PolicyLRU    EvictionPolicy = "lru"
)

// Config is the root configuration object (spec §6): `{
// sram_capacity_bytes, eviction_policy, random_seed }`, generalized with a
// Regions map so a run can drive more than one named accelerator region at
// once (spec §9 supplemented feature, matching jitsim.Simulator's
// map[string]*memtier.SRAM).
type Config struct {
	// SRAMCapacityBytes is the capacity of the single default region
	// named "A", used whenever Regions is empty (spec §6's literal
	// single-region shape).
	SRAMCapacityBytes int64 `mapstructure:"sram_capacity_bytes"`
	// Regions optionally names more than one accelerator region and its
	// capacity. When non-empty it takes precedence over
	// SRAMCapacityBytes.
	Regions        map[string]int64 `mapstructure:"regions"`
	EvictionPolicy EvictionPolicy   `mapstructure:"eviction_policy"`
	// RandomSeed seeds the Random heuristic's RNG. A nil value means
	// "seed from the current time" (Load stamps one in at unmarshal time
	// instead, since time.Now must not leak into callers that want a
	// purely deterministic Config from LoadFromReader).
	RandomSeed *uint64 `mapstructure:"random_seed"`
}

// defaultRegion is the name the single sram_capacity_bytes field
// populates when the caller has not opted into multi-region config.
const defaultRegion = "A"

func setDefaults(v *viper.Viper) {
	v.SetDefault("sram_capacity_bytes", 1<<20)
	v.SetDefault("eviction_policy", string(PolicyLRU))
}

// Load reads configuration from configPath (YAML, JSON, or TOML, inferred
// from its extension), falling back to ./dtrsim.yaml, ./configs, and
// /etc/dtrsim when configPath is empty, then lets environment variables
// (DTRSIM_SRAM_CAPACITY_BYTES, etc.) override whatever the file set.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("dtrsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/dtrsim")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("dtrsim")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if cfg.RandomSeed == nil {
		seed := uint64(time.Now().UnixNano())
		cfg.RandomSeed = &seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadFromReader loads configuration from in-memory content, useful for
// tests and for embedding a config alongside a fixture in a single
// archive. Unlike Load, a nil RandomSeed is left nil rather than stamped
// from the clock, so callers get a fully deterministic Config back.
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the fields Load/LoadFromReader cannot sanity-check via
// viper defaults alone.
func (c *Config) Validate() error {
	switch c.EvictionPolicy {
	case PolicyRandom, PolicyLRU:
	default:
		return fmt.Errorf("unsupported eviction_policy: %q", c.EvictionPolicy)
	}
	if len(c.Regions) == 0 && c.SRAMCapacityBytes <= 0 {
		return fmt.Errorf("sram_capacity_bytes must be positive")
	}
	for region, capacity := range c.Regions {
		if capacity <= 0 {
			return fmt.Errorf("region %q: capacity must be positive", region)
		}
	}
	return nil
}

// SRAMs builds the per-region memtier.SRAM map this Config describes,
// ready to hand to jitsim.New.
func (c *Config) SRAMs() map[string]*memtier.SRAM {
	regions := c.Regions
	if len(regions) == 0 {
		regions = map[string]int64{defaultRegion: c.SRAMCapacityBytes}
	}
	srams := make(map[string]*memtier.SRAM, len(regions))
	for region, capacity := range regions {
		srams[region] = memtier.NewSRAM(capacity)
	}
	return srams
}

// Heuristic builds the eviction heuristic this Config names, one instance
// per call (a Random heuristic owns mutable RNG state and must not be
// shared across concurrent runs).
func (c *Config) Heuristic() (heuristic.Heuristic, error) {
	switch c.EvictionPolicy {
	case PolicyLRU:
		return heuristic.NewLRU(), nil
	case PolicyRandom:
		seed := int64(0)
		if c.RandomSeed != nil {
			seed = int64(*c.RandomSeed)
		} else {
			seed = time.Now().UnixNano()
		}
		return heuristic.NewRandom(seed), nil
	default:
		return nil, fmt.Errorf("unsupported eviction_policy: %q", c.EvictionPolicy)
	}
}
