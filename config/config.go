// Package config loads the daemon configuration from a TOML file and applies
// documented defaults for everything the file omits.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"entledger/core/types"
	"entledger/ledger"
)

// Config carries the daemon settings: the HTTP listen address, the data
// directory for the leveldb store, genesis token parameters applied when no
// snapshot exists yet, and the RPC rate limit.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	DataDir       string `toml:"DataDir"`
	Environment   string `toml:"Environment"`

	TokenName     string `toml:"TokenName"`
	TokenSymbol   string `toml:"TokenSymbol"`
	TokenDecimals uint32 `toml:"TokenDecimals"`
	// InitialSupply is a base-10 integer string so supplies above 64 bits
	// survive the config round trip.
	InitialSupply string `toml:"InitialSupply"`
	// GenesisOwner is the hex identity that owns the initial supply when the
	// daemon constructs a fresh ledger.
	GenesisOwner string `toml:"GenesisOwner"`

	RateLimitPerMinute float64 `toml:"RateLimitPerMinute"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`
}

// Load reads the configuration at path. A missing file yields the defaults;
// a present file is validated after defaults are backfilled.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg.applyDefaults()
		return cfg, nil
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %q in %s", undecoded[0].String(), path)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.ListenAddress) == "" {
		c.ListenAddress = ":8645"
	}
	if strings.TrimSpace(c.DataDir) == "" {
		c.DataDir = "./entdata"
	}
	if strings.TrimSpace(c.Environment) == "" {
		c.Environment = "local"
	}
	if strings.TrimSpace(c.TokenName) == "" {
		c.TokenName = ledger.DefaultName
	}
	if strings.TrimSpace(c.TokenSymbol) == "" {
		c.TokenSymbol = ledger.DefaultSymbol
	}
	if c.TokenDecimals == 0 {
		c.TokenDecimals = ledger.DefaultDecimals
	}
	if strings.TrimSpace(c.InitialSupply) == "" {
		c.InitialSupply = ledger.DefaultInitialSupply.String()
	}
	if c.RateLimitPerMinute <= 0 {
		c.RateLimitPerMinute = 600
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 20
	}
}

func (c *Config) validate() error {
	if _, err := c.ParseInitialSupply(); err != nil {
		return err
	}
	if strings.TrimSpace(c.GenesisOwner) != "" {
		if _, err := types.ParseAccountID(c.GenesisOwner); err != nil {
			return fmt.Errorf("config: GenesisOwner: %w", err)
		}
	}
	return nil
}

// ParseInitialSupply converts the configured supply string to an integer.
func (c *Config) ParseInitialSupply() (*big.Int, error) {
	supply, ok := new(big.Int).SetString(strings.TrimSpace(c.InitialSupply), 10)
	if !ok {
		return nil, fmt.Errorf("config: InitialSupply %q is not a base-10 integer", c.InitialSupply)
	}
	if supply.Sign() < 0 {
		return nil, fmt.Errorf("config: InitialSupply must not be negative")
	}
	return supply, nil
}

// ParseGenesisOwner returns the configured genesis owner identity. The second
// return value is false when the config leaves it unset.
func (c *Config) ParseGenesisOwner() (types.AccountID, bool, error) {
	trimmed := strings.TrimSpace(c.GenesisOwner)
	if trimmed == "" {
		return types.AccountID{}, false, nil
	}
	id, err := types.ParseAccountID(trimmed)
	if err != nil {
		return types.AccountID{}, false, err
	}
	return id, true, nil
}
