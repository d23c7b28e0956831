// Package config loads and validates the JSON configuration for an auction
// watcher and parses project references of the form "0xCORE-42".
package config

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
)

// Config is the full configuration for one watcher process.
type Config struct {
	// RPCURL is the JSON-RPC endpoint of the chain the project lives on.
	RPCURL string `json:"rpc_url" validate:"required,url"`

	// Account is the bidder address whose bids the ledger tracks.
	Account string `json:"account" validate:"required,eth_addr"`

	// SupportedMinterTypes restricts which minter type strings the resolver
	// accepts. Defaults to the ranked-auction minter.
	SupportedMinterTypes []string `json:"supported_minter_types,omitempty"`

	// SupportedMinterFilters restricts which minter filter contracts the
	// resolver trusts. Empty means any filter the core reports is accepted.
	SupportedMinterFilters []string `json:"supported_minter_filters,omitempty" validate:"omitempty,dive,eth_addr"`

	// MaxConcurrentPriceCalls caps parallel slotIndexToBidValue calls.
	MaxConcurrentPriceCalls int `json:"max_concurrent_price_calls,omitempty" validate:"omitempty,gt=0"`

	// StartBlock optionally pins the first block of the initial bid scan.
	// Zero means estimate it from the auction start timestamp.
	StartBlock uint64 `json:"start_block,omitempty"`
}

// Load reads, unmarshals, validates, and defaults a Config from a JSON file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals, validates, and defaults a Config from raw JSON.
func Parse(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	setDefaults(cfg)
	return cfg, nil
}

func setDefaults(cfg *Config) {
	if len(cfg.SupportedMinterTypes) == 0 {
		cfg.SupportedMinterTypes = []string{"MinterRAMV0"}
	}
	if cfg.MaxConcurrentPriceCalls == 0 {
		cfg.MaxConcurrentPriceCalls = 8
	}
}

// TrustedFilters returns SupportedMinterFilters as addresses.
func (c *Config) TrustedFilters() []common.Address {
	if len(c.SupportedMinterFilters) == 0 {
		return nil
	}
	filters := make([]common.Address, len(c.SupportedMinterFilters))
	for i, f := range c.SupportedMinterFilters {
		filters[i] = common.HexToAddress(f)
	}
	return filters
}

// ParseProjectRef splits a "0xCORE-42" project reference into the core
// contract address and the project number. The project number is everything
// after the last dash, so core addresses containing dashes are rejected by
// the address check rather than misparsed.
func ParseProjectRef(ref string) (common.Address, *big.Int, error) {
	sep := strings.LastIndex(ref, "-")
	if sep < 0 {
		return common.Address{}, nil, fmt.Errorf("project ref %q: expected format 0xCORE-PROJECT", ref)
	}

	corePart, projectPart := ref[:sep], ref[sep+1:]
	if !common.IsHexAddress(corePart) {
		return common.Address{}, nil, fmt.Errorf("project ref %q: %q is not an address", ref, corePart)
	}

	project, ok := new(big.Int).SetString(projectPart, 10)
	if !ok || project.Sign() < 0 {
		return common.Address{}, nil, fmt.Errorf("project ref %q: %q is not a project number", ref, projectPart)
	}

	return common.HexToAddress(corePart), project, nil
}
