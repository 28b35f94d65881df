package kronroe

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// CLIConfig is the shape of an optional kronroe.toml file read by cmd/kronroe,
// so routine invocations don't need every flag repeated on the command line.
type CLIConfig struct {
	DBPath   string        `toml:"db_path"`
	Features CLIFeatures   `toml:"features"`
	Search   CLISearchOpts `toml:"search"`
}

type CLIFeatures struct {
	Fulltext bool `toml:"fulltext"`
	Vector   bool `toml:"vector"`
	Hybrid   bool `toml:"hybrid"`
}

type CLISearchOpts struct {
	TextWeight   float64 `toml:"text_weight"`
	VectorWeight float64 `toml:"vector_weight"`
	RankConstant int     `toml:"rank_constant"`
}

// DefaultCLIConfig matches DefaultFeatures and the hybrid search defaults in
// HybridParams, so an absent kronroe.toml behaves the same as an empty one.
func DefaultCLIConfig() CLIConfig {
	return CLIConfig{
		DBPath:   "kronroe.db",
		Features: CLIFeatures{Fulltext: true, Vector: true, Hybrid: true},
		Search:   CLISearchOpts{TextWeight: 0.5, VectorWeight: 0.5, RankConstant: defaultRankConstant},
	}
}

// LoadCLIConfig reads path, merging onto DefaultCLIConfig so a partial file
// only needs to name the fields it wants to override. A missing file is not
// an error — it yields the defaults.
func LoadCLIConfig(path string) (CLIConfig, error) {
	cfg := DefaultCLIConfig()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return CLIConfig{}, fmt.Errorf("kronroe: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// EngineFeatures converts the TOML-facing CLIFeatures into the engine's
// Features, for passing to Open/OpenInMemory.
func (c CLIConfig) EngineFeatures() Features {
	return Features{Fulltext: c.Features.Fulltext, Vector: c.Features.Vector, Hybrid: c.Features.Hybrid}
}
