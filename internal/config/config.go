// Package config holds the run configuration for the demultiplexer.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/maddygriz/demultiplex/internal/demux"
)

// DefaultBarcodes is the stock 24-sample vocabulary used when no config file
// supplies one.
var DefaultBarcodes = []string{
	"GTAGCGTA", "CGATCGAT", "GATCAAGG", "AACAGCGA",
	"TAGCCATG", "CGGTAATC", "CTCTGGAT", "TACCGGAT",
	"CTAGCTCA", "CACTTCAC", "GCTACTCT", "ACGATCAG",
	"TATGGCAC", "TGTTCCGT", "GTCCTAAG", "TCGACAAG",
	"TCTTCGAC", "ATCATGCG", "ATCGTGGT", "TCGAGAGT",
	"TCGGATTC", "GATCTTGC", "AGAGTCCA", "AGGATAGC",
}

// Config describes one demultiplexing run.
type Config struct {
	QualityCutoff float64  `toml:"quality_cutoff"`
	Barcodes      []string `toml:"barcodes"`
	OutputDir     string   `toml:"output_dir"`
	GzipOutput    bool     `toml:"gzip_output"`
}

// Default returns the built-in configuration: cutoff 32, the stock
// vocabulary, buckets in the current directory.
func Default() *Config {
	return &Config{
		QualityCutoff: demux.DefaultQualityCutoff,
		Barcodes:      append([]string(nil), DefaultBarcodes...),
		OutputDir:     ".",
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if _, err := toml.Decode(string(b), cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Barcodes) == 0 {
		return fmt.Errorf("barcode vocabulary is empty")
	}
	seen := make(map[string]bool, len(c.Barcodes))
	for _, bc := range c.Barcodes {
		if bc == "" {
			return fmt.Errorf("empty barcode in vocabulary")
		}
		if seen[bc] {
			return fmt.Errorf("duplicate barcode %q in vocabulary", bc)
		}
		seen[bc] = true
		for _, r := range bc {
			switch r {
			case 'A', 'C', 'G', 'T':
			default:
				return fmt.Errorf("barcode %q contains invalid base %q", bc, r)
			}
		}
	}
	if c.QualityCutoff < 0 {
		return fmt.Errorf("quality cutoff must be non-negative, got %v", c.QualityCutoff)
	}
	return nil
}
