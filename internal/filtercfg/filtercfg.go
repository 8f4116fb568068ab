package filtercfg

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the reference-data eligibility rules. They are data, not
// code: the primary exchange, the expiration guard interval and the index
// allow-list all live here.
type Config struct {
	// PrimaryExchange is the exchange tag instruments must carry
	PrimaryExchange string `yaml:"primary_exchange"`
	// GuardDays excludes futures expiring within this many days
	GuardDays int `yaml:"guard_days"`
	// IndexTickers are kept even though they are not equity-settled
	IndexTickers []string `yaml:"index_tickers"`
	// MiniMarker is the display-name substring identifying reduced-size
	// index contracts
	MiniMarker string `yaml:"mini_marker"`
}

// Default returns the built-in rule set
func Default() *Config {
	return &Config{
		PrimaryExchange: "REAL_EXCHANGE_MOEX",
		GuardDays:       3,
		IndexTickers:    []string{"IMOEX", "RTSI"},
		MiniMarker:      "мини",
	}
}

// Load reads the YAML rules file. Unknown fields fail immediately so a
// typo cannot silently widen a filter. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read filters file: %w", err)
	}

	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("parse filters file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid filters file %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the rule set for self-consistency
func Validate(cfg *Config) error {
	if cfg.PrimaryExchange == "" {
		return fmt.Errorf("primary_exchange must not be empty")
	}

	if cfg.GuardDays < 0 {
		return fmt.Errorf("guard_days must not be negative")
	}

	if len(cfg.IndexTickers) > 0 && cfg.MiniMarker == "" {
		return fmt.Errorf("mini_marker is required when index_tickers is set")
	}

	seen := make(map[string]bool, len(cfg.IndexTickers))
	for _, t := range cfg.IndexTickers {
		if t == "" {
			return fmt.Errorf("index_tickers must not contain empty entries")
		}
		if seen[t] {
			return fmt.Errorf("duplicate index ticker %q", t)
		}
		seen[t] = true
	}

	return nil
}
