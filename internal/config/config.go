// Package config loads the ledger's deployment parameters from YAML.
// Unknown fields are rejected so typos fail loudly instead of silently
// falling back to defaults.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Predictory42/predictory/internal/ledger"
)

// Config holds the initial contract parameters. Zero values are filled
// from Default before validation, so a partial file is fine.
type Config struct {
	// Authority is the identity allowed to change contract parameters.
	Authority string `yaml:"authority"`

	// Multiplier is the trust units granted per coin moved at settlement.
	Multiplier int64 `yaml:"multiplier"`

	// EventPrice is the creator bond in base units (1 coin = 1e9).
	EventPrice int64 `yaml:"event_price"`

	// PlatformFee is the flat fee collected per settled event, base units.
	PlatformFee int64 `yaml:"platform_fee"`

	// OrgReward is the percentage of the pot reserved for the organizer.
	OrgReward int64 `yaml:"org_reward"`

	// CompletionDeadline is how long after end date the authority has to
	// declare a result, in seconds.
	CompletionDeadline int64 `yaml:"completion_deadline"`

	// AppellationDeadline extends the window for disputes past the
	// completion deadline, in seconds.
	AppellationDeadline int64 `yaml:"appellation_deadline"`
}

// Default returns the stock parameter set.
func Default() Config {
	return Config{
		Multiplier:          10,
		EventPrice:          1_000_000_000,
		PlatformFee:         100_000_000,
		OrgReward:           5,
		CompletionDeadline:  86_400,
		AppellationDeadline: 86_400,
	}
}

// Load reads a YAML config file, fills unset fields from Default and
// validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes with strict field checking.
func Parse(data []byte) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	def := Default()
	if cfg.Multiplier == 0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.EventPrice == 0 {
		cfg.EventPrice = def.EventPrice
	}
	if cfg.PlatformFee == 0 {
		cfg.PlatformFee = def.PlatformFee
	}
	if cfg.OrgReward == 0 {
		cfg.OrgReward = def.OrgReward
	}
	if cfg.CompletionDeadline == 0 {
		cfg.CompletionDeadline = def.CompletionDeadline
	}
	if cfg.AppellationDeadline == 0 {
		cfg.AppellationDeadline = def.AppellationDeadline
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.Multiplier <= 0 {
		return fmt.Errorf("multiplier must be positive, got %d", c.Multiplier)
	}
	if c.EventPrice < 0 {
		return fmt.Errorf("event_price must be non-negative, got %d", c.EventPrice)
	}
	if c.PlatformFee < 0 {
		return fmt.Errorf("platform_fee must be non-negative, got %d", c.PlatformFee)
	}
	if c.OrgReward < 0 || c.OrgReward > 100 {
		return fmt.Errorf("org_reward must be a percentage in [0,100], got %d", c.OrgReward)
	}
	if c.CompletionDeadline <= 0 {
		return fmt.Errorf("completion_deadline must be positive, got %d", c.CompletionDeadline)
	}
	if c.AppellationDeadline <= 0 {
		return fmt.Errorf("appellation_deadline must be positive, got %d", c.AppellationDeadline)
	}
	return nil
}

// State converts the config into the singleton contract state record,
// overriding the authority when one is given on the command line.
func (c Config) State(authority string) *ledger.State {
	if authority == "" {
		authority = c.Authority
	}
	return &ledger.State{
		Authority:           authority,
		Multiplier:          c.Multiplier,
		EventPrice:          c.EventPrice,
		PlatformFee:         c.PlatformFee,
		OrgReward:           c.OrgReward,
		CompletionDeadline:  c.CompletionDeadline,
		AppellationDeadline: c.AppellationDeadline,
	}
}
