// Package config loads csysgen run settings from YAML.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/chazu/csysgen/pkg/field"
	"github.com/chazu/csysgen/pkg/model"
	"github.com/chazu/csysgen/pkg/orient"
)

// Config holds one run's settings.
type Config struct {
	Model       string           `yaml:"model"`
	Parts       []string         `yaml:"parts"`
	PartCount   int              `yaml:"part_count"` // 0: not declared
	Policy      string           `yaml:"policy"`     // halt | continue
	Workers     int              `yaml:"workers"`
	FieldPrefix string           `yaml:"field_prefix"`
	Description string           `yaml:"description"`
	Confirm     bool             `yaml:"confirm"`
	Corners     *model.CornerMap `yaml:"corners"`
	Output      OutputConfig     `yaml:"output"`
}

// OutputConfig selects where requests and reports go.
type OutputConfig struct {
	Format    string `yaml:"format"`    // json | yaml | inp
	Path      string `yaml:"path"`      // "" or "-" for stdout
	Store     string `yaml:"store"`     // SQLite database, optional
	Report    bool   `yaml:"report"`    // print the audit table
	Histogram string `yaml:"histogram"` // image path, optional
}

// DefaultConfig returns the defaults: halt on the first failure, JSON to
// stdout, the standard field prefix.
func DefaultConfig() *Config {
	return &Config{
		Policy:      orient.HaltOnFailure.String(),
		Workers:     1,
		FieldPrefix: field.DefaultPrefix,
		Output: OutputConfig{
			Format: field.FormatJSON,
		},
	}
}

// LoadFile reads a YAML config file on top of DefaultConfig and validates it.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

// applyDefaults fills values an explicit empty entry in the file cleared.
func (c *Config) applyDefaults() {
	if c.Policy == "" {
		c.Policy = orient.HaltOnFailure.String()
	}
	if c.FieldPrefix == "" {
		c.FieldPrefix = field.DefaultPrefix
	}
	if c.Output.Format == "" {
		c.Output.Format = field.FormatJSON
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.PartCount < 0 {
		return fmt.Errorf("part_count must be >= 0")
	}
	if c.PartCount > 0 && c.PartCount != len(c.Parts) {
		return fmt.Errorf("number of parts (%d) doesn't match the number of part names given (%d)", c.PartCount, len(c.Parts))
	}
	seen := make(map[string]bool, len(c.Parts))
	for i, p := range c.Parts {
		if p == "" {
			return fmt.Errorf("parts[%d]: name is empty", i)
		}
		if seen[p] {
			return fmt.Errorf("parts[%d]: %q listed twice", i, p)
		}
		seen[p] = true
	}
	if _, err := orient.ParsePolicy(c.Policy); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0")
	}
	if _, err := field.ParseFormat(c.Output.Format); err != nil {
		return err
	}
	if c.Corners != nil {
		if err := c.Corners.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// PolicyValue returns the parsed failure policy.
func (c *Config) PolicyValue() orient.Policy {
	p, _ := orient.ParsePolicy(c.Policy)
	return p
}

// CornerMap returns the configured corner roles or the C3D8 default.
func (c *Config) CornerMap() model.CornerMap {
	if c.Corners == nil {
		return model.C3D8Corners
	}
	return *c.Corners
}

// ParseParts splits a comma-separated list of part names, trimming spaces
// and dropping empty entries.
func ParseParts(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
