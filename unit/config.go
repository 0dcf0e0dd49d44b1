package unit

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the language-neutral configuration input described by the
// specification: base units, prefix families, unit expressions, and the
// cache's sliding-expiration and memory-pressure knobs.
//
// HighMemoryPressureThreshold and HighMemoryPressureClearPercentage are
// pointers, following the teacher's own tri-state-optional-field
// convention (schema.ColumnDefinition.length, schema.Sequence's
// IncrementBy/MinValue/MaxValue/StartWith/Cache, and
// testutil.TestCase's EnableDrop/LegacyIgnoreQuotes), because both
// fields are documented as legal across their full 0..100 range: an
// unset field (nil) takes the default, but an explicit 0 (a threshold
// of 0 treats every tick as under pressure; a clear percentage of 0
// evicts nothing under pressure) must be honored rather than silently
// overwritten, which a plain int zero value could never distinguish
// from "not configured".
type Config struct {
	Prefixes                          map[string]map[string]float64 `json:"prefixes" yaml:"prefixes"`
	BaseUnits                         []string                       `json:"baseUnits" yaml:"baseUnits"`
	Units                             map[string]string              `json:"units" yaml:"units"`
	SlidingExpiration                 time.Duration                  `json:"slidingExpiration" yaml:"slidingExpiration"`
	HighMemoryPressureThreshold       *int                           `json:"highMemoryPressureThreshold,omitempty" yaml:"highMemoryPressureThreshold,omitempty"`
	HighMemoryPressureClearPercentage *int                           `json:"highMemoryPressureClearPercentage,omitempty" yaml:"highMemoryPressureClearPercentage,omitempty"`
}

const (
	defaultSlidingExpiration     = 5 * time.Minute
	defaultHighPressureThreshold = 90
	defaultHighPressureClearPct  = 50
)

func intPtr(v int) *int { return &v }

// applyDefaults fills unset optional fields per spec §6. A nil pointer
// means "not configured" and takes the default; a non-nil pointer,
// including one pointing at 0, is left exactly as the caller set it.
func (c *Config) applyDefaults() {
	if c.SlidingExpiration <= 0 {
		c.SlidingExpiration = defaultSlidingExpiration
	}
	if c.HighMemoryPressureThreshold == nil {
		c.HighMemoryPressureThreshold = intPtr(defaultHighPressureThreshold)
	}
	if c.HighMemoryPressureClearPercentage == nil {
		c.HighMemoryPressureClearPercentage = intPtr(defaultHighPressureClearPct)
	}
}

func (c *Config) validate() error {
	if len(c.BaseUnits) == 0 {
		return InvalidConfigError("config must declare at least one base unit")
	}
	seen := make(map[string]bool, len(c.BaseUnits))
	for _, b := range c.BaseUnits {
		if b == "" {
			return InvalidConfigError("base unit names must be non-empty")
		}
		if seen[b] {
			return InvalidConfigError("duplicate base unit %q", b)
		}
		seen[b] = true
	}
	if t := c.HighMemoryPressureThreshold; t != nil && (*t < 0 || *t > 100) {
		return InvalidConfigError("highMemoryPressureThreshold must be 0..100")
	}
	if p := c.HighMemoryPressureClearPercentage; p != nil && (*p < 0 || *p > 100) {
		return InvalidConfigError("highMemoryPressureClearPercentage must be 0..100")
	}
	return nil
}

// LoadConfigJSON decodes a JSON configuration document, the
// language-neutral convention named in the specification.
func LoadConfigJSON(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, InvalidConfigError("decoding JSON config: %v", err)
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfigYAML decodes a YAML configuration document, for operators
// who keep their unit tables alongside other YAML-based ops
// configuration (the sliding-expiration duration accepts Go duration
// strings, e.g. "5m").
func LoadConfigYAML(data []byte) (*Config, error) {
	var raw struct {
		Prefixes                          map[string]map[string]float64 `yaml:"prefixes"`
		BaseUnits                         []string                       `yaml:"baseUnits"`
		Units                             map[string]string              `yaml:"units"`
		SlidingExpiration                 string                         `yaml:"slidingExpiration"`
		HighMemoryPressureThreshold       *int                           `yaml:"highMemoryPressureThreshold"`
		HighMemoryPressureClearPercentage *int                           `yaml:"highMemoryPressureClearPercentage"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, InvalidConfigError("decoding YAML config: %v", err)
	}
	c := Config{
		Prefixes:                          raw.Prefixes,
		BaseUnits:                         raw.BaseUnits,
		Units:                              raw.Units,
		HighMemoryPressureThreshold:       raw.HighMemoryPressureThreshold,
		HighMemoryPressureClearPercentage: raw.HighMemoryPressureClearPercentage,
	}
	if raw.SlidingExpiration != "" {
		d, err := time.ParseDuration(raw.SlidingExpiration)
		if err != nil {
			return nil, InvalidConfigError("parsing slidingExpiration: %v", err)
		}
		c.SlidingExpiration = d
	}
	c.applyDefaults()
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadConfigFile loads a Config from disk, dispatching on extension
// (.yaml/.yml -> YAML, anything else -> JSON).
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return LoadConfigYAML(data)
	}
	return LoadConfigJSON(data)
}
