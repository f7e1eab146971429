// Package config loads, merges and persists the glimpse configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/glimpse/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Set even when the file is missing so SaveConfig can create it.
	cfger.targetPath = path

	return cfger, nil
}

// ValidConfigKeys returns every supported configuration key in TOML section order.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range orderedConfigKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}
	for k := range configKeys {
		if !seen[k] {
			result = append(result, k)
		}
	}
	return result
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the resolved .glimpse/ directory. A missing
// file yields NewDefaultConfig(); fields left empty in the file are filled
// from the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, md, err := parseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg, md)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
// Booleans are left alone: their zero value is the default. Keys where zero
// is meaningful are only defaulted when md shows them missing from the file.
func applyDefaults(cfg *Config, md toml.MetaData) {
	d := NewDefaultConfig()

	setString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	setUint := func(dst *uint, def uint) {
		if *dst == 0 {
			*dst = def
		}
	}

	if cfg.Version == 0 {
		cfg.Version = d.Version
	}

	setString(&cfg.Images.Folder, d.Images.Folder)
	setString(&cfg.API.Listen, d.API.Listen)
	setString(&cfg.Client.APITarget, d.Client.APITarget)

	setString(&cfg.Embedding.Provider, d.Embedding.Provider)
	setString(&cfg.Embedding.Target, d.Embedding.Target)
	setString(&cfg.Embedding.Model, d.Embedding.Model)
	setString(&cfg.Embedding.Device, d.Embedding.Device)
	setUint(&cfg.Embedding.Dimensions, d.Embedding.Dimensions)
	if !md.IsDefined("embedding", "timeout_seconds") {
		cfg.Embedding.TimeoutSeconds = d.Embedding.TimeoutSeconds
	}

	if !md.IsDefined("metric", "threshold") {
		cfg.Metric.Threshold = d.Metric.Threshold
	}

	setString(&cfg.Cache.Policy, d.Cache.Policy)

	setString(&cfg.VectorStore.Provider, d.VectorStore.Provider)
	setString(&cfg.VectorStore.Collection, d.VectorStore.Collection)

	setString(&cfg.Judge.Provider, d.Judge.Provider)
	setString(&cfg.Judge.Target, d.Judge.Target)
	setString(&cfg.Judge.Model, d.Judge.Model)
	setString(&cfg.Judge.APIKeyEnv, d.Judge.APIKeyEnv)
	setUint(&cfg.Judge.MaxTokens, d.Judge.MaxTokens)
	setUint(&cfg.Judge.Concurrency, d.Judge.Concurrency)

	setString(&cfg.ClickLog.Provider, d.ClickLog.Provider)
	setString(&cfg.ClickLog.Topic, d.ClickLog.Topic)
	setString(&cfg.ClickLog.Analytics, d.ClickLog.Analytics)

	setUint(&cfg.Search.DefaultNumResults, d.Search.DefaultNumResults)
	if len(cfg.Search.ResultOptions) == 0 {
		cfg.Search.ResultOptions = d.Search.ResultOptions
	}
}

// SaveConfig persists the configuration to config.toml in the target .glimpse/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg, _, err := parseConfigTOML(data)
	return cfg, err
}

func parseConfigTOML(data []byte) (*Config, toml.MetaData, error) {
	cfg := &Config{}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, md, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, md, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, md, nil
}
