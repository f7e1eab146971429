package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent glimpse configuration stored as config.toml
// in the .glimpse/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Images      ImagesConfig      `toml:"images"`
	API         APIConfig         `toml:"api"`
	Client      ClientConfig      `toml:"client"`
	Embedding   EmbeddingConfig   `toml:"embedding"`
	Metric      MetricConfig      `toml:"metric"`
	Cache       CacheConfig       `toml:"cache"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Judge       JudgeConfig       `toml:"judge"`
	ClickLog    ClickLogConfig    `toml:"clicklog"`
	Search      SearchConfig      `toml:"search"`
}

// ImagesConfig describes the image folder searched by default.
type ImagesConfig struct {
	Folder string `toml:"folder,omitempty"`

	// Watch enables the fsnotify watcher that indexes new files as they appear.
	Watch bool `toml:"watch,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ClientConfig holds settings for CLI commands that talk to a running API
// server. Values are full URLs (scheme + host + port).
type ClientConfig struct {
	APITarget string `toml:"api_target,omitempty"`
}

// EmbeddingConfig holds the embedding capability settings.
type EmbeddingConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Model      string `toml:"model,omitempty"`
	Device     string `toml:"device,omitempty"`
	Dimensions uint   `toml:"dimensions,omitempty"`

	// TimeoutSeconds bounds each capability call. Zero disables the timeout.
	TimeoutSeconds uint `toml:"timeout_seconds"`
}

// MetricConfig configures the similarity metric.
type MetricConfig struct {
	// Threshold is the minimum score kept by the metric. Zero is a valid
	// threshold, so the key is always written.
	Threshold float64 `toml:"threshold"`

	// DotProduct scores with the raw dot product instead of cosine similarity.
	DotProduct bool `toml:"dot_product,omitempty"`

	// Rank returns every candidate ordered by score instead of thresholding.
	Rank bool `toml:"rank,omitempty"`
}

// CacheConfig configures the embedding cache.
type CacheConfig struct {
	// Capacity is the maximum number of cached embeddings; 0 is unbounded.
	Capacity uint   `toml:"capacity,omitempty"`
	Policy   string `toml:"policy,omitempty"`
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider   string `toml:"provider,omitempty"`
	Target     string `toml:"target,omitempty"`
	Collection string `toml:"collection,omitempty"`
	SQLitePath string `toml:"sqlite_path,omitempty"`

	// Overwrite re-inserts embeddings even when the identifier is already stored.
	Overwrite bool `toml:"overwrite,omitempty"`
}

// JudgeConfig configures the optional vision-language judge stage.
type JudgeConfig struct {
	Enabled      bool   `toml:"enabled,omitempty"`
	Provider     string `toml:"provider,omitempty"`
	Target       string `toml:"target,omitempty"`
	Model        string `toml:"model,omitempty"`
	APIKeyEnv    string `toml:"api_key_env,omitempty"`
	SystemPrompt string `toml:"system_prompt,omitempty"`
	MaxTokens    uint   `toml:"max_tokens,omitempty"`
	Concurrency  uint   `toml:"concurrency,omitempty"`
}

// ClickLogConfig configures where image click events are published.
type ClickLogConfig struct {
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma separated list of kafka broker addresses.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`

	// Analytics selects the queryable click sink behind /v1/analytics
	// (none, memory, postgres).
	Analytics   string `toml:"analytics,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// BrokerList splits Brokers into trimmed, non-empty addresses.
func (c ClickLogConfig) BrokerList() []string {
	var out []string
	for _, b := range strings.Split(c.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// SearchConfig holds search entry point defaults.
type SearchConfig struct {
	DefaultNumResults uint  `toml:"default_num_results,omitempty"`
	ResultOptions     []int `toml:"result_options,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringKey(field func(c *Config) *string) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return *field(c) },
		set: func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

// uintZeroKey is uintKey for settings where zero is a meaningful value.
func uintZeroKey(name string, field func(c *Config) *uint) configKeyInfo {
	k := uintKey(name, field)
	k.get = func(c *Config) string { return strconv.FormatUint(uint64(*field(c)), 10) }
	return k
}

func boolKey(name string, field func(c *Config) *bool) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

func floatKey(name string, field func(c *Config) *float64) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return strconv.FormatFloat(*field(c), 'g', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = f
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"images.folder": stringKey(func(c *Config) *string { return &c.Images.Folder }),
	"images.watch":  boolKey("images.watch", func(c *Config) *bool { return &c.Images.Watch }),

	"api.listen":        stringKey(func(c *Config) *string { return &c.API.Listen }),
	"client.api_target": stringKey(func(c *Config) *string { return &c.Client.APITarget }),

	"embedding.provider":        stringKey(func(c *Config) *string { return &c.Embedding.Provider }),
	"embedding.target":          stringKey(func(c *Config) *string { return &c.Embedding.Target }),
	"embedding.model":           stringKey(func(c *Config) *string { return &c.Embedding.Model }),
	"embedding.device":          stringKey(func(c *Config) *string { return &c.Embedding.Device }),
	"embedding.dimensions":      uintKey("embedding.dimensions", func(c *Config) *uint { return &c.Embedding.Dimensions }),
	"embedding.timeout_seconds": uintZeroKey("embedding.timeout_seconds", func(c *Config) *uint { return &c.Embedding.TimeoutSeconds }),

	"metric.threshold":   floatKey("metric.threshold", func(c *Config) *float64 { return &c.Metric.Threshold }),
	"metric.dot_product": boolKey("metric.dot_product", func(c *Config) *bool { return &c.Metric.DotProduct }),
	"metric.rank":        boolKey("metric.rank", func(c *Config) *bool { return &c.Metric.Rank }),

	"cache.capacity": uintKey("cache.capacity", func(c *Config) *uint { return &c.Cache.Capacity }),
	"cache.policy":   stringKey(func(c *Config) *string { return &c.Cache.Policy }),

	"vector_store.provider":    stringKey(func(c *Config) *string { return &c.VectorStore.Provider }),
	"vector_store.target":      stringKey(func(c *Config) *string { return &c.VectorStore.Target }),
	"vector_store.collection":  stringKey(func(c *Config) *string { return &c.VectorStore.Collection }),
	"vector_store.sqlite_path": stringKey(func(c *Config) *string { return &c.VectorStore.SQLitePath }),
	"vector_store.overwrite":   boolKey("vector_store.overwrite", func(c *Config) *bool { return &c.VectorStore.Overwrite }),

	"judge.enabled":       boolKey("judge.enabled", func(c *Config) *bool { return &c.Judge.Enabled }),
	"judge.provider":      stringKey(func(c *Config) *string { return &c.Judge.Provider }),
	"judge.target":        stringKey(func(c *Config) *string { return &c.Judge.Target }),
	"judge.model":         stringKey(func(c *Config) *string { return &c.Judge.Model }),
	"judge.api_key_env":   stringKey(func(c *Config) *string { return &c.Judge.APIKeyEnv }),
	"judge.system_prompt": stringKey(func(c *Config) *string { return &c.Judge.SystemPrompt }),
	"judge.max_tokens":    uintKey("judge.max_tokens", func(c *Config) *uint { return &c.Judge.MaxTokens }),
	"judge.concurrency":   uintKey("judge.concurrency", func(c *Config) *uint { return &c.Judge.Concurrency }),

	"clicklog.provider": stringKey(func(c *Config) *string { return &c.ClickLog.Provider }),
	"clicklog.brokers":  stringKey(func(c *Config) *string { return &c.ClickLog.Brokers }),
	"clicklog.topic":    stringKey(func(c *Config) *string { return &c.ClickLog.Topic }),

	"clicklog.analytics":    stringKey(func(c *Config) *string { return &c.ClickLog.Analytics }),
	"clicklog.postgres_dsn": stringKey(func(c *Config) *string { return &c.ClickLog.PostgresDSN }),

	"search.default_num_results": uintKey("search.default_num_results", func(c *Config) *uint { return &c.Search.DefaultNumResults }),
}

// orderedConfigKeys lists the keys in TOML section order for display.
var orderedConfigKeys = []string{
	"images.folder",
	"images.watch",
	"api.listen",
	"client.api_target",
	"embedding.provider",
	"embedding.target",
	"embedding.model",
	"embedding.device",
	"embedding.dimensions",
	"embedding.timeout_seconds",
	"metric.threshold",
	"metric.dot_product",
	"metric.rank",
	"cache.capacity",
	"cache.policy",
	"vector_store.provider",
	"vector_store.target",
	"vector_store.collection",
	"vector_store.sqlite_path",
	"vector_store.overwrite",
	"judge.enabled",
	"judge.provider",
	"judge.target",
	"judge.model",
	"judge.api_key_env",
	"judge.system_prompt",
	"judge.max_tokens",
	"judge.concurrency",
	"clicklog.provider",
	"clicklog.brokers",
	"clicklog.topic",
	"clicklog.analytics",
	"clicklog.postgres_dsn",
	"search.default_num_results",
}
