package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/glimpse/pkg/dotdir"
)

// InitViper creates a *viper.Viper seeded with NewDefaultConfig(), the
// config.toml found through dotdir resolution, and GLIMPSE_* environment
// variables.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (GLIMPSE_API_LISTEN, GLIMPSE_EMBEDDING_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix("GLIMPSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("images.folder", d.Images.Folder)
	v.SetDefault("images.watch", d.Images.Watch)

	v.SetDefault("api.listen", d.API.Listen)
	v.SetDefault("client.api_target", d.Client.APITarget)

	v.SetDefault("embedding.provider", d.Embedding.Provider)
	v.SetDefault("embedding.target", d.Embedding.Target)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.device", d.Embedding.Device)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.timeout_seconds", d.Embedding.TimeoutSeconds)

	v.SetDefault("metric.threshold", d.Metric.Threshold)
	v.SetDefault("metric.dot_product", d.Metric.DotProduct)
	v.SetDefault("metric.rank", d.Metric.Rank)

	v.SetDefault("cache.capacity", d.Cache.Capacity)
	v.SetDefault("cache.policy", d.Cache.Policy)

	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.collection", d.VectorStore.Collection)
	v.SetDefault("vector_store.sqlite_path", d.VectorStore.SQLitePath)
	v.SetDefault("vector_store.overwrite", d.VectorStore.Overwrite)

	v.SetDefault("judge.enabled", d.Judge.Enabled)
	v.SetDefault("judge.provider", d.Judge.Provider)
	v.SetDefault("judge.target", d.Judge.Target)
	v.SetDefault("judge.model", d.Judge.Model)
	v.SetDefault("judge.api_key_env", d.Judge.APIKeyEnv)
	v.SetDefault("judge.system_prompt", d.Judge.SystemPrompt)
	v.SetDefault("judge.max_tokens", d.Judge.MaxTokens)
	v.SetDefault("judge.concurrency", d.Judge.Concurrency)

	v.SetDefault("clicklog.provider", d.ClickLog.Provider)
	v.SetDefault("clicklog.brokers", d.ClickLog.Brokers)
	v.SetDefault("clicklog.topic", d.ClickLog.Topic)
	v.SetDefault("clicklog.analytics", d.ClickLog.Analytics)
	v.SetDefault("clicklog.postgres_dsn", d.ClickLog.PostgresDSN)

	v.SetDefault("search.default_num_results", d.Search.DefaultNumResults)
	v.SetDefault("search.result_options", d.Search.ResultOptions)
}

// FromViper materializes the effective Config from a viper instance built by
// InitViper, after flags have been bound.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		Images: ImagesConfig{
			Folder: v.GetString("images.folder"),
			Watch:  v.GetBool("images.watch"),
		},
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		Client: ClientConfig{
			APITarget: v.GetString("client.api_target"),
		},
		Embedding: EmbeddingConfig{
			Provider:       v.GetString("embedding.provider"),
			Target:         v.GetString("embedding.target"),
			Model:          v.GetString("embedding.model"),
			Device:         v.GetString("embedding.device"),
			Dimensions:     v.GetUint("embedding.dimensions"),
			TimeoutSeconds: v.GetUint("embedding.timeout_seconds"),
		},
		Metric: MetricConfig{
			Threshold:  v.GetFloat64("metric.threshold"),
			DotProduct: v.GetBool("metric.dot_product"),
			Rank:       v.GetBool("metric.rank"),
		},
		Cache: CacheConfig{
			Capacity: v.GetUint("cache.capacity"),
			Policy:   v.GetString("cache.policy"),
		},
		VectorStore: VectorStoreConfig{
			Provider:   v.GetString("vector_store.provider"),
			Target:     v.GetString("vector_store.target"),
			Collection: v.GetString("vector_store.collection"),
			SQLitePath: v.GetString("vector_store.sqlite_path"),
			Overwrite:  v.GetBool("vector_store.overwrite"),
		},
		Judge: JudgeConfig{
			Enabled:      v.GetBool("judge.enabled"),
			Provider:     v.GetString("judge.provider"),
			Target:       v.GetString("judge.target"),
			Model:        v.GetString("judge.model"),
			APIKeyEnv:    v.GetString("judge.api_key_env"),
			SystemPrompt: v.GetString("judge.system_prompt"),
			MaxTokens:    v.GetUint("judge.max_tokens"),
			Concurrency:  v.GetUint("judge.concurrency"),
		},
		ClickLog: ClickLogConfig{
			Provider:    v.GetString("clicklog.provider"),
			Brokers:     v.GetString("clicklog.brokers"),
			Topic:       v.GetString("clicklog.topic"),
			Analytics:   v.GetString("clicklog.analytics"),
			PostgresDSN: v.GetString("clicklog.postgres_dsn"),
		},
		Search: SearchConfig{
			DefaultNumResults: v.GetUint("search.default_num_results"),
			ResultOptions:     v.GetIntSlice("search.result_options"),
		},
	}
}
