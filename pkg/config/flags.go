package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag. Commands reference flags
// by registry key so names, shorthands, defaults and descriptions cannot drift
// between "glimpse serve", "glimpse search --local" and "glimpse index".
type Flag struct {
	// Name is the long flag name (e.g. "embedding-target").
	Name string

	// Shorthand is the one-letter short flag. Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "embedding.target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of registry keys to flag definitions.
type FlagSet map[string]Flag

// Flag registry keys.
const (
	FlagAPIListen       = "api-listen"
	FlagAPITarget       = "api-target"
	FlagImages          = "images"
	FlagWatch           = "watch"
	FlagEmbeddingProv   = "embedding-provider"
	FlagEmbeddingTgt    = "embedding-target"
	FlagEmbeddingModel  = "embedding-model"
	FlagEmbeddingDevice = "embedding-device"
	FlagEmbeddingDims   = "embedding-dimensions"
	FlagThreshold       = "threshold"
	FlagRank            = "rank"
	FlagCacheCapacity   = "cache-capacity"
	FlagVectorStoreProv = "vector-store-provider"
	FlagVectorStoreTgt  = "vector-store-target"
	FlagSQLite          = "sqlite"
	FlagJudge           = "judge"
	FlagJudgeProvider   = "judge-provider"
	FlagJudgeModel      = "judge-model"
	FlagClickLogProv    = "clicklog-provider"
	FlagClickLogBrokers = "clicklog-brokers"
	FlagClickAnalytics  = "clicklog-analytics"
	FlagClickPostgres   = "clicklog-postgres-dsn"
)

// Flags is the registry shared by every glimpse command.
var Flags = FlagSet{
	FlagAPIListen:       {Name: "listen", Shorthand: "l", ViperKey: "api.listen", Description: "Address for the API server to listen on"},
	FlagAPITarget:       {Name: "api-target", ViperKey: "client.api_target", Description: "Glimpse API server URL"},
	FlagImages:          {Name: "images", Shorthand: "i", ViperKey: "images.folder", Description: "Folder containing the images to search"},
	FlagWatch:           {Name: "watch", ViperKey: "images.watch", Description: "Index new images as they are added to the folder"},
	FlagEmbeddingProv:   {Name: "embedding-provider", ViperKey: "embedding.provider", Description: "Embedding provider type (clip)"},
	FlagEmbeddingTgt:    {Name: "embedding-target", ViperKey: "embedding.target", Description: "Embedding server URL"},
	FlagEmbeddingModel:  {Name: "embedding-model", ViperKey: "embedding.model", Description: "Embedding model identifier"},
	FlagEmbeddingDevice: {Name: "embedding-device", ViperKey: "embedding.device", Description: "Compute device requested from the embedding server (cpu, cuda:0, mps)"},
	FlagEmbeddingDims:   {Name: "embedding-dimensions", ViperKey: "embedding.dimensions", Description: "Embedding dimensions"},
	FlagThreshold:       {Name: "threshold", ViperKey: "metric.threshold", Description: "Minimum similarity for an image to match"},
	FlagRank:            {Name: "rank", ViperKey: "metric.rank", Description: "Rank every image by similarity instead of thresholding"},
	FlagCacheCapacity:   {Name: "cache-capacity", ViperKey: "cache.capacity", Description: "Maximum cached embeddings (0 = unbounded)"},
	FlagVectorStoreProv: {Name: "vector-store-provider", ViperKey: "vector_store.provider", Description: "Vector store provider type (memory, sqlite, chroma, qdrant)"},
	FlagVectorStoreTgt:  {Name: "vector-store-target", ViperKey: "vector_store.target", Description: "Vector store target URL or address"},
	FlagSQLite:          {Name: "sqlite", Shorthand: "s", ViperKey: "vector_store.sqlite_path", Description: "Path to the SQLite vector index"},
	FlagJudge:           {Name: "judge", ViperKey: "judge.enabled", Description: "Append a vision-language judge stage to the pipeline"},
	FlagJudgeProvider:   {Name: "judge-provider", ViperKey: "judge.provider", Description: "Judge provider type (ollama, openai)"},
	FlagJudgeModel:      {Name: "judge-model", ViperKey: "judge.model", Description: "Judge model identifier"},
	FlagClickLogProv:    {Name: "clicklog-provider", ViperKey: "clicklog.provider", Description: "Click event publisher (nop, kafka)"},
	FlagClickLogBrokers: {Name: "clicklog-brokers", ViperKey: "clicklog.brokers", Description: "Comma separated kafka brokers for click events"},
	FlagClickAnalytics:  {Name: "clicklog-analytics", ViperKey: "clicklog.analytics", Description: "Queryable click sink for analytics (none, memory, postgres)"},
	FlagClickPostgres:   {Name: "clicklog-postgres-dsn", ViperKey: "clicklog.postgres_dsn", Description: "PostgreSQL connection string for the postgres click sink"},
}

// PipelineFlags are the flags every command that builds a local pipeline registers.
var PipelineFlags = []string{
	FlagImages,
	FlagEmbeddingProv,
	FlagEmbeddingTgt,
	FlagEmbeddingModel,
	FlagEmbeddingDevice,
	FlagEmbeddingDims,
	FlagThreshold,
	FlagRank,
	FlagCacheCapacity,
	FlagVectorStoreProv,
	FlagVectorStoreTgt,
	FlagSQLite,
	FlagJudge,
	FlagJudgeProvider,
	FlagJudgeModel,
}

// AddFlags registers the given registry keys on cmd with defaults taken
// from NewDefaultConfig. The flag type follows the viper default's type.
func AddFlags(cmd *cobra.Command, fs FlagSet, keys []string) {
	d := viper.New()
	setViperDefaults(d)

	for _, key := range keys {
		def, ok := fs[key]
		if !ok {
			continue
		}

		switch d.Get(def.ViperKey).(type) {
		case bool:
			cmd.Flags().BoolP(def.Name, def.Shorthand, d.GetBool(def.ViperKey), def.Description)
		case uint:
			cmd.Flags().UintP(def.Name, def.Shorthand, d.GetUint(def.ViperKey), def.Description)
		case float64:
			cmd.Flags().Float64P(def.Name, def.Shorthand, d.GetFloat64(def.ViperKey), def.Description)
		default:
			cmd.Flags().StringP(def.Name, def.Shorthand, d.GetString(def.ViperKey), def.Description)
		}
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}
