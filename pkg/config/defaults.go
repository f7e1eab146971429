package config

const (
	defaultImageFolder = "images"

	defaultAPIListen       = ":8081"
	defaultClientAPITarget = "http://localhost:8081"

	defaultEmbeddingProvider = "clip"
	defaultEmbeddingTarget   = "http://localhost:51000"
	defaultEmbeddingModel    = "openai/clip-vit-base-patch32"
	defaultEmbeddingDevice   = "cpu"
	defaultEmbeddingDims     = 512
	defaultEmbeddingTimeout  = 60

	defaultMetricThreshold = 0.20

	defaultCachePolicy = "lru"

	defaultVectorProvider   = "memory"
	defaultVectorCollection = "glimpse"

	defaultJudgeProvider    = "ollama"
	defaultJudgeTarget      = "http://localhost:11434"
	defaultJudgeModel       = "qwen2.5vl:7b"
	defaultJudgeAPIKeyEnv   = "OPENAI_API_KEY"
	defaultJudgeMaxTokens   = 128
	defaultJudgeConcurrency = 1

	defaultClickLogProvider = "nop"
	defaultClickLogTopic    = "glimpse.clicks"
	defaultClickAnalytics   = "memory"

	defaultNumResults = 5
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Images: ImagesConfig{
			Folder: defaultImageFolder,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Client: ClientConfig{
			APITarget: defaultClientAPITarget,
		},
		Embedding: EmbeddingConfig{
			Provider:       defaultEmbeddingProvider,
			Target:         defaultEmbeddingTarget,
			Model:          defaultEmbeddingModel,
			Device:         defaultEmbeddingDevice,
			Dimensions:     defaultEmbeddingDims,
			TimeoutSeconds: defaultEmbeddingTimeout,
		},
		Metric: MetricConfig{
			Threshold: defaultMetricThreshold,
		},
		Cache: CacheConfig{
			Policy: defaultCachePolicy,
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Collection: defaultVectorCollection,
		},
		Judge: JudgeConfig{
			Provider:    defaultJudgeProvider,
			Target:      defaultJudgeTarget,
			Model:       defaultJudgeModel,
			APIKeyEnv:   defaultJudgeAPIKeyEnv,
			MaxTokens:   defaultJudgeMaxTokens,
			Concurrency: defaultJudgeConcurrency,
		},
		ClickLog: ClickLogConfig{
			Provider:  defaultClickLogProvider,
			Topic:     defaultClickLogTopic,
			Analytics: defaultClickAnalytics,
		},
		Search: SearchConfig{
			DefaultNumResults: defaultNumResults,
			ResultOptions:     []int{1, 5, 10},
		},
	}
}
