package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

// Catalog sources.
const (
	SourceFile     = "file"
	SourceS3       = "s3"
	SourcePostgres = "postgres"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	LLM   LLMConfig   `yaml:"llm"`
	FAQ   FAQConfig   `yaml:"faq"`
	Admin AdminConfig `yaml:"admin"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string          `yaml:"address"`
	ReadTimeout    time.Duration   `yaml:"readTimeout"`
	WriteTimeout   time.Duration   `yaml:"writeTimeout"`
	AllowedOrigins []string        `yaml:"allowedOrigins"`
	RateLimit      RateLimitConfig `yaml:"rateLimit"`
	Retry          RetryConfig     `yaml:"retry"`
}

// RateLimitConfig drives the request limiting middleware.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requestsPerMinute"`
	Burst             int  `yaml:"burst"`
}

// RetryConfig configures best-effort retries for idempotent requests.
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxAttempts int           `yaml:"maxAttempts"`
	BaseBackoff time.Duration `yaml:"baseBackoff"`
	Exclude     []string      `yaml:"exclude"`
}

// LLMConfig selects the embedding provider used by the dense strategy.
type LLMConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"apiKey"`
	BaseURL        string `yaml:"baseUrl"`
	EmbeddingModel string `yaml:"embeddingModel"`
	// Dim sizes the offline hash provider; remote providers report their own.
	Dim       int `yaml:"dim"`
	BatchSize int `yaml:"batchSize"`
}

// FAQConfig controls where the catalog comes from and how it is matched.
type FAQConfig struct {
	Source        string              `yaml:"source"`
	ArtifactDir   string              `yaml:"artifactDir"`
	FAQsFile      string              `yaml:"faqsFile"`
	CacheTTL      time.Duration       `yaml:"cacheTtl"`
	TrendingLimit int                 `yaml:"trendingLimit"`
	Lexical       LexicalConfig       `yaml:"lexical"`
	Strategies    StrategiesConfig    `yaml:"strategies"`
	ObjectStorage ObjectStorageConfig `yaml:"objectStorage"`
	Redis         RedisConfig         `yaml:"redis"`
	Postgres      PostgresConfig      `yaml:"postgres"`
}

// LexicalConfig tunes the TF-IDF build.
type LexicalConfig struct {
	Analyzer       string  `yaml:"analyzer"`
	NgramMax       int     `yaml:"ngramMax"`
	MaxDF          float64 `yaml:"maxDf"`
	IncludeAnswers bool    `yaml:"includeAnswers"`
}

// StrategiesConfig holds one calibrated policy per representation strategy.
type StrategiesConfig struct {
	Lexical StrategyConfig `yaml:"lexical"`
	Dense   StrategyConfig `yaml:"dense"`
}

// StrategyConfig is the confidence policy for one strategy.
type StrategyConfig struct {
	Threshold         float64 `yaml:"threshold"`
	Policy            string  `yaml:"policy"`
	SuggestionCount   int     `yaml:"suggestionCount"`
	ApologyMessage    string  `yaml:"apologyMessage"`
	PromptMessage     string  `yaml:"promptMessage"`
	ClarificationText string  `yaml:"clarificationText"`
	UnreadyMessage    string  `yaml:"unreadyMessage"`
}

// ObjectStorageConfig locates artifacts in S3-compatible storage.
type ObjectStorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// RedisConfig contains connection information for cache storage.
type RedisConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// PostgresConfig contains DSN and pooling settings.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

// AdminConfig protects the operational endpoints.
type AdminConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Secret   string        `yaml:"secret"`
	Issuer   string        `yaml:"issuer"`
	TokenTTL time.Duration `yaml:"tokenTtl"`
}

// MatchConfig converts the strategy policy into its domain form.
func (s StrategyConfig) MatchConfig() faq.MatchConfig {
	return faq.MatchConfig{
		Threshold:         s.Threshold,
		Policy:            faq.ClarifyPolicy(strings.ToLower(strings.TrimSpace(s.Policy))),
		SuggestionCount:   s.SuggestionCount,
		ApologyMessage:    s.ApologyMessage,
		PromptMessage:     s.PromptMessage,
		ClarificationText: s.ClarificationText,
		UnreadyMessage:    s.UnreadyMessage,
	}
}

// MatchPolicies returns the per-strategy policies keyed by strategy.
func (c FAQConfig) MatchPolicies() map[faq.Strategy]faq.MatchConfig {
	return map[faq.Strategy]faq.MatchConfig{
		faq.StrategyLexical: c.Strategies.Lexical.MatchConfig(),
		faq.StrategyDense:   c.Strategies.Dense.MatchConfig(),
	}
}

// Load reads configuration from defaults, a YAML file, an optional .env file
// and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := defaultConfig()

	// .env never overrides variables already present in the environment.
	dotenv := os.Getenv("DOTENV_PATH")
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load dotenv file: %w", err)
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	envString("HTTP_ADDRESS", &cfg.HTTP.Address)
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	envBool("HTTP_RATE_LIMIT_ENABLED", &cfg.HTTP.RateLimit.Enabled)
	envInt("HTTP_RATE_LIMIT_RPM", &cfg.HTTP.RateLimit.RequestsPerMinute)
	envInt("HTTP_RATE_LIMIT_BURST", &cfg.HTTP.RateLimit.Burst)
	envBool("HTTP_RETRY_ENABLED", &cfg.HTTP.Retry.Enabled)
	envInt("HTTP_RETRY_MAX_ATTEMPTS", &cfg.HTTP.Retry.MaxAttempts)
	envDuration("HTTP_RETRY_BASE_BACKOFF", &cfg.HTTP.Retry.BaseBackoff)

	envString("LLM_PROVIDER", &cfg.LLM.Provider)
	envString("LLM_API_KEY", &cfg.LLM.APIKey)
	envString("LLM_BASE_URL", &cfg.LLM.BaseURL)
	envString("LLM_EMBEDDING_MODEL", &cfg.LLM.EmbeddingModel)
	envInt("LLM_EMBEDDING_DIM", &cfg.LLM.Dim)
	envInt("LLM_BATCH_SIZE", &cfg.LLM.BatchSize)

	envString("FAQ_SOURCE", &cfg.FAQ.Source)
	envString("FAQ_ARTIFACT_DIR", &cfg.FAQ.ArtifactDir)
	envString("FAQ_FILE", &cfg.FAQ.FAQsFile)
	envDuration("FAQ_CACHE_TTL", &cfg.FAQ.CacheTTL)
	envInt("FAQ_TRENDING_LIMIT", &cfg.FAQ.TrendingLimit)
	envFloat("FAQ_LEXICAL_THRESHOLD", &cfg.FAQ.Strategies.Lexical.Threshold)
	envString("FAQ_LEXICAL_POLICY", &cfg.FAQ.Strategies.Lexical.Policy)
	envFloat("FAQ_DENSE_THRESHOLD", &cfg.FAQ.Strategies.Dense.Threshold)
	envString("FAQ_DENSE_POLICY", &cfg.FAQ.Strategies.Dense.Policy)
	envInt("FAQ_DENSE_SUGGESTIONS", &cfg.FAQ.Strategies.Dense.SuggestionCount)

	envString("FAQ_S3_ENDPOINT", &cfg.FAQ.ObjectStorage.Endpoint)
	envString("FAQ_S3_ACCESS_KEY", &cfg.FAQ.ObjectStorage.AccessKey)
	envString("FAQ_S3_SECRET_KEY", &cfg.FAQ.ObjectStorage.SecretKey)
	envString("FAQ_S3_BUCKET", &cfg.FAQ.ObjectStorage.Bucket)
	envString("FAQ_S3_REGION", &cfg.FAQ.ObjectStorage.Region)
	envString("FAQ_S3_PREFIX", &cfg.FAQ.ObjectStorage.Prefix)

	envBool("FAQ_REDIS_ENABLED", &cfg.FAQ.Redis.Enabled)
	envString("FAQ_REDIS_ADDR", &cfg.FAQ.Redis.Addr)
	envString("FAQ_POSTGRES_DSN", &cfg.FAQ.Postgres.DSN)
	if v := os.Getenv("FAQ_POSTGRES_MAX_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.FAQ.Postgres.MaxConns = int32(parsed)
		}
	}
	if v := os.Getenv("FAQ_POSTGRES_MIN_CONNS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.FAQ.Postgres.MinConns = int32(parsed)
		}
	}

	envBool("ADMIN_ENABLED", &cfg.Admin.Enabled)
	envString("ADMIN_JWT_SECRET", &cfg.Admin.Secret)
	envDuration("ADMIN_TOKEN_TTL", &cfg.Admin.TokenTTL)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			*dst = parsed
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = parsed
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = v == "1" || strings.EqualFold(v, "true")
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   10 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
				Burst:             20,
			},
			Retry: RetryConfig{
				Enabled:     true,
				MaxAttempts: 3,
				BaseBackoff: 150 * time.Millisecond,
				Exclude: []string{
					"/api/v1/admin/reload",
				},
			},
		},
		LLM: LLMConfig{
			Provider:       "hash",
			EmbeddingModel: "text-embedding-3-small",
			Dim:            256,
			BatchSize:      32,
		},
		FAQ: FAQConfig{
			Source:        SourceFile,
			ArtifactDir:   "data/index",
			FAQsFile:      "data/faqs.json",
			CacheTTL:      6 * time.Hour,
			TrendingLimit: 10,
			Lexical: LexicalConfig{
				Analyzer:       "en",
				NgramMax:       2,
				MaxDF:          0.85,
				IncludeAnswers: false,
			},
			Strategies: StrategiesConfig{
				Lexical: StrategyConfig{
					Threshold:      0.45,
					Policy:         string(faq.ClarifyApology),
					ApologyMessage: faq.DefaultApologyMessage,
				},
				Dense: StrategyConfig{
					Threshold:         0.55,
					Policy:            string(faq.ClarifySuggest),
					SuggestionCount:   3,
					PromptMessage:     faq.DefaultPromptMessage,
					ClarificationText: faq.DefaultClarificationText,
				},
			},
			Postgres: PostgresConfig{
				MaxConns: 4,
			},
		},
		Admin: AdminConfig{
			Enabled:  false,
			Issuer:   "faq-matcher",
			TokenTTL: time.Hour,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if c.HTTP.RateLimit.Enabled {
		if c.HTTP.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("http.rateLimit.requestsPerMinute must be positive")
		}
		if c.HTTP.RateLimit.Burst <= 0 {
			return errors.New("http.rateLimit.burst must be positive")
		}
	}
	if c.HTTP.Retry.Enabled {
		if c.HTTP.Retry.MaxAttempts <= 0 {
			return errors.New("http.retry.maxAttempts must be positive")
		}
		if c.HTTP.Retry.BaseBackoff <= 0 {
			return errors.New("http.retry.baseBackoff must be positive")
		}
	}

	switch c.FAQ.Source {
	case SourceFile:
		if strings.TrimSpace(c.FAQ.ArtifactDir) == "" {
			return errors.New("faq.artifactDir cannot be empty for the file source")
		}
	case SourceS3:
		if strings.TrimSpace(c.FAQ.ObjectStorage.Bucket) == "" || strings.TrimSpace(c.FAQ.ObjectStorage.Endpoint) == "" {
			return errors.New("faq.objectStorage.endpoint and bucket are required for the s3 source")
		}
	case SourcePostgres:
		if strings.TrimSpace(c.FAQ.Postgres.DSN) == "" {
			return errors.New("faq.postgres.dsn is required for the postgres source")
		}
	default:
		return fmt.Errorf("faq.source must be one of file, s3, postgres; got %q", c.FAQ.Source)
	}
	if c.FAQ.CacheTTL < 0 {
		return errors.New("faq.cacheTtl cannot be negative")
	}
	if c.FAQ.TrendingLimit < 0 {
		return errors.New("faq.trendingLimit cannot be negative")
	}
	if c.FAQ.Lexical.MaxDF <= 0 || c.FAQ.Lexical.MaxDF > 1 {
		return errors.New("faq.lexical.maxDf must be within (0,1]")
	}
	if err := c.FAQ.Strategies.Lexical.MatchConfig().Validate(); err != nil {
		return fmt.Errorf("faq.strategies.lexical: %w", err)
	}
	if err := c.FAQ.Strategies.Dense.MatchConfig().Validate(); err != nil {
		return fmt.Errorf("faq.strategies.dense: %w", err)
	}
	if c.FAQ.Redis.Enabled && strings.TrimSpace(c.FAQ.Redis.Addr) == "" {
		return errors.New("faq.redis.addr cannot be empty when redis cache is enabled")
	}

	if strings.TrimSpace(c.LLM.Provider) == "" {
		return errors.New("llm.provider cannot be empty")
	}
	if c.Admin.Enabled && len(c.Admin.Secret) < 16 {
		return errors.New("admin.secret must be at least 16 characters when admin is enabled")
	}
	return nil
}
