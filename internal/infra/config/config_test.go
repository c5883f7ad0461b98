package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-matcher/internal/domain/faq"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DOTENV_PATH", filepath.Join(dir, "missing.env"))
	t.Setenv("CONFIG_PATH", "")
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, SourceFile, cfg.FAQ.Source)
	require.False(t, cfg.FAQ.Lexical.IncludeAnswers)

	policies := cfg.FAQ.MatchPolicies()
	require.Equal(t, 0.45, policies[faq.StrategyLexical].Threshold)
	require.Equal(t, faq.ClarifyApology, policies[faq.StrategyLexical].Policy)
	require.Equal(t, 0.55, policies[faq.StrategyDense].Threshold)
	require.Equal(t, faq.ClarifySuggest, policies[faq.StrategyDense].Policy)
	require.Equal(t, 3, policies[faq.StrategyDense].SuggestionCount)
}

func TestLoadFileDotenvAndEnvPrecedence(t *testing.T) {
	dir := isolate(t)
	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
faq:
  artifactDir: /srv/index
  cacheTtl: 1m
  strategies:
    lexical:
      threshold: 0.3
      policy: suggest
      suggestionCount: 2
llm:
  provider: ollama
`), 0o644))
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("LLM_EMBEDDING_MODEL=nomic-embed-text\nFAQ_TRENDING_LIMIT=7\n"), 0o644))

	t.Setenv("CONFIG_PATH", yamlPath)
	t.Setenv("DOTENV_PATH", envPath)
	// godotenv writes straight into the process environment
	t.Cleanup(func() { _ = os.Unsetenv("LLM_EMBEDDING_MODEL") })
	t.Setenv("FAQ_TRENDING_LIMIT", "3")
	t.Setenv("FAQ_DENSE_THRESHOLD", "0.6")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/srv/index", cfg.FAQ.ArtifactDir)
	require.Equal(t, time.Minute, cfg.FAQ.CacheTTL)
	require.Equal(t, "ollama", cfg.LLM.Provider)
	require.Equal(t, "nomic-embed-text", cfg.LLM.EmbeddingModel)
	require.Equal(t, 3, cfg.FAQ.TrendingLimit)
	require.Equal(t, 0.6, cfg.FAQ.Strategies.Dense.Threshold)
	require.Equal(t, faq.ClarifySuggest, cfg.FAQ.Strategies.Lexical.MatchConfig().Policy)
	require.Equal(t, 2, cfg.FAQ.Strategies.Lexical.SuggestionCount)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown source":       func(c *Config) { c.FAQ.Source = "ftp" },
		"s3 without bucket":    func(c *Config) { c.FAQ.Source = SourceS3 },
		"postgres without dsn": func(c *Config) { c.FAQ.Source = SourcePostgres },
		"threshold above one":  func(c *Config) { c.FAQ.Strategies.Lexical.Threshold = 1.5 },
		"unknown policy":       func(c *Config) { c.FAQ.Strategies.Dense.Policy = "shrug" },
		"suggest without k":    func(c *Config) { c.FAQ.Strategies.Dense.SuggestionCount = 0 },
		"short admin secret": func(c *Config) {
			c.Admin.Enabled = true
			c.Admin.Secret = "short"
		},
		"redis without addr": func(c *Config) { c.FAQ.Redis.Enabled = true },
		"bad max df":         func(c *Config) { c.FAQ.Lexical.MaxDF = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultConfig()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestShippedConfigKeepsQuestionOnlyLexicalDocuments(t *testing.T) {
	shipped, err := filepath.Abs(filepath.Join("..", "..", "..", "configs", "config.yaml"))
	require.NoError(t, err)
	isolate(t)
	t.Setenv("CONFIG_PATH", shipped)

	cfg, err := Load()
	require.NoError(t, err)
	require.False(t, cfg.FAQ.Lexical.IncludeAnswers)
	require.Equal(t, defaultConfig().FAQ.Lexical, cfg.FAQ.Lexical)
}
