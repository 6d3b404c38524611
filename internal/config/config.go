package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the newsdex personalization service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Engine    EngineConfig    `yaml:"engine"`
	Index     IndexConfig     `yaml:"index"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW index settings for the chunk index.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider            string       `yaml:"provider"`
	APIKey              string       `yaml:"api_key"`
	BaseURL             string       `yaml:"base_url"`
	Model               string       `yaml:"model"`
	Dimensions          int          `yaml:"dimensions"`
	QueryInstruction    string       `yaml:"query_instruction"`
	DocumentInstruction string       `yaml:"document_instruction"`
	TimeoutSec          int          `yaml:"timeout_sec"`
	Budget              BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// EngineConfig groups personalization engine settings.
type EngineConfig struct {
	Learner LearnerConfig `yaml:"learner"`
	Query   QueryConfig   `yaml:"query"`
	Feed    FeedConfig    `yaml:"feed"`
	Ingest  IngestConfig  `yaml:"ingest"`
}

// LearnerConfig holds interaction learner thresholds.
type LearnerConfig struct {
	MaxStoredInteractions  int     `yaml:"max_stored_interactions"`
	AnalysisWindow         int     `yaml:"analysis_window"`
	MinInteractions        int     `yaml:"min_interactions"`
	ConfidenceTau          float64 `yaml:"confidence_tau"`
	CommitThreshold        float64 `yaml:"commit_threshold"`
	SignificantVolume      int     `yaml:"significant_volume"`
	RatioEpsilon           float64 `yaml:"ratio_epsilon"`
	EmergingWindowHours    int     `yaml:"emerging_window_hours"`
	EmergingMinCount       int     `yaml:"emerging_min_count"`
	PreferredRatioMin      float64 `yaml:"preferred_ratio_min"`
	DecliningNegativeRatio float64 `yaml:"declining_negative_ratio"`
	StoreTimeoutSec        int     `yaml:"store_timeout_sec"`
}

// QueryConfig holds preference-to-query converter settings.
type QueryConfig struct {
	FallbackText string `yaml:"fallback_text"`
}

// FeedConfig holds search and ranking settings.
type FeedConfig struct {
	MaxResults          int     `yaml:"max_results"`
	MinRelevanceScore   float64 `yaml:"min_relevance_score"`
	CandidateMultiplier int     `yaml:"candidate_multiplier"`
	CategoryBoost       float64 `yaml:"category_boost"`
	SourceBoost         float64 `yaml:"source_boost"`
	RecencyMaxBoost     float64 `yaml:"recency_max_boost"`
	RecencyDecayHours   float64 `yaml:"recency_decay_hours"`
	TrendingScanLimit   int     `yaml:"trending_scan_limit"`
	IndexTimeoutSec     int     `yaml:"index_timeout_sec"`
}

// IngestConfig holds article chunking settings.
type IngestConfig struct {
	ChunkWords   int `yaml:"chunk_words"`
	OverlapWords int `yaml:"overlap_words"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 32
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 400
	}
	if c.Embedding.TimeoutSec <= 0 {
		c.Embedding.TimeoutSec = 10
	}

	l := &c.Engine.Learner
	if l.MaxStoredInteractions <= 0 {
		l.MaxStoredInteractions = 1000
	}
	if l.AnalysisWindow <= 0 {
		l.AnalysisWindow = 100
	}
	if l.MinInteractions <= 0 {
		l.MinInteractions = 5
	}
	if l.ConfidenceTau <= 0 {
		l.ConfidenceTau = 24
	}
	if l.CommitThreshold <= 0 {
		l.CommitThreshold = 0.3
	}
	if l.SignificantVolume <= 0 {
		l.SignificantVolume = 3
	}
	if l.RatioEpsilon <= 0 {
		l.RatioEpsilon = 0.05
	}
	if l.EmergingWindowHours <= 0 {
		l.EmergingWindowHours = 48
	}
	if l.EmergingMinCount <= 0 {
		l.EmergingMinCount = 2
	}
	if l.PreferredRatioMin <= 0 {
		l.PreferredRatioMin = 0.7
	}
	if l.DecliningNegativeRatio <= 0 {
		l.DecliningNegativeRatio = 0.5
	}
	if l.StoreTimeoutSec <= 0 {
		l.StoreTimeoutSec = 5
	}

	if c.Engine.Query.FallbackText == "" {
		c.Engine.Query.FallbackText = "general news current events"
	}

	f := &c.Engine.Feed
	if f.MaxResults <= 0 {
		f.MaxResults = 15
	}
	if f.MinRelevanceScore <= 0 {
		f.MinRelevanceScore = 0.3
	}
	if f.CandidateMultiplier <= 0 {
		f.CandidateMultiplier = 3
	}
	if f.CategoryBoost <= 0 {
		f.CategoryBoost = 1.3
	}
	if f.SourceBoost <= 0 {
		f.SourceBoost = 1.2
	}
	if f.RecencyMaxBoost <= 0 {
		f.RecencyMaxBoost = 1.25
	}
	if f.RecencyDecayHours <= 0 {
		f.RecencyDecayHours = 48
	}
	if f.TrendingScanLimit <= 0 {
		f.TrendingScanLimit = 500
	}
	if f.IndexTimeoutSec <= 0 {
		f.IndexTimeoutSec = 5
	}

	if c.Engine.Ingest.ChunkWords <= 0 {
		c.Engine.Ingest.ChunkWords = 200
	}
	if c.Engine.Ingest.OverlapWords < 0 {
		c.Engine.Ingest.OverlapWords = 0
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}
	if c.Engine.Learner.CommitThreshold > 1 {
		return fmt.Errorf("engine.learner.commit_threshold must be in (0,1], got %f",
			c.Engine.Learner.CommitThreshold)
	}
	if c.Engine.Feed.RecencyMaxBoost < 1 {
		return fmt.Errorf("engine.feed.recency_max_boost must be >= 1, got %f",
			c.Engine.Feed.RecencyMaxBoost)
	}
	if c.Engine.Ingest.OverlapWords >= c.Engine.Ingest.ChunkWords {
		return fmt.Errorf("engine.ingest.overlap_words must be smaller than chunk_words")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
