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

// Config holds the laborlens engine configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Dataset   DatasetConfig   `yaml:"dataset"`
	Engine    EngineConfig    `yaml:"engine"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the vector-search backend connection settings. An
// empty address list disables the vector-search capability; computational
// queries still work.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	Provider   string `yaml:"provider"`
}

// DatasetConfig holds the normalized dataset source settings.
type DatasetConfig struct {
	Path string `yaml:"path"` // JSON-lines snapshot of normalized records
}

// EngineConfig holds the retrieval and clustering knobs.
type EngineConfig struct {
	TaskClusters        int     `yaml:"task_clusters"`
	ActivityClusters    int     `yaml:"activity_clusters"`
	OccupationClusters  int     `yaml:"occupation_clusters"`
	SampleThreshold     int     `yaml:"sample_threshold"`
	SampleSize          int     `yaml:"sample_size"`
	MaxFeatures         int     `yaml:"max_features"`
	ComponentCap        int     `yaml:"component_cap"`
	Seed                int64   `yaml:"seed"`
	TopK                int     `yaml:"top_k"`
	MaxTopK             int     `yaml:"max_top_k"`
	EvidenceCap         int     `yaml:"evidence_cap"`
	SemanticWeight      float64 `yaml:"semantic_weight"`
	StatWeight          float64 `yaml:"stat_weight"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
	HourlyValueRate     float64 `yaml:"hourly_value_rate"`
	SearchTimeoutSec    int     `yaml:"search_timeout_sec"`
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "laborlens:"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Engine.TaskClusters <= 0 {
		c.Engine.TaskClusters = 15
	}
	if c.Engine.ActivityClusters <= 0 {
		c.Engine.ActivityClusters = 10
	}
	if c.Engine.OccupationClusters <= 0 {
		c.Engine.OccupationClusters = 20
	}
	if c.Engine.SampleThreshold <= 0 {
		c.Engine.SampleThreshold = 100_000
	}
	if c.Engine.SampleSize <= 0 {
		c.Engine.SampleSize = 10_000
	}
	if c.Engine.MaxFeatures <= 0 {
		c.Engine.MaxFeatures = 500
	}
	if c.Engine.ComponentCap <= 0 {
		c.Engine.ComponentCap = 100
	}
	if c.Engine.Seed == 0 {
		c.Engine.Seed = 42
	}
	if c.Engine.TopK <= 0 {
		c.Engine.TopK = 10
	}
	if c.Engine.MaxTopK <= 0 {
		c.Engine.MaxTopK = 50
	}
	if c.Engine.EvidenceCap <= 0 {
		c.Engine.EvidenceCap = 20
	}
	if c.Engine.SemanticWeight <= 0 && c.Engine.StatWeight <= 0 {
		c.Engine.SemanticWeight = 0.5
		c.Engine.StatWeight = 0.5
	}
	if c.Engine.SimilarityThreshold <= 0 {
		c.Engine.SimilarityThreshold = 0.7
	}
	if c.Engine.HourlyValueRate <= 0 {
		c.Engine.HourlyValueRate = 50
	}
	if c.Engine.SearchTimeoutSec <= 0 {
		c.Engine.SearchTimeoutSec = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Dataset.Path == "" {
		return fmt.Errorf("dataset.path is required")
	}
	if len(c.Database.Addrs) > 0 {
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required when database.addrs is set")
		}
		if c.Embedding.Dimensions <= 0 {
			return fmt.Errorf("embedding.dimensions must be positive, got %d", c.Embedding.Dimensions)
		}
	}
	if c.Engine.SimilarityThreshold > 1 {
		return fmt.Errorf("engine.similarity_threshold must be in (0, 1], got %g",
			c.Engine.SimilarityThreshold)
	}
	if c.Engine.TopK > c.Engine.MaxTopK {
		return fmt.Errorf("engine.top_k %d exceeds engine.max_top_k %d",
			c.Engine.TopK, c.Engine.MaxTopK)
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
