// Package config loads layered application configuration: defaults, an
// optional YAML file, a .env file, and environment variables, in that order
// of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App      App      `mapstructure:"app"`
	AI       AI       `mapstructure:"ai"`
	Database Database `mapstructure:"database"`
	Server   Server   `mapstructure:"server"`
	Cache    Cache    `mapstructure:"cache"`
	Pipeline Pipeline `mapstructure:"pipeline"`
	Logging  Logging  `mapstructure:"logging"`
}

// App holds general application configuration.
type App struct {
	Debug   bool   `mapstructure:"debug"`
	DataDir string `mapstructure:"data_dir"`
}

// AI holds AI/LLM configuration.
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration.
type GeminiConfig struct {
	APIKey             string  `mapstructure:"api_key"`
	Model              string  `mapstructure:"model"`
	EmbeddingModel     string  `mapstructure:"embedding_model"`
	EmbeddingDimension int     `mapstructure:"embedding_dimension"`
	Timeout            string  `mapstructure:"timeout"`
	MaxTokens          int32   `mapstructure:"max_tokens"`
	Temperature        float32 `mapstructure:"temperature"`
}

// Database holds Postgres connection configuration, used both for tracked
// documents/runs storage and (when Cache.Backend == "postgres") the
// embedding cache.
type Database struct {
	ConnectionString string `mapstructure:"connection_string"`
	MaxConnections   int    `mapstructure:"max_connections"`
	IdleConnections  int    `mapstructure:"idle_connections"`
}

// Server holds HTTP server configuration for the surrounding HTTP surface.
type Server struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
	AdminAPIKey     string        `mapstructure:"admin_api_key"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Cache holds embedding-cache backend configuration.
type Cache struct {
	Backend    string `mapstructure:"backend"` // "postgres" | "sqlite"
	SQLitePath string `mapstructure:"sqlite_path"`
}

// Pipeline holds the conflict-detection pipeline's tunable knobs.
type Pipeline struct {
	SimilarityThreshold      float64 `mapstructure:"similarity_threshold"`
	MaxArticlesPerPage       int     `mapstructure:"max_articles_per_page"` // historical; unenforced, see DESIGN.md
	EmbeddingBatchSize       int     `mapstructure:"embedding_batch_size"`
	ExtractionConcurrency    int     `mapstructure:"extraction_concurrency"`
	ConsolidationConcurrency int     `mapstructure:"consolidation_concurrency"`
	BillsDirectory           string  `mapstructure:"bills_directory"`
}

// Logging holds logging configuration.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var globalConfig *Config

// Load loads the configuration from built-in defaults, an optional YAML
// config file, a .env file, and environment variables, in increasing order
// of precedence. Subsequent calls return the already-loaded configuration.
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".impactscan")
		viper.SetConfigType("yaml")
	}

	setDefaults()
	bindEnvironmentVariables()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it with defaults if
// necessary.
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// Reset clears the global configuration. Useful for tests.
func Reset() {
	globalConfig = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".impactscan-cache")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "15s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.shutdown_timeout", "10s")
	viper.SetDefault("server.cors.enabled", true)
	viper.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})

	viper.SetDefault("ai.gemini.model", "gemini-flash-lite-latest")
	viper.SetDefault("ai.gemini.embedding_model", "gemini-embedding-001")
	viper.SetDefault("ai.gemini.embedding_dimension", 1536)
	viper.SetDefault("ai.gemini.timeout", "30s")
	viper.SetDefault("ai.gemini.max_tokens", 4096)
	viper.SetDefault("ai.gemini.temperature", 0.2)

	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.idle_connections", 5)

	viper.SetDefault("cache.backend", "postgres")
	viper.SetDefault("cache.sqlite_path", ".impactscan-cache/embeddings.db")

	viper.SetDefault("pipeline.similarity_threshold", 0.325)
	viper.SetDefault("pipeline.max_articles_per_page", 10)
	viper.SetDefault("pipeline.embedding_batch_size", 100)
	viper.SetDefault("pipeline.extraction_concurrency", 128)
	viper.SetDefault("pipeline.consolidation_concurrency", 32)
	viper.SetDefault("pipeline.bills_directory", "bills")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

func bindEnvironmentVariables() {
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})
	bindEnvKeys("database.connection_string", []string{
		"DATABASE_URL",
		"POSTGRES_CONNECTION_STRING",
	})
	bindEnvKeys("server.admin_api_key", []string{
		"ADMIN_API_KEY",
	})
}

func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Cache.SQLitePath != "" {
		config.Cache.SQLitePath = expandPath(config.Cache.SQLitePath)
	}

	durations := map[string]string{
		"ai.gemini.timeout": config.AI.Gemini.Timeout,
	}
	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

func validateConfig(config *Config) error {
	var errors []string

	if config.AI.Gemini.APIKey == "" {
		errors = append(errors, "Gemini API key is required. Set GEMINI_API_KEY environment variable or ai.gemini.api_key in config file.")
	}

	switch config.Cache.Backend {
	case "postgres":
		if config.Database.ConnectionString == "" {
			errors = append(errors, "cache.backend=postgres requires database.connection_string (or DATABASE_URL)")
		}
	case "sqlite":
		// sqlite_path always has a default, nothing further to validate
	default:
		errors = append(errors, fmt.Sprintf("unknown cache.backend: %s (supported: postgres, sqlite)", config.Cache.Backend))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
