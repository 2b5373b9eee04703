package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Typesense   TypesenseConfig
	OTEL        OTELConfig
	Logging     LoggingConfig
	Suggestions SuggestionConfig
	Cleanup     CleanupConfig
	Jobs        JobsConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration. An empty URL disables the
// suggestion index mirror.
type TypesenseConfig struct {
	URL    string
	APIKey string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Env   string
	Level string
}

// SuggestionConfig holds the knobs of the suggestion mining and lookup pipeline
type SuggestionConfig struct {
	TitleWholeWeight     int
	TitleWordWeight      int
	FieldWeight          int
	CharacterWordWeight  int
	AtmosphereWordWeight int
	ContentMaxWeight     int
	ContentTopN          int
	RepeatBoostCap       int

	// Extra stopwords appended to the defaults of each field family
	TitleStopwordsExtra     []string
	CharacterStopwordsExtra []string
	ContentStopwordsExtra   []string

	// StopwordsFile optionally names a YAML file with more extras
	StopwordsFile string

	// FallbackOrder lists the scene fields scanned when the store is sparse
	FallbackOrder []string

	AccumulationMode string
	BatchSize        int
	DefaultLimit     int
	MaxLimit         int
	CacheTTL         time.Duration
}

// CleanupConfig holds the defaults of the cleanup job
type CleanupConfig struct {
	MinFrequency int
	MaxAgeDays   int
}

// JobsConfig holds settings for maintenance jobs
type JobsConfig struct {
	LockKey string
	LockTTL time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "scenes"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:    getEnv("TYPESENSE_URL", ""),
			APIKey: getEnv("TYPESENSE_API_KEY", "xyz"),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "scene-suggestions"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
		Logging: LoggingConfig{
			Env:   getEnv("APP_ENV", "development"),
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Suggestions: SuggestionConfig{
			TitleWholeWeight:     getEnvAsInt("SUGGEST_TITLE_WEIGHT", 2),
			TitleWordWeight:      getEnvAsInt("SUGGEST_TITLE_WORD_WEIGHT", 1),
			FieldWeight:          getEnvAsInt("SUGGEST_FIELD_WEIGHT", 3),
			CharacterWordWeight:  getEnvAsInt("SUGGEST_CHARACTER_WEIGHT", 1),
			AtmosphereWordWeight: getEnvAsInt("SUGGEST_ATMOSPHERE_WEIGHT", 1),
			ContentMaxWeight:     getEnvAsInt("SUGGEST_CONTENT_MAX_WEIGHT", 5),
			ContentTopN:          getEnvAsInt("SUGGEST_CONTENT_TOP_N", 30),
			RepeatBoostCap:       getEnvAsInt("SUGGEST_REPEAT_BOOST_CAP", 3),

			TitleStopwordsExtra:     getEnvAsList("SUGGEST_TITLE_STOPWORDS", nil),
			CharacterStopwordsExtra: getEnvAsList("SUGGEST_CHARACTER_STOPWORDS", nil),
			ContentStopwordsExtra:   getEnvAsList("SUGGEST_CONTENT_STOPWORDS", nil),

			StopwordsFile: getEnv("SUGGEST_STOPWORDS_FILE", ""),

			FallbackOrder: getEnvAsList("SUGGEST_FALLBACK_ORDER", []string{"title", "country", "setting", "emotion"}),

			AccumulationMode: getEnv("SUGGEST_ACCUMULATION_MODE", "additive"),
			BatchSize:        getEnvAsInt("SUGGEST_BATCH_SIZE", 0),
			DefaultLimit:     getEnvAsInt("SUGGEST_DEFAULT_LIMIT", 10),
			MaxLimit:         getEnvAsInt("SUGGEST_MAX_LIMIT", 50),
			CacheTTL:         getEnvAsDuration("SUGGEST_CACHE_TTL", 3*time.Minute),
		},
		Cleanup: CleanupConfig{
			MinFrequency: getEnvAsInt("CLEANUP_MIN_FREQUENCY", 1),
			MaxAgeDays:   getEnvAsInt("CLEANUP_MAX_AGE_DAYS", 0),
		},
		Jobs: JobsConfig{
			LockKey: getEnv("JOB_LOCK_KEY", "jobs:suggestions:lock"),
			LockTTL: getEnvAsDuration("JOB_LOCK_TTL", 30*time.Minute),
		},
	}

	if cfg.Suggestions.StopwordsFile != "" {
		if err := cfg.Suggestions.MergeStopwordFile(cfg.Suggestions.StopwordsFile); err != nil {
			return nil, err
		}
	}

	if err := cfg.Suggestions.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects settings the suggestion pipeline cannot run with
func (c *SuggestionConfig) Validate() error {
	switch c.AccumulationMode {
	case "additive", "reconcile":
	default:
		return fmt.Errorf("invalid SUGGEST_ACCUMULATION_MODE %q: want additive or reconcile", c.AccumulationMode)
	}
	for _, field := range c.FallbackOrder {
		switch field {
		case "title", "country", "setting", "emotion":
		default:
			return fmt.Errorf("invalid SUGGEST_FALLBACK_ORDER entry %q", field)
		}
	}
	if c.DefaultLimit <= 0 || c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("invalid suggestion limits: default=%d max=%d", c.DefaultLimit, c.MaxLimit)
	}
	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, part := range strings.Split(value, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
