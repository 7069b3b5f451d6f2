package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ajitpratap0/cinelink/internal/game"
	"github.com/ajitpratap0/cinelink/internal/solver"
)

const (
	// DefaultRebuildCount is how many top-rated movies a rebuild fetches.
	DefaultRebuildCount = 10000

	// DefaultMaxSuggestions caps non-winning suggestions per turn.
	DefaultMaxSuggestions = 3
)

// Config holds all configuration for cinelink.
type Config struct {
	TMDB     TMDBConfig     `mapstructure:"tmdb"`
	Store    StoreConfig    `mapstructure:"store"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Neo4j    Neo4jConfig    `mapstructure:"neo4j"`
	Game     GameConfig     `mapstructure:"game"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
}

// TMDBConfig holds The Movie Database API settings.
type TMDBConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Language   string        `mapstructure:"language"`
	CastLimit  int           `mapstructure:"cast_limit"`
	CrewLimit  int           `mapstructure:"crew_limit"`
	Timeout    time.Duration `mapstructure:"timeout"`
	CacheSize  int           `mapstructure:"cache_size"`
	ListingTTL time.Duration `mapstructure:"listing_ttl"`
}

// String returns a safe representation of TMDBConfig with the API key masked.
func (c TMDBConfig) String() string {
	masked := maskAPIKey(c.APIKey)
	return fmt.Sprintf("TMDBConfig{APIKey:%s, BaseURL:%s, Language:%s}", masked, c.BaseURL, c.Language)
}

// maskAPIKey shows first 4 + last 4 chars, replacing the middle with asterisks.
func maskAPIKey(key string) string {
	const visible = 4
	if len(key) <= visible*2 {
		return "***"
	}
	return key[:visible] + "****" + key[len(key)-visible:]
}

// StoreConfig selects the snapshot backend.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // file, postgres, neo4j or memory
	Path    string `mapstructure:"path"`
}

// PostgresConfig holds the Postgres snapshot backend connection.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// Neo4jConfig holds the Neo4j snapshot backend connection.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// GameConfig holds solver and game defaults.
type GameConfig struct {
	Strategy            string   `mapstructure:"strategy"`
	MaxSuggestions      int      `mapstructure:"max_suggestions"`
	MaxLinks            string   `mapstructure:"max_links"`
	FrequencyGraceTurns int      `mapstructure:"frequency_grace_turns"`
	Genres              []string `mapstructure:"genres"`

	// Registry sweeping for the serve and mcp commands. Zero TTLs keep games forever.
	FinishedTTL   time.Duration `mapstructure:"finished_ttl"`
	IdleTTL       time.Duration `mapstructure:"idle_ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// MaxLinksValue parses MaxLinks.
func (g GameConfig) MaxLinksValue() (solver.MaxLinks, error) {
	return solver.ParseMaxLinks(g.MaxLinks)
}

// IngestConfig holds rebuild settings.
type IngestConfig struct {
	DefaultCount int `mapstructure:"default_count"`
	Concurrency  int `mapstructure:"concurrency"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	AuthToken  string `mapstructure:"auth_token"`
}

// Load reads configuration from file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("tmdb.base_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.language", "en-US")
	v.SetDefault("tmdb.cast_limit", 10)
	v.SetDefault("tmdb.crew_limit", 5)
	v.SetDefault("tmdb.timeout", 15*time.Second)
	v.SetDefault("tmdb.cache_size", 4096)
	v.SetDefault("tmdb.listing_ttl", 10*time.Minute)

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.path", filepath.Join(homeDir(), ".cinelink", "database.json"))

	v.SetDefault("postgres.dsn", "host=localhost user=postgres dbname=cinelink sslmode=disable")

	v.SetDefault("neo4j.uri", "neo4j://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "")

	v.SetDefault("game.strategy", solver.StrategyGreedy)
	v.SetDefault("game.max_suggestions", DefaultMaxSuggestions)
	v.SetDefault("game.max_links", "3")
	v.SetDefault("game.frequency_grace_turns", game.DefaultGraceTurns)
	v.SetDefault("game.genres", game.DefaultGenres)
	v.SetDefault("game.finished_ttl", time.Hour)
	v.SetDefault("game.idle_ttl", 24*time.Hour)
	v.SetDefault("game.sweep_interval", 5*time.Minute)

	v.SetDefault("ingest.default_count", DefaultRebuildCount)
	v.SetDefault("ingest.concurrency", 8)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("api.auth_token", "")

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir(), ".cinelink"))
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("CINELINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map specific env vars
	_ = v.BindEnv("tmdb.api_key", "CINELINK_TMDB_API_KEY", "CINE2NERDLE_API_KEY")
	_ = v.BindEnv("postgres.dsn", "CINELINK_POSTGRES_DSN")
	_ = v.BindEnv("neo4j.password", "CINELINK_NEO4J_PASSWORD")
	_ = v.BindEnv("api.auth_token", "CINELINK_API_AUTH_TOKEN")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults + env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are set and consistent.
// The TMDB key is checked only by commands that fetch.
func (c *Config) Validate() error {
	if c.TMDB.BaseURL == "" {
		return fmt.Errorf("tmdb.base_url must not be empty")
	}
	if c.TMDB.CastLimit <= 0 || c.TMDB.CrewLimit <= 0 {
		return fmt.Errorf("tmdb.cast_limit and tmdb.crew_limit must be greater than 0")
	}
	if c.TMDB.CacheSize <= 0 {
		return fmt.Errorf("tmdb.cache_size must be greater than 0")
	}
	switch c.Store.Backend {
	case "file":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path must not be empty for the file backend")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn must not be empty for the postgres backend")
		}
	case "neo4j":
		if c.Neo4j.URI == "" {
			return fmt.Errorf("neo4j.uri must not be empty for the neo4j backend")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend %q must be one of file, postgres, neo4j, memory", c.Store.Backend)
	}
	if _, err := solver.ParseStrategy(c.Game.Strategy); err != nil {
		return fmt.Errorf("game.strategy: %w", err)
	}
	if c.Game.MaxSuggestions < 1 {
		return fmt.Errorf("game.max_suggestions must be greater than 0")
	}
	if _, err := c.Game.MaxLinksValue(); err != nil {
		return fmt.Errorf("game.max_links: %w", err)
	}
	if c.Game.FrequencyGraceTurns < 0 {
		return fmt.Errorf("game.frequency_grace_turns must be >= 0")
	}
	if len(c.Game.Genres) == 0 {
		return fmt.Errorf("game.genres must not be empty")
	}
	if c.Game.FinishedTTL < 0 || c.Game.IdleTTL < 0 || c.Game.SweepInterval < 0 {
		return fmt.Errorf("game.finished_ttl, game.idle_ttl and game.sweep_interval must be >= 0")
	}
	if c.Ingest.DefaultCount <= 0 {
		return fmt.Errorf("ingest.default_count must be greater than 0")
	}
	if c.Ingest.Concurrency <= 0 {
		return fmt.Errorf("ingest.concurrency must be greater than 0")
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
