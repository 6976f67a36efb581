// Package config reads service settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/lakegraph/kgqa/log"
)

type Config struct {
	App      AppConfig
	LLM      LLMConfig
	Graph    GraphConfig
	Search   SearchConfig
	Session  SessionConfig
	Splitter SplitterConfig
	Chunks   ChunkStoreConfig
	Agent    AgentConfig
}

type AppConfig struct {
	Port        string
	CORSOrigins string
	LogLevel    string
	StepDelay   time.Duration
	RenderHTML  bool
}

type LLMConfig struct {
	Provider    string // "openai" or "langchain"
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
}

type GraphConfig struct {
	URL  string // falkordb://[:password@]host:port/graph
	TopK int
}

type SearchConfig struct {
	Provider   string // "duckduckgo" or "brave"
	BraveKey   string
	MaxResults int
}

type SessionConfig struct {
	Backend   string // "memory" or "redis"
	RedisAddr string
	RedisPass string
	RedisDB   int
	TTL       time.Duration
}

type SplitterConfig struct {
	ChunkSize      int
	ChunkOverlap   int
	MaxConcurrency int
}

type ChunkStoreConfig struct {
	Driver string // "sqlite" or "postgres"
	DSN    string
}

type AgentConfig struct {
	DontKnowMarkers []string
}

// Load reads the given .env files (default ".env") into the environment and
// builds the config. Missing files are not an error.
func Load(files ...string) *Config {
	if err := godotenv.Load(files...); err != nil {
		log.Debug("no .env file loaded, using process environment: %v", err)
	}

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "8000"),
			CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			StepDelay:   getEnvAsDuration("STEP_DELAY", 100*time.Millisecond),
			RenderHTML:  getEnvAsBool("RENDER_HTML", true),
		},
		LLM: LLMConfig{
			Provider:    getEnv("LLM_PROVIDER", "openai"),
			BaseURL:     getEnv("BASE_URL", ""),
			APIKey:      getEnv("API_KEY", ""),
			Model:       getEnv("MODEL_NAME", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("LLM_TEMPERATURE", 0.2),
		},
		Graph: GraphConfig{
			URL:  getEnv("FALKORDB_URL", "falkordb://localhost:6379/kgqa"),
			TopK: getEnvAsInt("GRAPH_TOP_K", 10),
		},
		Search: SearchConfig{
			Provider:   getEnv("SEARCH_PROVIDER", "duckduckgo"),
			BraveKey:   getEnv("BRAVE_API_KEY", ""),
			MaxResults: getEnvAsInt("SEARCH_MAX_RESULTS", 5),
		},
		Session: SessionConfig{
			Backend:   getEnv("SESSION_BACKEND", "memory"),
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPass: getEnv("REDIS_PASSWORD", ""),
			RedisDB:   getEnvAsInt("REDIS_DB", 0),
			TTL:       getEnvAsDuration("SESSION_TTL", 0),
		},
		Splitter: SplitterConfig{
			ChunkSize:      getEnvAsInt("SPLITTER_CHUNK_SIZE", 2000),
			ChunkOverlap:   getEnvAsInt("SPLITTER_CHUNK_OVERLAP", 200),
			MaxConcurrency: getEnvAsInt("SPLITTER_MAX_CONCURRENCY", 5),
		},
		Chunks: ChunkStoreConfig{
			Driver: getEnv("CHUNK_STORE_DRIVER", "sqlite"),
			DSN:    getEnv("CHUNK_STORE_DSN", "chunks.db"),
		},
		Agent: AgentConfig{
			DontKnowMarkers: getEnvAsList("DONT_KNOW_MARKERS", []string{"I don't know"}),
		},
	}
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "openai", "langchain":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER: unknown provider %q", c.LLM.Provider))
	}
	if c.LLM.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required"))
	}
	switch c.Search.Provider {
	case "duckduckgo":
	case "brave":
		if c.Search.BraveKey == "" {
			errs = append(errs, errors.New("BRAVE_API_KEY is required for the brave search provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("SEARCH_PROVIDER: unknown provider %q", c.Search.Provider))
	}
	switch c.Session.Backend {
	case "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("SESSION_BACKEND: unknown backend %q", c.Session.Backend))
	}
	if _, err := log.ParseLevel(c.App.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// ValidateChunks checks the splitter and chunk store settings used by the chunker.
func (c *Config) ValidateChunks() error {
	var errs []error
	if c.Splitter.ChunkSize <= 0 {
		errs = append(errs, errors.New("SPLITTER_CHUNK_SIZE must be positive"))
	}
	if c.Splitter.ChunkOverlap < 0 || c.Splitter.ChunkOverlap >= c.Splitter.ChunkSize {
		errs = append(errs, errors.New("SPLITTER_CHUNK_OVERLAP must be in [0, SPLITTER_CHUNK_SIZE)"))
	}
	if c.Splitter.MaxConcurrency <= 0 {
		errs = append(errs, errors.New("SPLITTER_MAX_CONCURRENCY must be positive"))
	}
	switch c.Chunks.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("CHUNK_STORE_DRIVER: unknown driver %q", c.Chunks.Driver))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma-separated value, dropping empty entries.
func getEnvAsList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
