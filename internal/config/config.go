package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/barface/internal/constants"
)

type Config struct {
	Server      ServerConfig
	Collection  CollectionConfig
	Database    DatabaseConfig
	MariaDB     MariaDBConfig
	Embedding   EmbeddingConfig
	OpenAI      OpenAIConfig
	Gemini      GeminiConfig
	Ollama      OllamaConfig
	Analyzer    AnalyzerConfig
	Speech      SpeechConfig
	Audio       AudioConfig
	Log         LogConfig
	ProfileType string // "postgres" or "mariadb"
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins string // comma-separated CORS whitelist, "*" allows all
}

type CollectionConfig struct {
	ID          string  // name of the face collection, created on startup
	MaxDistance float64 // cosine distance under which two faces are the same person
}

type DatabaseConfig struct {
	URL           string // PostgreSQL connection URL (pgvector required)
	MaxOpenConns  int    // Maximum open connections (default 25)
	MaxIdleConns  int    // Maximum idle connections (default 5)
	HNSWIndexPath string // Path to persist face HNSW index (optional, if empty index is rebuilt on startup)
}

type MariaDBConfig struct {
	DSN string // e.g. barface:barface@tcp(mariadb:3306)/barface?parseTime=true
}

type EmbeddingConfig struct {
	URL string // defaults to http://localhost:8000
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type OllamaConfig struct {
	URL   string // defaults to http://localhost:11434
	Model string
}

type AnalyzerConfig struct {
	Provider string // "openai", "gemini" or "ollama"
}

// SpeechConfig holds the fixed synthesis settings applied to every request.
type SpeechConfig struct {
	Provider        string // "openai", "gemini" or "http"
	Voice           string
	Format          string
	SampleRate      int
	URL             string // base URL of the self-hosted TTS server for the "http" provider
	StripDiacritics bool   // transliterate names like "Borovička" for English-only voices
}

type AudioConfig struct {
	File string
}

type LogConfig struct {
	Level  string
	Format string // "text" or "json"
}

// Provider names accepted by the analyzer and speech settings.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama" // face analyzer only
	ProviderHTTP   = "http"   // speech only
)

// Profile store backends.
const (
	ProfileStorePostgres = "postgres"
	ProfileStoreMariaDB  = "mariadb"
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean ("1", "true", "yes" are true).
func envBool(key string, defaultVal bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return defaultVal
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// envString returns the trimmed value of key or defaultVal when unset.
func envString(key, defaultVal string) string {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return defaultVal
	}
	return s
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 3000),

			AllowedOrigins: os.Getenv("WEB_ALLOWED_ORIGINS"),
		},
		Collection: CollectionConfig{
			ID:          envString("COLLECTION_ID", "collection"),
			MaxDistance: envFloat("FACE_MAX_DISTANCE", constants.DefaultDistanceThreshold),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWIndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		MariaDB: MariaDBConfig{
			DSN: os.Getenv("MARIADB_DSN"),
		},
		Embedding: EmbeddingConfig{
			URL: os.Getenv("EMBEDDING_URL"),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Ollama: OllamaConfig{
			URL:   os.Getenv("OLLAMA_URL"),
			Model: os.Getenv("OLLAMA_MODEL"),
		},
		Analyzer: AnalyzerConfig{
			Provider: strings.ToLower(envString("FACE_ANALYZER", ProviderOpenAI)),
		},
		Speech: SpeechConfig{
			Provider:   strings.ToLower(envString("TTS_PROVIDER", ProviderOpenAI)),
			Voice:      os.Getenv("TTS_VOICE"),
			Format:     envString("TTS_FORMAT", "mp3"),
			SampleRate: envInt("TTS_SAMPLE_RATE", 8000),
			URL:        os.Getenv("TTS_URL"),

			StripDiacritics: envBool("TTS_STRIP_DIACRITICS", false),
		},
		Audio: AudioConfig{
			File: envString("AUDIO_FILE", "music.mp3"),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Format: strings.ToLower(envString("LOG_FORMAT", "text")),
		},
		ProfileType: strings.ToLower(envString("PROFILE_STORE", ProfileStorePostgres)),
	}
}

// UseMariaDBProfiles reports whether profiles live in MariaDB instead of PostgreSQL.
func (c *Config) UseMariaDBProfiles() bool {
	return c.ProfileType == ProfileStoreMariaDB
}
