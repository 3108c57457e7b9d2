package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port            string
	Env             string
	AllowedOrigins  []string
	RateLimitPerMin int

	// Database
	DatabaseURL   string
	MigrationsDir string

	// Redis
	RedisURL           string
	TranscriptCacheTTL time.Duration

	// JWT
	JWTSecret string
	JWTExpiry time.Duration

	// Gemini AI
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int
	UseMockAI            bool

	// YouTube
	YouTubeAPIKey             string
	TranscriptLibraryFallback bool

	// Logging
	LogMode string
	LogFile string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:            getEnvOrDefault("PORT", "8080"),
		Env:             getEnvOrDefault("ENV", "development"),
		AllowedOrigins:  getEnvAsListOrDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
		RateLimitPerMin: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),

		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		MigrationsDir: getEnvOrDefault("MIGRATIONS_DIR", "migrations"),

		RedisURL:           mustGetEnv("REDIS_URL"),
		TranscriptCacheTTL: getEnvAsDurationOrDefault("TRANSCRIPT_CACHE_TTL", 24*time.Hour),

		JWTSecret: mustGetEnv("JWT_SECRET"),
		JWTExpiry: getEnvAsDurationOrDefault("JWT_EXPIRY", 7*24*time.Hour),

		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		UseMockAI:            getEnvAsBoolOrDefault("USE_MOCK_AI", false),

		YouTubeAPIKey:             getEnvOrDefault("YOUTUBE_API_KEY", ""),
		TranscriptLibraryFallback: getEnvAsBoolOrDefault("TRANSCRIPT_LIBRARY_FALLBACK", true),

		LogMode: getEnvOrDefault("LOG_MODE", "dev"),
		LogFile: getEnvOrDefault("LOG_FILE", ""),
	}

	return cfg
}

// HasYouTubeAPIKey reports whether a real Data API key is configured.
// Template placeholders copied from .env.example do not count.
func (c *Config) HasYouTubeAPIKey() bool {
	return UsableAPIKey(c.YouTubeAPIKey)
}

func UsableAPIKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	lower := strings.ToLower(key)
	for _, placeholder := range []string{"your_", "your-", "xxxx", "changeme", "placeholder"} {
		if strings.Contains(lower, placeholder) {
			return false
		}
	}
	return true
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func getEnvAsListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
