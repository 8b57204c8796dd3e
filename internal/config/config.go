package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort     string `env:"HTTP_PORT" envDefault:"8080"`
	PublicOrigin string `env:"PUBLIC_ORIGIN"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"postgres"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DBMaxConns   int    `env:"DB_MAX_CONNS" envDefault:"10"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	StorageBucket     string `env:"STORAGE_BUCKET"`

	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	GeminiAPIKey    string `env:"GEMINI_API_KEY"`
	GeminiBaseURL   string `env:"GEMINI_BASE_URL"`
	SuggestionModel string `env:"SUGGESTION_MODEL" envDefault:"gpt-4.1-nano"`

	SearchAPIKey   string `env:"GOOGLE_SEARCH_API_KEY"`
	SearchEngineID string `env:"GOOGLE_SEARCH_ENGINE_ID"`

	JWTSecret            string `env:"JWT_SECRET"`
	JWTAccessTTLMinutes  int    `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes int    `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	ChatRatePerMinute int `env:"CHAT_RATE_PER_MINUTE" envDefault:"20"`
	ChatRateBurst     int `env:"CHAT_RATE_BURST" envDefault:"5"`
}

const (
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required for the postgres store")
		}
		if c.DBMaxConns <= 0 {
			return errors.New("config: DB_MAX_CONNS must be positive")
		}
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("config: FIREBASE_PROJECT_ID is required for the firestore store")
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.OpenAIAPIKey == "" && c.GeminiAPIKey == "" {
		return errors.New("config: at least one of OPENAI_API_KEY or GEMINI_API_KEY is required")
	}
	return nil
}

// UsesFirebaseAuth indica si los tokens bearer son ID tokens de Firebase.
func (c *Config) UsesFirebaseAuth() bool {
	return c.FirebaseProjectID != ""
}
