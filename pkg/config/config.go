// Package config loads per-service configuration from environment
// variables, following the teacher pack's getenv-with-default plus
// Validate() shape (mirrored across every binary in this module).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a local .env file if present. Absence is not fatal — it
// is the expected case in production, where configuration comes from the
// real environment.
func LoadDotenv() {
	_ = godotenv.Load()
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvCSV(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Database holds PostgreSQL connection settings, used by cmd/core (the only
// binary that touches the store directly) and by the test/util helpers.
type Database struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DatabaseFromEnv loads Database settings with production-ready defaults.
func DatabaseFromEnv() (Database, error) {
	port, err := getenvInt("DB_PORT", 5432)
	if err != nil {
		return Database{}, err
	}
	maxOpen, err := getenvInt("DB_MAX_OPEN_CONNS", 20)
	if err != nil {
		return Database{}, err
	}
	maxIdle, err := getenvInt("DB_MAX_IDLE_CONNS", 5)
	if err != nil {
		return Database{}, err
	}
	lifetime, err := getenvDuration("DB_CONN_MAX_LIFETIME", time.Hour)
	if err != nil {
		return Database{}, err
	}
	d := Database{
		Host:            getenv("DB_HOST", "localhost"),
		Port:            port,
		User:            getenv("DB_USER", "recall"),
		Password:        os.Getenv("DB_PASSWORD"),
		Name:            getenv("DB_NAME", "recall"),
		SSLMode:         getenv("DB_SSLMODE", "disable"),
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: lifetime,
	}
	if err := d.Validate(); err != nil {
		return Database{}, err
	}
	return d, nil
}

// Validate checks internal consistency of the database configuration.
func (d Database) Validate() error {
	if d.MaxIdleConns > d.MaxOpenConns {
		return fmt.Errorf("DB_MAX_IDLE_CONNS (%d) cannot exceed DB_MAX_OPEN_CONNS (%d)", d.MaxIdleConns, d.MaxOpenConns)
	}
	if d.MaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1")
	}
	return nil
}

// DSN renders the libpq connection string for pgx/v5's stdlib driver.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// Redis holds connection settings for the stream broker / session store.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// RedisFromEnv loads Redis settings with a local-dev default address.
func RedisFromEnv() (Redis, error) {
	db, err := getenvInt("REDIS_DB", 0)
	if err != nil {
		return Redis{}, err
	}
	return Redis{
		Addr:     getenv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
	}, nil
}

// Core is the configuration for cmd/core.
type Core struct {
	DB            Database
	Redis         Redis
	MediaDir      string
	ListenAddr    string
	TickInterval  time.Duration
	SuggestedTagTTL time.Duration
	PendingMediaTTL time.Duration
	EventReprompt time.Duration
}

// CoreFromEnv loads Core configuration.
func CoreFromEnv() (*Core, error) {
	db, err := DatabaseFromEnv()
	if err != nil {
		return nil, err
	}
	redis, err := RedisFromEnv()
	if err != nil {
		return nil, err
	}
	tickSeconds, err := getenvInt("SCHEDULER_TICK_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	tick := time.Duration(tickSeconds) * time.Second
	return &Core{
		DB:              db,
		Redis:           redis,
		MediaDir:        getenv("MEDIA_DIR", "./media"),
		ListenAddr:      getenv("LISTEN_ADDR", ":8080"),
		TickInterval:    tick,
		SuggestedTagTTL: 7 * 24 * time.Hour,
		PendingMediaTTL: 7 * 24 * time.Hour,
		EventReprompt:   24 * time.Hour,
	}, nil
}

// Worker is the configuration for cmd/worker.
type Worker struct {
	Redis          Redis
	CoreBaseURL    string
	ConsumerName   string
	MaxRetries     int
	ModelBaseURL   string
	ModelAPIKey    string
	TextModel      string
	VisionModel    string
	MediaDir       string
}

// WorkerFromEnv loads Worker configuration.
func WorkerFromEnv() (*Worker, error) {
	redis, err := RedisFromEnv()
	if err != nil {
		return nil, err
	}
	maxRetries, err := getenvInt("WORKER_MAX_RETRIES", 5)
	if err != nil {
		return nil, err
	}
	hostname, _ := os.Hostname()
	return &Worker{
		Redis:        redis,
		CoreBaseURL:  getenv("CORE_BASE_URL", "http://localhost:8080"),
		ConsumerName: getenv("WORKER_CONSUMER_NAME", "worker-"+hostname),
		MaxRetries:   maxRetries,
		ModelBaseURL: os.Getenv("MODEL_BASE_URL"),
		ModelAPIKey:  os.Getenv("MODEL_API_KEY"),
		TextModel:    getenv("MODEL_TEXT", "gpt-4o-mini"),
		VisionModel:  getenv("MODEL_VISION", "gpt-4o-mini"),
		MediaDir:     getenv("MEDIA_DIR", "./media"),
	}, nil
}

// Gateway is the configuration for cmd/gateway.
type Gateway struct {
	Redis          Redis
	CoreBaseURL    string
	AssistantURL   string
	ListenAddr     string
	BotToken       string
	ConsumerName   string
	AllowedUsers   []string
}

// GatewayFromEnv loads Gateway configuration.
func GatewayFromEnv() (*Gateway, error) {
	redis, err := RedisFromEnv()
	if err != nil {
		return nil, err
	}
	hostname, _ := os.Hostname()
	return &Gateway{
		Redis:        redis,
		CoreBaseURL:  getenv("CORE_BASE_URL", "http://localhost:8080"),
		AssistantURL: getenv("ASSISTANT_BASE_URL", "http://localhost:8082"),
		ListenAddr:   getenv("LISTEN_ADDR", ":8081"),
		BotToken:     os.Getenv("BOT_TOKEN"),
		ConsumerName: getenv("GATEWAY_CONSUMER_NAME", "gateway-"+hostname),
		AllowedUsers: getenvCSV("ALLOWED_USER_IDS"),
	}, nil
}

// Assistant is the configuration for cmd/assistant.
type Assistant struct {
	Redis            Redis
	CoreBaseURL      string
	ListenAddr       string
	ModelBaseURL     string
	ModelAPIKey      string
	ChatModel        string
	AllowedUsers     []string
	WindowTokens     int
	BriefingBudget   int
	ResponseReserve  int
	DigestHour       int
	DigestInterval   time.Duration
}

// AssistantFromEnv loads Assistant configuration.
func AssistantFromEnv() (*Assistant, error) {
	redis, err := RedisFromEnv()
	if err != nil {
		return nil, err
	}
	window, err := getenvInt("TOKEN_WINDOW", 128000)
	if err != nil {
		return nil, err
	}
	briefing, err := getenvInt("BRIEFING_BUDGET_TOKENS", 1200)
	if err != nil {
		return nil, err
	}
	reserve, err := getenvInt("RESPONSE_RESERVE_TOKENS", 1000)
	if err != nil {
		return nil, err
	}
	digestHour, err := getenvInt("DIGEST_HOUR", 8)
	if err != nil {
		return nil, err
	}
	digestMinutes, err := getenvInt("DIGEST_TICK_MINUTES", 15)
	if err != nil {
		return nil, err
	}
	digestInterval := time.Duration(digestMinutes) * time.Minute
	return &Assistant{
		Redis:           redis,
		CoreBaseURL:     getenv("CORE_BASE_URL", "http://localhost:8080"),
		ListenAddr:      getenv("LISTEN_ADDR", ":8082"),
		ModelBaseURL:    os.Getenv("MODEL_BASE_URL"),
		ModelAPIKey:     os.Getenv("MODEL_API_KEY"),
		ChatModel:       getenv("MODEL_CHAT", "gpt-4o-mini"),
		AllowedUsers:    getenvCSV("ALLOWED_USER_IDS"),
		WindowTokens:    window,
		BriefingBudget:  briefing,
		ResponseReserve: reserve,
		DigestHour:      digestHour,
		DigestInterval:  digestInterval,
	}, nil
}
