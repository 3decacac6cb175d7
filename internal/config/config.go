package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret is the fallback signing key; the api refuses it in prod.
const DevJWTSecret = "dev-secret-change-me"

type Config struct {
	Env        string
	Port       int
	DBURL      string
	DBMaxConns int32

	// Store picks the account backend: "postgres" or "memory".
	Store      string
	BcryptCost int

	JWTSecret string
	AccessTTL time.Duration

	// Cache is "none", "memory" or "redis".
	Cache         string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	OTelEnabled  bool
	OTelEndpoint string

	AdminEmail     string
	AdminSecret    string
	AdminFirstName string
	AdminLastName  string
	AdminBirthDate string

	LoginRatePerMinute int
	CORSOrigins        []string

	WorkerConcurrency int
	WorkerPoll        time.Duration
	WorkerID          string
	WorkerHealthPort  int
}

// Load reads a .env file when present, then the process environment.
func Load() Config {
	// a missing .env is normal outside local dev
	_ = godotenv.Load()

	return Config{
		Env:        getEnv("APP_ENV", "dev"),
		Port:       getEnvInt("PORT", 8080),
		DBURL:      buildDBURL(),
		DBMaxConns: int32(getEnvInt("DB_MAX_CONNS", 10)),

		Store:      strings.ToLower(getEnv("STORE", "postgres")),
		BcryptCost: getEnvInt("BCRYPT_COST", 12),

		JWTSecret: getEnv("JWT_SECRET", DevJWTSecret),
		AccessTTL: time.Duration(getEnvInt("JWT_ACCESS_TTL_MINUTES", 15)) * time.Minute,

		Cache:         strings.ToLower(getEnv("CACHE", "memory")),
		CacheTTL:      time.Duration(getEnvInt("CACHE_TTL_SECONDS", 30)) * time.Second,
		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		OTelEnabled:  getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_ENDPOINT", "localhost:4317"),

		AdminEmail:     getEnv("ADMIN_EMAIL", ""),
		AdminSecret:    getEnv("ADMIN_SECRET", ""),
		AdminFirstName: getEnv("ADMIN_FIRST_NAME", "Admin"),
		AdminLastName:  getEnv("ADMIN_LAST_NAME", "User"),
		AdminBirthDate: getEnv("ADMIN_BIRTH_DATE", "1970-01-01"),

		LoginRatePerMinute: getEnvInt("RATE_LIMIT_LOGIN", 10),
		CORSOrigins:        getEnvList("CORS_ORIGINS", "http://localhost:3000"),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 4),
		WorkerPoll:        time.Duration(getEnvInt("WORKER_POLL_MS", 500)) * time.Millisecond,
		WorkerID:          getEnv("WORKER_ID", hostname()),
		WorkerHealthPort:  getEnvInt("WORKER_HEALTH_PORT", 8081),
	}
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "accounthub")
	pass := getEnv("DB_PASSWORD", "accounthub")
	name := getEnv("DB_NAME", "accounthub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

// WithTimeout bounds a unit of work by d under parent.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, d)
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "worker"
	}
	return h
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			slog.Warn("invalid boolean env, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
