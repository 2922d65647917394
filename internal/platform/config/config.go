package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string

	JWTKey          []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRequests int
	RateLimitWindow   time.Duration

	BootstrapAdminUsername string
	BootstrapAdminPassword string
	BootstrapAdminEmail    string
}

// Load reads configuration from the environment (and an optional .env file)
// and returns an immutable Config. Components receive it at construction;
// there is no process-wide config state.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		APIPort:                getEnv("API_PORT", "8080"),
		JWTKey:                 []byte(getEnv("JWT_SECRET", "defaultsecret")),
		AccessTokenTTL:         time.Duration(getEnvAsInt("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL:        time.Duration(getEnvAsInt("REFRESH_TOKEN_TTL_HOURS", 168)) * time.Hour,
		DBHost:                 getEnv("DB_HOST", "localhost"),
		DBPort:                 getEnv("DB_PORT", "5432"),
		DBUser:                 getEnv("DB_USER", "user"),
		DBPassword:             getEnv("DB_PASSWORD", "password"),
		DBName:                 getEnv("DB_NAME", "webscrape_db"),
		DBSslMode:              getEnv("DB_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvAsInt("REDIS_DB", 0),
		RateLimitRequests:      getEnvAsInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:        time.Duration(getEnvAsInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
		BootstrapAdminUsername: getEnv("BOOTSTRAP_ADMIN_USERNAME", "admin"),
		BootstrapAdminPassword: getEnv("BOOTSTRAP_ADMIN_PASSWORD", ""),
		BootstrapAdminEmail:    getEnv("BOOTSTRAP_ADMIN_EMAIL", "admin@localhost"),
	}

	// Access tokens must always run out before the refresh token that can
	// replace them.
	if cfg.AccessTokenTTL >= cfg.RefreshTokenTTL {
		return nil, fmt.Errorf("access token TTL (%s) must be shorter than refresh token TTL (%s)",
			cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}
