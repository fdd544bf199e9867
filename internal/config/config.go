package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	DBPath             string
	ServerPort         string
	LogLevel           string
	JWTSecret          string
	JWTExpiry          time.Duration
	SuperadminPassword string
	AdminPassword      string
	// ExportAPIURL is the base URL of the game's export endpoint. Empty
	// disables remote imports; file uploads keep working.
	ExportAPIURL string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	expireMinutes, err := strconv.Atoi(getEnv("JWT_EXPIRE_MINUTES", "720"))
	if err != nil {
		expireMinutes = 720
	}

	cfg := &Config{
		DBPath:             getEnv("DB_PATH", "guild.db"),
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret-change-me"),
		JWTExpiry:          time.Duration(expireMinutes) * time.Minute,
		SuperadminPassword: getEnv("SUPERADMIN_PASSWORD", "droken"),
		AdminPassword:      getEnv("ADMIN_PASSWORD", "admin"),
		ExportAPIURL:       getEnv("EXPORT_API_URL", ""),
	}

	if cfg.JWTSecret == "dev-secret-change-me" {
		logger.Warn().Msg("JWT_SECRET not set, using development default")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("jwt_expiry", cfg.JWTExpiry).
		Bool("remote_import", cfg.ExportAPIURL != "").
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
