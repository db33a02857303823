package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	FaceitAPIKey  string
	FaceitBaseURL string
	LcryptBaseURL string
	MediaBaseURL  string
	DBPath        string
	ServerPort    string
	LogLevel      string

	AutoUpdateEnabled bool
	CyclerEnabled     bool
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		FaceitAPIKey:      getEnv("FACEIT_API_KEY", ""),
		FaceitBaseURL:     getEnv("FACEIT_BASE_URL", "https://open.faceit.com/data/v4"),
		LcryptBaseURL:     getEnv("LCRYPT_BASE_URL", "https://api.lcrypt.eu"),
		MediaBaseURL:      getEnv("MEDIA_BASE_URL", ""),
		DBPath:            getEnv("DB_PATH", "dashboard.db"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		AutoUpdateEnabled: getEnvBool("AUTO_UPDATE_ENABLED", true),
		CyclerEnabled:     getEnvBool("CYCLER_ENABLED", true),
	}

	if cfg.FaceitAPIKey == "" {
		return nil, fmt.Errorf("FACEIT_API_KEY is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Bool("auto_update", cfg.AutoUpdateEnabled).
		Bool("cycler", cfg.CyclerEnabled).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	return fallback
}

var Module = fx.Provide(Load)
