package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const defaultEdinetBaseURL = "https://api.edinet-fsa.go.jp/api/v2"

type Config struct {
	Port          string
	AccessToken   string
	EdinetKey     string
	EdinetBaseURL string
	HTTPTimeout   time.Duration
	MaxBodyBytes  int64
	SaveDir       string
	LogLevel      slog.Level
}

// LoadConfig reads the process environment. Missing secrets are not an error
// here; the fetch endpoint reports them per request.
func LoadConfig() (Config, error) {
	cfg := Config{}

	cfg.Port = envOrDefault("PORT", "8000")
	cfg.AccessToken = os.Getenv("ACCESS_TOKEN")
	cfg.EdinetKey = os.Getenv("EDINET_KEY")
	cfg.EdinetBaseURL = strings.TrimRight(envOrDefault("EDINET_BASE_URL", defaultEdinetBaseURL), "/")

	timeoutSeconds, err := parseIntEnv("HTTP_TIMEOUT_SECONDS", 120)
	if err != nil {
		return Config{}, fmt.Errorf("parse HTTP_TIMEOUT_SECONDS: %w", err)
	}
	if timeoutSeconds <= 0 {
		return Config{}, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", timeoutSeconds)
	}
	cfg.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	maxBodyKB, err := parseIntEnv("MAX_BODY_KB", 64)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_BODY_KB: %w", err)
	}
	cfg.MaxBodyBytes = maxBodyKB * 1024

	saveDir := envOrDefault("SAVE_DIR", "")
	if saveDir == "" {
		saveDir, err = os.Getwd()
		if err != nil {
			return Config{}, fmt.Errorf("resolve working directory: %w", err)
		}
	}
	absSaveDir, err := filepath.Abs(saveDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve save dir: %w", err)
	}
	cfg.SaveDir = absSaveDir

	if err := cfg.LogLevel.UnmarshalText([]byte(envOrDefault("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

func parseIntEnv(key string, fallback int64) (int64, error) {
	value := envOrDefault(key, "")
	if value == "" {
		return fallback, nil
	}

	num, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return num, nil
}
