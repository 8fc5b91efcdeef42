package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"edinetfetch/internal/config"
	httpserver "edinetfetch/internal/http"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if cfg.AccessToken == "" || cfg.EdinetKey == "" {
		logger.Warn("ACCESS_TOKEN or EDINET_KEY is not set; fetch requests will fail until configured")
	}

	srv, err := httpserver.NewServer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	logger.Info("listening", "port", cfg.Port, "saveDir", cfg.SaveDir, "edinetBaseURL", cfg.EdinetBaseURL)
	if err := srv.Run(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
