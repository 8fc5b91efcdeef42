package http

import (
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"edinetfetch/internal/config"
	"edinetfetch/internal/metrics"
	"edinetfetch/internal/services"
	"edinetfetch/internal/storage"
)

type Server struct {
	engine *gin.Engine
	cfg    config.Config
}

func NewServer(cfg config.Config, logger *slog.Logger) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)

	m := metrics.New(prometheus.NewRegistry())
	files := storage.NewFileManager(cfg.SaveDir)
	edinet := services.NewEdinetClient(cfg, m)
	fetcher := services.NewFetchService(services.NewAuthorizer(cfg), edinet, files, m, logger)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(logger))
	engine.Use(MaxBodySize(cfg.MaxBodyBytes))
	engine.Use(CORS())

	api := NewAPI(fetcher, m, logger)
	registerRoutes(engine, api)

	return &Server{engine: engine, cfg: cfg}, nil
}

func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	return s.engine.Run(addr)
}
