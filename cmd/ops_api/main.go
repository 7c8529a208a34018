package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ApexAxiom/briefwire/internal/config"
	"github.com/ApexAxiom/briefwire/internal/coverage"
	"github.com/ApexAxiom/briefwire/internal/router"
	"github.com/ApexAxiom/briefwire/internal/server"
	"github.com/ApexAxiom/briefwire/internal/storage"
	"github.com/ApexAxiom/briefwire/internal/storage/factory"
	"github.com/labstack/echo/v4"
)

func main() {
	sCfg, err := server.LoadConfig()
	if err != nil {
		slog.Error("Failed to load server config", "error", err)
		os.Exit(1)
	}

	appSettings := NewAppConfig()
	cfg, err := appSettings.Load()
	if err != nil {
		slog.Error("Failed to load app configuration", "error", err)
		os.Exit(1)
	}

	file, err := os.Open(cfg.PipelineConfigPath)
	if err != nil {
		slog.Error("Failed to read pipeline configuration", "error", err)
		os.Exit(1)
	}

	pipelineCfg, err := config.NewYAMLConfigLoader(file).Load(true)
	_ = file.Close()
	if err != nil {
		slog.Error("Failed to load pipeline configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, err := factory.NewStore(ctx, storage.PG, cfg.PoolConfig)
	if err != nil {
		slog.Error("Failed to create store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	e := echo.New()
	s := server.NewServer(e, sCfg)

	s.Echo.GET("/", func(c echo.Context) error {
		return c.String(200, "Briefwire ops API is running")
	})

	auditor := coverage.NewAuditor(store, pipelineCfg.Portfolios, pipelineCfg.CutoffHour)
	opsRouter := router.NewOpsRouter(s.Echo, store, auditor, pipelineCfg.Regions)
	opsRouter.Bind()

	if err := s.Start(); err != nil {
		s.Echo.Logger.Error("Failed to start server: ", err)
		os.Exit(1)
	}
}
