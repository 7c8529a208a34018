package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ApexAxiom/briefwire/internal/storage/pg"
	"github.com/ApexAxiom/briefwire/pkg/config/env"
)

func NewAppConfig() *AppConfig {
	return &AppConfig{
		ENV: os.Getenv("ENV"),
	}
}

type AppConfig struct {
	ENV string
}

type OpsConfig struct {
	PipelineConfigPath string
	pg.PoolConfig
}

func (as *AppConfig) Load() (*OpsConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/ops_api/.env")
	if err != nil {
		slog.Info("Skipping .env environment variables...", "error", err)
	}

	connStr := os.Getenv("DB_CONN_STR")
	if connStr == "" {
		return nil, fmt.Errorf("DB_CONN_STR environment variable is not set")
	}

	configPath := os.Getenv("PIPELINE_CONFIG_PATH")
	if configPath == "" {
		return nil, fmt.Errorf("PIPELINE_CONFIG_PATH environment variable is not set")
	}

	return &OpsConfig{
		PipelineConfigPath: configPath,
		PoolConfig:         pg.PoolConfig{ConnStr: connStr},
	}, nil
}
