package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

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

type RunnerConfig struct {
	PipelineConfigPath string
	GeneratorEndpoint  string
	GeneratorAPIKey    string
	AllowPlaceholders  bool
	PairConcurrency    int

	// Optional integrations; empty values disable them.
	ESAddress string
	ESIndex   string
	NatsURL   string

	pg.PoolConfig
}

func (as *AppConfig) Load() (*RunnerConfig, error) {
	err := env.LoadDotEnv(as.ENV, "cmd/brief_runner/.env")
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

	endpoint := os.Getenv("GENERATOR_ENDPOINT")
	if endpoint == "" {
		return nil, fmt.Errorf("GENERATOR_ENDPOINT environment variable is not set")
	}

	concurrency, err := strconv.Atoi(os.Getenv("PAIR_CONCURRENCY"))
	if err != nil {
		concurrency = 0
	}

	cfg := &RunnerConfig{
		PipelineConfigPath: configPath,
		GeneratorEndpoint:  endpoint,
		GeneratorAPIKey:    os.Getenv("GENERATOR_API_KEY"),
		AllowPlaceholders:  allowPlaceholders(as.ENV, os.Getenv("ALLOW_PLACEHOLDERS")),
		PairConcurrency:    concurrency,
		ESAddress:          os.Getenv("ES_URL"),
		ESIndex:            os.Getenv("ES_INDEX"),
		NatsURL:            os.Getenv("NATS_URL"),
		PoolConfig:         pg.PoolConfig{ConnStr: connStr},
	}

	return cfg, nil
}

// allowPlaceholders defaults permissive outside production so staging runs
// always fill the cycle; production keeps gaps visible unless explicitly
// overridden.
func allowPlaceholders(env, override string) bool {
	if override != "" {
		return override == "true"
	}
	return env != "production" && env != "prod"
}
