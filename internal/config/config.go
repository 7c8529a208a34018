// Package config loads the static feed/portfolio configuration the pipeline
// treats as read-only input.
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/ApexAxiom/briefwire/internal/domain"
	"gopkg.in/yaml.v3"
)

// PipelineConfig is the full static configuration for a scheduled run.
type PipelineConfig struct {
	Regions    []domain.Region    `yaml:"regions"`
	Portfolios []domain.Portfolio `yaml:"portfolios"`

	// Hosts eligible for provider cooldown. Kept configurable rather than
	// hardcoding the one heavy provider, so other flaky providers can be
	// protected without a code change.
	CooldownHosts   []string `yaml:"cooldownHosts"`
	CooldownMinutes int      `yaml:"cooldownMinutes"`

	// Aggregator hosts whose links must be unwrapped by the redirect
	// resolver before an article URL is treated as authoritative.
	AggregatorHosts []string `yaml:"aggregatorHosts"`

	ArticlesPerRun int    `yaml:"articlesPerRun"`
	LookbackDays   int    `yaml:"lookbackDays"`
	CutoffHour     int    `yaml:"cutoffHour"`
	RunWindow      string `yaml:"runWindow"`
}

func (c *PipelineConfig) CooldownWindow() time.Duration {
	return time.Duration(c.CooldownMinutes) * time.Minute
}

func (c *PipelineConfig) LookbackWindow() time.Duration {
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

func (c *PipelineConfig) Validate() error {
	if len(c.Regions) == 0 {
		return fmt.Errorf("config needs at least one region")
	}
	if len(c.Portfolios) == 0 {
		return fmt.Errorf("config needs at least one portfolio")
	}
	for _, r := range c.Regions {
		if r.ID == "" || r.Timezone == "" {
			return fmt.Errorf("region %q needs an id and timezone", r.ID)
		}
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			return fmt.Errorf("region %q has unknown timezone %q", r.ID, r.Timezone)
		}
	}
	for _, p := range c.Portfolios {
		if p.ID == "" {
			return fmt.Errorf("portfolio needs an id")
		}
		for region, feeds := range p.Feeds {
			for _, f := range feeds {
				if f.URL == "" || f.Name == "" {
					return fmt.Errorf("portfolio %q region %q has a feed without name or url", p.ID, region)
				}
				if f.Kind != domain.FeedKindRSS && f.Kind != domain.FeedKindWeb {
					return fmt.Errorf("portfolio %q feed %q has unknown kind %q", p.ID, f.Name, f.Kind)
				}
			}
		}
	}
	return nil
}

type YAMLConfigLoader struct {
	reader io.Reader
}

func NewYAMLConfigLoader(reader io.Reader) *YAMLConfigLoader {
	return &YAMLConfigLoader{
		reader: reader,
	}
}

func (cl *YAMLConfigLoader) Load(validate bool) (*PipelineConfig, error) {
	decoder := yaml.NewDecoder(cl.reader)
	var cfg PipelineConfig
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	if validate {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}
