package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/gyeh/rxmargin/internal/margin"
	"github.com/gyeh/rxmargin/internal/model"
	"github.com/gyeh/rxmargin/internal/pipeline"
	"github.com/gyeh/rxmargin/internal/reconcile"
	"github.com/gyeh/rxmargin/internal/similarity"
	"github.com/gyeh/rxmargin/internal/tables"
)

// Config holds all runtime configuration for an rxmargin run.
type Config struct {
	DSN       string
	DataDir   string            // directory searched for <source>.<ext> files
	Inputs    map[string]string // explicit source -> file overrides
	LogFormat string            // "text" or "json"
	LogLevel  string
	Workers   int

	Params    pipeline.Params
	Reconcile reconcile.Options
}

// New returns a Config with default parameters.
func New() *Config {
	return &Config{
		Inputs:    map[string]string{},
		LogFormat: "text",
		Params:    pipeline.DefaultParams(),
		Reconcile: reconcile.DefaultOptions(),
	}
}

// yamlConfig is the on-disk YAML structure. Amounts are strings so they
// reach decimal parsing without passing through float64.
type yamlConfig struct {
	CaptureRate           string            `yaml:"capture_rate"`
	DefaultCategoryFactor string            `yaml:"default_category_factor"`
	CategoryFactors       map[string]string `yaml:"category_factors"`
	Multipliers           struct {
		Payer1 string `yaml:"payer1"`
		Payer2 string `yaml:"payer2"`
	} `yaml:"multipliers"`
	ComplianceRate string `yaml:"compliance_rate"`
	FloorThreshold string `yaml:"floor_threshold"`
	Reconcile      struct {
		ChannelPriority []string `yaml:"channel_priority"`
		FuzzyThreshold  float64  `yaml:"fuzzy_threshold"`
		Scorer          string   `yaml:"scorer"`
	} `yaml:"reconcile"`
	Regulatory struct {
		FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
		Scorer         string  `yaml:"scorer"`
	} `yaml:"regulatory"`
	Inputs map[string]string `yaml:"inputs"`
}

// LoadFromFile reads a YAML parameter file and merges its values into the
// Config. Keys that are absent keep their current values.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return c.apply(&yc)
}

func (c *Config) apply(yc *yamlConfig) error {
	p := &c.Params
	set := func(dst *decimal.Decimal, raw, key string) error {
		if raw == "" {
			return nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}
	if err := set(&p.Margin.CaptureRate, yc.CaptureRate, "capture_rate"); err != nil {
		return err
	}
	if err := set(&p.Margin.Multiplier1, yc.Multipliers.Payer1, "multipliers.payer1"); err != nil {
		return err
	}
	if err := set(&p.Margin.Multiplier2, yc.Multipliers.Payer2, "multipliers.payer2"); err != nil {
		return err
	}
	if err := set(&p.Dosing.ComplianceRate, yc.ComplianceRate, "compliance_rate"); err != nil {
		return err
	}
	if err := set(&p.Risk.FloorThreshold, yc.FloorThreshold, "floor_threshold"); err != nil {
		return err
	}

	if yc.DefaultCategoryFactor != "" || len(yc.CategoryFactors) > 0 {
		fallback := p.Margin.Categories.Fallback()
		if err := set(&fallback, yc.DefaultCategoryFactor, "default_category_factor"); err != nil {
			return err
		}
		factors := make(map[string]decimal.Decimal, len(yc.CategoryFactors))
		for k, v := range yc.CategoryFactors {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return fmt.Errorf("category_factors.%s: %w", k, err)
			}
			factors[k] = d
		}
		cats, err := margin.NewCategoryTable(factors, fallback)
		if err != nil {
			return err
		}
		p.Margin.Categories = cats
	}

	if len(yc.Reconcile.ChannelPriority) > 0 {
		c.Reconcile.ChannelPriority = yc.Reconcile.ChannelPriority
	}
	if yc.Reconcile.FuzzyThreshold != 0 {
		c.Reconcile.FuzzyThreshold = yc.Reconcile.FuzzyThreshold
	}
	if yc.Reconcile.Scorer != "" {
		s, ok := similarity.ByName(yc.Reconcile.Scorer)
		if !ok {
			return fmt.Errorf("unknown scorer %q in reconcile", yc.Reconcile.Scorer)
		}
		c.Reconcile.Scorer = s
	}
	if yc.Regulatory.FuzzyThreshold != 0 {
		p.Risk.FuzzyThreshold = yc.Regulatory.FuzzyThreshold
	}
	if yc.Regulatory.Scorer != "" {
		s, ok := similarity.ByName(yc.Regulatory.Scorer)
		if !ok {
			return fmt.Errorf("unknown scorer %q in regulatory", yc.Regulatory.Scorer)
		}
		p.Risk.Scorer = s
	}

	for name, path := range yc.Inputs {
		if _, ok := model.SourceByName(name); !ok {
			return fmt.Errorf("unknown source %q in inputs", name)
		}
		if _, exists := c.Inputs[name]; !exists {
			c.Inputs[name] = path
		}
	}

	return c.ValidateParams()
}

// ValidateParams checks parameter ranges.
func (c *Config) ValidateParams() error {
	c.Params.Workers = c.Workers
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if t := c.Reconcile.FuzzyThreshold; t < 0 || t > 100 {
		return fmt.Errorf("reconcile fuzzy threshold %g outside [0,100]", t)
	}
	if t := c.Params.Risk.FuzzyThreshold; t < 0 || t > 100 {
		return fmt.Errorf("regulatory fuzzy threshold %g outside [0,100]", t)
	}
	return nil
}

// Validate checks that at least a catalog input can be found.
func (c *Config) Validate() error {
	paths, err := c.InputPaths()
	if err != nil {
		return err
	}
	if paths[model.SourceCatalog] == "" {
		return fmt.Errorf("no catalog input: pass --data-dir containing catalog.<parquet|csv|xlsx> or --input catalog=PATH")
	}
	for name, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("%s input not accessible: %w", name, err)
		}
	}
	return nil
}

// ValidateWithDSN checks inputs and the database URL.
func (c *Config) ValidateWithDSN() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.RequireDSN()
}

// RequireDSN checks only the database URL.
func (c *Config) RequireDSN() error {
	if c.DSN == "" {
		return fmt.Errorf("--dsn or RXMARGIN_DB_URL is required")
	}
	return nil
}

// InputPaths merges files discovered in DataDir with explicit overrides.
func (c *Config) InputPaths() (map[string]string, error) {
	paths := map[string]string{}
	if c.DataDir != "" {
		found, err := tables.Discover(c.DataDir)
		if err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		paths = found
	}
	for name, p := range c.Inputs {
		if _, ok := model.SourceByName(name); !ok {
			return nil, fmt.Errorf("unknown source %q", name)
		}
		paths[name] = p
	}
	return paths, nil
}
