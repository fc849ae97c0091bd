package config

import (
	"bytes"
	"decisionbacktester/internal/analytics"
	"decisionbacktester/internal/engine"
	"decisionbacktester/internal/logger"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

type SourceConfig struct {
	Kind        string `yaml:"kind"`
	Dir         string `yaml:"dir"`
	DatabaseURL string `yaml:"database_url"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Tracing bool   `yaml:"tracing"`
}

type Config struct {
	InitialCash   decimal.Decimal `yaml:"initial_cash"`
	LotPolicy     string          `yaml:"lot_policy"`
	RepeatBuy     string          `yaml:"repeat_buy"`
	RiskFreeRate  float64         `yaml:"risk_free_rate"`
	VaRConfidence float64         `yaml:"var_confidence"`
	// Workers of 0 runs one simulation per CPU.
	Workers      int  `yaml:"workers"`
	ShowProgress bool `yaml:"show_progress"`

	Source    SourceConfig `yaml:"source"`
	ResultsDB string       `yaml:"results_db"`
	OutputDir string       `yaml:"output_dir"`
	Log       LogConfig    `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		InitialCash:   engine.DefaultInitialCash,
		LotPolicy:     string(engine.LotWhole),
		RepeatBuy:     string(engine.RepeatBuyIgnore),
		VaRConfidence: analytics.DefaultVaRConfidence,
		ShowProgress:  true,
		Source: SourceConfig{
			Kind: SourceCSV,
			Dir:  "data",
		},
		ResultsDB: "results/backtests.db",
		OutputDir: "results",
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.decode(b); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(b []byte) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("BACKTEST_DATABASE_URL"); val != "" {
		c.Source.DatabaseURL = val
	}
	if val := os.Getenv("BACKTEST_DATA_DIR"); val != "" {
		c.Source.Dir = val
	}
	if val := os.Getenv("BACKTEST_RESULTS_DB"); val != "" {
		c.ResultsDB = val
	}
	if val := os.Getenv("BACKTEST_WORKERS"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.Workers = v
		}
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}
}

func (c *Config) Validate() error {
	if !c.InitialCash.IsPositive() {
		return fmt.Errorf("%w: initial_cash must be positive, got %s", ErrInvalidConfig, c.InitialCash)
	}
	switch engine.LotPolicy(c.LotPolicy) {
	case engine.LotWhole, engine.LotFractional:
	default:
		return fmt.Errorf("%w: lot_policy must be 'whole' or 'fractional', got %q", ErrInvalidConfig, c.LotPolicy)
	}
	switch engine.RepeatBuyPolicy(c.RepeatBuy) {
	case engine.RepeatBuyIgnore, engine.RepeatBuyScaleIn:
	default:
		return fmt.Errorf("%w: repeat_buy must be 'ignore' or 'scale_in', got %q", ErrInvalidConfig, c.RepeatBuy)
	}
	if c.VaRConfidence <= 0 || c.VaRConfidence >= 1 {
		return fmt.Errorf("%w: var_confidence must be in (0,1), got %v", ErrInvalidConfig, c.VaRConfidence)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", ErrInvalidConfig, c.Workers)
	}
	switch c.Source.Kind {
	case SourceCSV, SourcePostgres:
	default:
		return fmt.Errorf("%w: source.kind must be 'csv' or 'postgres', got %q", ErrInvalidConfig, c.Source.Kind)
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("%w: log.format must be 'json' or 'text', got %q", ErrInvalidConfig, c.Log.Format)
	}
	return nil
}

func (c *Config) PortfolioConfig() engine.PortfolioConfig {
	return engine.NewPortfolioConfig(c.InitialCash, engine.LotPolicy(c.LotPolicy), engine.RepeatBuyPolicy(c.RepeatBuy))
}

func (c *Config) RiskConfig() analytics.Config {
	return analytics.NewConfig(c.RiskFreeRate, c.VaRConfidence)
}

func (c *Config) EngineConfig() *engine.Config {
	return engine.NewConfig(c.PortfolioConfig(), c.RiskConfig(), c.Workers, c.ShowProgress)
}

func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:   c.Log.Level,
		Format:  strings.ToLower(c.Log.Format),
		Tracing: c.Log.Tracing,
	}
}

// EnsureDirectories creates the output directory and the parent of the
// results database.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.OutputDir}
	if c.ResultsDB != "" {
		dirs = append(dirs, filepath.Dir(c.ResultsDB))
	}
	for _, dir := range dirs {
		path := strings.TrimSpace(dir)
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", path, err)
		}
	}
	return nil
}
