package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/crewledger/crewledger/internal/categories"
	"github.com/crewledger/crewledger/internal/model"
)

// FileName is the config file looked up in the working directory.
const FileName = "crewledger.yaml"

// EnvPrefix prefixes environment overrides: CREWLEDGER_IMPORT_TOLERANCE=0.05.
const EnvPrefix = "CREWLEDGER"

// Config represents the top-level crewledger.yaml configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Import     ImportConfig     `yaml:"import" mapstructure:"import"`
	Matching   MatchingConfig   `yaml:"matching" mapstructure:"matching"`
	Categories CategoriesConfig `yaml:"categories" mapstructure:"categories"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DatabaseConfig locates the sqlite database.
type DatabaseConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ImportConfig controls the import pipeline.
type ImportConfig struct {
	Tolerance         string `yaml:"tolerance" mapstructure:"tolerance"` // decimal, e.g. "0.01"
	Workers           int    `yaml:"workers" mapstructure:"workers"`
	HistoryWindowDays int    `yaml:"history_window_days" mapstructure:"history_window_days"`
	FallbackCategory  string `yaml:"fallback_category" mapstructure:"fallback_category"`
	Dir               string `yaml:"dir" mapstructure:"dir"`
}

// MatchingConfig controls entity resolution thresholds.
type MatchingConfig struct {
	AutoMatch       int      `yaml:"auto_match" mapstructure:"auto_match"`
	Suggest         int      `yaml:"suggest" mapstructure:"suggest"`
	MaxSuggestions  int      `yaml:"max_suggestions" mapstructure:"max_suggestions"`
	ProjectPatterns []string `yaml:"project_patterns" mapstructure:"project_patterns"`
}

// CategoriesConfig overrides the keyword heuristic for unmapped account paths.
type CategoriesConfig struct {
	Keywords []model.KeywordRule `yaml:"keywords,omitempty" mapstructure:"keywords"`
}

// ServerConfig controls the review API.
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	PreviewTTL     time.Duration `yaml:"preview_ttl" mapstructure:"preview_ttl"`
	RateLimit      float64       `yaml:"rate_limit" mapstructure:"rate_limit"` // requests per second
	RateBurst      int           `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "text" or "json"
}

// Default returns a Config with sensible defaults for a new install.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "crewledger.db"},
		Import: ImportConfig{
			Tolerance:         "0.01",
			Workers:           8,
			HistoryWindowDays: 1,
			FallbackCategory:  categories.Fallback,
			Dir:               "import",
		},
		Matching: MatchingConfig{
			AutoMatch:      75,
			Suggest:        40,
			MaxSuggestions: 3,
			ProjectPatterns: []string{
				`\b(\d{2}-\d{3,4})\b`,
				`(?i)\bWO\s*#?\s*(\d{3,6})\b`,
			},
		},
		Categories: CategoriesConfig{Keywords: categories.DefaultKeywordRules()},
		Server: ServerConfig{
			Addr:           ":8080",
			PreviewTTL:     30 * time.Minute,
			RateLimit:      20,
			RateBurst:      40,
			MaxUploadBytes: 10 << 20,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("import.tolerance", d.Import.Tolerance)
	v.SetDefault("import.workers", d.Import.Workers)
	v.SetDefault("import.history_window_days", d.Import.HistoryWindowDays)
	v.SetDefault("import.fallback_category", d.Import.FallbackCategory)
	v.SetDefault("import.dir", d.Import.Dir)
	v.SetDefault("matching.auto_match", d.Matching.AutoMatch)
	v.SetDefault("matching.suggest", d.Matching.Suggest)
	v.SetDefault("matching.max_suggestions", d.Matching.MaxSuggestions)
	v.SetDefault("matching.project_patterns", d.Matching.ProjectPatterns)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.preview_ttl", d.Server.PreviewTTL)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration from path (or CREWLEDGER_CONFIG, or ./crewledger.yaml
// when present), applies CREWLEDGER_* environment overrides and validates it.
// An optional .env file in the working directory is loaded first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if _, err := c.Import.ToleranceDecimal(); err != nil {
		errs = append(errs, err)
	}
	if c.Import.Workers < 1 {
		errs = append(errs, fmt.Errorf("import.workers must be at least 1, got %d", c.Import.Workers))
	}
	if c.Import.HistoryWindowDays < 0 {
		errs = append(errs, fmt.Errorf("import.history_window_days must not be negative, got %d", c.Import.HistoryWindowDays))
	}
	if strings.TrimSpace(c.Import.FallbackCategory) == "" {
		errs = append(errs, errors.New("import.fallback_category is required"))
	}
	m := c.Matching
	if m.AutoMatch < 0 || m.AutoMatch > 100 || m.Suggest < 0 || m.Suggest > 100 {
		errs = append(errs, fmt.Errorf("matching thresholds must be within 0..100, got auto_match=%d suggest=%d", m.AutoMatch, m.Suggest))
	}
	if m.Suggest >= m.AutoMatch {
		errs = append(errs, fmt.Errorf("matching.suggest (%d) must be below matching.auto_match (%d)", m.Suggest, m.AutoMatch))
	}
	for _, p := range m.ProjectPatterns {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("matching.project_patterns %q: %w", p, err))
		}
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative, got %v", c.Server.RateLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// ToleranceDecimal parses the reconciliation tolerance.
func (c ImportConfig) ToleranceDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(c.Tolerance))
	if err != nil {
		return decimal.Zero, fmt.Errorf("import.tolerance %q: %w", c.Tolerance, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("import.tolerance must not be negative, got %s", d)
	}
	return d, nil
}

// KeywordRules returns the configured heuristic, or the built-in one.
func (c *Config) KeywordRules() []model.KeywordRule {
	if len(c.Categories.Keywords) > 0 {
		return c.Categories.Keywords
	}
	return categories.DefaultKeywordRules()
}
