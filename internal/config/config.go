package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/datalens-cli/internal/analysis"
	"github.com/KaramelBytes/datalens-cli/internal/dataset"
	"github.com/KaramelBytes/datalens-cli/internal/logging"
	"github.com/KaramelBytes/datalens-cli/internal/phrase"
)

// Global configuration structure.
type Global struct {
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`
	Locale       string `mapstructure:"locale" yaml:"locale"`
	PhrasesFile  string `mapstructure:"phrases_file" yaml:"phrases_file"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// Input parsing
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
	SheetName string `mapstructure:"sheet_name" yaml:"sheet_name"`
	MaxRows   int    `mapstructure:"max_rows" yaml:"max_rows"`

	StrongCorrelation float64 `mapstructure:"strong_correlation" yaml:"strong_correlation"`
	PredictiveMinRows int     `mapstructure:"predictive_min_rows" yaml:"predictive_min_rows"`

	// HTTP server
	ServerAddr        string `mapstructure:"server_addr" yaml:"server_addr"`
	UploadMaxBytes    int64  `mapstructure:"upload_max_bytes" yaml:"upload_max_bytes"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`

	HistoryDir       string `mapstructure:"history_dir" yaml:"history_dir"`
	BatchConcurrency int    `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`
}

const dirName = ".datalens"

func defaults() map[string]any {
	return map[string]any{
		"log_level":           "warn",
		"log_format":          "console",
		"locale":              phrase.DefaultLocale,
		"phrases_file":        "",
		"output_format":       "json",
		"delimiter":           "",
		"sheet_name":          "",
		"max_rows":            0,
		"strong_correlation":  analysis.DefaultThresholds().StrongCorrelation,
		"predictive_min_rows": analysis.DefaultThresholds().PredictiveMinRows,
		"server_addr":         ":8080",
		"upload_max_bytes":    int64(10 << 20),
		"request_timeout_sec": 30,
		"history_dir":         "",
		"batch_concurrency":   4,
	}
}

// Keys returns the recognised configuration keys in sorted order.
func Keys() []string {
	d := defaults()
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Path returns the config file path: cfgFile when set, else ~/.datalens/config.yaml.
func Path(cfgFile string) (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName, "config.yaml"), nil
}

// Save writes the configuration as YAML, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path, err := Path(cfgFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from defaults, the config file, .env and the
// environment. Precedence: env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := newViper()
	path, err := Path(cfgFile)
	if err != nil {
		return nil, err
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil && cfgFile != "" {
		if _, statErr := os.Stat(path); statErr == nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

// Default returns the built-in defaults with environment overrides applied
// and no config file read.
func Default() *Global {
	c, err := decode(newViper())
	if err != nil {
		c = &Global{}
	}
	return c
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	return v
}

func decode(v *viper.Viper) (*Global, error) {
	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.HistoryDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.HistoryDir = filepath.Join(home, dirName, "reports")
	}
	return &c, nil
}

// Set validates and assigns one key.
func (c *Global) Set(key, val string) error {
	switch key {
	case "log_level":
		if _, err := logging.ParseLevel(val); err != nil {
			return err
		}
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		if val != "console" && val != "json" {
			return fmt.Errorf("invalid log_format: %s (use console or json)", val)
		}
		c.LogFormat = val
	case "locale":
		if _, err := phrase.Load(val); err != nil {
			return err
		}
		c.Locale = val
	case "phrases_file":
		c.PhrasesFile = val
	case "output_format":
		switch val {
		case "json", "markdown", "html":
			c.OutputFormat = val
		default:
			return fmt.Errorf("invalid output_format: %s (use json|markdown|html)", val)
		}
	case "delimiter":
		if _, err := ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
	case "sheet_name":
		c.SheetName = val
	case "max_rows":
		n, err := nonNegativeInt(key, val)
		if err != nil {
			return err
		}
		c.MaxRows = n
	case "strong_correlation":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f <= 0 || f > 1 {
			return fmt.Errorf("invalid strong_correlation: %s (want 0 < r <= 1)", val)
		}
		c.StrongCorrelation = f
	case "predictive_min_rows":
		n, err := nonNegativeInt(key, val)
		if err != nil {
			return err
		}
		c.PredictiveMinRows = n
	case "server_addr":
		c.ServerAddr = val
	case "upload_max_bytes":
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid upload_max_bytes: %s", val)
		}
		c.UploadMaxBytes = n
	case "request_timeout_sec":
		n, err := nonNegativeInt(key, val)
		if err != nil || n == 0 {
			return fmt.Errorf("invalid request_timeout_sec: %s", val)
		}
		c.RequestTimeoutSec = n
	case "history_dir":
		c.HistoryDir = val
	case "batch_concurrency":
		n, err := nonNegativeInt(key, val)
		if err != nil || n == 0 {
			return fmt.Errorf("invalid batch_concurrency: %s", val)
		}
		c.BatchConcurrency = n
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func nonNegativeInt(key, val string) (int, error) {
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %s", key, val)
	}
	return n, nil
}

// ParseDelimiter accepts a single character, "tab" or `\t`; empty means auto.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q (want a single character)", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// DatasetOptions maps the input-parsing keys onto loader options.
func (c *Global) DatasetOptions() (dataset.Options, error) {
	opt := dataset.DefaultOptions()
	d, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	opt.SheetName = c.SheetName
	opt.MaxRows = c.MaxRows
	return opt, nil
}

// Thresholds maps the tunable keys onto the analysis defaults.
func (c *Global) Thresholds() analysis.Thresholds {
	th := analysis.DefaultThresholds()
	if c.StrongCorrelation > 0 {
		th.StrongCorrelation = c.StrongCorrelation
	}
	if c.PredictiveMinRows > 0 {
		th.PredictiveMinRows = c.PredictiveMinRows
	}
	return th
}

// Catalog loads the configured locale and applies the optional overlay file.
func (c *Global) Catalog() (*phrase.Catalog, error) {
	cat, err := phrase.Load(c.Locale)
	if err != nil {
		return nil, err
	}
	if c.PhrasesFile != "" {
		if err := cat.Overlay(c.PhrasesFile); err != nil {
			return nil, err
		}
	}
	return cat, nil
}
