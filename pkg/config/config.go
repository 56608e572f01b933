package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"go-blur-bench/pkg/transform"
)

// EnvPrefix namespaces environment overrides, e.g. LOOMY_IMAGES_DIR.
const EnvPrefix = "LOOMY"

// Config is loaded once at startup and passed around by value; nothing writes to it afterwards.
type Config struct {
	ImagesDir   string   `mapstructure:"images_dir"`
	TargetDir   string   `mapstructure:"target_dir"`
	Write       bool     `mapstructure:"write"`
	Debug       bool     `mapstructure:"debug"`
	Extensions  []string `mapstructure:"extensions"`
	LogLevel    string   `mapstructure:"log_level"`
	ResultsDir  string   `mapstructure:"results_dir"`
	MetricsFile string   `mapstructure:"metrics_file"`
	RedisAddr   string   `mapstructure:"redis_addr"`
	Workers     int      `mapstructure:"workers"`
}

var defaults = map[string]any{
	"images_dir":   "images",
	"target_dir":   "target",
	"write":        true,
	"debug":        false,
	"extensions":   []string{"png", "jpg"},
	"log_level":    "info",
	"results_dir":  "",
	"metrics_file": "",
	"redis_addr":   "",
	"workers":      0,
}

// FlagKeys maps CLI flag names onto config keys.
var FlagKeys = map[string]string{
	"images":       "images_dir",
	"target":       "target_dir",
	"write":        "write",
	"debug":        "debug",
	"extensions":   "extensions",
	"log-level":    "log_level",
	"results-dir":  "results_dir",
	"metrics-file": "metrics_file",
	"redis":        "redis_addr",
	"workers":      "workers",
}

// Load resolves the configuration from defaults, the optional file at path,
// LOOMY_* environment variables and flags, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ImagesDir) == "" {
		errs = append(errs, errors.New("images_dir must not be empty"))
	}
	if c.Write && strings.TrimSpace(c.TargetDir) == "" {
		errs = append(errs, errors.New("target_dir must not be empty when write is enabled"))
	}
	if len(c.Extensions) == 0 {
		errs = append(errs, errors.New("extensions must not be empty"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Transform returns the adapter settings.
func (c Config) Transform() transform.Config {
	return transform.Config{
		OutputDir: c.TargetDir,
		Write:     c.Write,
		Debug:     c.Debug,
	}
}
