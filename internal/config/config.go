// Package config loads run configuration from coursemapper.yaml, the
// environment, and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the resolved run configuration.
type Config struct {
	// Store selects the backend: "mysql" or "sqlite".
	Store string `mapstructure:"store" yaml:"store"`
	// DSN is the MySQL connection string.
	DSN string `mapstructure:"dsn" yaml:"dsn"`
	// DBFile is the sqlite snapshot path.
	DBFile string `mapstructure:"db-file" yaml:"db-file"`
	// ReportsDir receives the three CSV tables and the report channels.
	ReportsDir string `mapstructure:"reports-dir" yaml:"reports-dir"`
	// Quarantine is the path of the quarantine CSV.
	Quarantine string `mapstructure:"quarantine" yaml:"quarantine"`

	// ConciseConditionals emits {if}/{else} branch tags instead of
	// {if_true}/{if_false}.
	ConciseConditionals bool `mapstructure:"concise-conditionals" yaml:"concise-conditionals"`
	// NoRemarks drops remark text from requirement contexts.
	NoRemarks bool `mapstructure:"no-remarks" yaml:"no-remarks"`
	// NoProxyAdvice drops proxy-advice text from qualifier lists.
	NoProxyAdvice bool `mapstructure:"no-proxy-advice" yaml:"no-proxy-advice"`
	// Debug enables metric dumps and the debug report channel.
	Debug bool `mapstructure:"debug" yaml:"debug"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Store:      "mysql",
		DSN:        "coursemapper@tcp(127.0.0.1:3306)/cuny_curriculum",
		ReportsDir: "reports",
	}
}

// Init wires viper: config file discovery, env overrides, and defaults.
// Flag binding happens in the command layer.
func Init(v *viper.Viper, cfgFile string) error {
	d := Defaults()
	v.SetDefault("store", d.Store)
	v.SetDefault("dsn", d.DSN)
	v.SetDefault("db-file", d.DBFile)
	v.SetDefault("reports-dir", d.ReportsDir)
	v.SetDefault("quarantine", d.Quarantine)

	v.SetEnvPrefix("COURSEMAPPER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("coursemapper")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil // no config file is fine; defaults apply
		}
		if cfgFile == "" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves the final Config from viper state.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	switch cfg.Store {
	case "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("unknown store %q (want mysql or sqlite)", cfg.Store)
	}
	if cfg.Store == "sqlite" && cfg.DBFile == "" {
		return nil, fmt.Errorf("store sqlite requires db-file")
	}
	return cfg, nil
}

// LoadLocal reads a coursemapper.yaml directly, bypassing viper. Useful in
// tests and when the working directory changed after Init.
func LoadLocal(path string) *Config {
	cfg := Defaults()
	data, err := os.ReadFile(path) // #nosec G304 - caller supplies a config path
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Defaults()
	}
	return cfg
}
