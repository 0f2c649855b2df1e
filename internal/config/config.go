// Package config manages application configuration from files and environment.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Charts struct {
		Dir    string `mapstructure:"dir"`
		Naming string `mapstructure:"naming"`
		Width  int    `mapstructure:"width"`
		Height int    `mapstructure:"height"`
	} `mapstructure:"charts"`
	Query struct {
		Policy  string `mapstructure:"policy"`
		Matcher string `mapstructure:"matcher"`
	} `mapstructure:"query"`
	Output struct {
		Format  string `mapstructure:"format"`
		Color   bool   `mapstructure:"color"`
		MaxRows int    `mapstructure:"max_rows"`
	} `mapstructure:"output"`
	History struct {
		Enabled   bool `mapstructure:"enabled"`
		Questions bool `mapstructure:"questions"`
	} `mapstructure:"history"`
	Watch struct {
		DebounceMS int `mapstructure:"debounce_ms"`
	} `mapstructure:"watch"`
}

var defaults = map[string]any{
	"charts.dir":        "charts",
	"charts.naming":     "fixed",
	"charts.width":      800,
	"charts.height":     500,
	"query.policy":      "strict",
	"query.matcher":     "substring",
	"output.format":     "text",
	"output.color":      true,
	"output.max_rows":   50,
	"history.enabled":   true,
	"history.questions": false,
	"watch.debounce_ms": 500,
}

// Load reads the configuration from ~/.sheetchat/config.yaml and
// SHEETCHAT_* environment variables (SHEETCHAT_CHARTS_DIR for charts.dir).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(Dir())

	applyDefaults()

	viper.SetEnvPrefix("SHEETCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (non-fatal if missing)
	_ = viper.ReadInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

// Dir returns the sheetchat state directory. SHEETCHAT_HOME overrides the
// default of ~/.sheetchat.
func Dir() string {
	if d := os.Getenv("SHEETCHAT_HOME"); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sheetchat"
	}
	return filepath.Join(home, ".sheetchat")
}
