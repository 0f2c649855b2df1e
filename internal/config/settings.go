package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// ConfigIssue represents a validation finding.
type ConfigIssue struct {
	Key      string `json:"key"`
	Severity string `json:"severity"` // "error", "warning", "info"
	Message  string `json:"message"`
	Fix      string `json:"fix"`
}

var allowed = map[string][]string{
	"charts.naming": {"fixed", "unique"},
	"query.policy":  {"strict", "lenient"},
	"query.matcher": {"substring", "word"},
	"output.format": {"text", "json", "csv"},
}

var intKeys = []string{"charts.width", "charts.height", "output.max_rows", "watch.debounce_ms"}

// Validate checks config values and returns a list of issues.
func Validate() []ConfigIssue {
	var issues []ConfigIssue

	keys := make([]string, 0, len(allowed))
	for k := range allowed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		v := viper.GetString(key)
		if v == "" || contains(allowed[key], v) {
			continue
		}
		issues = append(issues, ConfigIssue{
			Key:      key,
			Severity: "error",
			Message:  fmt.Sprintf("%s is %q, expected one of %s", key, v, strings.Join(allowed[key], ", ")),
			Fix:      fmt.Sprintf("sheetchat config set %s %s", key, allowed[key][0]),
		})
	}

	for _, key := range intKeys {
		raw := viper.GetString(key)
		if raw == "" {
			continue
		}
		if n, err := strconv.Atoi(raw); err != nil || n < 0 {
			issues = append(issues, ConfigIssue{
				Key:      key,
				Severity: "error",
				Message:  fmt.Sprintf("%s must be a non-negative integer, got %q", key, raw),
				Fix:      fmt.Sprintf("sheetchat config set %s %v", key, defaults[key]),
			})
		}
	}

	issues = append(issues, checkChartDir(viper.GetString("charts.dir"))...)
	return issues
}

func checkChartDir(dir string) []ConfigIssue {
	if dir == "" {
		dir = "charts"
	}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return []ConfigIssue{{
			Key:      "charts.dir",
			Severity: "info",
			Message:  fmt.Sprintf("chart directory %s does not exist yet and will be created on first chart", dir),
		}}
	case err != nil:
		return []ConfigIssue{{Key: "charts.dir", Severity: "error", Message: err.Error()}}
	case !info.IsDir():
		return []ConfigIssue{{
			Key:      "charts.dir",
			Severity: "error",
			Message:  fmt.Sprintf("chart directory %s is a file", dir),
			Fix:      "sheetchat config set charts.dir <directory>",
		}}
	}

	f, err := os.CreateTemp(dir, ".sheetchat-check-*")
	if err != nil {
		return []ConfigIssue{{
			Key:      "charts.dir",
			Severity: "error",
			Message:  fmt.Sprintf("chart directory %s is not writable", dir),
			Fix:      "sheetchat config set charts.dir <writable directory>",
		}}
	}
	f.Close()
	os.Remove(f.Name())
	return nil
}

// ToEnv returns all config values as a map of env var name -> value.
func ToEnv() map[string]string {
	env := make(map[string]string)
	for _, key := range Keys() {
		if v := viper.GetString(key); v != "" {
			env["SHEETCHAT_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))] = v
		}
	}
	return env
}

// Keys lists every known setting in display order.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set sets a config value and saves to disk.
func Set(key, value string) error {
	if _, ok := defaults[key]; !ok {
		return fmt.Errorf("unknown config key %q — run 'sheetchat config show' to list keys", key)
	}
	if choices, ok := allowed[key]; ok && !contains(choices, value) {
		return fmt.Errorf("invalid value %q for %s — expected one of %s", value, key, strings.Join(choices, ", "))
	}
	viper.Set(key, value)
	return SaveConfig()
}

// Get retrieves a config value.
func Get(key string) string {
	return viper.GetString(key)
}

// ResetConfig resets all config to defaults.
func ResetConfig() error {
	path := ConfigPath()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("could not delete config: %w", err)
	}
	for k, v := range defaults {
		viper.Set(k, v)
	}
	return nil
}

// SaveConfig writes the current config to ~/.sheetchat/config.yaml.
func SaveConfig() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}

	os.Chmod(path, 0600)
	return nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// ShowConfig returns a formatted string of the current configuration,
// grouped by section.
func ShowConfig() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Config: %s\n", ConfigPath()))

	section := ""
	for _, key := range Keys() {
		group, name, _ := strings.Cut(key, ".")
		if group != section {
			section = group
			sb.WriteString("\n" + group + "\n")
		}
		sb.WriteString(fmt.Sprintf("  %-12s %s\n", name+":", viper.GetString(key)))
	}
	return sb.String()
}
