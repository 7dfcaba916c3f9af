package config

import (
	"fmt"
	"os"
	"strings"
)

// SettingSource represents where an effective setting comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceConfig  SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// SettingStatus describes one effective setting for the status command.
type SettingStatus struct {
	Name   string        `json:"name"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
}

// CheckSettings reports the effective values of the settings that decide
// where requests go and how the page behaves.
func CheckSettings(cfg *Config) []SettingStatus {
	return []SettingStatus{
		checkSetting("Engine URL", "engine.url", cfg.Engine.URL, DefaultEngineURL),
		checkSetting("Engine Timeout", "engine.timeout_sec", fmt.Sprintf("%ds", cfg.Engine.TimeoutSec), "90s"),
		checkSetting("Web Listen Address", "api.port", cfg.ListenAddr(), "127.0.0.1:3000"),
		checkSetting("Scroll Delay", "ui.scroll_delay_ms", fmt.Sprintf("%dms", cfg.UI.ScrollDelayMS), "200ms"),
		checkSetting("Log Level", "logging.level", cfg.Logging.Level, "info"),
	}
}

// EnvVar returns the environment variable that overrides a dotted key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func checkSetting(name, key, value, def string) SettingStatus {
	status := SettingStatus{Name: name, Value: value}
	switch {
	case os.Getenv(EnvVar(key)) != "":
		status.Source = SourceEnv
	case value != def:
		status.Source = SourceConfig
	default:
		status.Source = SourceDefault
	}
	return status
}
