package config

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/viper"
)

// RuntimeConfig holds the CLI-level settings shared by the edit and task
// surfaces. Values come from arc-config.json (in $HOME or the current
// directory) with flag overrides applied by the command layer.
type RuntimeConfig struct {
	ProjectRoot   string        `mapstructure:"project_root"`
	Model         string        `mapstructure:"model"`
	TaskTimeout   time.Duration `mapstructure:"task_timeout"`
	MaxIterations int           `mapstructure:"max_iterations"`
	CacheSize     int           `mapstructure:"cache_size"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	ColorOutput   bool          `mapstructure:"color_output"`
	Debug         bool          `mapstructure:"debug"`
}

// Default returns the built-in configuration, rooted at the current working
// directory.
func Default() RuntimeConfig {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return RuntimeConfig{
		ProjectRoot:   cwd,
		TaskTimeout:   5 * time.Minute,
		MaxIterations: 25,
		CacheSize:     256,
		CacheTTL:      5 * time.Minute,
		ColorOutput:   true,
	}
}

// Load reads arc-config.json when present and overlays it on the defaults.
// A missing config file is not an error.
func Load() (RuntimeConfig, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName("arc-config")
	v.SetConfigType("json")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetDefault("project_root", cfg.ProjectRoot)
	v.SetDefault("task_timeout", cfg.TaskTimeout)
	v.SetDefault("max_iterations", cfg.MaxIterations)
	v.SetDefault("cache_size", cfg.CacheSize)
	v.SetDefault("cache_ttl", cfg.CacheTTL)
	v.SetDefault("color_output", cfg.ColorOutput)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, err
		}
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
